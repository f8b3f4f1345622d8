package services

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/sda-engine/internal/engine"
	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/snapshot"
)

var requestDate = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestService(store *snapshot.Store) *ApprovalService {
	evaluator := engine.NewEvaluator(nil, nil, nil, store, nil)
	return NewApprovalService(nil, evaluator, 0)
}

func TestComputeRouting(t *testing.T) {
	service := newTestService(nil)
	resp, err := service.ComputeRouting(context.Background(), &sdav1.RoutingRequest{
		Classification: &sdav1.Classification{BusinessUnit: "rb", DurationCategory: "≤3 months & prior to handover"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Steps) != 6 || resp.Steps[5].Role != "Quality Engineer (series)" {
		t.Fatalf("unexpected steps: %+v", resp.Steps)
	}
	if resp.Steps[0].Status != "pending" || !resp.Steps[0].Required {
		t.Fatalf("unexpected first step: %+v", resp.Steps[0])
	}
}

func TestComputeRoutingInvalidArgument(t *testing.T) {
	service := newTestService(nil)
	cases := []*sdav1.RoutingRequest{
		nil,
		{},
		{Classification: &sdav1.Classification{BusinessUnit: "RB", DurationCategory: "two weeks"}},
		{Classification: &sdav1.Classification{BusinessUnit: "ZZ", DurationCategory: "short_prior"}},
	}
	for i, req := range cases {
		_, err := service.ComputeRouting(context.Background(), req)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("case %d: expected invalid argument, got %v", i, err)
		}
	}
}

func TestPredictTimelineSnapshotFallback(t *testing.T) {
	store := snapshot.NewStore()
	store.Publish(&snapshot.Snapshot{
		Stats:       map[models.Role]models.HistoricalStat{models.RoleRequestor: {AvgDays: 1, SampleCount: 30}},
		RefreshedAt: requestDate,
	})
	service := newTestService(store)
	date := requestDate
	req := &sdav1.PredictRequest{
		Steps:            []*sdav1.ApprovalStep{{ID: "1", Role: "Requestor"}},
		RequestDate:      &date,
		BusinessUnit:     "RB",
		DurationCategory: "short_prior",
	}

	resp, err := service.PredictTimeline(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Prediction.Steps[0].ExpectedDays; got != 1.0 {
		t.Fatalf("expected snapshot average 1.0, got %v", got)
	}

	req.Workload = map[string]int{"Requestor": 0}
	resp, err = service.PredictTimeline(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Prediction.Steps[0].ExpectedDays; got != 3.0 {
		t.Fatalf("supplied data must replace the snapshot, got %v", got)
	}
}

func TestPredictTimelineValidation(t *testing.T) {
	service := newTestService(nil)
	date := requestDate
	cases := []*sdav1.PredictRequest{
		{BusinessUnit: "RB", DurationCategory: "short_prior"},
		{RequestDate: &date, BusinessUnit: "RB", DurationCategory: "short_prior", Steps: []*sdav1.ApprovalStep{{ID: "1", Role: "Intern"}}},
		{RequestDate: &date, BusinessUnit: "RB", DurationCategory: "short_prior", Steps: []*sdav1.ApprovalStep{nil}},
		{RequestDate: &date, BusinessUnit: "RB", DurationCategory: "short_prior", Workload: map[string]int{"Nobody": 3}},
		{RequestDate: &date, BusinessUnit: "RB", DurationCategory: "short_prior", HistoricalStats: []*sdav1.HistoricalStat{{Role: "Requestor", AvgDays: -1}}},
	}
	for i, req := range cases {
		_, err := service.PredictTimeline(context.Background(), req)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("case %d: expected invalid argument, got %v", i, err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	service := newTestService(nil)
	date := requestDate
	resp, err := service.Evaluate(context.Background(), &sdav1.EvaluateRequest{
		DeviationID:    "SDA-100",
		Classification: &sdav1.Classification{BusinessUnit: "ET", DurationCategory: "long_prior", SafetyRelevant: true},
		RequestDate:    &date,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DeviationID != "SDA-100" || len(resp.Steps) != 8 || len(resp.Prediction.Steps) != 8 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Steps[7].Role != "Product Safety Officer" {
		t.Fatalf("expected safety officer last, got %s", resp.Steps[7].Role)
	}
	if resp.Reconciliation != nil || resp.SnapshotRefreshedAt != nil {
		t.Fatalf("expected no reconciliation and no snapshot time")
	}
}

func TestReconcileRouting(t *testing.T) {
	service := newTestService(nil)
	decided := requestDate
	resp, err := service.ReconcileRouting(context.Background(), &sdav1.ReconcileRequest{
		Classification: &sdav1.Classification{BusinessUnit: "RB", DurationCategory: "medium_after"},
		PreviousSteps: []*sdav1.ApprovalStep{
			{ID: "1", Role: "Requestor", Status: "approved", ApproverName: "M. Ortiz", DecisionDate: &decided},
			{ID: "3", Role: "R&D responsible", Status: "approved"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reconciliation.Carried != 1 || len(resp.Reconciliation.Dropped) != 1 {
		t.Fatalf("unexpected reconciliation: %+v", resp.Reconciliation)
	}
	if resp.Steps[0].Status != "approved" || resp.Steps[0].ApproverName != "M. Ortiz" {
		t.Fatalf("decision not carried: %+v", resp.Steps[0])
	}
}

func TestHealthCheckStaleness(t *testing.T) {
	store := snapshot.NewStore()
	evaluator := engine.NewEvaluator(nil, nil, nil, store, nil)
	service := NewApprovalService(nil, evaluator, time.Minute)
	service.now = func() time.Time { return requestDate }

	resp, err := service.HealthCheck(context.Background(), &sdav1.HealthRequest{})
	if err != nil || resp.Status != healthStale {
		t.Fatalf("expected stale before first refresh, got %+v %v", resp, err)
	}

	store.Publish(&snapshot.Snapshot{RefreshedAt: requestDate.Add(-30 * time.Second)})
	resp, err = service.HealthCheck(context.Background(), &sdav1.HealthRequest{})
	if err != nil || resp.Status != healthOK {
		t.Fatalf("expected ok, got %+v %v", resp, err)
	}
}

func TestNotConfigured(t *testing.T) {
	service := NewApprovalService(nil, nil, 0)
	_, err := service.Evaluate(context.Background(), &sdav1.EvaluateRequest{})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
}

func TestSnapshotAndHealthWithoutStore(t *testing.T) {
	service := newTestService(nil)
	service.staleAfter = time.Minute

	snap, err := service.GetSnapshot(context.Background(), &sdav1.SnapshotRequest{})
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if len(snap.HistoricalStats) != 0 || snap.RefreshedAt != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	resp, err := service.HealthCheck(context.Background(), &sdav1.HealthRequest{})
	if err != nil || resp.Status != healthStale {
		t.Fatalf("expected stale without any refresh, got %+v %v", resp, err)
	}
}
