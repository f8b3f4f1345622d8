package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/miradorstack/sda-engine/internal/api"
	"github.com/miradorstack/sda-engine/internal/engine"
	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/utils"
)

const (
	healthOK    = "ok"
	healthStale = "stale"
)

// ApprovalService implements the gRPC ApprovalEngine service.
type ApprovalService struct {
	sdav1.UnimplementedApprovalEngineServer

	logger     *slog.Logger
	evaluator  *engine.Evaluator
	staleAfter time.Duration
	latencies  *utils.LatencyTracker
	observed   atomic.Int64
	now        func() time.Time
}

// NewApprovalService constructs the service facade. staleAfter > 0 makes the health
// check report "stale" once the snapshot is older than that.
func NewApprovalService(logger *slog.Logger, evaluator *engine.Evaluator, staleAfter time.Duration) *ApprovalService {
	return &ApprovalService{
		logger:     utils.OrDefault(logger),
		evaluator:  evaluator,
		staleAfter: staleAfter,
		latencies:  utils.NewLatencyTracker(1024),
		now:        time.Now,
	}
}

// ComputeRouting returns the approval route for a classification.
func (s *ApprovalService) ComputeRouting(ctx context.Context, req *sdav1.RoutingRequest) (*sdav1.RoutingResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	facts, err := api.FromWireClassification(req.Classification)
	if err != nil {
		return nil, s.statusFromError("ComputeRouting", err)
	}
	steps, err := s.evaluator.Route(facts)
	if err != nil {
		return nil, s.statusFromError("ComputeRouting", err)
	}
	return &sdav1.RoutingResponse{Steps: api.ToWireSteps(steps)}, nil
}

// PredictTimeline predicts over explicit steps. Omitting both historical stats and
// workload predicts against the current snapshot; supplying either uses exactly what
// was supplied.
func (s *ApprovalService) PredictTimeline(ctx context.Context, req *sdav1.PredictRequest) (*sdav1.PredictResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	if req.RequestDate == nil || req.RequestDate.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "request_date is required")
	}
	bu, err := models.ParseBusinessUnit(req.BusinessUnit)
	if err != nil {
		return nil, s.statusFromError("PredictTimeline", err)
	}
	duration, err := models.ParseDurationCategory(req.DurationCategory)
	if err != nil {
		return nil, s.statusFromError("PredictTimeline", err)
	}
	steps, err := api.FromWireSteps(req.Steps)
	if err != nil {
		return nil, s.statusFromError("PredictTimeline", err)
	}

	in := engine.PredictionInput{
		Steps:            steps,
		RequestDate:      *req.RequestDate,
		BusinessUnit:     bu,
		DurationCategory: duration,
	}
	if req.HistoricalStats == nil && req.Workload == nil {
		snap := s.evaluator.Snapshot()
		in.Stats, in.Workload = snap.Stats, snap.Workload
	} else {
		if in.Stats, err = api.FromWireStats(req.HistoricalStats); err != nil {
			return nil, s.statusFromError("PredictTimeline", err)
		}
		if in.Workload, err = api.FromWireWorkload(req.Workload); err != nil {
			return nil, s.statusFromError("PredictTimeline", err)
		}
	}

	start := time.Now()
	prediction, err := s.evaluator.Predict(in)
	if err != nil {
		return nil, s.statusFromError("PredictTimeline", err)
	}
	s.observeLatency("prediction", time.Since(start))
	return &sdav1.PredictResponse{Prediction: api.ToWirePrediction(prediction)}, nil
}

// Evaluate routes and predicts a deviation against the current snapshot.
func (s *ApprovalService) Evaluate(ctx context.Context, req *sdav1.EvaluateRequest) (*sdav1.EvaluateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	facts, err := api.FromWireClassification(req.Classification)
	if err != nil {
		return nil, s.statusFromError("Evaluate", err)
	}
	previous, err := api.FromWireSteps(req.PreviousSteps)
	if err != nil {
		return nil, s.statusFromError("Evaluate", err)
	}

	evalReq := engine.EvaluationRequest{
		DeviationID:   req.DeviationID,
		Facts:         facts,
		PreviousSteps: previous,
	}
	if req.RequestDate != nil {
		evalReq.RequestDate = *req.RequestDate
	}

	s.logger.Debug("Evaluate called", slog.String("deviation_id", req.DeviationID))
	start := time.Now()
	result, err := s.evaluator.Evaluate(ctx, evalReq)
	if err != nil {
		return nil, s.statusFromError("Evaluate", err)
	}
	s.observeLatency("evaluation", time.Since(start))

	return &sdav1.EvaluateResponse{
		DeviationID:         result.DeviationID,
		Steps:               api.ToWireSteps(result.Steps),
		Prediction:          api.ToWirePrediction(result.Prediction),
		Reconciliation:      api.ToWireReconciliation(result.Reconciliation),
		SnapshotRefreshedAt: api.OptionalTime(result.SnapshotRefreshedAt),
	}, nil
}

// ReconcileRouting recomputes the route and carries unambiguous decisions across.
func (s *ApprovalService) ReconcileRouting(ctx context.Context, req *sdav1.ReconcileRequest) (*sdav1.ReconcileResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	facts, err := api.FromWireClassification(req.Classification)
	if err != nil {
		return nil, s.statusFromError("ReconcileRouting", err)
	}
	previous, err := api.FromWireSteps(req.PreviousSteps)
	if err != nil {
		return nil, s.statusFromError("ReconcileRouting", err)
	}
	next, err := s.evaluator.Route(facts)
	if err != nil {
		return nil, s.statusFromError("ReconcileRouting", err)
	}
	result := engine.Reconcile(previous, next)
	return &sdav1.ReconcileResponse{
		Steps:          api.ToWireSteps(result.Steps),
		Reconciliation: api.ToWireReconciliation(&result),
	}, nil
}

// GetSnapshot returns the statistics predictions currently read from.
func (s *ApprovalService) GetSnapshot(ctx context.Context, req *sdav1.SnapshotRequest) (*sdav1.SnapshotResponse, error) {
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	return api.ToWireSnapshot(s.evaluator.Snapshot()), nil
}

// HealthCheck reports service health.
func (s *ApprovalService) HealthCheck(ctx context.Context, req *sdav1.HealthRequest) (*sdav1.HealthResponse, error) {
	if s.evaluator == nil {
		return nil, status.Error(codes.FailedPrecondition, "evaluator not configured")
	}
	if s.staleAfter > 0 {
		refreshed := s.evaluator.Snapshot().RefreshedAt
		if refreshed.IsZero() || s.now().Sub(refreshed) > s.staleAfter {
			return &sdav1.HealthResponse{Status: healthStale}, nil
		}
	}
	return &sdav1.HealthResponse{Status: healthOK}, nil
}

func (s *ApprovalService) statusFromError(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidClassification), errors.Is(err, api.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error("request failed", slog.String("op", op), slog.Any("error", err))
	return status.Error(codes.Internal, utils.NewAppError(op, "internal error", nil).Error())
}

func (s *ApprovalService) observeLatency(kind string, d time.Duration) {
	s.latencies.Observe(d)
	if n := s.observed.Add(1); n%100 == 0 {
		s.logger.Info("engine latency",
			slog.String("kind", kind),
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", s.latencies.Count()),
		)
	}
}
