package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/miradorstack/sda-engine/internal/engine"
	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/snapshot"
)

// ErrInvalidRequest marks structurally malformed wire requests.
var ErrInvalidRequest = errors.New("invalid request")

// FromWireClassification maps wire classification codes into domain facts.
func FromWireClassification(c *sdav1.Classification) (models.ClassificationFacts, error) {
	if c == nil {
		return models.ClassificationFacts{}, fmt.Errorf("%w: classification is required", ErrInvalidRequest)
	}
	bu, err := models.ParseBusinessUnit(c.BusinessUnit)
	if err != nil {
		return models.ClassificationFacts{}, err
	}
	duration, err := models.ParseDurationCategory(c.DurationCategory)
	if err != nil {
		return models.ClassificationFacts{}, err
	}
	return models.ClassificationFacts{
		BusinessUnit:     bu,
		DurationCategory: duration,
		SafetyRelevant:   c.SafetyRelevant,
	}, nil
}

// FromWireSteps maps wire steps into domain steps, rejecting unknown roles and statuses.
func FromWireSteps(steps []*sdav1.ApprovalStep) ([]models.ApprovalStep, error) {
	out := make([]models.ApprovalStep, 0, len(steps))
	for i, s := range steps {
		if s == nil {
			return nil, fmt.Errorf("%w: steps[%d] is null", ErrInvalidRequest, i)
		}
		role, err := models.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		status, err := models.ParseStepStatus(s.Status)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		step := models.ApprovalStep{
			ID:           s.ID,
			Role:         role,
			Required:     s.Required,
			Status:       status,
			ApproverName: s.ApproverName,
			Comment:      s.Comment,
		}
		if s.DecisionDate != nil {
			decided := s.DecisionDate.UTC()
			step.DecisionDate = &decided
		}
		out = append(out, step)
	}
	return out, nil
}

// ToWireSteps converts domain steps into their wire form.
func ToWireSteps(steps []models.ApprovalStep) []*sdav1.ApprovalStep {
	out := make([]*sdav1.ApprovalStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, toWireStep(s))
	}
	return out
}

func toWireStep(s models.ApprovalStep) *sdav1.ApprovalStep {
	step := &sdav1.ApprovalStep{
		ID:           s.ID,
		Role:         s.Role.String(),
		Required:     s.Required,
		Status:       string(s.Status),
		ApproverName: s.ApproverName,
		Comment:      s.Comment,
	}
	if s.DecisionDate != nil {
		decided := *s.DecisionDate
		step.DecisionDate = &decided
	}
	return step
}

// FromWireStats maps a list of per-role stats into the predictor's lookup table.
// A nil list yields a nil map.
func FromWireStats(stats []*sdav1.HistoricalStat) (map[models.Role]models.HistoricalStat, error) {
	if stats == nil {
		return nil, nil
	}
	out := make(map[models.Role]models.HistoricalStat, len(stats))
	for i, s := range stats {
		if s == nil {
			return nil, fmt.Errorf("%w: historical_stats[%d] is null", ErrInvalidRequest, i)
		}
		role, err := models.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("historical_stats[%d]: %w", i, err)
		}
		if s.AvgDays < 0 || s.SampleCount < 0 {
			return nil, fmt.Errorf("%w: historical_stats[%d] must not be negative", ErrInvalidRequest, i)
		}
		stat := models.HistoricalStat{AvgDays: s.AvgDays, SampleCount: s.SampleCount}
		if s.LastUpdated != nil {
			stat.LastUpdated = s.LastUpdated.UTC()
		}
		out[role] = stat
	}
	return out, nil
}

// FromWireWorkload maps role names to pending counts. A nil map yields a nil map.
func FromWireWorkload(workload map[string]int) (map[models.Role]int, error) {
	if workload == nil {
		return nil, nil
	}
	out := make(map[models.Role]int, len(workload))
	for name, pending := range workload {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("workload: %w", err)
		}
		out[role] = pending
	}
	return out, nil
}

// ToWirePrediction converts a domain prediction into its wire form.
func ToWirePrediction(p models.ApprovalPrediction) *sdav1.Prediction {
	out := &sdav1.Prediction{
		ExpectedCompletionDate: p.ExpectedCompletionDate,
		Confidence:             p.Confidence,
		EstimatedDays:          p.EstimatedDays,
		Steps:                  make([]*sdav1.StepPrediction, 0, len(p.Steps)),
		Bottlenecks:            make([]*sdav1.BottleneckWarning, 0, len(p.Bottlenecks)),
	}
	for _, s := range p.Steps {
		out.Steps = append(out.Steps, &sdav1.StepPrediction{
			StepID:            s.StepID,
			Role:              s.Role.String(),
			ExpectedDays:      s.ExpectedDays,
			ExpectedDate:      s.ExpectedDate,
			Confidence:        s.Confidence,
			RiskLevel:         string(s.RiskLevel),
			HistoricalAvgDays: s.HistoricalAvgDays,
		})
	}
	for _, b := range p.Bottlenecks {
		out.Bottlenecks = append(out.Bottlenecks, &sdav1.BottleneckWarning{
			StepID:             b.StepID,
			Role:               b.Role.String(),
			Issue:              string(b.Issue),
			Severity:           string(b.Severity),
			CurrentAvgDays:     b.CurrentAvgDays,
			HistoricalAvgDays:  b.HistoricalAvgDays,
			SuggestedDelegates: append([]string(nil), b.SuggestedDelegates...),
			Message:            b.Message,
		})
	}
	return out
}

// ToWireReconciliation converts a reconcile result; nil stays nil.
func ToWireReconciliation(r *engine.ReconcileResult) *sdav1.Reconciliation {
	if r == nil {
		return nil
	}
	out := &sdav1.Reconciliation{Carried: r.Carried}
	for _, d := range r.Dropped {
		out.Dropped = append(out.Dropped, &sdav1.DroppedDecision{Step: toWireStep(d.Step), Reason: d.Reason})
	}
	return out
}

// ToWireSnapshot converts a snapshot, listing stats in role vocabulary order.
func ToWireSnapshot(s *snapshot.Snapshot) *sdav1.SnapshotResponse {
	out := &sdav1.SnapshotResponse{
		HistoricalStats: make([]*sdav1.HistoricalStat, 0, len(s.Stats)),
		Workload:        make(map[string]int, len(s.Workload)),
	}
	out.RefreshedAt = OptionalTime(s.RefreshedAt)
	for _, role := range models.Roles() {
		stat, ok := s.Stats[role]
		if !ok {
			continue
		}
		out.HistoricalStats = append(out.HistoricalStats, &sdav1.HistoricalStat{
			Role:        role.String(),
			AvgDays:     stat.AvgDays,
			SampleCount: stat.SampleCount,
			LastUpdated: OptionalTime(stat.LastUpdated),
		})
	}
	for role, pending := range s.Workload {
		out.Workload[role.String()] = pending
	}
	return out
}

// OptionalTime maps the zero time to nil for optional wire fields.
func OptionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
