package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miradorstack/sda-engine/internal/events"
	"github.com/miradorstack/sda-engine/internal/metrics"
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/snapshot"
	"github.com/miradorstack/sda-engine/internal/utils"
)

// SnapshotReader exposes the current historical/workload snapshot.
type SnapshotReader interface {
	Current() *snapshot.Snapshot
}

// EvaluationRequest is a deviation to be routed and predicted in one pass.
type EvaluationRequest struct {
	DeviationID   string
	Facts         models.ClassificationFacts
	RequestDate   time.Time
	PreviousSteps []models.ApprovalStep
}

// Evaluation is the combined routing and prediction outcome.
type Evaluation struct {
	DeviationID         string
	Steps               []models.ApprovalStep
	Prediction          models.ApprovalPrediction
	Reconciliation      *ReconcileResult
	SnapshotRefreshedAt time.Time
}

// Evaluator runs classification through routing, the current snapshot and the
// predictor, then announces the result.
type Evaluator struct {
	logger    *slog.Logger
	routing   *RoutingEngine
	predictor *TimelinePredictor
	snapshots SnapshotReader
	publisher events.Publisher
	now       func() time.Time
}

// NewEvaluator constructs an Evaluator. A nil publisher discards events.
func NewEvaluator(
	logger *slog.Logger,
	routing *RoutingEngine,
	predictor *TimelinePredictor,
	snapshots SnapshotReader,
	publisher events.Publisher,
) *Evaluator {
	logger = utils.OrDefault(logger)
	if routing == nil {
		routing = NewRoutingEngine(DefaultRoutingTable())
	}
	if predictor == nil {
		predictor = NewTimelinePredictor(DefaultPredictionRules(), logger)
	}
	if store, ok := snapshots.(*snapshot.Store); snapshots == nil || (ok && store == nil) {
		snapshots = snapshot.NewStore()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Evaluator{
		logger:    logger,
		routing:   routing,
		predictor: predictor,
		snapshots: snapshots,
		publisher: publisher,
		now:       time.Now,
	}
}

// Snapshot returns the snapshot predictions currently read from.
func (e *Evaluator) Snapshot() *snapshot.Snapshot {
	return e.snapshots.Current()
}

// Route computes the approval route and records the outcome.
func (e *Evaluator) Route(facts models.ClassificationFacts) ([]models.ApprovalStep, error) {
	steps, err := e.routing.ComputeRouting(facts)
	if err != nil {
		metrics.ObserveRouting(metrics.OutcomeError)
		return nil, err
	}
	metrics.ObserveRouting(metrics.OutcomeSuccess)
	return steps, nil
}

// Predict runs the predictor and records latency, outcome and bottlenecks.
func (e *Evaluator) Predict(in PredictionInput) (models.ApprovalPrediction, error) {
	start := time.Now()
	prediction, err := e.predictor.Predict(in)
	if err != nil {
		metrics.ObservePrediction(time.Since(start), metrics.OutcomeError, 0)
		return models.ApprovalPrediction{}, err
	}
	metrics.ObservePrediction(time.Since(start), metrics.OutcomeSuccess, prediction.EstimatedDays)
	for _, b := range prediction.Bottlenecks {
		metrics.ObserveBottleneck(string(b.Issue), string(b.Severity))
	}
	return prediction, nil
}

// Evaluate routes the deviation, optionally carries decisions over from a previous
// route, predicts against the current snapshot and publishes the result. Publish
// failures are logged and do not fail the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, req EvaluationRequest) (Evaluation, error) {
	if req.DeviationID == "" {
		req.DeviationID = uuid.NewString()
	}
	if req.RequestDate.IsZero() {
		req.RequestDate = e.now().UTC()
	}

	steps, err := e.Route(req.Facts)
	if err != nil {
		return Evaluation{}, fmt.Errorf("route %s: %w", req.DeviationID, err)
	}

	var reconciliation *ReconcileResult
	if len(req.PreviousSteps) > 0 {
		result := Reconcile(req.PreviousSteps, steps)
		reconciliation = &result
		steps = result.Steps
		for _, dropped := range result.Dropped {
			e.logger.Info("approval decision not carried over",
				slog.String("deviation_id", req.DeviationID),
				slog.String("role", dropped.Step.Role.String()),
				slog.String("reason", dropped.Reason),
			)
		}
	}

	snap := e.snapshots.Current()
	prediction, err := e.Predict(PredictionInput{
		Steps:            steps,
		RequestDate:      req.RequestDate,
		BusinessUnit:     req.Facts.BusinessUnit,
		DurationCategory: req.Facts.DurationCategory,
		Stats:            snap.Stats,
		Workload:         snap.Workload,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("predict %s: %w", req.DeviationID, err)
	}

	evaluation := Evaluation{
		DeviationID:         req.DeviationID,
		Steps:               steps,
		Prediction:          prediction,
		Reconciliation:      reconciliation,
		SnapshotRefreshedAt: snap.RefreshedAt,
	}

	event := events.EvaluationEvent{
		DeviationID:            req.DeviationID,
		OccurredAt:             e.now().UTC(),
		Classification:         req.Facts,
		Steps:                  steps,
		ExpectedCompletionDate: prediction.ExpectedCompletionDate,
		EstimatedDays:          prediction.EstimatedDays,
		Confidence:             prediction.Confidence,
		Bottlenecks:            prediction.Bottlenecks,
	}
	if err := e.publisher.PublishEvaluation(ctx, event); err != nil {
		metrics.ObserveEventPublish(metrics.OutcomeError)
		e.logger.Warn("failed to publish evaluation",
			slog.String("deviation_id", req.DeviationID),
			slog.Any("error", err),
		)
	} else {
		metrics.ObserveEventPublish(metrics.OutcomeSuccess)
	}

	return evaluation, nil
}
