// Package events emits evaluation results to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/miradorstack/sda-engine/internal/models"
)

// EvaluationEvent is the record emitted after a deviation has been routed and predicted.
type EvaluationEvent struct {
	EventID                string                     `json:"event_id"`
	DeviationID            string                     `json:"deviation_id"`
	OccurredAt             time.Time                  `json:"occurred_at"`
	Classification         models.ClassificationFacts `json:"classification"`
	Steps                  []models.ApprovalStep      `json:"steps"`
	ExpectedCompletionDate time.Time                  `json:"expected_completion_date"`
	EstimatedDays          float64                    `json:"estimated_days"`
	Confidence             int                        `json:"confidence"`
	Bottlenecks            []models.BottleneckWarning `json:"bottlenecks"`
}

// Publisher delivers evaluation events.
type Publisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationEvent) error
	Close() error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// PublishEvaluation implements Publisher.
func (NoopPublisher) PublishEvaluation(context.Context, EvaluationEvent) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }
