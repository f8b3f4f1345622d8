package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/utils"
)

const (
	stepResolutionDays  = 0.5
	totalResolutionDays = 0.1
)

// PredictionInput carries everything a prediction depends on. Stats and Workload are
// read-only snapshots; roles missing from either fall back to the rule defaults.
type PredictionInput struct {
	Steps            []models.ApprovalStep
	RequestDate      time.Time
	BusinessUnit     models.BusinessUnit
	DurationCategory models.DurationCategory
	Stats            map[models.Role]models.HistoricalStat
	Workload         map[models.Role]int
}

// TimelinePredictor estimates step completion dates and bottlenecks for a route.
// It holds no mutable state and is safe for concurrent use.
type TimelinePredictor struct {
	rules  PredictionRules
	logger *slog.Logger
}

// NewTimelinePredictor constructs a predictor over the supplied rules.
func NewTimelinePredictor(rules PredictionRules, logger *slog.Logger) *TimelinePredictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelinePredictor{rules: rules, logger: logger}
}

// Rules exposes the active rule set.
func (p *TimelinePredictor) Rules() PredictionRules {
	return p.rules
}

// Predict produces one StepPrediction per input step, in order, plus aggregate
// completion, confidence and bottleneck warnings.
func (p *TimelinePredictor) Predict(in PredictionInput) (models.ApprovalPrediction, error) {
	if !in.BusinessUnit.Valid() {
		return models.ApprovalPrediction{}, fmt.Errorf("predict: %w: unknown business unit %q", models.ErrInvalidClassification, in.BusinessUnit)
	}
	if !in.DurationCategory.Valid() {
		return models.ApprovalPrediction{}, fmt.Errorf("predict: %w: unknown duration category %q", models.ErrInvalidClassification, in.DurationCategory)
	}

	buFactor, slowBU := p.rules.BUSlowdown[in.BusinessUnit]
	slowDuration := p.rules.SlowDurations[in.DurationCategory]

	prediction := models.ApprovalPrediction{
		Steps:       make([]models.StepPrediction, 0, len(in.Steps)),
		Bottlenecks: make([]models.BottleneckWarning, 0),
	}

	cumulative := 0.0
	confidenceSum := 0.0
	for _, step := range in.Steps {
		if !step.Role.Valid() {
			return models.ApprovalPrediction{}, fmt.Errorf("predict: step %s: %w: unknown role %q", step.ID, models.ErrInvalidClassification, step.Role)
		}

		stat, ok := in.Stats[step.Role]
		if !ok {
			stat = models.HistoricalStat{AvgDays: p.rules.DefaultAvgDays}
		}
		pending := in.Workload[step.Role]
		if pending < 0 {
			pending = 0
		}

		expected := stat.AvgDays + float64(pending)*p.rules.WorkloadPenalty
		if slowBU {
			expected *= buFactor
		}
		if slowDuration {
			expected *= p.rules.DurationSlowdown
		}
		expected = utils.RoundTo(expected, stepResolutionDays)
		cumulative += expected

		confidence := math.Min(p.rules.ConfidenceCap, p.rules.ConfidenceBase+float64(stat.SampleCount)/p.rules.SamplesPerPoint)
		confidenceSum += confidence

		prediction.Steps = append(prediction.Steps, models.StepPrediction{
			StepID:            step.ID,
			Role:              step.Role,
			ExpectedDays:      expected,
			ExpectedDate:      utils.AddDays(in.RequestDate, cumulative, p.rules.DayMode),
			Confidence:        confidence,
			RiskLevel:         p.riskLevel(expected, stat.AvgDays),
			HistoricalAvgDays: stat.AvgDays,
		})

		if warning, found := detectBottleneck(p.rules, stepLoad{
			StepID:        step.ID,
			Role:          step.Role,
			ExpectedDays:  expected,
			HistoricalAvg: stat.AvgDays,
			Pending:       pending,
		}); found {
			prediction.Bottlenecks = append(prediction.Bottlenecks, warning)
		}
	}

	prediction.EstimatedDays = utils.RoundTo(cumulative, totalResolutionDays)
	prediction.ExpectedCompletionDate = utils.AddDays(in.RequestDate, prediction.EstimatedDays, p.rules.DayMode)
	if len(in.Steps) > 0 {
		prediction.Confidence = int(math.Round(confidenceSum / float64(len(in.Steps))))
	}

	p.logger.Debug("timeline predicted",
		slog.Int("steps", len(prediction.Steps)),
		slog.Float64("estimated_days", prediction.EstimatedDays),
		slog.Int("bottlenecks", len(prediction.Bottlenecks)))
	return prediction, nil
}

func (p *TimelinePredictor) riskLevel(expected, historical float64) models.RiskLevel {
	switch {
	case expected > p.rules.HighRiskRatio*historical:
		return models.RiskHigh
	case expected > p.rules.MediumRiskRatio*historical:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
