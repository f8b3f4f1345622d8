package extractors

import (
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/repo"
	"github.com/miradorstack/sda-engine/internal/utils"
)

const hoursPerDay = 24.0

// HistoryAggregate is the per-role summary built from decision records.
type HistoryAggregate struct {
	Stats   map[models.Role]models.HistoricalStat
	Skipped int
}

// HistoryExtractor turns completed approvals into per-role duration statistics.
type HistoryExtractor struct {
	// MinSamples drops roles with fewer decisions so the predictor falls back to
	// its default rather than trusting a thin average.
	MinSamples int
}

// NewHistoryExtractor constructs an extractor requiring minSamples per role.
func NewHistoryExtractor(minSamples int) *HistoryExtractor {
	if minSamples < 1 {
		minSamples = 1
	}
	return &HistoryExtractor{MinSamples: minSamples}
}

// Aggregate averages decision durations in days per role. Records with unknown
// roles or inverted timestamps are skipped and counted.
func (e *HistoryExtractor) Aggregate(records []repo.DecisionRecord) HistoryAggregate {
	type accumulator struct {
		totalDays float64
		count     int
		stat      models.HistoricalStat
	}

	acc := make(map[models.Role]*accumulator)
	skipped := 0
	for _, rec := range records {
		role, err := models.ParseRole(rec.Role)
		if err != nil || rec.DecidedAt.Before(rec.AssignedAt) || rec.AssignedAt.IsZero() {
			skipped++
			continue
		}
		a, ok := acc[role]
		if !ok {
			a = &accumulator{}
			acc[role] = a
		}
		a.totalDays += rec.DecidedAt.Sub(rec.AssignedAt).Hours() / hoursPerDay
		a.count++
		if rec.DecidedAt.After(a.stat.LastUpdated) {
			a.stat.LastUpdated = rec.DecidedAt
		}
	}

	stats := make(map[models.Role]models.HistoricalStat, len(acc))
	for role, a := range acc {
		if a.count < e.MinSamples {
			continue
		}
		a.stat.AvgDays = utils.RoundTo(a.totalDays/float64(a.count), 0.01)
		a.stat.SampleCount = a.count
		stats[role] = a.stat
	}
	return HistoryAggregate{Stats: stats, Skipped: skipped}
}
