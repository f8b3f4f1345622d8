package engine

import (
	"fmt"

	"github.com/miradorstack/sda-engine/internal/models"
)

// stepLoad is the per-step arithmetic bottleneck detection inspects.
type stepLoad struct {
	StepID        string
	Role          models.Role
	ExpectedDays  float64
	HistoricalAvg float64
	Pending       int
}

// detectBottleneck flags a step whose expectation exceeds its history by the
// configured ratio. Heavy queues outrank slow approvers as the diagnosed issue.
func detectBottleneck(rules PredictionRules, load stepLoad) (models.BottleneckWarning, bool) {
	if load.ExpectedDays <= rules.BottleneckRatio*load.HistoricalAvg {
		return models.BottleneckWarning{}, false
	}

	delay := load.ExpectedDays - load.HistoricalAvg
	warning := models.BottleneckWarning{
		StepID:            load.StepID,
		Role:              load.Role,
		CurrentAvgDays:    load.ExpectedDays,
		HistoricalAvgDays: load.HistoricalAvg,
	}

	if load.Pending > rules.HighWorkloadLimit {
		warning.Issue = models.IssueHighWorkload
		warning.Severity = models.SeverityCritical
		if delegates, ok := rules.Delegates[load.Role]; ok && len(delegates) > 0 {
			warning.SuggestedDelegates = append([]string(nil), delegates...)
		}
		warning.Message = fmt.Sprintf("%s has %d pending approvals, expected delay of %.1f days", load.Role, load.Pending, delay)
		return warning, true
	}

	warning.Issue = models.IssueSlowApprover
	warning.Severity = models.SeverityWarning
	if load.ExpectedDays > rules.CriticalRatio*load.HistoricalAvg {
		warning.Severity = models.SeverityCritical
	}
	warning.Message = fmt.Sprintf("%s is slower than usual, expected delay of %.1f days", load.Role, delay)
	return warning, true
}
