package engine

import "github.com/miradorstack/sda-engine/internal/models"

// DroppedDecision records a decision that could not be moved onto a recomputed route.
type DroppedDecision struct {
	Step   models.ApprovalStep `json:"step"`
	Reason string              `json:"reason"`
}

// ReconcileResult is the recomputed route with carried-over decisions applied.
type ReconcileResult struct {
	Steps   []models.ApprovalStep `json:"steps"`
	Carried int                   `json:"carried"`
	Dropped []DroppedDecision     `json:"dropped,omitempty"`
}

// Reconcile copies decisions from previous onto next where the role appears exactly
// once in both sequences. next is not modified.
func Reconcile(previous, next []models.ApprovalStep) ReconcileResult {
	result := ReconcileResult{Steps: append([]models.ApprovalStep(nil), next...)}

	prevCount := countRoles(previous)
	nextCount := countRoles(next)
	nextIndex := make(map[models.Role]int, len(next))
	for i, step := range next {
		nextIndex[step.Role] = i
	}

	for _, prev := range previous {
		if !prev.Decided() {
			continue
		}
		switch {
		case nextCount[prev.Role] == 0:
			result.Dropped = append(result.Dropped, DroppedDecision{Step: prev, Reason: "role no longer routed"})
			continue
		case prevCount[prev.Role] > 1 || nextCount[prev.Role] > 1:
			result.Dropped = append(result.Dropped, DroppedDecision{Step: prev, Reason: "ambiguous role match"})
			continue
		}

		idx := nextIndex[prev.Role]
		target := result.Steps[idx]
		target.Status = prev.Status
		target.ApproverName = prev.ApproverName
		target.Comment = prev.Comment
		if prev.DecisionDate != nil {
			decided := *prev.DecisionDate
			target.DecisionDate = &decided
		}
		result.Steps[idx] = target
		result.Carried++
	}
	return result
}

func countRoles(steps []models.ApprovalStep) map[models.Role]int {
	counts := make(map[models.Role]int, len(steps))
	for _, step := range steps {
		counts[step.Role]++
	}
	return counts
}
