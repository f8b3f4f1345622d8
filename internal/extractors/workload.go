package extractors

import (
	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/repo"
)

// WorkloadCount is the per-role pending approval count.
type WorkloadCount struct {
	Pending map[models.Role]int
	Skipped int
}

// WorkloadExtractor counts open approvals per role.
type WorkloadExtractor struct{}

// NewWorkloadExtractor constructs a WorkloadExtractor.
func NewWorkloadExtractor() *WorkloadExtractor {
	return &WorkloadExtractor{}
}

// Count tallies pending approvals; each deviation step is counted once.
func (e *WorkloadExtractor) Count(items []repo.PendingApproval) WorkloadCount {
	pending := make(map[models.Role]int)
	seen := make(map[string]struct{}, len(items))
	skipped := 0
	for _, item := range items {
		role, err := models.ParseRole(item.Role)
		if err != nil {
			skipped++
			continue
		}
		key := item.DeviationID + "/" + item.StepID
		if _, dup := seen[key]; dup && item.StepID != "" {
			continue
		}
		seen[key] = struct{}{}
		pending[role]++
	}
	return WorkloadCount{Pending: pending, Skipped: skipped}
}
