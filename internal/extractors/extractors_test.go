package extractors

import (
	"testing"
	"time"

	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/repo"
)

func TestHistoryExtractorAggregate(t *testing.T) {
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	records := []repo.DecisionRecord{
		{Role: "Plant Director", AssignedAt: base, DecidedAt: base.Add(48 * time.Hour)},
		{Role: "plant director", AssignedAt: base, DecidedAt: base.Add(96 * time.Hour)},
		{Role: "Requestor", AssignedAt: base, DecidedAt: base.Add(12 * time.Hour)},
		{Role: "Intern", AssignedAt: base, DecidedAt: base.Add(time.Hour)},
		{Role: "Head of ME", AssignedAt: base, DecidedAt: base.Add(-time.Hour)},
	}

	agg := NewHistoryExtractor(1).Aggregate(records)
	if agg.Skipped != 2 {
		t.Fatalf("expected 2 skipped records, got %d", agg.Skipped)
	}
	plant, ok := agg.Stats[models.RolePlantDirector]
	if !ok {
		t.Fatalf("expected plant director stats")
	}
	if plant.AvgDays != 3 || plant.SampleCount != 2 {
		t.Fatalf("unexpected plant director stats: %+v", plant)
	}
	if !plant.LastUpdated.Equal(base.Add(96 * time.Hour)) {
		t.Fatalf("unexpected last updated: %v", plant.LastUpdated)
	}
	if agg.Stats[models.RoleRequestor].AvgDays != 0.5 {
		t.Fatalf("unexpected requestor avg: %+v", agg.Stats[models.RoleRequestor])
	}
}

func TestHistoryExtractorMinSamples(t *testing.T) {
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	records := []repo.DecisionRecord{
		{Role: "Requestor", AssignedAt: base, DecidedAt: base.Add(24 * time.Hour)},
	}
	agg := NewHistoryExtractor(5).Aggregate(records)
	if len(agg.Stats) != 0 {
		t.Fatalf("expected thin history to be dropped, got %+v", agg.Stats)
	}
}

func TestWorkloadExtractorCount(t *testing.T) {
	items := []repo.PendingApproval{
		{DeviationID: "SDA-1", StepID: "7", Role: "Plant Director"},
		{DeviationID: "SDA-1", StepID: "7", Role: "Plant Director"},
		{DeviationID: "SDA-2", StepID: "7", Role: "Plant Director"},
		{DeviationID: "SDA-2", StepID: "3", Role: "Head of ME"},
		{DeviationID: "SDA-3", StepID: "1", Role: "Unknown"},
	}
	count := NewWorkloadExtractor().Count(items)
	if count.Pending[models.RolePlantDirector] != 2 {
		t.Fatalf("expected 2 plant director approvals, got %d", count.Pending[models.RolePlantDirector])
	}
	if count.Pending[models.RoleHeadOfME] != 1 {
		t.Fatalf("expected 1 head of ME approval, got %d", count.Pending[models.RoleHeadOfME])
	}
	if count.Skipped != 1 {
		t.Fatalf("expected 1 skipped item, got %d", count.Skipped)
	}
}
