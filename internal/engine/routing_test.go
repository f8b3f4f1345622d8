package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/miradorstack/sda-engine/internal/models"
)

func rolesOf(steps []models.ApprovalStep) []models.Role {
	out := make([]models.Role, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Role)
	}
	return out
}

func TestComputeRoutingShortBucket(t *testing.T) {
	engine := NewRoutingEngine(DefaultRoutingTable())
	steps, err := engine.ComputeRouting(models.ClassificationFacts{
		BusinessUnit:     models.BusinessUnitRB,
		DurationCategory: models.DurationShortPrior,
	})
	if err != nil {
		t.Fatalf("compute routing: %v", err)
	}

	want := []models.Role{
		models.RoleRequestor,
		models.RoleProjectManager,
		models.RoleRDResponsible,
		models.RoleMESeries,
		models.RoleASQEBuyPart,
		models.RoleQualityEngineerSeries,
	}
	if got := rolesOf(steps); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected roles:\n got %v\nwant %v", got, want)
	}
	for i, step := range steps {
		if !step.Required || step.Status != models.StepPending {
			t.Fatalf("step %d not pending/required: %+v", i, step)
		}
		if step.ApproverName != "" || step.DecisionDate != nil {
			t.Fatalf("step %d carries a decision: %+v", i, step)
		}
	}
}

func TestComputeRoutingLongPriorSafety(t *testing.T) {
	engine := NewRoutingEngine(DefaultRoutingTable())
	steps, err := engine.ComputeRouting(models.ClassificationFacts{
		BusinessUnit:     models.BusinessUnitET,
		DurationCategory: models.DurationLongPrior,
		SafetyRelevant:   true,
	})
	if err != nil {
		t.Fatalf("compute routing: %v", err)
	}

	want := []models.Role{
		models.RoleRequestor,
		models.RoleProjectManager,
		models.RoleRDDirector,
		models.RoleHeadOfME,
		models.RoleASQEBuyPart,
		models.RoleBUQualityLead,
		models.RolePlantDirector,
		models.RoleProductSafetyOfficer,
	}
	if got := rolesOf(steps); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected roles:\n got %v\nwant %v", got, want)
	}
}

func TestComputeRoutingPlantDirectorInclusion(t *testing.T) {
	engine := NewRoutingEngine(DefaultRoutingTable())
	cases := map[models.DurationCategory]bool{
		models.DurationShortPrior:  false,
		models.DurationMediumPrior: false,
		models.DurationLongPrior:   true,
		models.DurationShortAfter:  true,
		models.DurationMediumAfter: true,
		models.DurationLongAfter:   true,
	}
	for duration, wantPlant := range cases {
		for _, safety := range []bool{false, true} {
			steps, err := engine.ComputeRouting(models.ClassificationFacts{
				BusinessUnit:     models.BusinessUnitIC,
				DurationCategory: duration,
				SafetyRelevant:   safety,
			})
			if err != nil {
				t.Fatalf("%s: %v", duration, err)
			}
			roles := rolesOf(steps)
			last := roles[len(roles)-1]
			hasPlant := false
			for _, r := range roles {
				if r == models.RolePlantDirector {
					hasPlant = true
				}
			}
			if hasPlant != wantPlant {
				t.Fatalf("%s: plant director present=%v, want %v", duration, hasPlant, wantPlant)
			}
			switch {
			case safety && last != models.RoleProductSafetyOfficer:
				t.Fatalf("%s: expected safety officer last, got %s", duration, last)
			case !safety && wantPlant && last != models.RolePlantDirector:
				t.Fatalf("%s: expected plant director last, got %s", duration, last)
			}
		}
	}
}

func TestComputeRoutingStableIDs(t *testing.T) {
	engine := NewRoutingEngine(DefaultRoutingTable())
	facts := models.ClassificationFacts{BusinessUnit: models.BusinessUnitPS, DurationCategory: models.DurationMediumAfter}
	first, err := engine.ComputeRouting(facts)
	if err != nil {
		t.Fatalf("compute routing: %v", err)
	}
	second, _ := engine.ComputeRouting(facts)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical sequences")
	}
	for i, step := range first {
		if want := string(rune('1' + i)); step.ID != want {
			t.Fatalf("step %d: expected id %s, got %s", i, want, step.ID)
		}
	}
}

func TestComputeRoutingRejectsUnknownDuration(t *testing.T) {
	engine := NewRoutingEngine(DefaultRoutingTable())
	_, err := engine.ComputeRouting(models.ClassificationFacts{
		BusinessUnit:     models.BusinessUnitRB,
		DurationCategory: models.DurationCategory("forever"),
	})
	if !errors.Is(err, models.ErrInvalidClassification) {
		t.Fatalf("expected ErrInvalidClassification, got %v", err)
	}
	_, err = engine.ComputeRouting(models.ClassificationFacts{
		BusinessUnit:     models.BusinessUnit("XX"),
		DurationCategory: models.DurationShortPrior,
	})
	if !errors.Is(err, models.ErrInvalidClassification) {
		t.Fatalf("expected ErrInvalidClassification for BU, got %v", err)
	}
}
