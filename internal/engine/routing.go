package engine

import (
	"fmt"
	"strconv"

	"github.com/miradorstack/sda-engine/internal/models"
)

// RoutingTable is the fixed decision table behind approval routing. Rules are
// evaluated in field order: prefix, track selection, Plant Director, safety.
type RoutingTable struct {
	Prefix               []models.Role
	ShortBuckets         []models.DurationCategory
	ShortTrack           []models.Role
	LongTrack            []models.Role
	PlantDirectorBuckets []models.DurationCategory
	PlantDirector        models.Role
	SafetyRole           models.Role
}

// DefaultRoutingTable returns the production routing rules.
func DefaultRoutingTable() RoutingTable {
	return RoutingTable{
		Prefix:       []models.Role{models.RoleRequestor, models.RoleProjectManager},
		ShortBuckets: []models.DurationCategory{models.DurationShortPrior},
		ShortTrack: []models.Role{
			models.RoleRDResponsible,
			models.RoleMESeries,
			models.RoleASQEBuyPart,
			models.RoleQualityEngineerSeries,
		},
		LongTrack: []models.Role{
			models.RoleRDDirector,
			models.RoleHeadOfME,
			models.RoleASQEBuyPart,
			models.RoleBUQualityLead,
		},
		// Explicit inclusion list; buckets added later must opt in here.
		PlantDirectorBuckets: []models.DurationCategory{
			models.DurationLongPrior,
			models.DurationShortAfter,
			models.DurationMediumAfter,
			models.DurationLongAfter,
		},
		PlantDirector: models.RolePlantDirector,
		SafetyRole:    models.RoleProductSafetyOfficer,
	}
}

// RoutingEngine maps classification facts to the mandatory approval sequence.
type RoutingEngine struct {
	table RoutingTable
}

// NewRoutingEngine constructs a RoutingEngine over the supplied table.
func NewRoutingEngine(table RoutingTable) *RoutingEngine {
	return &RoutingEngine{table: table}
}

// ComputeRouting returns a fresh sequence of pending, required steps. Step IDs are
// positional ("1".."n"), so identical facts produce identical sequences including IDs.
// Any decisions recorded against a previous sequence are not carried over; see Reconcile.
func (e *RoutingEngine) ComputeRouting(facts models.ClassificationFacts) ([]models.ApprovalStep, error) {
	if err := facts.Validate(); err != nil {
		return nil, fmt.Errorf("compute routing: %w", err)
	}

	roles := make([]models.Role, 0, len(e.table.Prefix)+len(e.table.LongTrack)+2)
	roles = append(roles, e.table.Prefix...)

	if containsDuration(e.table.ShortBuckets, facts.DurationCategory) {
		roles = append(roles, e.table.ShortTrack...)
	} else {
		roles = append(roles, e.table.LongTrack...)
	}

	if containsDuration(e.table.PlantDirectorBuckets, facts.DurationCategory) {
		roles = append(roles, e.table.PlantDirector)
	}

	if facts.SafetyRelevant {
		roles = append(roles, e.table.SafetyRole)
	}

	steps := make([]models.ApprovalStep, 0, len(roles))
	for i, role := range roles {
		steps = append(steps, models.ApprovalStep{
			ID:       strconv.Itoa(i + 1),
			Role:     role,
			Required: true,
			Status:   models.StepPending,
		})
	}
	return steps, nil
}

func containsDuration(buckets []models.DurationCategory, target models.DurationCategory) bool {
	for _, b := range buckets {
		if b == target {
			return true
		}
	}
	return false
}
