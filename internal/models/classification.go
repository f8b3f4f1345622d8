package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidClassification marks out-of-domain classification or vocabulary values.
// Callers must not substitute defaults for such values.
var ErrInvalidClassification = errors.New("invalid classification")

// BusinessUnit is the organisational division code owning a deviation.
type BusinessUnit string

const (
	BusinessUnitRB BusinessUnit = "RB"
	BusinessUnitET BusinessUnit = "ET"
	BusinessUnitEM BusinessUnit = "EM"
	BusinessUnitPS BusinessUnit = "PS"
	BusinessUnitIC BusinessUnit = "IC"
)

// BusinessUnits lists every known business unit.
func BusinessUnits() []BusinessUnit {
	return []BusinessUnit{BusinessUnitRB, BusinessUnitET, BusinessUnitEM, BusinessUnitPS, BusinessUnitIC}
}

// Valid reports whether bu belongs to the closed business unit vocabulary.
func (bu BusinessUnit) Valid() bool {
	for _, known := range BusinessUnits() {
		if bu == known {
			return true
		}
	}
	return false
}

// ParseBusinessUnit converts a case-insensitive BU code.
func ParseBusinessUnit(value string) (BusinessUnit, error) {
	bu := BusinessUnit(strings.ToUpper(strings.TrimSpace(value)))
	if !bu.Valid() {
		return "", fmt.Errorf("%w: unknown business unit %q", ErrInvalidClassification, value)
	}
	return bu, nil
}

// DurationCategory is one of six ordered buckets describing how long a deviation
// lasts relative to the handover milestone.
type DurationCategory string

const (
	DurationShortPrior  DurationCategory = "short_prior"
	DurationMediumPrior DurationCategory = "medium_prior"
	DurationLongPrior   DurationCategory = "long_prior"
	DurationShortAfter  DurationCategory = "short_after"
	DurationMediumAfter DurationCategory = "medium_after"
	DurationLongAfter   DurationCategory = "long_after"
)

var durationLabels = map[DurationCategory]string{
	DurationShortPrior:  "<= 3 months & prior to handover",
	DurationMediumPrior: "> 3 months & <= 9 months & prior to handover",
	DurationLongPrior:   "> 9 months & prior to handover",
	DurationShortAfter:  "<= 3 months & after handover",
	DurationMediumAfter: "> 3 months & <= 9 months & after handover",
	DurationLongAfter:   "> 9 months & after handover",
}

// DurationCategories lists the buckets in their defined order.
func DurationCategories() []DurationCategory {
	return []DurationCategory{
		DurationShortPrior,
		DurationMediumPrior,
		DurationLongPrior,
		DurationShortAfter,
		DurationMediumAfter,
		DurationLongAfter,
	}
}

// Valid reports whether d is one of the six buckets.
func (d DurationCategory) Valid() bool {
	_, ok := durationLabels[d]
	return ok
}

// Bucket returns the 1-based position of d, or 0 when d is unknown.
func (d DurationCategory) Bucket() int {
	for i, known := range DurationCategories() {
		if d == known {
			return i + 1
		}
	}
	return 0
}

// Label returns the human-readable bucket description.
func (d DurationCategory) Label() string {
	return durationLabels[d]
}

// AfterHandover reports whether the bucket lies after the handover milestone.
func (d DurationCategory) AfterHandover() bool {
	return d.Bucket() >= 4
}

// ParseDurationCategory accepts a bucket code or its label. Labels may use the
// ≤ glyph and any spacing or casing.
func ParseDurationCategory(value string) (DurationCategory, error) {
	candidate := DurationCategory(strings.ToLower(strings.TrimSpace(value)))
	if candidate.Valid() {
		return candidate, nil
	}
	normalised := normaliseLabel(value)
	for code, label := range durationLabels {
		if normaliseLabel(label) == normalised {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: unknown duration category %q", ErrInvalidClassification, value)
}

func normaliseLabel(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "≤", "<=")
	value = strings.ReplaceAll(value, "≥", ">=")
	return strings.Join(strings.Fields(value), "")
}

// ClassificationFacts drives routing for a single deviation.
type ClassificationFacts struct {
	BusinessUnit     BusinessUnit     `json:"business_unit"`
	DurationCategory DurationCategory `json:"duration_category"`
	SafetyRelevant   bool             `json:"safety_relevant"`
}

// Validate fails when any fact lies outside its closed vocabulary.
func (f ClassificationFacts) Validate() error {
	if !f.BusinessUnit.Valid() {
		return fmt.Errorf("%w: unknown business unit %q", ErrInvalidClassification, f.BusinessUnit)
	}
	if !f.DurationCategory.Valid() {
		return fmt.Errorf("%w: unknown duration category %q", ErrInvalidClassification, f.DurationCategory)
	}
	return nil
}
