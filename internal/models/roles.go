package models

import (
	"fmt"
	"strings"
)

// Role is an approver role from the fixed routing vocabulary. The routing table,
// historical statistics, workload snapshots and delegate suggestions all key on it.
type Role string

const (
	RoleRequestor             Role = "Requestor"
	RoleProjectManager        Role = "Project Manager"
	RoleRDResponsible         Role = "R&D responsible"
	RoleMESeries              Role = "ME series"
	RoleASQEBuyPart           Role = "ASQE (Buy Part)"
	RoleQualityEngineerSeries Role = "Quality Engineer (series)"
	RoleRDDirector            Role = "R&D Director / Business Line"
	RoleHeadOfME              Role = "Head of ME"
	RoleBUQualityLead         Role = "BU Quality Lead"
	RolePlantDirector         Role = "Plant Director"
	RoleProductSafetyOfficer  Role = "Product Safety Officer"
)

// Roles lists the complete role vocabulary.
func Roles() []Role {
	return []Role{
		RoleRequestor,
		RoleProjectManager,
		RoleRDResponsible,
		RoleMESeries,
		RoleASQEBuyPart,
		RoleQualityEngineerSeries,
		RoleRDDirector,
		RoleHeadOfME,
		RoleBUQualityLead,
		RolePlantDirector,
		RoleProductSafetyOfficer,
	}
}

// Valid reports whether r is part of the vocabulary.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole matches a role display name case-insensitively.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	for _, known := range Roles() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidClassification, value)
}
