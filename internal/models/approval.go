package models

import (
	"fmt"
	"strings"
	"time"
)

// StepStatus is the decision state of an approval step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// ParseStepStatus converts a case-insensitive status; empty means pending.
func ParseStepStatus(value string) (StepStatus, error) {
	switch StepStatus(strings.ToLower(strings.TrimSpace(value))) {
	case "", StepPending:
		return StepPending, nil
	case StepApproved:
		return StepApproved, nil
	case StepRejected:
		return StepRejected, nil
	default:
		return "", fmt.Errorf("%w: unknown step status %q", ErrInvalidClassification, value)
	}
}

// ApprovalStep is one position in a routed approval sequence. Decision fields are
// written by the approval workflow, never by the routing engine.
type ApprovalStep struct {
	ID           string     `json:"id"`
	Role         Role       `json:"role"`
	Required     bool       `json:"required"`
	Status       StepStatus `json:"status"`
	ApproverName string     `json:"approver_name,omitempty"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Comment      string     `json:"comment,omitempty"`
}

// Decided reports whether an approver already acted on the step.
func (s ApprovalStep) Decided() bool {
	return s.Status == StepApproved || s.Status == StepRejected
}
