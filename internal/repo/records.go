package repo

import "time"

// DecisionRecord is one completed approval step from the decision history.
type DecisionRecord struct {
	DeviationID string
	StepID      string
	Role        string
	AssignedAt  time.Time
	DecidedAt   time.Time
}

// PendingApproval is one open approval assigned to a role.
type PendingApproval struct {
	DeviationID string    `json:"deviation_id"`
	StepID      string    `json:"step_id"`
	Role        string    `json:"role"`
	AssignedAt  time.Time `json:"assigned_at"`
}
