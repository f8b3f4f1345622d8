package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGHistoryRepo reads approval history and open approvals from Postgres.
type PGHistoryRepo struct {
	db *sql.DB
}

// NewPGHistoryRepo constructs a Postgres-backed history repository.
func NewPGHistoryRepo(db *sql.DB) *PGHistoryRepo {
	return &PGHistoryRepo{db: db}
}

// Ping verifies connectivity to Postgres.
func (r *PGHistoryRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchDecisionRecords returns approvals decided at or after since, oldest first.
func (r *PGHistoryRepo) FetchDecisionRecords(ctx context.Context, since time.Time) ([]DecisionRecord, error) {
	q := `
		SELECT deviation_id, step_id, role, assigned_at, decided_at
		FROM sda_approval_steps
		WHERE decided_at IS NOT NULL AND decided_at >= $1
		ORDER BY decided_at
	`
	rows, err := r.db.QueryContext(ctx, q, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query decision records: %w", err)
	}
	defer rows.Close()

	var records []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		if err := rows.Scan(&rec.DeviationID, &rec.StepID, &rec.Role, &rec.AssignedAt, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision records: %w", err)
	}
	return records, nil
}

// FetchPendingApprovals returns every step still awaiting a decision.
func (r *PGHistoryRepo) FetchPendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	q := `
		SELECT deviation_id, step_id, role, assigned_at
		FROM sda_approval_steps
		WHERE status = 'pending' AND assigned_at IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query pending approvals: %w", err)
	}
	defer rows.Close()

	var pending []PendingApproval
	for rows.Next() {
		var p PendingApproval
		if err := rows.Scan(&p.DeviationID, &p.StepID, &p.Role, &p.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan pending approval: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending approvals: %w", err)
	}
	return pending, nil
}
