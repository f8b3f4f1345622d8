package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDecisionRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assigned := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	decided := assigned.Add(36 * time.Hour)
	rows := sqlmock.NewRows([]string{"deviation_id", "step_id", "role", "assigned_at", "decided_at"}).
		AddRow("SDA-1", "3", "Plant Director", assigned, decided).
		AddRow("SDA-2", "1", "Requestor", assigned, assigned.Add(2*time.Hour))

	mock.ExpectQuery("SELECT deviation_id, step_id, role, assigned_at, decided_at FROM sda_approval_steps").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewPGHistoryRepo(db)
	records, err := repo.FetchDecisionRecords(context.Background(), assigned.AddDate(0, -6, 0))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Plant Director", records[0].Role)
	assert.Equal(t, decided, records[0].DecidedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchDecisionRecordsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT deviation_id").WillReturnError(errors.New("connection reset"))

	_, err = NewPGHistoryRepo(db).FetchDecisionRecords(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query decision records")
}

func TestFetchPendingApprovals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assigned := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"deviation_id", "step_id", "role", "assigned_at"}).
		AddRow("SDA-7", "4", "Head of ME", assigned)
	mock.ExpectQuery("SELECT deviation_id, step_id, role, assigned_at FROM sda_approval_steps WHERE status = 'pending'").
		WillReturnRows(rows)

	pending, err := NewPGHistoryRepo(db).FetchPendingApprovals(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Head of ME", pending[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
