package db

import (
	"budget-bee-server/src/models"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// recordingDB keeps the last statement sent through QueryRow.
type recordingDB struct {
	sql  string
	args []any
}

func (d *recordingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (d *recordingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.sql, d.args = sql, args
	return errRow{pgx.ErrNoRows}
}

func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestUpdateGoalIncrementsInSQL(t *testing.T) {
	d := &recordingDB{}
	goal := &models.Goal{ID: uuid.New(), UserID: uuid.New(), Name: "Trip", TargetAmount: 1000, SavedAmount: 400}

	_, err := UpdateGoal(context.Background(), d, goal, nil, 25)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Contains(t, compact(d.sql), "saved_amount = COALESCE($3::bigint, saved_amount) + $4")
	assert.Nil(t, d.args[2])
	assert.Equal(t, int64(25), d.args[3])
}

func TestUpdateGoalSetsSavedAmount(t *testing.T) {
	d := &recordingDB{}
	saved := int64(700)
	goal := &models.Goal{ID: uuid.New(), UserID: uuid.New(), Name: "Trip", TargetAmount: 1000}

	_, _ = UpdateGoal(context.Background(), d, goal, &saved, 0)

	assert.Equal(t, &saved, d.args[2])
	assert.Equal(t, int64(0), d.args[3])
}

func TestConstraintErrors(t *testing.T) {
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsCheckViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsCheckViolation(nil))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
}
