package handlers

import (
	db "budget-bee-server/src/db/sql"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// rowDB answers every QueryRow with the same row.
type rowDB struct {
	row     pgx.Row
	queries int
}

func (d *rowDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (d *rowDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d *rowDB) QueryRow(context.Context, string, ...any) pgx.Row {
	d.queries++
	return d.row
}

func TestCheckCategory(t *testing.T) {
	missing := &rowDB{row: scanFunc(func(...any) error { return pgx.ErrNoRows })}
	id := uuid.New()

	err := checkCategory(context.Background(), missing, &id)
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, statusFor(err))

	found := &rowDB{row: scanFunc(func(...any) error { return nil })}
	assert.NoError(t, checkCategory(context.Background(), found, &id))
	assert.Equal(t, 1, found.queries)
}

func TestCheckCategoryNilSkipsLookup(t *testing.T) {
	d := &rowDB{row: scanFunc(func(...any) error { return pgx.ErrNoRows })}
	assert.NoError(t, checkCategory(context.Background(), d, nil))
	assert.Equal(t, 0, d.queries)
}
