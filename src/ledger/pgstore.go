package ledger

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/models"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore runs the ledger against PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (p *PgStore) Begin(ctx context.Context) (TxStore, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *PgStore) HasDueIncome(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error) {
	return db.HasDueIncomeSources(ctx, p.pool, userID, asOf)
}

func (p *PgStore) UsersWithDueIncome(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	return db.GetUsersWithDueIncome(ctx, p.pool, asOf)
}

type pgTx struct {
	tx pgx.Tx
}

func mapErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (t *pgTx) AccountForUpdate(ctx context.Context, userID, accountID uuid.UUID) (*models.Account, error) {
	a, err := db.GetAccountForUpdate(ctx, t.tx, userID, accountID)
	return a, mapErr(err)
}

func (t *pgTx) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := db.GetCategoryByID(ctx, t.tx, id)
	return c, mapErr(err)
}

func (t *pgTx) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	c, err := db.GetCategoryByName(ctx, t.tx, name)
	return c, mapErr(err)
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr *models.Transaction) (*models.Transaction, error) {
	return db.InsertTransaction(ctx, t.tx, tr)
}

func (t *pgTx) AddToBalance(ctx context.Context, accountID uuid.UUID, delta int64) error {
	return mapErr(db.AddToAccountBalance(ctx, t.tx, accountID, delta))
}

func (t *pgTx) TransactionExists(ctx context.Context, accountID uuid.UUID, externalID string) (bool, error) {
	return db.TransactionExists(ctx, t.tx, accountID, externalID)
}

func (t *pgTx) DueIncomeSources(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.IncomeSource, error) {
	return db.GetDueIncomeSourcesForUpdate(ctx, t.tx, userID, asOf)
}

func (t *pgTx) SetIncomeSourceNextDate(ctx context.Context, sourceID uuid.UUID, next time.Time) error {
	return mapErr(db.SetIncomeSourceNextDate(ctx, t.tx, sourceID, next))
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
