package ledger

import (
	"budget-bee-server/src/models"
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the set of reads and writes the ledger performs inside one atomic
// unit. Missing rows are reported as ErrNotFound.
type Store interface {
	// AccountForUpdate locks the user's active account until the unit ends.
	AccountForUpdate(ctx context.Context, userID, accountID uuid.UUID) (*models.Account, error)
	CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CategoryByName(ctx context.Context, name string) (*models.Category, error)
	InsertTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	AddToBalance(ctx context.Context, accountID uuid.UUID, delta int64) error
	TransactionExists(ctx context.Context, accountID uuid.UUID, externalID string) (bool, error)
	// DueIncomeSources locks the user's active sources with next_date <= asOf,
	// oldest first.
	DueIncomeSources(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.IncomeSource, error)
	SetIncomeSourceNextDate(ctx context.Context, sourceID uuid.UUID, next time.Time) error
}

type TxStore interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens atomic units and answers the lock-free questions asked
// before one is opened.
type Beginner interface {
	Begin(ctx context.Context) (TxStore, error)
	HasDueIncome(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error)
	UsersWithDueIncome(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}
