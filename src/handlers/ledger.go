package handlers

import (
	db "budget-bee-server/src/db/sql"
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/models"
	"budget-bee-server/src/rules"
	"context"
	"time"

	"github.com/google/uuid"
)

// Poster is the part of the ledger that records transactions.
type Poster interface {
	PostTransaction(ctx context.Context, userID uuid.UUID, e ledger.Entry) (*models.Transaction, error)
	PostBatch(ctx context.Context, userID, accountID uuid.UUID, entries []ledger.Entry) (*ledger.BatchResult, error)
}

type IncomeTrigger interface {
	TriggerDueIncomeSources(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.Transaction, error)
}

type IncomeSweeper interface {
	SweepDueIncome(ctx context.Context, asOf time.Time) (*ledger.SweepReport, error)
}

// categorize fills in the category of uncategorised imported entries from the
// user's transaction rules.
func categorize(ctx context.Context, q db.DBTX, userID uuid.UUID, account *models.Account, entries []ledger.Entry) error {
	rs, err := db.GetAllTransactionRules(ctx, q, userID)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		return nil
	}
	set := rules.Compile(rs)
	for i := range entries {
		e := &entries[i]
		if e.CategoryID != nil {
			continue
		}
		candidate := models.RuleCandidate{
			Transaction: models.Transaction{
				UserID:    userID,
				AccountID: account.ID,
				Type:      e.Type,
				Amount:    e.Amount,
				Date:      e.Date,
				Merchant:  e.Merchant,
				Note:      e.Note,
			},
			AccountName: account.Name,
		}
		if id, ok := set.CategoryFor(candidate); ok {
			e.CategoryID = &id
		}
	}
	return nil
}
