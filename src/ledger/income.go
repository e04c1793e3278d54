package ledger

import (
	"budget-bee-server/src/events"
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TriggerDueIncomeSources fires every active income source of the user whose
// next date is at or before asOf. Each firing inserts an INCOME transaction
// dated asOf, credits the source's account and advances the source's next
// date. The whole batch commits or rolls back as one unit.
//
// When nothing is due it returns an empty slice without opening a
// transaction.
func (s *Service) TriggerDueIncomeSources(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.Transaction, error) {
	due, err := s.store.HasDueIncome(ctx, userID, asOf)
	if err != nil {
		return nil, storeErr("due income check", err)
	}
	created := []models.Transaction{}
	if !due {
		return created, nil
	}

	err = s.inTx(ctx, func(tx Store) error {
		// Rows advanced by a concurrent trigger are no longer due once its
		// lock is released, so they drop out here.
		sources, err := tx.DueIncomeSources(ctx, userID, asOf)
		if err != nil {
			return storeErr("due income sources", err)
		}

		categories := &categoryResolver{}
		for _, src := range sources {
			fired, err := s.fire(ctx, tx, userID, src, asOf, categories)
			if err != nil {
				return fmt.Errorf("income source %s: %w", src.ID, err)
			}
			created = append(created, fired...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, events.IncomeTriggered, created)
	return created, nil
}

func (s *Service) fire(ctx context.Context, tx Store, userID uuid.UUID, src models.IncomeSource, asOf time.Time, categories *categoryResolver) ([]models.Transaction, error) {
	if _, err := tx.AccountForUpdate(ctx, userID, src.AccountID); err != nil {
		return nil, storeErr("account "+src.AccountID.String(), err)
	}

	merchant := src.Name
	sourceID := src.ID
	entry := Entry{
		AccountID:      src.AccountID,
		IncomeSourceID: &sourceID,
		Type:           models.TransactionIncome,
		Amount:         src.Amount,
		CategoryID:     src.CategoryID,
		Date:           asOf,
		Merchant:       &merchant,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	var fired []models.Transaction
	next := src.NextDate
	for {
		t, err := s.post(ctx, tx, userID, entry, categories)
		if err != nil {
			return nil, err
		}
		fired = append(fired, *t)
		next = src.NextAfter(next)
		if s.catchUp != CatchUpAll || next.After(asOf) {
			break
		}
	}

	if err := tx.SetIncomeSourceNextDate(ctx, src.ID, next); err != nil {
		return nil, storeErr("income source next date", err)
	}
	return fired, nil
}
