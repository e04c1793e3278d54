// Package ledger owns every write that moves an account balance. Each write
// inserts its transaction rows and adjusts the cached balance in the same
// database transaction.
package ledger

import (
	"budget-bee-server/src/events"
	"budget-bee-server/src/models"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

type CatchUpPolicy string

const (
	// CatchUpSingle fires each due source once per trigger.
	CatchUpSingle CatchUpPolicy = "single"
	// CatchUpAll fires a source once for every interval that has elapsed.
	CatchUpAll CatchUpPolicy = "all"
)

func (p CatchUpPolicy) Valid() bool {
	return p == CatchUpSingle || p == CatchUpAll
}

// Invalidator drops cached data derived from a user's balances.
type Invalidator interface {
	InvalidateUser(userID uuid.UUID)
}

type Service struct {
	store       Beginner
	publisher   events.Publisher
	invalidator Invalidator
	catchUp     CatchUpPolicy
	concurrency int
	now         func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithInvalidator(i Invalidator) Option {
	return func(s *Service) { s.invalidator = i }
}

func WithCatchUp(p CatchUpPolicy) Option {
	return func(s *Service) { s.catchUp = p }
}

// WithSweepConcurrency bounds how many users a sweep processes at once.
func WithSweepConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Beginner, opts ...Option) *Service {
	s := &Service{
		store:       store,
		publisher:   events.NoopPublisher{},
		catchUp:     CatchUpSingle,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// Entry is one transaction to post.
type Entry struct {
	AccountID      uuid.UUID
	HouseholdID    *uuid.UUID
	IncomeSourceID *uuid.UUID
	Type           models.TransactionType
	Amount         int64
	CategoryID     *uuid.UUID
	Date           time.Time
	Merchant       *string
	Note           *string
	ExternalID     *string
}

func (e Entry) Validate() error {
	if e.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account_id is required", ErrValidation)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: type must be INCOME or EXPENSE", ErrValidation)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

type BatchResult struct {
	Posted  []models.Transaction `json:"posted"`
	Skipped int                  `json:"skipped"`
}

// PostTransaction records one INCOME or EXPENSE against the user's account
// and moves its balance by the same amount.
func (s *Service) PostTransaction(ctx context.Context, userID uuid.UUID, e Entry) (*models.Transaction, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	var posted *models.Transaction
	err := s.inTx(ctx, func(tx Store) error {
		if _, err := tx.AccountForUpdate(ctx, userID, e.AccountID); err != nil {
			return storeErr("account "+e.AccountID.String(), err)
		}
		var err error
		posted, err = s.post(ctx, tx, userID, e, &categoryResolver{})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, events.TransactionPosted, []models.Transaction{*posted})
	return posted, nil
}

// PostBatch posts entries against one account as a single unit. Entries whose
// external id is already recorded on the account are skipped.
func (s *Service) PostBatch(ctx context.Context, userID, accountID uuid.UUID, entries []Entry) (*BatchResult, error) {
	for i := range entries {
		entries[i].AccountID = accountID
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	result := &BatchResult{Posted: []models.Transaction{}}
	if len(entries) == 0 {
		return result, nil
	}

	err := s.inTx(ctx, func(tx Store) error {
		if _, err := tx.AccountForUpdate(ctx, userID, accountID); err != nil {
			return storeErr("account "+accountID.String(), err)
		}
		seen := make(map[string]bool)
		categories := &categoryResolver{}
		for _, e := range entries {
			if e.ExternalID != nil && *e.ExternalID != "" {
				if seen[*e.ExternalID] {
					result.Skipped++
					continue
				}
				seen[*e.ExternalID] = true
				exists, err := tx.TransactionExists(ctx, accountID, *e.ExternalID)
				if err != nil {
					return storeErr("external id lookup", err)
				}
				if exists {
					result.Skipped++
					continue
				}
			}
			t, err := s.post(ctx, tx, userID, e, categories)
			if err != nil {
				return err
			}
			result.Posted = append(result.Posted, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, events.TransactionPosted, result.Posted)
	return result, nil
}

// post writes e inside tx. The account must already be locked.
func (s *Service) post(ctx context.Context, tx Store, userID uuid.UUID, e Entry, categories *categoryResolver) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	categoryID, err := categories.resolve(ctx, tx, e.CategoryID)
	if err != nil {
		return nil, err
	}
	date := e.Date
	if date.IsZero() {
		date = s.now()
	}

	t, err := tx.InsertTransaction(ctx, &models.Transaction{
		UserID:         userID,
		AccountID:      e.AccountID,
		HouseholdID:    e.HouseholdID,
		IncomeSourceID: e.IncomeSourceID,
		Type:           e.Type,
		Amount:         e.Amount,
		CategoryID:     categoryID,
		Date:           date,
		Merchant:       e.Merchant,
		Note:           e.Note,
		ExternalID:     e.ExternalID,
	})
	if err != nil {
		return nil, storeErr("insert transaction", err)
	}
	if err := tx.AddToBalance(ctx, e.AccountID, e.Type.Signed(e.Amount)); err != nil {
		return nil, storeErr("account balance", err)
	}
	return t, nil
}

// categoryResolver looks up the fallback category at most once per unit.
type categoryResolver struct {
	fallback *uuid.UUID
}

func (r *categoryResolver) resolve(ctx context.Context, tx Store, id *uuid.UUID) (uuid.UUID, error) {
	if id != nil {
		c, err := tx.CategoryByID(ctx, *id)
		if err != nil {
			return uuid.Nil, storeErr("category "+id.String(), err)
		}
		return c.ID, nil
	}
	if r.fallback == nil {
		c, err := tx.CategoryByName(ctx, models.FallbackCategoryName)
		if err != nil {
			return uuid.Nil, storeErr("fallback category "+models.FallbackCategoryName, err)
		}
		r.fallback = &c.ID
	}
	return *r.fallback, nil
}

// inTx runs fn in one atomic unit. Any error rolls back every write fn made.
// The rollback runs on a context detached from ctx so a cancelled request
// still releases its connection cleanly.
func (s *Service) inTx(ctx context.Context, fn func(tx Store) error) (err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Printf("ERROR: Failed to roll back ledger transaction: %v", rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}
	return nil
}

func (s *Service) afterCommit(ctx context.Context, userID uuid.UUID, event string, posted []models.Transaction) {
	if len(posted) == 0 {
		return
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}

	pubCtx := context.WithoutCancel(ctx)
	for _, t := range posted {
		msg := events.NewTransactionMessage(event, t)
		var err error
		if event == events.IncomeTriggered {
			err = s.publisher.PublishIncomeTriggered(pubCtx, msg)
		} else {
			err = s.publisher.PublishTransactionPosted(pubCtx, msg)
		}
		if err != nil {
			log.Printf("ERROR: Failed to publish %s for transaction %s: %v", event, t.ID, err)
		}
	}
}
