package ledger

import (
	"budget-bee-server/src/models"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEntryValidate(t *testing.T) {
	account := uuid.New()
	tests := []struct {
		name  string
		entry Entry
		ok    bool
	}{
		{"valid", Entry{AccountID: account, Type: models.TransactionExpense, Amount: 1}, true},
		{"zero amount", Entry{AccountID: account, Type: models.TransactionExpense}, false},
		{"negative amount", Entry{AccountID: account, Type: models.TransactionIncome, Amount: -5}, false},
		{"bad type", Entry{AccountID: account, Type: "TRANSFER", Amount: 5}, false},
		{"no account", Entry{Type: models.TransactionIncome, Amount: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestPostTransactionBalanceMatchesHistory(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	food := store.addCategory("Food")
	store.addCategory(models.FallbackCategoryName)
	rec := &recorder{}
	svc := NewService(store, WithPublisher(rec), WithInvalidator(rec))

	posts := []struct {
		typ    models.TransactionType
		amount int64
	}{
		{models.TransactionIncome, 250},
		{models.TransactionExpense, 400},
		{models.TransactionExpense, 75},
		{models.TransactionIncome, 1200},
	}
	want := int64(1000)
	for _, p := range posts {
		_, err := svc.PostTransaction(context.Background(), user, Entry{
			AccountID:  account.ID,
			Type:       p.typ,
			Amount:     p.amount,
			CategoryID: &food.ID,
			Merchant:   strPtr("Corner shop"),
		})
		require.NoError(t, err)
		want += p.typ.Signed(p.amount)
	}

	assert.Equal(t, want, store.balance(account.ID))
	assert.Equal(t, int64(1975), want)
	assert.Equal(t, len(posts), store.count())
	assert.Equal(t, len(posts), rec.posted)
	assert.Len(t, rec.invalidated, len(posts))
}

func TestPostTransactionFallsBackToOthers(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	others := store.addCategory(models.FallbackCategoryName)
	now := day(2024, 3, 9)
	svc := NewService(store, WithClock(func() time.Time { return now }))

	tx, err := svc.PostTransaction(context.Background(), user, Entry{
		AccountID: account.ID, Type: models.TransactionExpense, Amount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, others.ID, tx.CategoryID)
	assert.Equal(t, int64(-10), store.balance(account.ID))
	assert.True(t, tx.Date.Equal(now))
}

func TestPostTransactionNotFound(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 100)
	inactive := store.addAccount(user, 100)
	inactive.IsActive = false
	store.accounts[inactive.ID] = inactive
	svc := NewService(store)
	missingCategory := uuid.New()

	tests := []struct {
		name  string
		user  uuid.UUID
		entry Entry
	}{
		{"missing account", user, Entry{AccountID: uuid.New(), Type: models.TransactionIncome, Amount: 5}},
		{"inactive account", user, Entry{AccountID: inactive.ID, Type: models.TransactionIncome, Amount: 5}},
		{"other user's account", uuid.New(), Entry{AccountID: account.ID, Type: models.TransactionIncome, Amount: 5}},
		{"unknown category", user, Entry{AccountID: account.ID, Type: models.TransactionIncome, Amount: 5, CategoryID: &missingCategory}},
		{"no fallback category", user, Entry{AccountID: account.ID, Type: models.TransactionIncome, Amount: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PostTransaction(context.Background(), tt.user, tt.entry)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
	assert.Equal(t, int64(100), store.balance(account.ID))
	assert.Zero(t, store.count())
}

func TestPostTransactionValidationSkipsStore(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	_, err := svc.PostTransaction(context.Background(), uuid.New(), Entry{AccountID: uuid.New(), Type: models.TransactionIncome})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, store.begins)
}

func TestPostTransactionStorageFailureRollsBack(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 100)
	store.addCategory(models.FallbackCategoryName)
	store.failOnInsert = 1
	svc := NewService(store)

	_, err := svc.PostTransaction(context.Background(), user, Entry{AccountID: account.ID, Type: models.TransactionIncome, Amount: 5})
	assert.ErrorIs(t, err, ErrStorage)
	assert.True(t, errors.Is(err, errInjected))
	assert.Equal(t, int64(100), store.balance(account.ID))
}

func TestPublishFailureDoesNotFailPost(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	rec := &recorder{publishErr: errors.New("broker down")}
	svc := NewService(store, WithPublisher(rec))

	_, err := svc.PostTransaction(context.Background(), user, Entry{AccountID: account.ID, Type: models.TransactionIncome, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), store.balance(account.ID))
	assert.Equal(t, 1, rec.posted)
}

func TestPostBatchSkipsDuplicates(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.PostBatch(ctx, user, account.ID, []Entry{
		{Type: models.TransactionExpense, Amount: 30, ExternalID: strPtr("fit-1")},
	})
	require.NoError(t, err)
	require.Len(t, first.Posted, 1)

	result, err := svc.PostBatch(ctx, user, account.ID, []Entry{
		{Type: models.TransactionExpense, Amount: 30, ExternalID: strPtr("fit-1")},
		{Type: models.TransactionIncome, Amount: 100, ExternalID: strPtr("fit-2")},
		{Type: models.TransactionIncome, Amount: 100, ExternalID: strPtr("fit-2")},
		{Type: models.TransactionExpense, Amount: 20},
	})
	require.NoError(t, err)
	assert.Len(t, result.Posted, 2)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, int64(-30+100-20), store.balance(account.ID))
}

func TestPostBatchIsAtomic(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 50)
	store.addCategory(models.FallbackCategoryName)
	store.failOnInsert = 3
	svc := NewService(store)

	_, err := svc.PostBatch(context.Background(), user, account.ID, []Entry{
		{Type: models.TransactionIncome, Amount: 1},
		{Type: models.TransactionIncome, Amount: 2},
		{Type: models.TransactionIncome, Amount: 3},
	})
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, int64(50), store.balance(account.ID))
	assert.Zero(t, store.count())
}

func TestPostBatchRejectsInvalidEntryUpFront(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	_, err := svc.PostBatch(context.Background(), uuid.New(), uuid.New(), []Entry{
		{Type: models.TransactionIncome, Amount: 1},
		{Type: models.TransactionIncome, Amount: 0},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, store.begins)
}

func TestCatchUpPolicyValid(t *testing.T) {
	assert.True(t, CatchUpSingle.Valid())
	assert.True(t, CatchUpAll.Valid())
	assert.False(t, CatchUpPolicy("some").Valid())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
