package ledger

import (
	"budget-bee-server/src/models"
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerScenario(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	others := store.addCategory(models.FallbackCategoryName)
	src := store.addSource(user, account.ID, 500, 30, day(2024, 1, 1))
	rec := &recorder{}
	svc := NewService(store, WithPublisher(rec), WithInvalidator(rec))

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	tx := created[0]
	assert.Equal(t, models.TransactionIncome, tx.Type)
	assert.Equal(t, int64(500), tx.Amount)
	assert.Equal(t, others.ID, tx.CategoryID)
	assert.Equal(t, "Salary", *tx.Merchant)
	assert.Equal(t, src.ID, *tx.IncomeSourceID)
	assert.Equal(t, day(2024, 1, 1), tx.Date)

	assert.Equal(t, int64(1500), store.balance(account.ID))
	assert.Equal(t, day(2024, 1, 31), store.source(src.ID).NextDate)
	assert.Equal(t, 1, rec.triggered)
	assert.Equal(t, []uuid.UUID{user}, rec.invalidated)
}

func TestTriggerNothingDue(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	store.addCategory(models.FallbackCategoryName)
	store.addSource(user, account.ID, 500, 30, day(2024, 2, 1))
	rec := &recorder{}
	svc := NewService(store, WithInvalidator(rec))

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	require.NoError(t, err)
	assert.NotNil(t, created)
	assert.Empty(t, created)
	assert.Zero(t, store.begins)
	assert.Empty(t, rec.invalidated)
	assert.Equal(t, int64(1000), store.balance(account.ID))
}

func TestTriggerUsesSourceCategoryAndCreationOrder(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	bonus := store.addCategory("Bonus")
	first := store.addSource(user, account.ID, 100, 7, day(2024, 1, 1))
	second := store.addSource(user, account.ID, 200, 14, day(2024, 1, 3))
	second.CategoryID = &bonus.ID
	store.sources[second.ID] = second
	svc := NewService(store)

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 5))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, first.ID, *created[0].IncomeSourceID)
	assert.Equal(t, second.ID, *created[1].IncomeSourceID)
	assert.Equal(t, bonus.ID, created[1].CategoryID)
	assert.Equal(t, int64(300), store.balance(account.ID))
	assert.Equal(t, day(2024, 1, 8), store.source(first.ID).NextDate)
	assert.Equal(t, day(2024, 1, 17), store.source(second.ID).NextDate)
}

func TestTriggerSkipsInactiveSources(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	src := store.addSource(user, account.ID, 100, 30, day(2020, 1, 1))
	src.IsActive = false
	store.sources[src.ID] = src
	svc := NewService(store)

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, day(2020, 1, 1), store.source(src.ID).NextDate)
	assert.Zero(t, store.balance(account.ID))
}

func TestTriggerIsAtomic(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	store.addCategory(models.FallbackCategoryName)
	first := store.addSource(user, account.ID, 100, 30, day(2024, 1, 1))
	second := store.addSource(user, account.ID, 200, 30, day(2024, 1, 1))
	store.failOnInsert = 2
	rec := &recorder{}
	svc := NewService(store, WithPublisher(rec), WithInvalidator(rec))

	_, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrStorage)

	assert.Equal(t, int64(1000), store.balance(account.ID))
	assert.Zero(t, store.count())
	assert.Equal(t, day(2024, 1, 1), store.source(first.ID).NextDate)
	assert.Equal(t, day(2024, 1, 1), store.source(second.ID).NextDate)
	assert.Zero(t, rec.triggered)
	assert.Empty(t, rec.invalidated)
}

func TestTriggerMissingFallbackCategory(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	src := store.addSource(user, account.ID, 500, 30, day(2024, 1, 1))
	svc := NewService(store)

	_, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1000), store.balance(account.ID))
	assert.Equal(t, day(2024, 1, 1), store.source(src.ID).NextDate)
}

func TestTriggerInactiveAccountAbortsBatch(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	good := store.addAccount(user, 0)
	closed := store.addAccount(user, 0)
	closed.IsActive = false
	store.accounts[closed.ID] = closed
	store.addCategory(models.FallbackCategoryName)
	store.addSource(user, good.ID, 100, 30, day(2024, 1, 1))
	store.addSource(user, closed.ID, 100, 30, day(2024, 1, 1))
	svc := NewService(store)

	_, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.balance(good.ID))
	assert.Zero(t, store.count())
}

func TestTriggerSingleCatchUpFiresOnce(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	src := store.addSource(user, account.ID, 100, 30, day(2024, 1, 1))
	svc := NewService(store)

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, day(2024, 1, 31), store.source(src.ID).NextDate)

	// Still overdue, so the next call fires again.
	created, err = svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, day(2024, 3, 1), store.source(src.ID).NextDate)
	assert.Equal(t, int64(200), store.balance(account.ID))
}

func TestTriggerAllCatchUp(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	start := day(2024, 1, 1)
	asOf := start.AddDate(0, 0, 90)
	src := store.addSource(user, account.ID, 100, 30, start)
	svc := NewService(store, WithCatchUp(CatchUpAll))

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, asOf)
	require.NoError(t, err)
	assert.Len(t, created, 4)
	for _, tx := range created {
		assert.Equal(t, asOf, tx.Date)
	}
	assert.Equal(t, start.AddDate(0, 0, 120), store.source(src.ID).NextDate)
	assert.True(t, store.source(src.ID).NextDate.After(asOf))
	assert.Equal(t, int64(400), store.balance(account.ID))
}

func TestTriggerCancelledMidBatch(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 1000)
	store.addCategory(models.FallbackCategoryName)
	first := store.addSource(user, account.ID, 100, 30, day(2024, 1, 1))
	store.addSource(user, account.ID, 200, 30, day(2024, 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.onInsert = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	svc := NewService(store)

	_, err := svc.TriggerDueIncomeSources(ctx, user, day(2024, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1000), store.balance(account.ID))
	assert.Zero(t, store.count())
	assert.Equal(t, day(2024, 1, 1), store.source(first.ID).NextDate)
}

func TestTriggerOnlyTouchesOwnSources(t *testing.T) {
	store := newMemStore()
	alice, bob := uuid.New(), uuid.New()
	aliceAcct := store.addAccount(alice, 0)
	bobAcct := store.addAccount(bob, 0)
	store.addCategory(models.FallbackCategoryName)
	store.addSource(alice, aliceAcct.ID, 100, 30, day(2024, 1, 1))
	bobSrc := store.addSource(bob, bobAcct.ID, 100, 30, day(2024, 1, 1))
	svc := NewService(store)

	created, err := svc.TriggerDueIncomeSources(context.Background(), alice, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Zero(t, store.balance(bobAcct.ID))
	assert.Equal(t, day(2024, 1, 1), store.source(bobSrc.ID).NextDate)
}

func TestTriggerAdvancesInUTCAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	store := newMemStore()
	user := uuid.New()
	account := store.addAccount(user, 0)
	store.addCategory(models.FallbackCategoryName)
	src := store.addSource(user, account.ID, 100, 60, day(2024, 10, 1).In(ny))
	svc := NewService(store)

	created, err := svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 10, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	next := store.source(src.ID).NextDate
	assert.True(t, next.Equal(day(2024, 11, 30)), "next date %s", next)

	created, err = svc.TriggerDueIncomeSources(context.Background(), user, day(2024, 11, 30))
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, int64(200), store.balance(account.ID))
}
