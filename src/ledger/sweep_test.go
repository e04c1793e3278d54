package ledger

import (
	"budget-bee-server/src/models"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepIsolatesUserFailures(t *testing.T) {
	store := newMemStore()
	store.addCategory(models.FallbackCategoryName)
	good, bad := uuid.New(), uuid.New()
	goodAcct := store.addAccount(good, 0)
	badAcct := store.addAccount(bad, 0)
	goodSrc := store.addSource(good, goodAcct.ID, 300, 30, day(2024, 1, 1))
	badSrc := store.addSource(bad, badAcct.ID, 300, 30, day(2024, 1, 1))
	store.failUsers[bad] = true
	svc := NewService(store, WithSweepConcurrency(2))

	report, err := svc.SweepDueIncome(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Transactions)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[bad], ErrStorage)
	assert.Contains(t, report.FailedUsers(), bad.String())

	assert.Equal(t, int64(300), store.balance(goodAcct.ID))
	assert.Equal(t, day(2024, 1, 31), store.source(goodSrc.ID).NextDate)
	assert.Zero(t, store.balance(badAcct.ID))
	assert.Equal(t, day(2024, 1, 1), store.source(badSrc.ID).NextDate)
}

func TestSweepNothingDue(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	report, err := svc.SweepDueIncome(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Zero(t, report.Users)
	assert.Zero(t, report.Transactions)
	assert.Empty(t, report.Failed)
	assert.Zero(t, store.begins)
}

func TestSweepManyUsers(t *testing.T) {
	store := newMemStore()
	store.addCategory(models.FallbackCategoryName)
	var accounts []models.Account
	for i := 0; i < 10; i++ {
		user := uuid.New()
		a := store.addAccount(user, 0)
		store.addSource(user, a.ID, 50, 7, day(2024, 1, 1))
		accounts = append(accounts, a)
	}
	svc := NewService(store, WithSweepConcurrency(3))

	report, err := svc.SweepDueIncome(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 10, report.Users)
	assert.Equal(t, 10, report.Transactions)
	for _, a := range accounts {
		assert.Equal(t, int64(50), store.balance(a.ID))
	}
}
