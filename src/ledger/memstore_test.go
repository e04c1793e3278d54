package ledger

import (
	"budget-bee-server/src/events"
	"budget-bee-server/src/models"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errInjected = errors.New("injected failure")

// memStore is a transactional in-memory Store. A unit holds the store mutex
// from Begin to Commit/Rollback, and Rollback restores the snapshot taken at
// Begin.
type memStore struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]models.Account
	categories   map[uuid.UUID]models.Category
	sources      map[uuid.UUID]models.IncomeSource
	transactions []models.Transaction

	begins  int
	inserts int
	// failOnInsert makes the Nth insert (1-based) fail.
	failOnInsert int
	// onInsert runs before every insert with the running insert count.
	onInsert func(n int)
	// failUsers makes every insert for these users fail.
	failUsers map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   make(map[uuid.UUID]models.Account),
		categories: make(map[uuid.UUID]models.Category),
		sources:    make(map[uuid.UUID]models.IncomeSource),
		failUsers:  make(map[uuid.UUID]bool),
	}
}

func (m *memStore) addAccount(userID uuid.UUID, balance int64) models.Account {
	a := models.Account{ID: uuid.New(), UserID: userID, Name: "Main", Type: models.AccountTypeBank, Balance: balance, IsActive: true}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) addCategory(name string) models.Category {
	c := models.Category{ID: uuid.New(), Name: name, Type: models.CategoryBoth}
	m.categories[c.ID] = c
	return c
}

func (m *memStore) addSource(userID, accountID uuid.UUID, amount int64, freq int, next time.Time) models.IncomeSource {
	s := models.IncomeSource{
		ID:            uuid.New(),
		UserID:        userID,
		AccountID:     accountID,
		Name:          "Salary",
		Amount:        amount,
		FrequencyDays: freq,
		NextDate:      next,
		IsActive:      true,
		CreatedAt:     time.Now().Add(time.Duration(len(m.sources)) * time.Millisecond),
	}
	m.sources[s.ID] = s
	return s
}

func (m *memStore) balance(accountID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

func (m *memStore) source(id uuid.UUID) models.IncomeSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sources[id]
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *memStore) Begin(ctx context.Context) (TxStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.begins++
	snap := memSnapshot{
		accounts:     make(map[uuid.UUID]models.Account, len(m.accounts)),
		sources:      make(map[uuid.UUID]models.IncomeSource, len(m.sources)),
		transactions: append([]models.Transaction(nil), m.transactions...),
	}
	for k, v := range m.accounts {
		snap.accounts[k] = v
	}
	for k, v := range m.sources {
		snap.sources[k] = v
	}
	return &memTx{m: m, snap: snap}, nil
}

func (m *memStore) HasDueIncome(ctx context.Context, userID uuid.UUID, asOf time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.UserID == userID && s.DueAt(asOf) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UsersWithDueIncome(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var users []uuid.UUID
	for _, s := range m.sources {
		if s.DueAt(asOf) && !seen[s.UserID] {
			seen[s.UserID] = true
			users = append(users, s.UserID)
		}
	}
	return users, nil
}

type memSnapshot struct {
	accounts     map[uuid.UUID]models.Account
	sources      map[uuid.UUID]models.IncomeSource
	transactions []models.Transaction
}

type memTx struct {
	m    *memStore
	snap memSnapshot
	done bool
}

func (t *memTx) AccountForUpdate(ctx context.Context, userID, accountID uuid.UUID) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := t.m.accounts[accountID]
	if !ok || a.UserID != userID || !a.IsActive {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (t *memTx) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := t.m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (t *memTx) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, c := range t.m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) InsertTransaction(ctx context.Context, tr *models.Transaction) (*models.Transaction, error) {
	t.m.inserts++
	if t.m.onInsert != nil {
		t.m.onInsert(t.m.inserts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.m.failOnInsert == t.m.inserts || t.m.failUsers[tr.UserID] {
		return nil, errInjected
	}
	out := *tr
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	t.m.transactions = append(t.m.transactions, out)
	return &out, nil
}

func (t *memTx) AddToBalance(ctx context.Context, accountID uuid.UUID, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a, ok := t.m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.Balance += delta
	t.m.accounts[accountID] = a
	return nil
}

func (t *memTx) TransactionExists(ctx context.Context, accountID uuid.UUID, externalID string) (bool, error) {
	for _, tr := range t.m.transactions {
		if tr.AccountID == accountID && tr.ExternalID != nil && *tr.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) DueIncomeSources(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]models.IncomeSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var due []models.IncomeSource
	for _, s := range t.m.sources {
		if s.UserID == userID && s.DueAt(asOf) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	return due, nil
}

func (t *memTx) SetIncomeSourceNextDate(ctx context.Context, sourceID uuid.UUID, next time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := t.m.sources[sourceID]
	if !ok {
		return ErrNotFound
	}
	s.NextDate = next
	t.m.sources[sourceID] = s
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	t.m.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.accounts = t.snap.accounts
	t.m.sources = t.snap.sources
	t.m.transactions = t.snap.transactions
	t.m.mu.Unlock()
	return nil
}

// recorder captures published events and cache invalidations.
type recorder struct {
	mu          sync.Mutex
	posted      int
	triggered   int
	invalidated []uuid.UUID
	publishErr  error
}

func (r *recorder) PublishTransactionPosted(context.Context, events.TransactionMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted++
	return r.publishErr
}

func (r *recorder) PublishIncomeTriggered(context.Context, events.TransactionMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggered++
	return r.publishErr
}

func (r *recorder) InvalidateUser(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, userID)
}
