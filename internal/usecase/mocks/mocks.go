package mocks

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                func(ctx context.Context, account *domain.Account) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerAndCurrencyFunc func(ctx context.Context, ownerID, currency string) (*domain.Account, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	EnsureClearingAccountFunc func(ctx context.Context, tx usecase.Transaction, id, currency string) error
	UpdateBalancesFunc        func(ctx context.Context, tx usecase.Transaction, id string, availableMinor, pendingMinor, expectedVersion int64, updatedAt time.Time) error
	UpdateStatusFunc          func(ctx context.Context, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) error
	ListFunc                  func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListByOwnerFunc           func(ctx context.Context, ownerID string) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed installs an account into the in-memory store.
func (m *MockAccountRepository) Seed(accounts ...*domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByOwnerAndCurrency(ctx context.Context, ownerID, currency string) (*domain.Account, error) {
	if m.GetByOwnerAndCurrencyFunc != nil {
		return m.GetByOwnerAndCurrencyFunc(ctx, ownerID, currency)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.Currency == currency && acc.Kind == domain.AccountKindWallet {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			cp := *acc
			accounts = append(accounts, &cp)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) EnsureClearingAccount(ctx context.Context, tx usecase.Transaction, id, currency string) error {
	if m.EnsureClearingAccountFunc != nil {
		return m.EnsureClearingAccountFunc(ctx, tx, id, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		now := time.Now().UTC()
		m.accounts[id] = &domain.Account{
			ID:        id,
			OwnerID:   domain.SystemOwnerID,
			Currency:  currency,
			Kind:      domain.AccountKindClearing,
			Status:    domain.AccountStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return nil
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, id string, availableMinor, pendingMinor, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, id, availableMinor, pendingMinor, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return domain.ErrOptimisticConflict
	}
	acc.AvailableMinor = availableMinor
	acc.PendingMinor = pendingMinor
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return domain.ErrOptimisticConflict
	}
	acc.Status = status
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		cp := *acc
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			cp := *acc
			accounts = append(accounts, &cp)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// MockJournalRepository is a mock implementation of JournalRepository.
type MockJournalRepository struct {
	mu      sync.RWMutex
	entries []*domain.JournalEntry

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	GetByPostingGroupFunc func(ctx context.Context, groupID string) ([]*domain.JournalEntry, error)
	GetByAccountFunc      func(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error)
	ReplayBalanceFunc     func(ctx context.Context, accountID string) (int64, error)
	BalanceAtFunc         func(ctx context.Context, accountID string, at time.Time) (int64, error)
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{}
}

// Entries returns a snapshot of all stored entries.
func (m *MockJournalRepository) Entries() []*domain.JournalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.JournalEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *MockJournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockJournalRepository) GetByPostingGroup(ctx context.Context, groupID string) ([]*domain.JournalEntry, error) {
	if m.GetByPostingGroupFunc != nil {
		return m.GetByPostingGroupFunc(ctx, groupID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JournalEntry
	for _, e := range m.entries {
		if e.PostingGroupID == groupID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockJournalRepository) GetByAccount(ctx context.Context, accountID string, since time.Time, limit, offset int) ([]*domain.JournalEntry, error) {
	if m.GetByAccountFunc != nil {
		return m.GetByAccountFunc(ctx, accountID, since, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JournalEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.AccountID == accountID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockJournalRepository) ReplayBalance(ctx context.Context, accountID string) (int64, error) {
	if m.ReplayBalanceFunc != nil {
		return m.ReplayBalanceFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, e := range m.entries {
		if e.AccountID == accountID {
			total += e.SignedMinor()
		}
	}
	return total, nil
}

func (m *MockJournalRepository) BalanceAt(ctx context.Context, accountID string, at time.Time) (int64, error) {
	if m.BalanceAtFunc != nil {
		return m.BalanceAtFunc(ctx, accountID, at)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, e := range m.entries {
		if e.AccountID == accountID && !e.CreatedAt.After(at) {
			total += e.SignedMinor()
		}
	}
	return total, nil
}

// MockTransferRepository is a mock implementation of TransferRepository.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.Transfer
	byKey     map[string]string

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
	CreateStandaloneFunc      func(ctx context.Context, transfer *domain.Transfer) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIdempotencyKeyFunc   func(ctx context.Context, key string) (*domain.Transfer, error)
	FinalizeFunc              func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
	UpdateStatusFunc          func(ctx context.Context, tx usecase.Transaction, id string, from, to domain.TransferStatus, completedAt time.Time) error
	ListByAccountFunc         func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
	ListFXConvertsByOwnerFunc func(ctx context.Context, ownerID string) ([]*domain.Transfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.Transfer),
		byKey:     make(map[string]string),
	}
}

func (m *MockTransferRepository) store(transfer *domain.Transfer) error {
	if existing, ok := m.byKey[transfer.IdempotencyKey]; ok && existing != transfer.ID {
		return domain.ErrIdempotencyKeyTaken
	}
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	m.byKey[transfer.IdempotencyKey] = transfer.ID
	return nil
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(transfer)
}

func (m *MockTransferRepository) CreateStandalone(ctx context.Context, transfer *domain.Transfer) error {
	if m.CreateStandaloneFunc != nil {
		return m.CreateStandaloneFunc(ctx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(transfer)
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byKey[key]; ok {
		cp := *m.transfers[id]
		return &cp, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) Finalize(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	return nil
}

func (m *MockTransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.TransferStatus, completedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, from, to, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return domain.ErrTransferNotFound
	}
	if t.Status != from {
		return domain.ErrInvalidStatusChange
	}
	t.Status = to
	t.CompletedAt = &completedAt
	return nil
}

func (m *MockTransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, t := range m.transfers {
		if t.FromAccountID == accountID || t.ToAccountID == accountID {
			cp := *t
			transfers = append(transfers, &cp)
		}
	}
	return transfers, nil
}

func (m *MockTransferRepository) ListFXConvertsByOwner(ctx context.Context, ownerID string) ([]*domain.Transfer, error) {
	if m.ListFXConvertsByOwnerFunc != nil {
		return m.ListFXConvertsByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, t := range m.transfers {
		if t.OwnerID == ownerID && t.Settled != nil && t.Status == domain.TransferStatusPosted {
			cp := *t
			transfers = append(transfers, &cp)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].CreatedAt.Before(transfers[j].CreatedAt) })
	return transfers, nil
}

// MockPositionRepository is a mock implementation of PositionRepository.
type MockPositionRepository struct {
	mu        sync.RWMutex
	positions map[string]*domain.FXPosition
	applied   map[string]bool

	GetFunc                 func(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error)
	GetForUpdateFunc        func(ctx context.Context, tx usecase.Transaction, ownerID, currency string) (*domain.FXPosition, error)
	UpsertFunc              func(ctx context.Context, tx usecase.Transaction, position *domain.FXPosition) error
	MarkTransferAppliedFunc func(ctx context.Context, tx usecase.Transaction, transferID string) (bool, error)
	ListByOwnerFunc         func(ctx context.Context, ownerID string) ([]*domain.FXPosition, error)
	DeleteByOwnerFunc       func(ctx context.Context, tx usecase.Transaction, ownerID string) error
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make(map[string]*domain.FXPosition),
		applied:   make(map[string]bool),
	}
}

func positionKey(ownerID, currency string) string {
	return ownerID + "/" + currency
}

func (m *MockPositionRepository) Get(ctx context.Context, ownerID, currency string) (*domain.FXPosition, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ownerID, currency)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.positions[positionKey(ownerID, currency)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPositionNotFound
}

func (m *MockPositionRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, ownerID, currency string) (*domain.FXPosition, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, ownerID, currency)
	}
	return m.Get(ctx, ownerID, currency)
}

func (m *MockPositionRepository) Upsert(ctx context.Context, tx usecase.Transaction, position *domain.FXPosition) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, position)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *position
	m.positions[positionKey(position.OwnerID, position.Currency)] = &cp
	return nil
}

func (m *MockPositionRepository) MarkTransferApplied(ctx context.Context, tx usecase.Transaction, transferID string) (bool, error) {
	if m.MarkTransferAppliedFunc != nil {
		return m.MarkTransferAppliedFunc(ctx, tx, transferID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied[transferID] {
		return false, nil
	}
	m.applied[transferID] = true
	return true, nil
}

func (m *MockPositionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.FXPosition, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.FXPosition
	for _, p := range m.positions {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (m *MockPositionRepository) DeleteByOwner(ctx context.Context, tx usecase.Transaction, ownerID string) error {
	if m.DeleteByOwnerFunc != nil {
		return m.DeleteByOwnerFunc(ctx, tx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, p := range m.positions {
		if p.OwnerID == ownerID {
			delete(m.positions, key)
		}
	}
	return nil
}

// MockHoldRepository is a mock implementation of HoldRepository.
type MockHoldRepository struct {
	mu    sync.RWMutex
	holds map[string]*domain.Hold

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, hold *domain.Hold) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Hold, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Hold, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error
	ListByAccountFunc    func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error)
}

func NewMockHoldRepository() *MockHoldRepository {
	return &MockHoldRepository{
		holds: make(map[string]*domain.Hold),
	}
}

func (m *MockHoldRepository) Create(ctx context.Context, tx usecase.Transaction, hold *domain.Hold) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, hold)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *hold
	m.holds[hold.ID] = &cp
	return nil
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.holds[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, domain.ErrHoldNotFound
}

func (m *MockHoldRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Hold, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockHoldRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	h.Status = status
	h.UpdatedAt = updatedAt
	return nil
}

func (m *MockHoldRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Hold
	for _, h := range m.holds {
		if h.AccountID == accountID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns a snapshot of all stored events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRetrier runs the operation once, or as overridden.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockRateProvider is a mock implementation of RateProvider.
type MockRateProvider struct {
	NameValue     string
	FetchRateFunc func(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
}

func (m *MockRateProvider) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *MockRateProvider) FetchRate(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	if m.FetchRateFunc != nil {
		return m.FetchRateFunc(ctx, base, target)
	}
	return nil, domain.ErrRateUnavailable
}

// MockRateCache is a mock implementation of RateCache.
type MockRateCache struct {
	mu    sync.RWMutex
	rates map[string]*domain.ExchangeRate

	GetFunc func(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
	SetFunc func(ctx context.Context, rate *domain.ExchangeRate, ttl time.Duration) error
}

func NewMockRateCache() *MockRateCache {
	return &MockRateCache{
		rates: make(map[string]*domain.ExchangeRate),
	}
}

func (m *MockRateCache) Get(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, base, target)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rates[base+"/"+target]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *MockRateCache) Set(ctx context.Context, rate *domain.ExchangeRate, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, rate, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rate
	m.rates[rate.Base+"/"+rate.Target] = &cp
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

// MockAuditPublisher is a mock implementation of AuditPublisher.
type MockAuditPublisher struct {
	mu        sync.Mutex
	published []*domain.OutboxEvent

	PublishFunc func(ctx context.Context, event *domain.OutboxEvent) error
}

func NewMockAuditPublisher() *MockAuditPublisher {
	return &MockAuditPublisher{}
}

func (m *MockAuditPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

// Published returns a snapshot of the published events.
func (m *MockAuditPublisher) Published() []*domain.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.OutboxEvent, len(m.published))
	copy(out, m.published)
	return out
}
