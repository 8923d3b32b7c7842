// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finwise/finwise/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory ledger.TxStore. Rollback is implemented by
// snapshotting the maps before WithTx runs and restoring them on error,
// which matches the all-or-nothing contract the engine relies on.
type Memory struct {
	mu           sync.Mutex
	accounts     map[string]ledger.Account
	transactions map[string]ledger.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]ledger.Account),
		transactions: make(map[string]ledger.Transaction),
	}
}

// PutAccount inserts or replaces an account record. Test/seed helper; the
// engine itself only writes balances through SaveAccountBalance.
func (m *Memory) PutAccount(a ledger.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

// DeleteAccount removes an account and cascades deletion of its
// transactions. Bulk operation: no per-transaction reversal happens here,
// mirroring the documented invariant exception.
func (m *Memory) DeleteAccount(_ context.Context, userID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok || a.UserID != userID {
		return &ledger.NotFoundError{Kind: "account", ID: accountID}
	}
	delete(m.accounts, accountID)
	for id, tx := range m.transactions {
		if tx.AccountID == accountID {
			delete(m.transactions, id)
		} else if tx.TransferToID == accountID {
			tx.TransferToID = ""
			m.transactions[id] = tx
		}
	}
	return nil
}

// =============================================================================
// ledger.Store
// =============================================================================

func (m *Memory) GetAccount(_ context.Context, userID, accountID string) (*ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAccountLocked(userID, accountID)
}

func (m *Memory) getAccountLocked(userID, accountID string) (*ledger.Account, error) {
	a, ok := m.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, &ledger.NotFoundError{Kind: "account", ID: accountID}
	}
	out := a
	return &out, nil
}

func (m *Memory) SaveAccountBalance(_ context.Context, account *ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAccountBalanceLocked(account)
}

func (m *Memory) saveAccountBalanceLocked(account *ledger.Account) error {
	stored, ok := m.accounts[account.ID]
	if !ok || stored.UserID != account.UserID {
		return &ledger.NotFoundError{Kind: "account", ID: account.ID}
	}
	if stored.Version != account.Version {
		return ledger.ErrConflict
	}
	stored.Balance = account.Balance
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	m.accounts[account.ID] = stored
	account.Version = stored.Version
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, userID, txID string) (*ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTransactionLocked(userID, txID)
}

func (m *Memory) getTransactionLocked(userID, txID string) (*ledger.Transaction, error) {
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return nil, &ledger.NotFoundError{Kind: "transaction", ID: txID}
	}
	out := tx
	return &out, nil
}

func (m *Memory) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = *tx
	return nil
}

func (m *Memory) UpdateTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[tx.ID]; !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: tx.ID}
	}
	m.transactions[tx.ID] = *tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, userID, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[txID]
	if !ok || tx.UserID != userID {
		return &ledger.NotFoundError{Kind: "transaction", ID: txID}
	}
	delete(m.transactions, txID)
	return nil
}

// =============================================================================
// ledger.TxStore
// =============================================================================

// WithTx executes fn atomically against the store. The maps are snapshotted
// up front and restored if fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make(map[string]ledger.Account, len(m.accounts))
	for k, v := range m.accounts {
		accounts[k] = v
	}
	transactions := make(map[string]ledger.Transaction, len(m.transactions))
	for k, v := range m.transactions {
		transactions[k] = v
	}

	if err := fn(&memTx{parent: m}); err != nil {
		m.accounts = accounts
		m.transactions = transactions
		return err
	}
	return nil
}

// memTx is the view handed to WithTx callbacks. The parent's lock is already
// held, so it calls the unexported locked methods directly.
type memTx struct {
	parent *Memory
}

func (t *memTx) GetAccount(_ context.Context, userID, accountID string) (*ledger.Account, error) {
	return t.parent.getAccountLocked(userID, accountID)
}

func (t *memTx) SaveAccountBalance(_ context.Context, account *ledger.Account) error {
	return t.parent.saveAccountBalanceLocked(account)
}

func (t *memTx) GetTransaction(_ context.Context, userID, txID string) (*ledger.Transaction, error) {
	return t.parent.getTransactionLocked(userID, txID)
}

func (t *memTx) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	t.parent.transactions[tx.ID] = *tx
	return nil
}

func (t *memTx) UpdateTransaction(_ context.Context, tx *ledger.Transaction) error {
	if _, ok := t.parent.transactions[tx.ID]; !ok {
		return &ledger.NotFoundError{Kind: "transaction", ID: tx.ID}
	}
	t.parent.transactions[tx.ID] = *tx
	return nil
}

func (t *memTx) DeleteTransaction(_ context.Context, userID, txID string) error {
	tx, ok := t.parent.transactions[txID]
	if !ok || tx.UserID != userID {
		return &ledger.NotFoundError{Kind: "transaction", ID: txID}
	}
	delete(t.parent.transactions, txID)
	return nil
}

// =============================================================================
// ledger.TransactionReader
// =============================================================================

func (m *Memory) ListTransactions(_ context.Context, userID string, filter ledger.AccountFilter, from, to time.Time) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.UserID != userID || !filter.Matches(tx.AccountID) {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListAccounts returns the user's accounts ordered by id.
func (m *Memory) ListAccounts(_ context.Context, userID string) ([]ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ledger.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
