/*
store.go - Persistence interfaces for the ledger

PURPOSE:
  Defines the interface between the ledger engine and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Account + transaction persistence, scoped by user
  TxStore: Store plus WithTx for atomic multi-row writes

TENANCY CONTRACT:
  Every method takes the owning user id. A row that exists but belongs to a
  different user is reported exactly like a missing row (*NotFoundError),
  so ownership never leaks through error shapes.

OPTIMISTIC LOCKING CONTRACT:
  SaveAccountBalance writes the new balance only if the stored version still
  matches account.Version, then increments it. A stale version fails with
  ErrConflict. Combined with WithTx this gives the engine its all-or-nothing
  reverse/reapply guarantee: a concurrent reader never observes the
  intermediate post-reversal state, and two racing writers serialize.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only caller of SaveAccountBalance
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Accounts and transactions
// =============================================================================

// Store handles persistence of accounts and transactions for the engine.
type Store interface {
	// GetAccount returns the account, or *NotFoundError if it doesn't exist
	// or belongs to another user.
	GetAccount(ctx context.Context, userID, accountID string) (*Account, error)

	// SaveAccountBalance persists a new balance for the account, guarded by
	// the optimistic version check described in the package contract.
	// On success account.Version reflects the newly stored version.
	SaveAccountBalance(ctx context.Context, account *Account) error

	// GetTransaction returns the transaction, or *NotFoundError.
	GetTransaction(ctx context.Context, userID, txID string) (*Transaction, error)

	// InsertTransaction persists a new transaction row.
	InsertTransaction(ctx context.Context, tx *Transaction) error

	// UpdateTransaction overwrites every caller-editable field of the row.
	UpdateTransaction(ctx context.Context, tx *Transaction) error

	// DeleteTransaction removes the row.
	DeleteTransaction(ctx context.Context, userID, txID string) error
}

// TxStore wraps Store with a unit of work. The engine runs each of its three
// operations inside WithTx so that a failure after the reversal sub-step
// rolls the whole operation back.
type TxStore interface {
	Store

	// WithTx executes fn within a storage transaction. If fn returns an
	// error the transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// TRANSACTION READER - Read-only view for reporting
// =============================================================================

// TransactionReader is the read-only slice of storage that reporting needs.
// Implementations must return rows consistent with committed engine writes:
// a transaction is either fully visible with its balance effect applied, or
// not visible at all.
type TransactionReader interface {
	// ListTransactions returns the user's transactions with dates in
	// [from, to], optionally restricted to one account, ordered by date
	// then creation time.
	ListTransactions(ctx context.Context, userID string, filter AccountFilter, from, to time.Time) ([]Transaction, error)
}
