/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  ledger.TxStore:            Engine persistence with unit-of-work support
  ledger.TransactionReader:  Read-only queries for reporting

KEY TABLES:
  accounts:     Account records; balance guarded by a version column
  transactions: Money movements, FK to accounts with ON DELETE CASCADE
  categories:   System and user category catalog
  budgets:      Per-category spending limits

OPTIMISTIC LOCKING:
  Balance writes are UPDATE ... WHERE version = ?. A concurrent writer that
  committed first makes the stale write affect zero rows, which surfaces as
  ledger.ErrConflict and rolls back the whole operation.

CASCADING DELETE:
  DeleteAccount removes the account row and lets the foreign keys cascade:
  its transactions are deleted outright (no per-transaction reversal) and
  transfer legs pointing at it from other accounts get a NULL destination.
  This is the documented bulk-removal exception to the balance invariant.

INDEXES:
  - idx_transactions_date:         date-window scans for reporting
  - idx_transactions_user_date:    per-user reporting windows (hot path)
  - idx_transactions_account_type: account+type filters

WAL MODE:
  SQLite is opened with WAL and foreign keys enabled; a busy timeout keeps
  concurrent writers queueing instead of failing immediately.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface contracts
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/finwise/finwise/ledger"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_number TEXT NOT NULL DEFAULT '',
		account_type TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		opening_balance TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'USD',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_user
		ON accounts(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		transfer_to_account_id TEXT REFERENCES accounts(id) ON DELETE SET NULL,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		transaction_date TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		reference_number TEXT NOT NULL DEFAULT '',
		is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
		recurring_frequency TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(transaction_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_date
		ON transactions(user_id, transaction_date);
	CREATE INDEX IF NOT EXISTS idx_transactions_account_type
		ON transactions(account_id, tx_type);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		cat_type TEXT NOT NULL DEFAULT 'both',
		icon TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE(user_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_categories_user_type
		ON categories(user_id, cat_type);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		amount TEXT NOT NULL,
		period TEXT NOT NULL DEFAULT 'monthly',
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		alert_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		alert_threshold INTEGER NOT NULL DEFAULT 80,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_user_active
		ON budgets(user_id, is_active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryer abstracts *sql.DB and *sql.Tx so every statement can run either
// standalone or inside a unit of work.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// UNIT OF WORK (ledger.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	q      *sql.Tx
	parent *Store
}

func (t *txStore) GetAccount(ctx context.Context, userID, accountID string) (*ledger.Account, error) {
	return t.parent.getAccount(ctx, t.q, userID, accountID)
}

func (t *txStore) SaveAccountBalance(ctx context.Context, account *ledger.Account) error {
	return t.parent.saveAccountBalance(ctx, t.q, account)
}

func (t *txStore) GetTransaction(ctx context.Context, userID, txID string) (*ledger.Transaction, error) {
	return t.parent.getTransaction(ctx, t.q, userID, txID)
}

func (t *txStore) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return t.parent.insertTransaction(ctx, t.q, tx)
}

func (t *txStore) UpdateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return t.parent.updateTransaction(ctx, t.q, tx)
}

func (t *txStore) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return t.parent.deleteTransaction(ctx, t.q, userID, txID)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, user_id, provider, account_name, account_number,
	account_type, balance, opening_balance, currency, is_active, notes, version,
	created_at, updated_at`

// CreateAccount inserts a new account with its initial balance.
func (s *Store) CreateAccount(ctx context.Context, a *ledger.Account) error {
	if a.Currency == "" {
		a.Currency = "USD"
	}
	a.Version = 1
	a.OpeningBalance = a.Balance
	query := `
		INSERT INTO accounts
		(id, user_id, provider, account_name, account_number, account_type,
		 balance, opening_balance, currency, is_active, notes, version,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Provider, a.Name, a.AccountNumber, string(a.Type),
		a.Balance.StringFixed(2), a.OpeningBalance.StringFixed(2),
		a.Currency, a.Active, a.Notes, a.Version,
		a.CreatedAt.UTC().Format(timeFormat), a.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateAccount overwrites the account's non-balance fields. Balance only
// changes through the engine's SaveAccountBalance path.
func (s *Store) UpdateAccount(ctx context.Context, a *ledger.Account) error {
	query := `
		UPDATE accounts
		SET provider = ?, account_name = ?, account_number = ?, account_type = ?,
		    currency = ?, is_active = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		a.Provider, a.Name, a.AccountNumber, string(a.Type),
		a.Currency, a.Active, a.Notes, time.Now().UTC().Format(timeFormat),
		a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "account", ID: a.ID}
	}
	return nil
}

// DeleteAccount removes the account; foreign keys cascade its transactions
// and null out transfer legs pointing at it. Bulk removal, not mediated by
// the ledger engine.
func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM accounts WHERE id = ? AND user_id = ?", accountID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "account", ID: accountID}
	}
	return nil
}

// ListAccounts returns the user's accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AllAccounts returns every account regardless of owner, for audit tooling.
func (s *Store) AllAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY user_id, created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount returns the account or *ledger.NotFoundError.
func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*ledger.Account, error) {
	return s.getAccount(ctx, s.db, userID, accountID)
}

func (s *Store) getAccount(ctx context.Context, q queryer, userID, accountID string) (*ledger.Account, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ? AND user_id = ?", accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &ledger.NotFoundError{Kind: "account", ID: accountID}
	}
	a, err := scanAccount(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAccountBalance writes the balance under the optimistic version check.
func (s *Store) SaveAccountBalance(ctx context.Context, account *ledger.Account) error {
	return s.saveAccountBalance(ctx, s.db, account)
}

func (s *Store) saveAccountBalance(ctx context.Context, q queryer, account *ledger.Account) error {
	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND version = ?`,
		account.Balance.StringFixed(2),
		time.Now().UTC().Format(timeFormat),
		account.ID, account.UserID, account.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows means either the row vanished or the version moved.
		var count int
		if err := q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounts WHERE id = ? AND user_id = ?",
			account.ID, account.UserID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return &ledger.NotFoundError{Kind: "account", ID: account.ID}
		}
		return ledger.ErrConflict
	}
	account.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (ledger.Account, error) {
	var (
		a                    ledger.Account
		accountType          string
		balance, opening     string
		createdAt, updatedAt string
	)
	err := r.Scan(&a.ID, &a.UserID, &a.Provider, &a.Name, &a.AccountNumber,
		&accountType, &balance, &opening, &a.Currency, &a.Active, &a.Notes,
		&a.Version, &createdAt, &updatedAt)
	if err != nil {
		return a, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Type = ledger.AccountType(accountType)
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return a, fmt.Errorf("corrupt balance for account %s: %w", a.ID, err)
	}
	a.OpeningBalance, err = decimal.NewFromString(opening)
	if err != nil {
		return a, fmt.Errorf("corrupt opening balance for account %s: %w", a.ID, err)
	}
	a.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return a, fmt.Errorf("corrupt created_at for account %s: %w", a.ID, err)
	}
	a.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return a, fmt.Errorf("corrupt updated_at for account %s: %w", a.ID, err)
	}
	return a, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionColumns = `id, user_id, account_id, transfer_to_account_id,
	tx_type, amount, category, description, transaction_date, payment_method,
	reference_number, is_recurring, recurring_frequency, notes, created_at, updated_at`

// GetTransaction returns the transaction or *ledger.NotFoundError.
func (s *Store) GetTransaction(ctx context.Context, userID, txID string) (*ledger.Transaction, error) {
	return s.getTransaction(ctx, s.db, userID, txID)
}

func (s *Store) getTransaction(ctx context.Context, q queryer, userID, txID string) (*ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?", txID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &ledger.NotFoundError{Kind: "transaction", ID: txID}
	}
	tx, err := scanTransaction(rows)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// InsertTransaction persists a new transaction row.
func (s *Store) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return s.insertTransaction(ctx, s.db, tx)
}

func (s *Store) insertTransaction(ctx context.Context, q queryer, tx *ledger.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, user_id, account_id, transfer_to_account_id, tx_type, amount,
		 category, description, transaction_date, payment_method,
		 reference_number, is_recurring, recurring_frequency, notes,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.AccountID, nullString(tx.TransferToID),
		string(tx.Type), tx.Amount.StringFixed(2), tx.Category, tx.Description,
		tx.Date.Format(dateFormat), tx.PaymentMethod, tx.ReferenceNumber,
		tx.Recurring, tx.RecurringFrequency, tx.Notes,
		tx.CreatedAt.UTC().Format(timeFormat), tx.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction overwrites every caller-editable field.
func (s *Store) UpdateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	return s.updateTransaction(ctx, s.db, tx)
}

func (s *Store) updateTransaction(ctx context.Context, q queryer, tx *ledger.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = ?, transfer_to_account_id = ?, tx_type = ?, amount = ?,
		    category = ?, description = ?, transaction_date = ?,
		    payment_method = ?, reference_number = ?, is_recurring = ?,
		    recurring_frequency = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := q.ExecContext(ctx, query,
		tx.AccountID, nullString(tx.TransferToID), string(tx.Type),
		tx.Amount.StringFixed(2), tx.Category, tx.Description,
		tx.Date.Format(dateFormat), tx.PaymentMethod, tx.ReferenceNumber,
		tx.Recurring, tx.RecurringFrequency, tx.Notes,
		tx.UpdatedAt.UTC().Format(timeFormat),
		tx.ID, tx.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "transaction", ID: tx.ID}
	}
	return nil
}

// DeleteTransaction removes the row.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return s.deleteTransaction(ctx, s.db, userID, txID)
}

func (s *Store) deleteTransaction(ctx context.Context, q queryer, userID, txID string) error {
	res, err := q.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", txID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "transaction", ID: txID}
	}
	return nil
}

// ListTransactions implements ledger.TransactionReader. The zero from-time
// means "from the beginning".
func (s *Store) ListTransactions(ctx context.Context, userID string, filter ledger.AccountFilter, from, to time.Time) ([]ledger.Transaction, error) {
	query := "SELECT " + transactionColumns + `
		FROM transactions
		WHERE user_id = ? AND transaction_date >= ? AND transaction_date <= ?`
	args := []any{userID, from.Format(dateFormat), to.Format(dateFormat)}

	if id := filter.AccountID(); id != "" {
		query += " AND account_id = ?"
		args = append(args, id)
	}
	query += " ORDER BY transaction_date ASC, created_at ASC"

	return s.queryTransactions(ctx, query, args...)
}

// ListRecentTransactions returns the user's newest transactions, newest
// first, for the dashboard.
func (s *Store) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	query := "SELECT " + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT ?`
	return s.queryTransactions(ctx, query, userID, limit)
}

// AccountTransactions returns every transaction touching the account, as
// source or as transfer destination, for audit tooling.
func (s *Store) AccountTransactions(ctx context.Context, accountID string) ([]ledger.Transaction, error) {
	query := "SELECT " + transactionColumns + `
		FROM transactions
		WHERE account_id = ? OR transfer_to_account_id = ?
		ORDER BY transaction_date ASC, created_at ASC`
	return s.queryTransactions(ctx, query, accountID, accountID)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(r rowScanner) (ledger.Transaction, error) {
	var (
		tx                   ledger.Transaction
		transferTo           sql.NullString
		txType               string
		amount               string
		date                 string
		createdAt, updatedAt string
	)
	err := r.Scan(&tx.ID, &tx.UserID, &tx.AccountID, &transferTo, &txType,
		&amount, &tx.Category, &tx.Description, &date, &tx.PaymentMethod,
		&tx.ReferenceNumber, &tx.Recurring, &tx.RecurringFrequency, &tx.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.TransferToID = transferTo.String
	tx.Type = ledger.TransactionType(txType)
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("corrupt amount for transaction %s: %w", tx.ID, err)
	}
	tx.Date, err = time.Parse(dateFormat, date)
	if err != nil {
		return tx, fmt.Errorf("corrupt transaction_date for transaction %s: %w", tx.ID, err)
	}
	tx.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return tx, fmt.Errorf("corrupt created_at for transaction %s: %w", tx.ID, err)
	}
	tx.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return tx, fmt.Errorf("corrupt updated_at for transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

// SeedCategories inserts the given categories, skipping names that already
// exist for the same scope. Used by `finctl seed` and server startup.
func (s *Store) SeedCategories(ctx context.Context, categories []ledger.Category) error {
	query := `
		INSERT INTO categories
		(id, user_id, name, cat_type, icon, color, is_system, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO NOTHING
	`
	for _, c := range categories {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		_, err := s.db.ExecContext(ctx, query,
			c.ID, c.UserID, c.Name, string(c.Type), c.Icon, c.Color,
			c.System, c.SortOrder, time.Now().UTC().Format(timeFormat))
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// ListCategories returns system categories plus the user's own, in sort order.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]ledger.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, cat_type, icon, color, is_system, sort_order, created_at
		FROM categories
		WHERE user_id = '' OR user_id = ?
		ORDER BY sort_order, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []ledger.Category
	for rows.Next() {
		var (
			c         ledger.Category
			catType   string
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &catType, &c.Icon,
			&c.Color, &c.System, &c.SortOrder, &createdAt); err != nil {
			return nil, err
		}
		c.Type = ledger.CategoryType(catType)
		c.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at for category %s: %w", c.ID, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// =============================================================================
// BUDGETS
// =============================================================================

const budgetColumns = `id, user_id, category, amount, period, start_date,
	end_date, is_active, alert_enabled, alert_threshold, created_at, updated_at`

// CreateBudget inserts a budget.
func (s *Store) CreateBudget(ctx context.Context, b *ledger.Budget) error {
	query := `
		INSERT INTO budgets
		(id, user_id, category, amount, period, start_date, end_date,
		 is_active, alert_enabled, alert_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.UserID, b.Category, b.Amount.StringFixed(2), string(b.Period),
		b.StartDate.Format(dateFormat), nullDate(b.EndDate),
		b.Active, b.AlertEnabled, b.AlertThreshold,
		b.CreatedAt.UTC().Format(timeFormat), b.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

// UpdateBudget overwrites a budget's fields.
func (s *Store) UpdateBudget(ctx context.Context, b *ledger.Budget) error {
	query := `
		UPDATE budgets
		SET category = ?, amount = ?, period = ?, start_date = ?, end_date = ?,
		    is_active = ?, alert_enabled = ?, alert_threshold = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		b.Category, b.Amount.StringFixed(2), string(b.Period),
		b.StartDate.Format(dateFormat), nullDate(b.EndDate),
		b.Active, b.AlertEnabled, b.AlertThreshold,
		time.Now().UTC().Format(timeFormat),
		b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "budget", ID: b.ID}
	}
	return nil
}

// DeleteBudget removes a budget.
func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", budgetID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "budget", ID: budgetID}
	}
	return nil
}

// ListBudgets returns the user's budgets ordered by category.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]ledger.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY category, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []ledger.Budget
	for rows.Next() {
		var (
			b                    ledger.Budget
			amount, period       string
			startDate            string
			endDate              sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &amount, &period,
			&startDate, &endDate, &b.Active, &b.AlertEnabled, &b.AlertThreshold,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		b.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for budget %s: %w", b.ID, err)
		}
		b.Period = ledger.BudgetPeriod(period)
		b.StartDate, err = time.Parse(dateFormat, startDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt start_date for budget %s: %w", b.ID, err)
		}
		if endDate.Valid {
			t, err := time.Parse(dateFormat, endDate.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt end_date for budget %s: %w", b.ID, err)
			}
			b.EndDate = &t
		}
		b.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at for budget %s: %w", b.ID, err)
		}
		b.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt updated_at for budget %s: %w", b.ID, err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"transactions", "budgets", "categories", "accounts"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}
