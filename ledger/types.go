/*
Package ledger implements the account ledger: the invariant-preserving core
that keeps account balances consistent with the set of transactions that
reference them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A financial account with a derived balance
  - Transaction: A dated money movement (income, expense, transfer)
  - TransactionInput: Caller-supplied fields for create/replace
  - AccountFilter: "all" or a specific account id, used by reporting

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for money - never float64
  2. Locality: Balance changes flow through one code path (delta.go),
     not ad-hoc field mutation scattered across operations
  3. Tenancy: Every read and write is scoped by the owning user id

SEE ALSO:
  - delta.go: Signed-delta computation (apply/reverse)
  - engine.go: The three ledger operations
  - store.go: Persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT
// =============================================================================

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
	AccountOther      AccountType = "other"
)

// AccountTypes is the set of valid account types.
var AccountTypes = map[AccountType]bool{
	AccountChecking:   true,
	AccountSavings:    true,
	AccountCredit:     true,
	AccountInvestment: true,
	AccountCash:       true,
	AccountOther:      true,
}

// Account is a financial account owned by a user.
//
// INVARIANT: Balance equals OpeningBalance plus the sum of signed deltas of
// every live transaction referencing it. Only the engine (engine.go) mutates
// Balance; everything else treats it as read-only. OpeningBalance is fixed
// at creation, which makes the invariant auditable (see audit.go).
//
// Version supports optimistic concurrency: every balance write increments it,
// and a write against a stale version fails with ErrConflict.
type Account struct {
	ID             string
	UserID         string
	Provider       string
	Name           string
	AccountNumber  string
	Type           AccountType
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Currency       string
	Active         bool
	Notes          string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Label returns the display label used in account distribution reports.
func (a Account) Label() string {
	return a.Provider + " - " + a.Name
}

// =============================================================================
// TRANSACTION
// =============================================================================

// TransactionType determines the sign of a transaction's balance effect.
type TransactionType string

const (
	TxIncome   TransactionType = "income"   // +amount on the account
	TxExpense  TransactionType = "expense"  // -amount on the account
	TxTransfer TransactionType = "transfer" // -amount on source, +amount on destination
)

// TransactionTypes is the set of valid transaction types.
var TransactionTypes = map[TransactionType]bool{
	TxIncome:   true,
	TxExpense:  true,
	TxTransfer: true,
}

// RecurringFrequencies is the set of valid recurrence labels.
var RecurringFrequencies = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"yearly":  true,
}

// Transaction is a single money movement. Amount is always non-negative;
// direction comes from Type (see delta.go).
type Transaction struct {
	ID                 string
	UserID             string
	AccountID          string
	TransferToID       string // destination account for transfers, else empty
	Type               TransactionType
	Amount             decimal.Decimal
	Category           string
	Description        string
	Date               time.Time // calendar date, time component ignored
	PaymentMethod      string
	ReferenceNumber    string
	Recurring          bool
	RecurringFrequency string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TransactionInput carries the caller-supplied fields for create and replace.
// Validation lives in validate.go, not here.
type TransactionInput struct {
	AccountID          string
	TransferToID       string
	Type               TransactionType
	Amount             decimal.Decimal
	Category           string
	Description        string
	Date               time.Time
	PaymentMethod      string
	ReferenceNumber    string
	Recurring          bool
	RecurringFrequency string
	Notes              string
}

// =============================================================================
// ACCOUNT FILTER
// =============================================================================

// AccountFilter restricts a query to one account, or none ("all").
type AccountFilter string

// AllAccounts matches every account of the user.
const AllAccounts AccountFilter = "all"

// Matches reports whether the given account id passes the filter.
func (f AccountFilter) Matches(accountID string) bool {
	return f == "" || f == AllAccounts || string(f) == accountID
}

// AccountID returns the concrete account id, or "" for the all-filter.
func (f AccountFilter) AccountID() string {
	if f == "" || f == AllAccounts {
		return ""
	}
	return string(f)
}
