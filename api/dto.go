/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  - Money fields are fixed two-place decimal strings ("1234.50")
  - Chart values (analytics series) are plain numbers
  - Dates are "YYYY-MM-DD"; timestamps are RFC 3339

VALIDATION:
  Structural validation (parse errors) happens in handlers; business
  validation lives in the ledger package.
*/
package api

import (
	"time"

	"github.com/finwise/finwise/ledger"
	"github.com/finwise/finwise/reports"
	"github.com/shopspring/decimal"
)

const dateFormat = "2006-01-02"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountType   string `json:"account_type"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	IsActive      bool   `json:"is_active"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// AccountRequest is the request to create or update an account.
// Balance is the initial balance and is ignored on update: balances move
// only through transactions.
type AccountRequest struct {
	Provider      string          `json:"provider"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	IsActive      *bool           `json:"is_active"`
	Notes         string          `json:"notes"`
}

func accountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:            a.ID,
		Provider:      a.Provider,
		AccountName:   a.Name,
		AccountNumber: a.AccountNumber,
		AccountType:   string(a.Type),
		Balance:       a.Balance.StringFixed(2),
		Currency:      a.Currency,
		IsActive:      a.Active,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO represents a transaction in API responses.
type TransactionDTO struct {
	ID                 string `json:"id"`
	AccountID          string `json:"account_id"`
	TransferToID       string `json:"transfer_to_account_id,omitempty"`
	Type               string `json:"type"`
	Amount             string `json:"amount"`
	Category           string `json:"category"`
	Description        string `json:"description,omitempty"`
	TransactionDate    string `json:"transaction_date"`
	PaymentMethod      string `json:"payment_method,omitempty"`
	ReferenceNumber    string `json:"reference_number,omitempty"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurringFrequency string `json:"recurring_frequency,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// TransactionRequest is the request body for create and update.
type TransactionRequest struct {
	AccountID          string          `json:"account_id"`
	TransferToID       string          `json:"transfer_to_account_id"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	Category           string          `json:"category"`
	Description        string          `json:"description"`
	TransactionDate    string          `json:"transaction_date"`
	PaymentMethod      string          `json:"payment_method"`
	ReferenceNumber    string          `json:"reference_number"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency string          `json:"recurring_frequency"`
	Notes              string          `json:"notes"`
}

// LedgerResultDTO is the response to a ledger mutation: the affected
// transaction (absent for deletes) plus every account whose balance moved.
type LedgerResultDTO struct {
	Transaction *TransactionDTO `json:"transaction,omitempty"`
	Accounts    []AccountDTO    `json:"accounts"`
}

func transactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                 tx.ID,
		AccountID:          tx.AccountID,
		TransferToID:       tx.TransferToID,
		Type:               string(tx.Type),
		Amount:             tx.Amount.StringFixed(2),
		Category:           tx.Category,
		Description:        tx.Description,
		TransactionDate:    tx.Date.Format(dateFormat),
		PaymentMethod:      tx.PaymentMethod,
		ReferenceNumber:    tx.ReferenceNumber,
		IsRecurring:        tx.Recurring,
		RecurringFrequency: tx.RecurringFrequency,
		Notes:              tx.Notes,
		CreatedAt:          tx.CreatedAt.Format(time.RFC3339),
	}
}

func ledgerResultDTO(tx *ledger.Transaction, accounts []ledger.Account) LedgerResultDTO {
	out := LedgerResultDTO{Accounts: make([]AccountDTO, len(accounts))}
	if tx != nil {
		dto := transactionDTO(*tx)
		out.Transaction = &dto
	}
	for i, a := range accounts {
		out.Accounts[i] = accountDTO(a)
	}
	return out
}

// =============================================================================
// CATEGORIES AND BUDGETS
// =============================================================================

// CategoryDTO represents a category in API responses.
type CategoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	IsSystem  bool   `json:"is_system"`
	SortOrder int    `json:"sort_order"`
}

// BudgetDTO represents a budget in API responses.
type BudgetDTO struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Amount         string `json:"amount"`
	Period         string `json:"period"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	IsActive       bool   `json:"is_active"`
	AlertEnabled   bool   `json:"alert_enabled"`
	AlertThreshold int    `json:"alert_threshold"`
}

// BudgetRequest is the request body to create or update a budget.
type BudgetRequest struct {
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	IsActive       *bool           `json:"is_active"`
	AlertEnabled   *bool           `json:"alert_enabled"`
	AlertThreshold int             `json:"alert_threshold"`
}

// BudgetStatusDTO reports spending against one budget's current window.
type BudgetStatusDTO struct {
	Budget      BudgetDTO `json:"budget"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`
	Spent       string    `json:"spent"`
	PercentUsed int       `json:"percent_used"`
	AlertFired  bool      `json:"alert_fired"`
}

func categoryDTO(c ledger.Category) CategoryDTO {
	return CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Icon:      c.Icon,
		Color:     c.Color,
		IsSystem:  c.System,
		SortOrder: c.SortOrder,
	}
}

func budgetDTO(b ledger.Budget) BudgetDTO {
	dto := BudgetDTO{
		ID:             b.ID,
		Category:       b.Category,
		Amount:         b.Amount.StringFixed(2),
		Period:         string(b.Period),
		StartDate:      b.StartDate.Format(dateFormat),
		IsActive:       b.Active,
		AlertEnabled:   b.AlertEnabled,
		AlertThreshold: b.AlertThreshold,
	}
	if b.EndDate != nil {
		dto.EndDate = b.EndDate.Format(dateFormat)
	}
	return dto
}

// =============================================================================
// ANALYTICS AND DASHBOARD
// =============================================================================

// SeriesPointDTO is one time bucket of an income/expense series.
type SeriesPointDTO struct {
	Label   string  `json:"label"` // "Jan" for months, "Jan 05" for days
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// SliceDTO is one labeled value of a pie-style breakdown.
type SliceDTO struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AnalyticsResponse mirrors the analytics page payload.
type AnalyticsResponse struct {
	Accounts            []AccountDTO     `json:"accounts"`
	SelectedAccountID   string           `json:"selected_account_id"`
	TotalBalance        string           `json:"total_balance"`
	TotalIncome         string           `json:"total_income"`
	TotalExpenses       string           `json:"total_expenses"`
	TotalInvestments    string           `json:"total_investments"`
	MonthlyData         []SeriesPointDTO `json:"monthly_data"`
	DailyData           []SeriesPointDTO `json:"daily_data"`
	CategoryData        []SliceDTO       `json:"category_data"`
	AccountDistribution []SliceDTO       `json:"account_distribution"`
}

// DashboardResponse mirrors the dashboard page payload.
type DashboardResponse struct {
	Accounts           []AccountDTO     `json:"accounts"`
	RecentTransactions []TransactionDTO `json:"recent_transactions"`
	MonthlyData        []SeriesPointDTO `json:"monthly_data"`
	CategoryData       []SliceDTO       `json:"category_data"`
}

func seriesPoints(totals []reports.PeriodTotal, label string) []SeriesPointDTO {
	out := make([]SeriesPointDTO, len(totals))
	for i, t := range totals {
		income, _ := t.Income.Float64()
		expense, _ := t.Expense.Float64()
		out[i] = SeriesPointDTO{
			Label:   t.Start.Format(label),
			Income:  income,
			Expense: expense,
		}
	}
	return out
}

func categorySlices(totals []reports.CategoryTotal) []SliceDTO {
	out := make([]SliceDTO, len(totals))
	for i, t := range totals {
		value, _ := t.Total.Float64()
		out[i] = SliceDTO{Name: t.Category, Value: value}
	}
	return out
}

func distributionSlices(slices []reports.DistributionSlice) []SliceDTO {
	out := make([]SliceDTO, len(slices))
	for i, s := range slices {
		value, _ := s.Balance.Float64()
		out[i] = SliceDTO{Name: s.Label, Value: value}
	}
	return out
}
