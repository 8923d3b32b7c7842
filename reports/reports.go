/*
Package reports computes read-only, bucketed views over the transaction
store for dashboards and analytics.

PURPOSE:
  Time- and category-bucketed rollups: monthly income/expense totals, daily
  trends, per-category spending, account distribution, and budget status.
  Reporting never mutates state; it reads committed rows only, so every
  figure is consistent with the ledger engine's balance writes.

BUCKETING RULES:
  - MonthlyTotals returns exactly one entry per calendar month, oldest to
    newest, including the current month. Empty months yield zero sums.
  - DailyTotals does the same per calendar day over a trailing window
    ending today.
  - CategoryBreakdown groups expense amounts by the raw stored category
    string; no canonicalization.

DATES:
  Transaction dates are calendar dates (midnight). All windows here are
  date-inclusive on both ends.
*/
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finwise/finwise/ledger"
)

// Service computes reports over a transaction reader.
type Service struct {
	Transactions ledger.TransactionReader

	// Now is injectable for tests.
	Now func() time.Time
}

// NewService creates a reporting service with the real clock.
func NewService(reader ledger.TransactionReader) *Service {
	return &Service{Transactions: reader, Now: time.Now}
}

// =============================================================================
// RESULT SHAPES
// =============================================================================

// PeriodTotal is one time bucket of income and expense sums.
type PeriodTotal struct {
	Start   time.Time // first day of the bucket
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// CategoryTotal is one category's expense sum for a window.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// DistributionSlice is one account's share of total holdings.
type DistributionSlice struct {
	Label   string
	Balance decimal.Decimal
}

// Totals are the all-time sums shown in analytics headers.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// BudgetStatus reports spending against one budget's current window.
type BudgetStatus struct {
	Budget      ledger.Budget
	WindowStart time.Time
	WindowEnd   time.Time
	Spent       decimal.Decimal
	PercentUsed int  // 0 when the budget amount is zero
	AlertFired  bool // spent crossed the alert threshold
}

// =============================================================================
// TIME-BUCKETED TOTALS
// =============================================================================

// MonthlyTotals sums income and expense per calendar month for the last
// monthCount months including the current one, oldest first.
func (s *Service) MonthlyTotals(ctx context.Context, userID string, filter ledger.AccountFilter, monthCount int) ([]PeriodTotal, error) {
	now := s.Now()
	first := monthStart(now).AddDate(0, -(monthCount - 1), 0)
	last := monthStart(now).AddDate(0, 1, -1) // last day of current month

	txs, err := s.Transactions.ListTransactions(ctx, userID, filter, first, last)
	if err != nil {
		return nil, err
	}

	totals := make([]PeriodTotal, monthCount)
	for i := range totals {
		totals[i] = zeroTotal(first.AddDate(0, i, 0))
	}
	for _, tx := range txs {
		idx := monthsBetween(first, monthStart(tx.Date))
		if idx < 0 || idx >= monthCount {
			continue
		}
		totals[idx] = addToTotal(totals[idx], tx)
	}
	return totals, nil
}

// DailyTotals sums income and expense per calendar day for the trailing
// dayCount days ending today, oldest first.
func (s *Service) DailyTotals(ctx context.Context, userID string, filter ledger.AccountFilter, dayCount int) ([]PeriodTotal, error) {
	now := s.Now()
	last := dayStart(now)
	first := last.AddDate(0, 0, -(dayCount - 1))

	txs, err := s.Transactions.ListTransactions(ctx, userID, filter, first, last)
	if err != nil {
		return nil, err
	}

	totals := make([]PeriodTotal, dayCount)
	for i := range totals {
		totals[i] = zeroTotal(first.AddDate(0, 0, i))
	}
	for _, tx := range txs {
		idx := int(dayStart(tx.Date).Sub(first).Hours() / 24)
		if idx < 0 || idx >= dayCount {
			continue
		}
		totals[idx] = addToTotal(totals[idx], tx)
	}
	return totals, nil
}

// =============================================================================
// CATEGORY AND ACCOUNT ROLLUPS
// =============================================================================

// CategoryBreakdown sums expense amounts per category for the given calendar
// month. Categories with no expenses in the month are absent. The result is
// ordered by descending total for stable output.
func (s *Service) CategoryBreakdown(ctx context.Context, userID string, filter ledger.AccountFilter, month time.Month, year int) ([]CategoryTotal, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	txs, err := s.Transactions.ListTransactions(ctx, userID, filter, first, last)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != ledger.TxExpense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for category, total := range sums {
		out = append(out, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// AccountDistribution maps accounts to labeled balance slices. Pure.
func AccountDistribution(accounts []ledger.Account) []DistributionSlice {
	out := make([]DistributionSlice, len(accounts))
	for i, a := range accounts {
		out[i] = DistributionSlice{Label: a.Label(), Balance: a.Balance}
	}
	return out
}

// GrandTotals sums all-time income and expense for the user under the
// account filter.
func (s *Service) GrandTotals(ctx context.Context, userID string, filter ledger.AccountFilter) (Totals, error) {
	txs, err := s.Transactions.ListTransactions(ctx, userID, filter, time.Time{}, dayStart(s.Now()).AddDate(1000, 0, 0))
	if err != nil {
		return Totals{}, err
	}
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case ledger.TxIncome:
			t.Income = t.Income.Add(tx.Amount)
		case ledger.TxExpense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t, nil
}

// =============================================================================
// BUDGETS
// =============================================================================

// BudgetStatuses computes spending against each active budget's current
// window. Inactive budgets and budgets not covering today are skipped.
func (s *Service) BudgetStatuses(ctx context.Context, userID string, budgets []ledger.Budget) ([]BudgetStatus, error) {
	now := s.Now()

	var out []BudgetStatus
	for _, b := range budgets {
		if !b.Active || !b.CoversDate(dayStart(now)) {
			continue
		}
		start, end := b.CurrentWindow(now)

		txs, err := s.Transactions.ListTransactions(ctx, userID, ledger.AllAccounts, dayStart(start), dayStart(end))
		if err != nil {
			return nil, err
		}

		spent := decimal.Zero
		for _, tx := range txs {
			if tx.Type == ledger.TxExpense && tx.Category == b.Category {
				spent = spent.Add(tx.Amount)
			}
		}

		status := BudgetStatus{
			Budget:      b,
			WindowStart: dayStart(start),
			WindowEnd:   dayStart(end),
			Spent:       spent,
		}
		if b.Amount.IsPositive() {
			pct := spent.Div(b.Amount).Mul(decimal.NewFromInt(100))
			status.PercentUsed = int(pct.IntPart())
			status.AlertFired = b.AlertEnabled && status.PercentUsed >= b.AlertThreshold
		}
		out = append(out, status)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func zeroTotal(start time.Time) PeriodTotal {
	return PeriodTotal{Start: start, Income: decimal.Zero, Expense: decimal.Zero}
}

func addToTotal(t PeriodTotal, tx ledger.Transaction) PeriodTotal {
	switch tx.Type {
	case ledger.TxIncome:
		t.Income = t.Income.Add(tx.Amount)
	case ledger.TxExpense:
		t.Expense = t.Expense.Add(tx.Amount)
	}
	return t
}
