package reports_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise/finwise/ledger"
	"github.com/finwise/finwise/ledger/store"
	"github.com/finwise/finwise/reports"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testUser = "user-1"

// Fixed clock: August 15, 2026.
var testNow = time.Date(2026, time.August, 15, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*reports.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := reports.NewService(mem)
	svc.Now = func() time.Time { return testNow }
	return svc, mem
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var txSeq int

func put(t *testing.T, mem *store.Memory, txType ledger.TransactionType, category, amt string, date time.Time) {
	t.Helper()
	txSeq++
	err := mem.InsertTransaction(context.Background(), &ledger.Transaction{
		ID:        fmt.Sprintf("tx-%d", txSeq),
		UserID:    testUser,
		AccountID: "acc-1",
		Type:      txType,
		Amount:    amount(amt),
		Category:  category,
		Date:      date,
		CreatedAt: date,
	})
	require.NoError(t, err)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// MONTHLY TOTALS
// =============================================================================

func TestMonthlyTotals_SixCompleteBuckets(t *testing.T) {
	// GIVEN: Activity in March, June, and August only
	// WHEN: Six months of totals are requested
	// THEN: Exactly six buckets come back, oldest first, with zero-filled
	//       months in between
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxIncome, "Salary", "3000", day(2026, time.March, 5))
	put(t, mem, ledger.TxExpense, "Rent/Mortgage", "1000", day(2026, time.June, 1))
	put(t, mem, ledger.TxExpense, "Groceries", "80", day(2026, time.August, 10))

	totals, err := svc.MonthlyTotals(context.Background(), testUser, ledger.AllAccounts, 6)

	require.NoError(t, err)
	require.Len(t, totals, 6)

	assert.Equal(t, time.March, totals[0].Start.Month())
	assert.True(t, totals[0].Income.Equal(amount("3000")))

	// April and May saw nothing.
	assert.True(t, totals[1].Income.IsZero())
	assert.True(t, totals[1].Expense.IsZero())
	assert.True(t, totals[2].Income.IsZero())
	assert.True(t, totals[2].Expense.IsZero())

	assert.Equal(t, time.June, totals[3].Start.Month())
	assert.True(t, totals[3].Expense.Equal(amount("1000")))

	assert.Equal(t, time.August, totals[5].Start.Month())
	assert.True(t, totals[5].Expense.Equal(amount("80")))
}

func TestMonthlyTotals_TransfersExcluded(t *testing.T) {
	// Transfers move money between accounts; they are neither income nor
	// expense in the charts.
	svc, mem := newTestService(t)
	err := mem.InsertTransaction(context.Background(), &ledger.Transaction{
		ID: "tx-transfer", UserID: testUser, AccountID: "acc-1",
		TransferToID: "acc-2", Type: ledger.TxTransfer,
		Amount: amount("500"), Category: "Transfer",
		Date: day(2026, time.August, 3),
	})
	require.NoError(t, err)

	totals, err := svc.MonthlyTotals(context.Background(), testUser, ledger.AllAccounts, 1)

	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Income.IsZero())
	assert.True(t, totals[0].Expense.IsZero())
}

func TestMonthlyTotals_EmptyStore_StillZeroFilled(t *testing.T) {
	svc, _ := newTestService(t)

	totals, err := svc.MonthlyTotals(context.Background(), testUser, ledger.AllAccounts, 6)

	require.NoError(t, err)
	require.Len(t, totals, 6)
	for _, pt := range totals {
		assert.True(t, pt.Income.IsZero())
		assert.True(t, pt.Expense.IsZero())
	}
}

// =============================================================================
// DAILY TOTALS
// =============================================================================

func TestDailyTotals_TrailingWindow(t *testing.T) {
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Dining Out", "42", day(2026, time.August, 14))
	put(t, mem, ledger.TxExpense, "Groceries", "18", day(2026, time.August, 15))
	// Outside the 30-day window.
	put(t, mem, ledger.TxExpense, "Travel", "900", day(2026, time.July, 1))

	totals, err := svc.DailyTotals(context.Background(), testUser, ledger.AllAccounts, 30)

	require.NoError(t, err)
	require.Len(t, totals, 30)
	assert.Equal(t, day(2026, time.July, 17), totals[0].Start)
	assert.Equal(t, day(2026, time.August, 15), totals[29].Start)
	assert.True(t, totals[28].Expense.Equal(amount("42")))
	assert.True(t, totals[29].Expense.Equal(amount("18")))

	var sum decimal.Decimal
	for _, pt := range totals {
		sum = sum.Add(pt.Expense)
	}
	assert.True(t, sum.Equal(amount("60")))
}

// =============================================================================
// CATEGORY BREAKDOWN
// =============================================================================

func TestCategoryBreakdown_ExpensesOnly_SortedByTotal(t *testing.T) {
	// GIVEN: August expenses of 80 on Groceries and 1000 on Rent, plus income
	// WHEN: The August breakdown is computed
	// THEN: {Rent/Mortgage: 1000, Groceries: 80}, income ignored
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Groceries", "50", day(2026, time.August, 2))
	put(t, mem, ledger.TxExpense, "Groceries", "30", day(2026, time.August, 9))
	put(t, mem, ledger.TxExpense, "Rent/Mortgage", "1000", day(2026, time.August, 1))
	put(t, mem, ledger.TxIncome, "Salary", "5000", day(2026, time.August, 1))
	// Previous month: excluded.
	put(t, mem, ledger.TxExpense, "Groceries", "75", day(2026, time.July, 20))

	breakdown, err := svc.CategoryBreakdown(context.Background(), testUser, ledger.AllAccounts, time.August, 2026)

	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Rent/Mortgage", breakdown[0].Category)
	assert.True(t, breakdown[0].Total.Equal(amount("1000")))
	assert.Equal(t, "Groceries", breakdown[1].Category)
	assert.True(t, breakdown[1].Total.Equal(amount("80")))
}

func TestCategoryBreakdown_TiesBreakByName(t *testing.T) {
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Utilities", "20", day(2026, time.August, 3))
	put(t, mem, ledger.TxExpense, "Fitness", "20", day(2026, time.August, 4))

	breakdown, err := svc.CategoryBreakdown(context.Background(), testUser, ledger.AllAccounts, time.August, 2026)

	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Fitness", breakdown[0].Category)
	assert.Equal(t, "Utilities", breakdown[1].Category)
}

// =============================================================================
// ACCOUNT DISTRIBUTION AND GRAND TOTALS
// =============================================================================

func TestAccountDistribution_LabelsAndBalances(t *testing.T) {
	slices := reports.AccountDistribution([]ledger.Account{
		{Provider: "Chase", Name: "Checking", Balance: amount("1200.50")},
		{Provider: "Vanguard", Name: "Brokerage", Balance: amount("8000")},
	})

	require.Len(t, slices, 2)
	assert.Equal(t, "Chase - Checking", slices[0].Label)
	assert.True(t, slices[0].Balance.Equal(amount("1200.50")))
	assert.Equal(t, "Vanguard - Brokerage", slices[1].Label)
}

func TestGrandTotals_SumsAllTime(t *testing.T) {
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxIncome, "Salary", "3000", day(2020, time.January, 15))
	put(t, mem, ledger.TxIncome, "Freelance", "500", day(2026, time.August, 1))
	put(t, mem, ledger.TxExpense, "Groceries", "250", day(2023, time.June, 10))

	totals, err := svc.GrandTotals(context.Background(), testUser, ledger.AllAccounts)

	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(amount("3500")))
	assert.True(t, totals.Expense.Equal(amount("250")))
}

// =============================================================================
// BUDGET STATUS
// =============================================================================

func monthlyBudget(category, amt string, threshold int) ledger.Budget {
	return ledger.Budget{
		ID:             "budget-" + category,
		UserID:         testUser,
		Category:       category,
		Amount:         amount(amt),
		Period:         ledger.BudgetMonthly,
		StartDate:      day(2026, time.January, 1),
		Active:         true,
		AlertEnabled:   true,
		AlertThreshold: threshold,
	}
}

func TestBudgetStatuses_SpendInCurrentWindow(t *testing.T) {
	// GIVEN: A 400/month Groceries budget with an 80% alert threshold
	// WHEN: 350 was spent on Groceries this month
	// THEN: 87% used and the alert fires
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Groceries", "200", day(2026, time.August, 3))
	put(t, mem, ledger.TxExpense, "Groceries", "150", day(2026, time.August, 12))
	// Different category and previous month: both excluded.
	put(t, mem, ledger.TxExpense, "Dining Out", "90", day(2026, time.August, 5))
	put(t, mem, ledger.TxExpense, "Groceries", "500", day(2026, time.July, 28))

	statuses, err := svc.BudgetStatuses(context.Background(), testUser,
		[]ledger.Budget{monthlyBudget("Groceries", "400", 80)})

	require.NoError(t, err)
	require.Len(t, statuses, 1)
	st := statuses[0]
	assert.True(t, st.Spent.Equal(amount("350")))
	assert.Equal(t, 87, st.PercentUsed)
	assert.True(t, st.AlertFired)
	assert.Equal(t, day(2026, time.August, 1), st.WindowStart)
	assert.Equal(t, day(2026, time.August, 31), st.WindowEnd)
}

func TestBudgetStatuses_UnderThreshold_NoAlert(t *testing.T) {
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Groceries", "100", day(2026, time.August, 3))

	statuses, err := svc.BudgetStatuses(context.Background(), testUser,
		[]ledger.Budget{monthlyBudget("Groceries", "400", 80)})

	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 25, statuses[0].PercentUsed)
	assert.False(t, statuses[0].AlertFired)
}

func TestBudgetStatuses_SkipsInactiveAndExpired(t *testing.T) {
	svc, _ := newTestService(t)

	inactive := monthlyBudget("Groceries", "400", 80)
	inactive.Active = false

	expired := monthlyBudget("Travel", "400", 80)
	endDate := day(2026, time.May, 31)
	expired.EndDate = &endDate

	statuses, err := svc.BudgetStatuses(context.Background(), testUser,
		[]ledger.Budget{inactive, expired})

	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestBudgetStatuses_ZeroAmount_NoDivision(t *testing.T) {
	svc, mem := newTestService(t)
	put(t, mem, ledger.TxExpense, "Groceries", "100", day(2026, time.August, 3))

	statuses, err := svc.BudgetStatuses(context.Background(), testUser,
		[]ledger.Budget{monthlyBudget("Groceries", "0", 80)})

	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 0, statuses[0].PercentUsed)
	assert.False(t, statuses[0].AlertFired)
}
