package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the recurrence window of a budget.
type BudgetPeriod string

const (
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetYearly  BudgetPeriod = "yearly"
)

// BudgetPeriods is the set of valid budget periods.
var BudgetPeriods = map[BudgetPeriod]bool{
	BudgetWeekly:  true,
	BudgetMonthly: true,
	BudgetYearly:  true,
}

// Budget is a per-category spending limit. Budgets are an independent
// aggregate over expense transactions; the engine never touches them.
type Budget struct {
	ID             string
	UserID         string
	Category       string
	Amount         decimal.Decimal
	Period         BudgetPeriod
	StartDate      time.Time
	EndDate        *time.Time // nil = ongoing
	Active         bool
	AlertEnabled   bool
	AlertThreshold int // percent of Amount spent before alerting
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CoversDate reports whether the budget is in force on the given date.
func (b Budget) CoversDate(date time.Time) bool {
	if date.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !date.After(*b.EndDate)
}

// CurrentWindow returns the budget window containing now: the calendar week
// (Monday-based), month, or year, clipped to start no earlier than StartDate.
func (b Budget) CurrentWindow(now time.Time) (time.Time, time.Time) {
	var start, end time.Time
	switch b.Period {
	case BudgetWeekly:
		weekday := (int(now.Weekday()) + 6) % 7 // Monday = 0
		start = time.Date(now.Year(), now.Month(), now.Day()-weekday, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	case BudgetYearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	default: // monthly
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}
	if start.Before(b.StartDate) {
		start = b.StartDate
	}
	return start, end
}
