package ledger

import "time"

// CategoryType restricts which transaction types a category applies to.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// Category is a transaction classification label. System categories are
// shared by all users; user categories belong to one. The ledger itself
// treats categories as free-form strings - this catalog only drives UI
// pickers and budget matching.
type Category struct {
	ID        string
	UserID    string // empty = system-wide
	Name      string
	Type      CategoryType
	Icon      string
	Color     string
	System    bool
	SortOrder int
	CreatedAt time.Time
}

// AppliesTo reports whether the category can label the given transaction type.
func (c Category) AppliesTo(t TransactionType) bool {
	switch c.Type {
	case CategoryBoth:
		return t == TxIncome || t == TxExpense
	case CategoryIncome:
		return t == TxIncome
	case CategoryExpense:
		return t == TxExpense
	}
	return false
}

// DefaultCategories returns the seed set of system categories.
func DefaultCategories() []Category {
	income := []string{
		"Salary", "Freelance", "Investment", "Rental Income",
		"Business", "Gift", "Other Income",
	}
	expense := []string{
		"Groceries", "Dining Out", "Transportation", "Utilities",
		"Rent/Mortgage", "Healthcare", "Insurance", "Entertainment",
		"Shopping", "Education", "Travel", "Subscriptions",
		"Personal Care", "Fitness", "Gifts & Donations", "Taxes",
		"Other Expense",
	}

	var categories []Category
	for i, name := range income {
		categories = append(categories, Category{
			Name:      name,
			Type:      CategoryIncome,
			Color:     "#10b981",
			System:    true,
			SortOrder: i + 1,
		})
	}
	for i, name := range expense {
		categories = append(categories, Category{
			Name:      name,
			Type:      CategoryExpense,
			Color:     "#ef4444",
			System:    true,
			SortOrder: i + 10,
		})
	}
	return categories
}
