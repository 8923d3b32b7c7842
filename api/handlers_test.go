package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwise/finwise/api"
	"github.com/finwise/finwise/ledger"
	"github.com/finwise/finwise/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testUser = "user-1"

func newTestRouter(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SeedCategories(context.Background(), ledger.DefaultCategories()))

	h := api.NewHandler(store, zerolog.Nop())
	return api.NewRouter(h), store
}

// do performs a request as testUser and decodes the JSON response into out.
func do(t *testing.T, router http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", testUser)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func createAccount(t *testing.T, router http.Handler, name, balance string) string {
	t.Helper()
	var created struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	}
	rec := do(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"provider":     "Chase",
		"account_name": name,
		"account_type": "checking",
		"balance":      balance,
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return created.ID
}

type ledgerResult struct {
	Transaction *struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
	} `json:"transaction"`
	Accounts []struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	} `json:"accounts"`
}

func recordExpense(t *testing.T, router http.Handler, accountID, amt string) ledgerResult {
	t.Helper()
	var res ledgerResult
	rec := do(t, router, http.MethodPost, "/api/transactions", map[string]any{
		"account_id":       accountID,
		"type":             "expense",
		"amount":           amt,
		"category":         "Groceries",
		"transaction_date": "2026-08-10",
	}, &res)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return res
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestMissingUserHeader_Unauthorized(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsersAreIsolated(t *testing.T) {
	// A second user must not see the first user's accounts.
	router, _ := newTestRouter(t)
	createAccount(t, router, "Checking", "100")

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("X-User-ID", "user-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	assert.Empty(t, accounts)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAccount_ReturnsFixedPointBalance(t *testing.T) {
	router, _ := newTestRouter(t)

	var created struct {
		Balance  string `json:"balance"`
		Currency string `json:"currency"`
		IsActive bool   `json:"is_active"`
	}
	rec := do(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"provider":     "Chase",
		"account_name": "Checking",
		"account_type": "checking",
		"balance":      "1000.5",
	}, &created)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "1000.50", created.Balance)
	assert.Equal(t, "USD", created.Currency)
	assert.True(t, created.IsActive)
}

func TestCreateAccount_InvalidType_BadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"provider":     "Chase",
		"account_name": "Checking",
		"account_type": "offshore",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "account_type")
}

func TestUpdateAccount_Missing_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPut, "/api/accounts/acc-ghost", map[string]any{
		"provider":     "Chase",
		"account_name": "Checking",
		"account_type": "checking",
	}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAccount_RemovesItsTransactions(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "100")
	recordExpense(t, router, accID, "10")

	rec := do(t, router, http.MethodDelete, "/api/accounts/"+accID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var txs []json.RawMessage
	rec = do(t, router, http.MethodGet, "/api/transactions", nil, &txs)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, txs)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestCreateTransaction_MovesBalance(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "1000")

	res := recordExpense(t, router, accID, "300")

	require.NotNil(t, res.Transaction)
	assert.Equal(t, "300.00", res.Transaction.Amount)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "700.00", res.Accounts[0].Balance)
}

func TestCreateTransaction_Transfer_MovesBothAccounts(t *testing.T) {
	router, _ := newTestRouter(t)
	srcID := createAccount(t, router, "Checking", "500")
	dstID := createAccount(t, router, "Savings", "0")

	var res ledgerResult
	rec := do(t, router, http.MethodPost, "/api/transactions", map[string]any{
		"account_id":             srcID,
		"transfer_to_account_id": dstID,
		"type":                   "transfer",
		"amount":                 "200",
		"category":               "Transfer",
		"transaction_date":       "2026-08-10",
	}, &res)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, res.Accounts, 2)
	balances := map[string]string{}
	for _, a := range res.Accounts {
		balances[a.ID] = a.Balance
	}
	assert.Equal(t, "300.00", balances[srcID])
	assert.Equal(t, "200.00", balances[dstID])
}

func TestCreateTransaction_ValidationFailure_FieldDetail(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "100")

	rec := do(t, router, http.MethodPost, "/api/transactions", map[string]any{
		"account_id":       accID,
		"type":             "transfer",
		"amount":           "50",
		"category":         "Transfer",
		"transaction_date": "2026-08-10",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "transfer_to_account_id")
}

func TestUpdateTransaction_ReappliesEffect(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "1000")
	res := recordExpense(t, router, accID, "300")

	var updated ledgerResult
	rec := do(t, router, http.MethodPut, "/api/transactions/"+res.Transaction.ID, map[string]any{
		"account_id":       accID,
		"type":             "expense",
		"amount":           "500",
		"category":         "Rent/Mortgage",
		"transaction_date": "2026-08-10",
	}, &updated)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, updated.Accounts, 1)
	assert.Equal(t, "500.00", updated.Accounts[0].Balance)
}

func TestDeleteTransaction_RestoresBalance(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "1000")
	res := recordExpense(t, router, accID, "300")

	var deleted ledgerResult
	rec := do(t, router, http.MethodDelete, "/api/transactions/"+res.Transaction.ID, nil, &deleted)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, deleted.Transaction)
	require.Len(t, deleted.Accounts, 1)
	assert.Equal(t, "1000.00", deleted.Accounts[0].Balance)
}

func TestDeleteTransaction_Missing_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodDelete, "/api/transactions/tx-ghost", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// CATEGORIES AND BUDGETS
// =============================================================================

func TestListCategories_ReturnsSeededCatalog(t *testing.T) {
	router, _ := newTestRouter(t)

	var categories []struct {
		Name     string `json:"name"`
		IsSystem bool   `json:"is_system"`
	}
	rec := do(t, router, http.MethodGet, "/api/categories", nil, &categories)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, categories)
	names := make(map[string]bool)
	for _, c := range categories {
		names[c.Name] = true
		assert.True(t, c.IsSystem)
	}
	assert.True(t, names["Groceries"])
	assert.True(t, names["Salary"])
}

func TestBudgetLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	var created struct {
		ID     string `json:"id"`
		Amount string `json:"amount"`
		Period string `json:"period"`
	}
	rec := do(t, router, http.MethodPost, "/api/budgets", map[string]any{
		"category":   "Groceries",
		"amount":     "400",
		"start_date": "2026-01-01",
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "400.00", created.Amount)
	assert.Equal(t, "monthly", created.Period)

	rec = do(t, router, http.MethodPut, "/api/budgets/"+created.ID, map[string]any{
		"category":   "Groceries",
		"amount":     "450",
		"period":     "monthly",
		"start_date": "2026-01-01",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodDelete, "/api/budgets/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var budgets []json.RawMessage
	rec = do(t, router, http.MethodGet, "/api/budgets", nil, &budgets)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, budgets)
}

func TestCreateBudget_ThresholdOutOfRange_Rejected(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, threshold := range []int{150, -5} {
		rec := do(t, router, http.MethodPost, "/api/budgets", map[string]any{
			"category":        "Groceries",
			"amount":          "400",
			"start_date":      "2026-01-01",
			"alert_threshold": threshold,
		}, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var resp struct {
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Fields, "alert_threshold")
	}
}

// =============================================================================
// REPORTING
// =============================================================================

func TestAnalytics_PayloadShape(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "1000")
	recordExpense(t, router, accID, "80")

	var resp struct {
		TotalBalance  string `json:"total_balance"`
		TotalExpenses string `json:"total_expenses"`
		MonthlyData   []struct {
			Income  float64 `json:"income"`
			Expense float64 `json:"expense"`
		} `json:"monthly_data"`
		DailyData           []json.RawMessage `json:"daily_data"`
		AccountDistribution []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"account_distribution"`
	}
	rec := do(t, router, http.MethodGet, "/api/analytics", nil, &resp)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "920.00", resp.TotalBalance)
	assert.Equal(t, "80.00", resp.TotalExpenses)
	assert.Len(t, resp.MonthlyData, 6)
	assert.Len(t, resp.DailyData, 30)
	require.Len(t, resp.AccountDistribution, 1)
	assert.Equal(t, "Chase - Checking", resp.AccountDistribution[0].Name)
}

func TestDashboard_RecentTransactionsCapped(t *testing.T) {
	router, _ := newTestRouter(t)
	accID := createAccount(t, router, "Checking", "10000")
	for i := 0; i < 12; i++ {
		recordExpense(t, router, accID, fmt.Sprintf("%d", i+1))
	}

	var resp struct {
		RecentTransactions []json.RawMessage `json:"recent_transactions"`
		MonthlyData        []json.RawMessage `json:"monthly_data"`
	}
	rec := do(t, router, http.MethodGet, "/api/dashboard", nil, &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.RecentTransactions, 10)
	assert.Len(t, resp.MonthlyData, 6)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
