/*
handlers.go - HTTP API handlers for the account ledger

PURPOSE:
  Exposes accounts, transactions, categories, budgets, and analytics via
  REST. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts               List accounts
    POST   /api/accounts               Create account
    GET    /api/accounts/{id}          Get account details
    PUT    /api/accounts/{id}          Update account descriptive fields
    DELETE /api/accounts/{id}          Delete account and its transactions

  Transactions:
    GET    /api/transactions           List transactions (?account_id=, ?from=, ?to=)
    POST   /api/transactions           Record transaction (moves balances)
    PUT    /api/transactions/{id}      Replace transaction (reverse + reapply)
    DELETE /api/transactions/{id}      Delete transaction (reverse)

  Categories:
    GET    /api/categories             List categories (system + user)

  Budgets:
    GET    /api/budgets                List budgets
    POST   /api/budgets                Create budget
    PUT    /api/budgets/{id}           Update budget
    DELETE /api/budgets/{id}           Delete budget
    GET    /api/budgets/status         Spending vs budget, current windows

  Reporting:
    GET    /api/dashboard              Accounts, recent activity, 6-month chart
    GET    /api/analytics              Full analytics payload (?account_id=)

IDENTITY:
  The owning user comes from the X-User-ID header. Requests without it
  get 401. Authentication mechanics live outside this service.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed input
  - 404: Resource not found
  - 409: Concurrent-update conflict (safe to retry)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finwise/finwise/ledger"
	"github.com/finwise/finwise/reports"
	"github.com/finwise/finwise/store/sqlite"
)

const (
	dashboardMonths = 6
	dashboardRecent = 10
	analyticsMonths = 6
	analyticsDays   = 30
	userIDHeader    = "X-User-ID"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Engine  *ledger.Engine
	Reports *reports.Service
	Log     zerolog.Logger
}

// NewHandler wires a handler around the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Engine:  ledger.NewEngine(store),
		Reports: reports.NewService(store),
		Log:     log,
	}
}

// userID extracts the caller identity, writing a 401 when absent.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header", nil)
		return "", false
	}
	return id, true
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns all accounts of the caller.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	accounts, err := h.Store.ListAccounts(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = accountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates an account with an optional opening balance.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validateAccountRequest(req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := time.Now()
	account := ledger.Account{
		ID:            uuid.NewString(),
		UserID:        userID,
		Provider:      req.Provider,
		Name:          req.AccountName,
		AccountNumber: req.AccountNumber,
		Type:          ledger.AccountType(req.AccountType),
		Balance:       req.Balance,
		Currency:      defaultCurrency(req.Currency),
		Active:        req.IsActive == nil || *req.IsActive,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Store.CreateAccount(r.Context(), &account); err != nil {
		h.internalError(w, r, "create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, accountDTO(account))
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	account, err := h.Store.GetAccount(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountDTO(*account))
}

// UpdateAccount changes descriptive fields. Balance is never updated here:
// balances move only through the ledger engine.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validateAccountRequest(req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	account, err := h.Store.GetAccount(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	account.Provider = req.Provider
	account.Name = req.AccountName
	account.AccountNumber = req.AccountNumber
	account.Type = ledger.AccountType(req.AccountType)
	account.Currency = defaultCurrency(req.Currency)
	if req.IsActive != nil {
		account.Active = *req.IsActive
	}
	account.Notes = req.Notes

	if err := h.Store.UpdateAccount(r.Context(), account); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountDTO(*account))
}

// DeleteAccount removes the account and every transaction referencing it.
// Transfer legs pointing at the deleted account survive as plain rows with
// the destination cleared.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// TRANSACTION ENDPOINTS
// =============================================================================

// ListTransactions returns transactions in a date window, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	filter := accountFilter(r)
	from, to, err := dateWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date parameter", err)
		return
	}

	txs, err := h.Store.ListTransactions(r.Context(), userID, filter, from, to)
	if err != nil {
		h.internalError(w, r, "list transactions", err)
		return
	}

	// Newest first for display.
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[len(txs)-1-i] = transactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransaction records a transaction and applies its balance effects.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	in, err := decodeTransactionInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tx, accounts, err := h.Engine.Record(r.Context(), userID, in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ledgerResultDTO(tx, accounts))
}

// UpdateTransaction replaces a transaction, reversing the old balance
// effects and applying the new ones as one atomic unit.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	in, err := decodeTransactionInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tx, accounts, err := h.Engine.Replace(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResultDTO(tx, accounts))
}

// DeleteTransaction removes a transaction and reverses its balance effects.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	accounts, err := h.Engine.Remove(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResultDTO(nil, accounts))
}

// =============================================================================
// CATEGORY ENDPOINTS
// =============================================================================

// ListCategories returns system categories plus the caller's own.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	categories, err := h.Store.ListCategories(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = categoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BUDGET ENDPOINTS
// =============================================================================

// ListBudgets returns the caller's budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	budgets, err := h.Store.ListBudgets(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "list budgets", err)
		return
	}

	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = budgetDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudget creates a per-category spending limit.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	budget, err := decodeBudget(r, userID, "")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.CreateBudget(r.Context(), budget); err != nil {
		h.internalError(w, r, "create budget", err)
		return
	}
	writeJSON(w, http.StatusCreated, budgetDTO(*budget))
}

// UpdateBudget overwrites a budget.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	budget, err := decodeBudget(r, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.UpdateBudget(r.Context(), budget); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetDTO(*budget))
}

// DeleteBudget removes a budget.
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteBudget(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BudgetStatus reports current-window spending against every active budget.
func (h *Handler) BudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	budgets, err := h.Store.ListBudgets(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, "list budgets", err)
		return
	}
	statuses, err := h.Reports.BudgetStatuses(r.Context(), userID, budgets)
	if err != nil {
		h.internalError(w, r, "compute budget status", err)
		return
	}

	dtos := make([]BudgetStatusDTO, len(statuses))
	for i, st := range statuses {
		dtos[i] = BudgetStatusDTO{
			Budget:      budgetDTO(st.Budget),
			WindowStart: st.WindowStart.Format(dateFormat),
			WindowEnd:   st.WindowEnd.Format(dateFormat),
			Spent:       st.Spent.StringFixed(2),
			PercentUsed: st.PercentUsed,
			AlertFired:  st.AlertFired,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTING ENDPOINTS
// =============================================================================

// Dashboard returns the landing-page payload: accounts, recent activity,
// the trailing six-month chart, and the current month's category split.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	accounts, err := h.Store.ListAccounts(ctx, userID)
	if err != nil {
		h.internalError(w, r, "list accounts", err)
		return
	}
	recent, err := h.Store.ListRecentTransactions(ctx, userID, dashboardRecent)
	if err != nil {
		h.internalError(w, r, "list recent transactions", err)
		return
	}
	monthly, err := h.Reports.MonthlyTotals(ctx, userID, ledger.AllAccounts, dashboardMonths)
	if err != nil {
		h.internalError(w, r, "compute monthly totals", err)
		return
	}
	now := h.Reports.Now()
	byCategory, err := h.Reports.CategoryBreakdown(ctx, userID, ledger.AllAccounts, now.Month(), now.Year())
	if err != nil {
		h.internalError(w, r, "compute category breakdown", err)
		return
	}

	resp := DashboardResponse{
		Accounts:           make([]AccountDTO, len(accounts)),
		RecentTransactions: make([]TransactionDTO, len(recent)),
		MonthlyData:        seriesPoints(monthly, "Jan"),
		CategoryData:       categorySlices(byCategory),
	}
	for i, a := range accounts {
		resp.Accounts[i] = accountDTO(a)
	}
	for i, tx := range recent {
		resp.RecentTransactions[i] = transactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analytics returns the full analytics payload, optionally restricted to
// one account via ?account_id=.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	filter := accountFilter(r)

	accounts, err := h.Store.ListAccounts(ctx, userID)
	if err != nil {
		h.internalError(w, r, "list accounts", err)
		return
	}
	totals, err := h.Reports.GrandTotals(ctx, userID, filter)
	if err != nil {
		h.internalError(w, r, "compute totals", err)
		return
	}
	monthly, err := h.Reports.MonthlyTotals(ctx, userID, filter, analyticsMonths)
	if err != nil {
		h.internalError(w, r, "compute monthly totals", err)
		return
	}
	daily, err := h.Reports.DailyTotals(ctx, userID, filter, analyticsDays)
	if err != nil {
		h.internalError(w, r, "compute daily totals", err)
		return
	}
	now := h.Reports.Now()
	byCategory, err := h.Reports.CategoryBreakdown(ctx, userID, filter, now.Month(), now.Year())
	if err != nil {
		h.internalError(w, r, "compute category breakdown", err)
		return
	}

	// Header figures always span the filtered accounts; the distribution
	// chart always shows every account.
	totalBalance := decimal.Zero
	totalInvestments := decimal.Zero
	for _, a := range accounts {
		if !filter.Matches(a.ID) {
			continue
		}
		totalBalance = totalBalance.Add(a.Balance)
		if a.Type == ledger.AccountInvestment {
			totalInvestments = totalInvestments.Add(a.Balance)
		}
	}

	resp := AnalyticsResponse{
		Accounts:            make([]AccountDTO, len(accounts)),
		SelectedAccountID:   string(filter),
		TotalBalance:        totalBalance.StringFixed(2),
		TotalIncome:         totals.Income.StringFixed(2),
		TotalExpenses:       totals.Expense.StringFixed(2),
		TotalInvestments:    totalInvestments.StringFixed(2),
		MonthlyData:         seriesPoints(monthly, "Jan"),
		DailyData:           seriesPoints(daily, "Jan 02"),
		CategoryData:        categorySlices(byCategory),
		AccountDistribution: distributionSlices(reports.AccountDistribution(accounts)),
	}
	for i, a := range accounts {
		resp.Accounts[i] = accountDTO(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func decodeTransactionInput(r *http.Request) (ledger.TransactionInput, error) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ledger.TransactionInput{}, err
	}

	date := time.Now()
	if req.TransactionDate != "" {
		var err error
		date, err = time.Parse(dateFormat, req.TransactionDate)
		if err != nil {
			return ledger.TransactionInput{}, err
		}
	}

	return ledger.TransactionInput{
		AccountID:          req.AccountID,
		TransferToID:       req.TransferToID,
		Type:               ledger.TransactionType(req.Type),
		Amount:             req.Amount,
		Category:           req.Category,
		Description:        req.Description,
		Date:               date,
		PaymentMethod:      req.PaymentMethod,
		ReferenceNumber:    req.ReferenceNumber,
		Recurring:          req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		Notes:              req.Notes,
	}, nil
}

func decodeBudget(r *http.Request, userID, budgetID string) (*ledger.Budget, error) {
	var req BudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ledger.ValidationError{Fields: []ledger.FieldError{
			{Field: "body", Message: "invalid request body"},
		}}
	}

	var fields []ledger.FieldError
	if req.Category == "" {
		fields = append(fields, ledger.FieldError{Field: "category", Message: "is required"})
	}
	if req.Amount.IsNegative() {
		fields = append(fields, ledger.FieldError{Field: "amount", Message: "must not be negative"})
	}
	period := ledger.BudgetPeriod(req.Period)
	if period == "" {
		period = ledger.BudgetMonthly
	} else if !ledger.BudgetPeriods[period] {
		fields = append(fields, ledger.FieldError{Field: "period", Message: "must be weekly, monthly, or yearly"})
	}

	start := time.Now()
	if req.StartDate != "" {
		var err error
		start, err = time.Parse(dateFormat, req.StartDate)
		if err != nil {
			fields = append(fields, ledger.FieldError{Field: "start_date", Message: "must be YYYY-MM-DD"})
		}
	}
	var end *time.Time
	if req.EndDate != "" {
		t, err := time.Parse(dateFormat, req.EndDate)
		if err != nil {
			fields = append(fields, ledger.FieldError{Field: "end_date", Message: "must be YYYY-MM-DD"})
		}
		end = &t
	}
	threshold := req.AlertThreshold
	if threshold == 0 {
		threshold = 80
	} else if threshold < 0 || threshold > 100 {
		fields = append(fields, ledger.FieldError{Field: "alert_threshold", Message: "must be between 1 and 100"})
	}
	if len(fields) > 0 {
		return nil, &ledger.ValidationError{Fields: fields}
	}
	now := time.Now()
	budget := &ledger.Budget{
		ID:             budgetID,
		UserID:         userID,
		Category:       req.Category,
		Amount:         req.Amount,
		Period:         period,
		StartDate:      start,
		EndDate:        end,
		Active:         req.IsActive == nil || *req.IsActive,
		AlertEnabled:   req.AlertEnabled == nil || *req.AlertEnabled,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}
	return budget, nil
}

func validateAccountRequest(req AccountRequest) error {
	var fields []ledger.FieldError
	if req.AccountName == "" {
		fields = append(fields, ledger.FieldError{Field: "account_name", Message: "is required"})
	}
	if req.Provider == "" {
		fields = append(fields, ledger.FieldError{Field: "provider", Message: "is required"})
	}
	if !ledger.AccountTypes[ledger.AccountType(req.AccountType)] {
		fields = append(fields, ledger.FieldError{Field: "account_type", Message: "is not a valid account type"})
	}
	if len(fields) > 0 {
		return &ledger.ValidationError{Fields: fields}
	}
	return nil
}

func accountFilter(r *http.Request) ledger.AccountFilter {
	if id := r.URL.Query().Get("account_id"); id != "" {
		return ledger.AccountFilter(id)
	}
	return ledger.AllAccounts
}

// dateWindow parses optional from/to query params, defaulting to a trailing
// 90-day window ending today.
func dateWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := to.AddDate(0, 0, -90)

	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse(dateFormat, s); err != nil {
			return from, to, err
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse(dateFormat, s); err != nil {
			return from, to, err
		}
	}
	if s := r.URL.Query().Get("days"); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil || days <= 0 {
			return from, to, errors.New("days must be a positive integer")
		}
		from = to.AddDate(0, 0, -(days - 1))
	}
	return from, to, nil
}

func defaultCurrency(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse{Error: "validation failed", Fields: map[string]string{}}
		for _, f := range verr.Fields {
			resp.Fields[f.Field] = f.Message
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusConflict, "concurrent update, retry the request", err)
	default:
		h.internalError(w, r, "request failed", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.Log.Error().Err(err).Str("path", r.URL.Path).Msg(op)
	writeError(w, http.StatusInternalServerError, op+" failed", err)
}
