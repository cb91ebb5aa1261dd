package handlers

import (
	"net/http"
	"strconv"
	"time"

	"expense-ledger/internal/ledger"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

type recordResponse struct {
	ID         int64     `json:"id"`
	Category   string    `json:"category"`
	Amount     string    `json:"amount"`
	OccurredOn string    `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}

type dailyBalanceResponse struct {
	Date string `json:"date"`
	Net  string `json:"net"`
}

type monthlyTotalResponse struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type dashboardResponse struct {
	Username       string                 `json:"username"`
	Records        []recordResponse       `json:"records"`
	DailyBalances  []dailyBalanceResponse `json:"daily_balances"`
	RunningBalance string                 `json:"running_balance"`
	MonthlyTotals  []monthlyTotalResponse `json:"monthly_totals"`
}

func toRecordResponse(r models.ExpenseRecord) recordResponse {
	return recordResponse{
		ID:         r.ID,
		Category:   string(r.Type),
		Amount:     r.Amount.StringFixed(2),
		OccurredOn: r.OccurredOn.Format(models.DateLayout),
		CreatedAt:  r.CreatedAt,
	}
}

func toRecordResponses(records []models.ExpenseRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

// Dashboard renders the records of the current user with their derived
// balances.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	dash, err := h.ledger.Dashboard(r.Context(), p.UserID)
	if err != nil {
		h.writeError(w, r, "dashboard", err)
		return
	}

	resp := dashboardResponse{
		Username:       p.Username,
		Records:        toRecordResponses(dash.Records),
		DailyBalances:  make([]dailyBalanceResponse, 0, len(dash.DailyBalances)),
		RunningBalance: dash.RunningBalance.StringFixed(2),
		MonthlyTotals:  make([]monthlyTotalResponse, 0, len(dash.MonthlyTotals)),
	}
	for _, b := range dash.DailyBalances {
		resp.DailyBalances = append(resp.DailyBalances, dailyBalanceResponse{
			Date: b.Date.Format(models.DateLayout),
			Net:  b.Net.StringFixed(2),
		})
	}
	for _, m := range dash.MonthlyTotals {
		resp.MonthlyTotals = append(resp.MonthlyTotals, monthlyTotalResponse{
			Month:   m.Month,
			Income:  m.Income.StringFixed(2),
			Expense: m.Expense.StringFixed(2),
			Net:     m.Net.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListExpenses returns the records of the current user.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	records, err := h.ledger.ListRecords(r.Context(), p.UserID)
	if err != nil {
		h.writeError(w, r, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

// CreateExpense handles the creation of a new record.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	typ, amount, date, err := parseRecordForm(r)
	if err != nil {
		h.writeError(w, r, "create expense", err)
		return
	}

	rec, err := h.ledger.AddRecord(r.Context(), p.UserID, typ, amount, date)
	if err != nil {
		h.writeError(w, r, "create expense", err)
		return
	}

	h.logger.InfoContext(r.Context(), "expense created", "user_id", p.UserID, "id", rec.ID, "category", rec.Type)
	writeJSON(w, http.StatusCreated, toRecordResponse(*rec))
}

// DeleteExpense removes a record owned by the current user.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, "delete expense", &models.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return
	}

	if err := h.ledger.DeleteRecord(r.Context(), p.UserID, id); err != nil {
		if ledger.IsClientError(err) {
			h.logger.WarnContext(r.Context(), "expense delete refused", "user_id", p.UserID, "id", id, "error", err)
		}
		h.writeError(w, r, "delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SuggestBalance returns the net already booked for the requested date.
func (h *Handlers) SuggestBalance(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	date, err := models.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, "suggest balance", err)
		return
	}

	balance, err := h.ledger.SuggestBalance(r.Context(), p.UserID, date)
	if err != nil {
		h.writeError(w, r, "suggest balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.StringFixed(2)})
}

func parseRecordForm(r *http.Request) (typ models.RecordType, amount decimal.Decimal, date time.Time, err error) {
	if err := r.ParseForm(); err != nil {
		return "", amount, time.Time{}, &models.ValidationError{Field: "form", Reason: "is malformed"}
	}

	category := r.FormValue("category")
	if category == "" {
		category = r.FormValue("type")
	}
	if typ, err = models.ParseRecordType(category); err != nil {
		return "", amount, time.Time{}, err
	}
	if amount, err = models.ParseAmount(r.FormValue("amount")); err != nil {
		return "", amount, time.Time{}, err
	}
	if date, err = models.ParseDate(r.FormValue("date")); err != nil {
		return "", amount, time.Time{}, err
	}
	return typ, amount, date, nil
}
