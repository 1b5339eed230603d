package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine"
)

var json = jsoniter.ConfigFastest

// CirculationEngine is the narrow surface the handlers need. Satisfied
// by sqlengine.Engine.
type CirculationEngine interface {
	CreateBorrower(ctx context.Context, input circulation.NewBorrower) (int64, error)
	RemoveBorrower(ctx context.Context, cardID int64) error
	SearchBooks(ctx context.Context, query string) ([]circulation.BookSummary, error)
	Checkout(ctx context.Context, isbn string, cardID int64) (int64, error)
	FindOpenLoans(ctx context.Context, filter circulation.LoanFilter) ([]circulation.OpenLoan, error)
	CheckinAll(ctx context.Context, loanIDs []int64) error
	RefreshFines(ctx context.Context, options ...sqlengine.RefreshOption) ([]circulation.FineChange, error)
	ListOutstandingFines(ctx context.Context) ([]circulation.OutstandingFine, error)
	PayFines(ctx context.Context, cardID int64) error
}

// APIHandlers exposes HTTP handlers for the circulation API.
type APIHandlers struct {
	logger   *slog.Logger
	engine   CirculationEngine
	sessions *SessionStore
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, engine CirculationEngine, sessions *SessionStore) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		engine:   engine,
		sessions: sessions,
	}
}

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createBorrowerRequest struct {
	SSN     string `json:"ssn"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

type createBorrowerResponse struct {
	CardID int64 `json:"card_id"`
}

type checkoutRequest struct {
	ISBN   string `json:"isbn"`
	CardID int64  `json:"card_id"`
}

type checkoutResponse struct {
	LoanID int64 `json:"loan_id"`
}

type checkinRequest struct {
	LoanIDs []int64 `json:"loan_ids"`
}

type bookResult struct {
	ISBN    string `json:"isbn"`
	Title   string `json:"title"`
	Authors string `json:"authors,omitempty"`
	Status  string `json:"status"`
}

type openLoanResult struct {
	LoanID       int64  `json:"loan_id"`
	ISBN         string `json:"isbn"`
	Title        string `json:"title"`
	CardID       int64  `json:"card_id"`
	BorrowerName string `json:"borrower_name"`
	DateOut      string `json:"date_out"`
	DueDate      string `json:"due_date"`
}

type fineChangeResult struct {
	LoanID  int64           `json:"loan_id"`
	Outcome string          `json:"outcome"`
	Amount  decimal.Decimal `json:"amount"`
}

type outstandingFineResult struct {
	CardID int64           `json:"card_id"`
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
}

type payFinesRequest struct {
	CardID int64 `json:"card_id"`
}

func (h *APIHandlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, expiresAt, ok := h.sessions.Login(req.User, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *APIHandlers) handleCreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req createBorrowerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var cardID int64
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		cardID, callErr = h.engine.CreateBorrower(r.Context(), circulation.NewBorrower{
			SSN:     req.SSN,
			Name:    req.Name,
			Address: req.Address,
			Phone:   req.Phone,
		})

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, createBorrowerResponse{CardID: cardID})
}

func (h *APIHandlers) handleRemoveBorrower(w http.ResponseWriter, r *http.Request) {
	cardID, err := strconv.ParseInt(r.PathValue("card_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "card id must be an integer")
		return
	}

	removeErr := h.withRetry(r.Context(), func() error {
		return h.engine.RemoveBorrower(r.Context(), cardID)
	})
	if removeErr != nil {
		h.writeEngineError(w, removeErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	var summaries []circulation.BookSummary
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		summaries, callErr = h.engine.SearchBooks(r.Context(), r.URL.Query().Get("q"))

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	results := make([]bookResult, 0, len(summaries))
	for _, summary := range summaries {
		results = append(results, bookResult{
			ISBN:    summary.ISBN,
			Title:   summary.Title,
			Authors: summary.Authors,
			Status:  summary.Status,
		})
	}

	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var loanID int64
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		loanID, callErr = h.engine.Checkout(r.Context(), req.ISBN, req.CardID)

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{LoanID: loanID})
}

func (h *APIHandlers) handleOpenLoans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := circulation.LoanFilter{
		ISBN:         query.Get("isbn"),
		BorrowerName: query.Get("borrower"),
	}
	if raw := query.Get("card_id"); raw != "" {
		cardID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "card id must be an integer")
			return
		}
		filter.CardID = cardID
	}

	var loans []circulation.OpenLoan
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		loans, callErr = h.engine.FindOpenLoans(r.Context(), filter)

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	results := make([]openLoanResult, 0, len(loans))
	for _, loan := range loans {
		results = append(results, openLoanResult{
			LoanID:       loan.LoanID,
			ISBN:         loan.ISBN,
			Title:        loan.Title,
			CardID:       loan.CardID,
			BorrowerName: loan.BorrowerName,
			DateOut:      loan.DateOut.Format(time.DateOnly),
			DueDate:      loan.DueDate.Format(time.DateOnly),
		})
	}

	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandlers) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.LoanIDs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one loan id is required")
		return
	}

	err := h.withRetry(r.Context(), func() error {
		return h.engine.CheckinAll(r.Context(), req.LoanIDs)
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) handleRefreshFines(w http.ResponseWriter, r *http.Request) {
	var changes []circulation.FineChange
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		changes, callErr = h.engine.RefreshFines(r.Context())

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	results := make([]fineChangeResult, 0, len(changes))
	for _, change := range changes {
		results = append(results, fineChangeResult{
			LoanID:  change.LoanID,
			Outcome: change.Outcome.String(),
			Amount:  change.Amount,
		})
	}

	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandlers) handleOutstandingFines(w http.ResponseWriter, r *http.Request) {
	var outstanding []circulation.OutstandingFine
	err := h.withRetry(r.Context(), func() error {
		var callErr error
		outstanding, callErr = h.engine.ListOutstandingFines(r.Context())

		return callErr
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	results := make([]outstandingFineResult, 0, len(outstanding))
	for _, fine := range outstanding {
		results = append(results, outstandingFineResult{
			CardID: fine.CardID,
			Name:   fine.Name,
			Total:  fine.Total,
		})
	}

	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandlers) handlePayFines(w http.ResponseWriter, r *http.Request) {
	var req payFinesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.withRetry(r.Context(), func() error {
		return h.engine.PayFines(r.Context(), req.CardID)
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// withRetry reruns the call on retryable transaction conflicts.
func (h *APIHandlers) withRetry(ctx context.Context, fn func() error) error {
	return circulation.RetryWithBackoff(ctx, func(context.Context) error {
		return fn()
	})
}

// writeEngineError maps the engine's error kinds onto HTTP statuses.
// Retryable conflicts surface as 503 so clients know to come back.
func (h *APIHandlers) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, circulation.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, circulation.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, circulation.ErrDuplicate), errors.Is(err, circulation.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, circulation.ErrPolicy):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, circulation.ErrTxConflict):
		status = http.StatusServiceUnavailable
	case errors.Is(err, circulation.ErrStorage):
		h.logger.Error("storage failure", "error", err.Error())
	}

	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}

	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
