package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NewRouter wires the HTTP routes of the circulation API. Everything
// except login and the health probe sits behind bearer auth.
func NewRouter(logger *slog.Logger, handlers *APIHandlers, sessions *SessionStore) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handlers.handleHealth)
	mux.HandleFunc("POST /login", handlers.handleLogin)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /borrowers", handlers.handleCreateBorrower)
	protected.HandleFunc("DELETE /borrowers/{card_id}", handlers.handleRemoveBorrower)
	protected.HandleFunc("GET /books/search", handlers.handleSearchBooks)
	protected.HandleFunc("POST /loans/checkout", handlers.handleCheckout)
	protected.HandleFunc("GET /loans/open", handlers.handleOpenLoans)
	protected.HandleFunc("POST /loans/checkin", handlers.handleCheckin)
	protected.HandleFunc("GET /fines/outstanding", handlers.handleOutstandingFines)
	protected.HandleFunc("POST /fines/refresh", handlers.handleRefreshFines)
	protected.HandleFunc("POST /fines/pay", handlers.handlePayFines)

	mux.Handle("/", authMiddleware(sessions, protected))

	return requestIDMiddleware(loggingMiddleware(logger, mux))
}

// requestIDMiddleware tags every request with a uuid, echoed in the
// response and available to the logging middleware.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-Id", requestID)
		r.Header.Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Header.Get("X-Request-Id"),
		)
	})
}

func authMiddleware(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || !sessions.Valid(token) {
			writeError(w, http.StatusUnauthorized, "missing or expired session token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
