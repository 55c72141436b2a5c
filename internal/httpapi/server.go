// Package httpapi exposes the ledger over a JSON API: accounts and their
// derived balances, transactions with duplicate advisories, transfers and
// credit payments, debts, interest reports, recurring payments, and the
// offline queue's controls.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bolsillo/internal/debts"
	"bolsillo/internal/ledger"
	applog "bolsillo/internal/log"
	"bolsillo/internal/netstatus"
	"bolsillo/internal/notify"
	"bolsillo/internal/queue"
	"bolsillo/internal/recurring"
	"bolsillo/internal/store"
)

type Server struct {
	http.Server

	store       store.Store
	coordinator *ledger.Coordinator
	debts       *debts.Service
	gateway     *queue.Gateway
	queue       *queue.Queue
	monitor     *netstatus.Monitor
	sink        notify.Sink
	recurring   *recurring.Processor

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps carries everything the API serves. Sink and Monitor may be nil for
// minimal deployments.
type Deps struct {
	Store       store.Store
	Coordinator *ledger.Coordinator
	Debts       *debts.Service
	Gateway     *queue.Gateway
	Queue       *queue.Queue
	Monitor     *netstatus.Monitor
	Sink        notify.Sink
	Recurring   *recurring.Processor
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       deps.Store,
		coordinator: deps.Coordinator,
		debts:       deps.Debts,
		gateway:     deps.Gateway,
		queue:       deps.Queue,
		monitor:     deps.Monitor,
		sink:        deps.Sink,
		recurring:   deps.Recurring,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.guard(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.guard(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.guard(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.guard(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.guard(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.guard(s.handleAccountBalance))

	mux.HandleFunc("GET /api/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.guard(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/transfers", s.guard(s.handleTransfer))
	mux.HandleFunc("POST /api/credit-payments", s.guard(s.handleCreditPayment))

	mux.HandleFunc("GET /api/debts", s.guard(s.handleListDebts))
	mux.HandleFunc("POST /api/debts", s.guard(s.handleCreateDebt))
	mux.HandleFunc("GET /api/debts/{id}", s.guard(s.handleGetDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.guard(s.handleDeleteDebt))
	mux.HandleFunc("POST /api/debts/{id}/modify", s.guard(s.handleModifyDebt))

	mux.HandleFunc("GET /api/reports/interest", s.guard(s.handleInterestPortfolio))
	mux.HandleFunc("GET /api/reports/interest/{id}", s.guard(s.handleInterestCard))
	mux.HandleFunc("GET /api/reports/overview", s.guard(s.handleMonthOverview))
	mux.HandleFunc("GET /api/reports/networth", s.guard(s.handleNetWorth))

	mux.HandleFunc("GET /api/recurring", s.guard(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.guard(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.guard(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.guard(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.guard(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/recurring/run", s.guard(s.handleRunRecurring))

	mux.HandleFunc("GET /api/queue/stats", s.guard(s.handleQueueStats))
	mux.HandleFunc("POST /api/queue/drain", s.guard(s.handleQueueDrain))
	mux.HandleFunc("POST /api/queue/retry", s.guard(s.handleQueueRetry))

	return s
}

// guard adds rate limiting, request ids, and request logging around a
// handler.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := applog.FromContext(r.Context()).
			With(applog.FieldRequestID, requestID, applog.FieldClientIP, clientIP)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.RequestLogger(logger)(ctx, r, rw.statusCode, time.Since(start).Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListAccounts(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
