package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"pocket/internal/core"
	"pocket/internal/kv"
	"pocket/internal/report"
)

type transactionRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	CategoryID string `json:"categoryId"`
	Note       string `json:"note"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type balanceRequest struct {
	Amount string `json:"amount"`
}

// handleDashboard returns the overview: balance, totals, shares and the
// recent transactions. Memoized on the transaction store version.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	key := s.overviewKey()
	if o, ok := s.overviewCache.Get(key); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, o)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	o := report.BuildOverview(
		s.transactions.Balance(),
		s.transactions.Transactions(),
		s.transactions.RecentTransactions(s.recentLimit),
	)
	s.overviewCache.Set(key, o)
	writeJSON(w, http.StatusOK, o)
}

// handleTransactions lists transactions (date descending) on GET and
// records a new one on POST.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": s.transactions.RecentTransactions(-1),
		"loading":      s.transactions.Loading(),
	})
}

// createTransaction runs the two caller-sequenced store mutations: append
// the transaction, then fold its amount into the category's running
// totals. The second step failing leaves the stores diverged; the
// response reports the failure but the transaction stands.
func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	in := core.TransactionInput{
		Title:      req.Title,
		Amount:     amount,
		Type:       core.TransactionType(req.Type),
		Date:       time.Now().Format(core.DateLayout),
		CategoryID: req.CategoryID,
		Note:       req.Note,
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	txn, err := s.transactions.AddTransaction(ctx, in)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to add transaction", "error", err)
		writeError(w, http.StatusBadGateway, "could not persist transaction")
		return
	}

	if err := s.categories.UpdateCategoryAmount(ctx, in.CategoryID, in.Amount); err != nil {
		slog.ErrorContext(ctx, "Transaction saved but category update failed",
			"transaction_id", txn.ID, "category_id", in.CategoryID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       "transaction saved but category totals were not updated",
			"transaction": txn,
		})
		return
	}

	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": txn})
}

// handleCategories lists categories on GET and creates one on POST.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"categories": s.categories.Categories(),
			"loading":    s.categories.Loading(),
		})
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in := core.CategoryInput{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	cat, err := s.categories.AddCategory(ctx, in)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to add category", "error", err)
		writeError(w, http.StatusBadGateway, "could not persist category")
		return
	}

	atomic.AddInt64(&s.appMetrics.categoriesCreated, 1)
	writeJSON(w, http.StatusCreated, map[string]any{"category": cat})
}

// handleAnalytics returns the per-category breakdown. Memoized on the
// category store version.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	key := s.breakdownKey()
	if b, ok := s.breakdownCache.Get(key); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, b)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	b := report.BuildBreakdown(s.categories.Categories())
	s.breakdownCache.Set(key, b)
	writeJSON(w, http.StatusOK, b)
}

// handleBalance returns the balance on GET and sets the starting amount
// on POST. The one-time gate on isInitialized is the client's policy;
// repeat POSTs overwrite the total.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.transactions.Balance())
	case http.MethodPost:
		s.setInitialBalance(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) setInitialBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	ctx := r.Context()
	if err := s.transactions.SetInitialBalance(ctx, amount); err != nil {
		slog.ErrorContext(ctx, "Failed to set initial balance", "error", err)
		writeError(w, http.StatusBadGateway, "could not persist balance")
		return
	}
	writeJSON(w, http.StatusOK, s.transactions.Balance())
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if _, _, err := s.kv.Get(r.Context(), kv.KeyBalance); err != nil {
		checks["persistence"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["persistence"] = "ok"
	}

	if s.categories.Loading() || s.transactions.Loading() {
		checks["stores"] = "loading"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["stores"] = "ok"
	}

	checks["cache"] = map[string]any{
		"overview_entries":  s.overviewCache.Size(),
		"breakdown_entries": s.breakdownCache.Size(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.trace.GetMetrics()
	fmt.Fprintf(w, "http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "transactions_created_total %d\n", atomic.LoadInt64(&s.appMetrics.transactionsCreated))
	fmt.Fprintf(w, "categories_created_total %d\n", atomic.LoadInt64(&s.appMetrics.categoriesCreated))
	fmt.Fprintf(w, "view_cache_hits_total %d\n", atomic.LoadInt64(&s.appMetrics.cacheHits))
	fmt.Fprintf(w, "view_cache_misses_total %d\n", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	fmt.Fprintf(w, "view_cache_entries %d\n", s.overviewCache.Size()+s.breakdownCache.Size())
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
