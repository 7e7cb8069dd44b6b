package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pocket/internal/core"
	"pocket/internal/kv"
	"pocket/internal/log"
	"pocket/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
	kvs := kv.NewMemoryStore()
	categories := store.NewCategoryStore(kvs, nil, logger)
	transactions := store.NewTransactionStore(kvs, nil, logger)

	ctx := context.Background()
	categories.Load(ctx)
	transactions.Load(ctx)

	return NewServer(":0", categories, transactions, kvs, Options{})
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestReadyEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ready" {
		t.Errorf("expected status ready, got %v", body["status"])
	}
}

func TestListCategoriesIncludesDefaults(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Categories []core.Category `json:"categories"`
	}
	decodeBody(t, rec, &body)
	if len(body.Categories) != 8 {
		t.Fatalf("expected 8 default categories, got %d", len(body.Categories))
	}
}

func TestCreateTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Groceries","amount":"42.50","type":"expense","categoryId":"1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Transaction core.Transaction `json:"transaction"`
	}
	decodeBody(t, rec, &body)
	if body.Transaction.ID == "" {
		t.Error("expected transaction to have an id")
	}
	if body.Transaction.Amount != 4250 {
		t.Errorf("expected amount 4250 cents, got %d", body.Transaction.Amount)
	}
	if body.Transaction.Date == "" {
		t.Error("expected server-assigned date")
	}

	if got := s.transactions.Balance().Total; got != -4250 {
		t.Errorf("expected balance -4250, got %d", got)
	}

	for _, c := range s.categories.Categories() {
		if c.ID == "1" {
			if c.Amount != 4250 {
				t.Errorf("expected category amount 4250, got %d", c.Amount)
			}
			if c.Count != 1 {
				t.Errorf("expected category count 1, got %d", c.Count)
			}
		}
	}
}

func TestCreateTransactionFoldsIncomeIntoCategory(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Paycheck","amount":"1000.00","type":"income","categoryId":"8"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, c := range s.categories.Categories() {
		if c.ID == "8" && c.Count != 1 {
			t.Errorf("expected income to update category totals, got count %d", c.Count)
		}
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad amount", `{"title":"x","amount":"abc","type":"expense","categoryId":"1"}`},
		{"zero amount", `{"title":"x","amount":"0","type":"expense","categoryId":"1"}`},
		{"empty title", `{"title":"","amount":"5.00","type":"expense","categoryId":"1"}`},
		{"missing category", `{"title":"x","amount":"5.00","type":"expense"}`},
		{"bad type", `{"title":"x","amount":"5.00","type":"transfer","categoryId":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := doRequest(t, s, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(s.transactions.Transactions()) != 0 {
				t.Error("expected no transaction to be recorded")
			}
		})
	}
}

func TestCreateTransactionBadJSON(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodDelete, "/api/transactions", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("expected Allow header GET, POST, got %q", allow)
	}
}

func TestSetAndGetBalance(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/balance", `{"amount":"250.00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/balance", "")
	var b core.Balance
	decodeBody(t, rec, &b)
	if b.Total != 25000 {
		t.Errorf("expected balance 25000 cents, got %d", b.Total)
	}
	if !b.IsInitialized {
		t.Error("expected balance to be initialized")
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/balance", `{"amount":"100.00"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var before struct {
		Balance core.Balance `json:"balance"`
	}
	decodeBody(t, rec, &before)
	if before.Balance.Total != 10000 {
		t.Fatalf("expected balance 10000, got %d", before.Balance.Total)
	}

	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Coffee","amount":"30.00","type":"expense","categoryId":"1"}`)

	rec = doRequest(t, s, http.MethodGet, "/api/dashboard", "")
	var after struct {
		Balance core.Balance       `json:"balance"`
		Recent  []core.Transaction `json:"recent"`
	}
	decodeBody(t, rec, &after)
	if after.Balance.Total != 7000 {
		t.Errorf("expected balance 7000 after expense, got %d", after.Balance.Total)
	}
	if len(after.Recent) != 1 || after.Recent[0].Title != "Coffee" {
		t.Errorf("expected recent list with the new transaction, got %+v", after.Recent)
	}
}

func TestAnalyticsBreakdown(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Dinner","amount":"60.00","type":"expense","categoryId":"1"}`)
	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Bus","amount":"20.00","type":"expense","categoryId":"5"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var b struct {
		Total core.Money `json:"total"`
	}
	decodeBody(t, rec, &b)
	if b.Total != 8000 {
		t.Errorf("expected breakdown total 8000 cents, got %d", b.Total)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Snack","amount":"3.50","type":"expense","categoryId":"1"}`)

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "transactions_created_total 1") {
		t.Errorf("expected transaction counter in metrics output, got:\n%s", rec.Body.String())
	}
}
