package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type apiResponse struct {
	Status  string                     `json:"status"`
	Token   string                     `json:"token"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo := storage.NewMemoryRepository()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	log.SetDefault(logger)
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)

	cfg := &config.Config{Port: "0", RequestsPerMinute: 10000}
	s := NewServer(cfg, Deps{
		Auth:        services.NewAuthService(repo, tokens, logger),
		Categories:  services.NewCategoryService(repo),
		Expenses:    services.NewExpenseService(repo, nil, logger),
		Goals:       services.NewGoalService(repo, nil, logger),
		Preferences: services.NewPreferencesService(repo),
		Tokens:      tokens,
		Repo:        repo,
		Logger:      logger,
	})
	t.Cleanup(func() {
		s.caches.Stop()
		s.limiter.Stop()
	})
	return s
}

func doRequest(t *testing.T, s *Server, method, path, token, body string) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)

	var resp apiResponse
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr.Code, resp
}

func registerUser(t *testing.T, s *Server) string {
	t.Helper()
	code, resp := doRequest(t, s, http.MethodPost, "/api/auth/register", "",
		`{"name":"Test User","email":"test@example.com","password":"password123"}`)
	if code != http.StatusCreated {
		t.Fatalf("register: status %d, resp %+v", code, resp)
	}
	if resp.Token == "" {
		t.Fatal("register: no token")
	}
	return resp.Token
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	code, resp := doRequest(t, s, http.MethodGet, "/api/auth/me", token, "")
	if code != http.StatusOK || resp.Token != token {
		t.Fatalf("me: status %d, resp %+v", code, resp)
	}

	code, resp = doRequest(t, s, http.MethodPost, "/api/auth/login", "",
		`{"email":"test@example.com","password":"password123"}`)
	if code != http.StatusOK || resp.Token == "" {
		t.Fatalf("login: status %d, resp %+v", code, resp)
	}

	code, resp = doRequest(t, s, http.MethodPost, "/api/auth/login", "",
		`{"email":"test@example.com","password":"wrong"}`)
	if code != http.StatusUnauthorized || resp.Status != "error" {
		t.Fatalf("bad login: status %d, resp %+v", code, resp)
	}

	// Duplicate registration.
	code, _ = doRequest(t, s, http.MethodPost, "/api/auth/register", "",
		`{"name":"Other","email":"test@example.com","password":"password123"}`)
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", code)
	}

	// Short password.
	code, _ = doRequest(t, s, http.MethodPost, "/api/auth/register", "",
		`{"name":"Other","email":"other@example.com","password":"short"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("short password: status %d", code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, _ := doRequest(t, s, http.MethodGet, "/api/expenses", "", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", code)
	}
	code, _ = doRequest(t, s, http.MethodGet, "/api/expenses", "not-a-token", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	code, resp := doRequest(t, s, http.MethodPost, "/api/categories", token,
		`{"name":"Food","icon":"food","color":"#ff0000"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d, resp %+v", code, resp)
	}
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Data["category"], &created); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	// Duplicate name conflicts.
	code, _ = doRequest(t, s, http.MethodPost, "/api/categories", token, `{"name":"Food"}`)
	if code != http.StatusConflict {
		t.Fatalf("duplicate: status %d", code)
	}

	// Blank name fails validation.
	code, _ = doRequest(t, s, http.MethodPost, "/api/categories", token, `{"name":"  "}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: status %d", code)
	}

	code, resp = doRequest(t, s, http.MethodPut, "/api/categories/"+created.ID, token,
		`{"name":"Groceries"}`)
	if code != http.StatusOK {
		t.Fatalf("update: status %d, resp %+v", code, resp)
	}

	code, _ = doRequest(t, s, http.MethodPut, "/api/categories/missing", token, `{"name":"X"}`)
	if code != http.StatusNotFound {
		t.Fatalf("update missing: status %d", code)
	}

	code, _ = doRequest(t, s, http.MethodDelete, "/api/categories/"+created.ID, token, "")
	if code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
}

func TestExpenseEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	code, resp := doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":12.50,"date":"2024-03-10","notes":"lunch"}`)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d, resp %+v", code, resp)
	}
	var created struct {
		ID       string `json:"id"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(resp.Data["expense"], &created); err != nil {
		t.Fatalf("decode expense: %v", err)
	}
	if created.Currency != "USD" {
		t.Fatalf("currency should default, got %q", created.Currency)
	}

	code, _ = doRequest(t, s, http.MethodPost, "/api/expenses", token, `{not json`)
	if code != http.StatusBadRequest {
		t.Fatalf("bad body: status %d", code)
	}

	// Recurring without a frequency fails validation.
	code, _ = doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":5,"date":"2024-03-10","isRecurring":true}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("recurring without frequency: status %d", code)
	}

	code, _ = doRequest(t, s, http.MethodPut, "/api/expenses/missing", token,
		`{"amount":5,"date":"2024-03-10"}`)
	if code != http.StatusNotFound {
		t.Fatalf("update missing: status %d", code)
	}

	code, _ = doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, token, "")
	if code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
}

func TestSavingsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	code, resp := doRequest(t, s, http.MethodPost, "/api/savings", token,
		`{"name":"Vacation","targetAmount":1000,"currentAmount":999}`)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d, resp %+v", code, resp)
	}
	var goal struct {
		ID            string  `json:"id"`
		CurrentAmount float64 `json:"currentAmount"`
	}
	if err := json.Unmarshal(resp.Data["savingsGoal"], &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if goal.CurrentAmount != 0 {
		t.Fatalf("progress should start at zero, got %v", goal.CurrentAmount)
	}

	code, resp = doRequest(t, s, http.MethodPatch, "/api/savings/"+goal.ID+"/progress", token,
		`{"amount":250,"mode":"incremental"}`)
	if code != http.StatusOK {
		t.Fatalf("progress: status %d, resp %+v", code, resp)
	}
	if err := json.Unmarshal(resp.Data["savingsGoal"], &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if goal.CurrentAmount != 250 {
		t.Fatalf("currentAmount = %v, want 250", goal.CurrentAmount)
	}

	code, _ = doRequest(t, s, http.MethodPatch, "/api/savings/"+goal.ID+"/progress", token,
		`{"amount":10,"mode":"sideways"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("bad mode: status %d", code)
	}

	code, _ = doRequest(t, s, http.MethodPatch, "/api/savings/missing/progress", token,
		`{"amount":10,"mode":"absolute"}`)
	if code != http.StatusNotFound {
		t.Fatalf("missing goal: status %d", code)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	code, resp := doRequest(t, s, http.MethodPut, "/api/preferences", token,
		`{"theme":"dark"}`)
	if code != http.StatusOK {
		t.Fatalf("update: status %d, resp %+v", code, resp)
	}

	code, resp = doRequest(t, s, http.MethodGet, "/api/preferences", token, "")
	if code != http.StatusOK {
		t.Fatalf("get: status %d", code)
	}
	var prefs struct {
		Theme           string `json:"theme"`
		DefaultCurrency string `json:"defaultCurrency"`
		Notifications   struct {
			BudgetAlerts bool `json:"budgetAlerts"`
		} `json:"notifications"`
	}
	if err := json.Unmarshal(resp.Data["preferences"], &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	// Partial merge keeps everything the request omitted.
	if prefs.Theme != "dark" || prefs.DefaultCurrency != "USD" || !prefs.Notifications.BudgetAlerts {
		t.Fatalf("preferences = %+v", prefs)
	}

	code, _ = doRequest(t, s, http.MethodPut, "/api/preferences", token, `{"theme":"neon"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("bad theme: status %d", code)
	}
}

func TestMonthlyReport(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s)

	doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":10,"date":"2024-03-05"}`)
	doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":20,"date":"2024-03-20"}`)
	doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":5,"date":"2024-02-15"}`)

	var overview struct {
		Total float64 `json:"total"`
		Trend struct {
			PreviousMonthTotal float64 `json:"previousMonthTotal"`
		} `json:"trend"`
	}
	code, resp := doRequest(t, s, http.MethodGet, "/api/reports/monthly?year=2024&month=3", token, "")
	if code != http.StatusOK {
		t.Fatalf("report: status %d, resp %+v", code, resp)
	}
	if err := json.Unmarshal(resp.Data["report"], &overview); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if overview.Total != 30 || overview.Trend.PreviousMonthTotal != 5 {
		t.Fatalf("overview = %+v", overview)
	}

	// A new expense invalidates the cached month.
	doRequest(t, s, http.MethodPost, "/api/expenses", token,
		`{"amount":15,"date":"2024-03-25"}`)
	code, resp = doRequest(t, s, http.MethodGet, "/api/reports/monthly?year=2024&month=3", token, "")
	if code != http.StatusOK {
		t.Fatalf("report: status %d", code)
	}
	if err := json.Unmarshal(resp.Data["report"], &overview); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if overview.Total != 45 {
		t.Fatalf("total after invalidation = %v, want 45", overview.Total)
	}
}

func TestHealthProbes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		s.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
	}
}
