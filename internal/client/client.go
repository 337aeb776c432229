// Package client is the Go consumer of the REST API: a thin typed HTTP
// client plus a synced wrapper that keeps a local store.Store mirroring
// the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// APIError carries a non-2xx response. Unwrap maps the well-known status
// codes onto the core sentinels so callers can errors.Is against them.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusConflict:
		return core.ErrConflict
	case http.StatusUnauthorized:
		return services.ErrInvalidCredentials
	}
	return nil
}

// Client talks to one API server on behalf of one account. The token is
// set by Register or Login and sent on every subsequent request.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a previously issued token, skipping the login round
// trip.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Token   string          `json:"token"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do runs one request and decodes the envelope. A non-success envelope
// becomes an APIError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*apiEnvelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if resp.StatusCode >= 400 || env.Status != "success" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

// get runs a GET and unmarshals the envelope data into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}

// send runs a mutating request and unmarshals the envelope data into out
// when out is non-nil.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	env, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

type userData struct {
	User core.User `json:"user"`
}

// Register creates an account and installs the issued token.
func (c *Client) Register(ctx context.Context, name, email, password string) (core.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if err != nil {
		return core.User{}, err
	}
	var data userData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return core.User{}, err
	}
	c.SetToken(env.Token)
	return data.User, nil
}

// Login authenticates and installs the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (core.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	if err != nil {
		return core.User{}, err
	}
	var data userData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return core.User{}, err
	}
	c.SetToken(env.Token)
	return data.User, nil
}

// Me returns the account behind the installed token.
func (c *Client) Me(ctx context.Context) (core.User, error) {
	var data userData
	if err := c.get(ctx, "/api/auth/me", &data); err != nil {
		return core.User{}, err
	}
	return data.User, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var data struct {
		Categories []core.Category `json:"categories"`
	}
	if err := c.get(ctx, "/api/categories", &data); err != nil {
		return nil, err
	}
	return data.Categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	var data struct {
		Category core.Category `json:"category"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/categories", cat, &data); err != nil {
		return core.Category{}, err
	}
	return data.Category, nil
}

func (c *Client) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if cat.ID == "" {
		return core.Category{}, errors.New("category id required")
	}
	var data struct {
		Category core.Category `json:"category"`
	}
	if err := c.send(ctx, http.MethodPut, "/api/categories/"+cat.ID, cat, &data); err != nil {
		return core.Category{}, err
	}
	return data.Category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/categories/"+id, nil, nil)
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var data struct {
		Expenses []core.Expense `json:"expenses"`
	}
	if err := c.get(ctx, "/api/expenses", &data); err != nil {
		return nil, err
	}
	return data.Expenses, nil
}

func (c *Client) CreateExpense(ctx context.Context, exp core.Expense) (core.Expense, error) {
	var data struct {
		Expense core.Expense `json:"expense"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/expenses", exp, &data); err != nil {
		return core.Expense{}, err
	}
	return data.Expense, nil
}

func (c *Client) UpdateExpense(ctx context.Context, exp core.Expense) (core.Expense, error) {
	if exp.ID == "" {
		return core.Expense{}, errors.New("expense id required")
	}
	var data struct {
		Expense core.Expense `json:"expense"`
	}
	if err := c.send(ctx, http.MethodPut, "/api/expenses/"+exp.ID, exp, &data); err != nil {
		return core.Expense{}, err
	}
	return data.Expense, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/expenses/"+id, nil, nil)
}

func (c *Client) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	var data struct {
		Goals []core.SavingsGoal `json:"savingsGoals"`
	}
	if err := c.get(ctx, "/api/savings", &data); err != nil {
		return nil, err
	}
	return data.Goals, nil
}

func (c *Client) CreateGoal(ctx context.Context, goal core.SavingsGoal) (core.SavingsGoal, error) {
	var data struct {
		Goal core.SavingsGoal `json:"savingsGoal"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/savings", goal, &data); err != nil {
		return core.SavingsGoal{}, err
	}
	return data.Goal, nil
}

func (c *Client) UpdateGoal(ctx context.Context, goal core.SavingsGoal) (core.SavingsGoal, error) {
	if goal.ID == "" {
		return core.SavingsGoal{}, errors.New("goal id required")
	}
	var data struct {
		Goal core.SavingsGoal `json:"savingsGoal"`
	}
	if err := c.send(ctx, http.MethodPut, "/api/savings/"+goal.ID, goal, &data); err != nil {
		return core.SavingsGoal{}, err
	}
	return data.Goal, nil
}

func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/savings/"+id, nil, nil)
}

// UpdateGoalProgress posts a progress change in the given mode and returns
// the goal as the server clamped it.
func (c *Client) UpdateGoalProgress(ctx context.Context, id string, amount core.Money, mode core.ProgressMode) (core.SavingsGoal, error) {
	var data struct {
		Goal core.SavingsGoal `json:"savingsGoal"`
	}
	body := map[string]any{"amount": amount, "mode": mode}
	if err := c.send(ctx, http.MethodPatch, "/api/savings/"+id+"/progress", body, &data); err != nil {
		return core.SavingsGoal{}, err
	}
	return data.Goal, nil
}

func (c *Client) GetPreferences(ctx context.Context) (core.UserPreferences, error) {
	var data struct {
		Preferences core.UserPreferences `json:"preferences"`
	}
	if err := c.get(ctx, "/api/preferences", &data); err != nil {
		return core.UserPreferences{}, err
	}
	return data.Preferences, nil
}

// UpdatePreferences sends a partial merge; omitted fields keep their
// server-side values.
func (c *Client) UpdatePreferences(ctx context.Context, update services.PreferencesUpdate) (core.UserPreferences, error) {
	var data struct {
		Preferences core.UserPreferences `json:"preferences"`
	}
	if err := c.send(ctx, http.MethodPut, "/api/preferences", update, &data); err != nil {
		return core.UserPreferences{}, err
	}
	return data.Preferences, nil
}

// MonthlyReport fetches the server-side month overview.
func (c *Client) MonthlyReport(ctx context.Context, year, month int) (report.MonthOverview, error) {
	var data struct {
		Report report.MonthOverview `json:"report"`
	}
	path := fmt.Sprintf("/api/reports/monthly?year=%d&month=%d", year, month)
	if err := c.get(ctx, path, &data); err != nil {
		return report.MonthOverview{}, err
	}
	return data.Report, nil
}

// Snapshot is the full per-user state fetched by LoadAll.
type Snapshot struct {
	Categories  []core.Category
	Expenses    []core.Expense
	Goals       []core.SavingsGoal
	Preferences core.UserPreferences
}

// LoadAll fetches the four collections concurrently. The first failure
// cancels the rest and is returned.
func (c *Client) LoadAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Categories, err = c.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Expenses, err = c.ListExpenses(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Goals, err = c.ListGoals(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Preferences, err = c.GetPreferences(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
