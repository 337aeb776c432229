package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryRepository keeps everything in process memory. It backs tests and
// local runs where a database file is unwanted, and mirrors the SQLite
// error contract exactly.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[string]UserRecord
	emailIndex map[string]string
	categories map[string]map[string]core.Category    // userID -> id -> record
	expenses   map[string]map[string]core.Expense     // userID -> id -> record
	goals      map[string]map[string]core.SavingsGoal // userID -> id -> record
	order      map[string]int                         // record id -> insertion sequence
	seq        int

	events      map[int64]Event
	eventStatus map[int64]string
	nextEventID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[string]UserRecord),
		emailIndex:  make(map[string]string),
		categories:  make(map[string]map[string]core.Category),
		expenses:    make(map[string]map[string]core.Expense),
		goals:       make(map[string]map[string]core.SavingsGoal),
		order:       make(map[string]int),
		events:      make(map[int64]Event),
		eventStatus: make(map[int64]string),
		nextEventID: 1,
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) track(id string) {
	r.seq++
	r.order[id] = r.seq
}

// Users

func (r *MemoryRepository) CreateUser(_ context.Context, user UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emailIndex[user.Email]; exists {
		return fmt.Errorf("create user: %w", core.ErrConflict)
	}
	if _, exists := r.users[user.ID]; exists {
		return fmt.Errorf("create user: %w", core.ErrConflict)
	}
	r.users[user.ID] = user
	r.emailIndex[user.Email] = user.ID
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, id string) (UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return UserRecord{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emailIndex[email]
	if !ok {
		return UserRecord{}, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	return r.users[id], nil
}

// Categories

func (r *MemoryRepository) CreateCategory(_ context.Context, userID string, c core.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.categories[userID]
	if byID == nil {
		byID = make(map[string]core.Category)
		r.categories[userID] = byID
	}
	for _, existing := range byID {
		if existing.Name == c.Name {
			return fmt.Errorf("create category: %w", core.ErrConflict)
		}
	}
	byID[c.ID] = c
	r.track(c.ID)
	return nil
}

func (r *MemoryRepository) UpdateCategory(_ context.Context, userID string, c core.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.categories[userID]
	if _, ok := byID[c.ID]; !ok {
		return fmt.Errorf("update category: %w", core.ErrNotFound)
	}
	for id, existing := range byID {
		if id != c.ID && existing.Name == c.Name {
			return fmt.Errorf("update category: %w", core.ErrConflict)
		}
	}
	byID[c.ID] = c
	return nil
}

func (r *MemoryRepository) DeleteCategory(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.categories[userID], id)
	return nil
}

func (r *MemoryRepository) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]core.Category, 0, len(r.categories[userID]))
	for _, c := range r.categories[userID] {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return r.order[categories[i].ID] < r.order[categories[j].ID]
	})
	if len(categories) == 0 {
		return nil, nil
	}
	return categories, nil
}

// Expenses

func (r *MemoryRepository) CreateExpense(_ context.Context, userID string, e core.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.expenses[userID]
	if byID == nil {
		byID = make(map[string]core.Expense)
		r.expenses[userID] = byID
	}
	byID[e.ID] = e
	r.track(e.ID)
	return nil
}

func (r *MemoryRepository) UpdateExpense(_ context.Context, userID string, e core.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.expenses[userID]
	if _, ok := byID[e.ID]; !ok {
		return fmt.Errorf("update expense: %w", core.ErrNotFound)
	}
	byID[e.ID] = e
	return nil
}

func (r *MemoryRepository) DeleteExpense(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.expenses[userID], id)
	return nil
}

func (r *MemoryRepository) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.expenses[userID][id]
	if !ok {
		return core.Expense{}, fmt.Errorf("get expense: %w", core.ErrNotFound)
	}
	return e, nil
}

func (r *MemoryRepository) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expenses := make([]core.Expense, 0, len(r.expenses[userID]))
	for _, e := range r.expenses[userID] {
		expenses = append(expenses, e)
	}
	// Newest first, insertion order between equal dates.
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		return r.order[expenses[i].ID] > r.order[expenses[j].ID]
	})
	if len(expenses) == 0 {
		return nil, nil
	}
	return expenses, nil
}

// Savings goals

func (r *MemoryRepository) CreateGoal(_ context.Context, userID string, g core.SavingsGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.goals[userID]
	if byID == nil {
		byID = make(map[string]core.SavingsGoal)
		r.goals[userID] = byID
	}
	byID[g.ID] = g
	r.track(g.ID)
	return nil
}

func (r *MemoryRepository) UpdateGoal(_ context.Context, userID string, g core.SavingsGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := r.goals[userID]
	if _, ok := byID[g.ID]; !ok {
		return fmt.Errorf("update goal: %w", core.ErrNotFound)
	}
	byID[g.ID] = g
	return nil
}

func (r *MemoryRepository) DeleteGoal(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.goals[userID], id)
	return nil
}

func (r *MemoryRepository) GetGoal(_ context.Context, userID, id string) (core.SavingsGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.goals[userID][id]
	if !ok {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", core.ErrNotFound)
	}
	return g, nil
}

func (r *MemoryRepository) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := make([]core.SavingsGoal, 0, len(r.goals[userID]))
	for _, g := range r.goals[userID] {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool {
		return r.order[goals[i].ID] < r.order[goals[j].ID]
	})
	if len(goals) == 0 {
		return nil, nil
	}
	return goals, nil
}

// Preferences

func (r *MemoryRepository) GetPreferences(_ context.Context, userID string) (core.UserPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return core.UserPreferences{}, fmt.Errorf("get preferences: %w", core.ErrNotFound)
	}
	return user.Preferences, nil
}

func (r *MemoryRepository) SavePreferences(_ context.Context, userID string, prefs core.UserPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("save preferences: %w", core.ErrNotFound)
	}
	user.Preferences = prefs
	r.users[userID] = user
	return nil
}

// Notification events

func (r *MemoryRepository) EnqueueEvent(_ context.Context, event Event) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextEventID
	r.nextEventID++
	if event.Version == 0 {
		event.Version = 1
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.events[event.ID] = event
	r.eventStatus[event.ID] = "pending"
	return event.ID, nil
}

func (r *MemoryRepository) GetEvent(_ context.Context, id int64) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return Event{}, fmt.Errorf("get event: %w", core.ErrNotFound)
	}
	return ev, nil
}

func (r *MemoryRepository) PendingEvents(_ context.Context, limit int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []Event
	for id, ev := range r.events {
		if r.eventStatus[id] == "pending" {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *MemoryRepository) MarkEventPublished(_ context.Context, id int64) error {
	return r.setEventStatus(id, "published", "mark event published")
}

func (r *MemoryRepository) MarkEventError(_ context.Context, id int64) error {
	return r.setEventStatus(id, "error", "mark event error")
}

func (r *MemoryRepository) setEventStatus(id int64, status, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	r.eventStatus[id] = status
	return nil
}
