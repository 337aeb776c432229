// Package storage persists user accounts, domain records and pending
// notification events. Two implementations exist: SQLite for real
// deployments and an in-memory variant for tests and local runs.
package storage

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// UserRecord pairs a user with the password digest that never leaves the
// persistence boundary.
type UserRecord struct {
	core.User
	PasswordHash string
}

// Event is a queued notification awaiting delivery. Payload is the
// JSON-encoded message body; the broker only ever sees the ID and version.
type Event struct {
	ID        int64
	UserID    string
	Kind      string
	Payload   []byte
	Version   int64
	CreatedAt time.Time
}

// Event kinds understood by the notification worker.
const (
	EventGoalProgress = "goal_progress"
	EventBudgetAlert  = "budget_alert"
)

// Repository is the persistence contract shared by all backends. Every
// domain record is scoped to a user; cross-user reads are impossible by
// construction. Not-found lookups return core.ErrNotFound and uniqueness
// violations return core.ErrConflict so callers never see driver errors.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user UserRecord) error
	GetUser(ctx context.Context, id string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)

	// Categories
	CreateCategory(ctx context.Context, userID string, c core.Category) error
	UpdateCategory(ctx context.Context, userID string, c core.Category) error
	DeleteCategory(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)

	// Expenses
	CreateExpense(ctx context.Context, userID string, e core.Expense) error
	UpdateExpense(ctx context.Context, userID string, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
	GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)

	// Savings goals
	CreateGoal(ctx context.Context, userID string, g core.SavingsGoal) error
	UpdateGoal(ctx context.Context, userID string, g core.SavingsGoal) error
	DeleteGoal(ctx context.Context, userID, id string) error
	GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)

	// Preferences
	GetPreferences(ctx context.Context, userID string) (core.UserPreferences, error)
	SavePreferences(ctx context.Context, userID string, prefs core.UserPreferences) error

	// Notification events
	EnqueueEvent(ctx context.Context, event Event) (int64, error)
	GetEvent(ctx context.Context, id int64) (Event, error)
	PendingEvents(ctx context.Context, limit int) ([]Event, error)
	MarkEventPublished(ctx context.Context, id int64) error
	MarkEventError(ctx context.Context, id int64) error

	Close() error
}
