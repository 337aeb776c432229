package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapErr translates driver errors into the domain sentinels callers match on.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return core.ErrConflict
	default:
		return err
	}
}

func dateString(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, user UserRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, bio, profile_photo,
			theme, default_currency, notify_bill_reminders, notify_budget_alerts, notify_goal_progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Bio, user.ProfilePhoto,
		string(user.Preferences.Theme), user.Preferences.DefaultCurrency,
		user.Preferences.Notifications.BillReminders,
		user.Preferences.Notifications.BudgetAlerts,
		user.Preferences.Notifications.GoalProgress)
	if err != nil {
		return fmt.Errorf("create user: %w", mapErr(err))
	}
	return nil
}

const userColumns = `id, name, email, password_hash, bio, profile_photo,
	theme, default_currency, notify_bill_reminders, notify_budget_alerts, notify_goal_progress`

func (r *SQLiteRepository) scanUser(row *sql.Row) (UserRecord, error) {
	var u UserRecord
	var theme string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.ProfilePhoto,
		&theme, &u.Preferences.DefaultCurrency,
		&u.Preferences.Notifications.BillReminders,
		&u.Preferences.Notifications.BudgetAlerts,
		&u.Preferences.Notifications.GoalProgress)
	if err != nil {
		return UserRecord{}, mapErr(err)
	}
	u.Preferences.Theme = core.Theme(theme)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (UserRecord, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	u, err := r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, icon, color)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, string(c.Icon), c.Color)
	if err != nil {
		return fmt.Errorf("create category: %w", mapErr(err))
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, userID string, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, color = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Icon), c.Color, c.ID, userID)
	if err != nil {
		return fmt.Errorf("update category: %w", mapErr(err))
	}
	return requireRow(res, "update category")
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	// Deleting a category never touches its expenses; they keep the dangling
	// reference and resolve to the uncategorized display name.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", mapErr(err))
	}
	return nil
}

// ListCategories returns the user's categories in insertion order. rowid is
// the insertion sequence; created_at is only second-precision.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color FROM categories
		WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var icon string
		if err := rows.Scan(&c.ID, &c.Name, &icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = core.Icon(icon)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Expenses

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID string, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount_cents, category_id, date, notes,
			currency, is_recurring, recurring_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Amount.Cents, e.CategoryID, dateString(e.Date), e.Notes,
		e.Currency, e.IsRecurring, string(e.RecurringFrequency))
	if err != nil {
		return fmt.Errorf("create expense: %w", mapErr(err))
	}
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID string, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET amount_cents = ?, category_id = ?, date = ?, notes = ?,
			currency = ?, is_recurring = ?, recurring_frequency = ?
		WHERE id = ? AND user_id = ?`,
		e.Amount.Cents, e.CategoryID, dateString(e.Date), e.Notes,
		e.Currency, e.IsRecurring, string(e.RecurringFrequency), e.ID, userID)
	if err != nil {
		return fmt.Errorf("update expense: %w", mapErr(err))
	}
	return requireRow(res, "update expense")
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", mapErr(err))
	}
	return nil
}

const expenseColumns = `id, amount_cents, category_id, date, notes, currency, is_recurring, recurring_frequency`

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var e core.Expense
	var date, frequency string
	err := scan(&e.ID, &e.Amount.Cents, &e.CategoryID, &date, &e.Notes,
		&e.Currency, &e.IsRecurring, &frequency)
	if err != nil {
		return core.Expense{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date: %w", err)
	}
	e.Date = d
	e.RecurringFrequency = core.RecurringFrequency(frequency)
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row.Scan)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", mapErr(err))
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Savings goals

func (r *SQLiteRepository) CreateGoal(ctx context.Context, userID string, g core.SavingsGoal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_cents, current_cents, deadline, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, userID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		dateString(g.Deadline), g.Currency)
	if err != nil {
		return fmt.Errorf("create goal: %w", mapErr(err))
	}
	return nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, userID string, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET name = ?, target_cents = ?, current_cents = ?, deadline = ?, currency = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, dateString(g.Deadline),
		g.Currency, g.ID, userID)
	if err != nil {
		return fmt.Errorf("update goal: %w", mapErr(err))
	}
	return requireRow(res, "update goal")
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", mapErr(err))
	}
	return nil
}

func scanGoal(scan func(...any) error) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var deadline string
	err := scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline, &g.Currency)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	d, err := parseDate(deadline)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse goal deadline: %w", err)
	}
	g.Deadline = d
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline, currency
		FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row.Scan)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", mapErr(err))
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline, currency
		FROM savings_goals WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// Preferences

func (r *SQLiteRepository) GetPreferences(ctx context.Context, userID string) (core.UserPreferences, error) {
	var prefs core.UserPreferences
	var theme string
	err := r.db.QueryRowContext(ctx, `
		SELECT theme, default_currency, notify_bill_reminders, notify_budget_alerts, notify_goal_progress
		FROM users WHERE id = ?`, userID).Scan(
		&theme, &prefs.DefaultCurrency,
		&prefs.Notifications.BillReminders,
		&prefs.Notifications.BudgetAlerts,
		&prefs.Notifications.GoalProgress)
	if err != nil {
		return core.UserPreferences{}, fmt.Errorf("get preferences: %w", mapErr(err))
	}
	prefs.Theme = core.Theme(theme)
	return prefs, nil
}

func (r *SQLiteRepository) SavePreferences(ctx context.Context, userID string, prefs core.UserPreferences) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET theme = ?, default_currency = ?,
			notify_bill_reminders = ?, notify_budget_alerts = ?, notify_goal_progress = ?
		WHERE id = ?`,
		string(prefs.Theme), prefs.DefaultCurrency,
		prefs.Notifications.BillReminders,
		prefs.Notifications.BudgetAlerts,
		prefs.Notifications.GoalProgress, userID)
	if err != nil {
		return fmt.Errorf("save preferences: %w", mapErr(err))
	}
	return requireRow(res, "save preferences")
}

// Notification events

func (r *SQLiteRepository) EnqueueEvent(ctx context.Context, event Event) (int64, error) {
	version := event.Version
	if version == 0 {
		version = 1
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_events (user_id, kind, payload, version)
		VALUES (?, ?, ?, ?)`,
		event.UserID, event.Kind, string(event.Payload), version)
	if err != nil {
		return 0, fmt.Errorf("enqueue event: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("enqueue event id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (Event, error) {
	var ev Event
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, payload, version, created_at
		FROM notification_events WHERE id = ?`, id).Scan(
		&ev.ID, &ev.UserID, &ev.Kind, &payload, &ev.Version, &ev.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("get event: %w", mapErr(err))
	}
	ev.Payload = []byte(payload)
	return ev, nil
}

func (r *SQLiteRepository) PendingEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, payload, version, created_at
		FROM notification_events WHERE status = 'pending'
		ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var payload string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Kind, &payload, &ev.Version, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Payload = []byte(payload)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLiteRepository) MarkEventPublished(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_events SET status = 'published' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark event published: %w", mapErr(err))
	}
	return requireRow(res, "mark event published")
}

func (r *SQLiteRepository) MarkEventError(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_events SET status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark event error: %w", mapErr(err))
	}
	return requireRow(res, "mark event error")
}

// requireRow converts a zero-row update into core.ErrNotFound.
func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
