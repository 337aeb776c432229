package core

import "strings"

const (
	Daily   RecurringFrequency = "daily"
	Weekly  RecurringFrequency = "weekly"
	Monthly RecurringFrequency = "monthly"
	Yearly  RecurringFrequency = "yearly"
)

// UncategorizedName is the display name resolved for expenses whose
// categoryId dangles after the category was deleted. A dangling reference is
// a defined display state, not an error.
const UncategorizedName = "Uncategorized"

type (
	// RecurringFrequency labels how often a recurring expense repeats.
	// Recurrence is descriptive only; no future occurrences are generated.
	RecurringFrequency string

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  Icon   `json:"icon,omitempty"`
		Color string `json:"color,omitempty"`
	}

	Expense struct {
		ID                 string             `json:"id"`
		Amount             Money              `json:"amount"`
		CategoryID         string             `json:"categoryId"`
		Date               Date               `json:"date"`
		Notes              string             `json:"notes,omitempty"`
		Currency           string             `json:"currency"`
		IsRecurring        bool               `json:"isRecurring"`
		RecurringFrequency RecurringFrequency `json:"recurringFrequency,omitempty"`
	}

	SavingsGoal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		Deadline      Date   `json:"deadline,omitempty"`
		Currency      string `json:"currency"`
	}

	NotificationPrefs struct {
		BillReminders bool `json:"billReminders"`
		BudgetAlerts  bool `json:"budgetAlerts"`
		GoalProgress  bool `json:"goalProgress"`
	}

	UserPreferences struct {
		Theme           Theme             `json:"theme"`
		DefaultCurrency string            `json:"defaultCurrency"`
		Notifications   NotificationPrefs `json:"notifications"`
	}

	User struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Email        string          `json:"email"`
		Bio          string          `json:"bio,omitempty"`
		ProfilePhoto string          `json:"profilePhoto,omitempty"`
		Preferences  UserPreferences `json:"preferences"`
	}
)

// Theme selects the client color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// ProgressMode selects how a goal progress update interprets its amount.
type ProgressMode string

const (
	// ProgressAbsolute replaces currentAmount with the given amount.
	ProgressAbsolute ProgressMode = "absolute"
	// ProgressIncremental adds the given amount to currentAmount.
	ProgressIncremental ProgressMode = "incremental"
)

// Valid reports whether m is a known mode.
func (m ProgressMode) Valid() bool {
	return m == ProgressAbsolute || m == ProgressIncremental
}

// Valid reports whether f is a known frequency.
func (f RecurringFrequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// DefaultPreferences are applied at registration: system theme, USD, all
// notification channels on.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:           ThemeSystem,
		DefaultCurrency: "USD",
		Notifications: NotificationPrefs{
			BillReminders: true,
			BudgetAlerts:  true,
			GoalProgress:  true,
		},
	}
}

// Validate checks the theme and currency; the notification flags carry no
// invariants of their own.
func (p UserPreferences) Validate() error {
	if !p.Theme.Valid() {
		return NewValidationError("theme", ErrInvalidTheme)
	}
	if strings.TrimSpace(p.DefaultCurrency) == "" {
		return NewValidationError("defaultCurrency", ErrEmptyName)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	return nil
}

// Validate enforces the expense invariants: a non-negative amount, a valid
// date, and recurringFrequency present if and only if isRecurring is set.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return NewValidationError("amount", err)
	}
	if err := e.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	if e.IsRecurring {
		if !e.RecurringFrequency.Valid() {
			return NewValidationError("recurringFrequency", ErrInvalidFrequency)
		}
	} else if e.RecurringFrequency != "" {
		return NewValidationError("recurringFrequency", ErrInvalidFrequency)
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return NewValidationError("targetAmount", err)
	}
	if err := g.CurrentAmount.Validate(); err != nil {
		return NewValidationError("currentAmount", err)
	}
	return nil
}

// Clamp restores the currentAmount <= targetAmount invariant after a
// progress mutation. Amounts below zero clamp to zero.
func (g *SavingsGoal) Clamp() {
	if g.CurrentAmount.Cents < 0 {
		g.CurrentAmount = Money{}
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		g.CurrentAmount = g.TargetAmount
	}
}

// ProgressPercent is currentAmount/targetAmount*100 capped at 100.
// A zero target counts as fully funded.
func (g SavingsGoal) ProgressPercent() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 100
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}

// IsCompleted reports whether the goal is fully funded.
func (g SavingsGoal) IsCompleted() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}

// IsOverdue reports whether the deadline has passed without completion.
// Goals without a deadline are never overdue.
func (g SavingsGoal) IsOverdue(today Date) bool {
	if g.Deadline.IsZero() || g.IsCompleted() {
		return false
	}
	return g.Deadline.Before(today.Time)
}
