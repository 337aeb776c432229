package services

import (
	"context"
	"errors"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// PreferencesUpdate carries a partial preferences change. Nil fields keep
// their stored value.
type PreferencesUpdate struct {
	Theme           *core.Theme              `json:"theme"`
	DefaultCurrency *string                  `json:"defaultCurrency"`
	Notifications   *NotificationFlagsUpdate `json:"notifications"`
}

// NotificationFlagsUpdate mirrors core.NotificationPrefs with optional
// fields for partial merges.
type NotificationFlagsUpdate struct {
	BillReminders *bool `json:"billReminders"`
	BudgetAlerts  *bool `json:"budgetAlerts"`
	GoalProgress  *bool `json:"goalProgress"`
}

// PreferencesService reads and merges user preferences.
type PreferencesService struct {
	repo storage.Repository
}

func NewPreferencesService(repo storage.Repository) *PreferencesService {
	return &PreferencesService{repo: repo}
}

func (s *PreferencesService) Get(ctx context.Context, userID string) (core.UserPreferences, error) {
	return s.repo.GetPreferences(ctx, userID)
}

// Update merges the provided fields into the stored preferences and
// persists the result. The merged value is validated as a whole.
func (s *PreferencesService) Update(ctx context.Context, userID string, update PreferencesUpdate) (core.UserPreferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return core.UserPreferences{}, err
	}

	if update.Theme != nil {
		prefs.Theme = *update.Theme
	}
	if update.DefaultCurrency != nil {
		if *update.DefaultCurrency == "" {
			return core.UserPreferences{}, core.NewValidationError("defaultCurrency", errors.New("must not be empty"))
		}
		prefs.DefaultCurrency = *update.DefaultCurrency
	}
	if update.Notifications != nil {
		if v := update.Notifications.BillReminders; v != nil {
			prefs.Notifications.BillReminders = *v
		}
		if v := update.Notifications.BudgetAlerts; v != nil {
			prefs.Notifications.BudgetAlerts = *v
		}
		if v := update.Notifications.GoalProgress; v != nil {
			prefs.Notifications.GoalProgress = *v
		}
	}

	if err := prefs.Validate(); err != nil {
		return core.UserPreferences{}, err
	}
	if err := s.repo.SavePreferences(ctx, userID, prefs); err != nil {
		return core.UserPreferences{}, err
	}
	return prefs, nil
}
