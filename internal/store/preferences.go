package store

import "fintrack/internal/core"

// PreferencesPatch merges into the user preferences; nil fields keep the
// prior value.
type PreferencesPatch struct {
	Theme           *core.Theme
	DefaultCurrency *string
	BillReminders   *bool
	BudgetAlerts    *bool
	GoalProgress    *bool
}

// Preferences returns the current preferences snapshot.
func (s *Store) Preferences() core.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// MergePreferences applies a partial update; unspecified keys retain their
// prior values. Unknown themes are a ValidationError.
func (s *Store) MergePreferences(patch PreferencesPatch) (core.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.prefs
	if patch.Theme != nil {
		if !patch.Theme.Valid() {
			return core.UserPreferences{}, core.NewValidationError("theme", core.ErrInvalidTheme)
		}
		merged.Theme = *patch.Theme
	}
	if patch.DefaultCurrency != nil {
		merged.DefaultCurrency = *patch.DefaultCurrency
	}
	if patch.BillReminders != nil {
		merged.Notifications.BillReminders = *patch.BillReminders
	}
	if patch.BudgetAlerts != nil {
		merged.Notifications.BudgetAlerts = *patch.BudgetAlerts
	}
	if patch.GoalProgress != nil {
		merged.Notifications.GoalProgress = *patch.GoalProgress
	}

	s.prefs = merged
	return merged, nil
}
