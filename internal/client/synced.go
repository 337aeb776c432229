package client

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// SyncedStore keeps a local store.Store mirroring the server. Mutations go
// remote first; the local collections are touched only after the server
// accepted the write, so a failed call leaves the mirror consistent.
type SyncedStore struct {
	local  *store.Store
	remote *Client
	logger *log.Logger
}

func NewSyncedStore(local *store.Store, remote *Client, logger *log.Logger) *SyncedStore {
	return &SyncedStore{
		local:  local,
		remote: remote,
		logger: logger.WithComponent(log.ComponentSync),
	}
}

// Local exposes the mirrored store for reads and filtering.
func (s *SyncedStore) Local() *store.Store {
	return s.local
}

// Refresh replaces the local collections with a fresh server snapshot.
func (s *SyncedStore) Refresh(ctx context.Context) error {
	snap, err := s.remote.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.local.ReplaceCategories(snap.Categories)
	s.local.ReplaceExpenses(snap.Expenses)
	s.local.ReplaceGoals(snap.Goals)
	s.local.SetPreferences(snap.Preferences)
	s.logger.InfoContext(ctx, "Store refreshed from server",
		"categories", len(snap.Categories),
		"expenses", len(snap.Expenses),
		"goals", len(snap.Goals))
	return nil
}

func (s *SyncedStore) AddCategory(ctx context.Context, in store.CategoryInput) (core.Category, error) {
	payload := core.Category{
		Name:  in.Name,
		Icon:  core.LookupIcon(in.Icon),
		Color: in.Color,
	}
	if err := payload.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.remote.CreateCategory(ctx, payload)
	if err != nil {
		return core.Category{}, err
	}
	s.local.ReplaceCategories(append(s.local.Categories(), created))
	return created, nil
}

func (s *SyncedStore) UpdateCategory(ctx context.Context, id string, patch store.CategoryPatch) (core.Category, error) {
	merged, ok := findCategory(s.local.Categories(), id)
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Icon != nil {
		merged.Icon = core.LookupIcon(*patch.Icon)
	}
	if patch.Color != nil {
		merged.Color = *patch.Color
	}
	if err := merged.Validate(); err != nil {
		return core.Category{}, err
	}

	updated, err := s.remote.UpdateCategory(ctx, merged)
	if err != nil {
		return core.Category{}, err
	}
	s.local.ReplaceCategories(replaceCategory(s.local.Categories(), updated))
	return updated, nil
}

func (s *SyncedStore) RemoveCategory(ctx context.Context, id string) error {
	if err := s.remote.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.local.RemoveCategory(id)
	return nil
}

func (s *SyncedStore) AddExpense(ctx context.Context, in store.ExpenseInput) (core.Expense, error) {
	payload := core.Expense{
		Amount:             in.Amount,
		CategoryID:         in.CategoryID,
		Date:               in.Date,
		Notes:              in.Notes,
		Currency:           in.Currency,
		IsRecurring:        in.IsRecurring,
		RecurringFrequency: in.RecurringFrequency,
	}
	if err := payload.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.remote.CreateExpense(ctx, payload)
	if err != nil {
		return core.Expense{}, err
	}
	s.local.ReplaceExpenses(append(s.local.Expenses(), created))
	return created, nil
}

func (s *SyncedStore) UpdateExpense(ctx context.Context, id string, patch store.ExpensePatch) (core.Expense, error) {
	merged, ok := findExpense(s.local.Expenses(), id)
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		merged.CategoryID = *patch.CategoryID
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}
	if patch.Currency != nil {
		merged.Currency = *patch.Currency
	}
	if patch.IsRecurring != nil {
		merged.IsRecurring = *patch.IsRecurring
	}
	if patch.RecurringFrequency != nil {
		merged.RecurringFrequency = *patch.RecurringFrequency
	}
	if !merged.IsRecurring {
		merged.RecurringFrequency = ""
	}
	if err := merged.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.remote.UpdateExpense(ctx, merged)
	if err != nil {
		return core.Expense{}, err
	}
	s.local.ReplaceExpenses(replaceExpense(s.local.Expenses(), updated))
	return updated, nil
}

func (s *SyncedStore) RemoveExpense(ctx context.Context, id string) error {
	if err := s.remote.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.local.RemoveExpense(id)
	return nil
}

func (s *SyncedStore) AddGoal(ctx context.Context, in store.GoalInput) (core.SavingsGoal, error) {
	payload := core.SavingsGoal{
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		Currency:     in.Currency,
	}
	if err := payload.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	created, err := s.remote.CreateGoal(ctx, payload)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	s.local.ReplaceGoals(append(s.local.Goals(), created))
	return created, nil
}

func (s *SyncedStore) UpdateGoal(ctx context.Context, id string, patch store.GoalPatch) (core.SavingsGoal, error) {
	merged, ok := findGoal(s.local.Goals(), id)
	if !ok {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.TargetAmount != nil {
		merged.TargetAmount = *patch.TargetAmount
	}
	if patch.Deadline != nil {
		merged.Deadline = *patch.Deadline
	}
	if patch.Currency != nil {
		merged.Currency = *patch.Currency
	}
	if err := merged.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	updated, err := s.remote.UpdateGoal(ctx, merged)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	s.local.ReplaceGoals(replaceGoal(s.local.Goals(), updated))
	return updated, nil
}

func (s *SyncedStore) RemoveGoal(ctx context.Context, id string) error {
	if err := s.remote.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.local.RemoveGoal(id)
	return nil
}

// UpdateGoalProgress applies a progress change on the server and installs
// the goal as the server clamped it.
func (s *SyncedStore) UpdateGoalProgress(ctx context.Context, id string, amount core.Money, mode core.ProgressMode) (core.SavingsGoal, error) {
	updated, err := s.remote.UpdateGoalProgress(ctx, id, amount, mode)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	s.local.ReplaceGoals(replaceGoal(s.local.Goals(), updated))
	return updated, nil
}

// MergePreferences applies a partial preferences update on the server and
// installs the merged record locally.
func (s *SyncedStore) MergePreferences(ctx context.Context, patch store.PreferencesPatch) (core.UserPreferences, error) {
	update := services.PreferencesUpdate{
		Theme:           patch.Theme,
		DefaultCurrency: patch.DefaultCurrency,
	}
	if patch.BillReminders != nil || patch.BudgetAlerts != nil || patch.GoalProgress != nil {
		update.Notifications = &services.NotificationFlagsUpdate{
			BillReminders: patch.BillReminders,
			BudgetAlerts:  patch.BudgetAlerts,
			GoalProgress:  patch.GoalProgress,
		}
	}

	merged, err := s.remote.UpdatePreferences(ctx, update)
	if err != nil {
		return core.UserPreferences{}, err
	}
	s.local.SetPreferences(merged)
	return merged, nil
}

func findCategory(cats []core.Category, id string) (core.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func replaceCategory(cats []core.Category, updated core.Category) []core.Category {
	for i, c := range cats {
		if c.ID == updated.ID {
			cats[i] = updated
			break
		}
	}
	return cats
}

func findExpense(exps []core.Expense, id string) (core.Expense, bool) {
	for _, e := range exps {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

func replaceExpense(exps []core.Expense, updated core.Expense) []core.Expense {
	for i, e := range exps {
		if e.ID == updated.ID {
			exps[i] = updated
			break
		}
	}
	return exps
}

func findGoal(goals []core.SavingsGoal, id string) (core.SavingsGoal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.SavingsGoal{}, false
}

func replaceGoal(goals []core.SavingsGoal, updated core.SavingsGoal) []core.SavingsGoal {
	for i, g := range goals {
		if g.ID == updated.ID {
			goals[i] = updated
			break
		}
	}
	return goals
}
