package store

import "fintrack/internal/core"

// ProgressMode selects how UpdateGoalProgress interprets its amount.
type ProgressMode = core.ProgressMode

const (
	// Absolute replaces currentAmount with the given amount.
	Absolute = core.ProgressAbsolute
	// Incremental adds the given amount to currentAmount.
	Incremental = core.ProgressIncremental
)

// GoalInput carries the caller-supplied fields for a new savings goal.
// Any currentAmount is ignored: goals always start at zero.
type GoalInput struct {
	Name         string
	TargetAmount core.Money
	Deadline     core.Date
	Currency     string
}

// GoalPatch merges into an existing goal; nil fields keep the prior value.
type GoalPatch struct {
	Name         *string
	TargetAmount *core.Money
	Deadline     *core.Date
	Currency     *string
}

// AddGoal validates, forces currentAmount to zero, assigns a fresh id and
// appends.
func (s *Store) AddGoal(in GoalInput) (core.SavingsGoal, error) {
	goal := core.SavingsGoal{
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		Currency:     in.Currency,
	}
	if goal.Currency == "" {
		goal.Currency = core.DefaultCurrency
	}
	if err := goal.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	goal.ID = s.newID()
	s.goals = append(s.goals, goal)
	return goal, nil
}

// UpdateGoal merges patch fields into the record with the given id. If the
// target shrinks below the current amount, the current amount clamps down to
// keep the invariant.
func (s *Store) UpdateGoal(id string, patch GoalPatch) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.goalIndex(id)
	if idx < 0 {
		return core.SavingsGoal{}, core.ErrNotFound
	}

	merged := s.goals[idx]
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
	merged.Clamp()

	s.goals[idx] = merged
	return merged, nil
}

// RemoveGoal drops the record by id; unknown ids are a no-op.
func (s *Store) RemoveGoal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.goals[:0]
	for _, g := range s.goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	s.goals = kept
}

// Goals returns a copy of the collection in insertion order.
func (s *Store) Goals() []core.SavingsGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.SavingsGoal(nil), s.goals...)
}

// UpdateGoalProgress applies an absolute set or an incremental add, then
// clamps currentAmount into [0, targetAmount]. Negative amounts are a
// ValidationError in incremental mode (withdrawals are not modeled); in
// absolute mode they simply clamp to zero.
func (s *Store) UpdateGoalProgress(id string, amount core.Money, mode ProgressMode) (core.SavingsGoal, error) {
	if !mode.Valid() {
		return core.SavingsGoal{}, core.NewValidationError("mode", core.ErrInvalidMode)
	}
	if mode == Incremental && amount.Cents < 0 {
		return core.SavingsGoal{}, core.NewValidationError("amount", core.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.goalIndex(id)
	if idx < 0 {
		return core.SavingsGoal{}, core.ErrNotFound
	}

	goal := s.goals[idx]
	switch mode {
	case Absolute:
		goal.CurrentAmount = amount
	case Incremental:
		goal.CurrentAmount = core.Cents(goal.CurrentAmount.Cents + amount.Cents)
	}
	goal.Clamp()

	s.goals[idx] = goal
	return goal, nil
}

func (s *Store) goalIndex(id string) int {
	for i, g := range s.goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}
