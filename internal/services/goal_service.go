package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalService persists savings-goal mutations and queues milestone
// notifications.
type GoalService struct {
	repo      storage.Repository
	publisher EventPublisher
	logger    *log.Logger
	newID     func() string
}

func NewGoalService(repo storage.Repository, publisher EventPublisher, logger *log.Logger) *GoalService {
	return &GoalService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStore),
		newID:     uuid.NewString,
	}
}

// Create validates and persists a new goal. Progress always starts at zero
// regardless of the submitted current amount.
func (s *GoalService) Create(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.CurrentAmount = core.Money{}
	if g.Currency == "" {
		prefs, err := s.repo.GetPreferences(ctx, userID)
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("load preferences: %w", err)
		}
		g.Currency = prefs.DefaultCurrency
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	g.ID = s.newID()
	if err := s.repo.CreateGoal(ctx, userID, g); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// Update validates and replaces goal fields other than progress. A target
// shrinking below the current amount clamps the current amount down.
func (s *GoalService) Update(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	existing, err := s.repo.GetGoal(ctx, userID, g.ID)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.CurrentAmount = existing.CurrentAmount

	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g.Clamp()

	if err := s.repo.UpdateGoal(ctx, userID, g); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// Delete removes a goal. Unknown ids are a no-op.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteGoal(ctx, userID, id)
}

// Get returns a single goal.
func (s *GoalService) Get(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	return s.repo.GetGoal(ctx, userID, id)
}

// List returns the user's goals in insertion order.
func (s *GoalService) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	return s.repo.ListGoals(ctx, userID)
}

// UpdateProgress applies an absolute set or incremental add, clamps the
// result into [0, target], and queues a notification the first time the
// progress crosses a milestone threshold.
func (s *GoalService) UpdateProgress(ctx context.Context, userID, id string, amount core.Money, mode core.ProgressMode) (core.SavingsGoal, error) {
	if !mode.Valid() {
		return core.SavingsGoal{}, core.NewValidationError("mode", core.ErrInvalidMode)
	}
	if mode == core.ProgressIncremental && amount.Cents < 0 {
		return core.SavingsGoal{}, core.NewValidationError("amount", core.ErrInvalidAmount)
	}

	goal, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	before := goal.ProgressPercent()
	switch mode {
	case core.ProgressAbsolute:
		goal.CurrentAmount = amount
	case core.ProgressIncremental:
		goal.CurrentAmount = core.Cents(goal.CurrentAmount.Cents + amount.Cents)
	}
	goal.Clamp()

	if err := s.repo.UpdateGoal(ctx, userID, goal); err != nil {
		return core.SavingsGoal{}, err
	}

	if milestone := crossedMilestone(before, goal.ProgressPercent()); milestone > 0 {
		s.queueMilestone(ctx, userID, goal, milestone)
	}
	return goal, nil
}

func (s *GoalService) queueMilestone(ctx context.Context, userID string, goal core.SavingsGoal, milestone int) {
	payload, err := json.Marshal(GoalProgressPayload{
		UserID:          userID,
		GoalID:          goal.ID,
		GoalName:        goal.Name,
		Milestone:       milestone,
		ProgressPercent: goal.ProgressPercent(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping milestone event, marshal failed", log.FieldError, err)
		return
	}

	dispatchEvent(ctx, s.repo, s.publisher, s.logger, storage.Event{
		UserID:  userID,
		Kind:    storage.EventGoalProgress,
		Payload: payload,
	})
}
