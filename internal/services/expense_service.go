// Package services orchestrates writes across storage and the notification
// queue. Handlers call services, never the repository directly, so every
// mutation gets the same validation and event side effects.
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

// EventPublisher publishes thin event messages to the broker. A nil
// publisher disables broker delivery; queued events still reach the worker
// through the pending-table sweep.
type EventPublisher interface {
	PublishEvent(ctx context.Context, id, version int64) error
}

// ExpenseService persists expense mutations and queues budget-alert checks.
type ExpenseService struct {
	repo      storage.Repository
	publisher EventPublisher
	logger    *log.Logger
	newID     func() string
}

func NewExpenseService(repo storage.Repository, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStore),
		newID:     uuid.NewString,
	}
}

// Create validates and persists a new expense. An empty currency takes the
// user's default.
func (s *ExpenseService) Create(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if e.Currency == "" {
		prefs, err := s.repo.GetPreferences(ctx, userID)
		if err != nil {
			return core.Expense{}, fmt.Errorf("load preferences: %w", err)
		}
		e.Currency = prefs.DefaultCurrency
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	e.ID = s.newID()
	if err := s.repo.CreateExpense(ctx, userID, e); err != nil {
		return core.Expense{}, err
	}

	s.queueBudgetAlert(ctx, userID, e)
	return e, nil
}

// Update validates and replaces an existing expense.
func (s *ExpenseService) Update(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.UpdateExpense(ctx, userID, e); err != nil {
		return core.Expense{}, err
	}

	s.queueBudgetAlert(ctx, userID, e)
	return e, nil
}

// Delete removes an expense. Unknown ids are a no-op.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteExpense(ctx, userID, id)
}

// Get returns a single expense.
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

// List returns the user's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	return s.repo.ListExpenses(ctx, userID)
}

// queueBudgetAlert records a budget check for the mutated expense's month.
// Queue failures never fail the request; the mutation has already landed.
func (s *ExpenseService) queueBudgetAlert(ctx context.Context, userID string, e core.Expense) {
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping budget alert, list failed",
			log.FieldUserID, userID, log.FieldError, err)
		return
	}

	var total int64
	for _, other := range expenses {
		if other.Date.SameMonth(e.Date) {
			total += other.Amount.Cents
		}
	}

	payload, err := json.Marshal(BudgetAlertPayload{
		UserID:     userID,
		Year:       e.Date.Year(),
		Month:      e.Date.Month(),
		MonthTotal: core.Cents(total),
		Currency:   e.Currency,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping budget alert, marshal failed", log.FieldError, err)
		return
	}

	s.dispatch(ctx, storage.Event{
		UserID:  userID,
		Kind:    storage.EventBudgetAlert,
		Payload: payload,
	})
}

func (s *ExpenseService) dispatch(ctx context.Context, event storage.Event) {
	dispatchEvent(ctx, s.repo, s.publisher, s.logger, event)
}

// dispatchEvent enqueues the event and, when a broker is configured,
// publishes its thin message. Both failures are logged and swallowed so the
// originating write still succeeds; the sweep delivers stragglers.
func dispatchEvent(ctx context.Context, repo storage.Repository, publisher EventPublisher, logger *log.Logger, event storage.Event) {
	id, err := repo.EnqueueEvent(ctx, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to enqueue event",
			log.FieldEventKind, event.Kind, log.FieldError, err)
		return
	}

	if publisher == nil {
		return
	}
	if err := publisher.PublishEvent(ctx, id, 1); err != nil {
		logger.WarnContext(ctx, "Failed to publish event, sweep will deliver",
			log.FieldEventKind, event.Kind, "event_id", id, log.FieldError, err)
	}
}
