// Package worker delivers queued notification events. Delivery is a
// structured log record; wiring an SMTP or push gateway behind it is a
// transport swap, not a redesign.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// NotificationWorker consumes thin event messages, reloads the stored
// payload and delivers it if the user's preference flag allows.
type NotificationWorker struct {
	repo      storage.Repository
	logger    *log.Logger
	batchSize int
}

func NewNotificationWorker(repo storage.Repository, logger *log.Logger, batchSize int) *NotificationWorker {
	return &NotificationWorker{
		repo:      repo,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleEventMessage processes a single broker delivery. Returning an error
// nacks and requeues the message.
func (w *NotificationWorker) HandleEventMessage(ctx context.Context, msg *amqp.EventMessage) error {
	event, err := w.repo.GetEvent(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// The row is gone; requeueing cannot help.
			w.logger.WarnContext(ctx, "Event message references missing row", "event_id", msg.ID)
			return nil
		}
		return fmt.Errorf("load event: %w", err)
	}
	return w.deliver(ctx, event)
}

// deliver applies preference gating, emits the notification and marks the
// event published. A gated-off event is marked published too; it was
// handled, just not shown.
func (w *NotificationWorker) deliver(ctx context.Context, event storage.Event) error {
	prefs, err := w.repo.GetPreferences(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Dropping event for missing user",
				"event_id", event.ID, log.FieldUserID, event.UserID)
			return w.repo.MarkEventError(ctx, event.ID)
		}
		return fmt.Errorf("load preferences: %w", err)
	}

	if w.allowed(prefs, event.Kind) {
		if err := w.emit(ctx, event); err != nil {
			if markErr := w.repo.MarkEventError(ctx, event.ID); markErr != nil {
				w.logger.ErrorContext(ctx, "Failed to mark event error",
					"event_id", event.ID, log.FieldError, markErr)
			}
			return err
		}
	} else {
		w.logger.DebugContext(ctx, "Event suppressed by user preference",
			"event_id", event.ID, log.FieldEventKind, event.Kind, log.FieldUserID, event.UserID)
	}

	return w.repo.MarkEventPublished(ctx, event.ID)
}

func (w *NotificationWorker) allowed(prefs core.UserPreferences, kind string) bool {
	switch kind {
	case storage.EventGoalProgress:
		return prefs.Notifications.GoalProgress
	case storage.EventBudgetAlert:
		return prefs.Notifications.BudgetAlerts
	default:
		return false
	}
}

func (w *NotificationWorker) emit(ctx context.Context, event storage.Event) error {
	switch event.Kind {
	case storage.EventGoalProgress:
		var p services.GoalProgressPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode goal progress payload: %w", err)
		}
		w.logger.InfoContext(ctx, "Goal milestone reached",
			log.FieldUserID, p.UserID,
			log.FieldGoalID, p.GoalID,
			"goal_name", p.GoalName,
			"milestone", p.Milestone,
			"progress_percent", p.ProgressPercent)

	case storage.EventBudgetAlert:
		var p services.BudgetAlertPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("decode budget alert payload: %w", err)
		}
		w.logger.InfoContext(ctx, "Monthly spending update",
			log.FieldUserID, p.UserID,
			log.FieldYear, p.Year,
			log.FieldMonth, p.Month,
			log.FieldAmountCents, p.MonthTotal.Cents,
			"amount", core.FormatAmount(p.MonthTotal, p.Currency))

	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
	return nil
}

// ProcessPendingEvents sweeps the pending table once. It is the recovery
// path for lost broker messages and the only delivery path when no broker
// is configured.
func (w *NotificationWorker) ProcessPendingEvents(ctx context.Context) error {
	pending, err := w.repo.PendingEvents(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending events", "count", len(pending))
	for _, event := range pending {
		if err := w.deliver(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to deliver pending event",
				"event_id", event.ID, log.FieldError, err)
		}
	}
	return nil
}

// StartupCheck sweeps a larger batch once at boot to drain anything left
// over from downtime.
func (w *NotificationWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.repo.PendingEvents(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending events at startup: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "No pending events found on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "Found pending events on startup", "count", len(pending))
	delivered, failed := 0, 0
	for _, event := range pending {
		if err := w.deliver(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to deliver event during startup",
				"event_id", event.ID, log.FieldError, err)
			failed++
			continue
		}
		delivered++
	}

	w.logger.InfoContext(ctx, "Startup sweep completed",
		"total", len(pending), "delivered", delivered, "errors", failed)
	return nil
}

// RunSweep loops the pending sweep at the given interval until the context
// is cancelled.
func (w *NotificationWorker) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPendingEvents(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err)
			}
		}
	}
}
