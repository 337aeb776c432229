package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type fakePublisher struct {
	published []int64
	fail      bool
}

func (f *fakePublisher) PublishEvent(_ context.Context, id, _ int64) error {
	if f.fail {
		return errors.New("connection refused")
	}
	f.published = append(f.published, id)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func testAuthService(repo storage.Repository) *AuthService {
	issuer := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	return NewAuthService(repo, issuer, testLogger())
}

func seedAccount(t *testing.T, repo storage.Repository) core.User {
	t.Helper()
	user, _, err := testAuthService(repo).Register(context.Background(), "Test User", "test@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestAuthServiceRegister(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := testAuthService(repo)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Ada", "Ada@Example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if user.Preferences != core.DefaultPreferences() {
		t.Fatalf("preferences = %+v, want defaults", user.Preferences)
	}

	// Taken email.
	if _, _, err := svc.Register(ctx, "Eve", "ada@example.com", "password123"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: err = %v, want ErrConflict", err)
	}

	// Bad inputs.
	if _, _, err := svc.Register(ctx, "", "x@example.com", "password123"); !core.IsValidation(err) {
		t.Fatalf("empty name: err = %v, want validation error", err)
	}
	if _, _, err := svc.Register(ctx, "Bob", "not-an-email", "password123"); !core.IsValidation(err) {
		t.Fatalf("bad email: err = %v, want validation error", err)
	}
	if _, _, err := svc.Register(ctx, "Bob", "bob@example.com", "short"); !core.IsValidation(err) {
		t.Fatalf("short password: err = %v, want validation error", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := testAuthService(repo)
	ctx := context.Background()

	registered := seedAccount(t, repo)

	user, token, err := svc.Login(ctx, "test@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != registered.ID || token == "" {
		t.Fatalf("login = %+v, token %q", user, token)
	}

	// Wrong password and unknown email produce the same error.
	if _, _, err := svc.Login(ctx, "test@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v", err)
	}
}

func TestExpenseServiceCreate(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	pub := &fakePublisher{}
	svc := NewExpenseService(repo, pub, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, user.ID, core.Expense{
		Amount: core.Cents(1299),
		Date:   core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if created.Currency != "USD" {
		t.Fatalf("currency should default from preferences, got %q", created.Currency)
	}

	// A budget alert was queued and published.
	pending, err := repo.PendingEvents(ctx, 10)
	if err != nil {
		t.Fatalf("PendingEvents: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != storage.EventBudgetAlert {
		t.Fatalf("pending = %+v", pending)
	}
	if len(pub.published) != 1 || pub.published[0] != pending[0].ID {
		t.Fatalf("published = %v", pub.published)
	}

	// Validation failures leave nothing behind.
	if _, err := svc.Create(ctx, user.ID, core.Expense{Amount: core.Cents(-5), Date: core.NewDate(2024, 3, 1)}); !core.IsValidation(err) {
		t.Fatalf("negative amount: err = %v", err)
	}
	list, _ := svc.List(ctx, user.ID)
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}
}

func TestExpenseServicePublishFailureDoesNotFailWrite(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	svc := NewExpenseService(repo, &fakePublisher{fail: true}, testLogger())

	if _, err := svc.Create(context.Background(), user.ID, core.Expense{
		Amount: core.Cents(100), Date: core.NewDate(2024, 1, 1),
	}); err != nil {
		t.Fatalf("Create should succeed despite publish failure: %v", err)
	}

	// The event stays pending for the sweep.
	pending, _ := repo.PendingEvents(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestGoalServiceCreateStartsAtZero(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	svc := NewGoalService(repo, nil, testLogger())

	goal, err := svc.Create(context.Background(), user.ID, core.SavingsGoal{
		Name:          "Vacation",
		TargetAmount:  core.Cents(100000),
		CurrentAmount: core.Cents(55555), // ignored
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if goal.CurrentAmount.Cents != 0 {
		t.Fatalf("current = %d, want 0", goal.CurrentAmount.Cents)
	}
	if goal.Currency != "USD" {
		t.Fatalf("currency = %q", goal.Currency)
	}
}

func TestGoalServiceUpdateProgress(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	svc := NewGoalService(repo, nil, testLogger())
	ctx := context.Background()

	goal, err := svc.Create(ctx, user.ID, core.SavingsGoal{Name: "Car", TargetAmount: core.Cents(8000)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Two +50 contributions on an 80 target end clamped at the target.
	if _, err := svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(5000), core.ProgressIncremental); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(5000), core.ProgressIncremental)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if got.CurrentAmount.Cents != 8000 {
		t.Fatalf("current = %d, want clamp at 8000", got.CurrentAmount.Cents)
	}

	// Absolute mode replaces; negatives clamp to zero.
	got, err = svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(-100), core.ProgressAbsolute)
	if err != nil {
		t.Fatalf("UpdateProgress absolute: %v", err)
	}
	if got.CurrentAmount.Cents != 0 {
		t.Fatalf("current = %d, want 0", got.CurrentAmount.Cents)
	}

	// Rejected inputs.
	if _, err := svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(-1), core.ProgressIncremental); !core.IsValidation(err) {
		t.Fatalf("negative incremental: err = %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(1), "sideways"); !core.IsValidation(err) {
		t.Fatalf("bad mode: err = %v", err)
	}
	if _, err := svc.UpdateProgress(ctx, user.ID, "missing", core.Cents(1), core.ProgressAbsolute); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing goal: err = %v", err)
	}
}

func TestGoalServiceMilestones(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	pub := &fakePublisher{}
	svc := NewGoalService(repo, pub, testLogger())
	ctx := context.Background()

	goal, _ := svc.Create(ctx, user.ID, core.SavingsGoal{Name: "House", TargetAmount: core.Cents(10000)})

	// 0 -> 40: no milestone.
	svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(4000), core.ProgressAbsolute)
	pending, _ := repo.PendingEvents(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("no milestone crossed yet, pending = %+v", pending)
	}

	// 40 -> 60: crosses 50.
	svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(6000), core.ProgressAbsolute)
	pending, _ = repo.PendingEvents(ctx, 10)
	if len(pending) != 1 || pending[0].Kind != storage.EventGoalProgress {
		t.Fatalf("pending = %+v", pending)
	}

	// 60 -> 65: no new milestone; 50 fires only once.
	svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(6500), core.ProgressAbsolute)
	pending, _ = repo.PendingEvents(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("milestone should fire once, pending = %+v", pending)
	}

	// 65 -> 100: crosses 75 and 100; only the highest fires.
	svc.UpdateProgress(ctx, user.ID, goal.ID, core.Cents(10000), core.ProgressAbsolute)
	pending, _ = repo.PendingEvents(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestCrossedMilestone(t *testing.T) {
	cases := []struct {
		before, after float64
		want          int
	}{
		{0, 40, 0},
		{40, 50, 50},
		{50, 74, 0},
		{40, 80, 75},
		{74, 75, 75},
		{80, 100, 100},
		{0, 100, 100},
		{100, 100, 0},
	}
	for _, tc := range cases {
		if got := crossedMilestone(tc.before, tc.after); got != tc.want {
			t.Errorf("crossedMilestone(%v, %v) = %d, want %d", tc.before, tc.after, got, tc.want)
		}
	}
}

func TestCategoryService(t *testing.T) {
	repo := storage.NewMemoryRepository()
	user := seedAccount(t, repo)
	svc := NewCategoryService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, user.ID, core.Category{Name: "Food", Icon: "nonsense"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Icon != core.IconOther {
		t.Fatalf("unknown icon should fall back, got %q", created.Icon)
	}

	if _, err := svc.Create(ctx, user.ID, core.Category{Name: "Food"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate name: err = %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, core.Category{Name: "  "}); !core.IsValidation(err) {
		t.Fatalf("blank name: err = %v", err)
	}
}
