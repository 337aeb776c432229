package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateWithin(t *testing.T) {
	d := NewDate(2024, 2, 15)
	cases := []struct {
		start, end Date
		want       bool
	}{
		{Date{}, Date{}, true},                            // no constraint
		{NewDate(2024, 2, 1), NewDate(2024, 2, 28), true}, // inside
		{NewDate(2024, 2, 15), Date{}, true},              // start inclusive
		{Date{}, NewDate(2024, 2, 15), true},              // end inclusive
		{NewDate(2024, 2, 16), Date{}, false},
		{Date{}, NewDate(2024, 2, 14), false},
	}
	for i, tc := range cases {
		if got := d.Within(tc.start, tc.end); got != tc.want {
			t.Fatalf("case %d Within(%v, %v) = %v, want %v", i, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestDatePreviousMonth(t *testing.T) {
	if got := NewDate(2024, 2, 15).PreviousMonth(); got.Year() != 2024 || got.Month() != 1 {
		t.Fatalf("got %v", got)
	}
	// January rolls back into December of the prior year.
	if got := NewDate(2024, 1, 3).PreviousMonth(); got.Year() != 2023 || got.Month() != 12 {
		t.Fatalf("got %v", got)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:     Cents(1234),
		CategoryID: "c1",
		Date:       NewDate(2024, 1, 5),
		Currency:   "USD",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Zero amounts are allowed; negatives are not.
	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should validate, got %v", err)
	}
	neg := good
	neg.Amount = Cents(-1)
	if err := neg.Validate(); !IsValidation(err) {
		t.Fatalf("expected ValidationError for negative amount, got %v", err)
	}
}

func TestExpenseRecurringInvariant(t *testing.T) {
	base := Expense{Amount: Cents(100), Date: NewDate(2024, 1, 5), Currency: "USD"}

	cases := []struct {
		recurring bool
		freq      RecurringFrequency
		ok        bool
	}{
		{true, Monthly, true},
		{true, "", false},          // recurring without frequency
		{true, "fortnight", false}, // unknown frequency
		{false, "", true},
		{false, Monthly, false}, // frequency must be absent when not recurring
	}
	for i, tc := range cases {
		e := base
		e.IsRecurring = tc.recurring
		e.RecurringFrequency = tc.freq
		err := e.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !IsValidation(err) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
	}
}

func TestSavingsGoalClamp(t *testing.T) {
	g := SavingsGoal{Name: "Trip", TargetAmount: Cents(8000), CurrentAmount: Cents(10000)}
	g.Clamp()
	if g.CurrentAmount.Cents != 8000 {
		t.Fatalf("expected clamp to target, got %d", g.CurrentAmount.Cents)
	}
	g.CurrentAmount = Cents(-50)
	g.Clamp()
	if g.CurrentAmount.Cents != 0 {
		t.Fatalf("expected clamp to zero, got %d", g.CurrentAmount.Cents)
	}
}

func TestSavingsGoalDerived(t *testing.T) {
	today := NewDate(2024, 6, 1)

	g := SavingsGoal{TargetAmount: Cents(8000), CurrentAmount: Cents(6000)}
	if p := g.ProgressPercent(); p != 75 {
		t.Fatalf("progress = %v, want 75", p)
	}
	if g.IsCompleted() {
		t.Fatalf("incomplete goal reported completed")
	}

	g.CurrentAmount = Cents(8000)
	if !g.IsCompleted() {
		t.Fatalf("funded goal not completed")
	}

	// Completed goals are never overdue, even past deadline.
	g.Deadline = NewDate(2024, 1, 1)
	if g.IsOverdue(today) {
		t.Fatalf("completed goal reported overdue")
	}
	g.CurrentAmount = Cents(100)
	if !g.IsOverdue(today) {
		t.Fatalf("expected overdue")
	}
	g.Deadline = Date{}
	if g.IsOverdue(today) {
		t.Fatalf("goal without deadline reported overdue")
	}
}

func TestThemeValid(t *testing.T) {
	for _, th := range []Theme{ThemeLight, ThemeDark, ThemeSystem} {
		if !th.Valid() {
			t.Fatalf("theme %q should be valid", th)
		}
	}
	if Theme("sepia").Valid() {
		t.Fatalf("unknown theme accepted")
	}
}
