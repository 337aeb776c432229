package store

import (
	"errors"
	"strconv"
	"testing"

	"fintrack/internal/core"
)

// seqIDs makes id assignment deterministic for assertions.
func seqIDs(s *Store) {
	n := 0
	s.SetIDGenerator(func() string {
		n++
		return "id-" + strconv.Itoa(n)
	})
}

func TestAddCategoryAssignsFreshID(t *testing.T) {
	s := New()
	seqIDs(s)

	first, err := s.AddCategory(CategoryInput{Name: "Food", Icon: "food", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := s.AddCategory(CategoryInput{Name: "Travel"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct fresh ids, got %q and %q", first.ID, second.ID)
	}

	cats := s.Categories()
	if len(cats) != 2 || cats[0].Name != "Food" || cats[1].Name != "Travel" {
		t.Fatalf("unexpected listing: %+v", cats)
	}
}

func TestAddCategoryEmptyName(t *testing.T) {
	s := New()
	if _, err := s.AddCategory(CategoryInput{Name: "   "}); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(s.Categories()) != 0 {
		t.Fatalf("failed add must not mutate the collection")
	}
}

func TestUpdateCategoryMergesPartial(t *testing.T) {
	s := New()
	seqIDs(s)
	cat, _ := s.AddCategory(CategoryInput{Name: "Food", Icon: "food", Color: "#ff0000"})

	name := "Groceries"
	got, err := s.UpdateCategory(cat.ID, CategoryPatch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Groceries" || got.Icon != core.IconFood || got.Color != "#ff0000" {
		t.Fatalf("partial merge lost fields: %+v", got)
	}

	if _, err := s.UpdateCategory("missing", CategoryPatch{Name: &name}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveCategoryIsIdempotentAndDoesNotCascade(t *testing.T) {
	s := New()
	seqIDs(s)
	cat, _ := s.AddCategory(CategoryInput{Name: "Food"})
	exp, _ := s.AddExpense(ExpenseInput{Amount: core.Cents(1000), CategoryID: cat.ID, Date: core.NewDate(2024, 1, 5)})

	s.RemoveCategory(cat.ID)
	s.RemoveCategory(cat.ID) // second remove is a no-op

	exps := s.Expenses()
	if len(exps) != 1 || exps[0].CategoryID != cat.ID {
		t.Fatalf("expense categoryId must stay dangling, got %+v", exps)
	}
	if got := s.CategoryName(exp.CategoryID); got != core.UncategorizedName {
		t.Fatalf("dangling reference resolved to %q, want %q", got, core.UncategorizedName)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	s := New()
	seqIDs(s)

	if _, err := s.AddExpense(ExpenseInput{Amount: core.Cents(-1), Date: core.NewDate(2024, 1, 1)}); !core.IsValidation(err) {
		t.Fatalf("negative amount: expected ValidationError, got %v", err)
	}
	if _, err := s.AddExpense(ExpenseInput{Amount: core.Cents(100), Date: core.NewDate(2024, 1, 1), IsRecurring: true}); !core.IsValidation(err) {
		t.Fatalf("recurring without frequency: expected ValidationError, got %v", err)
	}

	exp, err := s.AddExpense(ExpenseInput{Amount: core.Cents(100), Date: core.NewDate(2024, 1, 1)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if exp.Currency != core.DefaultCurrency {
		t.Fatalf("default currency not applied: %q", exp.Currency)
	}
}

func TestUpdateExpenseRecurringMerge(t *testing.T) {
	s := New()
	seqIDs(s)
	exp, _ := s.AddExpense(ExpenseInput{
		Amount:             core.Cents(100),
		Date:               core.NewDate(2024, 1, 1),
		IsRecurring:        true,
		RecurringFrequency: core.Monthly,
	})

	// Turning recurrence off drops the frequency instead of failing.
	off := false
	got, err := s.UpdateExpense(exp.ID, ExpensePatch{IsRecurring: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.IsRecurring || got.RecurringFrequency != "" {
		t.Fatalf("expected recurrence cleared, got %+v", got)
	}

	// Turning it on without a frequency fails and leaves the record alone.
	on := true
	if _, err := s.UpdateExpense(exp.ID, ExpensePatch{IsRecurring: &on}); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if cur := s.Expenses()[0]; cur.IsRecurring {
		t.Fatalf("failed update mutated the record: %+v", cur)
	}
}

func TestFilteredExpensesByCategory(t *testing.T) {
	s := New()
	seqIDs(s)
	catX, _ := s.AddCategory(CategoryInput{Name: "X"})
	catY, _ := s.AddCategory(CategoryInput{Name: "Y"})
	s.AddExpense(ExpenseInput{Amount: core.Cents(100), CategoryID: catX.ID, Date: core.NewDate(2024, 1, 1)})
	s.AddExpense(ExpenseInput{Amount: core.Cents(200), CategoryID: catY.ID, Date: core.NewDate(2024, 1, 2)})

	s.SetFilter(FilterPatch{CategoryID: &catX.ID})
	got := s.FilteredExpenses()
	if len(got) != 1 || got[0].CategoryID != catX.ID {
		t.Fatalf("category filter leaked records: %+v", got)
	}
}

func TestFilteredExpensesDefaultSortDateDescending(t *testing.T) {
	s := New()
	seqIDs(s)
	s.AddExpense(ExpenseInput{Amount: core.Cents(100), Date: core.NewDate(2024, 1, 5), Notes: "old"})
	s.AddExpense(ExpenseInput{Amount: core.Cents(200), Date: core.NewDate(2024, 3, 5), Notes: "new"})
	s.AddExpense(ExpenseInput{Amount: core.Cents(300), Date: core.NewDate(2024, 3, 5), Notes: "new-later"})

	got := s.FilteredExpenses()
	if len(got) != 3 {
		t.Fatalf("expected full set with empty filter, got %d", len(got))
	}
	if got[0].Notes != "new" || got[1].Notes != "new-later" || got[2].Notes != "old" {
		t.Fatalf("want date desc with stable ties, got %q %q %q", got[0].Notes, got[1].Notes, got[2].Notes)
	}
}

func TestFilteredExpensesDateRangeEndInclusive(t *testing.T) {
	s := New()
	seqIDs(s)
	s.AddExpense(ExpenseInput{Amount: core.Cents(100), Date: core.NewDate(2024, 1, 31)})
	s.AddExpense(ExpenseInput{Amount: core.Cents(200), Date: core.NewDate(2024, 2, 1)})

	start := core.NewDate(2024, 1, 1)
	end := core.NewDate(2024, 1, 31)
	s.SetFilter(FilterPatch{StartDate: &start, EndDate: &end})

	got := s.FilteredExpenses()
	if len(got) != 1 || got[0].Date.Day() != 31 {
		// The end bound covers the whole end day.
		t.Fatalf("end date must be inclusive, got %+v", got)
	}
}

func TestFilteredExpensesAmountRangeAndSearch(t *testing.T) {
	s := New()
	seqIDs(s)
	cat, _ := s.AddCategory(CategoryInput{Name: "Food"})
	s.AddExpense(ExpenseInput{Amount: core.Cents(500), CategoryID: cat.ID, Date: core.NewDate(2024, 1, 1), Notes: "lunch downtown"})
	s.AddExpense(ExpenseInput{Amount: core.Cents(5000), CategoryID: cat.ID, Date: core.NewDate(2024, 1, 2), Notes: "dinner"})

	min := core.Cents(1000)
	minPtr := &min
	s.SetFilter(FilterPatch{MinAmount: &minPtr})
	if got := s.FilteredExpenses(); len(got) != 1 || got[0].Amount.Cents != 5000 {
		t.Fatalf("min amount filter: %+v", got)
	}

	s.ClearFilter()
	term := "FOOD"
	s.SetFilter(FilterPatch{SearchTerm: &term})
	if got := s.FilteredExpenses(); len(got) != 2 {
		// Case-insensitive match against the resolved category name.
		t.Fatalf("search by category name: %+v", got)
	}

	term = "lunch"
	s.SetFilter(FilterPatch{SearchTerm: &term})
	if got := s.FilteredExpenses(); len(got) != 1 || got[0].Notes != "lunch downtown" {
		t.Fatalf("search by notes: %+v", got)
	}
}

func TestClearFilterReturnsFullSet(t *testing.T) {
	s := New()
	seqIDs(s)
	s.AddExpense(ExpenseInput{Amount: core.Cents(100), Date: core.NewDate(2024, 1, 1)})
	id := "nope"
	s.SetFilter(FilterPatch{CategoryID: &id})
	if got := s.FilteredExpenses(); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	s.ClearFilter()
	if got := s.FilteredExpenses(); len(got) != 1 {
		t.Fatalf("expected full set after clear, got %+v", got)
	}
}

func TestAddGoalForcesZeroCurrentAmount(t *testing.T) {
	s := New()
	seqIDs(s)
	goal, err := s.AddGoal(GoalInput{Name: "Trip", TargetAmount: core.Cents(8000)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if goal.CurrentAmount.Cents != 0 {
		t.Fatalf("new goals must start at zero, got %d", goal.CurrentAmount.Cents)
	}
}

func TestUpdateGoalProgressClamping(t *testing.T) {
	s := New()
	seqIDs(s)
	goal, _ := s.AddGoal(GoalInput{Name: "Trip", TargetAmount: core.Cents(8000)})

	// Two +50 increments on an 80 target clamp at 80, not 100.
	if _, err := s.UpdateGoalProgress(goal.ID, core.Cents(5000), Incremental); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	got, err := s.UpdateGoalProgress(goal.ID, core.Cents(5000), Incremental)
	if err != nil {
		t.Fatalf("second increment: %v", err)
	}
	if got.CurrentAmount.Cents != 8000 {
		t.Fatalf("currentAmount = %d, want 8000 (clamped)", got.CurrentAmount.Cents)
	}

	// Absolute mode replaces and clamps; negative sets clamp to zero.
	got, _ = s.UpdateGoalProgress(goal.ID, core.Cents(2500), Absolute)
	if got.CurrentAmount.Cents != 2500 {
		t.Fatalf("absolute set = %d", got.CurrentAmount.Cents)
	}
	got, _ = s.UpdateGoalProgress(goal.ID, core.Cents(-100), Absolute)
	if got.CurrentAmount.Cents != 0 {
		t.Fatalf("negative absolute should clamp to zero, got %d", got.CurrentAmount.Cents)
	}

	if _, err := s.UpdateGoalProgress(goal.ID, core.Cents(-100), Incremental); !core.IsValidation(err) {
		t.Fatalf("negative increment: expected ValidationError, got %v", err)
	}
	if _, err := s.UpdateGoalProgress("missing", core.Cents(1), Absolute); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGoalInvariantHoldsUnderProgressSequences(t *testing.T) {
	s := New()
	seqIDs(s)
	goal, _ := s.AddGoal(GoalInput{Name: "Fund", TargetAmount: core.Cents(10000)})

	steps := []struct {
		amount core.Money
		mode   ProgressMode
	}{
		{core.Cents(3000), Incremental},
		{core.Cents(9000), Absolute},
		{core.Cents(4000), Incremental},
		{core.Cents(-1), Absolute},
		{core.Cents(500), Incremental},
	}
	for i, st := range steps {
		got, err := s.UpdateGoalProgress(goal.ID, st.amount, st.mode)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got.CurrentAmount.Cents < 0 || got.CurrentAmount.Cents > got.TargetAmount.Cents {
			t.Fatalf("step %d broke invariant: %d", i, got.CurrentAmount.Cents)
		}
	}
}

func TestMergePreferences(t *testing.T) {
	s := New()

	dark := core.ThemeDark
	alerts := false
	got, err := s.MergePreferences(PreferencesPatch{Theme: &dark, BudgetAlerts: &alerts})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.Theme != core.ThemeDark || got.Notifications.BudgetAlerts {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	// Unspecified keys keep their defaults.
	if got.DefaultCurrency != "USD" || !got.Notifications.BillReminders || !got.Notifications.GoalProgress {
		t.Fatalf("unpatched fields lost: %+v", got)
	}

	bad := core.Theme("sepia")
	if _, err := s.MergePreferences(PreferencesPatch{Theme: &bad}); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
