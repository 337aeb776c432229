package store

import (
	"sort"
	"strings"

	"fintrack/internal/core"
)

// Filter narrows FilteredExpenses. Every field is independently optional:
// zero dates, an empty category id, nil amounts and an empty search term
// mean "no constraint".
type Filter struct {
	StartDate  core.Date
	EndDate    core.Date
	CategoryID string
	MinAmount  *core.Money
	MaxAmount  *core.Money
	SearchTerm string
}

// FilterPatch merges into the active filter; nil fields keep the prior
// value. To lift a single constraint, patch it with a pointer to its zero
// value.
type FilterPatch struct {
	StartDate  *core.Date
	EndDate    *core.Date
	CategoryID *string
	MinAmount  **core.Money
	MaxAmount  **core.Money
	SearchTerm *string
}

// ExpenseInput carries the caller-supplied fields for a new expense.
type ExpenseInput struct {
	Amount             core.Money
	CategoryID         string
	Date               core.Date
	Notes              string
	Currency           string
	IsRecurring        bool
	RecurringFrequency core.RecurringFrequency
}

// ExpensePatch merges into an existing expense; nil fields keep the prior
// value. IsRecurring and RecurringFrequency are validated together after the
// merge.
type ExpensePatch struct {
	Amount             *core.Money
	CategoryID         *string
	Date               *core.Date
	Notes              *string
	Currency           *string
	IsRecurring        *bool
	RecurringFrequency *core.RecurringFrequency
}

// AddExpense validates, assigns a fresh id and appends.
func (s *Store) AddExpense(in ExpenseInput) (core.Expense, error) {
	exp := core.Expense{
		Amount:             in.Amount,
		CategoryID:         in.CategoryID,
		Date:               in.Date,
		Notes:              in.Notes,
		Currency:           in.Currency,
		IsRecurring:        in.IsRecurring,
		RecurringFrequency: in.RecurringFrequency,
	}
	if exp.Currency == "" {
		exp.Currency = core.DefaultCurrency
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exp.ID = s.newID()
	s.expenses = append(s.expenses, exp)
	return exp, nil
}

// UpdateExpense merges patch fields into the record with the given id. The
// merged record must still satisfy the expense invariants; on validation
// failure the stored record is unchanged.
func (s *Store) UpdateExpense(id string, patch ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.expenseIndex(id)
	if idx < 0 {
		return core.Expense{}, core.ErrNotFound
	}

	merged := s.expenses[idx]
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
		if !merged.IsRecurring && patch.RecurringFrequency == nil {
			// Turning recurrence off drops the stale frequency rather
			// than failing the merged-record invariant.
			merged.RecurringFrequency = ""
		}
	}
	if patch.RecurringFrequency != nil {
		merged.RecurringFrequency = *patch.RecurringFrequency
	}
	if err := merged.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.expenses[idx] = merged
	return merged, nil
}

// RemoveExpense drops the record by id; unknown ids are a no-op.
func (s *Store) RemoveExpense(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
}

// Expenses returns a copy of the collection in insertion order.
func (s *Store) Expenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.expenses...)
}

// SetFilter merges the patch into the active filter.
func (s *Store) SetFilter(patch FilterPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.StartDate != nil {
		s.filter.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		s.filter.EndDate = *patch.EndDate
	}
	if patch.CategoryID != nil {
		s.filter.CategoryID = *patch.CategoryID
	}
	if patch.MinAmount != nil {
		s.filter.MinAmount = *patch.MinAmount
	}
	if patch.MaxAmount != nil {
		s.filter.MaxAmount = *patch.MaxAmount
	}
	if patch.SearchTerm != nil {
		s.filter.SearchTerm = *patch.SearchTerm
	}
}

// ClearFilter resets every constraint.
func (s *Store) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = Filter{}
}

// ActiveFilter returns the current filter state.
func (s *Store) ActiveFilter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// FilteredExpenses applies the active filter and returns matches sorted by
// date descending. The sort is stable: same-day expenses keep insertion
// order. The free-text term matches, case-insensitively, against the
// resolved category name concatenated with the notes, so expenses with a
// dangling category match "uncategorized".
func (s *Store) FilteredExpenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.filter
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))

	var out []core.Expense
	for _, e := range s.expenses {
		if !e.Date.Within(f.StartDate, f.EndDate) {
			continue
		}
		if f.CategoryID != "" && e.CategoryID != f.CategoryID {
			continue
		}
		if f.MinAmount != nil && e.Amount.Cents < f.MinAmount.Cents {
			continue
		}
		if f.MaxAmount != nil && e.Amount.Cents > f.MaxAmount.Cents {
			continue
		}
		if term != "" {
			haystack := strings.ToLower(s.categoryNameLocked(e.CategoryID) + " " + e.Notes)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

func (s *Store) expenseIndex(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}
