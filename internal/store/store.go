// Package store holds the in-memory domain state for one authenticated
// user's session: the normalized entity collections plus the active expense
// filter. A Store is an explicit value passed to its consumers; there is no
// package-level singleton.
//
// All mutations are atomic single-step updates behind one mutex; readers get
// copied snapshots, so a Store is safe to share with background sync
// goroutines. Failed mutations leave the collections untouched.
package store

import (
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type Store struct {
	mu         sync.RWMutex
	categories []core.Category
	expenses   []core.Expense
	goals      []core.SavingsGoal
	prefs      core.UserPreferences
	filter     Filter

	// newID generates fresh entity ids; swapped out in tests for
	// deterministic values.
	newID func() string
}

// New returns an empty store with default preferences.
func New() *Store {
	return &Store{
		prefs: core.DefaultPreferences(),
		newID: uuid.NewString,
	}
}

// SetIDGenerator overrides fresh-id generation. Intended for tests.
func (s *Store) SetIDGenerator(gen func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newID = gen
}

// ReplaceCategories installs a server snapshot wholesale, preserving the
// given order as insertion order.
func (s *Store) ReplaceCategories(cats []core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]core.Category(nil), cats...)
}

// ReplaceExpenses installs a server snapshot wholesale.
func (s *Store) ReplaceExpenses(exps []core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append([]core.Expense(nil), exps...)
}

// ReplaceGoals installs a server snapshot wholesale.
func (s *Store) ReplaceGoals(goals []core.SavingsGoal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append([]core.SavingsGoal(nil), goals...)
}

// SetPreferences installs a full preferences record.
func (s *Store) SetPreferences(p core.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
}
