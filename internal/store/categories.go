package store

import "fintrack/internal/core"

// CategoryInput carries the caller-supplied fields for a new category.
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
}

// CategoryPatch merges into an existing category; nil fields keep the prior
// value.
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// AddCategory assigns a fresh id and appends. Name uniqueness per user is
// enforced at the persistence boundary, not here; a duplicate surfaces later
// as core.ErrConflict from the backend round-trip.
func (s *Store) AddCategory(in CategoryInput) (core.Category, error) {
	cat := core.Category{
		Name:  in.Name,
		Icon:  core.LookupIcon(in.Icon),
		Color: in.Color,
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cat.ID = s.newID()
	s.categories = append(s.categories, cat)
	return cat, nil
}

// UpdateCategory merges patch fields into the record with the given id.
func (s *Store) UpdateCategory(id string, patch CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.categoryIndex(id)
	if idx < 0 {
		return core.Category{}, core.ErrNotFound
	}

	merged := s.categories[idx]
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

	s.categories[idx] = merged
	return merged, nil
}

// RemoveCategory drops the record by id. Removing an unknown id is a no-op.
// Expenses referencing the removed category keep their categoryId; the
// dangling reference renders as core.UncategorizedName.
func (s *Store) RemoveCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
}

// Categories returns a copy of the collection in insertion order.
func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...)
}

// CategoryName resolves an id for display, falling back to
// core.UncategorizedName for dangling references.
func (s *Store) CategoryName(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoryNameLocked(id)
}

func (s *Store) categoryNameLocked(id string) string {
	for _, c := range s.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return core.UncategorizedName
}

func (s *Store) categoryIndex(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
