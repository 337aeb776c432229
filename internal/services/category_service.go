package services

import (
	"context"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// CategoryService persists category mutations. Name uniqueness per user is
// enforced at the storage layer and surfaces as core.ErrConflict.
type CategoryService struct {
	repo  storage.Repository
	newID func() string
}

func NewCategoryService(repo storage.Repository) *CategoryService {
	return &CategoryService{repo: repo, newID: uuid.NewString}
}

// Create validates and persists a new category. Unknown icons fall back to
// the generic one.
func (s *CategoryService) Create(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.Icon = core.LookupIcon(string(c.Icon))

	c.ID = s.newID()
	if err := s.repo.CreateCategory(ctx, userID, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Update validates and replaces an existing category.
func (s *CategoryService) Update(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.Icon = core.LookupIcon(string(c.Icon))

	if err := s.repo.UpdateCategory(ctx, userID, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Delete removes a category. Expenses keep their dangling reference and
// resolve to the uncategorized display name.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}

// List returns the user's categories in insertion order.
func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}
