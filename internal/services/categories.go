package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/records"
)

// categoryPalette provides colors for auto-created categories.
var categoryPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// pickColor returns a random palette color not yet used by an existing
// category, or any palette color once all are taken.
func pickColor(existing []core.Category) string {
	used := map[string]bool{}
	for _, c := range existing {
		used[c.Color] = true
	}
	var free []string
	for _, color := range categoryPalette {
		if !used[color] {
			free = append(free, color)
		}
	}
	if len(free) == 0 {
		free = categoryPalette
	}
	return free[rand.IntN(len(free))]
}

// CategoryService manages the category taxonomy.
type CategoryService struct {
	store records.Store
}

func NewCategoryService(store records.Store) *CategoryService {
	return &CategoryService{store: store}
}

// Resolve returns the category with the given name, creating it with a
// palette color when it does not exist yet. Matching is case-insensitive, so
// "groceries" resolves to an existing "Groceries".
func (s *CategoryService) Resolve(ctx context.Context, name string) (core.Category, error) {
	c, err := s.store.GetCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("resolve category: %w", err)
	}

	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}

	created, err := s.store.CreateCategory(ctx, core.Category{
		Name:  name,
		Color: pickColor(existing),
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category auto-created", "name", created.Name, "color", created.Color)
	return created, nil
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.store.UpdateCategory(ctx, c)
}

// Delete removes a category. Refused while an active recurring or large
// definition still references it; expense rows are removed by the storage
// layer's cascade.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	recurring, err := s.store.ListActiveRecurring(ctx)
	if err != nil {
		return fmt.Errorf("list active recurring expenses: %w", err)
	}
	for _, re := range recurring {
		if re.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}

	large, err := s.store.ListActiveLarge(ctx)
	if err != nil {
		return fmt.Errorf("list active large expenses: %w", err)
	}
	for _, le := range large {
		if le.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}

	return s.store.DeleteCategory(ctx, id)
}
