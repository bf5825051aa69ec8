package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nomoney/internal/core"
	"nomoney/internal/storage"
)

// CategoryService runs the category lifecycle rules before touching storage.
type CategoryService struct {
	storage *storage.Repository
}

func NewCategoryService(storage *storage.Repository) *CategoryService {
	return &CategoryService{storage: storage}
}

// ListCategories returns the full category registry.
func (s *CategoryService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.storage.ListCategories(ctx)
}

// GetCategory returns one category by id.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.storage.GetCategory(ctx, id)
}

// CreateCategory creates a user category after the name passes the lifecycle
// rules.
func (s *CategoryService) CreateCategory(ctx context.Context, name, color string) (core.Category, error) {
	name = strings.TrimSpace(name)

	all, err := s.storage.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	if err := core.CanCreate(name, all); err != nil {
		return core.Category{}, err
	}

	created, err := s.storage.CreateCategory(ctx, name, color)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", created.ID, "name", created.Name, "color", created.Color)

	return created, nil
}

// UpdateCategory renames and recolors a category. Renames go through the
// lifecycle rules; a pure color change on a default category is allowed.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name, color string) (core.Category, error) {
	name = strings.TrimSpace(name)

	cat, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	all, err := s.storage.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	if err := core.CanRename(cat, name, all); err != nil {
		return core.Category{}, err
	}

	cat.Name = name
	if color != "" {
		cat.Color = color
	}

	updated, err := s.storage.UpdateCategory(ctx, cat)
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category updated",
		"id", updated.ID, "name", updated.Name, "color", updated.Color)

	return updated, nil
}

// DeleteCategory removes a category once the lifecycle rules allow it.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	cat, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.storage.CountExpensesForCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses: %w", err)
	}
	if err := core.CanDelete(cat, count); err != nil {
		return err
	}

	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "id", id, "name", cat.Name)

	return nil
}

// ResetDefaultCategories restores the seeded default categories without
// touching user-created ones.
func (s *CategoryService) ResetDefaultCategories(ctx context.Context) ([]core.Category, error) {
	if err := s.storage.ResetDefaultCategories(ctx); err != nil {
		return nil, err
	}
	return s.storage.ListCategories(ctx)
}
