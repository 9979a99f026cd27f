package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/validate"
)

// Invalidator drops a user's cached analytics after a write.
type Invalidator interface {
	Invalidate(userID string)
}

// CategoryService orchestrates category operations over the repository.
type CategoryService struct {
	storage     *storage.Repository
	invalidator Invalidator
}

func NewCategoryService(storage *storage.Repository, invalidator Invalidator) *CategoryService {
	return &CategoryService{storage: storage, invalidator: invalidator}
}

// List returns one page of categories with stats plus the total match count.
func (s *CategoryService) List(ctx context.Context, userID string, q *validate.CategoryQuery) ([]core.CategoryWithStats, int64, error) {
	filter := storage.CategoryFilter{
		Type:   q.Type,
		Status: q.Status,
		Search: q.Search,
	}
	return s.storage.ListCategories(ctx, userID, filter, pageSort(q.Pagination, q.Sort))
}

// Get returns one category with stats.
func (s *CategoryService) Get(ctx context.Context, userID, id string) (*core.CategoryWithStats, error) {
	return s.storage.GetCategory(ctx, userID, id)
}

// Create inserts a new category and returns the enriched row.
func (s *CategoryService) Create(ctx context.Context, userID string, in *validate.CategoryInput) (*core.CategoryWithStats, error) {
	c := &core.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Icon:        in.Icon,
		Color:       in.Color,
		Budget:      in.Budget,
		Status:      in.Status,
		Priority:    in.Priority,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
		UserID:      userID,
	}
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Category created",
		"category_id", c.ID,
		"name", c.Name,
		"type", c.Type)

	return &core.CategoryWithStats{Category: *c}, nil
}

// Update applies a partial update. A type change is only permitted while
// no transactions reference the category.
func (s *CategoryService) Update(ctx context.Context, userID, id string, patch *validate.CategoryPatch) (*core.CategoryWithStats, error) {
	existing, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	c := existing.Category

	if patch.Type != nil && *patch.Type != c.Type {
		count, err := s.storage.CountCategoryTransactions(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, core.ErrTypeMismatch
		}
		c.Type = *patch.Type
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.Budget != nil {
		c.Budget = patch.Budget
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	if patch.HasTags {
		c.Tags = patch.Tags
	}
	if patch.Metadata != nil {
		c.Metadata = *patch.Metadata
	}

	if err := s.storage.UpdateCategory(ctx, &c); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Category updated", "category_id", id)

	return s.storage.GetCategory(ctx, userID, id)
}

// Delete removes a category, archiving it instead when transaction
// history references it. Reports whether the category was archived.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) (bool, error) {
	archived, err := s.storage.DeleteCategory(ctx, userID, id)
	if err != nil {
		return false, err
	}
	s.invalidator.Invalidate(userID)

	slog.InfoContext(ctx, "Category deleted",
		"category_id", id,
		"archived", archived)

	return archived, nil
}

// Stats returns the portfolio-level category totals.
func (s *CategoryService) Stats(ctx context.Context, userID string) (core.CategoryTotals, error) {
	totals, err := s.storage.CategoryTotals(ctx, userID)
	if err != nil {
		return totals, fmt.Errorf("category stats: %w", err)
	}
	return totals, nil
}

func pageSort(p validate.Pagination, s validate.SortSpec) storage.PageSort {
	return storage.PageSort{
		Limit:     p.Limit,
		Offset:    p.Offset(),
		SortBy:    s.By,
		SortOrder: s.Order,
	}
}
