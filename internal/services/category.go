package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
)

type categoryService struct {
	categoryRepo   domain.EventCategoryRepository
	contextTimeout time.Duration
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categoryRepo domain.EventCategoryRepository, timeout time.Duration) domain.CategoryService {
	return &categoryService{categoryRepo: categoryRepo, contextTimeout: timeout}
}

func (s *categoryService) CreateCategory(ctx context.Context, actor *domain.User, category *domain.EventCategory) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil || actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if err := category.Validate(); err != nil {
		return err
	}
	category.IsActive = true
	category.CreatedAt = time.Now()
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, actor *domain.User, category *domain.EventCategory) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil || actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *categoryService) GetCategory(ctx context.Context, id string) (*domain.EventCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.EventCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	categories, err := s.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []*domain.EventCategory{}
	}
	return categories, nil
}
