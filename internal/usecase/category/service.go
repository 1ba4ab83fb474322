package category

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	pkgvalidator "github.com/velesk/marketplace-api/internal/pkg/validator"
)

// Service handles category business logic
type Service struct {
	repo     domain.CategoryRepository
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new category service
func NewService(repo domain.CategoryRepository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// ListActive returns all active categories
func (s *Service) ListActive(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}

	return categories, nil
}

// Create creates a new category. Admin only; a parent, when given, must be
// an existing active category.
func (s *Service) Create(ctx context.Context, ident domain.Identity, category *domain.Category) error {
	if !ident.Role.CanManageCategories() {
		return domain.ErrForbidden
	}

	if err := s.validate.Struct(category); err != nil {
		s.logger.Error("Category validation failed", err)
		return domain.ErrInvalidInput
	}

	if category.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *category.ParentID); err != nil {
			return err
		}
	}

	if err := s.repo.Create(ctx, category); err != nil {
		s.logger.Error("Failed to create category", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	}).Info("Category created successfully")

	return nil
}
