package product

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	pkgvalidator "github.com/velesk/marketplace-api/internal/pkg/validator"
)

// Service handles product business logic
type Service struct {
	repo       domain.ProductRepository
	categories domain.CategoryRepository
	validate   *validator.Validate
	logger     *logger.Logger
}

// NewService creates a new product service
func NewService(repo domain.ProductRepository, categories domain.CategoryRepository, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		validate:   pkgvalidator.Get(),
		logger:     log,
	}
}

// Create creates a new product owned by the authenticated seller
func (s *Service) Create(ctx context.Context, ident domain.Identity, product *domain.Product) error {
	if !ident.Role.CanSellProducts() {
		return domain.ErrForbidden
	}

	product.SellerID = ident.UserID

	if err := s.validate.Struct(product); err != nil {
		s.logger.Error("Product validation failed", err)
		return domain.ErrInvalidInput
	}

	if _, err := s.categories.GetByID(ctx, product.CategoryID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"seller_id":  product.SellerID,
		"name":       product.Name,
	}).Info("Product created successfully")

	return nil
}

// GetByID retrieves an active product by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	return product, nil
}

// List retrieves a paginated list of active products
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// Delete soft-deletes a product. Owning seller or admin only.
func (s *Service) Delete(ctx context.Context, ident domain.Identity, id uuid.UUID) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !ident.Role.CanDeleteProduct(ident.UserID, product.SellerID) {
		return domain.ErrForbidden
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
		"deleted_by": ident.UserID,
	}).Info("Product deleted successfully")

	return nil
}
