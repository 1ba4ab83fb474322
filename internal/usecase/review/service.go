package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	pkgvalidator "github.com/velesk/marketplace-api/internal/pkg/validator"
)

// ReviewCache defines the caching operations the service depends on
type ReviewCache interface {
	GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
	SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error
	InvalidateProductCache(ctx context.Context, productID uuid.UUID) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ProductID uuid.UUID `json:"product_id"`
	ReviewID  uuid.UUID `json:"review_id"`
}

// Service handles review business logic: authorization, the
// one-active-review-per-user-per-product rule and rating consistency are
// enforced here and in the transactional repository underneath.
type Service struct {
	repo      domain.ReviewRepository
	products  domain.ProductRepository
	cache     ReviewCache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	products domain.ProductRepository,
	cache ReviewCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// ListActive returns all active reviews
func (s *Service) ListActive(ctx context.Context) ([]*domain.Review, error) {
	reviews, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, err
	}

	return reviews, nil
}

// ListByProduct returns active reviews for a product. Returns ErrNotFound
// when the product is missing or inactive, never an empty list.
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Product not found: %s", productID)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	reviews, err := s.cache.GetReviewsList(ctx, productID)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s reviews", productID)
		return reviews, nil
	}

	reviews, err = s.repo.ListByProduct(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to list reviews by product", err)
		return nil, err
	}

	if err := s.cache.SetReviewsList(ctx, productID, reviews); err != nil {
		s.logger.Warnf("Failed to cache reviews for product %s: %v", productID, err)
	}

	return reviews, nil
}

// Create creates a review on behalf of the authenticated caller. Only buyers
// may review; the insert and the product rating recompute commit atomically.
func (s *Service) Create(ctx context.Context, ident domain.Identity, review *domain.Review) error {
	if !ident.Role.CanSubmitReview() {
		s.logger.WithFields(map[string]interface{}{
			"user_id": ident.UserID,
			"role":    ident.Role,
		}).Warn("Review create denied by role")
		return domain.ErrForbidden
	}

	review.UserID = ident.UserID

	if err := s.validate.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if err == domain.ErrAlreadyExists {
			s.logger.Debugf("User %s already reviewed product %s", ident.UserID, review.ProductID)
		} else if err != domain.ErrNotFound {
			s.logger.Error("Failed to create review", err)
		}
		return err
	}

	// Stale cache would show an incorrect rating and review list
	if err := s.cache.InvalidateProductCache(ctx, review.ProductID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", review.ProductID, err)
	}

	s.publishEvent(ctx, "review.created", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"user_id":    review.UserID,
		"grade":      review.Grade,
	}).Info("Review created successfully")

	return nil
}

// Delete soft-deletes a review on behalf of the authenticated caller.
// Admins delete any review, buyers only their own, sellers none. The status
// flip and the rating recompute commit atomically.
func (s *Service) Delete(ctx context.Context, ident domain.Identity, id uuid.UUID) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.Error("Failed to get review for deletion", err)
		}
		return nil, err
	}

	if !ident.Role.CanDeleteReview(ident.UserID, review.UserID) {
		s.logger.WithFields(map[string]interface{}{
			"review_id": id,
			"user_id":   ident.UserID,
			"role":      ident.Role,
		}).Warn("Review delete denied")
		return nil, domain.ErrForbidden
	}

	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete review", err)
		return nil, err
	}

	if err := s.cache.InvalidateProductCache(ctx, deleted.ProductID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", deleted.ProductID, err)
	}

	s.publishEvent(ctx, "review.deleted", deleted)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  deleted.ID,
		"product_id": deleted.ProductID,
		"deleted_by": ident.UserID,
	}).Info("Review deleted successfully")

	return deleted, nil
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(ctx context.Context, eventType string, review *domain.Review) {
	event := ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: review.ProductID,
		ReviewID:  review.ID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	// Publish in background to avoid blocking the request
	go func() {
		if err := s.publisher.Publish(context.Background(), "reviews.events", data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
