package review

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
)

// MockReviewRepository is a mock implementation of domain.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) ListActive(ctx context.Context) ([]*domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewCache is a mock implementation of ReviewCache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewCache) SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error {
	args := m.Called(ctx, productID, reviews)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateProductCache(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func newTestService() (*Service, *MockReviewRepository, *MockProductRepository, *MockReviewCache, *MockEventPublisher) {
	mockRepo := new(MockReviewRepository)
	mockProducts := new(MockProductRepository)
	mockCache := new(MockReviewCache)
	mockPublisher := new(MockEventPublisher)
	log := logger.New("test")
	service := NewService(mockRepo, mockProducts, mockCache, mockPublisher, log)
	return service, mockRepo, mockProducts, mockCache, mockPublisher
}

func buyerIdentity() domain.Identity {
	return domain.Identity{
		UserID: uuid.New(),
		Email:  "buyer@example.com",
		Role:   domain.RoleBuyer,
	}
}

func TestService_Create_Success(t *testing.T) {
	service, mockRepo, _, mockCache, mockPublisher := newTestService()

	ident := buyerIdentity()
	productID := uuid.New()
	review := &domain.Review{
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
	}

	mockRepo.On("Create", mock.Anything, review).Return(nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	err := service.Create(context.Background(), ident, review)

	assert.NoError(t, err)
	assert.Equal(t, ident.UserID, review.UserID, "review must be attributed to the caller")
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Create_SellerForbidden(t *testing.T) {
	service, mockRepo, _, mockCache, _ := newTestService()

	ident := domain.Identity{
		UserID: uuid.New(),
		Email:  "seller@example.com",
		Role:   domain.RoleSeller,
	}
	review := &domain.Review{
		ProductID: uuid.New(),
		Comment:   "Great product!",
		Grade:     5,
	}

	err := service.Create(context.Background(), ident, review)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrForbidden, err)
	mockRepo.AssertNotCalled(t, "Create")
	mockCache.AssertNotCalled(t, "InvalidateProductCache")
}

func TestService_Create_AdminForbidden(t *testing.T) {
	service, mockRepo, _, _, _ := newTestService()

	ident := domain.Identity{
		UserID: uuid.New(),
		Email:  "admin@example.com",
		Role:   domain.RoleAdmin,
	}
	review := &domain.Review{
		ProductID: uuid.New(),
		Comment:   "Great product!",
		Grade:     5,
	}

	err := service.Create(context.Background(), ident, review)

	assert.Equal(t, domain.ErrForbidden, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestService_Create_InvalidGrade(t *testing.T) {
	service, mockRepo, _, mockCache, _ := newTestService()

	ident := buyerIdentity()
	review := &domain.Review{
		ProductID: uuid.New(),
		Comment:   "Too good to be true",
		Grade:     6, // Invalid: grade must be 1..5
	}

	err := service.Create(context.Background(), ident, review)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrInvalidInput, err)
	mockRepo.AssertNotCalled(t, "Create")
	mockCache.AssertNotCalled(t, "InvalidateProductCache")
}

func TestService_Create_EmptyComment(t *testing.T) {
	service, mockRepo, _, _, _ := newTestService()

	ident := buyerIdentity()
	review := &domain.Review{
		ProductID: uuid.New(),
		Comment:   "", // Invalid: empty comment
		Grade:     3,
	}

	err := service.Create(context.Background(), ident, review)

	assert.Equal(t, domain.ErrInvalidInput, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestService_Create_DuplicateActiveReview(t *testing.T) {
	service, mockRepo, _, mockCache, _ := newTestService()

	ident := buyerIdentity()
	productID := uuid.New()
	review := &domain.Review{
		ProductID: productID,
		Comment:   "Trying again",
		Grade:     4,
	}

	mockRepo.On("Create", mock.Anything, review).Return(domain.ErrAlreadyExists)

	err := service.Create(context.Background(), ident, review)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrAlreadyExists, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "InvalidateProductCache")
}

func TestService_Create_ProductNotFound(t *testing.T) {
	service, mockRepo, _, mockCache, _ := newTestService()

	ident := buyerIdentity()
	review := &domain.Review{
		ProductID: uuid.New(),
		Comment:   "Ghost product",
		Grade:     2,
	}

	mockRepo.On("Create", mock.Anything, review).Return(domain.ErrNotFound)

	err := service.Create(context.Background(), ident, review)

	assert.Equal(t, domain.ErrNotFound, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "InvalidateProductCache")
}

func TestService_Create_CacheInvalidationFailure(t *testing.T) {
	service, mockRepo, _, mockCache, mockPublisher := newTestService()

	ident := buyerIdentity()
	productID := uuid.New()
	review := &domain.Review{
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
	}

	mockRepo.On("Create", mock.Anything, review).Return(nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(assert.AnError)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	// Cache failure should not prevent operation from succeeding
	err := service.Create(context.Background(), ident, review)

	assert.NoError(t, err, "Operation should succeed even when cache fails")
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Delete_OwnerSuccess(t *testing.T) {
	service, mockRepo, _, mockCache, mockPublisher := newTestService()

	ident := buyerIdentity()
	reviewID := uuid.New()
	productID := uuid.New()
	existingReview := &domain.Review{
		ID:        reviewID,
		UserID:    ident.UserID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}
	deletedReview := &domain.Review{
		ID:        reviewID,
		UserID:    ident.UserID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusInactive,
	}

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existingReview, nil)
	mockRepo.On("SoftDelete", mock.Anything, reviewID).Return(deletedReview, nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	deleted, err := service.Delete(context.Background(), ident, reviewID)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, deleted.Status)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Delete_ForeignReviewForbidden(t *testing.T) {
	service, mockRepo, _, mockCache, _ := newTestService()

	ident := buyerIdentity()
	reviewID := uuid.New()
	existingReview := &domain.Review{
		ID:        reviewID,
		UserID:    uuid.New(), // Owned by someone else
		ProductID: uuid.New(),
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existingReview, nil)

	deleted, err := service.Delete(context.Background(), ident, reviewID)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrForbidden, err)
	assert.Nil(t, deleted)
	mockRepo.AssertNotCalled(t, "SoftDelete")
	mockCache.AssertNotCalled(t, "InvalidateProductCache")
}

func TestService_Delete_AdminDeletesAnyReview(t *testing.T) {
	service, mockRepo, _, mockCache, mockPublisher := newTestService()

	ident := domain.Identity{
		UserID: uuid.New(),
		Email:  "admin@example.com",
		Role:   domain.RoleAdmin,
	}
	reviewID := uuid.New()
	productID := uuid.New()
	existingReview := &domain.Review{
		ID:        reviewID,
		UserID:    uuid.New(), // Not the admin's review
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}
	deletedReview := &domain.Review{
		ID:        reviewID,
		UserID:    existingReview.UserID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusInactive,
	}

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existingReview, nil)
	mockRepo.On("SoftDelete", mock.Anything, reviewID).Return(deletedReview, nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	deleted, err := service.Delete(context.Background(), ident, reviewID)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, deleted.Status)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestService_Delete_SellerForbidden(t *testing.T) {
	service, mockRepo, _, _, _ := newTestService()

	ident := domain.Identity{
		UserID: uuid.New(),
		Email:  "seller@example.com",
		Role:   domain.RoleSeller,
	}
	reviewID := uuid.New()
	existingReview := &domain.Review{
		ID:        reviewID,
		UserID:    ident.UserID, // Even their own
		ProductID: uuid.New(),
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existingReview, nil)

	_, err := service.Delete(context.Background(), ident, reviewID)

	assert.Equal(t, domain.ErrForbidden, err)
	mockRepo.AssertNotCalled(t, "SoftDelete")
}

func TestService_Delete_NotFound(t *testing.T) {
	service, mockRepo, _, _, _ := newTestService()

	ident := buyerIdentity()
	reviewID := uuid.New()

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(nil, domain.ErrNotFound)

	deleted, err := service.Delete(context.Background(), ident, reviewID)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, err)
	assert.Nil(t, deleted)
	mockRepo.AssertExpectations(t)
}

func TestService_ListByProduct_CacheHit(t *testing.T) {
	service, mockRepo, mockProducts, mockCache, _ := newTestService()

	productID := uuid.New()
	expectedReviews := []*domain.Review{
		{ID: uuid.New(), ProductID: productID, Comment: "Great", Grade: 5},
		{ID: uuid.New(), ProductID: productID, Comment: "Decent", Grade: 4},
	}

	mockProducts.On("GetByID", mock.Anything, productID).Return(&domain.Product{ID: productID}, nil)
	mockCache.On("GetReviewsList", mock.Anything, productID).Return(expectedReviews, nil)

	reviews, err := service.ListByProduct(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, expectedReviews, reviews)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "ListByProduct")
}

func TestService_ListByProduct_CacheMiss(t *testing.T) {
	service, mockRepo, mockProducts, mockCache, _ := newTestService()

	productID := uuid.New()
	expectedReviews := []*domain.Review{
		{ID: uuid.New(), ProductID: productID, Comment: "Great", Grade: 5},
	}

	mockProducts.On("GetByID", mock.Anything, productID).Return(&domain.Product{ID: productID}, nil)
	mockCache.On("GetReviewsList", mock.Anything, productID).Return(nil, assert.AnError)
	mockRepo.On("ListByProduct", mock.Anything, productID).Return(expectedReviews, nil)
	mockCache.On("SetReviewsList", mock.Anything, productID, expectedReviews).Return(nil)

	reviews, err := service.ListByProduct(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, expectedReviews, reviews)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestService_ListByProduct_ProductNotFound(t *testing.T) {
	service, mockRepo, mockProducts, mockCache, _ := newTestService()

	productID := uuid.New()

	mockProducts.On("GetByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	reviews, err := service.ListByProduct(context.Background(), productID)

	assert.Error(t, err)
	assert.Equal(t, domain.ErrNotFound, err)
	assert.Nil(t, reviews)
	mockRepo.AssertNotCalled(t, "ListByProduct")
	mockCache.AssertNotCalled(t, "GetReviewsList")
}

func TestService_ListActive(t *testing.T) {
	service, mockRepo, _, _, _ := newTestService()

	expectedReviews := []*domain.Review{
		{ID: uuid.New(), ProductID: uuid.New(), Comment: "Great", Grade: 5},
	}

	mockRepo.On("ListActive", mock.Anything).Return(expectedReviews, nil)

	reviews, err := service.ListActive(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, expectedReviews, reviews)
	mockRepo.AssertExpectations(t)
}
