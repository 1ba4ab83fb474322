package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/velesk/marketplace-api/internal/delivery/http/middleware"
	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	"github.com/velesk/marketplace-api/internal/usecase/review"
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

// MockReviewCache is a mock implementation of review.ReviewCache
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

// MockEventPublisher is a mock implementation of review.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func newReviewHandler() (*ReviewHandler, *MockReviewRepository, *MockProductRepository, *MockReviewCache, *MockEventPublisher) {
	mockRepo := new(MockReviewRepository)
	mockProducts := new(MockProductRepository)
	mockCache := new(MockReviewCache)
	mockPublisher := new(MockEventPublisher)
	log := logger.New("test")
	service := review.NewService(mockRepo, mockProducts, mockCache, mockPublisher, log)
	handler := NewReviewHandler(service, log)
	return handler, mockRepo, mockProducts, mockCache, mockPublisher
}

func authenticatedRequest(req *http.Request, role domain.Role, userID uuid.UUID) *http.Request {
	ident := domain.Identity{
		UserID: userID,
		Email:  "user@example.com",
		Role:   role,
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), ident))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestReviewHandler_Create_Success(t *testing.T) {
	handler, mockRepo, _, mockCache, mockPublisher := newReviewHandler()

	userID := uuid.New()
	productID := uuid.New()
	requestBody := CreateReviewRequest{
		ProductID: productID.String(),
		Comment:   "Great product!",
		Grade:     5,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleBuyer, userID)
	w := httptest.NewRecorder()

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.ProductID == productID && r.UserID == userID && r.Grade == 5
	})).Return(nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockRepo.AssertExpectations(t)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response, "data")
}

func TestReviewHandler_Create_Unauthenticated(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	requestBody := CreateReviewRequest{
		ProductID: uuid.New().String(),
		Comment:   "Great product!",
		Grade:     5,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestReviewHandler_Create_SellerForbidden(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	requestBody := CreateReviewRequest{
		ProductID: uuid.New().String(),
		Comment:   "Great product!",
		Grade:     5,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleSeller, uuid.New())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestReviewHandler_Create_InvalidJSON(t *testing.T) {
	handler, _, _, _, _ := newReviewHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "Invalid request body")
}

func TestReviewHandler_Create_InvalidProductID(t *testing.T) {
	handler, _, _, _, _ := newReviewHandler()

	requestBody := CreateReviewRequest{
		ProductID: "not-a-uuid",
		Comment:   "Great product!",
		Grade:     5,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Create_DuplicateReview(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	productID := uuid.New()
	requestBody := CreateReviewRequest{
		ProductID: productID.String(),
		Comment:   "Trying again",
		Grade:     4,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	w := httptest.NewRecorder()

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrAlreadyExists)

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "already reviewed")
}

func TestReviewHandler_Create_ProductNotFound(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	requestBody := CreateReviewRequest{
		ProductID: uuid.New().String(),
		Comment:   "Ghost product",
		Grade:     2,
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	w := httptest.NewRecorder()

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrNotFound)

	handler.Create(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewHandler_Delete_OwnerSuccess(t *testing.T) {
	handler, mockRepo, _, mockCache, mockPublisher := newReviewHandler()

	userID := uuid.New()
	reviewID := uuid.New()
	productID := uuid.New()
	existing := &domain.Review{
		ID:        reviewID,
		UserID:    userID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}
	deleted := &domain.Review{
		ID:        reviewID,
		UserID:    userID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusInactive,
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+reviewID.String(), nil)
	req = authenticatedRequest(req, domain.RoleBuyer, userID)
	req = withURLParam(req, "review_id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existing, nil)
	mockRepo.On("SoftDelete", mock.Anything, reviewID).Return(deleted, nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	data, ok := response["data"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "inactive", data["status"])
}

func TestReviewHandler_Delete_ForeignReviewForbidden(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	reviewID := uuid.New()
	existing := &domain.Review{
		ID:        reviewID,
		UserID:    uuid.New(), // Someone else's review
		ProductID: uuid.New(),
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+reviewID.String(), nil)
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	req = withURLParam(req, "review_id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existing, nil)

	handler.Delete(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockRepo.AssertNotCalled(t, "SoftDelete")
}

func TestReviewHandler_Delete_AdminSuccess(t *testing.T) {
	handler, mockRepo, _, mockCache, mockPublisher := newReviewHandler()

	reviewID := uuid.New()
	productID := uuid.New()
	ownerID := uuid.New()
	existing := &domain.Review{
		ID:        reviewID,
		UserID:    ownerID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusActive,
	}
	deleted := &domain.Review{
		ID:        reviewID,
		UserID:    ownerID,
		ProductID: productID,
		Comment:   "Great product!",
		Grade:     5,
		Status:    domain.StatusInactive,
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+reviewID.String(), nil)
	req = authenticatedRequest(req, domain.RoleAdmin, uuid.New())
	req = withURLParam(req, "review_id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(existing, nil)
	mockRepo.On("SoftDelete", mock.Anything, reviewID).Return(deleted, nil)
	mockCache.On("InvalidateProductCache", mock.Anything, productID).Return(nil)
	mockPublisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).Return(nil)

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestReviewHandler_Delete_NotFound(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	reviewID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+reviewID.String(), nil)
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	req = withURLParam(req, "review_id", reviewID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, reviewID).Return(nil, domain.ErrNotFound)

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewHandler_Delete_InvalidID(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/not-a-uuid", nil)
	req = authenticatedRequest(req, domain.RoleBuyer, uuid.New())
	req = withURLParam(req, "review_id", "not-a-uuid")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestReviewHandler_ListByProduct_Success(t *testing.T) {
	handler, mockRepo, mockProducts, mockCache, _ := newReviewHandler()

	productID := uuid.New()
	reviews := []*domain.Review{
		{ID: uuid.New(), ProductID: productID, Comment: "Great", Grade: 5, Status: domain.StatusActive},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/products/"+productID.String(), nil)
	req = withURLParam(req, "product_id", productID.String())
	w := httptest.NewRecorder()

	mockProducts.On("GetByID", mock.Anything, productID).Return(&domain.Product{ID: productID}, nil)
	mockCache.On("GetReviewsList", mock.Anything, productID).Return(nil, assert.AnError)
	mockRepo.On("ListByProduct", mock.Anything, productID).Return(reviews, nil)
	mockCache.On("SetReviewsList", mock.Anything, productID, reviews).Return(nil)

	handler.ListByProduct(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestReviewHandler_ListByProduct_ProductNotFound(t *testing.T) {
	handler, _, mockProducts, _, _ := newReviewHandler()

	productID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/products/"+productID.String(), nil)
	req = withURLParam(req, "product_id", productID.String())
	w := httptest.NewRecorder()

	mockProducts.On("GetByID", mock.Anything, productID).Return(nil, domain.ErrNotFound)

	handler.ListByProduct(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewHandler_List_Success(t *testing.T) {
	handler, mockRepo, _, _, _ := newReviewHandler()

	reviews := []*domain.Review{
		{ID: uuid.New(), ProductID: uuid.New(), Comment: "Great", Grade: 5, Status: domain.StatusActive},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
	w := httptest.NewRecorder()

	mockRepo.On("ListActive", mock.Anything).Return(reviews, nil)

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
}
