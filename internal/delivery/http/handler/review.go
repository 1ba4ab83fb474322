package handler

import (
	"errors"
	"net/http"

	"github.com/velesk/marketplace-api/internal/delivery/http/middleware"
	"github.com/velesk/marketplace-api/internal/delivery/http/request"
	"github.com/velesk/marketplace-api/internal/delivery/http/response"
	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	"github.com/velesk/marketplace-api/internal/usecase/review"

	"github.com/google/uuid"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Comment   string `json:"comment" validate:"required,min=1,max=5000"`
	Grade     int    `json:"grade" validate:"required,min=1,max=5"`
}

// List handles GET /api/v1/reviews
// @Summary List all active reviews
// @Description Returns every active review across all products.
// @Tags Reviews
// @Produce json
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListActive(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, reviews)
}

// ListByProduct handles GET /api/v1/reviews/products/:product_id
// @Summary List reviews for a product
// @Description Returns the active reviews for a product. 404 when the product is missing or inactive.
// @Tags Reviews
// @Produce json
// @Param product_id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "List of reviews"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found or inactive"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/products/{product_id} [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "product_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	reviews, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, reviews)
}

// Create handles POST /api/v1/reviews
// @Summary Create a new review
// @Description Create a review for a product as the authenticated buyer. The product rating updates in the same transaction.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Review created successfully"
// @Failure 400 {object} map[string]string "Invalid request body or product already reviewed"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Caller is not a buyer"
// @Failure 404 {object} map[string]string "Product not found or inactive"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	rev := &domain.Review{
		ProductID: productID,
		Comment:   req.Comment,
		Grade:     req.Grade,
	}

	if err := h.service.Create(r.Context(), ident, rev); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, rev)
}

// Delete handles DELETE /api/v1/reviews/:review_id
// @Summary Delete a review
// @Description Soft delete a review. Buyers may delete only their own reviews; admins may delete any. The product rating updates in the same transaction.
// @Tags Reviews
// @Produce json
// @Param review_id path string true "Review ID (UUID)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Review in its now-inactive state"
// @Failure 400 {object} map[string]string "Invalid review ID"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Caller may not delete this review"
// @Failure 404 {object} map[string]string "Review not found or inactive"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/{review_id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := request.GetUUIDParam(r, "review_id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	deleted, err := h.service.Delete(r.Context(), ident, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, deleted)
}

// handleError maps service layer errors to HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Review or product not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(w, http.StatusBadRequest, "You have already reviewed this product")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "You can only delete your own reviews")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
