package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/velesk/marketplace-api/internal/delivery/http/middleware"
	"github.com/velesk/marketplace-api/internal/delivery/http/request"
	"github.com/velesk/marketplace-api/internal/delivery/http/response"
	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
	"github.com/velesk/marketplace-api/internal/usecase/category"
)

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	service *category.Service
	logger  *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *category.Service, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  log,
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// List handles GET /api/v1/categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} map[string]interface{} "List of active categories"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListActive(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, categories)
}

// Create handles POST /api/v1/categories
// @Summary Create a category
// @Description Create a category, optionally nested under an existing one. Admin only.
// @Tags Categories
// @Accept json
// @Produce json
// @Param category body CreateCategoryRequest true "Category details"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Category created successfully"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Caller is not an admin"
// @Failure 404 {object} map[string]string "Parent category not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateCategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cat := &domain.Category{Name: req.Name}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid parent category ID")
			return
		}
		cat.ParentID = &parentID
	}

	if err := h.service.Create(r.Context(), ident, cat); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, cat)
}

func (h *CategoryHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Only admins manage categories")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in category handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
