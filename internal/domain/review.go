package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review is a buyer's rating and comment on one product.
// At most one active review may exist per (user, product) pair; the product's
// rating is always the mean grade over its active reviews.
type Review struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id" validate:"required"`
	Comment     string    `json:"comment" db:"comment" validate:"required,min=1,max=5000"`
	CommentDate time.Time `json:"comment_date" db:"comment_date"`
	Grade       int       `json:"grade" db:"grade" validate:"required,min=1,max=5"`
	Status      Status    `json:"status" db:"status"`
}

// ReviewRepository defines the interface for review data access.
//
// Create and SoftDelete run their check-write-recompute sequence inside a
// single database transaction: either the review row and the product rating
// both change, or neither does.
type ReviewRepository interface {
	// ListActive retrieves all active reviews
	ListActive(ctx context.Context) ([]*Review, error)

	// ListByProduct retrieves active reviews for a product, newest first
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*Review, error)

	// GetByID retrieves an active review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// Create inserts a review and recomputes the product rating atomically.
	// Returns ErrNotFound if the product is missing or inactive and
	// ErrAlreadyExists if the user already has an active review for it.
	Create(ctx context.Context, review *Review) error

	// SoftDelete marks a review inactive and recomputes the product rating
	// atomically. Returns ErrNotFound if no active review has that ID.
	SoftDelete(ctx context.Context, id uuid.UUID) (*Review, error)
}
