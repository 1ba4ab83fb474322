package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog item offered by a seller.
// Rating is derived from active reviews and is nil until the first review.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" validate:"required,min=3,max=100"`
	Description *string   `json:"description,omitempty" db:"description" validate:"omitempty,max=500"`
	Price       float64   `json:"price" db:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" db:"stock" validate:"gte=0"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id" validate:"required"`
	SellerID    uuid.UUID `json:"seller_id" db:"seller_id"`
	Rating      *float64  `json:"rating,omitempty" db:"rating"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves an active product by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves a paginated list of active products
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// Count returns the total number of active products
	Count(ctx context.Context) (int, error)

	// SoftDelete marks a product inactive
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
