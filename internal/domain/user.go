package domain

import (
	"context"

	"github.com/google/uuid"
)

// Role determines what operations a user may perform.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// CanSubmitReview reports whether the role may create reviews.
// Only buyers review products.
func (r Role) CanSubmitReview() bool {
	return r == RoleBuyer
}

// CanDeleteReview reports whether a caller with this role may soft-delete
// the review owned by ownerID. Admins delete any review, buyers only their
// own, sellers none.
func (r Role) CanDeleteReview(callerID, ownerID uuid.UUID) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleBuyer:
		return callerID == ownerID
	}
	return false
}

// CanManageCategories reports whether the role may create categories.
func (r Role) CanManageCategories() bool {
	return r == RoleAdmin
}

// CanSellProducts reports whether the role may create products.
func (r Role) CanSellProducts() bool {
	return r == RoleSeller
}

// CanDeleteProduct reports whether a caller with this role may soft-delete
// the product owned by sellerID.
func (r Role) CanDeleteProduct(callerID, sellerID uuid.UUID) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleSeller:
		return callerID == sellerID
	}
	return false
}

// Identity is the authenticated caller resolved from a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// User represents a marketplace account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email" validate:"required,email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	Status       Status    `json:"status" db:"status"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user; duplicate email returns ErrAlreadyExists
	Create(ctx context.Context, user *User) error

	// GetByID retrieves an active user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves an active user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}
