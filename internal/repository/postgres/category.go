package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velesk/marketplace-api/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository for PostgreSQL
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, status
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		category.Name,
		category.ParentID,
	).Scan(
		&category.ID,
		&category.Status,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves an active category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, parent_id, status
		FROM categories
		WHERE id = $1 AND status = 'active'
	`

	var category domain.Category
	err := r.db.GetContext(ctx, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &category, nil
}

// ListActive retrieves all active categories
func (r *CategoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name, parent_id, status
		FROM categories
		WHERE status = 'active'
		ORDER BY name
	`

	categories := []*domain.Category{}
	err := r.db.SelectContext(ctx, &categories, query)
	if err != nil {
		return nil, err
	}

	return categories, nil
}
