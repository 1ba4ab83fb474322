package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velesk/marketplace-api/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository for PostgreSQL.
//
// Create and SoftDelete each run inside a single transaction so the review
// row and the product's derived rating never diverge. The partial unique
// index on (user_id, product_id) WHERE status = 'active' backs the
// one-active-review-per-user-per-product invariant under concurrency.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// recomputeRatingQuery sets products.rating to the mean grade over the
// product's active reviews, or NULL when none remain. Full recompute from
// source rows each time; no incremental counters to drift.
const recomputeRatingQuery = `
	UPDATE products
	SET rating = (
		SELECT ROUND(AVG(grade)::numeric, 2)
		FROM reviews
		WHERE product_id = $1 AND status = 'active'
	),
	updated_at = now()
	WHERE id = $1
`

// ListActive retrieves all active reviews
func (r *ReviewRepository) ListActive(ctx context.Context) ([]*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, comment, comment_date, grade, status
		FROM reviews
		WHERE status = 'active'
		ORDER BY comment_date DESC
	`

	reviews := []*domain.Review{}
	err := r.db.SelectContext(ctx, &reviews, query)
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

// ListByProduct retrieves active reviews for a product, newest first
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, comment, comment_date, grade, status
		FROM reviews
		WHERE product_id = $1 AND status = 'active'
		ORDER BY comment_date DESC
	`

	reviews := []*domain.Review{}
	err := r.db.SelectContext(ctx, &reviews, query, productID)
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

// GetByID retrieves an active review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, comment, comment_date, grade, status
		FROM reviews
		WHERE id = $1 AND status = 'active'
	`

	var review domain.Review
	err := r.db.GetContext(ctx, &review, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &review, nil
}

// Create inserts a review and recomputes the product rating in one transaction
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var productExists bool
	checkProduct := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND status = 'active')`
	if err := tx.GetContext(ctx, &productExists, checkProduct, review.ProductID); err != nil {
		return err
	}
	if !productExists {
		return domain.ErrNotFound
	}

	var alreadyReviewed bool
	checkDuplicate := `
		SELECT EXISTS(
			SELECT 1 FROM reviews
			WHERE user_id = $1 AND product_id = $2 AND status = 'active'
		)
	`
	if err := tx.GetContext(ctx, &alreadyReviewed, checkDuplicate, review.UserID, review.ProductID); err != nil {
		return err
	}
	if alreadyReviewed {
		return domain.ErrAlreadyExists
	}

	insert := `
		INSERT INTO reviews (user_id, product_id, comment, grade)
		VALUES ($1, $2, $3, $4)
		RETURNING id, comment_date, status
	`
	err = tx.QueryRowxContext(
		ctx,
		insert,
		review.UserID,
		review.ProductID,
		review.Comment,
		review.Grade,
	).Scan(
		&review.ID,
		&review.CommentDate,
		&review.Status,
	)
	if err != nil {
		// A concurrent create for the same (user, product) slipped past the
		// pre-check; the partial unique index rejects the second insert.
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, recomputeRatingQuery, review.ProductID); err != nil {
		return fmt.Errorf("failed to recompute product rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SoftDelete marks a review inactive and recomputes the product rating in
// one transaction. Returns the review in its now-inactive state.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE reviews
		SET status = 'inactive'
		WHERE id = $1 AND status = 'active'
		RETURNING id, user_id, product_id, comment, comment_date, grade, status
	`

	var review domain.Review
	err = tx.QueryRowxContext(ctx, update, id).StructScan(&review)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, recomputeRatingQuery, review.ProductID); err != nil {
		return nil, fmt.Errorf("failed to recompute product rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &review, nil
}
