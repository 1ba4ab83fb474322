package worker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/velesk/marketplace-api/internal/pkg/logger"
)

// Calculator re-derives a product's rating from its active reviews.
// The API already maintains the rating inside each review transaction; the
// calculator exists so the reconciler can converge any drift from the same
// source-of-truth statement.
type Calculator struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewCalculator creates a new rating calculator
func NewCalculator(db *sqlx.DB, logger *logger.Logger) *Calculator {
	return &Calculator{
		db:     db,
		logger: logger,
	}
}

// Recompute recalculates the mean grade over a product's active reviews and
// persists it. The rating goes NULL when no active reviews remain.
func (c *Calculator) Recompute(ctx context.Context, productID uuid.UUID) error {
	query := `
		UPDATE products
		SET rating = (
			SELECT ROUND(AVG(grade)::numeric, 2)
			FROM reviews
			WHERE product_id = $1 AND status = 'active'
		),
		updated_at = now()
		WHERE id = $1 AND status = 'active'
	`

	result, err := c.db.ExecContext(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	// Product gone or soft-deleted since the event was published
	if rowsAffected == 0 {
		c.logger.WithFields(map[string]any{
			"product_id": productID.String(),
		}).Info("Product not found or inactive, skipping rating update")
		return nil
	}

	c.logger.WithFields(map[string]any{
		"product_id": productID.String(),
	}).Info("Product rating reconciled")

	return nil
}

// CurrentRating retrieves the stored rating for verification (used in tests).
// The second return value is false when the rating is NULL.
func (c *Calculator) CurrentRating(ctx context.Context, productID uuid.UUID) (float64, bool, error) {
	var rating sql.NullFloat64
	query := `SELECT rating FROM products WHERE id = $1 AND status = 'active'`

	err := c.db.GetContext(ctx, &rating, query, productID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current rating: %w", err)
	}

	return rating.Float64, rating.Valid, nil
}
