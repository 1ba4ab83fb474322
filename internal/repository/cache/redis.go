package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/velesk/marketplace-api/internal/domain"
)

// RedisCache caches per-product review listings. Ratings are not cached
// separately: the rating is a stored column on products and rides along
// with every product read.
type RedisCache struct {
	client         *redis.Client
	reviewsListTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, reviewsListTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		reviewsListTTL: reviewsListTTL,
	}
}

func (c *RedisCache) reviewsListKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:reviews", productID.String())
}

// GetReviewsList retrieves the cached review listing for a product
func (c *RedisCache) GetReviewsList(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	val, err := c.client.Get(ctx, c.reviewsListKey(productID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var reviews []*domain.Review
	if err := json.Unmarshal([]byte(val), &reviews); err != nil {
		return nil, err
	}

	return reviews, nil
}

// SetReviewsList stores the review listing for a product
func (c *RedisCache) SetReviewsList(ctx context.Context, productID uuid.UUID, reviews []*domain.Review) error {
	data, err := json.Marshal(reviews)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.reviewsListKey(productID), data, c.reviewsListTTL).Err()
}

// InvalidateProductCache removes the cached review listing for a product.
// Called on every review write; a stale listing would otherwise survive
// until TTL expiry.
func (c *RedisCache) InvalidateProductCache(ctx context.Context, productID uuid.UUID) error {
	return c.client.Del(ctx, c.reviewsListKey(productID)).Err()
}
