package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietshop/backend/services/cart-service/models"
)

var ErrNotFound = errors.New("cart not found")

type CartRepository interface {
	Get(ctx context.Context, userID, sessionID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID, sessionID string) error
}

type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(userID, sessionID string) string {
	if userID != "" {
		return fmt.Sprintf("cart:user:%s", userID)
	}
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (r *RedisCartRepository) Get(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID, sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, cartKey(cart.UserID, cart.SessionID), data, r.ttl).Err()
}

func (r *RedisCartRepository) Delete(ctx context.Context, userID, sessionID string) error {
	return r.client.Del(ctx, cartKey(userID, sessionID)).Err()
}
