package cache

import (
	"context"
	"fmt"
	"time"

	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// PendingCheckout 等待金流結帳完成的預約意向
type PendingCheckout struct {
	UserID    int `json:"user_id"`
	SessionID int `json:"session_id"`
}

// PendingCheckoutStore 以 checkout id 暫存預約意向，
// 結帳完成的 callback 據此還原是誰要訂哪個場次
type PendingCheckoutStore interface {
	Put(ctx context.Context, checkoutID string, pending PendingCheckout, ttl time.Duration) error
	// Consume 取出並刪除，同一筆 checkout 只能完成一次
	Consume(ctx context.Context, checkoutID string) (*PendingCheckout, error)
}

type RedisPendingCheckoutStoreImpl struct {
	client *redis.Client
}

func NewRedisPendingCheckoutStore(client *redis.Client) PendingCheckoutStore {
	return &RedisPendingCheckoutStoreImpl{
		client: client,
	}
}

func (s *RedisPendingCheckoutStoreImpl) getKey(checkoutID string) string {
	return fmt.Sprintf("checkout:%s:pending", checkoutID)
}

func (s *RedisPendingCheckoutStoreImpl) Put(ctx context.Context, checkoutID string, pending PendingCheckout, ttl time.Duration) error {
	key := s.getKey(checkoutID)
	if err := s.client.HSet(ctx, key, map[string]interface{}{
		"user_id":    pending.UserID,
		"session_id": pending.SessionID,
	}).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisPendingCheckoutStoreImpl) Consume(ctx context.Context, checkoutID string) (*PendingCheckout, error) {
	key := s.getKey(checkoutID)

	// 使用Lua腳本確保讀取與刪除的原子性，重複的完成請求只有一個會成功
	script := `
		local values = redis.call('HMGET', KEYS[1], 'user_id', 'session_id')
		if not values[1] then
			return false
		end
		redis.call('DEL', KEYS[1])
		return values
	`

	result, err := s.client.Eval(ctx, script, []string{key}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrCheckoutNotFound
		}
		return nil, err
	}

	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) != 2 {
		return nil, apperrors.ErrCheckoutNotFound
	}

	var pending PendingCheckout
	if _, err := fmt.Sscan(resSlice[0].(string), &pending.UserID); err != nil {
		return nil, fmt.Errorf("invalid user_id: %v", err)
	}
	if _, err := fmt.Sscan(resSlice[1].(string), &pending.SessionID); err != nil {
		return nil, fmt.Errorf("invalid session_id: %v", err)
	}

	return &pending, nil
}
