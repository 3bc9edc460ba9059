package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopzen/storefront/internal/domain"
)

type PendingRepository interface {
	Create(ctx context.Context, p *domain.PendingRegistration) error
	Consume(ctx context.Context, token string) (*domain.PendingRegistration, error)
}

type pendingRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPendingRepository(client *redis.Client, ttl time.Duration) PendingRepository {
	return &pendingRepository{client: client, ttl: ttl}
}

func pendingKey(token string) string {
	return "pending_registration:" + token
}

// consumeScript flips the consumed flag exactly once. Returns -1 when the key
// is missing (expired), 0 when already consumed, and the identity fields on
// the winning call. The key keeps its TTL so a late retry still observes
// "already completed" rather than "expired".
var consumeScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
	return -1
end
if redis.call("HGET", key, "consumed") == "1" then
	return 0
end
redis.call("HSET", key, "consumed", "1")
return {redis.call("HGET", key, "external_id"), redis.call("HGET", key, "email"), redis.call("HGET", key, "name")}
`)

func (r *pendingRepository) Create(ctx context.Context, p *domain.PendingRegistration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	key := pendingKey(p.Token)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"external_id": p.ExternalID,
		"email":       p.Email,
		"name":        p.Name,
		"consumed":    "0",
	})
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store pending registration: %w", err)
	}
	return nil
}

func (r *pendingRepository) Consume(ctx context.Context, token string) (*domain.PendingRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := consumeScript.Run(ctx, r.client, []string{pendingKey(token)}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending registration: %w", err)
	}

	switch v := res.(type) {
	case int64:
		if v == -1 {
			return nil, domain.ErrExpiredPending
		}
		return nil, domain.ErrAlreadyCompleted
	case []interface{}:
		if len(v) != 3 {
			return nil, fmt.Errorf("unexpected consume result of length %d", len(v))
		}
		p := &domain.PendingRegistration{
			Token:    token,
			Consumed: true,
		}
		if s, ok := v[0].(string); ok {
			p.ExternalID = s
		}
		if s, ok := v[1].(string); ok {
			p.Email = s
		}
		if s, ok := v[2].(string); ok {
			p.Name = s
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unexpected consume result type %T", res)
	}
}
