package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/cwu2020/reflist-sub001/internal/claim/domain"
)

const keyVerification = "claim:verification:"

// RedisStore keeps verification records in redis. Expiry is delegated to the
// key TTL so there is nothing to sweep.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, verification *domain.Verification, ttl time.Duration) error {
	payload, err := json.Marshal(verification)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyVerification+verification.Token, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (*domain.Verification, error) {
	payload, err := s.client.Get(ctx, keyVerification+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}

	var verification domain.Verification
	if err := json.Unmarshal(payload, &verification); err != nil {
		return nil, err
	}
	return &verification, nil
}
