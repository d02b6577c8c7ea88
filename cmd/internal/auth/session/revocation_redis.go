package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"geotrack/cmd/security/token"
)

// defaultRevocationKeyPrefix namespaces revocation entries in a shared Redis.
const defaultRevocationKeyPrefix = "geotrack:revoked:"

// RedisRevocationStore keeps revoked token IDs in Redis, each entry
// expiring on its own via the key TTL. Only a digest of the token ID is
// stored (see security/token), never the raw ID.
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocationStore wraps an existing Redis client.
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{
		client: client,
		prefix: defaultRevocationKeyPrefix,
	}
}

func (s *RedisRevocationStore) key(tokenID string) string {
	return s.prefix + token.HashRevocationKeyHex(tokenID)
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return n > 0, nil
}
