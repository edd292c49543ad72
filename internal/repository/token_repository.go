package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo keeps the ids (jti) of credentials revoked by logout until they
// would have expired anyway.  With no Redis client it is a no-op and
// logout stays purely client-side.
type TokenRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewTokenRepo(rdb *redis.Client) *TokenRepo { return &TokenRepo{rdb: rdb, prefix: "shop:revoked"} }

func (r *TokenRepo) key(jti string) string { return r.prefix + ":" + jti }

// Revoke marks jti as revoked until exp.
func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if r == nil || r.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.key(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked.  Lookup errors count as not
// revoked so that a Redis outage does not log everyone out.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) bool {
	if r == nil || r.rdb == nil || jti == "" {
		return false
	}
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	return err == nil && n > 0
}
