package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "aura:session:"

// CachedVerifier answers from Redis when it can and falls back to next on a
// miss. Redis failures are logged and treated as misses.
type CachedVerifier struct {
	next   Verifier
	redis  redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
	logger *zerolog.Logger
}

func NewCachedVerifier(next Verifier, client redis.UniversalClient, ttl time.Duration, logger *zerolog.Logger) *CachedVerifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CachedVerifier{next: next, redis: client, ttl: ttl, now: time.Now, logger: logger}
}

// cacheKey hashes the token so raw credentials never reach Redis.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (v *CachedVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	key := cacheKey(token)

	if p, ok := v.read(ctx, key); ok {
		if p.ExpiresAt.After(v.now()) {
			return p, nil
		}
		v.Invalidate(ctx, token)
	}

	p, err := v.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	v.write(ctx, key, p)
	return p, nil
}

// Invalidate drops the cached principal for token, e.g. after logout.
func (v *CachedVerifier) Invalidate(ctx context.Context, token string) {
	if err := v.redis.Del(ctx, cacheKey(token)).Err(); err != nil {
		v.logger.Warn().Err(err).Msg("session cache delete failed")
	}
}

func (v *CachedVerifier) read(ctx context.Context, key string) (*Principal, bool) {
	val, err := v.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		v.logger.Warn().Err(err).Msg("session cache read failed, using store")
		return nil, false
	}
	var p Principal
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (v *CachedVerifier) write(ctx context.Context, key string, p *Principal) {
	ttl := v.ttl
	if !p.ExpiresAt.IsZero() {
		if remaining := p.ExpiresAt.Sub(v.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := v.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		v.logger.Warn().Err(err).Msg("session cache write failed")
	}
}
