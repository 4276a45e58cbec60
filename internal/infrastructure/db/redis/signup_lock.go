package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// LockClient is the subset of *redis.Client the lock needs.
type LockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// SignupLock serializes signups per username with a short-lived Redis lock.
// Key format: signup:lock:<username>
type SignupLock struct {
	client LockClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewSignupLock creates a SignupLock. If ttl <= 0, defaultLockTTL is used.
func NewSignupLock(client LockClient, ttl time.Duration, log zerolog.Logger) *SignupLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SignupLock{client: client, ttl: ttl, log: log}
}

// Acquire takes the lock for username. A lock already held by a concurrent
// signup yields domain.ErrSignupInProgress.
func (l *SignupLock) Acquire(ctx context.Context, username string) (func(), error) {
	key := l.key(username)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("signup lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSignupInProgress
	}

	release := func() {
		// The request context may already be done; release on a fresh one.
		relCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn().Err(err).Str("username", username).Msg("failed to release signup lock")
		}
	}
	return release, nil
}

func (l *SignupLock) key(username string) string {
	return "signup:lock:" + username
}
