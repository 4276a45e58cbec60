package ports

import (
	"context"
	"time"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

// CredentialHasher turns plaintext passwords into salted one-way digests.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	// Verify must compare in constant time.
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs and verifies session tokens with a shared secret.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (*domain.SessionToken, error)
	Verify(value string) (*domain.SessionToken, error)
}

// SignupGuard serializes concurrent signups for the same username.
// The returned release func must be called once the signup finishes.
type SignupGuard interface {
	Acquire(ctx context.Context, username string) (release func(), err error)
}
