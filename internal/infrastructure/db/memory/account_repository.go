// Package memory provides an in-process account store for local runs and
// tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

type AccountRepository struct {
	mu         sync.RWMutex
	byUsername map[string]*domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{byUsername: make(map[string]*domain.Account)}
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

// Save enforces username uniqueness under the write lock, the same guarantee
// a unique index gives the database-backed stores.
func (r *AccountRepository) Save(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[account.Username]; exists {
		return nil, domain.ErrDuplicateAccount
	}

	saved := *account
	saved.ID = uuid.NewString()
	r.byUsername[saved.Username] = &saved

	out := saved
	return &out, nil
}
