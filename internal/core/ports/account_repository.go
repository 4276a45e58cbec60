package ports

import (
	"context"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

// AccountRepository defines the persistence contract for accounts.
type AccountRepository interface {
	// FindByUsername returns domain.ErrAccountNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	// Save inserts a new account and returns it with its store-assigned ID.
	// A unique-index conflict on username is reported as domain.ErrDuplicateAccount.
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
