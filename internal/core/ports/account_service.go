package ports

import (
	"context"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

type AccountService interface {
	Signup(ctx context.Context, username, password, email string) (*domain.AccountSummary, error)
	Login(ctx context.Context, username, password string) (*domain.SessionToken, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}
