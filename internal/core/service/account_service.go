package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-service/internal/core/domain"
	"github.com/99minutos/accounts-service/internal/core/ports"
)

const DefaultTokenTTL = time.Hour

// AccountConfig holds the settings fixed at construction time.
type AccountConfig struct {
	TokenTTL time.Duration
}

// AccountService implements signup, login and account lookup.
type AccountService struct {
	repo   ports.AccountRepository
	hasher ports.CredentialHasher
	issuer ports.TokenIssuer
	guard  ports.SignupGuard // optional
	cfg    AccountConfig
	log    zerolog.Logger
}

// NewAccountService wires the service. guard may be nil, in which case two
// concurrent signups for one username rely on the store's unique index alone.
func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.CredentialHasher,
	issuer ports.TokenIssuer,
	guard ports.SignupGuard,
	cfg AccountConfig,
	log zerolog.Logger,
) *AccountService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		issuer: issuer,
		guard:  guard,
		cfg:    cfg,
		log:    log,
	}
}

// Signup registers a new account and returns its public summary.
func (s *AccountService) Signup(ctx context.Context, username, password, email string) (*domain.AccountSummary, error) {
	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, username)
		if err != nil {
			if errors.Is(err, domain.ErrSignupInProgress) {
				return nil, s.signupBlocked(ctx, username)
			}
			return nil, fmt.Errorf("signup: acquire guard: %w", err)
		}
		defer release()
	}

	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.log.Info().Str("username", username).Msg("signup rejected: username taken")
		return nil, domain.NewAccountError(domain.ErrDuplicateAccount, username)
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("signup: lookup: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	saved, err := s.repo.Save(ctx, &domain.Account{
		Username:       username,
		PasswordDigest: digest,
		EmailAddress:   email,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		// Lost the race to a concurrent signup that passed the same check.
		if errors.Is(err, domain.ErrDuplicateAccount) {
			s.log.Warn().Str("username", username).Msg("signup conflict on insert")
			return nil, domain.NewAccountError(domain.ErrDuplicateAccount, username)
		}
		return nil, fmt.Errorf("signup: save: %w", err)
	}

	s.log.Info().Str("username", saved.Username).Str("account_id", saved.ID).Msg("account created")
	return saved.Summary(), nil
}

// signupBlocked reports why a signup could not take the guard. The username is
// only reported as taken once the store holds it; otherwise the competing
// signup may still fail and the caller can retry.
func (s *AccountService) signupBlocked(ctx context.Context, username string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.NewAccountError(domain.ErrDuplicateAccount, username)
	case errors.Is(err, domain.ErrAccountNotFound):
		s.log.Info().Str("username", username).Msg("signup rejected: concurrent signup in flight")
		return domain.NewAccountError(domain.ErrSignupInProgress, username)
	default:
		return fmt.Errorf("signup: lookup: %w", err)
	}
}

// Login verifies the credentials and issues a session token valid for the
// configured TTL.
func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.SessionToken, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewAccountError(domain.ErrAccountNotFound, username)
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordDigest) {
		s.log.Info().Str("username", username).Msg("login rejected: password mismatch")
		return nil, domain.NewAccountError(domain.ErrInvalidCredentials, username)
	}

	token, err := s.issuer.Issue(account.Username, s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("username", username).Time("expires_at", token.ExpiresAt).Msg("session issued")
	return token, nil
}

// GetAccountByUsername returns the full account record.
func (s *AccountService) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewAccountError(domain.ErrAccountNotFound, username)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}
