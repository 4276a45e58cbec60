package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/accounts-service/internal/core/domain"
	"github.com/99minutos/accounts-service/internal/infrastructure/auth"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	saves    int
	findErr  error
	saveErr  error
	// hideOnFind simulates a concurrent signup that lands between the
	// existence check and the insert.
	hideOnFind bool
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[username]
	if !ok || r.hideOnFind {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Save(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if _, exists := r.accounts[account.Username]; exists {
		return nil, domain.ErrDuplicateAccount
	}
	r.saves++
	saved := cloneAccount(account)
	saved.ID = "id-" + account.Username
	r.accounts[saved.Username] = cloneAccount(saved)
	return saved, nil
}

type stubGuard struct {
	err      error
	acquired []string
	released int
}

func (g *stubGuard) Acquire(_ context.Context, username string) (func(), error) {
	if g.err != nil {
		return nil, g.err
	}
	g.acquired = append(g.acquired, username)
	return func() { g.released++ }, nil
}

type stubIssuer struct {
	err     error
	subject string
	ttl     time.Duration
}

func (s *stubIssuer) Issue(subject string, ttl time.Duration) (*domain.SessionToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.subject, s.ttl = subject, ttl
	return &domain.SessionToken{Value: "tok", Subject: subject}, nil
}

func (s *stubIssuer) Verify(string) (*domain.SessionToken, error) {
	return nil, domain.ErrInvalidToken
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestIssuer(t *testing.T, now time.Time) *auth.JWTIssuer {
	t.Helper()
	issuer, err := auth.NewJWTIssuer("secret", auth.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func newAccountSvc(t *testing.T, repo *stubAccountRepo) *AccountService {
	t.Helper()
	return NewAccountService(
		repo,
		auth.NewBcryptHasher(bcrypt.MinCost),
		newTestIssuer(t, time.Now()),
		nil,
		AccountConfig{},
		zerolog.Nop(),
	)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAccountService_Scenario(t *testing.T) {
	repo := newStubAccountRepo()
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer, nil, AccountConfig{}, zerolog.Nop())
	ctx := context.Background()

	summary, err := svc.Signup(ctx, "alice", "pw1", "a@x.com")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if summary.Username != "alice" || summary.EmailAddress != "a@x.com" || summary.ID == "" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, err := svc.Signup(ctx, "alice", "pw2", "b@x.com"); !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	token, err := svc.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	verified, err := issuer.Verify(token.Value)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if verified.Subject != "alice" {
		t.Fatalf("expected subject alice, got %s", verified.Subject)
	}
	if !verified.ExpiresAt.Equal(now.Add(DefaultTokenTTL)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(DefaultTokenTTL), verified.ExpiresAt)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_Signup_StoresDigest(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newAccountSvc(t, repo)

	if _, err := svc.Signup(context.Background(), "bob", "pass123", "bob@example.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	stored := repo.accounts["bob"]
	if stored.PasswordDigest == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordDigest), []byte("pass123")); err != nil {
		t.Fatalf("stored digest does not match password: %v", err)
	}
}

func TestAccountService_Signup_DuplicateDoesNotWrite(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newAccountSvc(t, repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "carol", "pw", "c@x.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	before := *repo.accounts["carol"]

	_, err := svc.Signup(ctx, "carol", "other", "other@x.com")
	var ae *domain.AccountError
	if !errors.As(err, &ae) || ae.Kind != domain.ErrDuplicateAccount || ae.Username != "carol" {
		t.Fatalf("expected duplicate AccountError for carol, got %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("expected exactly one save, got %d", repo.saves)
	}
	if *repo.accounts["carol"] != before {
		t.Fatalf("store mutated by rejected signup")
	}
	if strings.Contains(err.Error(), before.PasswordDigest) {
		t.Fatalf("error leaked digest: %v", err)
	}
}

func TestAccountService_Signup_ConflictOnInsertIsDuplicate(t *testing.T) {
	repo := newStubAccountRepo()
	repo.accounts["dave"] = &domain.Account{ID: "id-dave", Username: "dave"}
	repo.hideOnFind = true
	svc := newAccountSvc(t, repo)

	_, err := svc.Signup(context.Background(), "dave", "pw", "d@x.com")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	var ae *domain.AccountError
	if !errors.As(err, &ae) || ae.Username != "dave" {
		t.Fatalf("expected username in error, got %v", err)
	}
}

func TestAccountService_Signup_StoreError(t *testing.T) {
	repo := newStubAccountRepo()
	repo.findErr = errors.New("connection reset")
	svc := newAccountSvc(t, repo)

	_, err := svc.Signup(context.Background(), "erin", "pw", "e@x.com")
	if err == nil || errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no save on lookup failure")
	}
}

func TestAccountService_Signup_UsesGuard(t *testing.T) {
	repo := newStubAccountRepo()
	guard := &stubGuard{}
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), &stubIssuer{}, guard, AccountConfig{}, zerolog.Nop())

	if _, err := svc.Signup(context.Background(), "frank", "pw", "f@x.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if len(guard.acquired) != 1 || guard.acquired[0] != "frank" {
		t.Fatalf("expected guard acquired for frank, got %v", guard.acquired)
	}
	if guard.released != 1 {
		t.Fatalf("expected guard released once, got %d", guard.released)
	}
}

func TestAccountService_Signup_GuardHeldForFreeUsername(t *testing.T) {
	repo := newStubAccountRepo()
	guard := &stubGuard{err: domain.ErrSignupInProgress}
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), &stubIssuer{}, guard, AccountConfig{}, zerolog.Nop())

	_, err := svc.Signup(context.Background(), "gina", "pw", "g@x.com")
	if !errors.Is(err, domain.ErrSignupInProgress) {
		t.Fatalf("expected ErrSignupInProgress, got %v", err)
	}
	if errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("username that was never stored reported as taken: %v", err)
	}
	var ae *domain.AccountError
	if !errors.As(err, &ae) || ae.Username != "gina" {
		t.Fatalf("expected AccountError for gina, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no save while guard is held")
	}
}

func TestAccountService_Signup_GuardHeldForStoredUsername(t *testing.T) {
	repo := newStubAccountRepo()
	repo.accounts["hank"] = &domain.Account{ID: "id-hank", Username: "hank"}
	guard := &stubGuard{err: domain.ErrSignupInProgress}
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), &stubIssuer{}, guard, AccountConfig{}, zerolog.Nop())

	_, err := svc.Signup(context.Background(), "hank", "pw", "h@x.com")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAccountService_Login_UnknownUser(t *testing.T) {
	svc := newAccountSvc(t, newStubAccountRepo())

	_, err := svc.Login(context.Background(), "ghost", "pw")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Login_UsesConfiguredTTL(t *testing.T) {
	repo := newStubAccountRepo()
	issuer := &stubIssuer{}
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer, nil, AccountConfig{TokenTTL: 15 * time.Minute}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "hank", "pw", "h@x.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if _, err := svc.Login(ctx, "hank", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if issuer.subject != "hank" || issuer.ttl != 15*time.Minute {
		t.Fatalf("unexpected issue call: subject=%s ttl=%v", issuer.subject, issuer.ttl)
	}
}

func TestAccountService_Login_IssuerFailure(t *testing.T) {
	repo := newStubAccountRepo()
	issuer := &stubIssuer{}
	svc := NewAccountService(repo, auth.NewBcryptHasher(bcrypt.MinCost), issuer, nil, AccountConfig{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ivy", "pw", "i@x.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	issuer.err = errors.New("sign failed")
	if _, err := svc.Login(ctx, "ivy", "pw"); err == nil {
		t.Fatalf("expected error from issuer")
	}
}

func TestAccountService_GetAccountByUsername(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newAccountSvc(t, repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "judy", "pw", "j@x.com"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	account, err := svc.GetAccountByUsername(ctx, "judy")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if account.ID != "id-judy" || account.EmailAddress != "j@x.com" || account.PasswordDigest == "" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := svc.GetAccountByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
