package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAccountError_IsKind(t *testing.T) {
	err := fmt.Errorf("signup: %w", NewAccountError(ErrDuplicateAccount, "alice"))

	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
	if errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("did not expect ErrAccountNotFound")
	}

	var ae *AccountError
	if !errors.As(err, &ae) || ae.Username != "alice" {
		t.Fatalf("expected AccountError for alice, got %+v", ae)
	}
	if !strings.Contains(err.Error(), "username: alice") {
		t.Fatalf("message should carry username: %q", err.Error())
	}
}

func TestAccount_SummaryOmitsDigest(t *testing.T) {
	acc := &Account{ID: "1", Username: "alice", PasswordDigest: "$2a$digest", EmailAddress: "a@x.com"}
	s := acc.Summary()

	if s.ID != "1" || s.Username != "alice" || s.EmailAddress != "a@x.com" {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if strings.Contains(fmt.Sprintf("%+v", s), "digest") {
		t.Fatalf("summary leaked digest: %+v", s)
	}
}

func TestSessionToken_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := &SessionToken{ExpiresAt: now.Add(time.Hour)}

	if tok.Expired(now) {
		t.Fatalf("token should be valid before expiry")
	}
	if !tok.Expired(now.Add(time.Hour)) {
		t.Fatalf("token should be expired at expiry")
	}
}
