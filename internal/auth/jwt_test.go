package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type memRevocations struct {
	mu  sync.Mutex
	set map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set == nil {
		m.set = make(map[string]time.Time)
	}
	m.set[jti] = expiresAt
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.set[jti]
	return ok, nil
}

var subject = Subject{UserID: 1, Login: "admin", RoleID: 1}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret-key", nil)
	ctx := context.Background()

	pair, err := issuer.IssuePair(subject)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" || pair.Access == pair.Refresh {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := issuer.Verify(ctx, pair.Access, AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 1 || claims.Login != "admin" || claims.RoleID != 1 {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}

	if _, err := issuer.Verify(ctx, pair.Refresh, RefreshToken); err != nil {
		t.Errorf("Verify refresh: %v", err)
	}
}

func TestVerifyRejectsWrongType(t *testing.T) {
	issuer := NewIssuer("secret", nil)
	ctx := context.Background()
	pair, _ := issuer.IssuePair(subject)

	if _, err := issuer.Verify(ctx, pair.Refresh, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := issuer.Verify(ctx, pair.Access, RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _ := NewIssuer("secret1", nil).Issue(AccessToken, subject)

	_, err := NewIssuer("secret2", nil).Verify(context.Background(), token, AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyInvalid(t *testing.T) {
	_, err := NewIssuer("secret", nil).Verify(context.Background(), "not-a-token", AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer("secret", nil)
	issuer.AccessTTL = -time.Minute
	token, _ := issuer.Issue(AccessToken, subject)

	if _, err := issuer.Verify(context.Background(), token, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewIssuer("test", nil)
	issuer.RefreshTTL = 48 * time.Hour
	ctx := context.Background()
	pair, _ := issuer.IssuePair(subject)

	tests := []struct {
		token string
		typ   TokenType
		ttl   time.Duration
	}{
		{pair.Access, AccessToken, DefaultAccessTTL},
		{pair.Refresh, RefreshToken, 48 * time.Hour},
	}
	for _, tt := range tests {
		claims, err := issuer.Verify(ctx, tt.token, tt.typ)
		if err != nil {
			t.Fatalf("Verify %s: %v", tt.typ, err)
		}
		// Should be within a few seconds.
		diff := time.Until(claims.ExpiresAt.Time) - tt.ttl
		if diff < -5*time.Second || diff > 5*time.Second {
			t.Errorf("%s expiry too far from expected: diff=%v", tt.typ, diff)
		}
	}
}

func TestRevoke(t *testing.T) {
	issuer := NewIssuer("secret", &memRevocations{})
	ctx := context.Background()

	first, _ := issuer.Issue(AccessToken, subject)
	second, _ := issuer.Issue(AccessToken, subject)

	claims, err := issuer.Verify(ctx, first, AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := issuer.Revoke(ctx, claims); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := issuer.Verify(ctx, first, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
	if _, err := issuer.Verify(ctx, second, AccessToken); err != nil {
		t.Errorf("other token should stay valid: %v", err)
	}
}

func TestPasswords(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
