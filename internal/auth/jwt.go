// Package auth issues and checks the JWT pair used by the API and hashes
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for an unknown login or a wrong
	// password; both cases map to it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when the credentials are right but the
	// account has been switched off.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrInvalidToken covers malformed, expired, revoked and wrong-type tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenType separates short-lived access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims represents the JWT claims.
type Claims struct {
	UserID int64     `json:"user_id"`
	Login  string    `json:"usuario"`
	RoleID int64     `json:"id_rol"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Revocations records logged-out tokens until they expire.
type Revocations interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Issuer signs and verifies tokens with an HMAC secret.
type Issuer struct {
	Secret      []byte
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Revocations Revocations
}

// NewIssuer returns an Issuer with the default lifetimes.
func NewIssuer(secret string, revocations Revocations) *Issuer {
	return &Issuer{
		Secret:      []byte(secret),
		AccessTTL:   DefaultAccessTTL,
		RefreshTTL:  DefaultRefreshTTL,
		Revocations: revocations,
	}
}

// Subject is who a token is issued for.
type Subject struct {
	UserID int64
	Login  string
	RoleID int64
}

// Issue creates a signed token of type typ with a fresh JTI.
func (i *Issuer) Issue(typ TokenType, sub Subject) (string, error) {
	ttl := i.AccessTTL
	if typ == RefreshToken {
		ttl = i.RefreshTTL
	}

	now := time.Now()
	claims := Claims{
		UserID: sub.UserID,
		Login:  sub.Login,
		RoleID: sub.RoleID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(sub.UserID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Pair is the token pair returned on login.
type Pair struct {
	Access  string
	Refresh string
}

// IssuePair creates an access and a refresh token for sub.
func (i *Issuer) IssuePair(sub Subject) (Pair, error) {
	access, err := i.Issue(AccessToken, sub)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.Issue(RefreshToken, sub)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify parses tokenStr, checks its signature, expiry and type, and makes
// sure it has not been revoked.
func (i *Issuer) Verify(ctx context.Context, tokenStr string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.Secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, want, claims.Type)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	if i.Revocations != nil {
		revoked, err := i.Revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("checking revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
	}
	return claims, nil
}

// Revoke invalidates the token described by claims until it would have
// expired anyway.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.Revocations == nil {
		return nil
	}
	return i.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
