package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/floatbank/floatbank/internal/crypto"
	"github.com/floatbank/floatbank/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "floatbank"
	tokenType   = "bearer"
)

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"` // UUID stored as string
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Subject returns the user the token was issued to
func (c *Claims) Subject() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id", ErrTokenInvalid)
	}
	return id, nil
}

// Token is an issued bearer credential
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"` // seconds
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenService issues, verifies, refreshes and invalidates bearer tokens
type TokenService struct {
	key        []byte
	ttl        time.Duration
	refreshTTL time.Duration
	denylist   Denylist
	now        func() time.Time
}

// NewTokenService creates a token service. The HS256 key is derived from secret.
func NewTokenService(secret string, ttl, refreshTTL time.Duration, denylist Denylist) (*TokenService, error) {
	key, err := crypto.DeriveKey(secret, crypto.PurposeTokenSigning)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if refreshTTL < ttl {
		refreshTTL = ttl
	}
	return &TokenService{
		key:        key,
		ttl:        ttl,
		refreshTTL: refreshTTL,
		denylist:   denylist,
		now:        time.Now,
	}, nil
}

// Issue creates a token for user
func (s *TokenService) Issue(user *models.User) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresIn:   int64(s.ttl.Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify validates raw and returns its claims. Failures are one of
// ErrTokenMissing, ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) Verify(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh exchanges raw for a new token. raw may have expired as long as
// it was issued within the refresh window. The old token is invalidated.
func (s *TokenService) Refresh(ctx context.Context, raw string) (*Token, *Claims, error) {
	claims, err := s.parseForRefresh(raw)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}

	userID, err := claims.Subject()
	if err != nil {
		return nil, nil, err
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, nil, err
	}

	token, err := s.Issue(&models.User{ID: userID, Email: claims.Email})
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// Invalidate denylists raw until it can no longer be refreshed
func (s *TokenService) Invalidate(ctx context.Context, raw string) error {
	claims, err := s.parseForRefresh(raw)
	if err != nil {
		return err
	}
	return s.revoke(ctx, claims)
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.key, nil
}

// parseForRefresh checks the signature and issuer but tolerates expiry
// within the refresh window.
func (s *TokenService) parseForRefresh(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Issuer != tokenIssuer || claims.ID == "" || claims.IssuedAt == nil {
		return nil, ErrTokenInvalid
	}
	if s.now().After(s.refreshDeadline(claims)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (s *TokenService) refreshDeadline(claims *Claims) time.Time {
	return claims.IssuedAt.Time.Add(s.refreshTTL)
}

func (s *TokenService) checkRevoked(ctx context.Context, claims *Claims) error {
	if s.denylist == nil {
		return nil
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check token denylist: %w", err)
	}
	if revoked {
		return fmt.Errorf("%w: revoked", ErrTokenInvalid)
	}
	return nil
}

func (s *TokenService) revoke(ctx context.Context, claims *Claims) error {
	if s.denylist == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, s.refreshDeadline(claims)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
