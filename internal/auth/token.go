package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every validation failure: bad signature,
// malformed payload, wrong kind or elapsed expiry. Callers must not be
// able to tell these apart.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind distinguishes short-lived access tokens from long-lived
// refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// JWTService issues and validates signed access and refresh tokens.
type JWTService struct {
	secret          []byte
	method          jwt.SigningMethod
	accessDuration  time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

func NewJWTService(secret []byte, algorithm string, accessDuration, refreshDuration time.Duration) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}

	return &JWTService{
		secret:          secret,
		method:          method,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}, nil
}

// Issue creates a signed token of the given kind for a user.
// The lifetime is derived from the kind, never from the caller.
func (s *JWTService) Issue(userID uuid.UUID, kind TokenKind) (string, error) {
	duration := s.accessDuration
	if kind == TokenKindRefresh {
		duration = s.refreshDuration
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the claims.
// Only the configured algorithm is accepted; unsigned or foreign-alg
// tokens fail regardless of their payload.
func (s *JWTService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifySubject validates a token of the expected kind and returns its
// subject user ID.
func (s *JWTService) VerifySubject(tokenStr string, kind TokenKind) (uuid.UUID, error) {
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Kind != kind {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
