package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrInvalidToken is the uniform verification failure: bad signature,
// expired, malformed, or wrong kind are never differentiated to callers.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager handles issuing and validating JWT tokens. Access and
// refresh tokens are signed with disjoint secrets so one kind can never
// be presented where the other is expected.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Kind   TokenKind   `json:"type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken builds and signs a short-lived access token.
func (tm *TokenManager) GenerateAccessToken(userID, email string, role domain.Role) (string, time.Time, error) {
	return tm.generate(userID, email, role, TokenKindAccess, tm.accessSecret, tm.accessTTL)
}

// GenerateRefreshToken builds and signs a long-lived refresh token.
func (tm *TokenManager) GenerateRefreshToken(userID, email string, role domain.Role) (string, time.Time, error) {
	return tm.generate(userID, email, role, TokenKindRefresh, tm.refreshSecret, tm.refreshTTL)
}

func (tm *TokenManager) generate(userID, email string, role domain.Role, kind TokenKind, secret []byte, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps tokens minted within the same second distinct,
			// which rotation depends on.
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a token of the expected kind and returns its claims.
// Every failure collapses to ErrInvalidToken.
func (tm *TokenManager) ParseToken(tokenStr string, kind TokenKind) (*Claims, error) {
	secret := tm.accessSecret
	if kind == TokenKindRefresh {
		secret = tm.refreshSecret
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
