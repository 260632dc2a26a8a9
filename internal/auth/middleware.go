package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Role   domain.Role
	User   *domain.User
}

// AuthMiddleware validates bearer tokens and loads principals. The account
// is re-fetched on every protected call so a block or deletion takes effect
// before the access token expires.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewMissingCredential()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewMissingCredential()
	}

	claims, err := m.tokens.ParseToken(parts[1], TokenKindAccess)
	if err != nil {
		return apperrors.NewInvalidToken()
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewInvalidToken()
		}
		return apperrors.MapError(err)
	}

	switch user.Status {
	case domain.StatusBlocked:
		reason := ""
		if user.BlockedReason != nil {
			reason = *user.BlockedReason
		}
		return apperrors.NewAccountBlocked(reason)
	case domain.StatusDeleted:
		return apperrors.NewAccountDeleted()
	}

	c.Locals(principalKey, &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		User:   user,
	})
	return c.Next()
}

// RequireRole ensures the principal holds one of the allowed roles. The
// allowed set is explicit per route; roles carry no hierarchy.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewMissingCredential()
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewInsufficientRole()
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
