package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// TokensHandler lets other services validate access tokens without direct
// database access.
type TokensHandler struct {
	auth *service.AuthService
}

// NewTokensHandler constructs handler.
func NewTokensHandler(authService *service.AuthService) *TokensHandler {
	return &TokensHandler{auth: authService}
}

// Verify handles POST /verify-token.
func (h *TokensHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token is required", nil)
	}

	user, err := h.auth.IntrospectToken(c.UserContext(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"valid": true,
			"user":  dto.NewUserResponse(user),
			"permissions": fiber.Map{
				"canDeleteComments": domain.CanDeleteComments(user.Role),
				"canBlockUsers":     domain.CanBlockUsers(user.Role),
				"canManageRoles":    domain.CanManageRoles(user.Role),
			},
		},
	})
}
