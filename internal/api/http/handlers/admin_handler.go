package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/service"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// AdminHandler exposes administrative account controls.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// BlockUser handles POST /admin/users/block.
func (h *AdminHandler) BlockUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingCredential()
	}

	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("userId is required", nil)
	}

	if err := h.admin.BlockUser(c.UserContext(), principal.UserID, principal.Role, req.UserID, req.Reason); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "user blocked successfully", "userId": req.UserID},
	})
}

// UnblockUser handles POST /admin/users/unblock.
func (h *AdminHandler) UnblockUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewMissingCredential()
	}

	var req dto.UnblockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("userId is required", nil)
	}

	if err := h.admin.UnblockUser(c.UserContext(), principal.Role, req.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"message": "user unblocked successfully", "userId": req.UserID},
	})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	users, err := h.admin.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUserResponse(user))
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"users": out, "count": len(out)},
	})
}

// EmailQueue handles GET /admin/email-queue.
func (h *AdminHandler) EmailQueue(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"queueSize": h.admin.QueueDepth(),
			"timestamp": time.Now().UTC(),
		},
	})
}
