package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tokens         *handlers.TokensHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.RateLimit, cfg.Auth.Register)
	authGroup.Post("/login", cfg.RateLimit, cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Post("/forgot-password", cfg.RateLimit, cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/password/change", cfg.Auth.ChangePassword)

	app.Post("/verify-token", cfg.Tokens.Verify)

	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle)
	adminGroup.Get("/users", auth.RequireRole(domain.RoleAdmin), cfg.Admin.ListUsers)
	adminGroup.Post("/users/block", auth.RequireRole(domain.RoleCreator, domain.RoleAdmin), cfg.Admin.BlockUser)
	adminGroup.Post("/users/unblock", auth.RequireRole(domain.RoleCreator, domain.RoleAdmin), cfg.Admin.UnblockUser)
	adminGroup.Get("/email-queue", auth.RequireRole(domain.RoleAdmin), cfg.Admin.EmailQueue)
}
