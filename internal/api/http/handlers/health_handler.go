package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/persistence"
)

type dependencyCheck struct {
	name string
	ping func(context.Context) error
}

// HealthHandler responds to liveness and readiness probes. Dependencies
// that were never configured report as such without failing the probe.
type HealthHandler struct {
	serviceName string
	version     string
	checks      []dependencyCheck
}

// NewHealthHandler returns a handler probing the given dependencies.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	h := &HealthHandler{serviceName: serviceName, version: version}

	if postgres != nil && postgres.PoolHandle() != nil {
		h.checks = append(h.checks, dependencyCheck{name: "postgres", ping: postgres.Ping})
	} else {
		h.checks = append(h.checks, dependencyCheck{name: "postgres"})
	}
	if redis != nil {
		h.checks = append(h.checks, dependencyCheck{name: "redis", ping: redis.Ping})
	} else {
		h.checks = append(h.checks, dependencyCheck{name: "redis"})
	}
	return h
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready handles GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	deps := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		if check.ping == nil {
			deps[check.name] = "not configured"
			continue
		}
		if err := check.ping(ctx); err != nil {
			deps[check.name] = err.Error()
			ready = false
			continue
		}
		deps[check.name] = "ok"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": deps,
			},
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": deps,
	})
}
