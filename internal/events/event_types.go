package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "user_registered"
	EventUserLoggedIn      EventType = "user_logged_in"
	EventLoginRejected     EventType = "login_rejected"
	EventRefreshReused     EventType = "refresh_reuse_detected"
	EventRateLimitExceeded EventType = "rate_limit_exceeded"
	EventPasswordReset     EventType = "password_reset"
	EventEmailVerified     EventType = "email_verified"
	EventUserBlocked       EventType = "user_blocked"
	EventUserUnblocked     EventType = "user_unblocked"
)

// Event represents a security-relevant occurrence emitted by services.
// Events are for operator observability only; they never alter the
// caller-visible response.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginRejectedPayload payload.
type LoginRejectedPayload struct {
	Reason string `json:"reason"`
	IP     string `json:"ip,omitempty"`
}

// RefreshReusedPayload payload.
type RefreshReusedPayload struct {
	RevokedSessions int `json:"revoked_sessions"`
}

// RateLimitExceededPayload payload.
type RateLimitExceededPayload struct {
	Identifier string `json:"identifier"`
	Endpoint   string `json:"endpoint"`
}

// UserBlockedPayload payload.
type UserBlockedPayload struct {
	BlockedBy string `json:"blocked_by"`
	Reason    string `json:"reason,omitempty"`
}
