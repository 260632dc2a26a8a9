package events

import (
	"context"

	"go.uber.org/zap"
)

// RegisterAuditLogger subscribes a structured log sink to every security
// event type so rejections and revocations are visible to operators.
func RegisterAuditLogger(dispatcher Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}

	types := []EventType{
		EventUserRegistered,
		EventUserLoggedIn,
		EventLoginRejected,
		EventRefreshReused,
		EventRateLimitExceeded,
		EventPasswordReset,
		EventEmailVerified,
		EventUserBlocked,
		EventUserUnblocked,
	}

	for _, eventType := range types {
		dispatcher.Subscribe(eventType, func(_ context.Context, event Event) error {
			logger.Info("security event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("user_id", event.UserID),
				zap.String("email", event.Email),
				zap.Time("timestamp", event.Timestamp),
				zap.Any("payload", event.Payload))
			return nil
		})
	}
}
