package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/notify"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// AdminService handles administrative account-status transitions.
type AdminService struct {
	users      repository.UserRepository
	queue      *notify.Queue
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository, queue *notify.Queue, dispatcher events.Dispatcher, logger *zap.Logger) *AdminService {
	return &AdminService{users: users, queue: queue, dispatcher: dispatcher, logger: logger}
}

// BlockUser blocks the target account and revokes every session it holds.
// Callers cannot block themselves, and only admins may block admins.
func (s *AdminService) BlockUser(ctx context.Context, actorID string, actorRole domain.Role, targetID, reason string) error {
	if !domain.CanBlockUsers(actorRole) {
		return apperrors.NewInsufficientRole()
	}
	if targetID == actorID {
		return apperrors.NewValidationError("you cannot block yourself", nil)
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.NewInternalError(err)
	}
	if target.Role == domain.RoleAdmin && actorRole != domain.RoleAdmin {
		return apperrors.NewForbidden("you cannot block administrators")
	}

	changed, err := s.users.Block(ctx, targetID, actorID, reason)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !changed {
		return apperrors.NewNotFound("user", nil)
	}
	if _, err := s.users.ClearRefreshTokenHashes(ctx, targetID); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("user blocked",
		zap.String("user_id", targetID),
		zap.String("blocked_by", actorID))
	s.emit(ctx, events.EventUserBlocked, target, events.UserBlockedPayload{BlockedBy: actorID, Reason: reason})
	return nil
}

// UnblockUser restores a blocked account to ACTIVE and clears the block
// metadata atomically.
func (s *AdminService) UnblockUser(ctx context.Context, actorRole domain.Role, targetID string) error {
	if !domain.CanBlockUsers(actorRole) {
		return apperrors.NewInsufficientRole()
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.NewInternalError(err)
	}

	changed, err := s.users.Unblock(ctx, targetID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !changed {
		return apperrors.NewValidationError("user is not blocked", nil)
	}

	s.emit(ctx, events.EventUserUnblocked, target, nil)
	return nil
}

// ListUsers returns a page of accounts ordered newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// QueueDepth reports the notification queue backlog.
func (s *AdminService) QueueDepth() int {
	return s.queue.Depth()
}

func (s *AdminService) emit(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
