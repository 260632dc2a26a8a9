package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/notify"
	"github.com/spec-kit/auth-service/internal/repository"
)

func newTestAdminService(t *testing.T) (*AdminService, *AuthService, repository.UserRepository) {
	t.Helper()

	logger := zap.NewNop()
	repo := repository.NewMemoryUserRepository()
	queue := notify.NewQueue(64, 3, time.Minute, logger)
	dispatcher := events.NewInMemoryDispatcher()

	authSvc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:   repo,
		Queue:      queue,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	return NewAdminService(repo, queue, dispatcher, logger), authSvc, repo
}

func seedUser(t *testing.T, authSvc *AuthService, repo repository.UserRepository, email string, role domain.Role) *domain.User {
	t.Helper()
	ctx := context.Background()

	user := registerActiveUser(t, authSvc, email, "Passw0rd1")
	if role != domain.RoleUser {
		_, err := repo.UpdateFields(ctx, user.ID, repository.UserUpdate{Role: &role})
		require.NoError(t, err)
		user.Role = role
	}
	return user
}

func TestBlockUser_RevokesSessions(t *testing.T) {
	t.Parallel()

	adminSvc, authSvc, repo := newTestAdminService(t)
	ctx := context.Background()

	admin := seedUser(t, authSvc, repo, "admin@x.com", domain.RoleAdmin)
	target := seedUser(t, authSvc, repo, "target@x.com", domain.RoleUser)
	_, pair, err := authSvc.Login(ctx, "target@x.com", "Passw0rd1", "")
	require.NoError(t, err)

	require.NoError(t, adminSvc.BlockUser(ctx, admin.ID, admin.Role, target.ID, "spam"))

	stored, err := repo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, stored.Status)
	require.NotNil(t, stored.BlockedBy)
	assert.Equal(t, admin.ID, *stored.BlockedBy)
	require.NotNil(t, stored.BlockedReason)
	assert.Equal(t, "spam", *stored.BlockedReason)
	assert.Empty(t, stored.RefreshTokenHashes)

	_, err = authSvc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err, "existing session is dead after the block")
}

func TestBlockUser_Rules(t *testing.T) {
	t.Parallel()

	adminSvc, authSvc, repo := newTestAdminService(t)
	ctx := context.Background()

	admin := seedUser(t, authSvc, repo, "root@x.com", domain.RoleAdmin)
	creator := seedUser(t, authSvc, repo, "creator@x.com", domain.RoleCreator)
	support := seedUser(t, authSvc, repo, "support@x.com", domain.RoleSupport)
	plain := seedUser(t, authSvc, repo, "plain@x.com", domain.RoleUser)

	err := adminSvc.BlockUser(ctx, plain.ID, plain.Role, support.ID, "")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err), "regular users cannot block")

	err = adminSvc.BlockUser(ctx, support.ID, support.Role, plain.ID, "")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err), "support cannot block")

	err = adminSvc.BlockUser(ctx, admin.ID, admin.Role, admin.ID, "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err), "no self-blocking")

	err = adminSvc.BlockUser(ctx, creator.ID, creator.Role, admin.ID, "")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err), "only admins block admins")

	err = adminSvc.BlockUser(ctx, admin.ID, admin.Role, "missing-id", "")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	assert.NoError(t, adminSvc.BlockUser(ctx, creator.ID, creator.Role, plain.ID, "abuse"))
}

func TestUnblockUser(t *testing.T) {
	t.Parallel()

	adminSvc, authSvc, repo := newTestAdminService(t)
	ctx := context.Background()

	admin := seedUser(t, authSvc, repo, "admin2@x.com", domain.RoleAdmin)
	target := seedUser(t, authSvc, repo, "victim@x.com", domain.RoleUser)

	err := adminSvc.UnblockUser(ctx, admin.Role, target.ID)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err), "only blocked accounts can be unblocked")

	require.NoError(t, adminSvc.BlockUser(ctx, admin.ID, admin.Role, target.ID, "oops"))
	require.NoError(t, adminSvc.UnblockUser(ctx, admin.Role, target.ID))

	stored, err := repo.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
	assert.Nil(t, stored.BlockedBy)
	assert.Nil(t, stored.BlockedAt)
	assert.Nil(t, stored.BlockedReason)

	_, _, err = authSvc.Login(ctx, "victim@x.com", "Passw0rd1", "")
	require.NoError(t, err, "unblocked account can login again")

	err = adminSvc.UnblockUser(ctx, domain.RoleUser, target.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}
