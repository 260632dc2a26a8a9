package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/notify"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// TokenPair bundles a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, the session lifecycle, and
// refresh-token rotation against the user store and token manager.
type AuthService struct {
	users           repository.UserRepository
	tokenMgr        *auth.TokenManager
	queue           *notify.Queue
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	bcryptCost      int
	tokenBytes      int
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Queue      *notify.Queue
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:           deps.UserRepo,
		tokenMgr:        auth.NewTokenManager(cfg.Auth.JWTAccessSecret, cfg.Auth.JWTRefreshSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		queue:           deps.Queue,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		bcryptCost:      cfg.Auth.BcryptCost,
		tokenBytes:      cfg.Auth.TokenByteLength,
		verificationTTL: cfg.Auth.VerificationTTL(),
		resetTTL:        cfg.Auth.PasswordResetTTL(),
	}
}

// Register creates a new account with status PENDING_VERIFICATION and
// queues a verification notice.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	verificationToken, err := auth.GenerateToken(s.tokenBytes)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	verificationExpiry := time.Now().Add(s.verificationTTL)

	user := &domain.User{
		Email:              email,
		PasswordHash:       hash,
		Role:               domain.ParseRole(role),
		Status:             domain.StatusPendingVerification,
		EmailVerified:      false,
		VerificationToken:  &verificationToken,
		VerificationExpiry: &verificationExpiry,
		RefreshTokenHashes: []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("user with this email already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.queue.Enqueue(notify.KindVerification, user.Email, map[string]string{"token": verificationToken})
	s.emit(ctx, events.EventUserRegistered, user.ID, user.Email, nil)
	return user, nil
}

// Login authenticates an account and issues a token pair. Blocked and
// deleted accounts are told apart from bad credentials; that disclosure is
// a product decision carried over deliberately.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			s.emit(ctx, events.EventLoginRejected, "", email, events.LoginRejectedPayload{Reason: "unknown email", IP: ip})
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	switch user.Status {
	case domain.StatusBlocked:
		s.emit(ctx, events.EventLoginRejected, user.ID, user.Email, events.LoginRejectedPayload{Reason: "blocked", IP: ip})
		return nil, nil, apperrors.NewAccountBlocked(derefString(user.BlockedReason))
	case domain.StatusDeleted:
		s.emit(ctx, events.EventLoginRejected, user.ID, user.Email, events.LoginRejectedPayload{Reason: "deleted", IP: ip})
		return nil, nil, apperrors.NewAccountDeleted()
	case domain.StatusPendingVerification:
		s.emit(ctx, events.EventLoginRejected, user.ID, user.Email, events.LoginRejectedPayload{Reason: "pending verification", IP: ip})
		return nil, nil, apperrors.NewPendingVerification()
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.emit(ctx, events.EventLoginRejected, user.ID, user.Email, events.LoginRejectedPayload{Reason: "bad password", IP: ip})
		return nil, nil, apperrors.NewInvalidCredentials()
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{LastLoginAt: &now}); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	user.LastLoginAt = &now

	s.emit(ctx, events.EventUserLoggedIn, user.ID, user.Email, nil)
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored
// digest. Presenting a digest that is no longer in the valid set is treated
// as a compromise signal: every session for the account is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil, apperrors.NewInvalidToken()
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, apperrors.NewInternalError(err)
	}

	presentedHash := auth.HashToken(refreshToken)
	if !user.HasRefreshTokenHash(presentedHash) {
		return nil, s.revokeAllOnReuse(ctx, user)
	}

	switch user.Status {
	case domain.StatusBlocked:
		return nil, apperrors.NewAccountBlocked(derefString(user.BlockedReason))
	case domain.StatusDeleted:
		return nil, apperrors.NewAccountDeleted()
	}

	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	newRefreshToken, refreshExp, err := s.tokenMgr.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	// The digest swap is one conditional store update. Losing the race
	// means another caller already rotated this token away, which is the
	// same compromise signal as an outright replay.
	rotated, err := s.users.RotateRefreshTokenHash(ctx, user.ID, presentedHash, auth.HashToken(newRefreshToken))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !rotated {
		return nil, s.revokeAllOnReuse(ctx, user)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     newRefreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) revokeAllOnReuse(ctx context.Context, user *domain.User) error {
	revoked := len(user.RefreshTokenHashes)
	if _, err := s.users.ClearRefreshTokenHashes(ctx, user.ID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Warn("refresh token reuse detected, all sessions revoked",
		zap.String("user_id", user.ID),
		zap.Int("revoked_sessions", revoked))
	s.emit(ctx, events.EventRefreshReused, user.ID, user.Email, events.RefreshReusedPayload{RevokedSessions: revoked})
	return apperrors.NewUnauthorized("invalid refresh token, please login again")
}

// Logout removes the presented refresh token's digest. It is idempotent and
// succeeds even for unparseable tokens so the endpoint leaks nothing.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil
	}
	if _, err := s.users.RemoveRefreshTokenHash(ctx, claims.UserID, auth.HashToken(refreshToken)); err != nil {
		s.logger.Warn("logout: failed to remove refresh token hash", zap.Error(err))
	}
	return nil
}

// ForgotPassword issues a reset token when the account exists. The outcome
// is identical either way so the endpoint cannot be used for enumeration.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email, err := ValidateEmail(email)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil
		}
		return apperrors.NewInternalError(err)
	}

	resetToken, err := auth.GenerateToken(s.tokenBytes)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	resetExpiry := time.Now().Add(s.resetTTL)

	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{
		ResetToken:  &resetToken,
		ResetExpiry: &resetExpiry,
	}); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.queue.Enqueue(notify.KindPasswordReset, user.Email, map[string]string{"token": resetToken})
	return nil
}

// ResetPassword replaces the password via an unexpired reset token and
// invalidates every existing session for the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired reset token", nil)
		}
		return apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{
		PasswordHash:    &hash,
		ClearResetToken: true,
	}); err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := s.users.ClearRefreshTokenHashes(ctx, user.ID); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.emit(ctx, events.EventPasswordReset, user.ID, user.Email, nil)
	return nil
}

// VerifyEmail consumes an unexpired verification token, activates the
// account, and queues a welcome notice.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewValidationError("invalid or expired verification token", nil)
		}
		return apperrors.NewInternalError(err)
	}

	verified := true
	status := domain.StatusActive
	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{
		EmailVerified:          &verified,
		Status:                 &status,
		ClearVerificationToken: true,
	}); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.queue.Enqueue(notify.KindWelcome, user.Email, nil)
	s.emit(ctx, events.EventEmailVerified, user.ID, user.Email, nil)
	return nil
}

// ChangePassword verifies the current password before updating to the new
// hash. All sessions are revoked, same as a reset.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{PasswordHash: &hash}); err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := s.users.ClearRefreshTokenHashes(ctx, user.ID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// CurrentUser loads the caller's own account record.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// IntrospectToken validates an access token for another service and
// re-checks the live account status.
func (s *AuthService) IntrospectToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenMgr.ParseToken(token, auth.TokenKindAccess)
	if err != nil {
		return nil, apperrors.NewInvalidToken()
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperrors.NewInvalidToken()
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user.Status != domain.StatusActive {
		return nil, apperrors.NewForbidden("account is not active")
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, accessExp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refreshToken, refreshExp, err := s.tokenMgr.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if _, err := s.users.AddRefreshTokenHash(ctx, user.ID, auth.HashToken(refreshToken)); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) emit(ctx context.Context, eventType events.EventType, userID, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
