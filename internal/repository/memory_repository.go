package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// memoryUserRepository is a mutex-guarded in-memory UserRepository used in
// tests and when no Postgres DSN is configured.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewMemoryUserRepository returns an in-memory implementation.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*domain.User)}
}

func cloneUser(user *domain.User) *domain.User {
	clone := *user
	clone.RefreshTokenHashes = append([]string(nil), user.RefreshTokenHashes...)
	return &clone
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			return ErrDuplicateEmail
		}
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.RefreshTokenHashes == nil {
		user.RefreshTokenHashes = []string{}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNoRows
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNoRows
}

func (r *memoryUserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, user := range r.users {
		if user.VerificationToken != nil && *user.VerificationToken == token &&
			user.VerificationExpiry != nil && user.VerificationExpiry.After(now) {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNoRows
}

func (r *memoryUserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, user := range r.users {
		if user.ResetToken != nil && *user.ResetToken == token &&
			user.ResetExpiry != nil && user.ResetExpiry.After(now) {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNoRows
}

func (r *memoryUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, cloneUser(user))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*domain.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryUserRepository) UpdateFields(ctx context.Context, id string, update UserUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}

	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if update.EmailVerified != nil {
		user.EmailVerified = *update.EmailVerified
	}
	if update.ClearVerificationToken {
		user.VerificationToken = nil
		user.VerificationExpiry = nil
	} else if update.VerificationToken != nil {
		user.VerificationToken = update.VerificationToken
		user.VerificationExpiry = update.VerificationExpiry
	}
	if update.ClearResetToken {
		user.ResetToken = nil
		user.ResetExpiry = nil
	} else if update.ResetToken != nil {
		user.ResetToken = update.ResetToken
		user.ResetExpiry = update.ResetExpiry
	}
	if update.LastLoginAt != nil {
		user.LastLoginAt = update.LastLoginAt
	}
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryUserRepository) AddRefreshTokenHash(ctx context.Context, id, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	user.RefreshTokenHashes = append(user.RefreshTokenHashes, hash)
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryUserRepository) RemoveRefreshTokenHash(ctx context.Context, id, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	removed := removeHash(user, hash)
	if removed {
		user.UpdatedAt = time.Now()
	}
	return removed, nil
}

func (r *memoryUserRepository) RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	if !removeHash(user, oldHash) {
		return false, nil
	}
	user.RefreshTokenHashes = append(user.RefreshTokenHashes, newHash)
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryUserRepository) ClearRefreshTokenHashes(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	user.RefreshTokenHashes = []string{}
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryUserRepository) Block(ctx context.Context, id, blockedBy, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	now := time.Now()
	user.Status = domain.StatusBlocked
	user.BlockedBy = &blockedBy
	user.BlockedAt = &now
	if reason != "" {
		user.BlockedReason = &reason
	} else {
		user.BlockedReason = nil
	}
	user.UpdatedAt = now
	return true, nil
}

func (r *memoryUserRepository) Unblock(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.Status != domain.StatusBlocked {
		return false, nil
	}
	user.Status = domain.StatusActive
	user.BlockedBy = nil
	user.BlockedAt = nil
	user.BlockedReason = nil
	user.UpdatedAt = time.Now()
	return true, nil
}

func removeHash(user *domain.User, hash string) bool {
	for i, h := range user.RefreshTokenHashes {
		if h == hash {
			user.RefreshTokenHashes = append(user.RefreshTokenHashes[:i], user.RefreshTokenHashes[i+1:]...)
			return true
		}
	}
	return false
}
