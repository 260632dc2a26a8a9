package domain

import "time"

// AccountStatus represents lifecycle states for a registered account.
type AccountStatus string

const (
	StatusActive              AccountStatus = "ACTIVE"
	StatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
	StatusBlocked             AccountStatus = "BLOCKED"
	StatusDeleted             AccountStatus = "DELETED"
)

// User is the domain model for a registered principal.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	Role               Role
	Status             AccountStatus
	EmailVerified      bool
	VerificationToken  *string
	VerificationExpiry *time.Time
	ResetToken         *string
	ResetExpiry        *time.Time
	RefreshTokenHashes []string
	BlockedBy          *string
	BlockedAt          *time.Time
	BlockedReason      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastLoginAt        *time.Time
}

// HasRefreshTokenHash reports whether the digest is currently valid for this user.
func (u *User) HasRefreshTokenHash(hash string) bool {
	for _, h := range u.RefreshTokenHashes {
		if h == hash {
			return true
		}
	}
	return false
}
