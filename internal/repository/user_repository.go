package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/domain"
)

// ErrNoRows is re-exported so services do not import pgx directly.
var ErrNoRows = pgx.ErrNoRows

// ErrDuplicateEmail reports a unique-constraint violation on email.
var ErrDuplicateEmail = errors.New("email already registered")

// UserUpdate describes a partial update. Nil pointers leave the column
// untouched; the Clear flags null out token fields after consumption.
type UserUpdate struct {
	PasswordHash           *string
	Role                   *domain.Role
	Status                 *domain.AccountStatus
	EmailVerified          *bool
	VerificationToken      *string
	VerificationExpiry     *time.Time
	ClearVerificationToken bool
	ResetToken             *string
	ResetExpiry            *time.Time
	ClearResetToken        bool
	LastLoginAt            *time.Time
}

// UserRepository defines persistence access for registered accounts.
// Mutations report whether a record was actually changed so callers can
// detect no-ops and contention.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateFields(ctx context.Context, id string, update UserUpdate) (bool, error)
	AddRefreshTokenHash(ctx context.Context, id, hash string) (bool, error)
	RemoveRefreshTokenHash(ctx context.Context, id, hash string) (bool, error)
	RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
	ClearRefreshTokenHashes(ctx context.Context, id string) (bool, error)
	Block(ctx context.Context, id, blockedBy, reason string) (bool, error)
	Unblock(ctx context.Context, id string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        id, email, password_hash, role, status, email_verified,
        verification_token, verification_expires, reset_token, reset_expires,
        refresh_token_hashes, blocked_by, blocked_at, blocked_reason,
        created_at, updated_at, last_login_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, role, status, email_verified, verification_token, verification_expires)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.Status,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationExpiry,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token=$1 AND verification_expires > NOW()`,
		token)
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token=$1 AND reset_expires > NOW()`,
		token)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.EmailVerified,
		&user.VerificationToken,
		&user.VerificationExpiry,
		&user.ResetToken,
		&user.ResetExpiry,
		&user.RefreshTokenHashes,
		&user.BlockedBy,
		&user.BlockedAt,
		&user.BlockedReason,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0, limit)
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, update UserUpdate) (bool, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if update.PasswordHash != nil {
		appendSet("password_hash", *update.PasswordHash)
	}
	if update.Role != nil {
		appendSet("role", *update.Role)
	}
	if update.Status != nil {
		appendSet("status", *update.Status)
	}
	if update.EmailVerified != nil {
		appendSet("email_verified", *update.EmailVerified)
	}
	if update.ClearVerificationToken {
		sets = append(sets, "verification_token=NULL", "verification_expires=NULL")
	} else if update.VerificationToken != nil {
		appendSet("verification_token", *update.VerificationToken)
		appendSet("verification_expires", update.VerificationExpiry)
	}
	if update.ClearResetToken {
		sets = append(sets, "reset_token=NULL", "reset_expires=NULL")
	} else if update.ResetToken != nil {
		appendSet("reset_token", *update.ResetToken)
		appendSet("reset_expires", update.ResetExpiry)
	}
	if update.LastLoginAt != nil {
		appendSet("last_login_at", *update.LastLoginAt)
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE id=$1", strings.Join(sets, ", "))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) AddRefreshTokenHash(ctx context.Context, id, hash string) (bool, error) {
	const query = `
        UPDATE users SET refresh_token_hashes = array_append(refresh_token_hashes, $2), updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) RemoveRefreshTokenHash(ctx context.Context, id, hash string) (bool, error) {
	const query = `
        UPDATE users SET refresh_token_hashes = array_remove(refresh_token_hashes, $2), updated_at=NOW()
        WHERE id=$1 AND $2 = ANY(refresh_token_hashes)`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// RotateRefreshTokenHash swaps the presented digest for a new one in a
// single conditional update. Zero rows affected means the old digest was
// already rotated away, which the caller treats as reuse.
func (r *userRepository) RotateRefreshTokenHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	const query = `
        UPDATE users
        SET refresh_token_hashes = array_append(array_remove(refresh_token_hashes, $2), $3), updated_at=NOW()
        WHERE id=$1 AND $2 = ANY(refresh_token_hashes)`
	cmd, err := r.pool.Exec(ctx, query, id, oldHash, newHash)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) ClearRefreshTokenHashes(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE users SET refresh_token_hashes = '{}', updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) Block(ctx context.Context, id, blockedBy, reason string) (bool, error) {
	const query = `
        UPDATE users
        SET status=$2, blocked_by=$3, blocked_at=NOW(), blocked_reason=NULLIF($4, ''), updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, domain.StatusBlocked, blockedBy, reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) Unblock(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE users
        SET status=$2, blocked_by=NULL, blocked_at=NULL, blocked_reason=NULL, updated_at=NOW()
        WHERE id=$1 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, id, domain.StatusActive, domain.StatusBlocked)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
