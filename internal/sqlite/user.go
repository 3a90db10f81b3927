package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rpggio/syncteam/internal/domain/session"
	"github.com/rpggio/syncteam/internal/repository"
)

// UserRepository implements session.UserRepository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts an account and sets its assigned ID
func (r *UserRepository) CreateUser(ctx context.Context, u *session.User) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`,
		u.Email, u.PasswordHash, formatTime(u.CreatedAt),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	return nil
}

// GetUser retrieves an account by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (*session.User, error) {
	return r.get(ctx, "id = ?", id)
}

// GetUserByEmail retrieves an account by email, ignoring case
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*session.User, error) {
	return r.get(ctx, "email = ?", email)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*session.User, error) {
	var (
		u         session.User
		id        int64
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&id, &u.Email, &u.PasswordHash, &createdAt)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// CountUsers returns the number of accounts
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
