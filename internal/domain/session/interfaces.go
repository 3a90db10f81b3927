package session

import (
	"context"
	"time"

	"github.com/rpggio/syncteam/internal/domain/record"
)

// UserRepository provides persistence for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionRepository provides persistence for bearer sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProfileRepository reads and writes rows of the profiles table.
type ProfileRepository interface {
	Get(ctx context.Context, table, id string) (record.Record, error)
	Put(ctx context.Context, table, id string, rec record.Record) (record.Record, error)
}
