package session

import (
	"time"

	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/perm"
)

// DefaultTTL is how long a session stays valid after sign-in.
const DefaultTTL = 7 * 24 * time.Hour

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// User is an account able to sign in
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a bearer session. Only a hash of the token is persisted.
type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity is a signed-in user together with the token that proves it.
type Identity struct {
	Token     string        `json:"token,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      record.Record `json:"user"`
	UserID    string        `json:"-"`
	Role      perm.Role     `json:"-"`
}

// Caller returns the identity as a data API caller.
func (i *Identity) Caller() record.Caller {
	return record.Caller{UserID: i.UserID, Role: i.Role}
}

// SignupRequest describes a new account.
type SignupRequest struct {
	Email    string
	Password string
	FullName string
	Role     string
}
