package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/repository"
	"github.com/rpggio/syncteam/internal/sanitize"
	"golang.org/x/crypto/bcrypt"
)

// Service handles sign-up, sign-in and bearer token resolution.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	profiles ProfileRepository
	logger   *slog.Logger
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewService creates a new session service. A zero ttl uses DefaultTTL.
func NewService(
	users UserRepository,
	sessions SessionRepository,
	profiles ProfileRepository,
	logger *slog.Logger,
	ttl time.Duration,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Signup registers an account, creates its profile and signs it in. The
// first account becomes an admin; later accounts may ask for member or
// viewer and are otherwise made members.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Identity, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(sanitize.String(req.FullName))
	if name == "" {
		name = email
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	role, err := s.signupRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	profile := record.Record{"full_name": name, "email": email, "role": string(role)}
	if err := record.Validate(remote.TableProfiles, profile, true); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &User{Email: email, PasswordHash: string(hash), CreatedAt: s.now().UTC()}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if _, err := s.profiles.Put(ctx, remote.TableProfiles, user.ID, profile); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	s.logger.Info("account created", "user_id", user.ID, "role", role)
	return s.open(ctx, user)
}

func (s *Service) signupRole(ctx context.Context, requested string) (perm.Role, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("counting users: %w", err)
	}
	if n == 0 {
		return perm.RoleAdmin, nil
	}
	if role, ok := perm.ParseRole(requested); ok && role == perm.RoleViewer {
		return role, nil
	}
	return perm.RoleMember, nil
}

// Login checks credentials and opens a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.open(ctx, user)
}

func (s *Service) open(ctx context.Context, user *User) (*Identity, error) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	now := s.now().UTC()
	sess := &Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	id, err := s.identity(ctx, sess)
	if err != nil {
		return nil, err
	}
	id.Token = token
	return id, nil
}

// Resolve returns the identity owning token. Expired sessions are removed.
func (s *Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	hash := HashToken(token)
	sess, err := s.sessions.Get(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.sessions.Delete(ctx, hash); err != nil {
			s.logger.Warn("expired session not removed", "user_id", sess.UserID, "error", err)
		}
		return nil, ErrSessionExpired
	}
	return s.identity(ctx, sess)
}

func (s *Service) identity(ctx context.Context, sess *Session) (*Identity, error) {
	profile, err := s.profiles.Get(ctx, remote.TableProfiles, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	role := perm.RoleViewer
	if v, ok := profile["role"].(string); ok {
		if r, ok := perm.ParseRole(v); ok {
			role = r
		}
	}
	return &Identity{
		ExpiresAt: sess.ExpiresAt,
		User:      profile,
		UserID:    sess.UserID,
		Role:      role,
	}, nil
}

// Logout ends the session holding token.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.sessions.Delete(ctx, HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Prune removes expired sessions and reports how many went.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("expired sessions pruned", "count", n)
	}
	return n, nil
}
