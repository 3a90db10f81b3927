package mocks

import (
	"context"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/domain/session"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/stretchr/testify/mock"
)

// DocumentRepository is a mock for record.Repository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) List(ctx context.Context, table string, opts record.ListOptions) ([]record.Record, error) {
	args := m.Called(ctx, table, opts)
	if list, ok := args.Get(0).([]record.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Get(ctx context.Context, table, id string) (record.Record, error) {
	args := m.Called(ctx, table, id)
	if rec, ok := args.Get(0).(record.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Create(ctx context.Context, table string, rec record.Record) (record.Record, error) {
	args := m.Called(ctx, table, rec)
	if out, ok := args.Get(0).(record.Record); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Put(ctx context.Context, table, id string, rec record.Record) (record.Record, error) {
	args := m.Called(ctx, table, id, rec)
	if out, ok := args.Get(0).(record.Record); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Update(ctx context.Context, table, id string, patch record.Record) (record.Record, error) {
	args := m.Called(ctx, table, id, patch)
	if out, ok := args.Get(0).(record.Record); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Delete(ctx context.Context, table, id string) (record.Record, error) {
	args := m.Called(ctx, table, id)
	if out, ok := args.Get(0).(record.Record); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

// BlobRepository is a mock for record.BlobRepository.
type BlobRepository struct {
	mock.Mock
}

func (m *BlobRepository) PutBlob(ctx context.Context, blob *record.Blob) error {
	args := m.Called(ctx, blob)
	return args.Error(0)
}

func (m *BlobRepository) GetBlob(ctx context.Context, fileID string) (*record.Blob, error) {
	args := m.Called(ctx, fileID)
	if blob, ok := args.Get(0).(*record.Blob); ok {
		return blob, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Activity) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for record.ActivityLogger.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.Activity) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Publisher is a mock for record.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(change remote.Change) {
	m.Called(change)
}

// UserRepository is a mock for session.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, u *session.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) GetUser(ctx context.Context, id string) (*session.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*session.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*session.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*session.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, tokenHash string) (*session.Session, error) {
	args := m.Called(ctx, tokenHash)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
