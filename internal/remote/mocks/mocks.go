package mocks

import (
	"context"

	"github.com/rpggio/syncteam/internal/remote"
	"github.com/stretchr/testify/mock"
)

// Backend is a mock for remote.Backend.
type Backend struct {
	mock.Mock
}

func (m *Backend) Select(ctx context.Context, table string, f remote.Filter) ([]remote.Row, error) {
	args := m.Called(ctx, table, f)
	if rows, ok := args.Get(0).([]remote.Row); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	args := m.Called(ctx, table, row)
	if out, ok := args.Get(0).(remote.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) Update(ctx context.Context, table, id string, patch remote.Row) (remote.Row, error) {
	args := m.Called(ctx, table, id, patch)
	if out, ok := args.Get(0).(remote.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) Delete(ctx context.Context, table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

func (m *Backend) Authenticate(ctx context.Context, email, password string) (remote.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(remote.Session), args.Error(1)
}

func (m *Backend) Upload(ctx context.Context, f remote.FileUpload) (remote.Row, error) {
	args := m.Called(ctx, f)
	if out, ok := args.Get(0).(remote.Row); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) Subscribe(ctx context.Context) (<-chan remote.Change, error) {
	args := m.Called(ctx)
	if ch, ok := args.Get(0).(<-chan remote.Change); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}
