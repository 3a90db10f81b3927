// Package testserver runs the full API over an in-memory database for
// integration tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/changefeed"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/domain/session"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/sqlite"
	"github.com/rpggio/syncteam/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Hub      *changefeed.Hub
	Sessions *session.Service
	Records  *record.Service
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	documentRepo := sqlite.NewDocumentRepository(db)
	blobRepo := sqlite.NewBlobRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	hub := changefeed.NewHub(nil)
	activitySvc := activity.NewService(activityRepo, nil)
	recordSvc := record.NewService(documentRepo, blobRepo, activitySvc, hub, nil)
	sessionSvc := session.NewService(userRepo, sessionRepo, documentRepo, nil, time.Hour)

	server := httptest.NewServer(transport.NewServer(transport.Deps{
		Records:  recordSvc,
		Auth:     sessionSvc,
		Activity: activitySvc,
		Feed:     hub,
		DB:       db,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Hub:      hub,
		Sessions: sessionSvc,
		Records:  recordSvc,
	}

	t.Cleanup(func() {
		hub.Close()
		server.Close()
		_ = db.Close()
	})

	return ts
}

// URL returns the server's base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Backend returns an unauthenticated client for the server.
func (ts *TestServer) Backend(t *testing.T) *remote.HTTPBackend {
	t.Helper()
	b, err := remote.NewHTTPBackend(ts.URL(), remote.WithReconnect(10*time.Millisecond, 50*time.Millisecond))
	require.NoError(t, err)
	return b
}

// SignedIn registers an account and returns a client holding its token.
// The first account on a server is an admin.
func (ts *TestServer) SignedIn(t *testing.T, email, name, role string) (*remote.HTTPBackend, remote.Session) {
	t.Helper()
	b := ts.Backend(t)
	sess, err := b.Signup(context.Background(), email, "password1", name, role)
	require.NoError(t, err)
	return b, sess
}
