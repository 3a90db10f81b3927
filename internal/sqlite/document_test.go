package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/repository"
	"github.com/stretchr/testify/require"
)

func newDocuments(t *testing.T) *DocumentRepository {
	t.Helper()
	repo := NewDocumentRepository(NewTestDB(t))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo
}

func TestDocumentRepository_CreateGet(t *testing.T) {
	repo := newDocuments(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "tasks", record.Record{
		"id":          "tmp-1",
		"title":       "Write docs",
		"project_id":  "7",
		"blocked_by":  []string{"2"},
		"time_spent":  90,
		"description": "",
	})
	require.NoError(t, err)
	require.Equal(t, "1", created.ID())
	require.Equal(t, "Write docs", created["title"])
	require.Equal(t, json.Number("90"), created["time_spent"])
	require.Equal(t, []any{"2"}, created["blocked_by"])
	require.Equal(t, "2026-03-01T09:00:01.000000Z", created["created_at"])

	loaded, err := repo.Get(ctx, "tasks", "1")
	require.NoError(t, err)
	require.Equal(t, created, loaded)

	_, err = repo.Get(ctx, "tasks", "2")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Get(ctx, "users", "1")
	require.ErrorIs(t, err, record.ErrUnknownTable)
}

func TestDocumentRepository_ListFiltersAndOrders(t *testing.T) {
	repo := newDocuments(t)
	ctx := context.Background()

	for _, rec := range []record.Record{
		{"task_id": "1", "title": "b", "position": 2},
		{"task_id": "1", "title": "a", "position": 1},
		{"task_id": "2", "title": "c", "position": 0},
	} {
		_, err := repo.Create(ctx, "subtasks", rec)
		require.NoError(t, err)
	}

	subs, err := repo.List(ctx, "subtasks", record.ListOptions{Eq: map[string]string{"task_id": "1"}, Order: "position"})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "a", subs[0]["title"])
	require.Equal(t, "b", subs[1]["title"])

	newest, err := repo.List(ctx, "subtasks", record.ListOptions{Order: "created_at", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	require.Equal(t, "c", newest[0]["title"])

	byID, err := repo.List(ctx, "subtasks", record.ListOptions{Eq: map[string]string{"id": "2"}})
	require.NoError(t, err)
	require.Len(t, byID, 1)

	none, err := repo.List(ctx, "projects", record.ListOptions{})
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = repo.List(ctx, "subtasks", record.ListOptions{Order: "title; DROP TABLE subtasks"})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestDocumentRepository_UpdateMerges(t *testing.T) {
	repo := newDocuments(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "projects", record.Record{"name": "Site", "status": "Active", "budget": 100})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "projects", created.ID(), record.Record{"status": "On Hold", "budget": nil})
	require.NoError(t, err)
	require.Equal(t, "Site", updated["name"])
	require.Equal(t, "On Hold", updated["status"])
	require.NotContains(t, updated, "budget")
	require.Equal(t, created["created_at"], updated["created_at"])
	require.NotEqual(t, created["updated_at"], updated["updated_at"])

	_, err = repo.Update(ctx, "projects", "404", record.Record{"name": "x"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDocumentRepository_PutAndDelete(t *testing.T) {
	repo := newDocuments(t)
	ctx := context.Background()

	put, err := repo.Put(ctx, "profiles", "42", record.Record{"full_name": "Ada", "role": "Admin"})
	require.NoError(t, err)
	require.Equal(t, "42", put.ID())

	put, err = repo.Put(ctx, "profiles", "42", record.Record{"full_name": "Ada L.", "role": "Admin"})
	require.NoError(t, err)
	require.Equal(t, "Ada L.", put["full_name"])

	old, err := repo.Delete(ctx, "profiles", "42")
	require.NoError(t, err)
	require.Equal(t, "Ada L.", old["full_name"])

	_, err = repo.Delete(ctx, "profiles", "42")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
