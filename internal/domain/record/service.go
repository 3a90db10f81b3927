package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/repository"
	"github.com/rpggio/syncteam/internal/sanitize"
)

// Service handles reads and writes on the data tables for authenticated
// callers. Every write is permission checked, sanitised, logged to the
// activity feed and published to realtime subscribers.
type Service struct {
	records    Repository
	blobs      BlobRepository
	activities ActivityLogger
	changes    Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new record service. activities and changes may be nil.
func NewService(
	records Repository,
	blobs BlobRepository,
	activities ActivityLogger,
	changes Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		records:    records,
		blobs:      blobs,
		activities: activities,
		changes:    changes,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns rows of table. Any authenticated caller may read.
func (s *Service) List(ctx context.Context, caller Caller, table string, opts ListOptions) ([]Record, error) {
	if !Known(table) {
		return nil, ErrUnknownTable
	}
	if opts.Limit <= 0 || opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	recs, err := s.records.List(ctx, table, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	return recs, nil
}

// Get returns a single row.
func (s *Service) Get(ctx context.Context, table, id string) (Record, error) {
	if !Known(table) {
		return nil, ErrUnknownTable
	}
	rec, err := s.records.Get(ctx, table, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", table, id, err)
	}
	return rec, nil
}

// Create inserts a row. Profiles are created at signup and are refused here.
func (s *Service) Create(ctx context.Context, caller Caller, table string, in Record) (Record, error) {
	if !Known(table) {
		return nil, ErrUnknownTable
	}
	if table == remote.TableProfiles {
		return nil, fmt.Errorf("%w: profiles are created at signup", ErrInvalidInput)
	}
	action, _ := perm.ForTable(table, "create")
	if err := perm.Require(caller.Role, action); err != nil {
		return nil, err
	}

	rec := clean(in)
	s.defaults(caller, table, rec)
	if err := Validate(table, rec, true); err != nil {
		return nil, err
	}
	canonicalize(table, rec)

	saved, err := s.records.Create(ctx, table, rec)
	if err != nil {
		return nil, s.storeError("creating", table, err)
	}

	s.log(ctx, caller, activity.KindCreated, table, saved, "Created "+describe(table, saved))
	s.publish(table, remote.ChangeInsert, saved, nil)
	return saved, nil
}

// Update merges patch into a row.
func (s *Service) Update(ctx context.Context, caller Caller, table, id string, patch Record) (Record, error) {
	prev, err := s.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(caller, table, prev, patch); err != nil {
		return nil, err
	}

	rec := clean(patch)
	if len(rec) == 0 {
		return prev, nil
	}
	if err := Validate(table, rec, false); err != nil {
		return nil, err
	}
	canonicalize(table, rec)

	saved, err := s.records.Update(ctx, table, id, rec)
	if err != nil {
		return nil, s.storeError("updating", table, err)
	}

	kind := activity.KindUpdated
	summary := "Updated " + describe(table, saved)
	switch {
	case rec.has("status") && rec.str("status") != prev.str("status"):
		kind = activity.KindStatusChanged
		summary = fmt.Sprintf("%s moved to %s", describe(table, saved), saved.str("status"))
	case rec.has("assignee_id") && rec.str("assignee_id") != prev.str("assignee_id"):
		kind = activity.KindAssigned
		summary = "Reassigned " + describe(table, saved)
	}
	s.log(ctx, caller, kind, table, saved, summary)
	s.publish(table, remote.ChangeUpdate, saved, prev)
	return saved, nil
}

// Delete removes a row and returns it.
func (s *Service) Delete(ctx context.Context, caller Caller, table, id string) (Record, error) {
	prev, err := s.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeDelete(caller, table, prev); err != nil {
		return nil, err
	}

	old, err := s.records.Delete(ctx, table, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, s.storeError("deleting", table, err)
	}

	s.log(ctx, caller, activity.KindDeleted, table, old, "Deleted "+describe(table, old))
	s.publish(table, remote.ChangeDelete, nil, old)
	return old, nil
}

// Attach stores an uploaded file and its files row. The row's url points
// at the download route for the stored content.
func (s *Service) Attach(ctx context.Context, caller Caller, up Upload) (Record, error) {
	action, _ := perm.ForTable(remote.TableFiles, "create")
	if err := perm.Require(caller.Role, action); err != nil {
		return nil, err
	}
	rec := clean(Record{
		"name":        up.Name,
		"mime_type":   up.MIMEType,
		"size":        int64(len(up.Content)),
		"entity_type": strings.ToLower(up.EntityType),
		"entity_id":   up.EntityID,
		"uploaded_at": s.now().UTC().Format(time.RFC3339Nano),
	})
	if err := Validate(remote.TableFiles, rec, true); err != nil {
		return nil, err
	}

	saved, err := s.records.Create(ctx, remote.TableFiles, rec)
	if err != nil {
		return nil, s.storeError("creating", remote.TableFiles, err)
	}
	id := saved.ID()
	if err := s.blobs.PutBlob(ctx, &Blob{FileID: id, MIMEType: up.MIMEType, Content: up.Content}); err != nil {
		if _, derr := s.records.Delete(ctx, remote.TableFiles, id); derr != nil {
			s.logger.Warn("orphaned file row", "id", id, "error", derr)
		}
		return nil, fmt.Errorf("storing file content: %w", err)
	}
	saved, err = s.records.Update(ctx, remote.TableFiles, id, Record{"url": "/api/files/" + id})
	if err != nil {
		return nil, s.storeError("updating", remote.TableFiles, err)
	}

	s.log(ctx, caller, activity.KindUploaded, saved.str("entity_type"), Record{"id": saved.str("entity_id")}, "Uploaded "+up.Name)
	s.publish(remote.TableFiles, remote.ChangeInsert, saved, nil)
	return saved, nil
}

// Download returns the files row and stored content for id.
func (s *Service) Download(ctx context.Context, id string) (Record, *Blob, error) {
	rec, err := s.Get(ctx, remote.TableFiles, id)
	if err != nil {
		return nil, nil, err
	}
	blob, err := s.blobs.GetBlob(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading file content: %w", err)
	}
	return rec, blob, nil
}

func (s *Service) authorizeEdit(caller Caller, table string, prev, patch Record) error {
	switch table {
	case remote.TableProfiles:
		// Members may edit their own profile as long as the role stays put.
		if prev.ID() == caller.UserID && (!patch.has("role") || patch.str("role") == prev.str("role")) {
			return nil
		}
	case remote.TableComments:
		if prev.str("author_id") != caller.UserID {
			return perm.Require(caller.Role, perm.Wildcard)
		}
	}
	action, _ := perm.ForTable(table, "edit")
	return perm.Require(caller.Role, action)
}

func (s *Service) authorizeDelete(caller Caller, table string, prev Record) error {
	if table == remote.TableComments && prev.str("author_id") != caller.UserID {
		return perm.Require(caller.Role, perm.Wildcard)
	}
	action, _ := perm.ForTable(table, "delete")
	return perm.Require(caller.Role, action)
}

func (s *Service) defaults(caller Caller, table string, rec Record) {
	setDefault := func(key string, v any) {
		if rec.str(key) == "" {
			rec[key] = v
		}
	}
	switch table {
	case remote.TableProjects:
		setDefault("status", "Active")
		setDefault("created_by", caller.UserID)
	case remote.TableTasks:
		setDefault("status", "To Do")
		setDefault("priority", "Medium")
		setDefault("created_by", caller.UserID)
	case remote.TableSubtasks:
		setDefault("completed", false)
		setDefault("position", 0)
	case remote.TableComments:
		rec["author_id"] = caller.UserID
		if t := rec.str("entity_type"); t != "" {
			rec["entity_type"] = strings.ToLower(t)
		}
	}
}

func (s *Service) storeError(verb, table string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrRecordNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fmt.Errorf("%s %s: %w", verb, table, err)
}

func (s *Service) log(ctx context.Context, caller Caller, kind activity.Kind, table string, rec Record, summary string) {
	if s.activities == nil {
		return
	}
	entry := &activity.Activity{
		Kind:       kind,
		EntityType: entityType(table),
		EntityID:   rec.ID(),
		ActorID:    caller.UserID,
		Summary:    summary,
	}
	if err := s.activities.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity not logged", "kind", kind, "table", table, "error", err)
	}
}

func (s *Service) publish(table string, typ remote.ChangeType, rec, old Record) {
	if s.changes == nil {
		return
	}
	ch := remote.Change{Table: table, Type: typ, At: s.now().UTC()}
	if rec != nil {
		ch.New = rec.Row()
	}
	if old != nil {
		ch.Old = old.Row()
	}
	s.changes.Publish(ch)
}

// clean sanitises user text and drops store-owned keys.
func clean(in Record) Record {
	if in == nil {
		return Record{}
	}
	return Record(sanitize.Map(map[string]any(in.without())))
}

func entityType(table string) string {
	switch table {
	case remote.TableProjects:
		return "project"
	case remote.TableTasks, remote.TableSubtasks:
		return "task"
	case remote.TableClients:
		return "client"
	case remote.TableProfiles:
		return "member"
	case remote.TableComments:
		return "comment"
	case remote.TableFiles:
		return "file"
	}
	return table
}

func describe(table string, rec Record) string {
	for _, key := range []string{"name", "title", "full_name"} {
		if v := rec.str(key); v != "" {
			return fmt.Sprintf("%s %q", entityType(table), v)
		}
	}
	return entityType(table) + " " + rec.ID()
}
