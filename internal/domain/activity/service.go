package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service records the server-side activity log that backs the shared feed.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity logs an activity entry, filling in id and timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *Activity) error {
	if entry == nil || entry.Kind == "" || entry.EntityType == "" {
		return ErrInvalidInput
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	s.logger.Debug("activity logged", "kind", entry.Kind, "entity_type", entry.EntityType, "entity_id", entry.EntityID)
	return nil
}

// Recent lists activity entries, newest first, capped at the feed size.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Activity, error) {
	if opts.Limit <= 0 || opts.Limit > DefaultCapacity {
		opts.Limit = DefaultCapacity
	}
	return s.repo.List(ctx, opts)
}
