package store

import (
	"github.com/google/uuid"
	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/view"
)

// Activities returns the activity feed, newest first.
func (s *Store) Activities() []activity.Activity {
	return s.activities.Items()
}

// LogActivity appends to the capped activity feed.
func (s *Store) LogActivity(a activity.Activity) activity.Activity {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.ActorID == "" {
		a.ActorID = s.me.ID
	}
	s.activities.Push(a)
	s.markDirty(view.KindActivity)
	return a
}

// Notifications returns the notification feed, newest first.
func (s *Store) Notifications() []activity.Notification {
	return s.notifications.Items()
}

// Notify appends an unread notification to the capped feed.
func (s *Store) Notify(n activity.Notification) activity.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Level == "" {
		n.Level = activity.LevelInfo
	}
	s.notifications.Push(n)
	s.markDirty(view.KindNotifications)
	return n
}

// MarkAllNotificationsRead flags every notification read and returns how many changed.
func (s *Store) MarkAllNotificationsRead() int {
	n := s.notifications.Update(func(n *activity.Notification) bool {
		if n.Read {
			return false
		}
		n.Read = true
		return true
	})
	if n > 0 {
		s.markDirty(view.KindNotifications)
	}
	return n
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	count := 0
	for _, n := range s.notifications.Items() {
		if !n.Read {
			count++
		}
	}
	return count
}
