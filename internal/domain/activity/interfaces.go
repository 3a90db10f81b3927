package activity

import "context"

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, entry *Activity) error
	List(ctx context.Context, opts ListOptions) ([]Activity, error)
}
