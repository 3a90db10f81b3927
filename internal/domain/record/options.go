package record

// MaxLimit caps a single listing.
const MaxLimit = 1000

// ListOptions provides filtering options for listing records.
type ListOptions struct {
	Eq    map[string]string
	Order string
	Desc  bool
	Limit int
}
