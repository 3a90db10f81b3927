package view

// DefaultPageSize is the rows per page for a new PageState.
const DefaultPageSize = 10

// PageState is the per-collection pagination and sort state. Page is 1-indexed.
type PageState struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	SortKey  string `json:"sort_key,omitempty"`
	Desc     bool   `json:"desc,omitempty"`
}

// NewPageState returns page 1 with the default page size and no sort.
func NewPageState() *PageState {
	return &PageState{Page: 1, PageSize: DefaultPageSize}
}

// SortBy toggles direction when key is the current sort key and otherwise
// switches to key ascending.
func (s *PageState) SortBy(key string) {
	if s.SortKey == key {
		s.Desc = !s.Desc
		return
	}
	s.SortKey = key
	s.Desc = false
}

// PageCount returns the number of pages for count rows. It is at least 1.
func PageCount(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// Clamp pins Page into [1, PageCount(count)] and returns the result.
func (s *PageState) Clamp(count int) int {
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	last := PageCount(count, s.PageSize)
	switch {
	case s.Page < 1:
		s.Page = 1
	case s.Page > last:
		s.Page = last
	}
	return s.Page
}

// SetPage moves to page n, clamped against count rows.
func (s *PageState) SetPage(n, count int) {
	s.Page = n
	s.Clamp(count)
}

// Next advances one page if there is one.
func (s *PageState) Next(count int) {
	s.SetPage(s.Page+1, count)
}

// Prev goes back one page if there is one.
func (s *PageState) Prev(count int) {
	s.SetPage(s.Page-1, count)
}
