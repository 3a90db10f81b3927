package view

// Slice is one render-ready page of a collection
type Slice[T any] struct {
	Rows       []T
	TotalCount int
	PageCount  int
	Page       int
}

// RenderSlice filters, sorts and cuts out page of the result. Pages past the
// end yield no rows; use Render when the page should be clamped instead.
func RenderSlice[T any](items []T, filter Predicate[T], sort SortSpec[T], page, pageSize int) Slice[T] {
	rows := Apply(items, filter)
	Sort(rows, sort)
	return paginate(rows, page, pageSize)
}

// Render is RenderSlice driven by a PageState. The page is clamped against
// the filtered count before slicing and written back to state.
func Render[T any](items []T, filter Predicate[T], cols Columns[T], state *PageState) Slice[T] {
	rows := Apply(items, filter)
	Sort(rows, cols.Spec(state))
	state.Clamp(len(rows))
	return paginate(rows, state.Page, state.PageSize)
}

func paginate[T any](rows []T, page, pageSize int) Slice[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	out := Slice[T]{
		TotalCount: len(rows),
		PageCount:  PageCount(len(rows), pageSize),
		Page:       page,
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		out.Rows = []T{}
		return out
	}
	end := min(start+pageSize, len(rows))
	out.Rows = rows[start:end]
	return out
}
