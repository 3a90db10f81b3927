package view_test

import (
	"fmt"
	"testing"

	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/view"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string
	Score float64
	Tag   string
}

var byName = view.Key[row]{Name: "name", Kind: view.Text, Text: func(r row) string { return r.Name }}

func TestRenderSlice_PaginationBounds(t *testing.T) {
	for count := 0; count <= 25; count++ {
		items := make([]row, count)
		for i := range items {
			items[i] = row{Name: fmt.Sprintf("r%02d", i)}
		}
		for _, size := range []int{1, 3, 10} {
			for page := 1; page <= 8; page++ {
				got := view.RenderSlice(items, nil, view.SortSpec[row]{}, page, size)
				want := min(size, max(0, count-(page-1)*size))
				require.Len(t, got.Rows, want, "count=%d size=%d page=%d", count, size, page)
				require.Equal(t, count, got.TotalCount)
			}
		}
	}
}

func TestRenderSlice_WindowContents(t *testing.T) {
	items := []row{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}
	got := view.RenderSlice(items, nil, view.SortSpec[row]{}, 2, 2)
	require.Equal(t, []row{{Name: "c"}, {Name: "d"}}, got.Rows)
	require.Equal(t, 3, got.PageCount)
}

func TestFilter_Conjunction(t *testing.T) {
	items := []row{{Name: "Alpha", Tag: "Open"}, {Name: "alphabet", Tag: "closed"}, {Name: "Beta", Tag: "open"}}
	name := func(r row) string { return r.Name }
	tag := func(r row) string { return r.Tag }

	got := view.Apply(items, view.All(view.TextMatch("ALP", name), view.Category("open", tag)))
	require.Equal(t, []row{{Name: "Alpha", Tag: "Open"}}, got)

	require.Len(t, view.Apply(items, view.All(view.TextMatch("", name), view.Category("All", tag))), 3)
	require.Len(t, view.Apply(items, view.Category("", tag)), 3)
}

func TestSort_CaseInsensitiveAndStable(t *testing.T) {
	items := []row{{Name: "beta", Tag: "1"}, {Name: "Alpha", Tag: "2"}, {Name: "BETA", Tag: "3"}, {Name: "alpha", Tag: "4"}}
	view.Sort(items, view.SortSpec[row]{Key: &byName})
	require.Equal(t, []string{"2", "4", "1", "3"}, tags(items))

	view.Sort(items, view.SortSpec[row]{Key: &byName, Desc: true})
	require.Equal(t, []string{"1", "3", "2", "4"}, tags(items), "equal keys keep prior order when descending")
}

func TestSort_Numeric(t *testing.T) {
	byScore := view.Key[row]{Name: "score", Kind: view.Number, Number: func(r row) float64 { return r.Score }}
	items := []row{{Score: 10}, {Score: 9}, {Score: 100}}
	view.Sort(items, view.SortSpec[row]{Key: &byScore})
	require.Equal(t, []float64{9, 10, 100}, []float64{items[0].Score, items[1].Score, items[2].Score})
}

func TestSort_DateEmptyLast(t *testing.T) {
	byDate := view.Key[row]{Name: "due", Kind: view.Date, Text: func(r row) string { return r.Tag }}
	items := []row{{Tag: ""}, {Tag: "2025-02-01"}, {Tag: "2024-12-31"}}
	view.Sort(items, view.SortSpec[row]{Key: &byDate})
	require.Equal(t, []string{"2024-12-31", "2025-02-01", ""}, tags(items))
}

func TestPageState_SortToggle(t *testing.T) {
	st := view.NewPageState()
	st.SortBy("name")
	require.Equal(t, "name", st.SortKey)
	require.False(t, st.Desc)

	st.SortBy("name")
	require.True(t, st.Desc, "same key reverses")

	st.SortBy("due_date")
	require.Equal(t, "due_date", st.SortKey)
	require.False(t, st.Desc, "new key resets to ascending")
}

func TestPageState_Clamp(t *testing.T) {
	st := &view.PageState{Page: 5, PageSize: 10}
	require.Equal(t, 3, st.Clamp(23))
	require.Equal(t, 1, st.Clamp(0))

	st.Page = -2
	require.Equal(t, 1, st.Clamp(50))

	st.Next(50)
	st.Next(50)
	require.Equal(t, 3, st.Page)
	st.SetPage(99, 50)
	require.Equal(t, 5, st.Page)
	st.Prev(50)
	require.Equal(t, 4, st.Page)
}

func TestRender_ClampsAfterFilterChange(t *testing.T) {
	var tasks []task.Task
	for i := 0; i < 23; i++ {
		status := task.StatusToDo
		if i%6 == 0 {
			status = task.StatusInProgress
		}
		tasks = append(tasks, task.Task{ID: fmt.Sprint(i), Title: fmt.Sprintf("Task %d", i), Status: status})
	}
	cols := view.TaskColumns(func(string) string { return "" }, func(string) string { return "" })
	st := &view.PageState{Page: 3, PageSize: 10}

	got := view.Render(tasks, view.TaskFilter("", "in progress", view.AllValue, ""), cols, st)
	require.Len(t, got.Rows, 4)
	require.Equal(t, 4, got.TotalCount)
	require.Equal(t, 1, got.PageCount)
	require.Equal(t, 1, got.Page)
	require.Equal(t, 1, st.Page)
}

func TestProjectColumns_SortByProgress(t *testing.T) {
	progress := map[string]int{"a": 50, "b": 10, "c": 90}
	cols := view.ProjectColumns(func(id string) int { return progress[id] })
	projects := []project.Project{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	st := view.NewPageState()
	st.SortBy("progress")
	st.SortBy("progress")

	got := view.Render(projects, view.ProjectFilter("", "All"), cols, st)
	require.Equal(t, "c", got.Rows[0].ID)
	require.Equal(t, "b", got.Rows[2].ID)
}

func TestColumns_UnknownKeyKeepsOrder(t *testing.T) {
	cols := view.TeamColumns()
	spec := cols.Spec(&view.PageState{SortKey: "shoe_size"})
	require.Nil(t, spec.Key)
	require.Equal(t, []string{"name", "email", "role"}, cols.Names())
}

func TestSelection(t *testing.T) {
	sel := view.NewSelection()
	require.True(t, sel.Toggle(view.KindTasks, "3"))
	sel.Set(view.KindTasks, "1", true)
	sel.Set(view.KindProjects, "3", true)
	require.Equal(t, []string{"1", "3"}, sel.IDs(view.KindTasks))

	require.True(t, sel.Prune(view.KindProjects, "3"))
	require.True(t, sel.Has(view.KindTasks, "3"), "pruning one kind leaves others alone")
	require.False(t, sel.Prune(view.KindProjects, "3"))

	sel.Rename(view.KindTasks, "3", "57")
	require.Equal(t, []string{"1", "57"}, sel.IDs(view.KindTasks))

	sel.SelectAll(view.KindClients, []string{"x", "y"})
	require.Equal(t, 2, sel.Count(view.KindClients))
	sel.Clear(view.KindClients)
	require.Zero(t, sel.Count(view.KindClients))

	require.False(t, sel.Toggle(view.KindTasks, "1"))
}

func tags(items []row) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.Tag
	}
	return out
}
