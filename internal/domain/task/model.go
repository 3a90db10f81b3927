package task

import (
	"strings"
	"time"

	"github.com/rpggio/syncteam/internal/domain/patch"
)

// Status represents the workflow state of a task
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the task status vocabulary in workflow order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusCompleted}

// ParseStatus maps any label seen on the wire onto the canonical vocabulary.
// Legacy labels ("Pending", "to do", "Done") are accepted.
func ParseStatus(s string) (Status, bool) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "todo", "pending", "open":
		return StatusToDo, true
	case "inprogress", "doing", "active":
		return StatusInProgress, true
	case "completed", "done", "closed":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Priority ranks task urgency
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalises a priority label, ignoring case.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Rank orders priorities numerically for sorting.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Subtask is a checklist entry owned by a task
type Subtask struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Position  int    `json:"position"`
}

// Task represents a unit of work inside a project
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ProjectID      string    `json:"project_id"`
	AssigneeID     string    `json:"assignee_id,omitempty"`
	Priority       Priority  `json:"priority"`
	Status         Status    `json:"status"`
	DueDate        string    `json:"due_date,omitempty"`
	TimeSpent      int64     `json:"time_spent"`
	TimerStartedAt time.Time `json:"timer_started_at,omitzero"`
	Subtasks       []Subtask `json:"subtasks,omitempty"`
	BlockedBy      []string  `json:"blocked_by,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Patch is a partial task update. Nil fields are left untouched, so an update
// that omits Subtasks never erases the locally hydrated checklist.
type Patch struct {
	Title          *string
	Description    *string
	ProjectID      *string
	AssigneeID     *string
	Priority       *Priority
	Status         *Status
	DueDate        *string
	TimeSpent      *int64
	TimerStartedAt *time.Time
	Subtasks       *[]Subtask
	BlockedBy      *[]string
	CreatedBy      *string
	CreatedAt      *time.Time
}

// Apply shallow-merges the patch and reports whether anything changed.
func (t *Task) Apply(pt Patch) bool {
	changed := patch.Assign(&t.Title, pt.Title)
	changed = patch.Assign(&t.Description, pt.Description) || changed
	changed = patch.Assign(&t.ProjectID, pt.ProjectID) || changed
	changed = patch.Assign(&t.AssigneeID, pt.AssigneeID) || changed
	changed = patch.Assign(&t.Priority, pt.Priority) || changed
	changed = patch.Assign(&t.Status, pt.Status) || changed
	changed = patch.Assign(&t.DueDate, pt.DueDate) || changed
	changed = patch.Assign(&t.TimeSpent, pt.TimeSpent) || changed
	changed = patch.AssignTime(&t.TimerStartedAt, pt.TimerStartedAt) || changed
	changed = patch.AssignSlice(&t.Subtasks, pt.Subtasks) || changed
	changed = patch.AssignSlice(&t.BlockedBy, pt.BlockedBy) || changed
	changed = patch.Assign(&t.CreatedBy, pt.CreatedBy) || changed
	changed = patch.AssignTime(&t.CreatedAt, pt.CreatedAt) || changed
	return changed
}

// Full returns a patch carrying every field of t.
func (t Task) Full() Patch {
	return Patch{
		Title:          &t.Title,
		Description:    &t.Description,
		ProjectID:      &t.ProjectID,
		AssigneeID:     &t.AssigneeID,
		Priority:       &t.Priority,
		Status:         &t.Status,
		DueDate:        &t.DueDate,
		TimeSpent:      &t.TimeSpent,
		TimerStartedAt: &t.TimerStartedAt,
		Subtasks:       &t.Subtasks,
		BlockedBy:      &t.BlockedBy,
		CreatedBy:      &t.CreatedBy,
		CreatedAt:      &t.CreatedAt,
	}
}

// FromPatch builds a task with the given id from a patch.
func FromPatch(id string, pt Patch) Task {
	t := Task{ID: id}
	t.Apply(pt)
	return t
}

// Clone returns a deep copy so callers can keep a rollback snapshot.
func (t Task) Clone() Task {
	t.Subtasks = append([]Subtask(nil), t.Subtasks...)
	t.BlockedBy = append([]string(nil), t.BlockedBy...)
	return t
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Overdue reports whether an unfinished task is past its due date.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == "" || t.Completed() {
		return false
	}
	return t.DueDate < now.Format(DateLayout)
}
