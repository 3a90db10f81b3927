package mcp

import (
	"errors"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
)

// ListParams drives the filter, sort and pagination pipeline of a list tool.
// Fields a collection has no filter for are ignored.
type ListParams struct {
	Query     string `json:"query,omitempty"`
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Role      string `json:"role,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	Desc      bool   `json:"desc,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

type IDParams struct {
	ID string `json:"id"`
}

type CreateProjectParams struct {
	Name        string  `json:"name"`
	ClientID    string  `json:"client_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
}

type UpdateProjectParams struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name,omitempty"`
	ClientID    *string  `json:"client_id,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
}

type CreateTaskParams struct {
	Title       string `json:"title"`
	ProjectID   string `json:"project_id"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Status      string `json:"status,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

type UpdateTaskParams struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ProjectID   *string `json:"project_id,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

type SetTaskStatusParams struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type AssignTaskParams struct {
	ID         string `json:"id"`
	AssigneeID string `json:"assignee_id"`
}

type BlockerParams struct {
	ID        string `json:"id"`
	BlockerID string `json:"blocker_id"`
}

type AddSubtaskParams struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

type UpdateMemberParams struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	Role      *string `json:"role,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type CreateClientParams struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type UpdateClientParams struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

type EntityParams struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type AddCommentParams struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Text       string `json:"text"`
}

type RecentActivityParams struct {
	Limit int `json:"limit,omitempty"`
}

type BulkDeleteParams struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

type ExportParams struct {
	Kind string `json:"kind"`
}

var (
	errIDRequired     = errors.New("id is required")
	errEntityRequired = errors.New("entity_type and entity_id are required")
	errKindRequired   = errors.New("kind is required")
)

func requireID(id string) error {
	if id == "" {
		return errIDRequired
	}
	return nil
}

func (p IDParams) validate() error            { return requireID(p.ID) }
func (p UpdateProjectParams) validate() error { return requireID(p.ID) }
func (p UpdateTaskParams) validate() error    { return requireID(p.ID) }
func (p AssignTaskParams) validate() error    { return requireID(p.ID) }
func (p UpdateMemberParams) validate() error  { return requireID(p.ID) }
func (p UpdateClientParams) validate() error  { return requireID(p.ID) }

func (p SetTaskStatusParams) validate() error {
	if p.ID == "" || p.Status == "" {
		return errors.New("id and status are required")
	}
	return nil
}

func (p BlockerParams) validate() error {
	if p.ID == "" || p.BlockerID == "" {
		return errors.New("id and blocker_id are required")
	}
	return nil
}

func (p AddSubtaskParams) validate() error {
	if p.TaskID == "" {
		return errors.New("task_id is required")
	}
	return nil
}

func (p EntityParams) validate() error {
	if p.EntityType == "" || p.EntityID == "" {
		return errEntityRequired
	}
	return nil
}

func (p AddCommentParams) validate() error {
	if p.EntityType == "" || p.EntityID == "" {
		return errEntityRequired
	}
	return nil
}

func (p BulkDeleteParams) validate() error {
	if p.Kind == "" {
		return errKindRequired
	}
	return nil
}

func (p ExportParams) validate() error {
	if p.Kind == "" {
		return errKindRequired
	}
	return nil
}

// PageResponse is one page of a list tool.
type PageResponse[T any] struct {
	Rows       []T `json:"rows"`
	TotalCount int `json:"total_count"`
	PageCount  int `json:"page_count"`
	Page       int `json:"page"`
}

type ProjectResponse struct {
	project.Project
	ClientLabel string `json:"client"`
	Progress    int    `json:"progress"`
	TaskCount   int    `json:"task_count"`
}

type TaskResponse struct {
	task.Task
	ProjectName  string `json:"project_name"`
	AssigneeName string `json:"assignee_name"`
	Blocked      bool   `json:"blocked"`
	ElapsedSecs  int64  `json:"elapsed_seconds"`
	TimerRunning bool   `json:"timer_running"`
}

// TaskDetailResponse is a task with its discussion and attachments.
type TaskDetailResponse struct {
	TaskResponse
	Comments []comment.Comment `json:"comments"`
	Files    []attachment.File `json:"files"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	Tasks    []TaskResponse    `json:"tasks"`
	Comments []comment.Comment `json:"comments"`
	Files    []attachment.File `json:"files"`
}

// MutationResponse reports a confirmed change. ID is the backend id of the
// affected entity.
type MutationResponse struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

type BulkDeleteResponse struct {
	Requested int      `json:"requested"`
	Remaining []string `json:"remaining,omitempty"`
}

type ExportResponse struct {
	Kind string `json:"kind"`
	CSV  string `json:"csv"`
}

type NotificationsResponse struct {
	Unread        int                     `json:"unread"`
	Notifications []activity.Notification `json:"notifications"`
}

type PingResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
