package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/mutate"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/report"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// Loop runs work on the goroutine that owns the client store.
type Loop interface {
	Do(ctx context.Context, fn func(*store.Store) error) error
	Mutate(ctx context.Context, prepare func(*mutate.Engine) (*mutate.Pending, error)) error
}

// Handler dispatches MCP tool calls onto the client core.
type Handler struct {
	loop Loop
}

// NewHandler creates a new MCP handler.
func NewHandler(l Loop) *Handler {
	return &Handler{loop: l}
}

// Handle dispatches one tool call. Reads run on the loop; writes go through
// the optimistic mutation engine and return once the backend has settled them.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "ping":
		return PingResponse{Status: "ok", Time: time.Now().UTC()}, nil
	case "get_dashboard":
		var stats report.Stats
		err := h.loop.Do(ctx, func(s *store.Store) error {
			stats = report.Compute(s, s.Now())
			return nil
		})
		return stats, mapError(err)

	// Projects
	case "list_projects":
		var req ListParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp PageResponse[ProjectResponse]
		err := h.loop.Do(ctx, func(s *store.Store) error {
			slice := view.Render(s.Projects(), view.ProjectFilter(req.Query, req.Status), s.ProjectColumns(), req.pageState())
			resp = page(slice, func(p project.Project) ProjectResponse { return projectResponse(s, p) })
			return nil
		})
		return resp, mapError(err)
	case "get_project":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp ProjectDetailResponse
		err := h.loop.Do(ctx, func(s *store.Store) error {
			p, ok := s.Project(req.ID)
			if !ok {
				return fmt.Errorf("project %s: %w", req.ID, ErrNotFound)
			}
			resp.ProjectResponse = projectResponse(s, p)
			resp.Tasks = []TaskResponse{}
			for _, t := range s.TasksForProject(p.ID) {
				resp.Tasks = append(resp.Tasks, taskResponse(s, t))
			}
			resp.Comments = s.CommentsOn(comment.EntityProject, p.ID)
			resp.Files = s.FilesOn(comment.EntityProject, p.ID)
			return nil
		})
		return resp, mapError(err)
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p := project.Project{
			Name:        req.Name,
			ClientID:    req.ClientID,
			Description: req.Description,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Budget:      req.Budget,
		}
		if req.Status != "" {
			p.Status = projectStatus(req.Status)
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.CreateProject(p) })
	case "update_project":
		var req UpdateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		patch := project.Patch{
			Name:        req.Name,
			ClientID:    req.ClientID,
			Description: req.Description,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Budget:      req.Budget,
		}
		if req.Status != nil {
			status := projectStatus(*req.Status)
			patch.Status = &status
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.UpdateProject(req.ID, patch) })
	case "delete_project":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteProject(req.ID) })

	// Tasks
	case "list_tasks":
		var req ListParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp PageResponse[TaskResponse]
		err := h.loop.Do(ctx, func(s *store.Store) error {
			filter := view.TaskFilter(req.Query, req.Status, req.Priority, req.ProjectID)
			slice := view.Render(s.Tasks(), filter, s.TaskColumns(), req.pageState())
			resp = page(slice, func(t task.Task) TaskResponse { return taskResponse(s, t) })
			return nil
		})
		return resp, mapError(err)
	case "get_task":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp TaskDetailResponse
		err := h.loop.Do(ctx, func(s *store.Store) error {
			t, ok := s.Task(req.ID)
			if !ok {
				return fmt.Errorf("task %s: %w", req.ID, ErrNotFound)
			}
			resp.TaskResponse = taskResponse(s, t)
			resp.Comments = s.CommentsOn(comment.EntityTask, t.ID)
			resp.Files = s.FilesOn(comment.EntityTask, t.ID)
			return nil
		})
		return resp, mapError(err)
	case "create_task":
		var req CreateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		t := task.Task{
			Title:       req.Title,
			ProjectID:   req.ProjectID,
			Description: req.Description,
			AssigneeID:  req.AssigneeID,
			DueDate:     req.DueDate,
		}
		if req.Priority != "" {
			t.Priority = taskPriority(req.Priority)
		}
		if req.Status != "" {
			t.Status = taskStatus(req.Status)
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.CreateTask(t) })
	case "update_task":
		var req UpdateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		patch := task.Patch{
			Title:       req.Title,
			Description: req.Description,
			ProjectID:   req.ProjectID,
			DueDate:     req.DueDate,
		}
		if req.Priority != nil {
			priority := taskPriority(*req.Priority)
			patch.Priority = &priority
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.UpdateTask(req.ID, patch) })
	case "delete_task":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteTask(req.ID) })
	case "set_task_status":
		var req SetTaskStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.SetTaskStatus(req.ID, req.Status) })
	case "assign_task":
		var req AssignTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.AssignTask(req.ID, req.AssigneeID) })
	case "start_timer":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.StartTimer(req.ID) })
	case "stop_timer":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.StopTimer(req.ID) })
	case "add_blocker":
		var req BlockerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.AddBlocker(req.ID, req.BlockerID) })
	case "remove_blocker":
		var req BlockerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.RemoveBlocker(req.ID, req.BlockerID) })

	// Subtasks
	case "add_subtask":
		var req AddSubtaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.AddSubtask(req.TaskID, req.Title) })
	case "toggle_subtask":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.ToggleSubtask(req.ID) })
	case "remove_subtask":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.RemoveSubtask(req.ID) })

	// Team
	case "list_team":
		var req ListParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp PageResponse[team.Member]
		err := h.loop.Do(ctx, func(s *store.Store) error {
			slice := view.Render(s.Members(), view.TeamFilter(req.Query, req.Role), view.TeamColumns(), req.pageState())
			resp = page(slice, func(m team.Member) team.Member { return m })
			return nil
		})
		return resp, mapError(err)
	case "whoami":
		var me team.Member
		err := h.loop.Do(ctx, func(s *store.Store) error {
			me = s.CurrentUser()
			return nil
		})
		return me, mapError(err)
	case "update_member":
		var req UpdateMemberParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		patch := team.Patch{Name: req.Name, Bio: req.Bio, AvatarURL: req.AvatarURL}
		if req.Role != nil {
			role, ok := perm.ParseRole(*req.Role)
			if !ok {
				return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidParams, *req.Role)
			}
			patch.Role = &role
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.UpdateMember(req.ID, patch) })

	// Clients
	case "list_clients":
		var req ListParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp PageResponse[client.Client]
		err := h.loop.Do(ctx, func(s *store.Store) error {
			slice := view.Render(s.Clients(), view.ClientFilter(req.Query), view.ClientColumns(), req.pageState())
			resp = page(slice, func(c client.Client) client.Client { return c })
			return nil
		})
		return resp, mapError(err)
	case "create_client":
		var req CreateClientParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		c := client.Client{Name: req.Name, Company: req.Company, Email: req.Email, Phone: req.Phone}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.CreateClient(c) })
	case "update_client":
		var req UpdateClientParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		patch := client.Patch{Name: req.Name, Company: req.Company, Email: req.Email, Phone: req.Phone}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.UpdateClient(req.ID, patch) })
	case "delete_client":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteClient(req.ID) })

	// Discussion
	case "list_comments":
		var req EntityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp []comment.Comment
		err := h.loop.Do(ctx, func(s *store.Store) error {
			resp = s.CommentsOn(comment.EntityType(req.EntityType), req.EntityID)
			return nil
		})
		return resp, mapError(err)
	case "add_comment":
		var req AddCommentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) {
			return e.AddComment(comment.EntityType(req.EntityType), req.EntityID, req.Text)
		})
	case "delete_comment":
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) { return e.DeleteComment(req.ID) })

	// Feeds
	case "get_recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var resp []activity.Activity
		err := h.loop.Do(ctx, func(s *store.Store) error {
			resp = s.Activities()
			if req.Limit > 0 && len(resp) > req.Limit {
				resp = resp[:req.Limit]
			}
			return nil
		})
		return resp, mapError(err)
	case "list_notifications":
		var resp NotificationsResponse
		err := h.loop.Do(ctx, func(s *store.Store) error {
			resp = NotificationsResponse{Unread: s.UnreadCount(), Notifications: s.Notifications()}
			return nil
		})
		return resp, mapError(err)
	case "mark_notifications_read":
		var marked int
		err := h.loop.Do(ctx, func(s *store.Store) error {
			marked = s.MarkAllNotificationsRead()
			return nil
		})
		return map[string]int{"marked": marked}, mapError(err)

	// Bulk
	case "bulk_delete":
		var req BulkDeleteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		kind, ok := view.ParseKind(req.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, req.Kind)
		}
		return h.bulkDelete(ctx, kind, req.IDs)
	case "export_csv":
		var req ExportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		kind, ok := view.ParseKind(req.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, req.Kind)
		}
		var buf bytes.Buffer
		err := h.loop.Do(ctx, func(s *store.Store) error {
			return report.Export(&buf, s, kind)
		})
		if err != nil {
			return nil, mapError(err)
		}
		return ExportResponse{Kind: string(kind), CSV: buf.String()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, method)
	}
}

// mutate runs prepare through the loop and reports the confirmed id.
func (h *Handler) mutate(ctx context.Context, prepare func(*mutate.Engine) (*mutate.Pending, error)) (any, error) {
	var p *mutate.Pending
	err := h.loop.Mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) {
		var err error
		p, err = prepare(e)
		return p, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return MutationResponse{Op: p.Op(), ID: p.ID()}, nil
}

// bulkDelete replaces the selection for kind with ids and deletes it. Ids
// whose delete failed stay selected and are reported back.
func (h *Handler) bulkDelete(ctx context.Context, kind view.Kind, ids []string) (any, error) {
	if len(ids) == 0 {
		return nil, mapError(mutate.ErrNothingSelected)
	}
	err := h.loop.Mutate(ctx, func(e *mutate.Engine) (*mutate.Pending, error) {
		sel := e.Store().Selection()
		sel.Clear(kind)
		for _, id := range ids {
			sel.Set(kind, id, true)
		}
		return e.BulkDelete(kind)
	})
	resp := BulkDeleteResponse{Requested: len(ids)}
	if doErr := h.loop.Do(ctx, func(s *store.Store) error {
		resp.Remaining = s.Selection().IDs(kind)
		if len(resp.Remaining) == 0 {
			resp.Remaining = nil
		}
		return nil
	}); doErr != nil && err == nil {
		err = doErr
	}
	if err != nil {
		apiErr := MapError(err)
		if apiErr == nil {
			return nil, err
		}
		if len(resp.Remaining) > 0 {
			apiErr.Details = resp
		}
		return nil, apiErr
	}
	return resp, nil
}

func (p ListParams) pageState() *view.PageState {
	state := view.NewPageState()
	if p.Page > 0 {
		state.Page = p.Page
	}
	if p.PageSize > 0 {
		state.PageSize = p.PageSize
	}
	state.SortKey = p.SortBy
	state.Desc = p.Desc
	return state
}

func page[T, R any](slice view.Slice[T], convert func(T) R) PageResponse[R] {
	rows := make([]R, 0, len(slice.Rows))
	for _, row := range slice.Rows {
		rows = append(rows, convert(row))
	}
	return PageResponse[R]{Rows: rows, TotalCount: slice.TotalCount, PageCount: slice.PageCount, Page: slice.Page}
}

func projectResponse(s *store.Store, p project.Project) ProjectResponse {
	return ProjectResponse{
		Project:     p,
		ClientLabel: s.ClientName(p),
		Progress:    s.ProjectProgress(p.ID),
		TaskCount:   len(s.TasksForProject(p.ID)),
	}
}

func taskResponse(s *store.Store, t task.Task) TaskResponse {
	return TaskResponse{
		Task:         t,
		ProjectName:  s.ProjectName(t.ProjectID),
		AssigneeName: s.AssigneeName(t.AssigneeID),
		Blocked:      s.Blocked(t.ID),
		ElapsedSecs:  int64(t.Elapsed(s.Now()) / time.Second),
		TimerRunning: t.Running(),
	}
}

// Labels that do not parse are passed through so validation reports them.
func projectStatus(label string) project.Status {
	if s, ok := project.ParseStatus(label); ok {
		return s
	}
	return project.Status(label)
}

func taskStatus(label string) task.Status {
	if s, ok := task.ParseStatus(label); ok {
		return s
	}
	return task.Status(label)
}

func taskPriority(label string) task.Priority {
	if p, ok := task.ParsePriority(label); ok {
		return p
	}
	return task.Priority(label)
}

type validator interface {
	validate() error
}

// decodeParams unmarshals params into out and runs its required field checks.
func decodeParams(params json.RawMessage, out any) error {
	if len(params) > 0 && !bytes.Equal(params, []byte("null")) {
		if err := json.Unmarshal(params, out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	return nil
}
