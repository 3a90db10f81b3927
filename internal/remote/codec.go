package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/perm"
)

// ErrMissingID is returned when a row without an id is decoded as an entity.
var ErrMissingID = errors.New("row has no id")

func requireID(r Row, table string) (string, error) {
	id := r.ID()
	if id == "" {
		return "", fmt.Errorf("decoding %s: %w", table, ErrMissingID)
	}
	return id, nil
}

// ProjectPatch decodes the keys present in r.
func ProjectPatch(r Row) project.Patch {
	p := project.Patch{
		Name:        r.strField("name"),
		ClientID:    r.strField("client_id", "clientId"),
		ClientName:  r.strField("client_name", "clientName", "client"),
		Description: r.strField("description"),
		StartDate:   r.strField("start_date", "startDate"),
		EndDate:     r.strField("end_date", "endDate", "due_date"),
		Budget:      r.floatField("budget"),
		CreatedBy:   r.strField("created_by", "createdBy"),
		CreatedAt:   r.timeField("created_at", "createdAt"),
	}
	if s := r.strField("status"); s != nil {
		if st, ok := project.ParseStatus(*s); ok {
			p.Status = &st
		}
	}
	return p
}

// DecodeProject decodes a full project row.
func DecodeProject(r Row) (project.Project, error) {
	id, err := requireID(r, TableProjects)
	if err != nil {
		return project.Project{}, err
	}
	return project.FromPatch(id, ProjectPatch(r)), nil
}

// EncodeProjectPatch encodes the fields present in p.
func EncodeProjectPatch(p project.Patch) Row {
	r := Row{}
	putStr(r, "name", p.Name)
	putStr(r, "client_id", p.ClientID)
	putStr(r, "client_name", p.ClientName)
	putStr(r, "description", p.Description)
	if p.Status != nil {
		r["status"] = string(*p.Status)
	}
	putStr(r, "start_date", p.StartDate)
	putStr(r, "end_date", p.EndDate)
	if p.Budget != nil {
		r["budget"] = *p.Budget
	}
	putStr(r, "created_by", p.CreatedBy)
	return r
}

// EncodeProject encodes a project for insert. The id is left to the backend.
func EncodeProject(p project.Project) Row {
	return EncodeProjectPatch(p.Full())
}

// TaskPatch decodes the keys present in r. Subtasks are never read from a
// task row; they arrive through the subtasks table.
func TaskPatch(r Row) task.Patch {
	p := task.Patch{
		Title:          r.strField("title", "name"),
		Description:    r.strField("description"),
		ProjectID:      r.strField("project_id", "projectId"),
		AssigneeID:     r.strField("assignee_id", "assigned_to", "assigneeId"),
		DueDate:        r.strField("due_date", "dueDate"),
		TimeSpent:      r.intField("time_spent", "timeSpent"),
		TimerStartedAt: r.timeField("timer_started_at", "timerStartedAt"),
		BlockedBy:      r.listField("blocked_by", "blockedBy"),
		CreatedBy:      r.strField("created_by", "createdBy"),
		CreatedAt:      r.timeField("created_at", "createdAt"),
	}
	if s := r.strField("status"); s != nil {
		if st, ok := task.ParseStatus(*s); ok {
			p.Status = &st
		}
	}
	if s := r.strField("priority"); s != nil {
		if pr, ok := task.ParsePriority(*s); ok {
			p.Priority = &pr
		}
	}
	return p
}

// DecodeTask decodes a full task row.
func DecodeTask(r Row) (task.Task, error) {
	id, err := requireID(r, TableTasks)
	if err != nil {
		return task.Task{}, err
	}
	return task.FromPatch(id, TaskPatch(r)), nil
}

// EncodeTaskPatch encodes the fields present in p. Subtasks are written
// through their own table and are not encoded.
func EncodeTaskPatch(p task.Patch) Row {
	r := Row{}
	putStr(r, "title", p.Title)
	putStr(r, "description", p.Description)
	putStr(r, "project_id", p.ProjectID)
	putStr(r, "assignee_id", p.AssigneeID)
	if p.Priority != nil {
		r["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		r["status"] = string(*p.Status)
	}
	putStr(r, "due_date", p.DueDate)
	if p.TimeSpent != nil {
		r["time_spent"] = *p.TimeSpent
	}
	if p.TimerStartedAt != nil {
		r["timer_started_at"] = formatTime(*p.TimerStartedAt)
	}
	if p.BlockedBy != nil {
		r["blocked_by"] = append([]string{}, *p.BlockedBy...)
	}
	putStr(r, "created_by", p.CreatedBy)
	return r
}

// EncodeTask encodes a task for insert.
func EncodeTask(t task.Task) Row {
	return EncodeTaskPatch(t.Full())
}

// DecodeSubtask decodes a subtasks row.
func DecodeSubtask(r Row) (task.Subtask, error) {
	id, err := requireID(r, TableSubtasks)
	if err != nil {
		return task.Subtask{}, err
	}
	s := task.Subtask{ID: id}
	if v := r.strField("task_id", "taskId"); v != nil {
		s.TaskID = *v
	}
	if v := r.strField("title"); v != nil {
		s.Title = *v
	}
	if v, ok := r.lookup("completed", "done"); ok {
		s.Completed = toBool(v)
	}
	if v := r.intField("position"); v != nil {
		s.Position = int(*v)
	}
	return s, nil
}

// EncodeSubtask encodes a subtask for insert or update.
func EncodeSubtask(s task.Subtask) Row {
	return Row{
		"task_id":   s.TaskID,
		"title":     s.Title,
		"completed": s.Completed,
		"position":  s.Position,
	}
}

// MemberPatch decodes the keys present in a profiles row.
func MemberPatch(r Row) team.Patch {
	p := team.Patch{
		Name:      r.strField("full_name", "name"),
		Email:     r.strField("email"),
		Bio:       r.strField("bio"),
		AvatarURL: r.strField("avatar_url", "avatarUrl"),
	}
	if s := r.strField("role"); s != nil {
		if role, ok := perm.ParseRole(*s); ok {
			p.Role = &role
		}
	}
	return p
}

// DecodeMember decodes a profiles row.
func DecodeMember(r Row) (team.Member, error) {
	id, err := requireID(r, TableProfiles)
	if err != nil {
		return team.Member{}, err
	}
	m := team.FromPatch(id, MemberPatch(r))
	if m.Role == "" {
		m.Role = perm.RoleViewer
	}
	return m, nil
}

// EncodeMemberPatch encodes the fields present in p as a profiles row.
func EncodeMemberPatch(p team.Patch) Row {
	r := Row{}
	putStr(r, "full_name", p.Name)
	putStr(r, "email", p.Email)
	if p.Role != nil {
		r["role"] = string(*p.Role)
	}
	putStr(r, "bio", p.Bio)
	putStr(r, "avatar_url", p.AvatarURL)
	return r
}

// ClientPatch decodes the keys present in r.
func ClientPatch(r Row) client.Patch {
	return client.Patch{
		Name:    r.strField("name"),
		Company: r.strField("company"),
		Email:   r.strField("email"),
		Phone:   r.strField("phone"),
	}
}

// DecodeClient decodes a clients row.
func DecodeClient(r Row) (client.Client, error) {
	id, err := requireID(r, TableClients)
	if err != nil {
		return client.Client{}, err
	}
	return client.FromPatch(id, ClientPatch(r)), nil
}

// EncodeClientPatch encodes the fields present in p.
func EncodeClientPatch(p client.Patch) Row {
	r := Row{}
	putStr(r, "name", p.Name)
	putStr(r, "company", p.Company)
	putStr(r, "email", p.Email)
	putStr(r, "phone", p.Phone)
	return r
}

// EncodeClient encodes a client for insert.
func EncodeClient(c client.Client) Row {
	return EncodeClientPatch(c.Full())
}

// DecodeComment decodes a comments row.
func DecodeComment(r Row) (comment.Comment, error) {
	id, err := requireID(r, TableComments)
	if err != nil {
		return comment.Comment{}, err
	}
	c := comment.Comment{ID: id}
	if v := r.strField("entity_type", "entityType"); v != nil {
		c.EntityType = comment.EntityType(strings.ToLower(*v))
	}
	if v := r.strField("entity_id", "entityId"); v != nil {
		c.EntityID = *v
	}
	if v := r.strField("author_id", "user_id", "authorId"); v != nil {
		c.AuthorID = *v
	}
	if v := r.strField("text", "content"); v != nil {
		c.Text = *v
	}
	if v := r.timeField("created_at", "createdAt"); v != nil {
		c.CreatedAt = *v
	}
	return c, nil
}

// CommentPatch decodes the editable keys present in r.
func CommentPatch(r Row) comment.Patch {
	return comment.Patch{Text: r.strField("text", "content")}
}

// EncodeComment encodes a comment for insert.
func EncodeComment(c comment.Comment) Row {
	return Row{
		"entity_type": string(c.EntityType),
		"entity_id":   c.EntityID,
		"author_id":   c.AuthorID,
		"text":        c.Text,
	}
}

// DecodeFile decodes a files row.
func DecodeFile(r Row) (attachment.File, error) {
	id, err := requireID(r, TableFiles)
	if err != nil {
		return attachment.File{}, err
	}
	f := attachment.File{ID: id}
	if v := r.strField("name", "file_name"); v != nil {
		f.Name = *v
	}
	if v := r.strField("mime_type", "mimeType", "content_type"); v != nil {
		f.MIMEType = *v
	}
	if v := r.intField("size"); v != nil {
		f.Size = *v
	}
	if v := r.strField("url"); v != nil {
		f.URL = *v
	}
	if v := r.timeField("uploaded_at", "created_at", "uploadedAt"); v != nil {
		f.UploadedAt = *v
	}
	if v := r.strField("entity_type", "entityType"); v != nil {
		f.EntityType = comment.EntityType(strings.ToLower(*v))
	}
	if v := r.strField("entity_id", "entityId"); v != nil {
		f.EntityID = *v
	}
	return f, nil
}

// EncodeFile encodes an attachment record.
func EncodeFile(f attachment.File) Row {
	return Row{
		"id":          f.ID,
		"name":        f.Name,
		"mime_type":   f.MIMEType,
		"size":        f.Size,
		"url":         f.URL,
		"uploaded_at": formatTime(f.UploadedAt),
		"entity_type": string(f.EntityType),
		"entity_id":   f.EntityID,
	}
}

func putStr(r Row, key string, v *string) {
	if v != nil {
		r[key] = *v
	}
}
