package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/remote"
)

// Validate checks rec against the rules of its table. A full record must
// carry every required field; a partial one is checked only where present.
func Validate(table string, rec Record, full bool) error {
	if err := validate(table, rec, full); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// canonicalize rewrites enumerated fields to their canonical labels, so
// legacy spellings like "done" are stored as "Completed".
func canonicalize(table string, rec Record) {
	row := rec.Row()
	switch table {
	case remote.TableProjects:
		if pt := remote.ProjectPatch(row); pt.Status != nil {
			rec["status"] = string(*pt.Status)
		}
	case remote.TableTasks:
		pt := remote.TaskPatch(row)
		if pt.Status != nil {
			rec["status"] = string(*pt.Status)
		}
		if pt.Priority != nil {
			rec["priority"] = string(*pt.Priority)
		}
	case remote.TableProfiles:
		if pt := remote.MemberPatch(row); pt.Role != nil {
			rec["role"] = string(*pt.Role)
		}
	}
}

func validate(table string, rec Record, full bool) error {
	row := rec.Row()
	switch table {
	case remote.TableProjects:
		pt := remote.ProjectPatch(row)
		if rec.has("status") && pt.Status == nil {
			return fmt.Errorf("unknown status %q", rec.str("status"))
		}
		if full {
			return project.Validate(project.FromPatch("", pt))
		}
		return project.ValidatePatch(pt)

	case remote.TableTasks:
		pt := remote.TaskPatch(row)
		if rec.has("status") && pt.Status == nil {
			return fmt.Errorf("unknown status %q", rec.str("status"))
		}
		if rec.has("priority") && pt.Priority == nil {
			return fmt.Errorf("unknown priority %q", rec.str("priority"))
		}
		if full {
			return task.Validate(task.FromPatch("", pt))
		}
		return task.ValidatePatch(pt)

	case remote.TableSubtasks:
		if full && rec.str("task_id") == "" {
			return fmt.Errorf("%w: task is required", task.ErrInvalidInput)
		}
		if (full || rec.has("title")) && strings.TrimSpace(rec.str("title")) == "" {
			return fmt.Errorf("%w: subtask title is required", task.ErrInvalidInput)
		}
		return nil

	case remote.TableClients:
		pt := remote.ClientPatch(row)
		if full {
			return client.Validate(client.FromPatch("", pt))
		}
		return client.ValidatePatch(pt)

	case remote.TableProfiles:
		pt := remote.MemberPatch(row)
		if rec.has("role") && pt.Role == nil {
			return fmt.Errorf("unknown role %q", rec.str("role"))
		}
		if full {
			return team.Validate(team.FromPatch("", pt))
		}
		return team.ValidatePatch(pt)

	case remote.TableComments:
		if !full {
			if rec.has("text") && strings.TrimSpace(rec.str("text")) == "" {
				return fmt.Errorf("%w: text is required", comment.ErrInvalidInput)
			}
			return nil
		}
		return comment.Validate(comment.Comment{
			EntityType: comment.EntityType(strings.ToLower(rec.str("entity_type"))),
			EntityID:   rec.str("entity_id"),
			Text:       rec.str("text"),
		})

	case remote.TableFiles:
		if !full {
			return nil
		}
		return attachment.Validate(attachment.File{
			Name:     rec.str("name"),
			Size:     sizeOf(rec["size"]),
			EntityID: rec.str("entity_id"),
		})
	}
	return ErrUnknownTable
}

func sizeOf(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}
