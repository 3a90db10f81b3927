package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `syncteam is a team project tracker: Projects group Tasks; Tasks have Subtasks, blockers and a time tracker; Clients own Projects; Team members carry a Role.

Core concepts:
- Every write is optimistic: it is applied locally, confirmed by the server and rolled back if the server rejects it. A tool returns only after the outcome is known.
- Roles gate writes. Admin can do everything; Project Manager cannot delete projects or clients; Member can create and edit tasks and comment; Viewer is read-only. Call whoami to see yours.
- Ids of created entities come back in the tool result. Lists are paginated (10 per page by default) and pages are clamped.
- Other users' changes stream in live, so list results can change between calls.

Default workflow:
1) Orient: get_dashboard, then list_projects or list_tasks with filters.
2) Drill in: get_project / get_task return related tasks, comments and files.
3) Write: create_* / update_* / set_task_status / assign_task. Blocked tasks cannot be completed; remove_blocker first.
4) Clean up: bulk_delete returns the ids that could not be deleted.

Docs:
- syncteam://docs/index
- syncteam://docs/permissions
- syncteam://docs/tasks
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "syncteam://docs/index",
		Name:        "docs_index",
		Title:       "syncteam docs index",
		Description: "What the tools cover and which doc to read for what.",
		Content: `# syncteam: Agent Docs Index

## Collections

| Collection | List tool | Write tools |
|---|---|---|
| Projects | list_projects | create_project, update_project, delete_project |
| Tasks | list_tasks | create_task, update_task, set_task_status, assign_task, start_timer, stop_timer, add_blocker, remove_blocker, delete_task |
| Subtasks | get_task | add_subtask, toggle_subtask, remove_subtask |
| Team | list_team | update_member |
| Clients | list_clients | create_client, update_client, delete_client |
| Comments | list_comments | add_comment, delete_comment |

## Errors

Tool errors carry a code:

- PERMISSION_DENIED: your role lacks the capability. Nothing was changed.
- VALIDATION_FAILED: a field was rejected before anything was sent.
- NOT_FOUND: the id is not in the workspace.
- IN_FLIGHT: the same change is still being confirmed.
- REMOTE_FAILED: the server rejected the change and it was rolled back.

## Read next

- syncteam://docs/permissions for the role matrix
- syncteam://docs/tasks for status, blocker and timer rules
`,
	},
	{
		URI:         "syncteam://docs/permissions",
		Name:        "docs_permissions",
		Title:       "Roles and permissions",
		Description: "Which role may perform which write.",
		Content: `# Roles and permissions

| Capability | Admin | Project Manager | Member | Viewer |
|---|---|---|---|---|
| create/edit project | yes | yes | no | no |
| delete project | yes | no | no | no |
| create/edit/delete task | yes | yes | create/edit | no |
| create/edit client | yes | yes | no | no |
| delete client | yes | no | no | no |
| manage team (roles) | yes | yes | no | no |
| export data | yes | yes | no | no |
| comment | yes | no | yes | no |

Anyone may edit their own profile (name, bio, avatar) but not their own role.
Comments can be deleted by their author or an admin.
`,
	},
	{
		URI:         "syncteam://docs/tasks",
		Name:        "docs_tasks",
		Title:       "Task rules",
		Description: "Statuses, blockers, subtasks and the time tracker.",
		Content: `# Task rules

## Status

To Do -> In Progress -> Completed. Any move is allowed except completing a
task while one of its blockers is not Completed.

## Blockers

add_blocker(id, blocker_id) makes id wait on blocker_id. A task cannot block
itself and a blocker that would close a cycle is rejected.

## Subtasks

Subtasks are an ordered checklist. Project progress counts only tasks, not
subtasks.

## Timer

start_timer records when tracking started; stop_timer adds the elapsed
seconds to time_spent. Starting a running timer or stopping a stopped one is
an error. get_task reports elapsed_seconds including a running timer.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
