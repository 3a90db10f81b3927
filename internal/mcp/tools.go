package mcp

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func idOnly(description string) map[string]any {
	return object(map[string]any{"id": str(description)}, "id")
}

func listSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"query":     str("Case-insensitive substring match"),
		"sort_by":   str("Column to sort by"),
		"desc":      map[string]any{"type": "boolean", "description": "Sort descending"},
		"page":      map[string]any{"type": "integer", "minimum": 1, "description": "1-indexed page, clamped to the last page"},
		"page_size": map[string]any{"type": "integer", "minimum": 1, "description": "Rows per page (default 10)"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return object(props)
}

var (
	projectStatuses = []string{"Active", "On Hold", "Completed"}
	taskStatuses    = []string{"To Do", "In Progress", "Completed"}
	priorities      = []string{"Low", "Medium", "High"}
	roles           = []string{"Admin", "Project Manager", "Member", "Viewer"}
	entityTypes     = []string{"project", "task", "client"}
	bulkKinds       = []string{"projects", "tasks", "clients"}
	exportKinds     = []string{"projects", "tasks", "team", "clients"}
)

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "ping",
			Description: "Check that the client is running",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_dashboard",
			Description: "Workspace statistics: project counts by status, active and overdue tasks, tracked time, recent projects",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "whoami",
			Description: "The signed-in team member and their role",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},

		// Projects
		{
			Name:        "list_projects",
			Description: "List projects with progress, filtered by name or client and status. Sort keys: name, client, status, progress, start_date, end_date, budget",
			InputSchema: listSchema(map[string]any{"status": enum("Project status", projectStatuses...)}),
			ReadOnly:    true,
		},
		{
			Name:        "get_project",
			Description: "Get a project with its tasks, comments and files",
			InputSchema: idOnly("Project ID"),
			ReadOnly:    true,
		},
		{
			Name:        "create_project",
			Description: "Create a project. New projects start Active",
			InputSchema: object(map[string]any{
				"name":        str("Project name"),
				"client_id":   str("Client ID"),
				"description": str("Project description"),
				"status":      enum("Initial status", projectStatuses...),
				"start_date":  str("Start date, YYYY-MM-DD"),
				"end_date":    str("End date, YYYY-MM-DD, not before start_date"),
				"budget":      map[string]any{"type": "number", "minimum": 0, "description": "Budget"},
			}, "name"),
		},
		{
			Name:        "update_project",
			Description: "Change project fields. Omitted fields are left untouched",
			InputSchema: object(map[string]any{
				"id":          str("Project ID"),
				"name":        str("Project name"),
				"client_id":   str("Client ID"),
				"description": str("Project description"),
				"status":      enum("Project status", projectStatuses...),
				"start_date":  str("Start date, YYYY-MM-DD"),
				"end_date":    str("End date, YYYY-MM-DD"),
				"budget":      map[string]any{"type": "number", "minimum": 0, "description": "Budget"},
			}, "id"),
		},
		{
			Name:        "delete_project",
			Description: "Delete a project. Its tasks are kept and show an unknown project",
			InputSchema: idOnly("Project ID"),
		},

		// Tasks
		{
			Name:        "list_tasks",
			Description: "List tasks filtered by title, status, priority and project. Sort keys: title, project, assignee, priority, status, due_date, time_spent",
			InputSchema: listSchema(map[string]any{
				"status":     enum("Task status", taskStatuses...),
				"priority":   enum("Task priority", priorities...),
				"project_id": str("Only tasks in this project"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "get_task",
			Description: "Get a task with subtasks, blockers, timer state, comments and files",
			InputSchema: idOnly("Task ID"),
			ReadOnly:    true,
		},
		{
			Name:        "create_task",
			Description: "Create a task in a project",
			InputSchema: object(map[string]any{
				"title":       str("Task title"),
				"project_id":  str("Project ID"),
				"description": str("Task description"),
				"assignee_id": str("Team member ID"),
				"priority":    enum("Priority (default Medium)", priorities...),
				"status":      enum("Status (default To Do)", taskStatuses...),
				"due_date":    str("Due date, YYYY-MM-DD"),
			}, "title", "project_id"),
		},
		{
			Name:        "update_task",
			Description: "Change task fields. Use set_task_status, assign_task and the timer tools for those fields",
			InputSchema: object(map[string]any{
				"id":          str("Task ID"),
				"title":       str("Task title"),
				"description": str("Task description"),
				"project_id":  str("Move to project"),
				"priority":    enum("Priority", priorities...),
				"due_date":    str("Due date, YYYY-MM-DD"),
			}, "id"),
		},
		{
			Name:        "delete_task",
			Description: "Delete a task",
			InputSchema: idOnly("Task ID"),
		},
		{
			Name:        "set_task_status",
			Description: "Move a task through its workflow. A blocked task cannot be completed",
			InputSchema: object(map[string]any{
				"id":     str("Task ID"),
				"status": enum("New status", taskStatuses...),
			}, "id", "status"),
		},
		{
			Name:        "assign_task",
			Description: "Assign a task to a team member, or unassign with an empty assignee_id",
			InputSchema: object(map[string]any{
				"id":          str("Task ID"),
				"assignee_id": str("Team member ID"),
			}, "id"),
		},
		{
			Name:        "start_timer",
			Description: "Start the time tracker on a task",
			InputSchema: idOnly("Task ID"),
		},
		{
			Name:        "stop_timer",
			Description: "Stop the time tracker and add the elapsed time to the task",
			InputSchema: idOnly("Task ID"),
		},
		{
			Name:        "add_blocker",
			Description: "Mark a task as blocked by another task. Cycles are rejected",
			InputSchema: object(map[string]any{
				"id":         str("Blocked task ID"),
				"blocker_id": str("Blocking task ID"),
			}, "id", "blocker_id"),
		},
		{
			Name:        "remove_blocker",
			Description: "Remove a blocking dependency",
			InputSchema: object(map[string]any{
				"id":         str("Blocked task ID"),
				"blocker_id": str("Blocking task ID"),
			}, "id", "blocker_id"),
		},
		{
			Name:        "add_subtask",
			Description: "Append a checklist item to a task",
			InputSchema: object(map[string]any{
				"task_id": str("Task ID"),
				"title":   str("Subtask title"),
			}, "task_id", "title"),
		},
		{
			Name:        "toggle_subtask",
			Description: "Flip a subtask between done and not done",
			InputSchema: idOnly("Subtask ID"),
		},
		{
			Name:        "remove_subtask",
			Description: "Remove a subtask",
			InputSchema: idOnly("Subtask ID"),
		},

		// Team
		{
			Name:        "list_team",
			Description: "List team members filtered by name or email and role",
			InputSchema: listSchema(map[string]any{"role": enum("Role", roles...)}),
			ReadOnly:    true,
		},
		{
			Name:        "update_member",
			Description: "Edit a team member. Members may edit their own profile; changing roles needs manage:team",
			InputSchema: object(map[string]any{
				"id":         str("Member ID"),
				"name":       str("Display name"),
				"role":       enum("Role", roles...),
				"bio":        str("Short bio"),
				"avatar_url": str("Avatar URL"),
			}, "id"),
		},

		// Clients
		{
			Name:        "list_clients",
			Description: "List clients filtered by name, company or email",
			InputSchema: listSchema(nil),
			ReadOnly:    true,
		},
		{
			Name:        "create_client",
			Description: "Create a client",
			InputSchema: object(map[string]any{
				"name":    str("Contact name"),
				"company": str("Company"),
				"email":   str("Email address"),
				"phone":   str("Phone number"),
			}, "name"),
		},
		{
			Name:        "update_client",
			Description: "Change client fields",
			InputSchema: object(map[string]any{
				"id":      str("Client ID"),
				"name":    str("Contact name"),
				"company": str("Company"),
				"email":   str("Email address"),
				"phone":   str("Phone number"),
			}, "id"),
		},
		{
			Name:        "delete_client",
			Description: "Delete a client. Projects keep their stored client name",
			InputSchema: idOnly("Client ID"),
		},

		// Discussion
		{
			Name:        "list_comments",
			Description: "List comments on a project, task or client, oldest first",
			InputSchema: object(map[string]any{
				"entity_type": enum("Target type", entityTypes...),
				"entity_id":   str("Target ID"),
			}, "entity_type", "entity_id"),
			ReadOnly: true,
		},
		{
			Name:        "add_comment",
			Description: "Comment on a project, task or client",
			InputSchema: object(map[string]any{
				"entity_type": enum("Target type", entityTypes...),
				"entity_id":   str("Target ID"),
				"text":        str("Comment text"),
			}, "entity_type", "entity_id", "text"),
		},
		{
			Name:        "delete_comment",
			Description: "Delete a comment. Only the author or an admin may",
			InputSchema: idOnly("Comment ID"),
		},

		// Feeds
		{
			Name:        "get_recent_activity",
			Description: "Recent activity in this client, newest first",
			InputSchema: object(map[string]any{
				"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "description": "Max entries"},
			}),
			ReadOnly: true,
		},
		{
			Name:        "list_notifications",
			Description: "Notifications with the unread count",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "mark_notifications_read",
			Description: "Mark every notification read",
			InputSchema: object(map[string]any{}),
		},

		// Bulk
		{
			Name:        "bulk_delete",
			Description: "Delete several projects, tasks or clients. Items that fail to delete are restored and returned as remaining",
			InputSchema: object(map[string]any{
				"kind": enum("Collection", bulkKinds...),
				"ids":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "IDs to delete"},
			}, "kind", "ids"),
		},
		{
			Name:        "export_csv",
			Description: "Export a collection as CSV. Needs export:data",
			InputSchema: object(map[string]any{"kind": enum("Collection", exportKinds...)}, "kind"),
			ReadOnly:    true,
		},
	}
}
