package project

import (
	"strings"
	"time"

	"github.com/rpggio/syncteam/internal/domain/patch"
)

// Status represents the lifecycle status of a project
type Status string

const (
	StatusActive    Status = "Active"
	StatusOnHold    Status = "On Hold"
	StatusCompleted Status = "Completed"
)

// Statuses lists the project status vocabulary in display order.
var Statuses = []Status{StatusActive, StatusOnHold, StatusCompleted}

// ParseStatus normalises a status label. Matching ignores case, spaces and underscores.
func ParseStatus(s string) (Status, bool) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "active":
		return StatusActive, true
	case "onhold":
		return StatusOnHold, true
	case "completed", "done":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Project represents a client engagement that groups tasks
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ClientID    string    `json:"client_id,omitempty"`
	ClientName  string    `json:"client_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Budget      float64   `json:"budget"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Patch is a partial project update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	ClientID    *string
	ClientName  *string
	Description *string
	Status      *Status
	StartDate   *string
	EndDate     *string
	Budget      *float64
	CreatedBy   *string
	CreatedAt   *time.Time
}

// Apply shallow-merges the patch and reports whether anything changed.
func (p *Project) Apply(pt Patch) bool {
	changed := patch.Assign(&p.Name, pt.Name)
	changed = patch.Assign(&p.ClientID, pt.ClientID) || changed
	changed = patch.Assign(&p.ClientName, pt.ClientName) || changed
	changed = patch.Assign(&p.Description, pt.Description) || changed
	changed = patch.Assign(&p.Status, pt.Status) || changed
	changed = patch.Assign(&p.StartDate, pt.StartDate) || changed
	changed = patch.Assign(&p.EndDate, pt.EndDate) || changed
	changed = patch.Assign(&p.Budget, pt.Budget) || changed
	changed = patch.Assign(&p.CreatedBy, pt.CreatedBy) || changed
	changed = patch.AssignTime(&p.CreatedAt, pt.CreatedAt) || changed
	return changed
}

// Full returns a patch carrying every field of p.
func (p Project) Full() Patch {
	return Patch{
		Name:        &p.Name,
		ClientID:    &p.ClientID,
		ClientName:  &p.ClientName,
		Description: &p.Description,
		Status:      &p.Status,
		StartDate:   &p.StartDate,
		EndDate:     &p.EndDate,
		Budget:      &p.Budget,
		CreatedBy:   &p.CreatedBy,
		CreatedAt:   &p.CreatedAt,
	}
}

// FromPatch builds a project with the given id from a patch.
func FromPatch(id string, pt Patch) Project {
	p := Project{ID: id}
	p.Apply(pt)
	return p
}
