package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// Export writes one collection as CSV. The current user needs export:data.
// Rows follow store order, with references resolved to display names.
func Export(w io.Writer, s *store.Store, kind view.Kind) error {
	if err := perm.Require(s.CurrentUser().Role, perm.ExportData); err != nil {
		return err
	}
	header, rows, err := table(s, kind)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func table(s *store.Store, kind view.Kind) ([]string, [][]string, error) {
	var rows [][]string
	switch kind {
	case view.KindProjects:
		for _, p := range s.Projects() {
			rows = append(rows, []string{
				p.ID, p.Name, s.ClientName(p), string(p.Status), p.StartDate, p.EndDate,
				strconv.FormatFloat(p.Budget, 'f', 2, 64), strconv.Itoa(s.ProjectProgress(p.ID)),
			})
		}
		return []string{"id", "name", "client", "status", "start_date", "end_date", "budget", "progress"}, rows, nil
	case view.KindTasks:
		now := s.Now()
		for _, t := range s.Tasks() {
			rows = append(rows, []string{
				t.ID, t.Title, s.ProjectName(t.ProjectID), s.AssigneeName(t.AssigneeID),
				string(t.Priority), string(t.Status), t.DueDate,
				strconv.FormatInt(int64(t.Elapsed(now)/time.Second), 10),
			})
		}
		return []string{"id", "title", "project", "assignee", "priority", "status", "due_date", "time_spent"}, rows, nil
	case view.KindTeam:
		for _, m := range s.Members() {
			rows = append(rows, []string{m.ID, m.Name, m.Email, string(m.Role)})
		}
		return []string{"id", "name", "email", "role"}, rows, nil
	case view.KindClients:
		for _, c := range s.Clients() {
			rows = append(rows, []string{c.ID, c.Name, c.Company, c.Email, c.Phone})
		}
		return []string{"id", "name", "company", "email", "phone"}, rows, nil
	default:
		return nil, nil, fmt.Errorf("export %s: unsupported collection", kind)
	}
}
