// Package hydrate loads the initial dataset from the backend into a store.
package hydrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
	"golang.org/x/sync/errgroup"
)

// Dataset is everything the client tracks, decoded but not yet applied.
type Dataset struct {
	Projects []project.Project
	Tasks    []task.Task
	Subtasks []task.Subtask
	Team     []team.Member
	Clients  []client.Client
	Comments []comment.Comment
	Files    []attachment.File
	// Skipped counts rows that failed to decode.
	Skipped int
}

// Fetch selects every table concurrently. It touches no store state and may
// run on any goroutine. Any failed select fails the whole fetch.
func Fetch(ctx context.Context, b remote.Backend, logger *slog.Logger) (Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows := make(map[string][]remote.Row, len(remote.Tables))
	results := make([][]remote.Row, len(remote.Tables))

	g, ctx := errgroup.WithContext(ctx)
	for i, table := range remote.Tables {
		g.Go(func() error {
			f := remote.Filter{Order: "created_at", Desc: true}
			if table == remote.TableSubtasks {
				f = remote.Filter{Order: "position"}
			}
			out, err := b.Select(ctx, table, f)
			if err != nil {
				return fmt.Errorf("select %s: %w", table, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	for i, table := range remote.Tables {
		rows[table] = results[i]
	}

	var ds Dataset
	skip := func(table string, err error) {
		ds.Skipped++
		logger.Warn("skipping undecodable row", "table", table, "error", err)
	}
	ds.Projects = decodeAll(rows[remote.TableProjects], remote.DecodeProject, func(err error) { skip(remote.TableProjects, err) })
	ds.Tasks = decodeAll(rows[remote.TableTasks], remote.DecodeTask, func(err error) { skip(remote.TableTasks, err) })
	ds.Subtasks = decodeAll(rows[remote.TableSubtasks], remote.DecodeSubtask, func(err error) { skip(remote.TableSubtasks, err) })
	ds.Team = decodeAll(rows[remote.TableProfiles], remote.DecodeMember, func(err error) { skip(remote.TableProfiles, err) })
	ds.Clients = decodeAll(rows[remote.TableClients], remote.DecodeClient, func(err error) { skip(remote.TableClients, err) })
	ds.Comments = decodeAll(rows[remote.TableComments], remote.DecodeComment, func(err error) { skip(remote.TableComments, err) })
	ds.Files = decodeAll(rows[remote.TableFiles], remote.DecodeFile, func(err error) { skip(remote.TableFiles, err) })
	return ds, nil
}

func decodeAll[T any](rows []remote.Row, decode func(remote.Row) (T, error), onErr func(error)) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := decode(r)
		if err != nil {
			onErr(err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Apply replaces the store contents with the dataset. Subtasks are grouped
// into their owning tasks; subtasks whose task is absent are dropped.
// It returns the number of dropped subtasks.
func (ds Dataset) Apply(s *store.Store) int {
	owners := make(map[string]int, len(ds.Tasks))
	tasks := make([]task.Task, len(ds.Tasks))
	for i, t := range ds.Tasks {
		t = t.Clone()
		t.Subtasks = nil
		tasks[i] = t
		owners[t.ID] = i
	}
	dropped := 0
	for _, sub := range ds.Subtasks {
		i, ok := owners[sub.TaskID]
		if !ok {
			dropped++
			continue
		}
		tasks[i].UpsertSubtask(sub)
	}

	s.ReplaceProjects(ds.Projects)
	s.ReplaceTasks(tasks)
	s.ReplaceMembers(ds.Team)
	s.ReplaceClients(ds.Clients)
	s.ReplaceComments(ds.Comments)
	s.ReplaceFiles(ds.Files)
	return dropped
}
