package realtime

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/store"
)

// DefaultSimulationInterval is the period of the simulated activity loop.
const DefaultSimulationInterval = 45 * time.Second

// Poster runs a function on the goroutine that owns the store.
type Poster interface {
	Post(fn func(*store.Store))
}

// Simulator produces synthetic team activity for demo sessions. Each tick
// appends one activity and one notification to the capped feeds, so there is
// no backpressure to manage.
type Simulator struct {
	interval time.Duration
	rand     *rand.Rand
}

// NewSimulator creates a simulator ticking every interval.
func NewSimulator(interval time.Duration, seed uint64) *Simulator {
	if interval <= 0 {
		interval = DefaultSimulationInterval
	}
	return &Simulator{interval: interval, rand: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

var simulatedVerbs = []string{"updated", "commented on", "reviewed", "logged time on"}

// Run ticks until ctx is done.
func (sim *Simulator) Run(ctx context.Context, p Poster) {
	ticker := time.NewTicker(sim.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			verb := simulatedVerbs[sim.rand.IntN(len(simulatedVerbs))]
			pick := sim.rand.Uint64()
			p.Post(func(s *store.Store) { sim.Tick(s, verb, pick) })
		}
	}
}

// Tick appends one synthetic event built from the current store contents.
// It does nothing when there are no team members or tasks to talk about.
func (sim *Simulator) Tick(s *store.Store, verb string, pick uint64) bool {
	members := s.Members()
	tasks := s.Tasks()
	if len(members) == 0 || len(tasks) == 0 {
		return false
	}
	m := members[pick%uint64(len(members))]
	t := tasks[(pick/7)%uint64(len(tasks))]
	summary := fmt.Sprintf("%s %s %q", m.Name, verb, t.Title)
	s.LogActivity(activity.Activity{
		Kind:       activity.KindSimulated,
		EntityType: "tasks",
		EntityID:   t.ID,
		ActorID:    m.ID,
		Summary:    summary,
	})
	s.Notify(activity.Notification{Title: "Team activity", Message: summary, Level: activity.LevelInfo})
	return true
}
