package simulation

import (
	"time"

	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
)

// Checkpoint is the persisted state of a run at one tick: the phase, counters
// and effort of every active task plus the phase and roster of every mission.
type Checkpoint struct {
	RunID     string
	Tick      uint64
	Time      shared.MarsTime
	Tasks     []task.Snapshot
	Missions  []mission.Snapshot
	CreatedAt time.Time
}

// Task returns the snapshot of the task held by an actor
func (c *Checkpoint) Task(actorID string) (task.Snapshot, bool) {
	for _, t := range c.Tasks {
		if t.ActorID == actorID {
			return t, true
		}
	}
	return task.Snapshot{}, false
}

// Mission returns the snapshot of a mission by ID
func (c *Checkpoint) Mission(id string) (mission.Snapshot, bool) {
	for _, m := range c.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return mission.Snapshot{}, false
}
