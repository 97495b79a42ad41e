package simulation

import (
	"context"
	"time"

	"github.com/andrescamacho/colonysim/internal/domain/event"
)

// CheckpointRepository persists periodic snapshots of task and mission state
type CheckpointRepository interface {
	Save(ctx context.Context, cp *Checkpoint) error
	Latest(ctx context.Context, runID string) (*Checkpoint, error)
}

// EventLogRepository stores the events drained at the end of each tick
type EventLogRepository interface {
	Append(ctx context.Context, runID string, events []event.Event) error
}

// MetricsRecorder receives per-tick measurements
type MetricsRecorder interface {
	RecordTick(report *TickReport, events []event.Event, duration time.Duration)
}
