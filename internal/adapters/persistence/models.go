package persistence

import (
	"time"
)

// CheckpointModel represents the checkpoints table. Task and mission
// snapshots are stored as JSON text so SQLite and PostgreSQL share one schema.
type CheckpointModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;not null;index:idx_checkpoint_run_tick,priority:1"`
	Tick      uint64    `gorm:"column:tick;not null;index:idx_checkpoint_run_tick,priority:2"`
	Sol       int       `gorm:"column:sol;not null"`
	Millisol  float64   `gorm:"column:millisol;not null"`
	Tasks     string    `gorm:"column:tasks;type:text"`    // JSON array of task snapshots
	Missions  string    `gorm:"column:missions;type:text"` // JSON array of mission snapshots
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (CheckpointModel) TableName() string {
	return "checkpoints"
}

// EventLogModel represents the event_log table
type EventLogModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string    `gorm:"column:run_id;not null;uniqueIndex:idx_event_run_seq,priority:1"`
	Seq        uint64    `gorm:"column:seq;not null;uniqueIndex:idx_event_run_seq,priority:2"`
	Producer   string    `gorm:"column:producer;not null"`
	Type       string    `gorm:"column:type;not null;index"`
	Sol        int       `gorm:"column:sol;not null"`
	Millisol   float64   `gorm:"column:millisol;not null"`
	Settlement string    `gorm:"column:settlement;index"`
	Actor      string    `gorm:"column:actor;index"`
	Message    string    `gorm:"column:message"`
	Data       string    `gorm:"column:data;type:text"` // JSON as text
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`
}

func (EventLogModel) TableName() string {
	return "event_log"
}
