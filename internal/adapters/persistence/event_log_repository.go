package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

const (
	// DefaultDedupWindow is the span of simulated millisols inside which an
	// identical event from the same producer is recorded only once.
	DefaultDedupWindow = 5.0
	dedupMaxSize       = 10000
)

// EventLogFilter narrows List results. Zero fields match everything.
type EventLogFilter struct {
	Type       event.Type
	Settlement string
	Actor      string
	Limit      int
	Offset     int
}

// GormEventLogRepository persists drained simulation events with GORM.
//
// Rows are unique per (run_id, seq) so re-appending a batch after a retry is a
// no-op. Separately, events that repeat the same producer, type, actor and
// message within the dedup window are collapsed.
type GormEventLogRepository struct {
	db          *gorm.DB
	clock       shared.Clock
	dedupWindow float64
	dedupMu     sync.Mutex
	dedupCache  map[string]float64 // key -> absolute millisol of last write
}

// NewGormEventLogRepository creates a new event log repository. A nil clock
// uses the real clock for recorded_at timestamps.
func NewGormEventLogRepository(db *gorm.DB, clock shared.Clock) *GormEventLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormEventLogRepository{
		db:          db,
		clock:       clock,
		dedupWindow: DefaultDedupWindow,
		dedupCache:  make(map[string]float64),
	}
}

// WithDedupWindow overrides the dedup window. Zero disables collapsing.
func (r *GormEventLogRepository) WithDedupWindow(millisols float64) *GormEventLogRepository {
	r.dedupWindow = millisols
	return r
}

// Append writes a batch of events for a run
func (r *GormEventLogRepository) Append(ctx context.Context, runID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	now := r.clock.Now()
	models := make([]EventLogModel, 0, len(events))
	for _, e := range events {
		if r.isDuplicate(runID, e) {
			continue
		}
		model, err := r.eventToModel(runID, e, now)
		if err != nil {
			return err
		}
		models = append(models, *model)
	}
	if len(models) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&models, 200)
	if result.Error != nil {
		return fmt.Errorf("failed to append events: %w", result.Error)
	}
	return nil
}

// List returns logged events of a run in sequence order
func (r *GormEventLogRepository) List(ctx context.Context, runID string, filter EventLogFilter) ([]event.Event, error) {
	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Settlement != "" {
		query = query.Where("settlement = ?", filter.Settlement)
	}
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	query = query.Order("seq ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []EventLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]event.Event, 0, len(models))
	for i := range models {
		e, err := r.modelToEvent(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the number of logged events of a run
func (r *GormEventLogRepository) Count(ctx context.Context, runID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&EventLogModel{}).Where("run_id = ?", runID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func (r *GormEventLogRepository) isDuplicate(runID string, e event.Event) bool {
	if r.dedupWindow <= 0 {
		return false
	}

	key := fmt.Sprintf("%s|%s|%s|%s|%s", runID, e.Producer, e.Type, e.Actor, e.Message)
	at := e.Time.Total()

	r.dedupMu.Lock()
	defer r.dedupMu.Unlock()

	if last, ok := r.dedupCache[key]; ok && at-last < r.dedupWindow && at >= last {
		return true
	}
	r.dedupCache[key] = at

	if len(r.dedupCache) > dedupMaxSize {
		r.cleanupDedupCache(at)
	}
	return false
}

// cleanupDedupCache drops entries older than the window. Caller holds dedupMu.
func (r *GormEventLogRepository) cleanupDedupCache(now float64) {
	for key, last := range r.dedupCache {
		if now-last >= r.dedupWindow {
			delete(r.dedupCache, key)
		}
	}
}

func (r *GormEventLogRepository) eventToModel(runID string, e event.Event, recordedAt time.Time) (*EventLogModel, error) {
	var data string
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(raw)
	}
	return &EventLogModel{
		RunID:      runID,
		Seq:        e.Seq,
		Producer:   e.Producer,
		Type:       string(e.Type),
		Sol:        e.Time.Sol,
		Millisol:   e.Time.Millisol,
		Settlement: e.Settlement,
		Actor:      e.Actor,
		Message:    e.Message,
		Data:       data,
		RecordedAt: recordedAt,
	}, nil
}

func (r *GormEventLogRepository) modelToEvent(model *EventLogModel) (event.Event, error) {
	e := event.Event{
		Seq:        model.Seq,
		Producer:   model.Producer,
		Type:       event.Type(model.Type),
		Time:       shared.MarsTime{Sol: model.Sol, Millisol: model.Millisol},
		Settlement: model.Settlement,
		Actor:      model.Actor,
		Message:    model.Message,
	}
	if model.Data != "" {
		if err := json.Unmarshal([]byte(model.Data), &e.Data); err != nil {
			return event.Event{}, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
	}
	return e, nil
}
