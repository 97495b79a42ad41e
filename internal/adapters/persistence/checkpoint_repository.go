package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
)

// GormCheckpointRepository stores engine checkpoints with GORM
type GormCheckpointRepository struct {
	db *gorm.DB
}

// NewGormCheckpointRepository creates a new checkpoint repository
func NewGormCheckpointRepository(db *gorm.DB) *GormCheckpointRepository {
	return &GormCheckpointRepository{db: db}
}

// Save persists a checkpoint
func (r *GormCheckpointRepository) Save(ctx context.Context, cp *simulation.Checkpoint) error {
	model, err := r.checkpointToModel(cp)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Latest returns the most recent checkpoint of a run, or nil when there is none
func (r *GormCheckpointRepository) Latest(ctx context.Context, runID string) (*simulation.Checkpoint, error) {
	var model CheckpointModel
	result := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("tick DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find checkpoint: %w", result.Error)
	}
	return r.modelToCheckpoint(&model)
}

// List returns up to limit checkpoints of a run, newest first
func (r *GormCheckpointRepository) List(ctx context.Context, runID string, limit int) ([]*simulation.Checkpoint, error) {
	var models []CheckpointModel
	query := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("tick DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	out := make([]*simulation.Checkpoint, 0, len(models))
	for i := range models {
		cp, err := r.modelToCheckpoint(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Prune deletes all but the newest keep checkpoints of a run
func (r *GormCheckpointRepository) Prune(ctx context.Context, runID string, keep int) (int64, error) {
	var cutoff CheckpointModel
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("tick DESC").
		Offset(keep).
		First(&cutoff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find prune cutoff: %w", err)
	}

	result := r.db.WithContext(ctx).
		Where("run_id = ? AND tick <= ?", runID, cutoff.Tick).
		Delete(&CheckpointModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune checkpoints: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormCheckpointRepository) checkpointToModel(cp *simulation.Checkpoint) (*CheckpointModel, error) {
	tasks, err := json.Marshal(cp.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task snapshots: %w", err)
	}
	missions, err := json.Marshal(cp.Missions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mission snapshots: %w", err)
	}
	return &CheckpointModel{
		RunID:     cp.RunID,
		Tick:      cp.Tick,
		Sol:       cp.Time.Sol,
		Millisol:  cp.Time.Millisol,
		Tasks:     string(tasks),
		Missions:  string(missions),
		CreatedAt: cp.CreatedAt,
	}, nil
}

func (r *GormCheckpointRepository) modelToCheckpoint(model *CheckpointModel) (*simulation.Checkpoint, error) {
	cp := &simulation.Checkpoint{
		RunID:     model.RunID,
		Tick:      model.Tick,
		Time:      shared.MarsTime{Sol: model.Sol, Millisol: model.Millisol},
		CreatedAt: model.CreatedAt,
	}
	if model.Tasks != "" {
		var tasks []task.Snapshot
		if err := json.Unmarshal([]byte(model.Tasks), &tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task snapshots: %w", err)
		}
		cp.Tasks = tasks
	}
	if model.Missions != "" {
		var missions []mission.Snapshot
		if err := json.Unmarshal([]byte(model.Missions), &missions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mission snapshots: %w", err)
		}
		cp.Missions = missions
	}
	return cp, nil
}
