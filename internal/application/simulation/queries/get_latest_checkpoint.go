package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
)

// GetLatestCheckpointQuery loads the most recent checkpoint of a run.
// An empty RunID means the engine's own run.
type GetLatestCheckpointQuery struct {
	RunID string
}

// GetLatestCheckpointHandler reads checkpoints from the repository
type GetLatestCheckpointHandler struct {
	engine *simulation.Engine
	repo   simulation.CheckpointRepository
}

// NewGetLatestCheckpointHandler creates a new latest checkpoint handler
func NewGetLatestCheckpointHandler(engine *simulation.Engine, repo simulation.CheckpointRepository) *GetLatestCheckpointHandler {
	return &GetLatestCheckpointHandler{engine: engine, repo: repo}
}

// Handle executes the latest checkpoint query
func (h *GetLatestCheckpointHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetLatestCheckpointQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetLatestCheckpointQuery")
	}
	if h.repo == nil {
		return nil, fmt.Errorf("checkpoints are not configured")
	}
	runID := query.RunID
	if runID == "" {
		runID = h.engine.Config().RunID
	}

	cp, err := h.repo.Latest(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}
