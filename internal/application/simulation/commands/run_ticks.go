package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// RunTicksCommand advances the simulation by a number of ticks
type RunTicksCommand struct {
	Ticks int
}

// RunTicksResponse totals what happened over the run
type RunTicksResponse struct {
	TicksRun      int
	Time          shared.MarsTime
	TasksStarted  int
	MissionsEnded int
	Resupplies    []string
	Events        int
	Checkpoints   int
}

// RunTicksHandler drives the engine for RunTicksCommand
type RunTicksHandler struct {
	engine *simulation.Engine
}

// NewRunTicksHandler creates a new run ticks handler
func NewRunTicksHandler(engine *simulation.Engine) *RunTicksHandler {
	return &RunTicksHandler{engine: engine}
}

// Handle executes the run ticks command
func (h *RunTicksHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunTicksCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.Ticks <= 0 {
		return nil, shared.NewValidationError("ticks", "must be positive")
	}

	logger := common.LoggerFromContext(ctx)
	reports, err := h.engine.Run(ctx, cmd.Ticks)

	resp := &RunTicksResponse{TicksRun: len(reports), Time: h.engine.World().Clock.Now()}
	for _, r := range reports {
		resp.TasksStarted += r.TasksStarted
		resp.MissionsEnded += r.MissionsEnded
		resp.Events += r.Events
		for _, d := range r.Resupplies {
			resp.Resupplies = append(resp.Resupplies, d.ResupplyID)
		}
		if r.Checkpointed {
			resp.Checkpoints++
		}
	}
	if err != nil {
		return resp, fmt.Errorf("run stopped after %d ticks: %w", len(reports), err)
	}

	logger.Log(shared.LevelInfo, "ticks completed", map[string]interface{}{
		"ticks":          resp.TicksRun,
		"time":           resp.Time.String(),
		"tasks_started":  resp.TasksStarted,
		"missions_ended": resp.MissionsEnded,
	})
	return resp, nil
}
