package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/pkg/utils"
)

// ScheduleResupplyCommand queues a shipment for the tick loop to land
type ScheduleResupplyCommand struct {
	Resupply *resupply.Resupply
}

// ScheduleResupplyResponse confirms the scheduled shipment
type ScheduleResupplyResponse struct {
	ResupplyID  string
	ArrivalTime shared.MarsTime
}

// ScheduleResupplyHandler adds resupplies to the engine's schedule
type ScheduleResupplyHandler struct {
	engine *simulation.Engine
}

// NewScheduleResupplyHandler creates a new schedule resupply handler
func NewScheduleResupplyHandler(engine *simulation.Engine) *ScheduleResupplyHandler {
	return &ScheduleResupplyHandler{engine: engine}
}

// Handle executes the schedule resupply command
func (h *ScheduleResupplyHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ScheduleResupplyCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	r := cmd.Resupply
	if r == nil {
		return nil, shared.NewValidationError("resupply", "is required")
	}
	if r.ID == "" {
		r.ID = utils.GenerateEntityID("resupply", r.SettlementID)
	}
	if err := h.engine.ScheduleResupply(r); err != nil {
		return nil, fmt.Errorf("failed to schedule resupply: %w", err)
	}

	common.LoggerFromContext(ctx).Log(shared.LevelInfo, "resupply scheduled", map[string]interface{}{
		"resupply":   r.ID,
		"settlement": r.SettlementID,
		"arrival":    r.ArrivalTime.String(),
	})
	return &ScheduleResupplyResponse{ResupplyID: r.ID, ArrivalTime: r.ArrivalTime}, nil
}
