package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// StopMissionCommand ends a mission on operator request
type StopMissionCommand struct {
	MissionID string
}

// StopMissionResponse reports the mission's final state
type StopMissionResponse struct {
	MissionID   string
	Reason      string
	AlreadyDone bool
}

// StopMissionHandler ends missions
type StopMissionHandler struct {
	engine *simulation.Engine
}

// NewStopMissionHandler creates a new stop mission handler
func NewStopMissionHandler(engine *simulation.Engine) *StopMissionHandler {
	return &StopMissionHandler{engine: engine}
}

// Handle executes the stop mission command
func (h *StopMissionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StopMissionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	resp := &StopMissionResponse{MissionID: cmd.MissionID}
	err := h.engine.Exclusive(func(*world.Context) error {
		m, ok := h.engine.Missions().Get(cmd.MissionID)
		if !ok {
			return shared.NewValidationError("missionID", fmt.Sprintf("unknown mission %q", cmd.MissionID))
		}
		resp.AlreadyDone = m.IsDone()
		m.Stop(mission.ReasonStopped)
		resp.Reason = m.EndReason()
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Log(shared.LevelInfo, "mission stop requested", map[string]interface{}{
		"mission": resp.MissionID,
		"reason":  resp.Reason,
	})
	return resp, nil
}
