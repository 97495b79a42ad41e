package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// StartDeliveryMissionCommand sends goods from one settlement to another by rover
type StartDeliveryMissionCommand struct {
	Name          string
	HomeID        string
	DestinationID string
	StarterID     string // optional: first eligible settler when empty
	MinMembers    int
	MaxMembers    int
	Goods         map[settlement.ResourceType]float64
	ReturnGoods   map[settlement.ResourceType]float64
	TowVehicleID  string
	Preempt       bool // end the current work of recruited settlers
}

// StartDeliveryMissionHandler launches delivery missions
type StartDeliveryMissionHandler struct {
	engine   *simulation.Engine
	defaults MissionDefaults
}

// NewStartDeliveryMissionHandler creates a new start delivery mission handler
func NewStartDeliveryMissionHandler(engine *simulation.Engine, defaults MissionDefaults) *StartDeliveryMissionHandler {
	return &StartDeliveryMissionHandler{engine: engine, defaults: defaults}
}

// Handle executes the start delivery mission command
func (h *StartDeliveryMissionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StartDeliveryMissionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.HomeID == cmd.DestinationID {
		return nil, shared.NewValidationError("destinationID", "must differ from home")
	}

	var resp *StartMissionResponse
	err := h.engine.Exclusive(func(w *world.Context) error {
		home, err := lookupSettlement(w, "homeID", cmd.HomeID)
		if err != nil {
			return err
		}
		dest, err := lookupSettlement(w, "destinationID", cmd.DestinationID)
		if err != nil {
			return err
		}
		var tow *settlement.Vehicle
		if cmd.TowVehicleID != "" {
			if tow, ok = home.Vehicle(cmd.TowVehicleID); !ok {
				return shared.NewValidationError("towVehicleID", fmt.Sprintf("no vehicle %q at %s", cmd.TowVehicleID, home.Name()))
			}
		}
		min, max := h.defaults.limits(cmd.MinMembers, cmd.MaxMembers)
		resp, err = launchMission(h.engine, w, launch{
			name:      cmd.Name,
			home:      home,
			dest:      dest,
			starterID: cmd.StarterID,
			min:       min,
			max:       max,
			flavor:    mission.Delivery(cmd.Goods, cmd.ReturnGoods),
			tow:       tow,
			preempt:   cmd.Preempt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Log(shared.LevelInfo, "delivery mission requested", map[string]interface{}{
		"mission": resp.MissionID,
		"started": resp.Started,
		"reason":  resp.Reason,
		"members": len(resp.Members),
	})
	return resp, nil
}
