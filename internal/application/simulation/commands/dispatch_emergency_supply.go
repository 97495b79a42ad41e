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

// DefaultStockSols is how many sols of supplies relief aims to leave the target with
const DefaultStockSols = 3.0

// ReasonNothingToSend is reported when the target has no deficit the home can cover
const ReasonNothingToSend = "no deficit the home settlement can cover"

// DispatchEmergencySupplyCommand sends relief from home to a settlement running short
type DispatchEmergencySupplyCommand struct {
	HomeID     string
	TargetID   string
	StockSols  float64
	MinMembers int
	MaxMembers int
	Preempt    bool
}

// DispatchEmergencySupplyResponse reports the planned payload and the mission, if any
type DispatchEmergencySupplyResponse struct {
	Dispatched bool
	Payload    map[settlement.ResourceType]float64
	Containers map[settlement.EquipmentType]int
	Mission    *StartMissionResponse
	Reason     string
}

// DispatchEmergencySupplyHandler plans and launches emergency supply missions
type DispatchEmergencySupplyHandler struct {
	engine   *simulation.Engine
	defaults MissionDefaults
}

// NewDispatchEmergencySupplyHandler creates a new dispatch emergency supply handler
func NewDispatchEmergencySupplyHandler(engine *simulation.Engine, defaults MissionDefaults) *DispatchEmergencySupplyHandler {
	return &DispatchEmergencySupplyHandler{engine: engine, defaults: defaults}
}

// Handle executes the dispatch emergency supply command
func (h *DispatchEmergencySupplyHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*DispatchEmergencySupplyCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.HomeID == cmd.TargetID {
		return nil, shared.NewValidationError("targetID", "must differ from home")
	}
	sols := cmd.StockSols
	if sols <= 0 {
		sols = DefaultStockSols
	}

	resp := &DispatchEmergencySupplyResponse{}
	err := h.engine.Exclusive(func(w *world.Context) error {
		home, err := lookupSettlement(w, "homeID", cmd.HomeID)
		if err != nil {
			return err
		}
		target, err := lookupSettlement(w, "targetID", cmd.TargetID)
		if err != nil {
			return err
		}

		payload, ok := mission.PlanEmergencySupply(home, target, sols)
		resp.Payload = payload.Required
		resp.Containers = payload.Equipment
		if !ok {
			resp.Reason = ReasonNothingToSend
			return nil
		}

		min, max := h.defaults.limits(cmd.MinMembers, cmd.MaxMembers)
		launched, err := launchMission(h.engine, w, launch{
			name:    fmt.Sprintf("Emergency supply to %s", target.Name()),
			home:    home,
			dest:    target,
			min:     min,
			max:     max,
			flavor:  mission.EmergencySupply(payload),
			preempt: cmd.Preempt,
		})
		if err != nil {
			return err
		}
		resp.Mission = launched
		resp.Dispatched = launched.Started
		resp.Reason = launched.Reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Log(shared.LevelInfo, "emergency supply evaluated", map[string]interface{}{
		"home":       cmd.HomeID,
		"target":     cmd.TargetID,
		"dispatched": resp.Dispatched,
		"reason":     resp.Reason,
	})
	return resp, nil
}
