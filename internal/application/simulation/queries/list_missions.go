package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// ListMissionsQuery lists missions known to the engine
type ListMissionsQuery struct {
	IncludeEnded bool
	SettlementID string // optional: only missions based at this settlement
}

// ListMissionsResponse holds mission snapshots in registration order
type ListMissionsResponse struct {
	Missions []mission.Snapshot
}

// ListMissionsHandler handles the ListMissions query
type ListMissionsHandler struct {
	engine *simulation.Engine
}

// NewListMissionsHandler creates a new list missions handler
func NewListMissionsHandler(engine *simulation.Engine) *ListMissionsHandler {
	return &ListMissionsHandler{engine: engine}
}

// Handle executes the list missions query
func (h *ListMissionsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListMissionsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListMissionsQuery")
	}

	resp := &ListMissionsResponse{}
	_ = h.engine.Exclusive(func(*world.Context) error {
		for _, m := range h.engine.Missions().All() {
			if m.IsDone() && !query.IncludeEnded {
				continue
			}
			if query.SettlementID != "" && m.Home().ID() != query.SettlementID {
				continue
			}
			resp.Missions = append(resp.Missions, m.Snapshot())
		}
		return nil
	})
	return resp, nil
}
