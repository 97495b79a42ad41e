package commands

import (
	"fmt"

	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// ReasonNoCrew is reported when nobody at home can start a mission
const ReasonNoCrew = "no settler available to start the mission"

const releasedForMission = "released for mission"

// MissionDefaults fills member limits a command leaves unset
type MissionDefaults struct {
	MinMembers int
	MaxMembers int
}

func (d MissionDefaults) limits(min, max int) (int, int) {
	if min <= 0 {
		min = d.MinMembers
	}
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = d.MaxMembers
	}
	if max < min {
		max = min
	}
	return min, max
}

// StartMissionResponse describes a mission after launch. A mission that could
// not start is still returned, with Started false and the reason.
type StartMissionResponse struct {
	MissionID string
	Name      string
	Started   bool
	Phase     mission.Phase
	Members   []string
	VehicleID string
	Reason    string
}

type launch struct {
	name      string
	home      *settlement.Settlement
	dest      *settlement.Settlement
	starterID string
	min       int
	max       int
	flavor    mission.Flavor
	tow       *settlement.Vehicle
	preempt   bool
}

// launchMission recruits a crew at home, starts the mission and hands it to the engine
func launchMission(engine *simulation.Engine, ctx *world.Context, l launch) (*StartMissionResponse, error) {
	starter, err := pickStarter(ctx, l.home, l.starterID, l.preempt)
	if err != nil {
		return nil, err
	}
	if starter == nil {
		return &StartMissionResponse{Reason: ReasonNoCrew}, nil
	}
	release(starter)

	m, err := mission.New(ctx, mission.Params{
		Name:        l.name,
		Starter:     starter,
		Home:        l.home,
		Destination: l.dest,
		MinMembers:  l.min,
		MaxMembers:  l.max,
		Flavor:      l.flavor,
		Tow:         l.tow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}
	crew := candidates(ctx, l.home, l.max-1, l.preempt)
	for _, a := range crew {
		release(a)
	}
	m.Recruit(crew...)

	if err := m.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mission: %w", err)
	}
	engine.AddMission(m)

	snap := m.Snapshot()
	return &StartMissionResponse{
		MissionID: snap.ID,
		Name:      snap.Name,
		Started:   !snap.Done,
		Phase:     snap.Phase,
		Members:   snap.Members,
		VehicleID: snap.VehicleID,
		Reason:    snap.Reason,
	}, nil
}

// eligible reports whether an actor may join a mission from home. With preempt
// a busy actor still qualifies.
func eligible(a agent.Actor, home *settlement.Settlement, preempt bool) bool {
	if !agent.IsAvailable(a) || a.MissionID() != "" {
		return false
	}
	if a.SettlementID() != home.ID() || a.Situation() != agent.SituationInSettlement {
		return false
	}
	return preempt || agent.IsIdle(a)
}

// release ends whatever a recruit is doing so the mission can take them
func release(a agent.Actor) {
	if w, ok := a.CurrentTask().(interface{ End(string) }); ok && !agent.IsIdle(a) {
		w.End(releasedForMission)
	}
}

// candidates returns up to limit eligible actors at home, in registration order
func candidates(ctx *world.Context, home *settlement.Settlement, limit int, preempt bool) []agent.Actor {
	var out []agent.Actor
	for _, a := range ctx.Actors.InSettlement(home.ID()) {
		if len(out) >= limit {
			break
		}
		if eligible(a, home, preempt) {
			out = append(out, a)
		}
	}
	return out
}

// pickStarter returns the requested starter, or the first eligible actor when none is named
func pickStarter(ctx *world.Context, home *settlement.Settlement, starterID string, preempt bool) (agent.Actor, error) {
	if starterID == "" {
		pool := candidates(ctx, home, 1, preempt)
		if len(pool) == 0 {
			return nil, nil
		}
		return pool[0], nil
	}
	a, ok := ctx.Actors.Get(starterID)
	if !ok {
		return nil, shared.NewValidationError("starterID", fmt.Sprintf("unknown actor %q", starterID))
	}
	if !eligible(a, home, preempt) {
		return nil, shared.NewValidationError("starterID", fmt.Sprintf("actor %q is busy or away", starterID))
	}
	return a, nil
}

func lookupSettlement(ctx *world.Context, field, id string) (*settlement.Settlement, error) {
	s, ok := ctx.Settlements.Get(id)
	if !ok {
		return nil, shared.NewValidationError(field, fmt.Sprintf("unknown settlement %q", id))
	}
	return s, nil
}
