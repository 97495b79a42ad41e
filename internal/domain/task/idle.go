package task

import (
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	IdleName = "Idle"

	PhaseIdling Phase = "IDLING"

	// idleDuration is how long an idle actor waits before selection runs again
	idleDuration = 10.0
)

// Idle is the no-op task handed out when no meta-task has any weight
type Idle struct {
	*Task
	waited float64
}

func NewIdle(ctx *world.Context, a agent.Actor) *Idle {
	t := &Idle{Task: NewTask(ctx, a, IdleName)}
	t.AddPhase(PhaseIdling, t.idling)
	_ = t.SetPhase(PhaseIdling)
	return t
}

func (t *Idle) idling(budget float64) Outcome {
	use := math.Min(budget, idleDuration-t.waited)
	t.waited += use
	t.SetCounter("waited", t.waited)
	if t.waited >= idleDuration {
		t.End("idle period over")
	}
	return Suspend(use)
}

// settlementOf returns the settlement an actor is currently inside
func settlementOf(ctx *world.Context, a agent.Actor) (*settlement.Settlement, bool) {
	if a.Situation() != agent.SituationInSettlement {
		return nil, false
	}
	return ctx.Settlements.Get(a.SettlementID())
}
