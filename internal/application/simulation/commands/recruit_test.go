package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

func TestEligible_LeavesBusyActorsWorking(t *testing.T) {
	ctx := world.NewContext(shared.NewMasterClock(1, 100), shared.NewFixedRandom(0), nil)
	home := settlement.NewSettlement(settlement.Params{ID: "s1", Name: "Alpha Base", GeneralCapacity: 100})
	require.NoError(t, ctx.Settlements.Add(home))
	p := agent.NewPerson("p1", "Settler p1", agent.GenderFemale, home.ID())
	ctx.Actors.Add(p)
	work := task.NewIdle(ctx, p)
	require.NoError(t, p.AssignTask(work))

	assert.False(t, eligible(p, home, false))
	assert.True(t, eligible(p, home, true))
	assert.Len(t, candidates(ctx, home, 5, true), 1)
	assert.False(t, work.Ended(), "checking eligibility must not end work")

	release(p)

	assert.True(t, work.Ended())
	assert.Equal(t, releasedForMission, work.EndReason())
	assert.True(t, agent.IsIdle(p))
}
