package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

type stubWork struct {
	name  string
	ended bool
}

func (w *stubWork) Name() string { return w.name }
func (w *stubWork) Ended() bool  { return w.ended }

func TestSkillMultiplier_MonotonicWithHalfRateUntrained(t *testing.T) {
	assert.Equal(t, 0.5, agent.SkillMultiplier(0))
	assert.Equal(t, 1.0, agent.SkillMultiplier(1))
	assert.InDelta(t, 1.4, agent.SkillMultiplier(2), 1e-9)

	prev := agent.SkillMultiplier(0)
	for level := 1; level <= 10; level++ {
		m := agent.SkillMultiplier(level)
		assert.Greater(t, m, prev, "level %d", level)
		prev = m
	}
}

func TestSkills_AddExperienceLevelsUp(t *testing.T) {
	s := agent.NewSkills()

	gained := s.AddExperience(agent.SkillCooking, 99)
	assert.Equal(t, 0, gained)
	assert.Equal(t, 0, s.Level(agent.SkillCooking))

	gained = s.AddExperience(agent.SkillCooking, 1+200)
	assert.Equal(t, 2, gained)
	assert.Equal(t, 2, s.Level(agent.SkillCooking))
	assert.InDelta(t, 0, s.Experience(agent.SkillCooking), 1e-9)
}

func TestActor_SingleActiveTask(t *testing.T) {
	p := agent.NewPerson("p1", "Ada", agent.GenderFemale, "s1")

	first := &stubWork{name: "Cook Meal"}
	require.NoError(t, p.AssignTask(first))

	err := p.AssignTask(&stubWork{name: "Relax"})
	var busy *shared.ActorBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, "Cook Meal", busy.CurrentTask)

	first.ended = true
	assert.True(t, agent.IsIdle(p))
	require.NoError(t, p.AssignTask(&stubWork{name: "Relax"}))
	assert.Equal(t, "Relax", p.CurrentTask().Name())
}

func TestActor_SingleMission(t *testing.T) {
	r := agent.NewRobot("r1", "ChefBot 001", agent.RobotChefBot, "s1")

	require.NoError(t, r.JoinMission("m1"))
	require.NoError(t, r.JoinMission("m1"), "rejoining the same mission is a no-op")

	var membership *shared.MissionMembershipError
	require.ErrorAs(t, r.JoinMission("m2"), &membership)
	assert.Equal(t, "m1", membership.CurrentMission)

	r.LeaveMission()
	require.NoError(t, r.JoinMission("m2"))
}

func TestRobot_JobAndSkillFromType(t *testing.T) {
	r := agent.NewRobot("r1", "ChefBot 001", agent.RobotChefBot, "s1")

	assert.Equal(t, agent.KindRobot, r.Kind())
	assert.Equal(t, agent.JobChef, r.Job())
	assert.Equal(t, 1, r.Skills().Level(agent.SkillCooking))
}

func TestCondition_PerformanceDropsWithStressAndFatigue(t *testing.T) {
	c := agent.NewCondition()
	assert.Equal(t, 1.0, c.Performance())

	c.AddStress(75)
	assert.InDelta(t, 0.75, c.Performance(), 1e-9)

	c.AddFatigue(2000)
	assert.Equal(t, agent.MaxFatigue, c.Fatigue())
	assert.InDelta(t, 0.25, c.Performance(), 1e-9)

	c.AddStress(-500)
	assert.Equal(t, 0.0, c.Stress())
}

func TestPreferences_ReinforceIsBounded(t *testing.T) {
	p := agent.NewPreferences()
	for i := 0; i < 20; i++ {
		p.Reinforce("Cook Meal", 1)
	}
	assert.Equal(t, agent.MaxPreferenceBonus, p.Bonus("Cook Meal"))
	assert.Equal(t, 0.0, p.Bonus("Relax"))
}

func TestRelationships_AverageDefaultsToNeutral(t *testing.T) {
	r := agent.NewRelationships()
	assert.Equal(t, agent.NeutralOpinion, r.Average(nil))

	r.Adjust("b", 30)
	r.Adjust("c", -70)
	assert.InDelta(t, (80.0+0.0)/2, r.Average([]string{"b", "c"}), 1e-9)
}
