package guard_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/guard"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

func kitchen(id string, slots int) *settlement.Building {
	return settlement.NewBuilding(settlement.BuildingParams{
		ID:        id,
		Type:      "Lander Hab",
		Functions: map[settlement.Function]int{settlement.FunctionCooking: slots},
	})
}

func TestFindAvailableBuilding_SkipsMalfunctioningAndFull(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})
	broken := kitchen("broken", 2)
	broken.SetMalfunction(true)
	full := kitchen("full", 1)
	require.NoError(t, full.AddOccupant(settlement.FunctionCooking, "someone"))
	open := kitchen("open", 2)
	s.AddBuilding(broken)
	s.AddBuilding(full)
	s.AddBuilding(open)

	cook := agent.NewPerson("p1", "Cook", agent.GenderMale, "s1")
	b, ok := guard.FindAvailableBuilding(shared.NewFixedRandom(0.9), cook, s, settlement.FunctionCooking, guard.BuildingConstraints{})

	require.True(t, ok)
	assert.Equal(t, "open", b.ID())
}

func TestFindAvailableBuilding_PrefersLeastCrowded(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})
	busy := kitchen("busy", 4)
	require.NoError(t, busy.AddOccupant(settlement.FunctionCooking, "a"))
	quiet := kitchen("quiet", 4)
	s.AddBuilding(busy)
	s.AddBuilding(quiet)

	b, ok := guard.FindAvailableBuilding(shared.NewFixedRandom(0), nil, s, settlement.FunctionCooking, guard.BuildingConstraints{})

	require.True(t, ok)
	assert.Equal(t, "quiet", b.ID())
}

func TestFindAvailableBuilding_RelationshipWeightsTheDraw(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})
	friends := kitchen("friends", 4)
	rivals := kitchen("rivals", 4)
	require.NoError(t, friends.AddOccupant(settlement.FunctionCooking, "friend"))
	require.NoError(t, rivals.AddOccupant(settlement.FunctionCooking, "rival"))
	s.AddBuilding(friends)
	s.AddBuilding(rivals)

	cook := agent.NewPerson("p1", "Cook", agent.GenderMale, "s1")
	cook.Relationships().Adjust("friend", 40) // 90
	cook.Relationships().Adjust("rival", -40) // 10

	// total weight 100: draws below 0.9 land on friends
	b, _ := guard.FindAvailableBuilding(shared.NewFixedRandom(0.85), cook, s, settlement.FunctionCooking, guard.BuildingConstraints{})
	assert.Equal(t, "friends", b.ID())
	b, _ = guard.FindAvailableBuilding(shared.NewFixedRandom(0.95), cook, s, settlement.FunctionCooking, guard.BuildingConstraints{})
	assert.Equal(t, "rivals", b.ID())
}

func TestFindAvailableBuilding_NoneAvailable(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})

	_, ok := guard.FindAvailableBuilding(shared.NewFixedRandom(), nil, s, settlement.FunctionCooking, guard.BuildingConstraints{})

	assert.False(t, ok)
}

// The guard does not reserve, so concurrent callers can all be handed the same
// single-slot kitchen. Occupancy is then settled by AddOccupant: one wins.
func TestFindAvailableBuilding_ConcurrentSelectionResolvedByOccupancy(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})
	s.AddBuilding(kitchen("k1", 1))
	rng := shared.NewSeededRandom(7)

	var wg sync.WaitGroup
	var mu sync.Mutex
	found, admitted := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cook := agent.NewPerson(fmt.Sprintf("p%d", i), "Cook", agent.GenderFemale, "s1")
			b, ok := guard.FindAvailableBuilding(rng, cook, s, settlement.FunctionCooking, guard.BuildingConstraints{})
			if !ok {
				return
			}
			err := b.AddOccupant(settlement.FunctionCooking, cook.ID())
			mu.Lock()
			defer mu.Unlock()
			found++
			if err == nil {
				admitted++
			}
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, found, 1)
	assert.Equal(t, 1, admitted)
}

func vehicle(id string, cargo, rng float64) *settlement.Vehicle {
	return settlement.NewVehicle(settlement.VehicleParams{
		ID: id, SettlementID: "s1", CargoCapacity: cargo, Range: rng, CrewCapacity: 4,
	})
}

func TestSelectVehicle_CargoThenRangeThenInputOrder(t *testing.T) {
	a := vehicle("a", 1000, 500)
	b := vehicle("b", 1000, 800)
	c := vehicle("c", 500, 5000)

	v, ok := guard.SelectVehicle([]*settlement.Vehicle{a, c, b}, guard.VehicleRequirements{})
	require.True(t, ok)
	assert.Equal(t, "b", v.ID(), "equal cargo, strictly greater range wins")

	twin1 := vehicle("twin1", 1000, 800)
	twin2 := vehicle("twin2", 1000, 800)
	for i := 0; i < 10; i++ {
		v, _ = guard.SelectVehicle([]*settlement.Vehicle{twin1, twin2}, guard.VehicleRequirements{})
		assert.Equal(t, "twin1", v.ID(), "full ties keep iteration order")
	}
}

func TestSelectVehicle_UsabilityFilter(t *testing.T) {
	broken := vehicle("broken", 9000, 9000)
	broken.SetMalfunction(true)
	taken := vehicle("taken", 8000, 9000)
	require.NoError(t, taken.Reserve("other-mission"))
	ours := vehicle("ours", 100, 100)
	require.NoError(t, ours.Reserve("m1"))
	short := vehicle("short", 5000, 10)

	v, ok := guard.SelectVehicle(
		[]*settlement.Vehicle{broken, taken, short, ours},
		guard.VehicleRequirements{MissionID: "m1", MinRange: 50},
	)

	require.True(t, ok)
	assert.Equal(t, "ours", v.ID())
}

func TestFindAvailableSuit(t *testing.T) {
	s := settlement.NewSettlement(settlement.Params{ID: "s1"})
	s.AddEquipment("e1", "EVA Suit", settlement.EquipmentEVASuit)
	s.AddEquipment("e2", "EVA Suit", settlement.EquipmentEVASuit)
	require.NoError(t, s.Suits()[0].Reserve("p1"))

	suit, ok := guard.FindAvailableSuit(s)
	require.True(t, ok)
	assert.Equal(t, "EVA Suit 002", suit.Name())

	require.NoError(t, suit.Reserve("p2"))
	_, ok = guard.FindAvailableSuit(s)
	assert.False(t, ok)
}
