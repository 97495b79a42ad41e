package scenario_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/adapters/scenario"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const alphaScenario = `
name: two settlements
start:
  sol: 3
  millisol: 120
settlements:
  - id: alpha
    name: Alpha Base
    capacity: 2000
    position: {x: 0, y: 0}
    buildings:
      - id: hab
        type: Lander Hab
      - id: lounge
        type: Lounge
        position: {x: 20, y: 0}
      - id: hall
        type: Hallway
        endpoints: [hab, lounge]
      - id: shed
        type: Storage Shed
        kit: true
        position: {x: -20, y: 0}
    vehicles:
      - id: rover-1
        type: Transport Rover
        fuel: 150
    equipment:
      eva suit: 2
      BARREL: 3
    resources:
      water: 400
      Potato: 50
    parts:
      wheel: 4
    people:
      - id: p1
        name: Ada Okafor
        gender: female
        job: chef
        favorite_activity: cooking
        skills: {cooking: 3}
      - id: p2
        name: Ben Ruiz
        gender: male
        job: driver
        building: lounge
    robots:
      - id: r1
        type: chefbot
  - id: beta
    name: Beta Outpost
    position: {x: 300, y: 40}
resupplies:
  - name: First shipment
    settlement: beta
    arrival: {sol: 4, millisol: 0}
    buildings:
      - type: Fitness Center
    vehicles: [Explorer Rover]
    equipment: {tool: 2}
    resources: {oxygen: 300}
    immigrants: 2
`

func TestParse_BuildsWorld(t *testing.T) {
	// Arrange
	f, err := scenario.Parse(strings.NewReader(alphaScenario))
	require.NoError(t, err)
	ctx := world.NewContext(shared.NewMasterClock(1, 0), shared.NewFixedRandom(0), nil)

	// Act
	result, err := f.Build(ctx, scenario.Defaults{CommandThreshold: 12, ThreeShiftThreshold: 40})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, shared.MarsTime{Sol: 3, Millisol: 120}, result.Start)

	alpha, ok := ctx.Settlements.Get("alpha")
	require.True(t, ok)
	assert.Len(t, alpha.Buildings(), 3)
	assert.Len(t, alpha.ConstructionSites(), 1)
	assert.Equal(t, 2, alpha.Population())
	assert.Equal(t, []string{"r1"}, alpha.Robots())
	assert.Equal(t, 2, alpha.EquipmentCount(settlement.EquipmentEVASuit))
	assert.Equal(t, 3, alpha.EquipmentCount(settlement.EquipmentBarrel))
	assert.Equal(t, 400.0, alpha.Inventory().Amount(settlement.ResourceWater))
	assert.Equal(t, 50.0, alpha.Inventory().Amount(settlement.ResourcePotato))
	assert.Equal(t, 4, alpha.Inventory().Parts("wheel"))

	hall, ok := alpha.Building("hall")
	require.True(t, ok)
	assert.Equal(t, shared.Coordinates{X: 10, Y: 0}, hall.Position())

	rover, ok := alpha.Vehicle("rover-1")
	require.True(t, ok)
	assert.Equal(t, settlement.VehicleTransportRover, rover.Type())
	assert.Equal(t, 150.0, rover.Inventory().Amount(settlement.ResourceMethane))

	a, ok := ctx.Actors.Get("p1")
	require.True(t, ok)
	ada := a.(*agent.Person)
	assert.Equal(t, agent.JobChef, ada.Job())
	assert.Equal(t, "hab", ada.BuildingID())
	assert.Equal(t, 3, ada.Skills().Level(agent.SkillCooking))
	assert.Equal(t, agent.ActivityCooking, ada.Preferences().FavoriteActivity())

	b, ok := ctx.Actors.Get("p2")
	require.True(t, ok)
	assert.Equal(t, "lounge", b.BuildingID())
	assert.Equal(t, agent.GenderMale, b.(*agent.Person).Gender())

	_, hasRole := alpha.ChainOfCommand().RoleOf("p1")
	assert.True(t, hasRole)

	require.Len(t, result.Resupplies, 1)
	r := result.Resupplies[0]
	assert.Equal(t, "beta", r.SettlementID)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, shared.MarsTime{Sol: 4, Millisol: 0}, r.ArrivalTime)
	require.Len(t, r.Buildings, 1)
	assert.Equal(t, 8.0, r.Buildings[0].Width)
	assert.Equal(t, 2, r.Equipment[settlement.EquipmentTool])
	assert.Equal(t, 300.0, r.Resources[settlement.ResourceOxygen])
	assert.Equal(t, 2, r.Immigrants)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "empty document",
			doc:     "",
			wantErr: "empty",
		},
		{
			name:    "no settlements",
			doc:     "name: nothing\n",
			wantErr: "Settlements",
		},
		{
			name:    "unknown field",
			doc:     "settlements:\n  - id: a\n    name: A\n    colour: red\n",
			wantErr: "colour",
		},
		{
			name:    "missing name",
			doc:     "settlements:\n  - id: a\n",
			wantErr: "Name",
		},
		{
			name:    "duplicate ids",
			doc:     "settlements:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
			wantErr: "duplicate settlement",
		},
		{
			name:    "resupply to unknown settlement",
			doc:     "settlements:\n  - {id: a, name: A}\nresupplies:\n  - {name: R, settlement: z}\n",
			wantErr: "unknown settlement",
		},
		{
			name:    "negative resource",
			doc:     "settlements:\n  - id: a\n    name: A\n    resources: {water: -1}\n",
			wantErr: "gte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"building type", "settlements:\n  - id: a\n    name: A\n    buildings: [{type: Castle}]\n", "unknown building type"},
		{"job", "settlements:\n  - id: a\n    name: A\n    people: [{name: X, job: pirate}]\n", "unknown job"},
		{"robot", "settlements:\n  - id: a\n    name: A\n    robots: [{type: t800}]\n", "unknown robot type"},
		{"equipment", "settlements:\n  - id: a\n    name: A\n    equipment: {jetpack: 1}\n", "unknown equipment"},
		{"connector endpoint", "settlements:\n  - id: a\n    name: A\n    buildings: [{type: Hallway, endpoints: [x, y]}]\n", "not a building"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := scenario.Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)
			ctx := world.NewContext(nil, nil, nil)

			_, err = f.Build(ctx, scenario.Defaults{})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(alphaScenario), 0o600))

	f, err := scenario.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "two settlements", f.Name)
	assert.Len(t, f.Settlements, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := scenario.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
