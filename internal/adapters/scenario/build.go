package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/construction"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// Defaults fill settlement fields a scenario leaves at zero
type Defaults struct {
	CommandThreshold    int
	ThreeShiftThreshold int
	FoundationWork      float64
}

// Result is what Build adds to the world besides the registries
type Result struct {
	Start      shared.MarsTime
	Resupplies []*resupply.Resupply
}

// Build populates ctx with the scenario's settlements and actors and returns the
// resupplies for the caller to schedule. A failed build leaves ctx partially filled.
func (f *File) Build(ctx *world.Context, defaults Defaults) (*Result, error) {
	if defaults.FoundationWork <= 0 {
		defaults.FoundationWork = resupply.DefaultFoundationWork
	}

	for _, spec := range f.Settlements {
		if err := buildSettlement(ctx, spec, defaults); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", spec.ID, err)
		}
	}

	result := &Result{Start: f.Start.MarsTime()}
	for _, spec := range f.Resupplies {
		r, err := buildResupply(spec)
		if err != nil {
			return nil, fmt.Errorf("resupply %s: %w", spec.Name, err)
		}
		result.Resupplies = append(result.Resupplies, r)
	}
	return result, nil
}

func buildSettlement(ctx *world.Context, spec SettlementSpec, defaults Defaults) error {
	params := settlement.Params{
		ID:                  spec.ID,
		Name:                spec.Name,
		Position:            spec.Position,
		GeneralCapacity:     spec.Capacity,
		CommandThreshold:    spec.CommandThreshold,
		ThreeShiftThreshold: spec.ThreeShiftThreshold,
	}
	if params.CommandThreshold == 0 {
		params.CommandThreshold = defaults.CommandThreshold
	}
	if params.ThreeShiftThreshold == 0 {
		params.ThreeShiftThreshold = defaults.ThreeShiftThreshold
	}
	s := settlement.NewSettlement(params)
	if err := ctx.Settlements.Add(s); err != nil {
		return err
	}

	for _, b := range spec.Buildings {
		if err := addBuilding(s, b, defaults); err != nil {
			return err
		}
	}

	for _, v := range spec.Vehicles {
		vehicle := newVehicle(s, v.ID, v.Name, v.Type)
		if v.Fuel > 0 {
			vehicle.Inventory().Store(settlement.ResourceMethane, v.Fuel)
		}
		s.AddVehicle(vehicle)
	}

	equipment, err := equipmentTypes(spec.Equipment)
	if err != nil {
		return err
	}
	for _, t := range sortedEquipment(equipment) {
		for i := 0; i < equipment[t]; i++ {
			s.AddEquipment(uuid.New().String(), resupply.EquipmentName(t), t)
		}
	}

	for _, r := range sortedKeys(spec.Resources) {
		s.Inventory().Store(resourceType(r), spec.Resources[r])
	}
	for _, name := range sortedKeys(spec.Parts) {
		s.Inventory().StoreParts(name, spec.Parts[name])
	}

	for _, p := range spec.People {
		person, err := newPerson(s, p)
		if err != nil {
			return err
		}
		ctx.Actors.Add(person)
		s.AddResident(person.ID())
	}

	for _, r := range spec.Robots {
		robot, err := newRobot(s, r)
		if err != nil {
			return err
		}
		ctx.Actors.Add(robot)
		s.AddRobot(robot.ID())
	}

	people := ctx.Actors.People(s.ID())
	s.ChainOfCommand().Rebuild(people)
	s.Shifts().Rebuild(people)
	return nil
}

func addBuilding(s *settlement.Settlement, spec BuildingSpec, defaults Defaults) error {
	typeSpec, ok := settlement.LookupBuildingSpec(spec.Type)
	if !ok {
		return fmt.Errorf("unknown building type %q", spec.Type)
	}

	fp := resupply.Footprint{Position: spec.Position, Facing: spec.Facing, Width: spec.Width, Length: spec.Length}
	if fp.Width == 0 {
		fp.Width = typeSpec.Width
	}
	if fp.Length == 0 {
		fp.Length = typeSpec.Length
	}

	var endpoints [2]string
	if typeSpec.Connector {
		if len(spec.Endpoints) != 2 {
			return fmt.Errorf("connector %q needs two endpoints", spec.Type)
		}
		var anchors [2]resupply.Anchor
		for i, id := range spec.Endpoints {
			b, ok := s.Building(id)
			if !ok {
				return fmt.Errorf("connector endpoint %q is not a building", id)
			}
			anchors[i] = resupply.Anchor{ID: b.ID(), Position: b.Position()}
			endpoints[i] = b.ID()
		}
		c := resupply.ComputeConnector(spec.ID, spec.Type, anchors[0], anchors[1], fp.Width)
		fp = c.Footprint()
	}

	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}

	if spec.Kit {
		site := construction.NewSite(id, s.ID(), spec.Type, fp.Position)
		if err := site.AddStage(construction.NewStage(construction.TierFoundation, "Foundation", defaults.FoundationWork)); err != nil {
			return err
		}
		s.AddConstructionSite(site)
		return nil
	}

	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", spec.Type, len(s.Buildings())+1)
	}
	s.AddBuilding(settlement.NewBuilding(settlement.BuildingParams{
		ID:           id,
		Name:         name,
		Type:         spec.Type,
		SettlementID: s.ID(),
		Position:     fp.Position,
		Facing:       fp.Facing,
		Width:        fp.Width,
		Length:       fp.Length,
		Functions:    typeSpec.Functions,
		Connector:    typeSpec.Connector,
		Endpoints:    endpoints,
	}))
	return nil
}

func newVehicle(s *settlement.Settlement, id, name, templateName string) *settlement.Vehicle {
	vt := settlement.VehicleTypeFromName(templateName)
	spec, _ := settlement.LookupVehicleSpec(vt)
	if id == "" {
		id = uuid.New().String()
	}
	if name == "" {
		name = fmt.Sprintf("%s %d", templateName, len(s.Vehicles())+1)
	}
	return settlement.NewVehicle(settlement.VehicleParams{
		ID:            id,
		Name:          name,
		Type:          vt,
		Position:      s.Position(),
		CargoCapacity: spec.CargoCapacity,
		Range:         spec.Range,
		Speed:         spec.Speed,
		CrewCapacity:  spec.CrewCapacity,
		FuelEconomy:   spec.FuelEconomy,
	})
}

func newPerson(s *settlement.Settlement, spec PersonSpec) (*agent.Person, error) {
	gender := agent.GenderFemale
	if strings.EqualFold(spec.Gender, string(agent.GenderMale)) {
		gender = agent.GenderMale
	}
	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}
	p := agent.NewPerson(id, spec.Name, gender, s.ID())
	p.SetPosition(s.Position())

	building := spec.Building
	if building == "" {
		if living := s.FindBuildingsByFunction(settlement.FunctionLiving); len(living) > 0 {
			building = living[0].ID()
		}
	} else if _, ok := s.Building(building); !ok {
		return nil, fmt.Errorf("person %s: unknown building %q", spec.Name, building)
	}
	p.SetBuildingID(building)

	if spec.Job != "" {
		job := agent.Job(enumName(spec.Job))
		if !knownJob(job) {
			return nil, fmt.Errorf("person %s: unknown job %q", spec.Name, spec.Job)
		}
		p.SetJob(job)
	}
	if spec.FavoriteActivity != "" {
		activity := agent.Activity(enumName(spec.FavoriteActivity))
		if !knownActivity(activity) {
			return nil, fmt.Errorf("person %s: unknown activity %q", spec.Name, spec.FavoriteActivity)
		}
		p.Preferences().SetFavoriteActivity(activity)
	}
	if spec.FavoriteDish != "" {
		p.Preferences().SetFavoriteDish(spec.FavoriteDish)
	}
	for _, skill := range sortedKeys(spec.Skills) {
		p.Skills().SetLevel(agent.SkillType(enumName(skill)), spec.Skills[skill])
	}
	return p, nil
}

func newRobot(s *settlement.Settlement, spec RobotSpec) (*agent.Robot, error) {
	rt := agent.RobotType(strings.ToUpper(spec.Type))
	model, ok := robotModels[rt]
	if !ok {
		return nil, fmt.Errorf("unknown robot type %q", spec.Type)
	}
	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", model, len(s.Robots())+1)
	}
	r := agent.NewRobot(id, name, rt, s.ID())
	r.SetPosition(s.Position())
	return r, nil
}

func buildResupply(spec ResupplySpec) (*resupply.Resupply, error) {
	equipment, err := equipmentTypes(spec.Equipment)
	if err != nil {
		return nil, err
	}

	r := &resupply.Resupply{
		ID:           spec.ID,
		Name:         spec.Name,
		SettlementID: spec.Settlement,
		ArrivalTime:  spec.Arrival.MarsTime(),
		Vehicles:     spec.Vehicles,
		Equipment:    equipment,
		Resources:    make(map[settlement.ResourceType]float64, len(spec.Resources)),
		Parts:        spec.Parts,
		Immigrants:   spec.Immigrants,
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Name == "" {
		r.Name = "Resupply " + r.ArrivalTime.String()
	}
	for name, amount := range spec.Resources {
		r.Resources[resourceType(name)] += amount
	}

	for _, b := range spec.Buildings {
		typeSpec, ok := settlement.LookupBuildingSpec(b.Type)
		if !ok {
			return nil, fmt.Errorf("unknown building type %q", b.Type)
		}
		t := resupply.BuildingTemplate{
			ID:        b.ID,
			Name:      b.Name,
			Type:      b.Type,
			Position:  b.Position,
			Facing:    b.Facing,
			Width:     b.Width,
			Length:    b.Length,
			Connector: typeSpec.Connector,
			Kit:       b.Kit,
		}
		if t.Width == 0 {
			t.Width = typeSpec.Width
		}
		if t.Length == 0 {
			t.Length = typeSpec.Length
		}
		if t.Connector {
			if len(b.Endpoints) != 2 {
				return nil, fmt.Errorf("connector %q needs two endpoints", b.Type)
			}
			t.Endpoints = [2]string{b.Endpoints[0], b.Endpoints[1]}
		}
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		r.Buildings = append(r.Buildings, t)
	}
	return r, nil
}

var robotModels = map[agent.RobotType]string{
	agent.RobotChefBot:         "ChefBot",
	agent.RobotDeliveryBot:     "DeliveryBot",
	agent.RobotRepairBot:       "RepairBot",
	agent.RobotGardenBot:       "GardenBot",
	agent.RobotConstructionBot: "ConstructionBot",
}

// enumName turns "field work" or "Field_Work" into "FIELD_WORK"
func enumName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func resourceType(name string) settlement.ResourceType {
	return settlement.ResourceType(enumName(name))
}

func equipmentTypes(in map[string]int) (map[settlement.EquipmentType]int, error) {
	out := make(map[settlement.EquipmentType]int, len(in))
	for name, n := range in {
		t := settlement.EquipmentType(enumName(name))
		switch t {
		case settlement.EquipmentEVASuit, settlement.EquipmentBag, settlement.EquipmentBarrel,
			settlement.EquipmentGasCanister, settlement.EquipmentSpecimenBox, settlement.EquipmentTool:
		default:
			return nil, fmt.Errorf("unknown equipment type %q", name)
		}
		out[t] += n
	}
	return out, nil
}

func sortedEquipment(m map[settlement.EquipmentType]int) []settlement.EquipmentType {
	out := make([]settlement.EquipmentType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func knownJob(j agent.Job) bool {
	for _, known := range agent.PersonJobs {
		if j == known {
			return true
		}
	}
	return false
}

func knownActivity(a agent.Activity) bool {
	for _, known := range agent.AllActivities {
		if a == known {
			return true
		}
	}
	return false
}
