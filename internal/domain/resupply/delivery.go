package resupply

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/construction"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// EventProducer is the event queue name deliveries publish on
const EventProducer = "resupply"

// DefaultMaleRatio replaces a male ratio outside 0..1
const DefaultMaleRatio = 0.5

// DefaultFoundationWork is the work (millisols) a kit's foundation stage needs
const DefaultFoundationWork = 200.0

var equipmentNames = map[settlement.EquipmentType]string{
	settlement.EquipmentEVASuit:     "EVA Suit",
	settlement.EquipmentBag:         "Bag",
	settlement.EquipmentBarrel:      "Barrel",
	settlement.EquipmentGasCanister: "Gas Canister",
	settlement.EquipmentSpecimenBox: "Specimen Box",
	settlement.EquipmentTool:        "Tool",
}

// EquipmentName returns the base display name of an equipment type
func EquipmentName(t settlement.EquipmentType) string {
	if name, ok := equipmentNames[t]; ok {
		return name
	}
	return string(t)
}

var (
	maleNames   = []string{"Arun Patel", "Jonas Berg", "Kenji Sato", "Mateo Ruiz", "Oleg Ivanov", "Samuel Okafor"}
	femaleNames = []string{"Amara Osei", "Elena Petrova", "Ines Duarte", "Mei Lin", "Priya Nair", "Sofia Rossi"}
)

// DriverOptions tunes immigrant generation and kit delivery
type DriverOptions struct {
	MaleRatio      float64
	FoundationWork float64
}

// Report summarises what one delivery added
type Report struct {
	ResupplyID string
	Buildings  []string // in placement order
	Fallbacks  int      // buildings added at their template position
	Sites      []string
	Vehicles   []string
	Equipment  int
	Stored     map[settlement.ResourceType]float64
	Discarded  map[settlement.ResourceType]float64
	Parts      map[string]int
	Immigrants []string
	Structure  settlement.Structure
}

// DeliveryDriver lands resupplies.
//
// Business Rules:
// - Non-connector buildings are placed before connectors
// - A building the placer cannot fit is added at its template position
// - Resources are clipped to remaining storage; overflow is discarded
// - Parts are stored without clipping
// - Immigrants trigger a chain-of-command and shift rebuild
type DeliveryDriver struct {
	ctx    *world.Context
	placer Placer
	opts   DriverOptions
}

func NewDeliveryDriver(ctx *world.Context, placer Placer, opts DriverOptions) *DeliveryDriver {
	if opts.MaleRatio < 0 || opts.MaleRatio > 1 {
		opts.MaleRatio = DefaultMaleRatio
	}
	if opts.FoundationWork <= 0 {
		opts.FoundationWork = DefaultFoundationWork
	}
	return &DeliveryDriver{ctx: ctx, placer: placer, opts: opts}
}

// Apply delivers everything a resupply carries to its settlement
func (d *DeliveryDriver) Apply(r *Resupply) (*Report, error) {
	s, ok := d.ctx.Settlements.Get(r.SettlementID)
	if !ok {
		return nil, shared.NewValidationError("settlementID", fmt.Sprintf("unknown settlement %q", r.SettlementID))
	}
	ordered, err := orderTemplates(r.Buildings, s)
	if err != nil {
		return nil, err
	}
	if !r.markDelivered() {
		return nil, ErrAlreadyDelivered
	}

	report := &Report{
		ResupplyID: r.ID,
		Stored:     make(map[settlement.ResourceType]float64),
		Discarded:  make(map[settlement.ResourceType]float64),
		Parts:      make(map[string]int),
		Structure:  s.ChainOfCommand().Structure(),
	}

	placed := make(map[string]*settlement.Building)
	for _, t := range ordered {
		d.deliverBuilding(s, t, placed, report)
	}
	d.deliverVehicles(s, r.Vehicles, report)
	d.deliverEquipment(s, r.Equipment, report)
	d.deliverResources(s, r.Resources, report)
	for _, name := range sortedPartNames(r.Parts) {
		s.Inventory().StoreParts(name, r.Parts[name])
		report.Parts[name] = r.Parts[name]
	}
	if r.Immigrants > 0 {
		d.deliverImmigrants(s, r.Immigrants, report)
		d.rebuildGovernance(s, report)
	}

	d.ctx.Logger.Log(shared.LevelInfo, "resupply delivered", map[string]interface{}{
		"resupply":   r.Name,
		"settlement": s.Name(),
		"buildings":  len(report.Buildings),
		"fallbacks":  report.Fallbacks,
		"immigrants": len(report.Immigrants),
	})
	d.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeResupplyDelivered,
		Settlement: s.ID(),
		Message:    fmt.Sprintf("%s landed at %s", r.Name, s.Name()),
		Data: map[string]interface{}{
			"resupply":   r.ID,
			"buildings":  len(report.Buildings),
			"immigrants": len(report.Immigrants),
		},
	})
	return report, nil
}

// orderTemplates puts non-connectors first, keeping template order within each
// group, and checks that every connector endpoint will exist
func orderTemplates(templates []BuildingTemplate, s *settlement.Settlement) ([]BuildingTemplate, error) {
	ordered := make([]BuildingTemplate, len(templates))
	copy(ordered, templates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].Connector && ordered[j].Connector
	})

	known := make(map[string]bool)
	for _, b := range s.Buildings() {
		known[b.ID()] = true
	}
	for _, t := range ordered {
		if !t.Connector {
			if !t.Kit {
				known[t.ID] = true
			}
			continue
		}
		for _, end := range t.Endpoints {
			if !known[end] {
				return nil, shared.NewValidationError("endpoints",
					fmt.Sprintf("connector %s needs building %q placed first", t.ID, end))
			}
		}
	}
	return ordered, nil
}

func (d *DeliveryDriver) deliverBuilding(s *settlement.Settlement, t BuildingTemplate, placed map[string]*settlement.Building, report *Report) {
	if t.Connector {
		t = d.connectorTemplate(s, t, placed)
	}

	fp := t.Footprint()
	fallback := true
	if d.placer != nil {
		if p, ok := d.placer.TryPlace(fp, s); ok {
			fp = normalize(p, t.Type)
			fallback = false
		}
	}
	if fallback {
		report.Fallbacks++
		d.ctx.Logger.Log(shared.LevelDebug, "no placement found, using template position", map[string]interface{}{
			"type":       t.Type,
			"settlement": s.Name(),
		})
	}

	if t.Kit {
		site := construction.NewSite(uuid.New().String(), s.ID(), t.Type, fp.Position)
		_ = site.AddStage(construction.NewStage(construction.TierFoundation, "Foundation", d.opts.FoundationWork))
		s.AddConstructionSite(site)
		report.Sites = append(report.Sites, site.ID())
		return
	}

	spec, _ := settlement.LookupBuildingSpec(t.Type)
	id := t.ID
	if id == "" {
		id = uuid.New().String()
	}
	name := t.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", t.Type, len(s.Buildings())+1)
	}
	b := settlement.NewBuilding(settlement.BuildingParams{
		ID:           id,
		Name:         name,
		Type:         t.Type,
		SettlementID: s.ID(),
		Position:     fp.Position,
		Facing:       fp.Facing,
		Width:        fp.Width,
		Length:       fp.Length,
		Functions:    spec.Functions,
		Connector:    t.Connector,
		Endpoints:    t.Endpoints,
	})
	s.AddBuilding(b)
	placed[t.ID] = b
	report.Buildings = append(report.Buildings, b.ID())
}

// connectorTemplate recomputes a connector between its endpoints' final positions
func (d *DeliveryDriver) connectorTemplate(s *settlement.Settlement, t BuildingTemplate, placed map[string]*settlement.Building) BuildingTemplate {
	var ends [2]Anchor
	for i, id := range t.Endpoints {
		b, ok := placed[id]
		if !ok {
			b, _ = s.Building(id)
		}
		ends[i] = Anchor{ID: b.ID(), Position: b.Position()}
	}
	width := t.Width
	if width <= 0 {
		if spec, ok := settlement.LookupBuildingSpec(t.Type); ok {
			width = spec.Width
		}
	}
	c := ComputeConnector(t.ID, t.Type, ends[0], ends[1], width)
	c.Name = t.Name
	return c
}

func (d *DeliveryDriver) deliverVehicles(s *settlement.Settlement, names []string, report *Report) {
	for _, name := range names {
		vt := settlement.VehicleTypeFromName(name)
		spec, _ := settlement.LookupVehicleSpec(vt)
		v := settlement.NewVehicle(settlement.VehicleParams{
			ID:            uuid.New().String(),
			Name:          fmt.Sprintf("%s %d", name, len(s.Vehicles())+1),
			Type:          vt,
			Position:      s.Position(),
			CargoCapacity: spec.CargoCapacity,
			Range:         spec.Range,
			Speed:         spec.Speed,
			CrewCapacity:  spec.CrewCapacity,
			FuelEconomy:   spec.FuelEconomy,
		})
		s.AddVehicle(v)
		report.Vehicles = append(report.Vehicles, v.ID())
	}
}

func (d *DeliveryDriver) deliverEquipment(s *settlement.Settlement, equipment map[settlement.EquipmentType]int, report *Report) {
	types := make([]settlement.EquipmentType, 0, len(equipment))
	for t := range equipment {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		base := EquipmentName(t)
		for i := 0; i < equipment[t]; i++ {
			s.AddEquipment(uuid.New().String(), base, t)
			report.Equipment++
		}
	}
}

func (d *DeliveryDriver) deliverResources(s *settlement.Settlement, resources map[settlement.ResourceType]float64, report *Report) {
	types := make([]settlement.ResourceType, 0, len(resources))
	for r := range resources {
		types = append(types, r)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, r := range types {
		amount := resources[r]
		stored := s.Inventory().Store(r, amount)
		report.Stored[r] = stored
		if lost := amount - stored; lost > 1e-9 {
			report.Discarded[r] = lost
		}
	}
}

func (d *DeliveryDriver) deliverImmigrants(s *settlement.Settlement, n int, report *Report) {
	jobs := make(map[agent.Job]int)
	for _, p := range d.ctx.Actors.People(s.ID()) {
		jobs[p.Job()]++
	}
	home := entryBuilding(s)

	for i := 0; i < n; i++ {
		gender, pool := agent.GenderFemale, femaleNames
		if shared.Chance(d.ctx.Rand, d.opts.MaleRatio) {
			gender, pool = agent.GenderMale, maleNames
		}
		p := agent.NewPerson(uuid.New().String(), pool[d.ctx.Rand.Intn(len(pool))], gender, s.ID())
		p.SetPosition(s.Position())
		p.SetBuildingID(home)
		p.Preferences().SetFavoriteDish(agent.Dishes[d.ctx.Rand.Intn(len(agent.Dishes))])
		p.Preferences().SetFavoriteActivity(agent.AllActivities[d.ctx.Rand.Intn(len(agent.AllActivities))])

		job := leastStaffed(jobs)
		jobs[job]++
		p.SetJob(job)

		d.ctx.Actors.Add(p)
		s.AddResident(p.ID())
		report.Immigrants = append(report.Immigrants, p.ID())
	}
}

// leastStaffed picks the job with the fewest holders, earliest in the job list on ties
func leastStaffed(counts map[agent.Job]int) agent.Job {
	best := agent.PersonJobs[0]
	for _, j := range agent.PersonJobs[1:] {
		if counts[j] < counts[best] {
			best = j
		}
	}
	return best
}

func entryBuilding(s *settlement.Settlement) string {
	if bs := s.FindBuildingsByFunction(settlement.FunctionLiving); len(bs) > 0 {
		return bs[0].ID()
	}
	if bs := s.Buildings(); len(bs) > 0 {
		return bs[0].ID()
	}
	return ""
}

func (d *DeliveryDriver) rebuildGovernance(s *settlement.Settlement, report *Report) {
	people := d.ctx.Actors.People(s.ID())
	before := s.ChainOfCommand().Structure()
	after := s.ChainOfCommand().Rebuild(people)
	s.Shifts().Rebuild(people)
	report.Structure = after

	if after == before {
		return
	}
	d.ctx.Logger.Log(shared.LevelInfo, "chain of command restructured", map[string]interface{}{
		"settlement": s.Name(),
		"from":       string(before),
		"to":         string(after),
		"population": len(people),
	})
	d.ctx.Publish(EventProducer, event.Event{
		Type:       event.TypeGovernanceChanged,
		Settlement: s.ID(),
		Message:    fmt.Sprintf("%s now runs %s", s.Name(), after),
		Data:       map[string]interface{}{"from": string(before), "to": string(after)},
	})
}

func sortedPartNames(parts map[string]int) []string {
	out := make([]string, 0, len(parts))
	for name := range parts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
