package queries

import (
	"context"
	"fmt"
	"sort"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// GetSettlementReportQuery asks for the state of one settlement
type GetSettlementReportQuery struct {
	SettlementID string
}

// ResidentSummary is one settler line of a report
type ResidentSummary struct {
	ID        string
	Name      string
	Job       agent.Job
	Role      agent.Role
	Shift     string
	Task      string
	MissionID string
}

// SettlementReport is the result of GetSettlementReportQuery
type SettlementReport struct {
	ID                string
	Name              string
	Time              shared.MarsTime
	Population        int
	Robots            int
	Structure         settlement.Structure
	Shifts            []string
	Residents         []ResidentSummary
	Resources         map[settlement.ResourceType]float64
	Buildings         int
	Vehicles          []string
	ParkedVehicles    int
	Equipment         map[settlement.EquipmentType]int
	ConstructionSites int
	MealsCooked       int
	Tasks             map[string]int
}

// GetSettlementReportHandler builds settlement reports
type GetSettlementReportHandler struct {
	engine *simulation.Engine
}

// NewGetSettlementReportHandler creates a new settlement report handler
func NewGetSettlementReportHandler(engine *simulation.Engine) *GetSettlementReportHandler {
	return &GetSettlementReportHandler{engine: engine}
}

// Handle executes the settlement report query
func (h *GetSettlementReportHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetSettlementReportQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetSettlementReportQuery")
	}
	if query.SettlementID == "" {
		return nil, fmt.Errorf("settlement_id is required")
	}

	var report *SettlementReport
	err := h.engine.Exclusive(func(w *world.Context) error {
		s, ok := w.Settlements.Get(query.SettlementID)
		if !ok {
			return shared.NewValidationError("settlementID", fmt.Sprintf("unknown settlement %q", query.SettlementID))
		}
		report = buildReport(w, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildReport(w *world.Context, s *settlement.Settlement) *SettlementReport {
	r := &SettlementReport{
		ID:                s.ID(),
		Name:              s.Name(),
		Time:              w.Clock.Now(),
		Population:        s.Population(),
		Robots:            len(s.Robots()),
		Structure:         s.ChainOfCommand().Structure(),
		Resources:         make(map[settlement.ResourceType]float64),
		Buildings:         len(s.Buildings()),
		ParkedVehicles:    len(s.ParkedVehicles()),
		Equipment:         make(map[settlement.EquipmentType]int),
		ConstructionSites: len(s.ConstructionSites()),
		Tasks:             make(map[string]int),
	}
	for _, shift := range s.Shifts().Shifts() {
		r.Shifts = append(r.Shifts, shift.Label)
	}
	inv := s.Inventory()
	for _, res := range inv.Resources() {
		r.Resources[res] = inv.Amount(res)
	}
	for _, v := range s.Vehicles() {
		r.Vehicles = append(r.Vehicles, v.Name())
	}
	for _, e := range s.Equipment() {
		r.Equipment[e.Type()]++
	}
	for _, b := range s.Buildings() {
		if k := b.Kitchen(); k != nil {
			r.MealsCooked += k.TotalCooked()
		}
	}

	for _, p := range w.Actors.People(s.ID()) {
		line := ResidentSummary{
			ID:        p.ID(),
			Name:      p.Name(),
			Job:       p.Job(),
			Shift:     s.Shifts().ShiftOf(p.ID()),
			MissionID: p.MissionID(),
		}
		if role, ok := s.ChainOfCommand().RoleOf(p.ID()); ok {
			line.Role = role
		}
		if t := p.CurrentTask(); t != nil && !t.Ended() {
			line.Task = t.Name()
			r.Tasks[t.Name()]++
		}
		r.Residents = append(r.Residents, line)
	}
	sort.Slice(r.Residents, func(i, j int) bool { return r.Residents[i].ID < r.Residents[j].ID })
	return r
}
