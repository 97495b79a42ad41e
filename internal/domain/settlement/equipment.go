package settlement

import (
	"errors"
	"sync"
)

// EquipmentType classifies deliverable equipment
type EquipmentType string

const (
	EquipmentEVASuit     EquipmentType = "EVA_SUIT"
	EquipmentBag         EquipmentType = "BAG"
	EquipmentBarrel      EquipmentType = "BARREL"
	EquipmentGasCanister EquipmentType = "GAS_CANISTER"
	EquipmentSpecimenBox EquipmentType = "SPECIMEN_BOX"
	EquipmentTool        EquipmentType = "TOOL"
)

// containerCapacity is the kg one container holds
var containerCapacity = map[EquipmentType]float64{
	EquipmentBag:         50,
	EquipmentBarrel:      100,
	EquipmentGasCanister: 50,
}

// ContainerFor returns the container type that carries a resource of the given phase
func ContainerFor(p Phase) EquipmentType {
	switch p {
	case PhaseGas:
		return EquipmentGasCanister
	case PhaseLiquid:
		return EquipmentBarrel
	default:
		return EquipmentBag
	}
}

// ContainerCapacity returns the kg a container type holds, 0 for non-containers
func ContainerCapacity(t EquipmentType) float64 {
	return containerCapacity[t]
}

// Equipment is a uniquely named unit of equipment held by a settlement
type Equipment struct {
	id            string
	name          string
	equipmentType EquipmentType
}

func NewEquipment(id, name string, t EquipmentType) *Equipment {
	return &Equipment{id: id, name: name, equipmentType: t}
}

func (e *Equipment) ID() string          { return e.id }
func (e *Equipment) Name() string        { return e.name }
func (e *Equipment) Type() EquipmentType { return e.equipmentType }

// ErrSuitReserved is returned when reserving a suit already worn by another actor
var ErrSuitReserved = errors.New("EVA suit already reserved")

// EVASuit is a suit actors must reserve to go outside
type EVASuit struct {
	mu          sync.Mutex
	equipment   *Equipment
	reservedBy  string
	malfunction bool
}

func NewEVASuit(e *Equipment) *EVASuit {
	return &EVASuit{equipment: e}
}

func (s *EVASuit) ID() string   { return s.equipment.ID() }
func (s *EVASuit) Name() string { return s.equipment.Name() }

// Reserve hands the suit to an actor. Re-reserving by the wearer succeeds.
func (s *EVASuit) Reserve(actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reservedBy != "" && s.reservedBy != actorID {
		return ErrSuitReserved
	}
	s.reservedBy = actorID
	return nil
}

// Release returns the suit when held by actorID
func (s *EVASuit) Release(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reservedBy == actorID {
		s.reservedBy = ""
	}
}

func (s *EVASuit) ReservedBy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservedBy
}

func (s *EVASuit) IsReserved() bool {
	return s.ReservedBy() != ""
}

func (s *EVASuit) HasMalfunction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.malfunction
}

func (s *EVASuit) SetMalfunction(m bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malfunction = m
}
