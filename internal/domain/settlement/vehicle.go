package settlement

import (
	"errors"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// VehicleType is the vehicle subtype
type VehicleType string

const (
	VehicleExplorerRover  VehicleType = "EXPLORER_ROVER"
	VehicleTransportRover VehicleType = "TRANSPORT_ROVER"
	VehicleCargoRover     VehicleType = "CARGO_ROVER"
	VehicleLUV            VehicleType = "LIGHT_UTILITY_VEHICLE"
	VehicleDeliveryDrone  VehicleType = "DELIVERY_DRONE"
)

var (
	// ErrVehicleReserved is returned when reserving a vehicle already held by another mission
	ErrVehicleReserved = errors.New("vehicle already reserved")

	// ErrVehicleFull is returned when boarding a vehicle with no free crew seat
	ErrVehicleFull = errors.New("vehicle crew capacity reached")
)

// Vehicle is a rover or drone usable by missions.
//
// Business Rules:
// - A vehicle is reserved by at most one mission at a time
// - A vehicle tows at most one other vehicle
// - Fuel (methane) is carried in the vehicle inventory
type Vehicle struct {
	mu sync.RWMutex

	id          string
	name        string
	vehicleType VehicleType

	settlementID string // parked settlement, empty while travelling
	position     shared.Coordinates

	cargoCapacity float64 // kg
	rangeKM       float64 // base range with full tank
	speed         float64 // km per millisol
	crewCapacity  int
	fuelEconomy   float64 // km per kg methane

	inventory *Inventory
	equipment []*Equipment
	crew      []string

	reservedBy  string
	towing      *Vehicle
	towedBy     string
	malfunction bool
	odometer    float64
}

// VehicleParams describes a vehicle at creation time
type VehicleParams struct {
	ID            string
	Name          string
	Type          VehicleType
	SettlementID  string
	Position      shared.Coordinates
	CargoCapacity float64
	Range         float64
	Speed         float64
	CrewCapacity  int
	FuelEconomy   float64
}

func NewVehicle(p VehicleParams) *Vehicle {
	return &Vehicle{
		id:            p.ID,
		name:          p.Name,
		vehicleType:   p.Type,
		settlementID:  p.SettlementID,
		position:      p.Position,
		cargoCapacity: p.CargoCapacity,
		rangeKM:       p.Range,
		speed:         p.Speed,
		crewCapacity:  p.CrewCapacity,
		fuelEconomy:   p.FuelEconomy,
		inventory:     NewInventory(p.CargoCapacity),
	}
}

// Getters

func (v *Vehicle) ID() string             { return v.id }
func (v *Vehicle) Name() string           { return v.name }
func (v *Vehicle) Type() VehicleType      { return v.vehicleType }
func (v *Vehicle) CargoCapacity() float64 { return v.cargoCapacity }
func (v *Vehicle) Range() float64         { return v.rangeKM }
func (v *Vehicle) Speed() float64         { return v.speed }
func (v *Vehicle) CrewCapacity() int      { return v.crewCapacity }
func (v *Vehicle) FuelEconomy() float64   { return v.fuelEconomy }
func (v *Vehicle) Inventory() *Inventory  { return v.inventory }

func (v *Vehicle) SettlementID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.settlementID
}

// Park associates the vehicle with a settlement; an empty id marks it as travelling
func (v *Vehicle) Park(settlementID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settlementID = settlementID
}

func (v *Vehicle) Position() shared.Coordinates {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.position
}

func (v *Vehicle) SetPosition(c shared.Coordinates) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position = c
	if v.towing != nil {
		v.towing.SetPosition(c)
	}
}

func (v *Vehicle) Odometer() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.odometer
}

// Reserve marks the vehicle as held by a mission. Re-reserving by the holder succeeds.
func (v *Vehicle) Reserve(missionID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reservedBy != "" && v.reservedBy != missionID {
		return ErrVehicleReserved
	}
	v.reservedBy = missionID
	return nil
}

// Release drops the reservation when held by missionID
func (v *Vehicle) Release(missionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reservedBy == missionID {
		v.reservedBy = ""
	}
}

func (v *Vehicle) ReservedBy() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reservedBy
}

func (v *Vehicle) IsReserved() bool {
	return v.ReservedBy() != ""
}

func (v *Vehicle) HasMalfunction() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.malfunction
}

func (v *Vehicle) SetMalfunction(m bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.malfunction = m
}

// Tow hitches another vehicle behind this one
func (v *Vehicle) Tow(other *Vehicle) error {
	if other == nil || other == v {
		return errors.New("invalid tow target")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.towing != nil {
		return errors.New("already towing a vehicle")
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	if other.towedBy != "" {
		return errors.New("vehicle is already being towed")
	}
	other.towedBy = v.id
	v.towing = other
	return nil
}

// ReleaseTow unhitches any towed vehicle and returns it
func (v *Vehicle) ReleaseTow() *Vehicle {
	v.mu.Lock()
	defer v.mu.Unlock()
	towed := v.towing
	if towed == nil {
		return nil
	}
	towed.mu.Lock()
	towed.towedBy = ""
	towed.mu.Unlock()
	v.towing = nil
	return towed
}

func (v *Vehicle) Towing() *Vehicle {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.towing
}

func (v *Vehicle) TowedBy() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.towedBy
}

// Board seats an actor in the vehicle
func (v *Vehicle) Board(actorID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range v.crew {
		if id == actorID {
			return nil
		}
	}
	if len(v.crew) >= v.crewCapacity {
		return ErrVehicleFull
	}
	v.crew = append(v.crew, actorID)
	return nil
}

// Disembark removes an actor from the crew. Unknown actors are ignored.
func (v *Vehicle) Disembark(actorID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, id := range v.crew {
		if id == actorID {
			v.crew = append(v.crew[:i], v.crew[i+1:]...)
			return
		}
	}
}

func (v *Vehicle) Crew() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.crew))
	copy(out, v.crew)
	return out
}

// IsAboard reports whether an actor is part of the crew
func (v *Vehicle) IsAboard(actorID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, id := range v.crew {
		if id == actorID {
			return true
		}
	}
	return false
}

// Drive moves the vehicle toward target by up to distance km, burning fuel.
// Returns the distance covered and whether the target was reached. The move is
// shortened to what the remaining fuel allows.
func (v *Vehicle) Drive(target shared.Coordinates, distance float64) (float64, bool) {
	if distance <= 0 {
		return 0, false
	}
	if v.fuelEconomy > 0 {
		fuel := v.inventory.Amount(ResourceMethane)
		if maxByFuel := fuel * v.fuelEconomy; maxByFuel < distance {
			distance = maxByFuel
		}
	}
	if distance <= 0 {
		return 0, false
	}

	from := v.Position()
	remaining := from.DistanceTo(target)
	if distance > remaining {
		distance = remaining
	}
	next, arrived := from.MoveToward(target, distance)
	if v.fuelEconomy > 0 {
		v.inventory.Retrieve(ResourceMethane, distance/v.fuelEconomy)
	}

	v.mu.Lock()
	v.odometer += distance
	v.mu.Unlock()
	v.SetPosition(next)
	return distance, arrived
}

// LoadEquipment puts equipment units in the vehicle's cargo
func (v *Vehicle) LoadEquipment(items ...*Equipment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.equipment = append(v.equipment, items...)
}

// UnloadEquipment removes and returns every equipment unit in the cargo
func (v *Vehicle) UnloadEquipment() []*Equipment {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.equipment
	v.equipment = nil
	return out
}

// CargoEquipmentCount counts carried equipment of a type
func (v *Vehicle) CargoEquipmentCount(t EquipmentType) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, e := range v.equipment {
		if e.Type() == t {
			n++
		}
	}
	return n
}
