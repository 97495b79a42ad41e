package settlement

import "strings"

// BuildingSpec is the type-level description of a building: default footprint,
// function capacities and storage it contributes to the settlement inventory
type BuildingSpec struct {
	Type      string
	Width     float64
	Length    float64
	Functions map[Function]int
	Storage   map[ResourceType]float64
	General   float64
	Connector bool
}

var buildingSpecs = map[string]BuildingSpec{
	"Lander Hab": {
		Type: "Lander Hab", Width: 9, Length: 9,
		Functions: map[Function]int{
			FunctionLiving: 4, FunctionCooking: 2, FunctionDining: 6,
			FunctionRecreation: 4, FunctionMedicalCare: 1, FunctionEVA: 2, FunctionAdministration: 2,
		},
		General: 1000,
	},
	"Residential Quarters": {
		Type: "Residential Quarters", Width: 9, Length: 9,
		Functions: map[Function]int{FunctionLiving: 8, FunctionRecreation: 4},
	},
	"Lounge": {
		Type: "Lounge", Width: 10, Length: 10,
		Functions: map[Function]int{FunctionRecreation: 12, FunctionDining: 8, FunctionCooking: 4},
	},
	"Fitness Center": {
		Type: "Fitness Center", Width: 8, Length: 8,
		Functions: map[Function]int{FunctionExercise: 6},
	},
	"Inflatable Greenhouse": {
		Type: "Inflatable Greenhouse", Width: 6, Length: 9,
		Functions: map[Function]int{FunctionFarming: 3},
		Storage:   map[ResourceType]float64{ResourcePotato: 500, ResourceSoybean: 500, ResourceTomato: 300},
	},
	"Storage Shed": {
		Type: "Storage Shed", Width: 6, Length: 6,
		Functions: map[Function]int{FunctionStorage: 1},
		General:   5000,
	},
	"Gas Tank Farm": {
		Type: "Gas Tank Farm", Width: 8, Length: 8,
		Functions: map[Function]int{FunctionStorage: 1},
		Storage:   map[ResourceType]float64{ResourceOxygen: 5000, ResourceMethane: 5000},
	},
	"Water Tank": {
		Type: "Water Tank", Width: 5, Length: 5,
		Functions: map[Function]int{FunctionStorage: 1},
		Storage:   map[ResourceType]float64{ResourceWater: 8000},
	},
	"Laboratory": {
		Type: "Laboratory", Width: 9, Length: 9,
		Functions: map[Function]int{FunctionResearch: 4},
	},
	"Garage": {
		Type: "Garage", Width: 16, Length: 14,
		Functions: map[Function]int{FunctionGarage: 4, FunctionEVA: 4},
	},
	"Hallway": {
		Type: "Hallway", Width: 2, Length: 0,
		Functions: map[Function]int{FunctionConnection: 4},
		Connector: true,
	},
	"Tunnel": {
		Type: "Tunnel", Width: 3, Length: 0,
		Functions: map[Function]int{FunctionConnection: 6},
		Connector: true,
	},
}

// LookupBuildingSpec returns the spec of a building type
func LookupBuildingSpec(buildingType string) (BuildingSpec, bool) {
	s, ok := buildingSpecs[buildingType]
	return s, ok
}

// VehicleSpec is the type-level description of a vehicle
type VehicleSpec struct {
	Type          VehicleType
	CargoCapacity float64
	Range         float64
	Speed         float64
	CrewCapacity  int
	FuelEconomy   float64
}

var vehicleSpecs = map[VehicleType]VehicleSpec{
	VehicleExplorerRover:  {Type: VehicleExplorerRover, CargoCapacity: 1000, Range: 2000, Speed: 0.6, CrewCapacity: 4, FuelEconomy: 4},
	VehicleTransportRover: {Type: VehicleTransportRover, CargoCapacity: 3000, Range: 3000, Speed: 0.5, CrewCapacity: 8, FuelEconomy: 3},
	VehicleCargoRover:     {Type: VehicleCargoRover, CargoCapacity: 8000, Range: 2500, Speed: 0.4, CrewCapacity: 2, FuelEconomy: 2},
	VehicleLUV:            {Type: VehicleLUV, CargoCapacity: 200, Range: 100, Speed: 0.3, CrewCapacity: 1, FuelEconomy: 8},
	VehicleDeliveryDrone:  {Type: VehicleDeliveryDrone, CargoCapacity: 250, Range: 1500, Speed: 1.2, CrewCapacity: 1, FuelEconomy: 6},
}

// LookupVehicleSpec returns the spec of a vehicle type
func LookupVehicleSpec(t VehicleType) (VehicleSpec, bool) {
	s, ok := vehicleSpecs[t]
	return s, ok
}

// VehicleTypeFromName chooses a vehicle subtype from a template name such as
// "Transport Rover" or "delivery drone". Unknown names default to an explorer rover.
func VehicleTypeFromName(name string) VehicleType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "transport"):
		return VehicleTransportRover
	case strings.Contains(n, "cargo"):
		return VehicleCargoRover
	case strings.Contains(n, "luv") || strings.Contains(n, "utility"):
		return VehicleLUV
	case strings.Contains(n, "drone"):
		return VehicleDeliveryDrone
	default:
		return VehicleExplorerRover
	}
}
