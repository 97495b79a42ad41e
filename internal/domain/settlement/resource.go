package settlement

// ResourceType identifies an amount-based resource stored in kilograms
type ResourceType string

const (
	ResourceOxygen    ResourceType = "OXYGEN"
	ResourceWater     ResourceType = "WATER"
	ResourceFood      ResourceType = "FOOD"
	ResourceMethane   ResourceType = "METHANE"
	ResourceIce       ResourceType = "ICE"
	ResourceRegolith  ResourceType = "REGOLITH"
	ResourcePotato    ResourceType = "POTATO"
	ResourceSoybean   ResourceType = "SOYBEAN"
	ResourceRice      ResourceType = "RICE"
	ResourceWheat     ResourceType = "WHEAT"
	ResourceTomato    ResourceType = "TOMATO"
	ResourceSpirulina ResourceType = "SPIRULINA"
)

// Phase is the physical state of a resource. It decides which container type carries it.
type Phase string

const (
	PhaseGas    Phase = "GAS"
	PhaseLiquid Phase = "LIQUID"
	PhaseSolid  Phase = "SOLID"
)

var resourcePhases = map[ResourceType]Phase{
	ResourceOxygen:  PhaseGas,
	ResourceMethane: PhaseGas,
	ResourceWater:   PhaseLiquid,
}

// PhaseOf returns the physical phase of a resource; anything not listed is solid
func PhaseOf(r ResourceType) Phase {
	if p, ok := resourcePhases[r]; ok {
		return p
	}
	return PhaseSolid
}

// Recipe is a meal a kitchen can cook from stored ingredients
type Recipe struct {
	Name        string
	Ingredients map[ResourceType]float64
}

// Recipes known to every kitchen, in preference order
var Recipes = []Recipe{
	{Name: "Bean Stew", Ingredients: map[ResourceType]float64{ResourceSoybean: 0.3, ResourceWater: 0.2}},
	{Name: "Potato Curry", Ingredients: map[ResourceType]float64{ResourcePotato: 0.35, ResourceTomato: 0.1}},
	{Name: "Rice Pilaf", Ingredients: map[ResourceType]float64{ResourceRice: 0.25, ResourceWater: 0.2}},
	{Name: "Spirulina Noodles", Ingredients: map[ResourceType]float64{ResourceWheat: 0.2, ResourceSpirulina: 0.05}},
}
