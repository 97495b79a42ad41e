package task

import (
	"fmt"
	"math"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/guard"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

const (
	CookMealName = "Cook Meal"

	PhaseCooking Phase = "COOKING"

	// Stress change per millisol spent cooking
	cookingStress = -0.05
)

// Termination reasons
const (
	ReasonNotInSettlement    = "not in a settlement"
	ReasonNoKitchen          = "no kitchen available"
	ReasonNotMealTime        = "not meal time"
	ReasonNoIngredients      = "no ingredients available"
	ReasonKitchenFull        = "kitchen full"
	ReasonKitchenMalfunction = "kitchen malfunction"
	ReasonMealTimeOver       = "meal time over"
	ReasonCookingFinished    = "meal preparation finished"
)

// CookMealMeta describes cooking for the settlement's kitchens
func CookMealMeta() *MetaTask {
	return &MetaTask{
		Name:     CookMealName,
		Activity: agent.ActivityCooking,
		Jobs:     []agent.Job{agent.JobChef},
		Score:    scoreCookMeal,
		New:      func(ctx *world.Context, a agent.Actor) Work { return NewCookMeal(ctx, a) },
	}
}

// scoreCookMeal weighs cooking by how far the waiting meals fall short of the
// population. Zero outside meal windows, without ingredients, or without a free kitchen.
func scoreCookMeal(ctx *world.Context, a agent.Actor) float64 {
	s, ok := settlementOf(ctx, a)
	if !ok {
		return 0
	}
	if !ctx.Tuning.IsMealTime(ctx.Clock.Millisol()) {
		return 0
	}
	if len(settlement.CookableRecipes(s.Inventory())) == 0 {
		return 0
	}
	kitchens := guard.AvailableBuildings(s, settlement.FunctionCooking, guard.BuildingConstraints{})
	if len(kitchens) == 0 {
		return 0
	}

	waiting := 0
	for _, b := range s.FindBuildingsByFunction(settlement.FunctionCooking) {
		if k := b.Kitchen(); k != nil {
			waiting += k.MealCount()
		}
	}
	hungry := s.Population() - waiting
	base := 50.0
	if hungry > 0 {
		base += 20 * float64(hungry)
	} else {
		base /= 4
	}

	k := kitchens[0]
	f := settlement.FunctionCooking
	return Clamp(base * CrowdingModifier(k, f) * RelationshipModifier(a, k, f) * PerformanceModifier(a))
}

// CookMeal adds cooking work to a kitchen during a meal window.
//
// Business Rules:
// - Work added = time worked x skill multiplier
// - The kitchen turns accumulated work into meals, consuming recipe ingredients
// - The task ends once its own work reaches the session target, or when the
//   window closes, ingredients run out or the kitchen breaks down
type CookMeal struct {
	*Task
	building     *settlement.Building
	kitchen      *settlement.Kitchen
	settlement   *settlement.Settlement
	work         float64
	requiredWork float64
	meals        int
}

// NewCookMeal checks preconditions, claims a kitchen slot and starts cooking.
// Any failed precondition leaves the task ended with its reason.
func NewCookMeal(ctx *world.Context, a agent.Actor) *CookMeal {
	t := &CookMeal{
		Task:         NewTask(ctx, a, CookMealName),
		requiredWork: ctx.Tuning.CookSessionWork,
	}
	t.SetSkill(agent.SkillCooking)
	t.SetStressModifier(cookingStress)

	s, ok := settlementOf(ctx, a)
	if !ok {
		t.End(ReasonNotInSettlement)
		return t
	}
	b, ok := guard.FindAvailableBuilding(ctx.Rand, a, s, settlement.FunctionCooking, guard.BuildingConstraints{})
	if !ok || b.Kitchen() == nil {
		t.End(ReasonNoKitchen)
		return t
	}
	if !ctx.Tuning.IsMealTime(ctx.Clock.Millisol()) {
		t.End(ReasonNotMealTime)
		return t
	}
	if len(settlement.CookableRecipes(s.Inventory())) == 0 {
		t.End(ReasonNoIngredients)
		return t
	}
	if err := b.AddOccupant(settlement.FunctionCooking, a.ID()); err != nil {
		t.End(ReasonKitchenFull)
		return t
	}

	t.building = b
	t.kitchen = b.Kitchen()
	t.settlement = s
	t.kitchen.SetWorkPerMeal(ctx.Tuning.WorkPerMeal)
	a.SetBuildingID(b.ID())
	t.OnEnd(func() { b.RemoveOccupant(settlement.FunctionCooking, a.ID()) })

	t.AddPhase(PhaseCooking, t.cooking)
	_ = t.SetPhase(PhaseCooking)
	return t
}

// Building returns the kitchen building in use, nil when the task never started
func (t *CookMeal) Building() *settlement.Building { return t.building }

// WorkDone returns the cooking work this task has contributed
func (t *CookMeal) WorkDone() float64 { return t.work }

// MealsCooked returns the meals completed while this cook worked
func (t *CookMeal) MealsCooked() int { return t.meals }

func (t *CookMeal) cooking(budget float64) Outcome {
	ctx := t.Context()
	if t.building.HasMalfunction() {
		t.End(ReasonKitchenMalfunction)
		return Suspend(0)
	}
	if !ctx.Tuning.IsMealTime(ctx.Clock.Millisol()) {
		t.End(ReasonMealTimeOver)
		return Suspend(0)
	}

	multiplier := t.SkillMultiplier()
	timeNeeded := (t.requiredWork - t.work) / multiplier
	use := math.Min(budget, timeNeeded)
	if use < 0 {
		use = 0
	}
	work := use * multiplier

	quality := float64(t.Actor().Skills().Level(agent.SkillCooking))
	cooked, stocked := t.kitchen.AddWork(work, quality, t.settlement.Inventory(), ctx.Clock.Now())
	t.work += work
	t.meals += cooked
	t.SetCounter("work", t.work)
	t.SetCounter("meals", float64(t.meals))
	t.AddExperience(use)

	if cooked > 0 {
		ctx.Publish(EventProducer, event.Event{
			Type:       event.TypeMealCooked,
			Settlement: t.settlement.ID(),
			Actor:      t.Actor().ID(),
			Message:    fmt.Sprintf("%s cooked %d meal(s) in %s", t.Actor().Name(), cooked, t.building.Name()),
		})
	}

	if t.RollAccident(use, t.building.Wear()) {
		t.building.SetMalfunction(true)
		t.End(ReasonKitchenMalfunction)
		return Suspend(use)
	}
	if !stocked {
		t.End(ReasonNoIngredients)
		return Suspend(use)
	}
	if t.work >= t.requiredWork-1e-9 {
		t.Complete(ReasonCookingFinished)
	}
	return Suspend(use)
}
