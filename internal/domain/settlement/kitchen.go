package settlement

import (
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// DefaultWorkPerMeal is the cooking work (millisols) that produces one meal
const DefaultWorkPerMeal = 20.0

// Meal is a cooked serving waiting in a kitchen
type Meal struct {
	Recipe   string
	Quality  float64
	CookedAt shared.MarsTime
}

// Kitchen accumulates cooking work from any number of cooks and turns it into meals
type Kitchen struct {
	mu          sync.Mutex
	workPerMeal float64
	work        float64
	meals       []Meal
	cooked      int
}

func NewKitchen() *Kitchen {
	return &Kitchen{workPerMeal: DefaultWorkPerMeal}
}

// SetWorkPerMeal overrides the work needed per meal
func (k *Kitchen) SetWorkPerMeal(w float64) {
	if w <= 0 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.workPerMeal = w
}

// CookableRecipes lists the recipes whose ingredients are all in the inventory
func CookableRecipes(inv *Inventory) []Recipe {
	var out []Recipe
	for _, r := range Recipes {
		if inv.HasAll(r.Ingredients) {
			out = append(out, r)
		}
	}
	return out
}

// AddWork adds cooking work. Every time the accumulated work reaches one meal's worth
// the first cookable recipe is cooked from inv. Returns the meals cooked and whether
// ingredients were available for every meal attempted.
func (k *Kitchen) AddWork(work, skillQuality float64, inv *Inventory, at shared.MarsTime) (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.work += work
	cooked := 0
	for k.work >= k.workPerMeal {
		recipe, ok := pickRecipe(inv)
		if !ok {
			return cooked, false
		}
		k.work -= k.workPerMeal
		k.meals = append(k.meals, Meal{Recipe: recipe.Name, Quality: skillQuality, CookedAt: at})
		k.cooked++
		cooked++
	}
	return cooked, true
}

func pickRecipe(inv *Inventory) (Recipe, bool) {
	for _, r := range Recipes {
		if inv.RetrieveAll(r.Ingredients) {
			return r, true
		}
	}
	return Recipe{}, false
}

// Work returns the accumulated work not yet turned into a meal
func (k *Kitchen) Work() float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.work
}

// MealCount returns the meals waiting to be eaten
func (k *Kitchen) MealCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.meals)
}

// TotalCooked returns the number of meals cooked since the kitchen was built
func (k *Kitchen) TotalCooked() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cooked
}

// TakeMeal removes the oldest meal
func (k *Kitchen) TakeMeal() (Meal, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.meals) == 0 {
		return Meal{}, false
	}
	m := k.meals[0]
	k.meals = k.meals[1:]
	return m, true
}

// ResetDay clears leftover meals at a sol boundary
func (k *Kitchen) ResetDay() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.meals = nil
}
