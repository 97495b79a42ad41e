package agent

import "sync"

// Activity is a favourite activity category. Meta-tasks declare which one they match.
type Activity string

const (
	ActivityNone       Activity = ""
	ActivityCooking    Activity = "COOKING"
	ActivitySport      Activity = "SPORT"
	ActivityRelaxation Activity = "RELAXATION"
	ActivityFieldWork  Activity = "FIELD_WORK"
	ActivityTinkering  Activity = "TINKERING"
	ActivityOperation  Activity = "OPERATION"
	ActivityResearch   Activity = "RESEARCH"
)

// AllActivities in a fixed order, used for randomized assignment
var AllActivities = []Activity{
	ActivityCooking, ActivitySport, ActivityRelaxation, ActivityFieldWork,
	ActivityTinkering, ActivityOperation, ActivityResearch,
}

// Dishes offered as favourite dishes for new arrivals
var Dishes = []string{
	"Bean Stew", "Potato Curry", "Spirulina Noodles", "Soy Burger",
	"Tomato Soup", "Kelp Salad", "Peanut Flatbread", "Rice Pilaf",
}

// Preference bonus bounds
const (
	MaxPreferenceBonus = 5.0
	MinPreferenceBonus = -5.0
)

// Preferences holds favourites and the learned per-task score bonus
type Preferences struct {
	mu       sync.RWMutex
	activity Activity
	dish     string
	bonus    map[string]float64
}

func NewPreferences() *Preferences {
	return &Preferences{bonus: make(map[string]float64)}
}

func (p *Preferences) FavoriteActivity() Activity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activity
}

func (p *Preferences) SetFavoriteActivity(a Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = a
}

func (p *Preferences) FavoriteDish() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dish
}

func (p *Preferences) SetFavoriteDish(d string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dish = d
}

// Bonus returns the learned additive score bonus for a task name
func (p *Preferences) Bonus(taskName string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bonus[taskName]
}

// Reinforce nudges the learned bonus for a task, bounded to [MinPreferenceBonus, MaxPreferenceBonus]
func (p *Preferences) Reinforce(taskName string, delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bonus[taskName] = clamp(p.bonus[taskName]+delta, MinPreferenceBonus, MaxPreferenceBonus)
}

// Relationships holds this actor's opinion of others, 0..100 with 50 neutral
type Relationships struct {
	mu       sync.RWMutex
	opinions map[string]float64
}

// NeutralOpinion is the opinion held of anyone not yet met
const NeutralOpinion = 50.0

func NewRelationships() *Relationships {
	return &Relationships{opinions: make(map[string]float64)}
}

func (r *Relationships) Opinion(otherID string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.opinions[otherID]; ok {
		return v
	}
	return NeutralOpinion
}

func (r *Relationships) Adjust(otherID string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.opinions[otherID]
	if !ok {
		current = NeutralOpinion
	}
	r.opinions[otherID] = clamp(current+delta, 0, 100)
}

// Average returns the mean opinion of the given actors, neutral when the list is empty
func (r *Relationships) Average(otherIDs []string) float64 {
	if len(otherIDs) == 0 {
		return NeutralOpinion
	}
	total := 0.0
	for _, id := range otherIDs {
		total += r.Opinion(id)
	}
	return total / float64(len(otherIDs))
}
