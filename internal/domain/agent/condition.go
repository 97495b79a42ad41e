package agent

import "sync"

// Condition bounds
const (
	MaxStress  = 100.0
	MaxFatigue = 1000.0
	MaxHunger  = 1000.0
)

// Condition tracks physical and mental state.
// Stress is 0..100, fatigue and hunger are millisols since last rest/meal (capped),
// performance is the current capability fraction 0..1.
type Condition struct {
	mu          sync.RWMutex
	stress      float64
	fatigue     float64
	hunger      float64
	performance float64
}

func NewCondition() *Condition {
	return &Condition{performance: 1.0}
}

func (c *Condition) Stress() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stress
}

func (c *Condition) Fatigue() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fatigue
}

func (c *Condition) Hunger() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hunger
}

func (c *Condition) Performance() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.performance
}

func (c *Condition) AddStress(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stress = clamp(c.stress+delta, 0, MaxStress)
	c.recompute()
}

func (c *Condition) AddFatigue(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fatigue = clamp(c.fatigue+delta, 0, MaxFatigue)
	c.recompute()
}

func (c *Condition) AddHunger(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hunger = clamp(c.hunger+delta, 0, MaxHunger)
	c.recompute()
}

// SetPerformance pins performance directly, e.g. for injured actors in scenarios
func (c *Condition) SetPerformance(p float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.performance = clamp(p, 0, 1)
}

// Elapse applies the passive drift of one time slice: fatigue and hunger grow
func (c *Condition) Elapse(millisols float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fatigue = clamp(c.fatigue+millisols, 0, MaxFatigue)
	c.hunger = clamp(c.hunger+millisols, 0, MaxHunger)
	c.recompute()
}

// recompute derives performance from the worst of stress and fatigue.
// Must be called with the lock held.
func (c *Condition) recompute() {
	p := 1.0
	if s := c.stress / MaxStress; s > 0.5 {
		p -= s - 0.5
	}
	if f := c.fatigue / MaxFatigue; f > 0.5 {
		p -= f - 0.5
	}
	c.performance = clamp(p, 0, 1)
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
