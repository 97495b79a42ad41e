package shared

import (
	"fmt"
	"sync"
	"time"
)

// Clock is an abstraction for wall-clock time, allowing time to be mocked in tests.
// Simulation time is tracked separately by SimClock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock implements Clock using the actual system time
type RealClock struct{}

// Now returns the current system time in UTC
func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Sleep blocks for the given duration
func (r *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock implements Clock with a controllable time for testing
type MockClock struct {
	CurrentTime time.Time
}

// Now returns the mock's current time
func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

// Sleep advances the mock clock without blocking
func (m *MockClock) Sleep(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}

// Advance moves the mock clock forward by the given duration
func (m *MockClock) Advance(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}

// NewMockClock creates a MockClock starting at the given time
// If zero time is provided, starts at current time
func NewMockClock(startTime time.Time) *MockClock {
	if startTime.IsZero() {
		startTime = time.Now()
	}
	return &MockClock{CurrentTime: startTime}
}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}

const (
	// MillisolsPerSol is the length of one Martian day in millisols
	MillisolsPerSol = 1000.0

	// SolsPerOrbit is the number of sols in one Martian year
	SolsPerOrbit = 668
)

// MarsTime is an absolute point in simulation time.
// Sol numbering starts at 1.
type MarsTime struct {
	Sol      int
	Millisol float64
}

// Total returns the absolute number of millisols since sol 1, millisol 0.
func (t MarsTime) Total() float64 {
	return float64(t.Sol-1)*MillisolsPerSol + t.Millisol
}

// SolOfYear returns the sol within the current orbit (1..SolsPerOrbit).
func (t MarsTime) SolOfYear() int {
	return (t.Sol-1)%SolsPerOrbit + 1
}

// After reports whether t is strictly later than other.
func (t MarsTime) After(other MarsTime) bool {
	return t.Total() > other.Total()
}

// Add returns the time advanced by the given millisols.
func (t MarsTime) Add(millisols float64) MarsTime {
	return MarsTimeFromTotal(t.Total() + millisols)
}

func (t MarsTime) String() string {
	return fmt.Sprintf("sol %d %06.2f", t.Sol, t.Millisol)
}

// MarsTimeFromTotal converts absolute millisols back into sol and millisol.
func MarsTimeFromTotal(total float64) MarsTime {
	if total < 0 {
		total = 0
	}
	sol := int(total / MillisolsPerSol)
	return MarsTime{Sol: sol + 1, Millisol: total - float64(sol)*MillisolsPerSol}
}

// SimClock is the read side of simulation time consumed by scorers, tasks and missions.
type SimClock interface {
	Now() MarsTime
	Millisol() float64
	SolOfYear() int
}

// MasterClock is the single writer of simulation time. The tick driver advances it.
type MasterClock struct {
	mu  sync.RWMutex
	now MarsTime
}

// NewMasterClock creates a clock at the given sol and millisol
func NewMasterClock(sol int, millisol float64) *MasterClock {
	if sol < 1 {
		sol = 1
	}
	return &MasterClock{now: MarsTime{Sol: sol, Millisol: millisol}}
}

// Now returns the current simulation time
func (c *MasterClock) Now() MarsTime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Millisol returns the millisol of the current sol (0..1000)
func (c *MasterClock) Millisol() float64 {
	return c.Now().Millisol
}

// SolOfYear returns the sol within the current orbit
func (c *MasterClock) SolOfYear() int {
	return c.Now().SolOfYear()
}

// Advance moves simulation time forward and reports whether a sol boundary was crossed.
func (c *MasterClock) Advance(millisols float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.now.Sol
	c.now = c.now.Add(millisols)
	return c.now.Sol != before
}

// Set jumps to a specific time. Used by tests and scenario loading.
func (c *MasterClock) Set(t MarsTime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
