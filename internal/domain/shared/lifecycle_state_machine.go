package shared

import (
	"fmt"
)

// LifecycleStatus represents the state of an entity in its lifecycle
type LifecycleStatus string

const (
	// LifecycleStatusPending indicates the entity is created but not started
	LifecycleStatusPending LifecycleStatus = "PENDING"

	// LifecycleStatusRunning indicates the entity is actively executing
	LifecycleStatusRunning LifecycleStatus = "RUNNING"

	// LifecycleStatusCompleted indicates the entity finished successfully
	LifecycleStatusCompleted LifecycleStatus = "COMPLETED"

	// LifecycleStatusFailed indicates the entity ended because a precondition could not be met
	LifecycleStatusFailed LifecycleStatus = "FAILED"

	// LifecycleStatusStopped indicates the entity was ended by an external controller
	LifecycleStatusStopped LifecycleStatus = "STOPPED"
)

// LifecycleStateMachine manages the PENDING → RUNNING → COMPLETED/FAILED/STOPPED
// transitions shared by missions and other long-running simulation entities.
// Timestamps are simulation time taken from the injected SimClock.
//
// Invariants:
// - State transitions must follow valid paths
// - Terminal states are never left
// - The end reason is recorded exactly once
type LifecycleStateMachine struct {
	status    LifecycleStatus
	createdAt MarsTime
	updatedAt MarsTime
	startedAt *MarsTime
	endedAt   *MarsTime
	reason    string
	clock     SimClock
}

// NewLifecycleStateMachine creates a new lifecycle state machine in PENDING state
func NewLifecycleStateMachine(clock SimClock) *LifecycleStateMachine {
	if clock == nil {
		clock = NewMasterClock(1, 0)
	}

	now := clock.Now()
	return &LifecycleStateMachine{
		status:    LifecycleStatusPending,
		createdAt: now,
		updatedAt: now,
		clock:     clock,
	}
}

// Getters

func (sm *LifecycleStateMachine) Status() LifecycleStatus { return sm.status }
func (sm *LifecycleStateMachine) CreatedAt() MarsTime     { return sm.createdAt }
func (sm *LifecycleStateMachine) UpdatedAt() MarsTime     { return sm.updatedAt }
func (sm *LifecycleStateMachine) StartedAt() *MarsTime    { return sm.startedAt }
func (sm *LifecycleStateMachine) EndedAt() *MarsTime      { return sm.endedAt }
func (sm *LifecycleStateMachine) Reason() string          { return sm.reason }

// Start transitions from PENDING to RUNNING state
func (sm *LifecycleStateMachine) Start() error {
	if sm.status != LifecycleStatusPending {
		return fmt.Errorf("cannot start from %s state", sm.status)
	}

	now := sm.clock.Now()
	sm.status = LifecycleStatusRunning
	sm.startedAt = &now
	sm.updatedAt = now
	return nil
}

// Complete transitions from RUNNING to COMPLETED state
func (sm *LifecycleStateMachine) Complete(reason string) error {
	if sm.status != LifecycleStatusRunning {
		return fmt.Errorf("cannot complete from %s state", sm.status)
	}
	sm.finish(LifecycleStatusCompleted, reason)
	return nil
}

// Fail transitions to FAILED state from any non-terminal state
func (sm *LifecycleStateMachine) Fail(reason string) error {
	if sm.IsFinished() {
		return fmt.Errorf("cannot fail from %s state", sm.status)
	}
	sm.finish(LifecycleStatusFailed, reason)
	return nil
}

// Stop transitions to STOPPED state from any non-terminal state
func (sm *LifecycleStateMachine) Stop(reason string) error {
	if sm.IsFinished() {
		return fmt.Errorf("cannot stop from %s state", sm.status)
	}
	sm.finish(LifecycleStatusStopped, reason)
	return nil
}

func (sm *LifecycleStateMachine) finish(status LifecycleStatus, reason string) {
	now := sm.clock.Now()
	sm.status = status
	sm.reason = reason
	sm.endedAt = &now
	sm.updatedAt = now
}

// State query methods

func (sm *LifecycleStateMachine) IsRunning() bool { return sm.status == LifecycleStatusRunning }
func (sm *LifecycleStateMachine) IsPending() bool { return sm.status == LifecycleStatusPending }

// IsFinished returns true if the entity has completed, failed, or stopped
func (sm *LifecycleStateMachine) IsFinished() bool {
	return sm.status == LifecycleStatusCompleted ||
		sm.status == LifecycleStatusFailed ||
		sm.status == LifecycleStatusStopped
}

// UpdateTimestamp updates the updatedAt timestamp
// Useful when entity performs operations that don't change lifecycle state
func (sm *LifecycleStateMachine) UpdateTimestamp() {
	sm.updatedAt = sm.clock.Now()
}

// RuntimeMillisols returns how long the entity has been (or was) running
func (sm *LifecycleStateMachine) RuntimeMillisols() float64 {
	if sm.startedAt == nil {
		return 0
	}
	end := sm.clock.Now()
	if sm.endedAt != nil {
		end = *sm.endedAt
	}
	return end.Total() - sm.startedAt.Total()
}
