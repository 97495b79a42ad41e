package shared

import (
	"errors"
	"fmt"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Validation error

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvariantViolationError signals a broken precondition contract between
// callers, e.g. a construction stage added out of order or a task asked to
// run without an active phase. These are developer-facing failures: they
// propagate to the tick driver, which halts the simulation.
type InvariantViolationError struct {
	*DomainError
	Component string
}

func NewInvariantViolationError(component, message string) *InvariantViolationError {
	return &InvariantViolationError{
		DomainError: &DomainError{Message: message},
		Component:   component,
	}
}

func (e *InvariantViolationError) Error() string {
	if e.Component == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

// IsInvariantViolation reports whether err (or anything it wraps) is an invariant violation
func IsInvariantViolation(err error) bool {
	var target *InvariantViolationError
	return errors.As(err, &target)
}

// Actor errors

type ActorError struct {
	*DomainError
	ActorID string
}

func NewActorError(actorID, message string) *ActorError {
	return &ActorError{DomainError: &DomainError{Message: message}, ActorID: actorID}
}

// ActorBusyError is returned when assigning work to an actor that already has an active task
type ActorBusyError struct {
	*ActorError
	CurrentTask string
}

func NewActorBusyError(actorID, currentTask string) *ActorBusyError {
	return &ActorBusyError{
		ActorError:  NewActorError(actorID, fmt.Sprintf("actor %s is already performing %s", actorID, currentTask)),
		CurrentTask: currentTask,
	}
}

// MissionMembershipError is returned when an actor is asked to join a second mission
type MissionMembershipError struct {
	*ActorError
	CurrentMission string
}

func NewMissionMembershipError(actorID, currentMission string) *MissionMembershipError {
	return &MissionMembershipError{
		ActorError:     NewActorError(actorID, fmt.Sprintf("actor %s is already a member of mission %s", actorID, currentMission)),
		CurrentMission: currentMission,
	}
}
