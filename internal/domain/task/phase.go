package task

// Phase is a named step in a task's state machine
type Phase string

// Outcome is what a phase handler reports back to the driver loop.
//
// Consumed is the time (millisols) the handler used out of its budget.
// A Suspend outcome means "wait for the next tick"; a Continue outcome names
// the phase to run next, immediately if budget remains.
type Outcome struct {
	Consumed float64
	Next     Phase
	suspend  bool
}

// Suspend yields until the next tick after using consumed time
func Suspend(consumed float64) Outcome {
	return Outcome{Consumed: consumed, suspend: true}
}

// Continue moves to next and lets the driver run it with the remaining budget
func Continue(consumed float64, next Phase) Outcome {
	return Outcome{Consumed: consumed, Next: next}
}

// Suspended reports whether the outcome yields to the next tick
func (o Outcome) Suspended() bool { return o.suspend }

// PhaseHandler performs one phase with the time budget it is given
type PhaseHandler func(budget float64) Outcome
