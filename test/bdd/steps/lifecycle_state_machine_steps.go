package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

type lifecycleStateMachineContext struct {
	stateMachine    *shared.LifecycleStateMachine
	clock           *shared.MasterClock
	transitionError error
	runtime         float64
}

func (lc *lifecycleStateMachineContext) reset() {
	lc.clock = shared.NewMasterClock(1, 0)
	lc.stateMachine = nil
	lc.transitionError = nil
	lc.runtime = 0
}

func (lc *lifecycleStateMachineContext) requireMachine() error {
	if lc.stateMachine == nil {
		return fmt.Errorf("no state machine available")
	}
	return nil
}

// Given steps

func (lc *lifecycleStateMachineContext) aLifecycleStateMachineInState(state string) error {
	lc.stateMachine = shared.NewLifecycleStateMachine(lc.clock)

	switch state {
	case "PENDING":
		return nil
	case "RUNNING":
		return lc.stateMachine.Start()
	case "COMPLETED":
		if err := lc.stateMachine.Start(); err != nil {
			return err
		}
		return lc.stateMachine.Complete("done")
	case "FAILED":
		return lc.stateMachine.Fail("test failure")
	case "STOPPED":
		return lc.stateMachine.Stop("test stop")
	default:
		return fmt.Errorf("unknown state: %s", state)
	}
}

func (lc *lifecycleStateMachineContext) millisolsHavePassed(millisols float64) error {
	lc.clock.Advance(millisols)
	return nil
}

func (lc *lifecycleStateMachineContext) aLifecycleStateMachineThatRanForMillisolsAndEnded(millisols float64, how string) error {
	lc.stateMachine = shared.NewLifecycleStateMachine(lc.clock)
	if err := lc.stateMachine.Start(); err != nil {
		return err
	}
	lc.clock.Advance(millisols)

	switch how {
	case "completed":
		return lc.stateMachine.Complete("done")
	case "failed":
		return lc.stateMachine.Fail("test failure")
	default:
		return lc.stateMachine.Stop("test stop")
	}
}

// When steps

func (lc *lifecycleStateMachineContext) iCreateANewLifecycleStateMachine() error {
	lc.stateMachine = shared.NewLifecycleStateMachine(lc.clock)
	return nil
}

func (lc *lifecycleStateMachineContext) iStartTheLifecycleStateMachine() error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	lc.transitionError = lc.stateMachine.Start()
	return nil
}

func (lc *lifecycleStateMachineContext) iCompleteTheLifecycleStateMachineWithReason(reason string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	lc.transitionError = lc.stateMachine.Complete(reason)
	return nil
}

func (lc *lifecycleStateMachineContext) iFailTheLifecycleStateMachineWithReason(reason string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	lc.transitionError = lc.stateMachine.Fail(reason)
	return nil
}

func (lc *lifecycleStateMachineContext) iStopTheLifecycleStateMachineWithReason(reason string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	lc.transitionError = lc.stateMachine.Stop(reason)
	return nil
}

func (lc *lifecycleStateMachineContext) iMeasureTheRuntime() error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	lc.runtime = lc.stateMachine.RuntimeMillisols()
	return nil
}

// Then steps

func (lc *lifecycleStateMachineContext) theLifecycleStatusShouldBe(expected string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	if actual := string(lc.stateMachine.Status()); actual != expected {
		return fmt.Errorf("expected status %s, got %s", expected, actual)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theStartedTimestampShouldBe(state string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	set := lc.stateMachine.StartedAt() != nil
	if (state == "set") != set {
		return fmt.Errorf("expected started timestamp to be %s", state)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theEndedTimestampShouldBe(state string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	set := lc.stateMachine.EndedAt() != nil
	if (state == "set") != set {
		return fmt.Errorf("expected ended timestamp to be %s", state)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theTransitionShouldFailWith(expected string) error {
	if lc.transitionError == nil {
		return fmt.Errorf("expected transition to fail with '%s', but it succeeded", expected)
	}
	if lc.transitionError.Error() != expected {
		return fmt.Errorf("expected error '%s', got '%s'", expected, lc.transitionError.Error())
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theTransitionShouldSucceed() error {
	if lc.transitionError != nil {
		return fmt.Errorf("expected transition to succeed, got %v", lc.transitionError)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theEndReasonShouldBe(expected string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	if actual := lc.stateMachine.Reason(); actual != expected {
		return fmt.Errorf("expected end reason '%s', got '%s'", expected, actual)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theStateMachineShouldBeFinished(negation string) error {
	if err := lc.requireMachine(); err != nil {
		return err
	}
	want := negation == ""
	if lc.stateMachine.IsFinished() != want {
		return fmt.Errorf("expected finished to be %t", want)
	}
	return nil
}

func (lc *lifecycleStateMachineContext) theRuntimeShouldBeMillisols(expected float64) error {
	if math.Abs(lc.runtime-expected) > 1e-6 {
		return fmt.Errorf("expected runtime %.3f millisols, got %.3f", expected, lc.runtime)
	}
	return nil
}

// InitializeLifecycleStateMachineScenario registers the lifecycle state machine steps
func InitializeLifecycleStateMachineScenario(ctx *godog.ScenarioContext) {
	lc := &lifecycleStateMachineContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		lc.reset()
		return ctx, nil
	})

	ctx.Step(`^a lifecycle state machine in "([^"]*)" state$`, lc.aLifecycleStateMachineInState)
	ctx.Step(`^(\d+(?:\.\d+)?) millisols have passed$`, lc.millisolsHavePassed)
	ctx.Step(`^a lifecycle state machine that ran for (\d+(?:\.\d+)?) millisols and (completed|failed|stopped)$`, lc.aLifecycleStateMachineThatRanForMillisolsAndEnded)

	ctx.Step(`^I create a new lifecycle state machine$`, lc.iCreateANewLifecycleStateMachine)
	ctx.Step(`^I start the lifecycle state machine$`, lc.iStartTheLifecycleStateMachine)
	ctx.Step(`^I complete the lifecycle state machine with reason "([^"]*)"$`, lc.iCompleteTheLifecycleStateMachineWithReason)
	ctx.Step(`^I fail the lifecycle state machine with reason "([^"]*)"$`, lc.iFailTheLifecycleStateMachineWithReason)
	ctx.Step(`^I stop the lifecycle state machine with reason "([^"]*)"$`, lc.iStopTheLifecycleStateMachineWithReason)
	ctx.Step(`^I measure the runtime$`, lc.iMeasureTheRuntime)

	ctx.Step(`^the lifecycle status should be "([^"]*)"$`, lc.theLifecycleStatusShouldBe)
	ctx.Step(`^the started timestamp should be (set|nil)$`, lc.theStartedTimestampShouldBe)
	ctx.Step(`^the ended timestamp should be (set|nil)$`, lc.theEndedTimestampShouldBe)
	ctx.Step(`^the transition should fail with "([^"]*)"$`, lc.theTransitionShouldFailWith)
	ctx.Step(`^the transition should succeed$`, lc.theTransitionShouldSucceed)
	ctx.Step(`^the end reason should be "([^"]*)"$`, lc.theEndReasonShouldBe)
	ctx.Step(`^the state machine should (not )?be finished$`, lc.theStateMachineShouldBeFinished)
	ctx.Step(`^the runtime should be (\d+(?:\.\d+)?) millisols$`, lc.theRuntimeShouldBeMillisols)
}
