package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
)

type governanceContext struct {
	settlement *settlement.Settlement
	people     map[string]*agent.Person
	order      []string
	structure  settlement.Structure
}

func (gc *governanceContext) reset() {
	gc.settlement = nil
	gc.people = make(map[string]*agent.Person)
	gc.order = nil
	gc.structure = ""
}

func (gc *governanceContext) population() []*agent.Person {
	out := make([]*agent.Person, 0, len(gc.order))
	for _, id := range gc.order {
		out = append(out, gc.people[id])
	}
	return out
}

func (gc *governanceContext) person(id string) (*agent.Person, error) {
	p, ok := gc.people[id]
	if !ok {
		return nil, fmt.Errorf("unknown settler %s", id)
	}
	return p, nil
}

// Given steps

func (gc *governanceContext) aSettlementWithSettlers(name string, count int) error {
	gc.settlement = settlement.NewSettlement(settlement.Params{ID: strings.ToLower(name), Name: name})
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("p%02d", i)
		p := agent.NewPerson(id, "Settler "+id, agent.GenderFemale, gc.settlement.ID())
		gc.people[id] = p
		gc.order = append(gc.order, id)
		gc.settlement.AddResident(id)
	}
	return nil
}

func (gc *governanceContext) settlerHasManagementSkill(id string, level int) error {
	p, err := gc.person(id)
	if err != nil {
		return err
	}
	p.Skills().SetLevel(agent.SkillManagement, level)
	return nil
}

func (gc *governanceContext) settlerWorksAs(id, job string) error {
	p, err := gc.person(id)
	if err != nil {
		return err
	}
	p.SetJob(agent.Job(job))
	return nil
}

// When steps

func (gc *governanceContext) theChainOfCommandIsRebuilt() error {
	if gc.settlement == nil {
		return fmt.Errorf("no settlement available")
	}
	gc.structure = gc.settlement.ChainOfCommand().Rebuild(gc.population())
	return nil
}

func (gc *governanceContext) theShiftsAreRebuilt() error {
	if gc.settlement == nil {
		return fmt.Errorf("no settlement available")
	}
	gc.settlement.Shifts().Rebuild(gc.population())
	return nil
}

// Then steps

func (gc *governanceContext) theStructureShouldBe(expected string) error {
	if string(gc.structure) != expected {
		return fmt.Errorf("expected structure %s, got %s", expected, gc.structure)
	}
	return nil
}

func (gc *governanceContext) settlerShouldHoldTheRole(id, expected string) error {
	p, err := gc.person(id)
	if err != nil {
		return err
	}
	if string(p.Role()) != expected {
		return fmt.Errorf("expected %s to hold %s, got %s", id, expected, p.Role())
	}
	return nil
}

func (gc *governanceContext) settlersShouldHoldARoleStartingWith(expected int, prefix string) error {
	count := 0
	for _, p := range gc.population() {
		if strings.HasPrefix(string(p.Role()), prefix) {
			count++
		}
	}
	if count != expected {
		return fmt.Errorf("expected %d roles starting with %s, got %d", expected, prefix, count)
	}
	return nil
}

func (gc *governanceContext) everySettlerShouldHoldARoleOfTheStructure() error {
	for _, p := range gc.population() {
		if !settlement.RoleBelongsTo(p.Role(), gc.structure) {
			return fmt.Errorf("role %s of %s does not belong to %s", p.Role(), p.ID(), gc.structure)
		}
	}
	return nil
}

func (gc *governanceContext) theShiftPatternShouldBe(expected string) error {
	labels := make([]string, 0, 3)
	for _, sh := range gc.settlement.Shifts().Shifts() {
		labels = append(labels, sh.Label)
	}
	if got := strings.Join(labels, ","); got != expected {
		return fmt.Errorf("expected shift pattern %s, got %s", expected, got)
	}
	return nil
}

func (gc *governanceContext) settlerShouldWorkShift(id, expected string) error {
	p, err := gc.person(id)
	if err != nil {
		return err
	}
	if p.Shift() != expected {
		return fmt.Errorf("expected %s on shift %s, got %s", id, expected, p.Shift())
	}
	return nil
}

func (gc *governanceContext) settlerShouldBeOnDutyAt(id, negation string, millisol float64) error {
	want := negation == ""
	if got := gc.settlement.Shifts().OnDuty(id, millisol); got != want {
		return fmt.Errorf("expected on duty %t for %s at %.2f, got %t", want, id, millisol, got)
	}
	return nil
}

// InitializeGovernanceScenario registers the chain-of-command and shift steps
func InitializeGovernanceScenario(ctx *godog.ScenarioContext) {
	gc := &governanceContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		gc.reset()
		return ctx, nil
	})

	ctx.Step(`^a settlement "([^"]*)" with (\d+) settlers$`, gc.aSettlementWithSettlers)
	ctx.Step(`^settler "([^"]*)" has management skill (\d+)$`, gc.settlerHasManagementSkill)
	ctx.Step(`^settler "([^"]*)" works as "([^"]*)"$`, gc.settlerWorksAs)

	ctx.Step(`^the chain of command is rebuilt$`, gc.theChainOfCommandIsRebuilt)
	ctx.Step(`^the shifts are rebuilt$`, gc.theShiftsAreRebuilt)

	ctx.Step(`^the structure should be "([^"]*)"$`, gc.theStructureShouldBe)
	ctx.Step(`^settler "([^"]*)" should hold the role "([^"]*)"$`, gc.settlerShouldHoldTheRole)
	ctx.Step(`^(\d+) settlers? should hold a role starting with "([^"]*)"$`, gc.settlersShouldHoldARoleStartingWith)
	ctx.Step(`^every settler should hold a role of the structure$`, gc.everySettlerShouldHoldARoleOfTheStructure)
	ctx.Step(`^the shift pattern should be "([^"]*)"$`, gc.theShiftPatternShouldBe)
	ctx.Step(`^settler "([^"]*)" should work shift "([^"]*)"$`, gc.settlerShouldWorkShift)
	ctx.Step(`^settler "([^"]*)" should (not )?be on duty at millisol (\d+(?:\.\d+)?)$`, gc.settlerShouldBeOnDutyAt)
}
