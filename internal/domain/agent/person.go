package agent

import "sync"

// Gender of a person
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Person is a human settler
type Person struct {
	base

	roleMu sync.RWMutex
	gender Gender
	role   Role
	shift  string
}

// NewPerson creates a person associated with a settlement
func NewPerson(id, name string, gender Gender, settlementID string) *Person {
	p := &Person{gender: gender}
	p.init(id, name, KindPerson, settlementID)
	return p
}

func (p *Person) Gender() Gender { return p.gender }

func (p *Person) Role() Role {
	p.roleMu.RLock()
	defer p.roleMu.RUnlock()
	return p.role
}

func (p *Person) SetRole(r Role) {
	p.roleMu.Lock()
	defer p.roleMu.Unlock()
	p.role = r
}

// Shift returns the work shift label (e.g. "X", "A")
func (p *Person) Shift() string {
	p.roleMu.RLock()
	defer p.roleMu.RUnlock()
	return p.shift
}

func (p *Person) SetShift(s string) {
	p.roleMu.Lock()
	defer p.roleMu.Unlock()
	p.shift = s
}
