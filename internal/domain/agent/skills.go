package agent

import "sync"

// SkillType identifies a trainable ability
type SkillType string

const (
	SkillCooking      SkillType = "COOKING"
	SkillPiloting     SkillType = "PILOTING"
	SkillEVA          SkillType = "EVA_OPERATIONS"
	SkillMechanics    SkillType = "MECHANICS"
	SkillBotany       SkillType = "BOTANY"
	SkillConstruction SkillType = "CONSTRUCTION"
	SkillManagement   SkillType = "MANAGEMENT"
	SkillAreology     SkillType = "AREOLOGY"
)

// experiencePerLevel is the experience needed to go from level n to n+1, multiplied by (n+1)
const experiencePerLevel = 100.0

type skill struct {
	level      int
	experience float64
}

// Skills holds levels and accumulated experience per skill type
type Skills struct {
	mu     sync.RWMutex
	skills map[SkillType]*skill
}

func NewSkills() *Skills {
	return &Skills{skills: make(map[SkillType]*skill)}
}

// Level returns the current level of a skill (0 when never trained)
func (s *Skills) Level(t SkillType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sk, ok := s.skills[t]; ok {
		return sk.level
	}
	return 0
}

// SetLevel overrides a skill level. Scenario loading and tests use it.
func (s *Skills) SetLevel(t SkillType, level int) {
	if level < 0 {
		level = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(t).level = level
}

// Experience returns experience accumulated toward the next level
func (s *Skills) Experience(t SkillType) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sk, ok := s.skills[t]; ok {
		return sk.experience
	}
	return 0
}

// AddExperience accrues experience and levels up as thresholds are passed.
// Returns the number of levels gained.
func (s *Skills) AddExperience(t SkillType, points float64) int {
	if points <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sk := s.entry(t)
	sk.experience += points
	gained := 0
	for {
		needed := experiencePerLevel * float64(sk.level+1)
		if sk.experience < needed {
			break
		}
		sk.experience -= needed
		sk.level++
		gained++
	}
	return gained
}

func (s *Skills) entry(t SkillType) *skill {
	sk, ok := s.skills[t]
	if !ok {
		sk = &skill{}
		s.skills[t] = sk
	}
	return sk
}

// SkillMultiplier converts a skill level to a work-rate factor.
// Untrained actors work at half rate, level 1 at full rate, and each level
// from 2 upward adds 20%.
func SkillMultiplier(level int) float64 {
	switch {
	case level <= 0:
		return 0.5
	case level == 1:
		return 1.0
	default:
		return 1.0 + 0.2*float64(level)
	}
}
