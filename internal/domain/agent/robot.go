package agent

// RobotType is the model of a robot, which fixes its job
type RobotType string

const (
	RobotChefBot         RobotType = "CHEFBOT"
	RobotDeliveryBot     RobotType = "DELIVERYBOT"
	RobotRepairBot       RobotType = "REPAIRBOT"
	RobotGardenBot       RobotType = "GARDENBOT"
	RobotConstructionBot RobotType = "CONSTRUCTIONBOT"
)

var robotJobs = map[RobotType]Job{
	RobotChefBot:         JobChef,
	RobotDeliveryBot:     JobDriver,
	RobotRepairBot:       JobTechnician,
	RobotGardenBot:       JobBotanist,
	RobotConstructionBot: JobArchitect,
}

var robotSkills = map[RobotType]SkillType{
	RobotChefBot:         SkillCooking,
	RobotDeliveryBot:     SkillPiloting,
	RobotRepairBot:       SkillMechanics,
	RobotGardenBot:       SkillBotany,
	RobotConstructionBot: SkillConstruction,
}

// Robot is an autonomous machine. Robots are created without favourites.
type Robot struct {
	base
	robotType RobotType
}

// NewRobot creates a robot with the job and starting skill implied by its type
func NewRobot(id, name string, robotType RobotType, settlementID string) *Robot {
	r := &Robot{robotType: robotType}
	r.init(id, name, KindRobot, settlementID)
	r.job = robotJobs[robotType]
	if s, ok := robotSkills[robotType]; ok {
		r.skills.SetLevel(s, 1)
	}
	return r
}

func (r *Robot) RobotType() RobotType { return r.robotType }
