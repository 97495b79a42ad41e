package agent

// Job is an actor's assigned occupation. Meta-tasks use it for the job-fit modifier.
type Job string

const (
	JobNone       Job = ""
	JobChef       Job = "CHEF"
	JobDriver     Job = "DRIVER"
	JobEngineer   Job = "ENGINEER"
	JobBotanist   Job = "BOTANIST"
	JobDoctor     Job = "DOCTOR"
	JobTrader     Job = "TRADER"
	JobArchitect  Job = "ARCHITECT"
	JobAreologist Job = "AREOLOGIST"
	JobTechnician Job = "TECHNICIAN"
)

// PersonJobs lists jobs available to new immigrants, in assignment order
var PersonJobs = []Job{
	JobEngineer, JobBotanist, JobChef, JobDriver, JobTechnician,
	JobDoctor, JobArchitect, JobAreologist, JobTrader,
}

// Role is a position in a settlement's chain of command. The settlement package defines the values.
type Role string
