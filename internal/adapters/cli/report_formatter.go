package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/andrescamacho/colonysim/internal/application/simulation/queries"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
)

// ReportFormatter renders settlement reports and mission lists as trees
type ReportFormatter struct {
	useColors bool

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	faint   *color.Color
}

// NewReportFormatter creates a formatter. With useColors false the output is plain text.
func NewReportFormatter(useColors bool) *ReportFormatter {
	f := &ReportFormatter{
		useColors: useColors,
		heading:   color.New(color.FgCyan, color.Bold),
		good:      color.New(color.FgGreen),
		warn:      color.New(color.FgYellow),
		faint:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{f.heading, f.good, f.warn, f.faint} {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// FormatSettlement renders one settlement report
func (f *ReportFormatter) FormatSettlement(r *queries.SettlementReport) string {
	if r == nil {
		return "(no settlement)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", f.heading.Sprint(r.Name), f.faint.Sprintf("[%s] %s", r.ID, r.Time))

	f.writeGovernance(&b, r, "", false)
	f.writeResidents(&b, r, "", false)
	f.writeResources(&b, r, "", false)
	f.writeInfrastructure(&b, r, "", true)
	return b.String()
}

func (f *ReportFormatter) writeGovernance(b *strings.Builder, r *queries.SettlementReport, prefix string, last bool) {
	structure := string(r.Structure)
	if r.Structure == settlement.StructureSevenDivision {
		structure = f.good.Sprint(structure)
	}
	fmt.Fprintf(b, "%sGovernance: %s, shifts %s\n", branch(prefix, last), structure, strings.Join(r.Shifts, "/"))
}

func (f *ReportFormatter) writeResidents(b *strings.Builder, r *queries.SettlementReport, prefix string, last bool) {
	fmt.Fprintf(b, "%sResidents: %d people, %d robots\n", branch(prefix, last), r.Population, r.Robots)
	child := childPrefix(prefix, last)
	for i, p := range r.Residents {
		activity := f.faint.Sprint("idle")
		switch {
		case p.MissionID != "":
			activity = f.warn.Sprintf("on mission %s", shortID(p.MissionID))
		case p.Task != "":
			activity = f.good.Sprint(p.Task)
		}
		role := ""
		if p.Role != "" {
			role = fmt.Sprintf(", %s", p.Role)
		}
		fmt.Fprintf(b, "%s%s (%s%s, shift %s): %s\n",
			branch(child, i == len(r.Residents)-1), p.Name, p.Job, role, p.Shift, activity)
	}
}

func (f *ReportFormatter) writeResources(b *strings.Builder, r *queries.SettlementReport, prefix string, last bool) {
	fmt.Fprintf(b, "%sResources:\n", branch(prefix, last))
	child := childPrefix(prefix, last)
	keys := make([]string, 0, len(r.Resources))
	for res := range r.Resources {
		keys = append(keys, string(res))
	}
	sort.Strings(keys)
	for i, k := range keys {
		amount := r.Resources[settlement.ResourceType(k)]
		text := fmt.Sprintf("%.1f kg", amount)
		if amount <= 0 {
			text = f.warn.Sprint(text)
		}
		fmt.Fprintf(b, "%s%s: %s\n", branch(child, i == len(keys)-1), k, text)
	}
}

func (f *ReportFormatter) writeInfrastructure(b *strings.Builder, r *queries.SettlementReport, prefix string, last bool) {
	fmt.Fprintf(b, "%sInfrastructure:\n", branch(prefix, last))
	child := childPrefix(prefix, last)

	equipment := make([]string, 0, len(r.Equipment))
	for t, n := range r.Equipment {
		equipment = append(equipment, fmt.Sprintf("%s x%d", t, n))
	}
	sort.Strings(equipment)

	lines := []string{
		fmt.Sprintf("Buildings: %d (%d under construction)", r.Buildings, r.ConstructionSites),
		fmt.Sprintf("Vehicles: %d parked of %d [%s]", r.ParkedVehicles, len(r.Vehicles), strings.Join(r.Vehicles, ", ")),
		fmt.Sprintf("Equipment: %s", strings.Join(equipment, ", ")),
		fmt.Sprintf("Meals cooked: %d", r.MealsCooked),
	}
	for i, line := range lines {
		fmt.Fprintf(b, "%s%s\n", branch(child, i == len(lines)-1), line)
	}
}

// FormatMissions renders mission snapshots, one per line with members below
func (f *ReportFormatter) FormatMissions(missions []mission.Snapshot) string {
	if len(missions) == 0 {
		return f.faint.Sprint("No missions") + "\n"
	}

	var b strings.Builder
	for _, m := range missions {
		status := f.good.Sprint(m.Phase)
		if m.Done {
			status = f.faint.Sprintf("ENDED: %s", m.Reason)
		}
		fmt.Fprintf(&b, "%s %s [%s] %s\n", f.heading.Sprint(m.Name), f.faint.Sprint(shortID(m.ID)), m.Type, status)
		if m.VehicleID != "" {
			fmt.Fprintf(&b, "├── vehicle %s, navpoint %d\n", m.VehicleID, m.NavIndex)
		}
		fmt.Fprintf(&b, "└── members: %s\n", strings.Join(m.Members, ", "))
	}
	return b.String()
}

// FormatMissionSummary creates a compact one-line summary
func (f *ReportFormatter) FormatMissionSummary(missions []mission.Snapshot) string {
	active, ended := 0, 0
	for _, m := range missions {
		if m.Done {
			ended++
		} else {
			active++
		}
	}
	return fmt.Sprintf("Missions: %d active, %d ended", active, ended)
}

func branch(prefix string, last bool) string {
	if last {
		return prefix + "└── "
	}
	return prefix + "├── "
}

func childPrefix(prefix string, last bool) string {
	if last {
		return prefix + "    "
	}
	return prefix + "│   "
}

// shortID keeps the random tail of an entity ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
