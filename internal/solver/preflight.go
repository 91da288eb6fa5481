package solver

import (
	"fmt"
	"strings"

	"progman/internal/config"
	"progman/internal/types"
)

// CapacityReport is the result of the pre-flight capacity check run before
// the solver commits to search. An insufficient report is non-fatal when
// the caller forces the run; at most TotalCapacity papers get assigned.
type CapacityReport struct {
	Papers        int
	Sessions      int
	TotalCapacity int
	// Deficit > 0 means not enough capacity for every paper.
	Deficit     int
	Suggestions []string
}

// Feasible reports whether every paper fits.
func (r *CapacityReport) Feasible() bool { return r.Deficit <= 0 }

// Summary renders the report for display.
func (r *CapacityReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Papers to assign   : %d\n", r.Papers)
	fmt.Fprintf(&b, "Available sessions : %d\n", r.Sessions)
	fmt.Fprintf(&b, "Total capacity     : %d papers\n", r.TotalCapacity)
	if r.Feasible() {
		fmt.Fprintf(&b, "Status             : OK (surplus of %d slots)", -r.Deficit)
	} else {
		fmt.Fprintf(&b, "Status             : INSUFFICIENT (deficit of %d papers)\n\n", r.Deficit)
		b.WriteString("Suggestions to resolve:\n")
		for i, s := range r.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}
	return b.String()
}

// CheckCapacity compares the programme's regular-session capacity against
// the paper count and, on a shortfall, suggests concrete remediations.
func CheckCapacity(prog *types.Program, numPapers int, cfg *config.ScheduleConfig) *CapacityReport {
	total := 0
	sessions := 0
	for _, s := range prog.Sessions() {
		if s.Fixed {
			continue
		}
		total += s.Capacity(cfg.PresentationMin)
		sessions++
	}

	report := &CapacityReport{
		Papers:        numPapers,
		Sessions:      sessions,
		TotalCapacity: total,
		Deficit:       numPapers - total,
	}
	if report.Deficit <= 0 {
		return report
	}

	pps := cfg.PapersPerSession()
	if pps < 1 {
		pps = 1
	}
	extraSessions := (report.Deficit + pps - 1) / pps
	extraRooms := (extraSessions + cfg.NumDays - 1) / cfg.NumDays
	shorter := cfg.PresentationMin - 5
	if shorter < 5 {
		shorter = 5
	}
	report.Suggestions = []string{
		fmt.Sprintf("increase num_available_rooms / max_rooms_per_day (~%d more rooms would cover the deficit)", extraRooms),
		"increase num_days",
		fmt.Sprintf("reduce presentation_duration_min (currently %d min; %d min would give ~%d capacity)",
			cfg.PresentationMin, shorter, total*cfg.PresentationMin/shorter),
		"extend day_start / day_end to add session time",
		"remove or shorten breaks (morning_break, afternoon_break, lunch)",
	}
	return report
}
