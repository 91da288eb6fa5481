// Package skeleton turns the day/slot configuration into an ordered set of
// empty sessions per day: the time-slot skeleton that the later pipeline
// stages fill with papers, rooms, and chairs.
//
// Layout is greedy forward placement: fixed items (day start, plenary
// slots, day end) are laid out first, then each break/lunch/dinner item is
// inserted into the free gap whose midpoint is nearest its target time
// among gaps large enough to hold it, and the remaining gaps are
// subdivided into regular sessions no longer than the maximum session
// duration.
package skeleton

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/types"
)

// InfeasibleError reports a skeleton that cannot fit a required reserved
// or break item. Fatal: the pipeline aborts before solving.
type InfeasibleError struct {
	Day    int
	Item   string
	Reason string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("schedule infeasible on day %d: %s: %s", e.Day, e.Item, e.Reason)
}

// Builder constructs the skeleton programme.
type Builder struct {
	cfg     *config.ScheduleConfig
	derived *constraint.Derived
	logger  *zap.Logger
}

// NewBuilder returns a Builder. derived may be nil when no constraints
// exist yet; logger may be nil.
func NewBuilder(cfg *config.ScheduleConfig, derived *constraint.Derived, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, derived: derived, logger: logger}
}

// gap is a free interval of a day, minutes after midnight.
type gap struct {
	start, end int
}

func (g gap) length() int   { return g.end - g.start }
func (g gap) midpoint() int { return (g.start + g.end) / 2 }

// breakItem is one break/lunch/dinner to place into a day.
type breakItem struct {
	kind     types.SlotKind
	subject  constraint.SubjectType
	label    string
	target   int
	duration int
}

// Build generates the skeleton programme covering every configured day.
func (b *Builder) Build() (*types.Program, error) {
	prog := &types.Program{
		Meta: types.Provenance{
			RunID:           uuid.NewString(),
			Stage:           "skeleton",
			NumDays:         b.cfg.NumDays,
			PresentationMin: b.cfg.PresentationMin,
		},
	}

	sessionCounter := 0
	for day := 1; day <= b.cfg.NumDays; day++ {
		dp, err := b.buildDay(day, &sessionCounter)
		if err != nil {
			return nil, err
		}
		prog.Days = append(prog.Days, dp)
	}

	b.logger.Info("skeleton built",
		zap.Int("days", b.cfg.NumDays),
		zap.Int("sessions", sessionCounter))
	return prog, nil
}

func (b *Builder) buildDay(day int, sessionCounter *int) (types.DayProgram, error) {
	dayStart, err := types.ParseClock(b.cfg.EffectiveDayStart(day))
	if err != nil {
		return types.DayProgram{}, err
	}
	dayEnd, err := types.ParseClock(b.cfg.EffectiveDayEnd(day))
	if err != nil {
		return types.DayProgram{}, err
	}

	// Fixed items first: the day's plenary slots, in time order.
	var plenaries []config.PlenarySlot
	for _, ps := range b.cfg.PlenarySlots {
		if ps.Day == day {
			plenaries = append(plenaries, ps)
		}
	}
	sort.Slice(plenaries, func(i, j int) bool {
		si, _ := types.ParseClock(plenaries[i].Start)
		sj, _ := types.ParseClock(plenaries[j].Start)
		return si < sj
	})

	gaps := []gap{{start: dayStart, end: dayEnd}}
	type placed struct {
		slot types.Slot
	}
	var items []placed

	for i, ps := range plenaries {
		start, _ := types.ParseClock(ps.Start)
		end, _ := types.ParseClock(ps.End)
		if start < dayStart || end > dayEnd {
			return types.DayProgram{}, &InfeasibleError{
				Day: day, Item: ps.Label,
				Reason: fmt.Sprintf("plenary %s-%s outside day bounds %s-%s",
					ps.Start, ps.End, types.FormatClock(dayStart), types.FormatClock(dayEnd)),
			}
		}
		var ok bool
		gaps, ok = carve(gaps, start, end)
		if !ok {
			return types.DayProgram{}, &InfeasibleError{
				Day: day, Item: ps.Label,
				Reason: "plenary overlaps another reserved slot",
			}
		}
		ts := types.TimeSlot{
			Start: types.FormatClock(start),
			End:   types.FormatClock(end),
			Kind:  types.SlotPlenary,
			Label: ps.Label,
			Day:   day,
		}
		sess := &types.Session{
			ID:    fmt.Sprintf("P%d_%d", day, i+1),
			Day:   day,
			Slot:  &ts,
			Label: ps.Label,
			Fixed: true,
		}
		items = append(items, placed{slot: types.Slot{Time: ts, Sessions: []*types.Session{sess}}})
	}

	// Break/lunch/dinner items, placed nearest their targets.
	for _, item := range b.breakItems(day) {
		if item.kind == types.SlotDinner && item.target >= dayEnd {
			// Dinner after the scheduled day stands on its own.
			ts := types.TimeSlot{
				Start: types.FormatClock(item.target),
				End:   types.FormatClock(item.target + item.duration),
				Kind:  types.SlotDinner,
				Label: item.label,
				Day:   day,
			}
			items = append(items, placed{slot: types.Slot{Time: ts}})
			continue
		}
		start, newGaps, ok := insertNearest(gaps, item.target, item.duration)
		if !ok {
			return types.DayProgram{}, &InfeasibleError{
				Day: day, Item: item.label,
				Reason: fmt.Sprintf("no free gap of %d minutes", item.duration),
			}
		}
		gaps = newGaps
		ts := types.TimeSlot{
			Start: types.FormatClock(start),
			End:   types.FormatClock(start + item.duration),
			Kind:  item.kind,
			Label: item.label,
			Day:   day,
		}
		items = append(items, placed{slot: types.Slot{Time: ts}})
	}

	// Remaining gaps become regular session slots, chunked to the maximum
	// session duration, with one parallel session per available room.
	parallel := b.cfg.ParallelSessions()
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].start < gaps[j].start })
	for _, g := range gaps {
		cursor := g.start
		for cursor+b.cfg.PresentationMin <= g.end {
			end := cursor + b.cfg.MaxSessionDuration
			if end > g.end {
				end = g.end
			}
			ts := types.TimeSlot{
				Start: types.FormatClock(cursor),
				End:   types.FormatClock(end),
				Kind:  types.SlotSession,
				Day:   day,
			}
			var sessions []*types.Session
			for r := 0; r < parallel; r++ {
				*sessionCounter++
				sid := fmt.Sprintf("S%02d", *sessionCounter)
				sess := &types.Session{ID: sid, Day: day, Slot: &ts}
				if b.derived != nil {
					if label, ok := b.derived.SessionLabels[sid]; ok {
						sess.Label = label
						sess.Fixed = true
					}
				}
				sessions = append(sessions, sess)
			}
			items = append(items, placed{slot: types.Slot{Time: ts, Sessions: sessions}})
			cursor = end
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].slot.Time.StartMinutes() < items[j].slot.Time.StartMinutes()
	})
	dp := types.DayProgram{Day: day}
	for _, it := range items {
		dp.Slots = append(dp.Slots, it.slot)
	}
	return dp, nil
}

// breakItems resolves the day's break/lunch/dinner items with their target
// times, applying per-day constraint overrides.
func (b *Builder) breakItems(day int) []breakItem {
	target := func(subject constraint.SubjectType, fallback string) int {
		if b.derived != nil {
			if byDay, ok := b.derived.MealTimes[subject]; ok {
				if m, ok := byDay[day]; ok {
					return m
				}
			}
		}
		m, _ := types.ParseClock(fallback)
		return m
	}

	var out []breakItem
	if b.cfg.MorningBreak {
		out = append(out, breakItem{
			kind: types.SlotBreak, subject: constraint.SubjectMorningBreak,
			label:  "Morning Break",
			target: target(constraint.SubjectMorningBreak, b.cfg.MorningBreakTarget),
			duration: b.cfg.BreakDuration,
		})
	}
	if b.cfg.LunchIncluded {
		out = append(out, breakItem{
			kind: types.SlotLunch, subject: constraint.SubjectLunch,
			label:  "Lunch",
			target: target(constraint.SubjectLunch, b.cfg.LunchTarget),
			duration: b.cfg.LunchDuration,
		})
	}
	if b.cfg.AfternoonBreak {
		out = append(out, breakItem{
			kind: types.SlotBreak, subject: constraint.SubjectAfternoonBreak,
			label:  "Afternoon Break",
			target: target(constraint.SubjectAfternoonBreak, b.cfg.AfternoonBreakTarget),
			duration: b.cfg.BreakDuration,
		})
	}
	if b.cfg.DinnerIncluded {
		out = append(out, breakItem{
			kind: types.SlotDinner, subject: constraint.SubjectDinner,
			label:  "Conference Dinner",
			target: target(constraint.SubjectDinner, b.cfg.DinnerStart),
			duration: 120,
		})
	}
	return out
}

// carve removes [start, end) from the gap list. Fails when the interval is
// not fully inside a single free gap.
func carve(gaps []gap, start, end int) ([]gap, bool) {
	for i, g := range gaps {
		if start >= g.start && end <= g.end {
			out := append([]gap(nil), gaps[:i]...)
			if start > g.start {
				out = append(out, gap{g.start, start})
			}
			if end < g.end {
				out = append(out, gap{end, g.end})
			}
			return append(out, gaps[i+1:]...), true
		}
	}
	return gaps, false
}

// insertNearest places an item of the given duration into the gap whose
// midpoint is nearest the target time, among gaps large enough to hold it.
// Within the chosen gap the item is centered on the target as far as the
// gap allows. Ties go to the earlier gap. Returns the item's start time
// and the updated gap list.
func insertNearest(gaps []gap, target, duration int) (int, []gap, bool) {
	sorted := append([]gap(nil), gaps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	best := -1
	bestDist := 0
	for i, g := range sorted {
		if g.length() < duration {
			continue
		}
		dist := g.midpoint() - target
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return 0, gaps, false
	}

	g := sorted[best]
	start := target - duration/2
	if start < g.start {
		start = g.start
	}
	if start+duration > g.end {
		start = g.end - duration
	}

	out, _ := carve(sorted, start, start+duration)
	return start, out, true
}
