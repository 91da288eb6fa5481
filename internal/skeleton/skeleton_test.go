package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/types"
)

func buildDefault(t *testing.T, cfg *config.ScheduleConfig, texts ...string) *types.Program {
	t.Helper()
	var derived *constraint.Derived
	if len(texts) > 0 {
		store, err := constraint.NewStore(texts)
		require.NoError(t, err)
		derived, err = store.Derive()
		require.NoError(t, err)
	}
	prog, err := NewBuilder(cfg, derived, nil).Build()
	require.NoError(t, err)
	return prog
}

func TestBuildDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	prog := buildDefault(t, cfg)

	require.Len(t, prog.Days, cfg.NumDays)
	assert.Equal(t, "skeleton", prog.Meta.Stage)
	assert.NotEmpty(t, prog.Meta.RunID)
	assert.Equal(t, cfg.NumDays, prog.Meta.NumDays)

	for _, dayProg := range prog.Days {
		var kinds []types.SlotKind
		prevEnd := 0
		for _, slot := range dayProg.Slots {
			kinds = append(kinds, slot.Time.Kind)
			// Slots are ordered and never overlap.
			assert.GreaterOrEqual(t, slot.Time.StartMinutes(), prevEnd)
			prevEnd = slot.Time.EndMinutes()
			// Everything inside day bounds.
			dayStart, _ := types.ParseClock(cfg.DayStart)
			dayEnd, _ := types.ParseClock(cfg.DayEnd)
			assert.GreaterOrEqual(t, slot.Time.StartMinutes(), dayStart)
			assert.LessOrEqual(t, slot.Time.EndMinutes(), dayEnd)
		}
		assert.Contains(t, kinds, types.SlotBreak)
		assert.Contains(t, kinds, types.SlotLunch)
		assert.Contains(t, kinds, types.SlotSession)
	}

	// Every session slot holds one session per parallel room, and sessions
	// never exceed the maximum duration.
	for _, sess := range prog.Sessions() {
		assert.LessOrEqual(t, sess.Slot.DurationMinutes(), cfg.MaxSessionDuration)
		assert.GreaterOrEqual(t, sess.Slot.DurationMinutes(), cfg.PresentationMin)
	}
}

func TestSessionIDsGloballyUnique(t *testing.T) {
	prog := buildDefault(t, config.DefaultConfig())
	seen := make(map[string]bool)
	for _, sess := range prog.AllSessions() {
		assert.False(t, seen[sess.ID], "duplicate session id %s", sess.ID)
		seen[sess.ID] = true
	}
}

func TestBreakNearTarget(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NumDays = 1
	prog := buildDefault(t, cfg)

	lunchTarget, _ := types.ParseClock(cfg.LunchTarget)
	found := false
	for _, slot := range prog.Days[0].Slots {
		if slot.Time.Kind != types.SlotLunch {
			continue
		}
		found = true
		mid := (slot.Time.StartMinutes() + slot.Time.EndMinutes()) / 2
		dist := mid - lunchTarget
		if dist < 0 {
			dist = -dist
		}
		// Centered on the target within an hour of slack.
		assert.LessOrEqual(t, dist, 60)
	}
	assert.True(t, found)
}

func TestMealTimeConstraintOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NumDays = 2
	prog := buildDefault(t, cfg, "lunch_2 = 13:00")

	lunchStart := func(day int) int {
		for _, slot := range prog.Days[day-1].Slots {
			if slot.Time.Kind == types.SlotLunch {
				return slot.Time.StartMinutes()
			}
		}
		t.Fatalf("no lunch on day %d", day)
		return 0
	}
	// Day 2 lunch is pulled toward 13:00, day 1 keeps the default target.
	assert.Greater(t, lunchStart(2), lunchStart(1))
}

func TestPlenaryCarving(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NumDays = 1
	cfg.PlenarySlots = []config.PlenarySlot{
		{Label: "Opening Keynote", Day: 1, Start: "09:00", End: "10:00"},
	}
	prog := buildDefault(t, cfg)

	first := prog.Days[0].Slots[0]
	assert.Equal(t, types.SlotPlenary, first.Time.Kind)
	assert.Equal(t, "09:00", first.Time.Start)
	require.Len(t, first.Sessions, 1)
	assert.True(t, first.Sessions[0].Fixed)
	assert.Equal(t, "Opening Keynote", first.Sessions[0].Label)

	// No regular session overlaps the plenary.
	for _, sess := range prog.Sessions() {
		assert.False(t, sess.Slot.Overlaps(&first.Time),
			"session %s overlaps the plenary", sess.ID)
	}
}

func TestPlenaryOutsideDayBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PlenarySlots = []config.PlenarySlot{
		{Label: "Late Show", Day: 1, Start: "18:00", End: "19:00"},
	}
	_, err := NewBuilder(cfg, nil, nil).Build()
	require.Error(t, err)
	var ierr *InfeasibleError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 1, ierr.Day)
}

func TestOverlappingPlenariesInfeasible(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PlenarySlots = []config.PlenarySlot{
		{Label: "A", Day: 1, Start: "09:00", End: "10:00"},
		{Label: "B", Day: 1, Start: "09:30", End: "10:30"},
	}
	_, err := NewBuilder(cfg, nil, nil).Build()
	var ierr *InfeasibleError
	require.ErrorAs(t, err, &ierr)
}

func TestSessionLabelConstraint(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NumDays = 1
	prog := buildDefault(t, cfg, `section_S01 = "Hot Topics"`)

	sess := prog.SessionByID("S01")
	require.NotNil(t, sess)
	assert.Equal(t, "Hot Topics", sess.Label)
	assert.True(t, sess.Fixed)
}

func TestFirstAndLastDayOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FirstDayStart = "11:00"
	cfg.LastDayEnd = "15:00"
	prog := buildDefault(t, cfg)

	day1Start, _ := types.ParseClock("11:00")
	for _, slot := range prog.Days[0].Slots {
		assert.GreaterOrEqual(t, slot.Time.StartMinutes(), day1Start)
	}
	lastEnd, _ := types.ParseClock("15:00")
	last := prog.Days[len(prog.Days)-1]
	for _, slot := range last.Slots {
		assert.LessOrEqual(t, slot.Time.EndMinutes(), lastEnd)
	}
}

func TestDinnerAfterDayEndStandsAlone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NumDays = 1
	cfg.DinnerIncluded = true
	cfg.DinnerStart = "19:00"
	prog := buildDefault(t, cfg)

	last := prog.Days[0].Slots[len(prog.Days[0].Slots)-1]
	assert.Equal(t, types.SlotDinner, last.Time.Kind)
	assert.Equal(t, "19:00", last.Time.Start)
}
