package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progman/internal/types"
)

func mustStore(t *testing.T, texts ...string) *Store {
	t.Helper()
	store, err := NewStore(texts)
	require.NoError(t, err)
	return store
}

func TestDeriveForcedAndForbidden(t *testing.T) {
	store := mustStore(t,
		"paper_1 = day_2",
		"paper_1 in {day_2, day_3}",
		"paper_2 != S01",
		"paper_3 not_in {day_1}",
	)
	d, err := store.Derive()
	require.NoError(t, err)

	// One allowed-set per constraint: paper 1 must satisfy both.
	require.Len(t, d.PaperDaySets[1], 2)
	assert.Equal(t, []int{2}, d.PaperDaySets[1][0])
	assert.Equal(t, []int{2, 3}, d.PaperDaySets[1][1])

	assert.Equal(t, []string{"S01"}, d.PaperNotSessions[2])
	assert.Equal(t, []int{1}, d.PaperNotDays[3])

	forced, ok := d.Forced("paper_1")
	require.True(t, ok)
	assert.Equal(t, []string{"day_2", "day_2", "day_3"}, forced)
	assert.Equal(t, []string{"S01"}, d.Forbidden("paper_2"))

	assert.Equal(t, []string{"C001", "C002"}, d.SourceIDs["paper_1"])
}

func TestDeriveEqualityGroupsTransitive(t *testing.T) {
	// 4=7 and 7=9 must close into one group; 2=5 stays separate.
	store := mustStore(t,
		"paper_4 = paper_7",
		"paper_7 = paper_9",
		"paper_2 = paper_5",
	)
	d, err := store.Derive()
	require.NoError(t, err)

	require.Len(t, d.Groups, 2)
	assert.Equal(t, []int{2, 5}, d.Groups[0])
	assert.Equal(t, []int{4, 7, 9}, d.Groups[1])
}

func TestDeriveNoEqualityConstraints(t *testing.T) {
	store := mustStore(t, "paper_1 = day_1")
	d, err := store.Derive()
	require.NoError(t, err)
	assert.Empty(t, d.EqualityGroups())
}

func TestDerivePrecedenceAndMeals(t *testing.T) {
	store := mustStore(t,
		"paper_3 < paper_8",
		"lunch_2 = 12:30",
		"morning_break_1 = 10:45",
		"room_Aula in {day_1, day_2}",
		`section_S01 = "Opening"`,
	)
	d, err := store.Derive()
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{3, 8}}, d.PrecedenceEdges())
	assert.Equal(t, 750, d.MealTimes[SubjectLunch][2])
	assert.Equal(t, 645, d.MealTimes[SubjectMorningBreak][1])
	assert.Equal(t, []int{1, 2}, d.RoomDays["Aula"])
	assert.Equal(t, "Opening", d.SessionLabels["S01"])
}

func TestValidateUnresolvableSubjects(t *testing.T) {
	papers := []types.Paper{{ID: 1}, {ID: 2}}
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{{
			Time: types.TimeSlot{Start: "09:00", End: "10:30", Kind: types.SlotSession, Day: 1},
			Sessions: []*types.Session{
				{ID: "S01", Day: 1, Slot: &types.TimeSlot{Start: "09:00", End: "10:30", Kind: types.SlotSession, Day: 1}},
			},
		}},
	}}}
	rooms := []types.Room{{ID: 1, Name: "Aula", Capacity: 100}}

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"known paper", "paper_1 = day_1", false},
		{"unknown paper", "paper_99 = day_1", true},
		{"unknown paper value", "paper_1 = paper_99", true},
		{"known session", `section_S01 = "Opening"`, false},
		{"unknown session", `section_S99 = "Opening"`, true},
		{"unknown session value", "paper_1 = S99", true},
		{"known room", "room_Aula = day_1", false},
		{"unknown room", "room_Basement = day_1", true},
		{"meal day in range", "lunch_1 = 12:30", false},
		{"meal day out of range", "lunch_9 = 12:30", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mustStore(t, tt.text)
			err := store.Validate(prog, papers, rooms, 3)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
