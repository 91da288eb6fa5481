package chairs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progman/internal/types"
)

func slotWith(day int, start, end string, sessions ...*types.Session) types.Slot {
	ts := types.TimeSlot{Start: start, End: end, Kind: types.SlotSession, Day: day}
	for _, s := range sessions {
		s.Slot = &ts
		s.Day = day
	}
	return types.Slot{Time: ts, Sessions: sessions}
}

func roster(n int) []types.Chair {
	chairs := make([]types.Chair, n)
	for i := range chairs {
		chairs[i] = types.Chair{
			ID:           i + 1,
			Name:         fmt.Sprintf("Chair %d", i+1),
			ArrivalDay:   1,
			DepartureDay: types.NoDepartureLimit,
		}
	}
	return chairs
}

func TestEverySessionGetsAChair(t *testing.T) {
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "09:00", "10:30", &types.Session{ID: "S01"}, &types.Session{ID: "S02"}),
		},
	}}}

	out := New(nil).Assign(prog, roster(3), nil)
	for _, sess := range out.Sessions() {
		require.NotNil(t, sess.Chair, "session %s has no chair", sess.ID)
	}
	// No chair covers two sessions in the same slot.
	sessions := out.Sessions()
	assert.NotEqual(t, sessions[0].Chair.ID, sessions[1].Chair.ID)
	assert.Equal(t, "chairs", out.Meta.Stage)
	assert.Empty(t, out.Meta.ChairWarnings)
}

func TestSimpleRosterRoundRobin(t *testing.T) {
	// Three sequential slots, two chairs: load balancing alternates them.
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "09:00", "10:00", &types.Session{ID: "S01"}),
			slotWith(1, "10:30", "11:30", &types.Session{ID: "S02"}),
			slotWith(1, "12:00", "13:00", &types.Session{ID: "S03"}),
		},
	}}}

	out := New(nil).Assign(prog, roster(2), nil)
	sessions := out.Sessions()
	assert.Equal(t, 1, sessions[0].Chair.ID)
	assert.Equal(t, 2, sessions[1].Chair.ID)
	assert.Equal(t, 1, sessions[2].Chair.ID)
}

func TestChairAbsentOnDay(t *testing.T) {
	prog := &types.Program{Days: []types.DayProgram{{
		Day:   2,
		Slots: []types.Slot{slotWith(2, "09:00", "10:00", &types.Session{ID: "S01"})},
	}}}
	chairs := []types.Chair{
		{ID: 1, Name: "Early Leaver", ArrivalDay: 1, DepartureDay: 1},
		{ID: 2, Name: "Stayer", ArrivalDay: 1, DepartureDay: 3},
	}

	out := New(nil).Assign(prog, chairs, nil)
	assert.Equal(t, 2, out.Sessions()[0].Chair.ID)
}

func TestChairNeverChairsOwnPaper(t *testing.T) {
	paper := types.Paper{
		ID:      1,
		Authors: []types.Author{{Name: "Ada Duarte", Email: "ada@example.org"}},
		PrefIDs: []int{4},
	}
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "09:00", "10:00", &types.Session{ID: "S01", Papers: []types.Paper{paper}}),
		},
	}}}
	chairs := []types.Chair{
		{ID: 1, Name: "Ada Duarte", Email: "ada@example.org", ArrivalDay: 1, DepartureDay: 9},
		{ID: 2, Name: "Ben Okafor", Email: "ben@example.org", ArrivalDay: 1, DepartureDay: 9},
	}

	out := New(nil).Assign(prog, chairs, []types.Paper{paper})
	assert.Equal(t, 2, out.Sessions()[0].Chair.ID)
}

func TestChairNotChairingWhilePresentingInParallel(t *testing.T) {
	paper := types.Paper{
		ID:      1,
		Authors: []types.Author{{Name: "Ada Duarte", Email: "ada@example.org"}},
	}
	// Ada presents in S01; she cannot chair S02 in the same slot.
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "09:00", "10:00",
				&types.Session{ID: "S01", Papers: []types.Paper{paper}},
				&types.Session{ID: "S02"}),
		},
	}}}
	chairs := []types.Chair{
		{ID: 1, Name: "Ada Duarte", Email: "ada@example.org", ArrivalDay: 1, DepartureDay: 9},
		{ID: 2, Name: "Ben Okafor", Email: "ben@example.org", ArrivalDay: 1, DepartureDay: 9},
		{ID: 3, Name: "Chen Wei", Email: "chen@example.org", ArrivalDay: 1, DepartureDay: 9},
	}

	out := New(nil).Assign(prog, chairs, []types.Paper{paper})
	for _, sess := range out.Sessions() {
		require.NotNil(t, sess.Chair)
		assert.NotEqual(t, 1, sess.Chair.ID, "presenting chair assigned in session %s", sess.ID)
	}
}

func TestTopicAffinityPreferred(t *testing.T) {
	paper := types.Paper{
		ID:      1,
		Authors: []types.Author{{Name: "Ben Okafor", Email: "ben@example.org"}},
		PrefIDs: []int{7},
	}
	// Ben's own paper prefers topic 7, so he chairs the topic 7 session in
	// a later slot even though chair 1 is otherwise first.
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "11:00", "12:00",
				&types.Session{ID: "S02", Topic: &types.Topic{ID: 7}}),
		},
	}}}
	chairs := []types.Chair{
		{ID: 1, Name: "Ada Duarte", Email: "ada@example.org", ArrivalDay: 1, DepartureDay: 9},
		{ID: 2, Name: "Ben Okafor", Email: "ben@example.org", ArrivalDay: 1, DepartureDay: 9},
	}

	out := New(nil).Assign(prog, chairs, []types.Paper{paper})
	assert.Equal(t, 2, out.Sessions()[0].Chair.ID)
}

func TestNoEligibleChairWarns(t *testing.T) {
	prog := &types.Program{Days: []types.DayProgram{{
		Day:   2,
		Slots: []types.Slot{slotWith(2, "09:00", "10:00", &types.Session{ID: "S01"})},
	}}}
	chairs := []types.Chair{{ID: 1, Name: "Gone", ArrivalDay: 1, DepartureDay: 1}}

	out := New(nil).Assign(prog, chairs, nil)
	assert.Nil(t, out.Sessions()[0].Chair)
	require.Len(t, out.Meta.ChairWarnings, 1)
	assert.Contains(t, out.Meta.ChairWarnings[0], "S01")
}

func TestReassignmentIsIdempotent(t *testing.T) {
	prog := &types.Program{Days: []types.DayProgram{{
		Day: 1,
		Slots: []types.Slot{
			slotWith(1, "09:00", "10:00", &types.Session{ID: "S01"}, &types.Session{ID: "S02"}),
			slotWith(1, "10:30", "11:30", &types.Session{ID: "S03"}),
		},
	}}}

	first := New(nil).Assign(prog, roster(3), nil)
	second := New(nil).Assign(first, roster(3), nil)

	a, b := first.Sessions(), second.Sessions()
	require.Len(t, b, len(a))
	for i := range a {
		require.NotNil(t, a[i].Chair)
		require.NotNil(t, b[i].Chair)
		assert.Equal(t, a[i].Chair.ID, b[i].Chair.ID, "session %s changed chair on re-run", a[i].ID)
	}
}

func TestInferTopics(t *testing.T) {
	papers := []types.Paper{
		{ID: 1, PrefIDs: []int{3, 5}, Authors: []types.Author{{Name: "Ada Duarte", Email: "ADA@example.org"}}},
		{ID: 2, PrefIDs: []int{5, 9}, Authors: []types.Author{{Name: "Ada Duarte"}}},
	}
	roster := []types.Chair{{ID: 1, Name: "ada duarte", Email: "ada@example.org"}}

	InferTopics(roster, papers)
	assert.Equal(t, []int{3, 5, 9}, roster[0].TopicIDs)
}

func TestNoChairsIsNoOp(t *testing.T) {
	prog := &types.Program{Days: []types.DayProgram{{
		Day:   1,
		Slots: []types.Slot{slotWith(1, "09:00", "10:00", &types.Session{ID: "S01"})},
	}}}
	out := New(nil).Assign(prog, nil, nil)
	assert.Nil(t, out.Sessions()[0].Chair)
}
