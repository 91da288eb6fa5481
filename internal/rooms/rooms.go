// Package rooms assigns physical rooms to a programme's sessions. Plenary
// sessions take the largest room; regular sessions are matched to rooms by
// expected audience size, with topic-to-room continuity across consecutive
// slots so an audience following one topic does not have to move.
package rooms

import (
	"sort"

	"go.uber.org/zap"

	"progman/internal/constraint"
	"progman/internal/types"
)

// Assigner is the room assignment stage.
type Assigner struct {
	logger *zap.Logger
}

// New creates an Assigner. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{logger: logger}
}

// topicPopularity counts how many papers name each topic as their first
// preference.
func topicPopularity(papers []types.Paper) map[int]int {
	pop := make(map[int]int)
	for _, p := range papers {
		if top := p.TopPref(); top != 0 {
			pop[top]++
		}
	}
	return pop
}

// sessionPopularity estimates the audience for a session: assigned papers
// when present, topic popularity otherwise.
func sessionPopularity(sess *types.Session, pop map[int]int) int {
	if len(sess.Papers) > 0 {
		return len(sess.Papers)
	}
	if sess.Topic != nil {
		return pop[sess.Topic.ID]
	}
	return 0
}

// Assign pairs every session with a room and returns a new programme; the
// input is never mutated. Existing room assignments are cleared first, so
// re-running the stage is safe. Without any rooms the stage is a no-op.
func (a *Assigner) Assign(prog *types.Program, roomList []types.Room,
	papers []types.Paper, derived *constraint.Derived) *types.Program {

	out := prog.Clone()
	if len(roomList) == 0 {
		a.logger.Warn("no rooms provided, skipping room assignment")
		return out
	}
	if derived == nil {
		derived = &constraint.Derived{}
	}

	for _, sess := range out.AllSessions() {
		sess.Room = nil
	}

	pop := topicPopularity(papers)

	// Largest rooms first; equal capacities break on id so reruns agree.
	sorted := append([]types.Room(nil), roomList...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Capacity != sorted[j].Capacity {
			return sorted[i].Capacity > sorted[j].Capacity
		}
		return sorted[i].ID < sorted[j].ID
	})

	// Topic id to the room it last used, for continuity across slots.
	prevRoom := make(map[int]types.Room)

	for _, dayProg := range out.Days {
		day := dayProg.Day

		available := make([]types.Room, 0, len(sorted))
		for _, r := range sorted {
			if days, ok := derived.RoomDays[r.Name]; ok && !containsInt(days, day) {
				continue
			}
			available = append(available, r)
		}
		if len(available) == 0 {
			available = sorted
		}

		for _, slot := range dayProg.Slots {
			if slot.Time.Kind == types.SlotPlenary {
				for _, sess := range slot.Sessions {
					if sess.Room == nil {
						r := available[0]
						sess.Room = &r
					}
				}
				continue
			}
			if slot.Time.Kind != types.SlotSession {
				continue
			}

			sessions := append([]*types.Session(nil), slot.Sessions...)
			sort.Slice(sessions, func(i, j int) bool { return types.SessionIDLess(sessions[i].ID, sessions[j].ID) })
			used := make(map[int]bool)

			// First pass: keep a topic in the room it occupied last time,
			// when that room is free and big enough for the audience.
			for _, sess := range sessions {
				if sess.Topic == nil {
					continue
				}
				r, ok := prevRoom[sess.Topic.ID]
				if !ok || used[r.ID] || !roomAvailable(available, r.ID) {
					continue
				}
				if r.Capacity > 0 && sessionPopularity(sess, pop) > r.Capacity {
					continue
				}
				room := r
				sess.Room = &room
				used[r.ID] = true
			}

			// Second pass: busiest leftover sessions take the largest
			// leftover rooms.
			var unassigned []*types.Session
			for _, sess := range sessions {
				if sess.Room == nil {
					unassigned = append(unassigned, sess)
				}
			}
			sort.SliceStable(unassigned, func(i, j int) bool {
				return sessionPopularity(unassigned[i], pop) > sessionPopularity(unassigned[j], pop)
			})
			var free []types.Room
			for _, r := range available {
				if !used[r.ID] {
					free = append(free, r)
				}
			}
			for i, sess := range unassigned {
				if i >= len(free) {
					a.logger.Warn("not enough rooms for parallel sessions",
						zap.String("session", sess.ID), zap.Int("day", day))
					break
				}
				room := free[i]
				sess.Room = &room
				used[room.ID] = true
			}

			for _, sess := range sessions {
				if sess.Topic != nil && sess.Room != nil {
					prevRoom[sess.Topic.ID] = *sess.Room
				}
			}
		}
	}

	out.Meta.Stage = "rooms"
	a.logger.Info("rooms assigned", zap.Int("rooms", len(roomList)))
	return out
}

func roomAvailable(rooms []types.Room, id int) bool {
	for _, r := range rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
