// Package types provides the shared data model used across progman packages:
// papers, topics, rooms, chairs, sessions, and the Program aggregate that the
// pipeline stages hand from one to the next. Types here are foundational data
// structures with no dependencies on the stages that consume them.
package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// SLOT KINDS
// =============================================================================

// SlotKind classifies a time slot in the programme.
type SlotKind string

const (
	SlotSession SlotKind = "session"
	SlotBreak   SlotKind = "break"
	SlotLunch   SlotKind = "lunch"
	SlotDinner  SlotKind = "dinner"
	SlotPlenary SlotKind = "plenary"
)

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

// Author is a single paper author.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Department  string `json:"department,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Topic is one entry of the static topic reference set.
type Topic struct {
	ID   int    `json:"topic_id"`
	Name string `json:"name"`
}

// Room is one entry of the optional room reference set.
type Room struct {
	ID       int    `json:"room_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// NoDepartureLimit marks a chair present until the end of the event.
const NoDepartureLimit = 999

// Chair is one entry of the optional chair roster.
// ArrivalDay/DepartureDay bound the days the chair is present; the simple
// roster format (id;name only) leaves them at 1 and NoDepartureLimit.
type Chair struct {
	ID           int    `json:"chair_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ArrivalDay   int    `json:"arrival_day"`
	DepartureDay int    `json:"departure_day"`
	// TopicIDs is inferred from the chair's own papers by matching email or
	// name against paper author fields. Never loaded from the roster file.
	TopicIDs []int `json:"topic_ids,omitempty"`
}

// Available reports whether the chair is present on the given day.
func (c *Chair) Available(day int) bool {
	return day >= c.ArrivalDay && day <= c.DepartureDay
}

// Paper is one submitted paper. Immutable once loaded.
type Paper struct {
	ID        int      `json:"paper_id"`
	Title     string   `json:"title"`
	Authors   []Author `json:"authors,omitempty"`
	CorrEmail string   `json:"corr_email,omitempty"`
	// PrefIDs is the ordered topic preference list; index 0 is rank 1.
	PrefIDs []int  `json:"pref_ids,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// TopPref returns the rank-1 topic preference, or 0 when none is given.
func (p *Paper) TopPref() int {
	if len(p.PrefIDs) == 0 {
		return 0
	}
	return p.PrefIDs[0]
}

// AuthorEmails returns the lowercase set of all author emails on the paper.
func (p *Paper) AuthorEmails() map[string]bool {
	emails := make(map[string]bool)
	for _, a := range p.Authors {
		if a.Email != "" {
			emails[strings.ToLower(a.Email)] = true
		}
	}
	return emails
}

// =============================================================================
// TIME SLOTS
// =============================================================================

// TimeSlot is a day+time window. Start and End are wall-clock "HH:MM".
type TimeSlot struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Kind  SlotKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	Day   int      `json:"day"`
}

// StartMinutes returns the start time as minutes after midnight.
func (t *TimeSlot) StartMinutes() int {
	m, _ := ParseClock(t.Start)
	return m
}

// EndMinutes returns the end time as minutes after midnight.
func (t *TimeSlot) EndMinutes() int {
	m, _ := ParseClock(t.End)
	return m
}

// DurationMinutes returns the slot length in minutes.
func (t *TimeSlot) DurationMinutes() int {
	return t.EndMinutes() - t.StartMinutes()
}

// Overlaps reports whether two slots on the same day share any time.
func (t *TimeSlot) Overlaps(o *TimeSlot) bool {
	if t.Day != o.Day {
		return false
	}
	return t.StartMinutes() < o.EndMinutes() && o.StartMinutes() < t.EndMinutes()
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes after midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// =============================================================================
// SESSIONS
// =============================================================================

// Session is a scheduled time block. Regular sessions hold papers; plenary
// sessions are reserved and never receive papers. Created by the skeleton
// builder, mutated by every later stage, never destroyed mid-run.
type Session struct {
	ID     string    `json:"session_id"`
	Day    int       `json:"day"`
	Slot   *TimeSlot `json:"time_slot,omitempty"`
	Topic  *Topic    `json:"topic,omitempty"`
	Room   *Room     `json:"room,omitempty"`
	Chair  *Chair    `json:"chair,omitempty"`
	Papers []Paper   `json:"papers,omitempty"`
	Label  string    `json:"label,omitempty"`
	// Fixed marks plenary/reserved sessions that the solver must not fill.
	Fixed bool `json:"is_fixed,omitempty"`
}

// Capacity returns how many presentations of the given duration fit into
// the session's slot.
func (s *Session) Capacity(presentationMin int) int {
	if s.Slot == nil || presentationMin <= 0 {
		return 0
	}
	return s.Slot.DurationMinutes() / presentationMin
}

// SessionIDLess orders session ids by their creation order. Ids share a
// prefix and end in a decimal counter padded to two digits ("S01", "S100"),
// so a shorter id always sorts first and equal lengths compare as strings.
func SessionIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// HasPaper reports whether the given paper id is assigned to this session.
func (s *Session) HasPaper(paperID int) bool {
	for _, p := range s.Papers {
		if p.ID == paperID {
			return true
		}
	}
	return false
}

// clone returns a deep copy of the session.
func (s *Session) clone() *Session {
	cp := *s
	if s.Slot != nil {
		ts := *s.Slot
		cp.Slot = &ts
	}
	if s.Topic != nil {
		t := *s.Topic
		cp.Topic = &t
	}
	if s.Room != nil {
		r := *s.Room
		cp.Room = &r
	}
	if s.Chair != nil {
		c := *s.Chair
		c.TopicIDs = append([]int(nil), s.Chair.TopicIDs...)
		cp.Chair = &c
	}
	cp.Papers = make([]Paper, len(s.Papers))
	for i, p := range s.Papers {
		cp.Papers[i] = p
		cp.Papers[i].Authors = append([]Author(nil), p.Authors...)
		cp.Papers[i].PrefIDs = append([]int(nil), p.PrefIDs...)
	}
	return &cp
}
