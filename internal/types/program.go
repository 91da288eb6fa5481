package types

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Slot is one day+time window together with the sessions that run in
// parallel inside it. Break/lunch/dinner slots carry no sessions.
type Slot struct {
	Time     TimeSlot   `json:"time_slot"`
	Sessions []*Session `json:"sessions"`
}

// DayProgram is the ordered slot list of a single day.
type DayProgram struct {
	Day   int    `json:"day"`
	Slots []Slot `json:"slots"`
}

// Provenance records which stages produced the programme and the headline
// numbers of the solver run. Carried through every snapshot.
type Provenance struct {
	RunID    string `json:"run_id,omitempty"`
	Stage    string `json:"stage,omitempty"`
	NumDays  int    `json:"num_days,omitempty"`
	PresentationMin int `json:"presentation_duration_min,omitempty"`

	// Solver results.
	Objective      int  `json:"solver_objective,omitempty"`
	DiversityPenalty int `json:"diversity_penalty,omitempty"`
	Optimal        bool `json:"solver_optimal,omitempty"`
	PapersAssigned int  `json:"papers_assigned,omitempty"`
	PapersTotal    int  `json:"papers_total,omitempty"`
	// PaperScores maps paper id to the preference score it was placed with.
	PaperScores map[int]int `json:"paper_scores,omitempty"`

	// Per-session warnings from the chair assigner.
	ChairWarnings []string `json:"chair_warnings,omitempty"`
}

// Program is the full conference programme: ordered sessions per day plus
// provenance. It is the single unit of ownership passed between pipeline
// stages; each stage works on its own copy and returns the updated value.
type Program struct {
	Days []DayProgram `json:"days"`
	Meta Provenance   `json:"metadata"`
}

// Clone returns a deep copy of the programme. Stages clone their input
// before mutating so that every snapshot stays intact.
func (p *Program) Clone() *Program {
	cp := &Program{Meta: p.Meta}
	cp.Meta.PaperScores = make(map[int]int, len(p.Meta.PaperScores))
	for k, v := range p.Meta.PaperScores {
		cp.Meta.PaperScores[k] = v
	}
	cp.Meta.ChairWarnings = append([]string(nil), p.Meta.ChairWarnings...)
	cp.Days = make([]DayProgram, len(p.Days))
	for i, d := range p.Days {
		nd := DayProgram{Day: d.Day, Slots: make([]Slot, len(d.Slots))}
		for j, sl := range d.Slots {
			ns := Slot{Time: sl.Time, Sessions: make([]*Session, len(sl.Sessions))}
			for k, sess := range sl.Sessions {
				ns.Sessions[k] = sess.clone()
			}
			nd.Slots[j] = ns
		}
		cp.Days[i] = nd
	}
	return cp
}

// Sessions returns all regular (non-plenary) sessions in day/slot order.
func (p *Program) Sessions() []*Session {
	var out []*Session
	for _, d := range p.Days {
		for _, sl := range d.Slots {
			if sl.Time.Kind != SlotSession {
				continue
			}
			out = append(out, sl.Sessions...)
		}
	}
	return out
}

// AllSessions returns every session, plenary included, in day/slot order.
func (p *Program) AllSessions() []*Session {
	var out []*Session
	for _, d := range p.Days {
		for _, sl := range d.Slots {
			out = append(out, sl.Sessions...)
		}
	}
	return out
}

// SessionByID looks up a session (regular or plenary) by its id.
func (p *Program) SessionByID(id string) *Session {
	for _, s := range p.AllSessions() {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SlotGroups returns the regular sessions grouped by their day+start time,
// i.e. the sets of sessions that run in parallel. Groups are ordered by
// day, then start time; sessions inside a group by session id.
func (p *Program) SlotGroups() [][]*Session {
	var groups [][]*Session
	for _, d := range p.Days {
		for _, sl := range d.Slots {
			if sl.Time.Kind != SlotSession || len(sl.Sessions) == 0 {
				continue
			}
			g := append([]*Session(nil), sl.Sessions...)
			sort.Slice(g, func(a, b int) bool { return SessionIDLess(g[a].ID, g[b].ID) })
			groups = append(groups, g)
		}
	}
	return groups
}

// AssignedPapers returns the ids of all papers placed in regular sessions,
// in day/slot/session order.
func (p *Program) AssignedPapers() []int {
	var ids []int
	for _, s := range p.Sessions() {
		for _, paper := range s.Papers {
			ids = append(ids, paper.ID)
		}
	}
	return ids
}

// Save writes the programme snapshot as JSON, creating parent directories
// as needed.
func (p *Program) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal programme: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadProgram reads a programme snapshot from JSON.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read programme: %w", err)
	}
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse programme %s: %w", path, err)
	}
	return &p, nil
}
