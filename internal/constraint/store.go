package constraint

import (
	"fmt"
	"strconv"

	"progman/internal/types"
)

// Store holds the parsed constraint list. Constraints get stable ids of
// the form C001, C002, ... in insertion order. The Store answers no
// queries directly; Derive produces the read-only views the stages use.
type Store struct {
	constraints []Constraint
	nextID      int
}

// NewStore parses the given constraint texts into a Store. The first
// malformed line aborts with a ParseError.
func NewStore(texts []string) (*Store, error) {
	s := &Store{}
	for _, t := range texts {
		if _, err := s.Add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add parses a constraint line and appends it to the store.
func (s *Store) Add(text string) (Constraint, error) {
	c, err := Parse(text)
	if err != nil {
		return Constraint{}, err
	}
	s.nextID++
	c.ID = fmt.Sprintf("C%03d", s.nextID)
	s.constraints = append(s.constraints, c)
	return c, nil
}

// Remove deletes the constraint with the given id. Reports whether a
// constraint was removed.
func (s *Store) Remove(id string) bool {
	for i, c := range s.constraints {
		if c.ID == id {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return true
		}
	}
	return false
}

// Edit replaces the constraint with the given id by a newly parsed one,
// keeping the id. Returns false when the id is unknown.
func (s *Store) Edit(id, text string) (Constraint, bool, error) {
	for i, c := range s.constraints {
		if c.ID != id {
			continue
		}
		nc, err := Parse(text)
		if err != nil {
			return Constraint{}, true, err
		}
		nc.ID = id
		s.constraints[i] = nc
		return nc, true, nil
	}
	return Constraint{}, false, nil
}

// List returns the constraints in insertion order.
func (s *Store) List() []Constraint {
	return append([]Constraint(nil), s.constraints...)
}

// Texts returns the constraints rendered back to grammar form, for
// persisting into the schedule config.
func (s *Store) Texts() []string {
	out := make([]string, len(s.constraints))
	for i, c := range s.constraints {
		out[i] = c.Text()
	}
	return out
}

// Validate checks that every constraint subject resolves to an entity that
// exists: papers against the paper set, sections against the programme,
// rooms against the room set (skipped when no rooms are supplied), and
// break/meal days against the configured day count. An unresolvable
// subject is a configuration error, not a solver failure.
func (s *Store) Validate(prog *types.Program, papers []types.Paper, rooms []types.Room, numDays int) error {
	paperIDs := make(map[int]bool, len(papers))
	for _, p := range papers {
		paperIDs[p.ID] = true
	}
	roomNames := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		roomNames[r.Name] = true
	}

	for _, c := range s.constraints {
		switch c.SubjectType {
		case SubjectPaper:
			pid, err := strconv.Atoi(c.SubjectID)
			if err != nil || !paperIDs[pid] {
				return fmt.Errorf("constraint %s: subject %s does not resolve to a known paper", c.ID, c.Subject())
			}
			for _, v := range c.Values {
				if v.Kind == ValuePaper && !paperIDs[v.Paper] {
					return fmt.Errorf("constraint %s: value %s does not resolve to a known paper", c.ID, v.Raw)
				}
			}
		case SubjectSection:
			if prog != nil && prog.SessionByID(c.SubjectID) == nil {
				return fmt.Errorf("constraint %s: subject %s does not resolve to a session in the programme", c.ID, c.Subject())
			}
		case SubjectRoom:
			if len(rooms) > 0 && !roomNames[c.SubjectID] {
				return fmt.Errorf("constraint %s: subject %s does not resolve to a known room", c.ID, c.Subject())
			}
		case SubjectMorningBreak, SubjectAfternoonBreak, SubjectLunch, SubjectDinner:
			day, err := strconv.Atoi(c.SubjectID)
			if err != nil || day < 1 || day > numDays {
				return fmt.Errorf("constraint %s: subject %s names a day outside 1..%d", c.ID, c.Subject(), numDays)
			}
		}
		if c.Op == OpEq || c.Op == OpIn {
			for _, v := range c.Values {
				if v.Kind == ValueSession && prog != nil && prog.SessionByID(v.Session) == nil {
					return fmt.Errorf("constraint %s: value %s does not resolve to a session in the programme", c.ID, v.Raw)
				}
			}
		}
	}
	return nil
}
