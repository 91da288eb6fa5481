package constraint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// colocationRules is the Datalog program that closes the paper co-location
// relation: equality constraints are symmetric and transitive, so two
// papers belong to the same equality group whenever any chain of
// same_session facts connects them.
const colocationRules = `
colocated(A, B) :- same_session(A, B).
colocated(A, B) :- colocated(B, A).
colocated(A, C) :- colocated(A, B), colocated(B, C).
`

// Derived is the read-only query view over a constraint list. It is
// computed once per solver run and shared by the solver and the room and
// chair assigners.
type Derived struct {
	// PaperDaySets / PaperSessionSets: one allowed-set per = or in
	// constraint. A placement must satisfy every set (intersection), so
	// two forced constraints with disjoint sets are a detectable conflict.
	PaperDaySets     map[int][][]int
	PaperSessionSets map[int][][]string
	// PaperNotDays / PaperNotSessions: removed placements from != and not_in.
	PaperNotDays     map[int][]int
	PaperNotSessions map[int][]string
	// SessionLabels: forced section labels (section_S01 = "Welcome").
	SessionLabels map[string]string
	// Precedence edges (a, b): a must precede b when co-located.
	Precedence [][2]int
	// Groups: equality groups, each sorted ascending, groups sorted by
	// their smallest member.
	Groups [][]int
	// RoomDays: room name -> allowed days.
	RoomDays map[string][]int
	// MealTimes: per-day target-time overrides for breaks and meals,
	// minutes after midnight.
	MealTimes map[SubjectType]map[int]int
	// SourceIDs maps a subject (e.g. "paper_3") to the ids of every
	// constraint that touches it, for infeasibility reporting.
	SourceIDs map[string][]string

	forced    map[string][]string
	forbidden map[string][]string
}

// Forced returns the values forced onto a subject by = and in constraints.
func (d *Derived) Forced(subject string) ([]string, bool) {
	vals, ok := d.forced[subject]
	return vals, ok
}

// Forbidden returns the values removed from a subject by != and not_in
// constraints.
func (d *Derived) Forbidden(subject string) []string {
	return d.forbidden[subject]
}

// PrecedenceEdges returns the (first, second) paper pairs where the first
// must precede the second within a shared session.
func (d *Derived) PrecedenceEdges() [][2]int {
	return d.Precedence
}

// EqualityGroups returns the partition of papers that must co-locate.
func (d *Derived) EqualityGroups() [][]int {
	return d.Groups
}

// Derive computes the query view from the store's current constraint list.
// The co-location closure runs on the Mangle engine; everything else is a
// direct index over the parsed constraints.
func (s *Store) Derive() (*Derived, error) {
	d := &Derived{
		PaperDaySets:     make(map[int][][]int),
		PaperSessionSets: make(map[int][][]string),
		PaperNotDays:     make(map[int][]int),
		PaperNotSessions: make(map[int][]string),
		SessionLabels:    make(map[string]string),
		RoomDays:         make(map[string][]int),
		MealTimes:        make(map[SubjectType]map[int]int),
		SourceIDs:        make(map[string][]string),
		forced:           make(map[string][]string),
		forbidden:        make(map[string][]string),
	}

	var sameSession [][2]int

	for _, c := range s.constraints {
		subject := c.Subject()
		d.SourceIDs[subject] = append(d.SourceIDs[subject], c.ID)

		switch c.Op {
		case OpEq, OpIn:
			for _, v := range c.Values {
				d.forced[subject] = append(d.forced[subject], v.Raw)
			}
		case OpNeq, OpNotIn:
			for _, v := range c.Values {
				d.forbidden[subject] = append(d.forbidden[subject], v.Raw)
			}
		}

		switch c.SubjectType {
		case SubjectPaper:
			pid, _ := strconv.Atoi(c.SubjectID)
			var daySet []int
			var sessionSet []string
			for _, v := range c.Values {
				switch {
				case v.Kind == ValuePaper && c.Op == OpEq:
					sameSession = append(sameSession, [2]int{pid, v.Paper})
				case v.Kind == ValuePaper && c.Op == OpLt:
					d.Precedence = append(d.Precedence, [2]int{pid, v.Paper})
				case v.Kind == ValueDay && (c.Op == OpEq || c.Op == OpIn):
					daySet = append(daySet, v.Day)
				case v.Kind == ValueDay && (c.Op == OpNeq || c.Op == OpNotIn):
					d.PaperNotDays[pid] = append(d.PaperNotDays[pid], v.Day)
				case v.Kind == ValueSession && (c.Op == OpEq || c.Op == OpIn):
					sessionSet = append(sessionSet, v.Session)
				case v.Kind == ValueSession && (c.Op == OpNeq || c.Op == OpNotIn):
					d.PaperNotSessions[pid] = append(d.PaperNotSessions[pid], v.Session)
				}
			}
			if len(daySet) > 0 {
				d.PaperDaySets[pid] = append(d.PaperDaySets[pid], daySet)
			}
			if len(sessionSet) > 0 {
				d.PaperSessionSets[pid] = append(d.PaperSessionSets[pid], sessionSet)
			}
		case SubjectSection:
			d.SessionLabels[c.SubjectID] = c.Values[0].Label
		case SubjectRoom:
			for _, v := range c.Values {
				if c.Op == OpEq || c.Op == OpIn {
					d.RoomDays[c.SubjectID] = append(d.RoomDays[c.SubjectID], v.Day)
				}
			}
		case SubjectMorningBreak, SubjectAfternoonBreak, SubjectLunch, SubjectDinner:
			day, _ := strconv.Atoi(c.SubjectID)
			if d.MealTimes[c.SubjectType] == nil {
				d.MealTimes[c.SubjectType] = make(map[int]int)
			}
			d.MealTimes[c.SubjectType][day] = c.Values[0].Minutes
		}
	}

	groups, err := colocationGroups(sameSession)
	if err != nil {
		return nil, err
	}
	d.Groups = groups
	return d, nil
}

// colocationGroups evaluates the co-location closure over the same_session
// pairs and partitions the involved papers into equality groups.
func colocationGroups(pairs [][2]int) ([][]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	// Assemble the Datalog program: EDB facts followed by the IDB rules.
	var sb strings.Builder
	for _, p := range pairs {
		sb.WriteString(fmt.Sprintf("same_session(%d, %d).\n", p[0], p[1]))
	}
	sb.WriteString(colocationRules)

	parsed, err := parse.Unit(strings.NewReader(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse co-location program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(parsed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze co-location program: %w", err)
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(programInfo, store); err != nil {
		return nil, fmt.Errorf("failed to evaluate co-location program: %w", err)
	}

	// Collect colocated(A, B) atoms into an adjacency view.
	adjacent := make(map[int]map[int]bool)
	for _, pred := range store.ListPredicates() {
		if pred.Symbol != "colocated" {
			continue
		}
		_ = store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
			x, okX := atomArgInt(a, 0)
			y, okY := atomArgInt(a, 1)
			if !okX || !okY || x == y {
				return nil
			}
			if adjacent[x] == nil {
				adjacent[x] = make(map[int]bool)
			}
			adjacent[x][y] = true
			return nil
		})
	}

	// The closure is already transitive, so each paper's adjacency set (plus
	// itself) is its full group. Emit each group once, keyed by its minimum.
	seen := make(map[int]bool)
	var groups [][]int
	var members []int
	for pid := range adjacent {
		members = append(members, pid)
	}
	sort.Ints(members)
	for _, pid := range members {
		if seen[pid] {
			continue
		}
		group := []int{pid}
		seen[pid] = true
		for other := range adjacent[pid] {
			if !seen[other] {
				group = append(group, other)
				seen[other] = true
			}
		}
		sort.Ints(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups, nil
}

// atomArgInt extracts an integer argument from a Mangle atom.
func atomArgInt(a ast.Atom, i int) (int, bool) {
	if i >= len(a.Args) {
		return 0, false
	}
	c, ok := a.Args[i].(ast.Constant)
	if !ok || c.Type != ast.NumberType {
		return 0, false
	}
	return int(c.NumValue), true
}
