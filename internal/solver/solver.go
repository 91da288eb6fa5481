// Package solver assigns papers to the skeleton's regular sessions. It runs
// in two phases: a greedy topic layout decides which canonical topic each
// session carries, then an exact branch-and-bound search places papers (and
// co-location groups as atomic units) into sessions to maximise the total
// preference score under the derived constraints.
package solver

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"progman/internal/config"
	"progman/internal/constraint"
	"progman/internal/similarity"
	"progman/internal/types"
)

// assignBonus is added to every placed paper's score during the search so
// that, in partial mode, assigning a paper at the baseline always beats
// leaving it out.
const assignBonus = 200

// =============================================================================
// ERRORS
// =============================================================================

// InfeasibleError reports that the constraint set admits no assignment. It
// names the papers and the constraint ids involved so the conflict can be
// fixed at the source.
type InfeasibleError struct {
	PaperIDs      []int
	ConstraintIDs []string
	Reason        string
}

func (e *InfeasibleError) Error() string {
	var b strings.Builder
	b.WriteString("infeasible: ")
	b.WriteString(e.Reason)
	if len(e.ConstraintIDs) > 0 {
		fmt.Fprintf(&b, " (constraints: %s)", strings.Join(e.ConstraintIDs, ", "))
	}
	return b.String()
}

// CapacityError reports that the skeleton cannot hold every paper.
type CapacityError struct {
	Report *CapacityReport
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient session capacity: %d papers, %d slots (deficit %d)",
		e.Report.Papers, e.Report.TotalCapacity, e.Report.Deficit)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options carries everything the solver needs beyond the programme itself.
type Options struct {
	Papers  []types.Paper
	Topics  []types.Topic
	Derived *constraint.Derived
	// Scores and Matrix feed the similarity fallback band; either may be nil.
	Scores similarity.PaperTopicScores
	Matrix *similarity.Matrix
	// Groups merges near-identical topics; nil means every topic stands alone.
	Groups similarity.Groups
	// TimeBudget bounds the search; zero means no limit. On expiry the best
	// incumbent found so far is returned with Optimal=false.
	TimeBudget time.Duration
	// Workers is the parallel search width; zero means GOMAXPROCS.
	Workers int
	// AllowPartial lets the solver leave papers unassigned when capacity or
	// constraints make a full assignment impossible.
	AllowPartial bool
}

// =============================================================================
// SOLVER
// =============================================================================

// Solver is the paper assignment stage.
type Solver struct {
	cfg    *config.ScheduleConfig
	logger *zap.Logger
}

// New creates a Solver. A nil logger is replaced with a no-op logger.
func New(cfg *config.ScheduleConfig, logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{cfg: cfg, logger: logger}
}

// unit is one atomic placement decision: a co-location group or a single
// paper. All members land in the same session.
type unit struct {
	members    []int // paper ids, sorted ascending
	candidates []candidate
}

// candidate is one feasible session for a unit, with the summed member
// score including the assignment bonus.
type candidate struct {
	sessIdx int
	score   int
}

// Assign places every paper into a session and returns a new programme; the
// input is never mutated. Previously assigned papers are cleared first, so
// re-running the stage is safe.
func (s *Solver) Assign(ctx context.Context, prog *types.Program, opts Options) (*types.Program, error) {
	out := prog.Clone()
	derived := opts.Derived
	if derived == nil {
		derived = &constraint.Derived{}
	}

	// Collect the open sessions in chronological order. Session ids are
	// issued chronologically by the skeleton, so id order is stable and
	// matches programme order.
	var sessions []*types.Session
	for _, sess := range out.Sessions() {
		if sess.Fixed {
			continue
		}
		sess.Papers = nil
		sess.Topic = nil
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return types.SessionIDLess(sessions[i].ID, sessions[j].ID) })

	caps := make([]int, len(sessions))
	for j, sess := range sessions {
		caps[j] = sess.Capacity(s.cfg.PresentationMin)
	}

	report := CheckCapacity(out, len(opts.Papers), s.cfg)
	if !report.Feasible() && !opts.AllowPartial {
		return nil, &CapacityError{Report: report}
	}

	// Phase 1: topic layout.
	layout := topicLayout(sessions, opts.Papers, opts.Groups, caps, s.cfg.TopicDiversity())
	divPenalty := diversityPenalty(sessions, layout)
	topicNames := make(map[int]string, len(opts.Topics))
	for _, t := range opts.Topics {
		topicNames[t.ID] = t.Name
	}
	for j, ctid := range layout {
		sessions[j].Topic = &types.Topic{ID: ctid, Name: topicNames[ctid]}
	}
	s.logger.Debug("topic layout fixed",
		zap.Int("sessions", len(sessions)),
		zap.Int("diversity_penalty", divPenalty))

	// Per-paper feasible sessions and scores.
	paperByID := make(map[int]*types.Paper, len(opts.Papers))
	for i := range opts.Papers {
		paperByID[opts.Papers[i].ID] = &opts.Papers[i]
	}
	feasible := make(map[int]map[int]bool, len(opts.Papers))
	pscore := make(map[int][]int, len(opts.Papers))
	for i := range opts.Papers {
		p := &opts.Papers[i]
		allowed, err := s.feasibleSessions(p.ID, sessions, derived)
		if err != nil {
			return nil, err
		}
		feasible[p.ID] = allowed
		row := make([]int, len(sessions))
		for j := range sessions {
			row[j] = paperScore(p, layout[j], opts.Groups, opts.Scores, opts.Matrix)
		}
		pscore[p.ID] = row
	}

	units, err := buildUnits(opts.Papers, derived, sessions, caps, feasible, pscore, opts.AllowPartial)
	if err != nil {
		return nil, err
	}

	// Phase 2: exact search.
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	result, optimal, err := search(ctx, units, caps, workers)
	if err != nil {
		return nil, err
	}

	// The assignment bonus makes the search maximise the placed-paper count
	// before anything else, so a skipped unit in the optimum means no full
	// assignment exists.
	if !opts.AllowPartial && optimal {
		for u, sessIdx := range result {
			if sessIdx < 0 {
				return nil, &InfeasibleError{
					PaperIDs:      allPaperIDs(opts.Papers),
					ConstraintIDs: allConstraintIDs(derived, opts.Papers),
					Reason: fmt.Sprintf("no complete assignment satisfies all constraints (first stuck: paper_%d)",
						units[u].members[0]),
				}
			}
		}
	}

	// Apply the winning assignment.
	objective := 0
	assigned := 0
	scores := make(map[int]int)
	for u, sessIdx := range result {
		if sessIdx < 0 {
			continue
		}
		for _, pid := range units[u].members {
			sessions[sessIdx].Papers = append(sessions[sessIdx].Papers, *paperByID[pid])
			scores[pid] = pscore[pid][sessIdx]
			objective += pscore[pid][sessIdx]
			assigned++
		}
	}
	for _, sess := range sessions {
		orderPapers(sess, derived.PrecedenceEdges())
	}

	out.Meta.Stage = "papers"
	out.Meta.Objective = objective
	out.Meta.DiversityPenalty = divPenalty
	out.Meta.Optimal = optimal
	out.Meta.PapersAssigned = assigned
	out.Meta.PapersTotal = len(opts.Papers)
	out.Meta.PaperScores = scores

	s.logger.Info("papers assigned",
		zap.Int("assigned", assigned),
		zap.Int("total", len(opts.Papers)),
		zap.Int("objective", objective),
		zap.Bool("optimal", optimal))
	if assigned < len(opts.Papers) {
		s.logger.Warn("partial assignment", zap.Int("unassigned", len(opts.Papers)-assigned))
	}
	return out, nil
}

// feasibleSessions filters the session list down to those the per-paper
// constraints allow. An empty result is a hard conflict and names its
// constraints.
func (s *Solver) feasibleSessions(paperID int, sessions []*types.Session,
	derived *constraint.Derived) (map[int]bool, error) {

	notDays := make(map[int]bool)
	for _, d := range derived.PaperNotDays[paperID] {
		notDays[d] = true
	}
	notSessions := make(map[string]bool)
	for _, id := range derived.PaperNotSessions[paperID] {
		notSessions[id] = true
	}

	allowed := make(map[int]bool, len(sessions))
	for j, sess := range sessions {
		if notDays[sess.Day] || notSessions[sess.ID] {
			continue
		}
		ok := true
		for _, set := range derived.PaperDaySets[paperID] {
			if !containsInt(set, sess.Day) {
				ok = false
				break
			}
		}
		if ok {
			for _, set := range derived.PaperSessionSets[paperID] {
				if !containsString(set, sess.ID) {
					ok = false
					break
				}
			}
		}
		if ok {
			allowed[j] = true
		}
	}
	if len(allowed) == 0 {
		subject := fmt.Sprintf("paper_%d", paperID)
		return nil, &InfeasibleError{
			PaperIDs:      []int{paperID},
			ConstraintIDs: derived.SourceIDs[subject],
			Reason:        fmt.Sprintf("no session satisfies the constraints on %s", subject),
		}
	}
	return allowed, nil
}

// buildUnits partitions the papers into placement units: each co-location
// group is one unit, every remaining paper is a singleton. Unit candidates
// intersect the members' feasible sessions and must fit the group size.
func buildUnits(papers []types.Paper, derived *constraint.Derived,
	sessions []*types.Session, caps []int,
	feasible map[int]map[int]bool, pscore map[int][]int,
	allowPartial bool) ([]unit, error) {

	known := make(map[int]bool, len(papers))
	for _, p := range papers {
		known[p.ID] = true
	}

	var units []unit
	grouped := make(map[int]bool)
	for _, grp := range derived.EqualityGroups() {
		var members []int
		for _, pid := range grp {
			if known[pid] {
				members = append(members, pid)
				grouped[pid] = true
			}
		}
		if len(members) > 0 {
			sort.Ints(members)
			units = append(units, unit{members: members})
		}
	}
	for _, p := range papers {
		if !grouped[p.ID] {
			units = append(units, unit{members: []int{p.ID}})
		}
	}

	for u := range units {
		members := units[u].members
		for j := range sessions {
			if caps[j] < len(members) {
				continue
			}
			total := 0
			ok := true
			for _, pid := range members {
				if !feasible[pid][j] {
					ok = false
					break
				}
				total += pscore[pid][j] + assignBonus
			}
			if ok {
				units[u].candidates = append(units[u].candidates, candidate{sessIdx: j, score: total})
			}
		}
		if len(units[u].candidates) == 0 && !allowPartial {
			subjects := make([]string, 0, len(members))
			var cids []string
			for _, pid := range members {
				subj := fmt.Sprintf("paper_%d", pid)
				subjects = append(subjects, subj)
				cids = append(cids, derived.SourceIDs[subj]...)
			}
			return nil, &InfeasibleError{
				PaperIDs:      members,
				ConstraintIDs: dedupe(cids),
				Reason: fmt.Sprintf("no session can hold %s together",
					strings.Join(subjects, ", ")),
			}
		}
		cands := units[u].candidates
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].score != cands[b].score {
				return cands[a].score > cands[b].score
			}
			return types.SessionIDLess(sessions[cands[a].sessIdx].ID, sessions[cands[b].sessIdx].ID)
		})
	}

	// Most constrained units branch first; ties break on the smallest
	// member id so the search order is reproducible.
	sort.SliceStable(units, func(a, b int) bool {
		if len(units[a].candidates) != len(units[b].candidates) {
			return len(units[a].candidates) < len(units[b].candidates)
		}
		return units[a].members[0] < units[b].members[0]
	})
	return units, nil
}

// =============================================================================
// BRANCH AND BOUND
// =============================================================================

// incumbent is one worker's best complete assignment.
type incumbent struct {
	assignment []int // unit index -> session index, -1 for unassigned
	score      int
	branch     int // first-level branch index, for deterministic merging
}

// search runs the branch-and-bound over the units, splitting the first
// unit's candidates across workers. Each worker keeps a local incumbent;
// the merge picks the highest score and breaks ties on branch order, so
// the result is deterministic for a fixed unit ordering.
func search(ctx context.Context, units []unit, caps []int, workers int) ([]int, bool, error) {
	if len(units) == 0 {
		return []int{}, true, nil
	}

	// Upper bound: the best candidate score of every unit from position k
	// onward, ignoring capacity.
	suffix := make([]int, len(units)+1)
	for k := len(units) - 1; k >= 0; k-- {
		best := 0
		if len(units[k].candidates) > 0 {
			best = units[k].candidates[0].score
		}
		suffix[k] = suffix[k+1] + best
	}

	branches := branchOptions(&units[0])
	if workers > len(branches) {
		workers = len(branches)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*incumbent, workers)
	var truncated atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			st := &searchState{
				units:      units,
				suffix:     suffix,
				remaining:  append([]int(nil), caps...),
				assignment: make([]int, len(units)),
			}
			for i := range st.assignment {
				st.assignment[i] = -1
			}
			for b := w; b < len(branches); b += workers {
				if gctx.Err() != nil {
					truncated.Store(true)
					break
				}
				opt := branches[b]
				if opt.sessIdx >= 0 && st.remaining[opt.sessIdx] < len(units[0].members) {
					continue
				}
				st.place(0, opt)
				st.branch = b
				if !st.dfs(gctx, 1) {
					truncated.Store(true)
				}
				st.unplace(0, opt)
			}
			results[w] = st.best
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	var best *incumbent
	for _, inc := range results {
		if inc == nil {
			continue
		}
		if best == nil || inc.score > best.score ||
			(inc.score == best.score && inc.branch < best.branch) {
			best = inc
		}
	}
	if best == nil {
		return nil, !truncated.Load(), nil
	}
	return best.assignment, !truncated.Load(), nil
}

// branchOptions lists the first-level choices for a unit: every candidate
// session, plus the skip option when the unit has none mandatory.
func branchOptions(u *unit) []candidate {
	opts := append([]candidate(nil), u.candidates...)
	opts = append(opts, candidate{sessIdx: -1, score: 0})
	return opts
}

type searchState struct {
	units      []unit
	suffix     []int
	remaining  []int
	assignment []int
	score      int
	branch     int
	best       *incumbent
	nodes      int
}

func (st *searchState) place(u int, c candidate) {
	st.assignment[u] = c.sessIdx
	st.score += c.score
	if c.sessIdx >= 0 {
		st.remaining[c.sessIdx] -= len(st.units[u].members)
	}
}

func (st *searchState) unplace(u int, c candidate) {
	st.assignment[u] = -1
	st.score -= c.score
	if c.sessIdx >= 0 {
		st.remaining[c.sessIdx] += len(st.units[u].members)
	}
}

// dfs explores units[u:]. Returns false when the context expired and the
// subtree was cut short.
func (st *searchState) dfs(ctx context.Context, u int) bool {
	st.nodes++
	if st.nodes%1024 == 0 && ctx.Err() != nil {
		return false
	}
	if u == len(st.units) {
		if st.best == nil || st.score > st.best.score {
			st.best = &incumbent{
				assignment: append([]int(nil), st.assignment...),
				score:      st.score,
				branch:     st.branch,
			}
		}
		return true
	}
	if st.best != nil && st.score+st.suffix[u] <= st.best.score {
		return true
	}
	complete := true
	for _, c := range branchOptions(&st.units[u]) {
		if c.sessIdx >= 0 && st.remaining[c.sessIdx] < len(st.units[u].members) {
			continue
		}
		st.place(u, c)
		if !st.dfs(ctx, u+1) {
			complete = false
		}
		st.unplace(u, c)
		if !complete {
			break
		}
	}
	return complete
}

// =============================================================================
// POST-PASSES AND HELPERS
// =============================================================================

// orderPapers sorts a session's papers by id, then reorders to honour
// precedence edges between papers sharing the session (Kahn's algorithm,
// smallest id first).
func orderPapers(sess *types.Session, edges [][2]int) {
	sort.Slice(sess.Papers, func(i, j int) bool { return sess.Papers[i].ID < sess.Papers[j].ID })
	if len(edges) == 0 || len(sess.Papers) < 2 {
		return
	}

	idx := make(map[int]int, len(sess.Papers))
	for i, p := range sess.Papers {
		idx[p.ID] = i
	}
	after := make(map[int][]int)
	indeg := make(map[int]int, len(sess.Papers))
	for _, p := range sess.Papers {
		indeg[p.ID] = 0
	}
	relevant := false
	for _, e := range edges {
		if _, ok := idx[e[0]]; !ok {
			continue
		}
		if _, ok := idx[e[1]]; !ok {
			continue
		}
		after[e[0]] = append(after[e[0]], e[1])
		indeg[e[1]]++
		relevant = true
	}
	if !relevant {
		return
	}

	var ready []int
	for pid, d := range indeg {
		if d == 0 {
			ready = append(ready, pid)
		}
	}
	sort.Ints(ready)
	var order []int
	for len(ready) > 0 {
		pid := ready[0]
		ready = ready[1:]
		order = append(order, pid)
		for _, next := range after[pid] {
			indeg[next]--
			if indeg[next] == 0 {
				ready = insertSorted(ready, next)
			}
		}
	}
	if len(order) != len(sess.Papers) {
		// A precedence cycle inside one session; keep id order.
		return
	}
	byID := make(map[int]types.Paper, len(sess.Papers))
	for _, p := range sess.Papers {
		byID[p.ID] = p
	}
	for i, pid := range order {
		sess.Papers[i] = byID[pid]
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	var out []string
	for _, x := range s {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func allPaperIDs(papers []types.Paper) []int {
	ids := make([]int, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	sort.Ints(ids)
	return ids
}

func allConstraintIDs(derived *constraint.Derived, papers []types.Paper) []string {
	var cids []string
	for _, p := range papers {
		cids = append(cids, derived.SourceIDs[fmt.Sprintf("paper_%d", p.ID)]...)
	}
	return dedupe(cids)
}
