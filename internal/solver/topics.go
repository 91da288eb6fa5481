package solver

import (
	"sort"

	"progman/internal/similarity"
	"progman/internal/types"
)

// Diversity penalty weights: a repeated topic inside one parallel slot is
// far worse than day concentration.
const (
	parallelPenalty = 1000
	dayPenalty      = 10
)

// slotKey identifies a parallel slot: all sessions sharing day+start.
type slotKey struct {
	day   int
	start string
}

func sessionSlotKey(s *types.Session) slotKey {
	return slotKey{day: s.Day, start: s.Slot.Start}
}

// topicLayout greedily assigns a canonical topic to each non-fixed
// session: the most demanded topics claim sessions first, and with
// diversity enabled the same topic avoids parallel sessions and spreads
// across days. Returns session index -> canonical topic id.
//
// The layout is deterministic: topics are ordered by demand descending
// then id ascending, and session scans run in index order with strict
// improvement.
func topicLayout(sessions []*types.Session, papers []types.Paper,
	groups similarity.Groups, caps []int, diversity bool) map[int]int {

	// Demand per canonical topic, counted over rank-1 preferences.
	demand := make(map[int]int)
	for _, p := range papers {
		top := p.TopPref()
		if top == 0 {
			continue
		}
		demand[groups.Canonical(top)]++
	}

	ordered := make([]int, 0, len(demand))
	for ctid := range demand {
		ordered = append(ordered, ctid)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if demand[ordered[i]] != demand[ordered[j]] {
			return demand[ordered[i]] > demand[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	layout := make(map[int]int)
	used := make(map[int]bool)
	for j, s := range sessions {
		if s.Fixed {
			used[j] = true
		}
	}

	slotCount := make(map[slotKey]map[int]int)
	dayCount := make(map[int]map[int]int)
	record := func(j, ctid int) {
		sk := sessionSlotKey(sessions[j])
		if slotCount[sk] == nil {
			slotCount[sk] = make(map[int]int)
		}
		slotCount[sk][ctid]++
		day := sessions[j].Day
		if dayCount[day] == nil {
			dayCount[day] = make(map[int]int)
		}
		dayCount[day][ctid]++
	}
	penalty := func(j, ctid int) int {
		if !diversity {
			return 0
		}
		p := 0
		if m := slotCount[sessionSlotKey(sessions[j])]; m != nil {
			p += m[ctid] * parallelPenalty
		}
		if m := dayCount[sessions[j].Day]; m != nil {
			p += m[ctid] * dayPenalty
		}
		return p
	}

	for _, ctid := range ordered {
		remaining := demand[ctid]
		for remaining > 0 {
			best := -1
			bestScore := 0
			for j := range sessions {
				if used[j] {
					continue
				}
				score := caps[j] - penalty(j, ctid)
				if best < 0 || score > bestScore {
					best = j
					bestScore = score
				}
			}
			if best < 0 {
				break
			}
			layout[best] = ctid
			used[best] = true
			record(best, ctid)
			remaining -= caps[best]
		}
	}

	// Leftover sessions take the topic with the largest remaining overflow,
	// still respecting diversity.
	overflow := make(map[int]int)
	for ctid, n := range demand {
		assigned := 0
		for j, t := range layout {
			if t == ctid {
				assigned += caps[j]
			}
		}
		overflow[ctid] = n - assigned
	}
	for j := range sessions {
		if used[j] || len(overflow) == 0 {
			continue
		}
		best := 0
		bestVal := 0
		first := true
		for _, ctid := range ordered {
			val := overflow[ctid] - penalty(j, ctid)
			if first || val > bestVal {
				best = ctid
				bestVal = val
				first = false
			}
		}
		if !first {
			layout[j] = best
			used[j] = true
			record(j, best)
			overflow[best] -= caps[j]
		}
	}

	return layout
}

// diversityPenalty scores a finished layout: every repeat of a topic
// inside one parallel slot and every extra same-day session of a topic
// adds its weight.
func diversityPenalty(sessions []*types.Session, layout map[int]int) int {
	slotCount := make(map[slotKey]map[int]int)
	dayCount := make(map[int]map[int]int)
	for j, ctid := range layout {
		sk := sessionSlotKey(sessions[j])
		if slotCount[sk] == nil {
			slotCount[sk] = make(map[int]int)
		}
		slotCount[sk][ctid]++
		day := sessions[j].Day
		if dayCount[day] == nil {
			dayCount[day] = make(map[int]int)
		}
		dayCount[day][ctid]++
	}
	total := 0
	for _, counts := range slotCount {
		for _, n := range counts {
			if n > 1 {
				total += (n - 1) * parallelPenalty
			}
		}
	}
	for _, counts := range dayCount {
		for _, n := range counts {
			if n > 1 {
				total += (n - 1) * dayPenalty
			}
		}
	}
	return total
}
