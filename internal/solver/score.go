package solver

import (
	"progman/internal/similarity"
	"progman/internal/types"
)

// Preference score bands. Direct preference matches always land in
// [directMin, directMax], similarity fallbacks in [baselineScore,
// fallbackMax], and papers with no topic relation at exactly
// baselineScore, so a direct match always outranks a fallback and a
// fallback always outranks a baseline placement.
const (
	directMax     = 100
	directMin     = 60
	fallbackMax   = 40
	baselineScore = 1
)

// directScore maps a preference rank (0-based index into the paper's
// preference list of length n) into the direct band: rank 1 scores 100,
// the last rank scores 60, intermediate ranks are spaced evenly.
func directScore(rankIdx, n int) int {
	if n <= 1 {
		return directMax
	}
	return directMax - (directMax-directMin)*rankIdx/(n-1)
}

// paperScore computes the preference score for placing the paper into a
// session carrying the given canonical topic.
//
// Priority: direct preference match (by rank), then similarity fallback
// between the paper's preferred topics and the session topic (scaled into
// the fallback band), then the baseline so every paper can go somewhere.
func paperScore(p *types.Paper, canonicalTopic int, groups similarity.Groups,
	scores similarity.PaperTopicScores, matrix *similarity.Matrix) int {
	members := groups[canonicalTopic]
	if len(members) == 0 {
		members = []int{canonicalTopic}
	}

	memberSet := make(map[int]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	for rankIdx, pref := range p.PrefIDs {
		if memberSet[pref] {
			return directScore(rankIdx, len(p.PrefIDs))
		}
	}

	// Fallback: how similar is the session's topic to anything the paper
	// asked for? Use the topic-topic matrix over every preference, and the
	// paper-topic scores where supplied.
	var best float64
	for _, pref := range p.PrefIDs {
		for _, m := range members {
			if sim := matrix.Sim(pref, m); sim > best {
				best = sim
			}
		}
	}
	if tscores, ok := scores[p.ID]; ok {
		for _, m := range members {
			if s, ok := tscores[m]; ok && s > best {
				best = s
			}
		}
	}
	if best > 0 {
		s := int(best * fallbackMax)
		if s < baselineScore {
			s = baselineScore
		}
		if s > fallbackMax {
			s = fallbackMax
		}
		return s
	}

	return baselineScore
}
