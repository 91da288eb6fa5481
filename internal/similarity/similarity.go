// Package similarity holds the semantic-similarity score matrices consumed
// by the assignment solver. Computing the scores (sentence embeddings over
// paper titles and topic names) happens outside this system; this package
// defines the typed containers and their JSON interchange format, plus the
// topic-group merging that folds small, highly similar topics together.
package similarity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"progman/internal/types"
)

// PaperTopicScores maps paper id -> topic id -> similarity score in [0, 1].
type PaperTopicScores map[int]map[int]float64

// Matrix is the topic-topic similarity matrix with its id index.
type Matrix struct {
	TopicIDs   []int       `json:"topic_ids"`
	TopicNames []string    `json:"topic_names,omitempty"`
	Scores     [][]float64 `json:"matrix"`

	index map[int]int
}

// Sim returns the similarity between two topic ids, 0 when either id is
// not indexed.
func (m *Matrix) Sim(a, b int) float64 {
	if m == nil {
		return 0
	}
	if m.index == nil {
		m.index = make(map[int]int, len(m.TopicIDs))
		for i, id := range m.TopicIDs {
			m.index[id] = i
		}
	}
	i, okA := m.index[a]
	j, okB := m.index[b]
	if !okA || !okB || i >= len(m.Scores) || j >= len(m.Scores[i]) {
		return 0
	}
	return m.Scores[i][j]
}

// LoadPaperTopicScores reads a paper-topic score file. Keys are strings in
// the interchange format.
func LoadPaperTopicScores(path string) (PaperTopicScores, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read paper-topic scores: %w", err)
	}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse paper-topic scores %s: %w", path, err)
	}
	scores := make(PaperTopicScores, len(raw))
	for pidStr, tscores := range raw {
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return nil, fmt.Errorf("paper-topic scores %s: bad paper id %q", path, pidStr)
		}
		scores[pid] = make(map[int]float64, len(tscores))
		for tidStr, s := range tscores {
			tid, err := strconv.Atoi(tidStr)
			if err != nil {
				return nil, fmt.Errorf("paper-topic scores %s: bad topic id %q", path, tidStr)
			}
			scores[pid][tid] = s
		}
	}
	return scores, nil
}

// LoadMatrix reads a topic-topic similarity matrix file.
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic similarity matrix: %w", err)
	}
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse topic similarity matrix %s: %w", path, err)
	}
	if len(m.Scores) != len(m.TopicIDs) {
		return nil, fmt.Errorf("topic similarity matrix %s: %d rows for %d topics",
			path, len(m.Scores), len(m.TopicIDs))
	}
	return &m, nil
}

// =============================================================================
// TOPIC GROUP MERGING
// =============================================================================

// Groups maps a canonical topic id to its member topic ids. A topic that
// was not merged forms a singleton group of itself.
type Groups map[int][]int

// Canonical returns the canonical topic id for the given member, or the
// member itself when it belongs to no group.
func (g Groups) Canonical(tid int) int {
	for ctid, members := range g {
		for _, m := range members {
			if m == tid {
				return ctid
			}
		}
	}
	return tid
}

// BuildGroups merges small topics into highly similar larger ones. Topics
// are merged when their similarity reaches mergeThreshold and either side
// has at most minGroupSize papers preferring it. Without a matrix every
// topic stays a singleton.
func BuildGroups(papers []types.Paper, topics []types.Topic, matrix *Matrix,
	mergeThreshold float64, minGroupSize int, logger *zap.Logger) Groups {
	if logger == nil {
		logger = zap.NewNop()
	}

	groups := make(Groups, len(topics))
	for _, t := range topics {
		groups[t.ID] = []int{t.ID}
	}
	if matrix == nil {
		return groups
	}

	prefCount := make(map[int]int)
	for _, p := range papers {
		if top := p.TopPref(); top != 0 {
			prefCount[top]++
		}
	}

	ids := make([]int, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
	}
	sort.Ints(ids)

	mergedInto := make(map[int]int)
	for i, a := range ids {
		if _, gone := mergedInto[a]; gone {
			continue
		}
		for _, b := range ids[i+1:] {
			if _, gone := mergedInto[b]; gone {
				continue
			}
			sim := matrix.Sim(a, b)
			if sim < mergeThreshold {
				continue
			}
			if prefCount[a] > minGroupSize && prefCount[b] > minGroupSize {
				continue
			}
			groups[a] = append(groups[a], groups[b]...)
			delete(groups, b)
			mergedInto[b] = a
			logger.Info("merged topic",
				zap.Int("topic", b),
				zap.Int("into", a),
				zap.Float64("similarity", sim),
				zap.Int("papers", prefCount[b]))
		}
	}
	return groups
}
