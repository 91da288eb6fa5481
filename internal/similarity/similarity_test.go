package similarity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progman/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPaperTopicScores(t *testing.T) {
	path := writeFile(t, "scores.json", `{
		"12": {"1": 0.91, "2": 0.15},
		"34": {"1": 0.05}
	}`)
	scores, err := LoadPaperTopicScores(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.91, scores[12][1], 1e-9)
	assert.InDelta(t, 0.15, scores[12][2], 1e-9)
	assert.InDelta(t, 0.05, scores[34][1], 1e-9)
}

func TestLoadPaperTopicScoresBadKey(t *testing.T) {
	path := writeFile(t, "scores.json", `{"abc": {"1": 0.5}}`)
	_, err := LoadPaperTopicScores(path)
	assert.Error(t, err)
}

func TestLoadMatrix(t *testing.T) {
	path := writeFile(t, "matrix.json", `{
		"topic_ids": [3, 7],
		"topic_names": ["Robotics", "Vision"],
		"matrix": [[1.0, 0.62], [0.62, 1.0]]
	}`)
	m, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.62, m.Sim(3, 7), 1e-9)
	assert.InDelta(t, 1.0, m.Sim(7, 7), 1e-9)
	// Unindexed ids score zero.
	assert.Zero(t, m.Sim(3, 99))
}

func TestLoadMatrixRowMismatch(t *testing.T) {
	path := writeFile(t, "matrix.json", `{"topic_ids": [1, 2], "matrix": [[1.0]]}`)
	_, err := LoadMatrix(path)
	assert.Error(t, err)
}

func TestNilMatrixSim(t *testing.T) {
	var m *Matrix
	assert.Zero(t, m.Sim(1, 2))
}

func TestBuildGroupsMergesSmallSimilarTopics(t *testing.T) {
	topics := []types.Topic{{ID: 1}, {ID: 2}, {ID: 3}}
	// Topic 2 is small and nearly identical to topic 1; topic 3 is unrelated.
	papers := []types.Paper{
		{ID: 1, PrefIDs: []int{1}}, {ID: 2, PrefIDs: []int{1}},
		{ID: 3, PrefIDs: []int{1}}, {ID: 4, PrefIDs: []int{1}},
		{ID: 5, PrefIDs: []int{2}},
	}
	matrix := &Matrix{
		TopicIDs: []int{1, 2, 3},
		Scores: [][]float64{
			{1.0, 0.9, 0.1},
			{0.9, 1.0, 0.1},
			{0.1, 0.1, 1.0},
		},
	}

	groups := BuildGroups(papers, topics, matrix, 0.75, 3, nil)
	assert.Equal(t, []int{1, 2}, groups[1])
	assert.Equal(t, []int{3}, groups[3])
	_, exists := groups[2]
	assert.False(t, exists)

	assert.Equal(t, 1, groups.Canonical(2))
	assert.Equal(t, 3, groups.Canonical(3))
	assert.Equal(t, 99, groups.Canonical(99))
}

func TestBuildGroupsRespectsLargeTopics(t *testing.T) {
	topics := []types.Topic{{ID: 1}, {ID: 2}}
	var papers []types.Paper
	// Both topics exceed the small-group threshold; no merge despite the
	// high similarity.
	for i := 1; i <= 10; i++ {
		tid := 1 + i%2
		papers = append(papers, types.Paper{ID: i, PrefIDs: []int{tid}})
	}
	matrix := &Matrix{TopicIDs: []int{1, 2}, Scores: [][]float64{{1, 0.95}, {0.95, 1}}}

	groups := BuildGroups(papers, topics, matrix, 0.75, 3, nil)
	assert.Equal(t, []int{1}, groups[1])
	assert.Equal(t, []int{2}, groups[2])
}

func TestBuildGroupsWithoutMatrix(t *testing.T) {
	topics := []types.Topic{{ID: 4}, {ID: 9}}
	groups := BuildGroups(nil, topics, nil, 0.75, 3, nil)
	assert.Equal(t, Groups{4: {4}, 9: {9}}, groups)
}
