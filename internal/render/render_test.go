package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progman/internal/types"
)

func sampleProgram() *types.Program {
	slot := func(day int, start, end string, kind types.SlotKind, label string) types.TimeSlot {
		return types.TimeSlot{Start: start, End: end, Kind: kind, Label: label, Day: day}
	}
	opening := slot(1, "09:00", "10:00", types.SlotPlenary, "Opening")
	morning := slot(1, "10:00", "11:00", types.SlotSession, "")
	lunch := slot(1, "12:00", "13:00", types.SlotLunch, "Lunch")

	s1 := &types.Session{
		ID:    "S01",
		Day:   1,
		Slot:  &morning,
		Topic: &types.Topic{ID: 3, Name: "Adaptive Control"},
		Room:  &types.Room{ID: 1, Name: "Aula", Capacity: 300},
		Chair: &types.Chair{ID: 1, Name: "Ada Duarte"},
		Papers: []types.Paper{
			{ID: 7, Title: "Gain & Phase Margins", Authors: []types.Author{{Name: "Ben Okafor"}, {Name: "Mia Chen"}}},
		},
	}
	s2 := &types.Session{ID: "S02", Day: 1, Slot: &morning}

	return &types.Program{
		Days: []types.DayProgram{{
			Day: 1,
			Slots: []types.Slot{
				{Time: opening, Sessions: []*types.Session{{ID: "P01", Day: 1, Slot: &opening, Fixed: true}}},
				{Time: morning, Sessions: []*types.Session{s1, s2}},
				{Time: lunch},
			},
		}},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleProgram())

	assert.True(t, strings.HasPrefix(out, "# Conference Programme\n"))
	assert.Contains(t, out, "## Day 1\n")
	assert.Contains(t, out, "### 09:00\u201310:00  Opening *(reserved)*")
	assert.Contains(t, out, "### 10:00\u201311:00  Sessions")
	assert.Contains(t, out, "#### S01 [Adaptive Control] \u2014 *Aula* (Chair: Ada Duarte)")
	assert.Contains(t, out, "- **Gain & Phase Margins**  \n  Ben Okafor, Mia Chen")
	assert.Contains(t, out, "#### S02\n\n*No papers assigned.*")
	assert.Contains(t, out, "### 12:00\u201313:00  Lunch")
	assert.Contains(t, out, "---\n")
}

func TestLaTeX(t *testing.T) {
	out := LaTeX(sampleProgram())

	assert.True(t, strings.HasPrefix(out, `\documentclass[a4paper,11pt]{article}`))
	assert.True(t, strings.HasSuffix(out, "\\end{document}\n"))
	assert.Contains(t, out, `\section*{Day 1}`)
	assert.Contains(t, out, `\subsection*{09:00--10:00 \quad Opening (reserved)}`)
	assert.Contains(t, out, `\paragraph{S01 -- Adaptive Control \textit{Aula} (Chair: Ada Duarte)}`)
	// Ampersand in the title must be escaped.
	assert.Contains(t, out, `\item \textbf{Gain \& Phase Margins}`)
	assert.Contains(t, out, `\emph{No papers assigned.}`)
}

func TestTexEscape(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a & b", `a \& b`},
		{"100%", `100\%`},
		{"x_1 ^ y", `x\_1 \textasciicircum{} y`},
		{"{braces} #5 $2 ~home", `\{braces\} \#5 \$2 \textasciitilde{}home`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, texEscape(tt.in))
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	prog := sampleProgram()

	mdPath := filepath.Join(dir, "prog.md")
	require.NoError(t, Write(prog, mdPath, "md"))
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Equal(t, Markdown(prog), string(data))

	texPath := filepath.Join(dir, "prog.tex")
	require.NoError(t, Write(prog, texPath, "latex"))
	data, err = os.ReadFile(texPath)
	require.NoError(t, err)
	assert.Equal(t, LaTeX(prog), string(data))

	// Empty format defaults to Markdown.
	defPath := filepath.Join(dir, "prog.txt")
	require.NoError(t, Write(prog, defPath, ""))

	err = Write(prog, filepath.Join(dir, "prog.html"), "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
