// Package render turns a programme into human-readable output: a Markdown
// overview and a standalone LaTeX document.
package render

import (
	"fmt"
	"os"
	"strings"

	"progman/internal/types"
)

// Markdown renders the full programme as Markdown.
func Markdown(prog *types.Program) string {
	var b strings.Builder
	b.WriteString("# Conference Programme\n\n")

	for _, dayProg := range prog.Days {
		fmt.Fprintf(&b, "## Day %d\n\n", dayProg.Day)

		for _, slot := range dayProg.Slots {
			ts := slot.Time
			switch ts.Kind {
			case types.SlotBreak, types.SlotLunch, types.SlotDinner:
				fmt.Fprintf(&b, "### %s\u2013%s  %s\n\n", ts.Start, ts.End, ts.Label)
				continue
			case types.SlotPlenary:
				fmt.Fprintf(&b, "### %s\u2013%s  %s *(reserved)*\n\n", ts.Start, ts.End, ts.Label)
				continue
			case types.SlotSession:
			default:
				continue
			}

			fmt.Fprintf(&b, "### %s\u2013%s  Sessions\n\n", ts.Start, ts.End)
			for _, sess := range slot.Sessions {
				var topic, room, chair string
				if sess.Topic != nil && sess.Topic.Name != "" {
					topic = fmt.Sprintf(" [%s]", sess.Topic.Name)
				}
				if sess.Room != nil {
					room = fmt.Sprintf(" \u2014 *%s*", sess.Room.Name)
				}
				if sess.Chair != nil {
					chair = fmt.Sprintf(" (Chair: %s)", sess.Chair.Name)
				}
				fmt.Fprintf(&b, "#### %s%s%s%s\n\n", sess.ID, topic, room, chair)

				if len(sess.Papers) == 0 {
					b.WriteString("*No papers assigned.*\n\n")
					continue
				}
				for _, p := range sess.Papers {
					names := make([]string, len(p.Authors))
					for i, a := range p.Authors {
						names[i] = a.Name
					}
					fmt.Fprintf(&b, "- **%s**  \n  %s\n", p.Title, strings.Join(names, ", "))
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

var texReplacer = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func texEscape(s string) string {
	return texReplacer.Replace(s)
}

// LaTeX renders the full programme as a standalone LaTeX document.
func LaTeX(prog *types.Program) string {
	var b strings.Builder
	preamble := []string{
		`\documentclass[a4paper,11pt]{article}`,
		`\usepackage[utf8]{inputenc}`,
		`\usepackage[T1]{fontenc}`,
		`\usepackage{booktabs}`,
		`\usepackage{longtable}`,
		`\usepackage{geometry}`,
		`\geometry{margin=2cm}`,
		`\usepackage{enumitem}`,
		`\begin{document}`,
		`\begin{center}`,
		`{\LARGE\bfseries Conference Programme}\\[1em]`,
		`\end{center}`,
		``,
	}
	b.WriteString(strings.Join(preamble, "\n"))
	b.WriteString("\n")

	for _, dayProg := range prog.Days {
		fmt.Fprintf(&b, "\\section*{Day %d}\n\n", dayProg.Day)

		for _, slot := range dayProg.Slots {
			ts := slot.Time
			switch ts.Kind {
			case types.SlotBreak, types.SlotLunch, types.SlotDinner:
				fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad \\textit{%s}}\n\n",
					ts.Start, ts.End, texEscape(ts.Label))
				continue
			case types.SlotPlenary:
				fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad %s (reserved)}\n\n",
					ts.Start, ts.End, texEscape(ts.Label))
				continue
			case types.SlotSession:
			default:
				continue
			}

			fmt.Fprintf(&b, "\\subsection*{%s--%s \\quad Sessions}\n\n", ts.Start, ts.End)
			for _, sess := range slot.Sessions {
				var topic, room, chair string
				if sess.Topic != nil && sess.Topic.Name != "" {
					topic = " -- " + texEscape(sess.Topic.Name)
				}
				if sess.Room != nil {
					room = fmt.Sprintf(" \\textit{%s}", texEscape(sess.Room.Name))
				}
				if sess.Chair != nil {
					chair = fmt.Sprintf(" (Chair: %s)", texEscape(sess.Chair.Name))
				}
				fmt.Fprintf(&b, "\\paragraph{%s%s%s%s}\n", texEscape(sess.ID), topic, room, chair)

				if len(sess.Papers) == 0 {
					b.WriteString("\\emph{No papers assigned.}\n\n")
					continue
				}
				b.WriteString("\\begin{itemize}[leftmargin=*]\n")
				for _, p := range sess.Papers {
					names := make([]string, len(p.Authors))
					for i, a := range p.Authors {
						names[i] = texEscape(a.Name)
					}
					fmt.Fprintf(&b, "  \\item \\textbf{%s} \\\\ %s\n",
						texEscape(p.Title), strings.Join(names, ", "))
				}
				b.WriteString("\\end{itemize}\n\n")
			}
		}
		b.WriteString("\\bigskip\\hrule\\bigskip\n\n")
	}
	b.WriteString("\\end{document}\n")
	return b.String()
}

// Write renders the programme to path in the given format, "md" or "latex".
func Write(prog *types.Program, path, format string) error {
	var text string
	switch format {
	case "latex", "tex":
		text = LaTeX(prog)
	case "md", "markdown", "":
		text = Markdown(prog)
	default:
		return fmt.Errorf("unknown output format %q (want md or latex)", format)
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
