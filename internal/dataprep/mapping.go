package dataprep

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ColumnSpec selects columns from a CSV header. It is either a single
// column name, a pattern ("*" matches anything, "##" matches one or two
// digits, both case-insensitive), or an explicit column list. In JSON it
// is written as a string or an array of strings.
type ColumnSpec struct {
	Names   []string
	Pattern string
}

// MarshalJSON writes a bare string for single/pattern specs and an array
// for lists.
func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	if c.Pattern != "" {
		return json.Marshal(c.Pattern)
	}
	if len(c.Names) == 1 {
		return json.Marshal(c.Names[0])
	}
	return json.Marshal(c.Names)
}

func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Spec(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("column spec must be a string or string array: %w", err)
	}
	*c = ColumnSpec{Names: list}
	return nil
}

// Spec builds a ColumnSpec from a single string, classifying it as a
// pattern when it contains wildcards.
func Spec(s string) ColumnSpec {
	if strings.ContainsAny(s, "*") || strings.Contains(s, "##") {
		return ColumnSpec{Pattern: s}
	}
	if s == "" {
		return ColumnSpec{}
	}
	return ColumnSpec{Names: []string{s}}
}

// Resolve expands the spec against the actual CSV header. Pattern matches
// are returned sorted; list entries keep their order and drop columns the
// header lacks.
func (c ColumnSpec) Resolve(columns []string) []string {
	if c.Pattern != "" {
		quoted := regexp.QuoteMeta(c.Pattern)
		quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
		quoted = strings.ReplaceAll(quoted, `\#\#`, `\d{1,2}`)
		pat, err := regexp.Compile(`(?i)^` + quoted + `$`)
		if err != nil {
			return nil
		}
		var out []string
		for _, col := range columns {
			if pat.MatchString(col) {
				out = append(out, col)
			}
		}
		sort.Strings(out)
		return out
	}
	var out []string
	for _, name := range c.Names {
		for _, col := range columns {
			if col == name {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// ColumnMapping describes how paper CSV columns map onto paper fields.
// Author columns are zipped positionally: the i-th name column pairs with
// the i-th affiliation, department, and email columns.
type ColumnMapping struct {
	PaperID            string     `json:"paper_id"`
	Title              string     `json:"title"`
	AuthorNames        ColumnSpec `json:"author_names"`
	AuthorAffiliations ColumnSpec `json:"author_affiliations"`
	AuthorDepartments  ColumnSpec `json:"author_departments"`
	AuthorEmails       ColumnSpec `json:"author_emails"`
	CorrEmail          string     `json:"corr_email"`
	PrefColumns        ColumnSpec `json:"pref_columns"`
	Comment            string     `json:"comment"`
	Separator          string     `json:"separator"`
	Encoding           string     `json:"encoding"`
}

// DefaultMapping returns the mapping for the conventional export format.
func DefaultMapping() *ColumnMapping {
	return &ColumnMapping{
		PaperID:            "paper_id",
		Title:              "title",
		AuthorNames:        Spec("f_name"),
		AuthorAffiliations: Spec("f_affiliation"),
		AuthorEmails:       Spec("f_email"),
		CorrEmail:          "corr_email",
		PrefColumns:        Spec("pref_one"),
		Comment:            "comments",
		Separator:          ";",
		Encoding:           "utf-8",
	}
}

// Sep returns the field separator as a rune, defaulting to ';'.
func (m *ColumnMapping) Sep() rune {
	if m.Separator == "" {
		return ';'
	}
	return []rune(m.Separator)[0]
}

// LoadMapping reads a ColumnMapping from a JSON file. Fields absent from
// the file keep their defaults.
func LoadMapping(path string) (*ColumnMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading column mapping: %w", err)
	}
	m := DefaultMapping()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing column mapping %s: %w", path, err)
	}
	return m, nil
}

// SaveMapping writes a ColumnMapping to a JSON file.
func SaveMapping(m *ColumnMapping, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
