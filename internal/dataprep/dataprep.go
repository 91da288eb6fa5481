// Package dataprep loads the input data sets: papers from CSV exports via
// a configurable column mapping, plus topics, rooms, chair rosters, and
// constraint line files. Legacy encodings are detected and repaired on the
// way in so downstream stages only ever see clean UTF-8.
package dataprep

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"progman/internal/types"
)

// table is a parsed CSV file with header-indexed access.
type table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

func readTable(path string, comma rune, enc string) (*table, error) {
	text, err := readTextFile(path, enc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing %s: empty file", path)
	}

	t := &table{index: make(map[string]int)}
	for i, col := range records[0] {
		col = strings.TrimSpace(col)
		t.columns = append(t.columns, col)
		t.index[col] = i
	}
	t.rows = records[1:]
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// get returns the trimmed cell value, with "NULL" normalised to empty.
func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if v == "NULL" {
		return ""
	}
	return v
}

// =============================================================================
// PAPERS
// =============================================================================

// LoadPapers reads papers from a CSV export using the column mapping.
// Author fields are zipped across the resolved name, affiliation,
// department, and email columns.
func LoadPapers(path string, mapping *ColumnMapping) ([]types.Paper, error) {
	if mapping == nil {
		mapping = DefaultMapping()
	}
	t, err := readTable(path, mapping.Sep(), mapping.Encoding)
	if err != nil {
		return nil, err
	}

	nameCols := mapping.AuthorNames.Resolve(t.columns)
	affCols := mapping.AuthorAffiliations.Resolve(t.columns)
	depCols := mapping.AuthorDepartments.Resolve(t.columns)
	emailCols := mapping.AuthorEmails.Resolve(t.columns)
	prefCols := mapping.PrefColumns.Resolve(t.columns)

	var papers []types.Paper
	for _, row := range t.rows {
		var authors []types.Author
		for i, nameCol := range nameCols {
			name := t.get(row, nameCol)
			if name == "" {
				continue
			}
			a := types.Author{Name: fixMojibake(name)}
			if i < len(affCols) {
				a.Affiliation = fixMojibake(t.get(row, affCols[i]))
			}
			if i < len(depCols) {
				a.Department = fixMojibake(t.get(row, depCols[i]))
			}
			if i < len(emailCols) {
				a.Email = t.get(row, emailCols[i])
			}
			authors = append(authors, a)
		}

		var prefs []int
		for _, pc := range prefCols {
			if v := t.get(row, pc); v != "" {
				if id, err := strconv.Atoi(v); err == nil {
					prefs = append(prefs, id)
				}
			}
		}

		pid, _ := strconv.Atoi(t.get(row, mapping.PaperID))
		papers = append(papers, types.Paper{
			ID:        pid,
			Title:     fixMojibake(t.get(row, mapping.Title)),
			Authors:   authors,
			CorrEmail: t.get(row, mapping.CorrEmail),
			PrefIDs:   prefs,
			Comment:   fixMojibake(t.get(row, mapping.Comment)),
		})
	}
	return papers, nil
}

// =============================================================================
// TOPICS
// =============================================================================

// LoadTopics reads the topic reference set from a semicolon-separated CSV
// with "pref_id" and "topic name" columns.
func LoadTopics(path string) ([]types.Topic, error) {
	t, err := readTable(path, ';', "utf-8")
	if err != nil {
		return nil, err
	}
	var topics []types.Topic
	for _, row := range t.rows {
		id, err := strconv.Atoi(t.get(row, "pref_id"))
		if err != nil {
			return nil, fmt.Errorf("topics %s: bad pref_id %q: %w", path, t.get(row, "pref_id"), err)
		}
		topics = append(topics, types.Topic{ID: id, Name: t.get(row, "topic name")})
	}
	return topics, nil
}

// DefaultTopics generates n placeholder topics.
func DefaultTopics(n int) []types.Topic {
	topics := make([]types.Topic, n)
	for i := range topics {
		topics[i] = types.Topic{ID: i + 1, Name: fmt.Sprintf("Topic %d", i+1)}
	}
	return topics
}

// =============================================================================
// ROOMS
// =============================================================================

// LoadRooms reads the room set from a semicolon-separated CSV with
// "room_name" and optional "room_id" and "capacity" columns. Rooms without
// ids are numbered by row order.
func LoadRooms(path string) ([]types.Room, error) {
	t, err := readTable(path, ';', "utf-8")
	if err != nil {
		return nil, err
	}
	var rooms []types.Room
	for i, row := range t.rows {
		id := i + 1
		if t.has("room_id") {
			if v, err := strconv.Atoi(t.get(row, "room_id")); err == nil {
				id = v
			}
		}
		capacity, _ := strconv.Atoi(t.get(row, "capacity"))
		rooms = append(rooms, types.Room{
			ID:       id,
			Name:     fixMojibake(t.get(row, "room_name")),
			Capacity: capacity,
		})
	}
	return rooms, nil
}

// DefaultRooms generates n placeholder rooms with no capacity data.
func DefaultRooms(n int) []types.Room {
	rooms := make([]types.Room, n)
	for i := range rooms {
		rooms[i] = types.Room{ID: i + 1, Name: fmt.Sprintf("Room %d", i+1)}
	}
	return rooms
}

// =============================================================================
// CHAIRS
// =============================================================================

// LoadChairs reads a chair roster from a semicolon-separated CSV. Two
// formats are supported: the simple roster ("chair_id;chair_name") and the
// extended roster with "lastname", "firstname", "email", "arrival" and
// "departure" columns. Missing arrival/departure default to the whole
// event.
func LoadChairs(path string) ([]types.Chair, error) {
	t, err := readTable(path, ';', "utf-8")
	if err != nil {
		return nil, err
	}
	var chairs []types.Chair
	for i, row := range t.rows {
		id := i + 1
		if t.has("chair_id") {
			if v, err := strconv.Atoi(t.get(row, "chair_id")); err == nil {
				id = v
			}
		}

		var name string
		switch {
		case t.has("lastname"):
			name = strings.TrimSpace(fixMojibake(t.get(row, "firstname")) + " " + fixMojibake(t.get(row, "lastname")))
		case t.has("chair_name"):
			name = fixMojibake(t.get(row, "chair_name"))
		default:
			name = fmt.Sprintf("Chair %d", i+1)
		}

		arrival := 1
		if t.has("arrival") {
			if v, err := strconv.Atoi(t.get(row, "arrival")); err == nil {
				arrival = v
			}
		}
		departure := types.NoDepartureLimit
		if t.has("departure") {
			if v, err := strconv.Atoi(t.get(row, "departure")); err == nil {
				departure = v
			}
		}

		chairs = append(chairs, types.Chair{
			ID:           id,
			Name:         name,
			Email:        t.get(row, "email"),
			ArrivalDay:   arrival,
			DepartureDay: departure,
		})
	}
	return chairs, nil
}

// DefaultChairs generates n placeholder chairs present for the whole event.
func DefaultChairs(n int) []types.Chair {
	chairs := make([]types.Chair, n)
	for i := range chairs {
		chairs[i] = types.Chair{
			ID:           i + 1,
			Name:         fmt.Sprintf("Chair %d", i+1),
			ArrivalDay:   1,
			DepartureDay: types.NoDepartureLimit,
		}
	}
	return chairs
}

// =============================================================================
// CONSTRAINT FILES
// =============================================================================

// LoadConstraintLines reads constraint strings from a text file, one per
// line. Blank lines and lines starting with # are skipped.
func LoadConstraintLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading constraints: %w", err)
	}
	var lines []string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
