// Package constraint parses, validates, and indexes the scheduling
// constraint language.
//
// Grammar (one constraint per line, # starts a comment):
//
//	subject op value
//
// Subjects: paper_<id>, section_<sessionId>, room_<name>,
// morning_break_<day>, afternoon_break_<day>, lunch_<day>, dinner_<day>.
// Operators: =, !=, < (precedence, papers only), in, not_in.
// Values: day_<N>, S<NN>, paper_<id>, HH:MM, "text", {v1, v2, ...}.
//
// The Store keeps the parsed constraint list and derives the read-only query
// views (forced values, forbidden values, precedence edges, equality groups)
// that the solver and the room/chair assigners consume.
package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"progman/internal/types"
)

// Op is a constraint operator.
type Op string

const (
	OpEq    Op = "="
	OpNeq   Op = "!="
	OpLt    Op = "<"
	OpIn    Op = "in"
	OpNotIn Op = "not_in"
)

// SubjectType identifies what kind of entity a constraint refers to.
type SubjectType string

const (
	SubjectPaper          SubjectType = "paper"
	SubjectSection        SubjectType = "section"
	SubjectRoom           SubjectType = "room"
	SubjectMorningBreak   SubjectType = "morning_break"
	SubjectAfternoonBreak SubjectType = "afternoon_break"
	SubjectLunch          SubjectType = "lunch"
	SubjectDinner         SubjectType = "dinner"
)

// subjectPrefixes in match order; the longer break prefixes must win over
// any future shorter ones.
var subjectPrefixes = []SubjectType{
	SubjectMorningBreak,
	SubjectAfternoonBreak,
	SubjectPaper,
	SubjectSection,
	SubjectRoom,
	SubjectLunch,
	SubjectDinner,
}

// ValueKind classifies a parsed constraint value token.
type ValueKind int

const (
	ValueDay ValueKind = iota
	ValueSession
	ValuePaper
	ValueTime
	ValueLabel
)

// Value is one typed constraint value.
type Value struct {
	Kind    ValueKind
	Day     int    // ValueDay
	Session string // ValueSession, e.g. "S01"
	Paper   int    // ValuePaper
	Minutes int    // ValueTime, minutes after midnight
	Label   string // ValueLabel
	Raw     string // original token
}

// Constraint is a single parsed scheduling constraint. Immutable once
// added; queried, never mutated by the solver.
type Constraint struct {
	ID          string
	SubjectType SubjectType
	SubjectID   string
	Op          Op
	Values      []Value
}

// ParseError reports a malformed or unresolvable constraint, naming the
// offending token.
type ParseError struct {
	Text   string
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("cannot parse constraint %q: %s (token %q)", e.Text, e.Reason, e.Token)
	}
	return fmt.Sprintf("cannot parse constraint %q: %s", e.Text, e.Reason)
}

var (
	linePattern    = regexp.MustCompile(`^\s*(?P<subj>\S+)\s+(?P<op>=|!=|<|in|not_in)\s+(?P<val>.+?)\s*$`)
	sessionPattern = regexp.MustCompile(`^S\d+$`)
	timePattern    = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// Parse converts a `subject op value` line into a Constraint.
func Parse(text string) (Constraint, error) {
	m := linePattern.FindStringSubmatch(text)
	if m == nil {
		return Constraint{}, &ParseError{Text: text, Reason: "expected `subject op value`"}
	}
	rawSubj, rawOp, rawVal := m[1], m[2], m[3]

	subjType, subjID, err := parseSubject(text, rawSubj)
	if err != nil {
		return Constraint{}, err
	}

	op := Op(strings.ToLower(rawOp))

	values, err := parseValues(text, rawVal)
	if err != nil {
		return Constraint{}, err
	}

	c := Constraint{SubjectType: subjType, SubjectID: subjID, Op: op, Values: values}
	if err := c.checkShape(text); err != nil {
		return Constraint{}, err
	}
	return c, nil
}

func parseSubject(text, raw string) (SubjectType, string, error) {
	for _, st := range subjectPrefixes {
		prefix := string(st) + "_"
		if strings.HasPrefix(raw, prefix) {
			id := raw[len(prefix):]
			if id == "" {
				return "", "", &ParseError{Text: text, Token: raw, Reason: "subject has no identifier"}
			}
			return st, id, nil
		}
	}
	return "", "", &ParseError{Text: text, Token: raw, Reason: "unknown subject"}
}

func parseValues(text, raw string) ([]Value, error) {
	var tokens []string
	if strings.HasPrefix(raw, "{") {
		if !strings.HasSuffix(raw, "}") {
			return nil, &ParseError{Text: text, Token: raw, Reason: "unterminated value set"}
		}
		for _, tok := range strings.Split(raw[1:len(raw)-1], ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return nil, &ParseError{Text: text, Token: raw, Reason: "empty value in set"}
			}
			tokens = append(tokens, tok)
		}
	} else {
		tokens = []string{raw}
	}

	values := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		v, err := parseValue(text, tok)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseValue(text, tok string) (Value, error) {
	switch {
	case strings.HasPrefix(tok, "day_"):
		n, err := strconv.Atoi(tok[len("day_"):])
		if err != nil || n < 1 {
			return Value{}, &ParseError{Text: text, Token: tok, Reason: "invalid day number"}
		}
		return Value{Kind: ValueDay, Day: n, Raw: tok}, nil
	case strings.HasPrefix(tok, "paper_"):
		n, err := strconv.Atoi(tok[len("paper_"):])
		if err != nil || n < 1 {
			return Value{}, &ParseError{Text: text, Token: tok, Reason: "invalid paper id"}
		}
		return Value{Kind: ValuePaper, Paper: n, Raw: tok}, nil
	case sessionPattern.MatchString(tok):
		return Value{Kind: ValueSession, Session: tok, Raw: tok}, nil
	case timePattern.MatchString(tok):
		min, err := types.ParseClock(tok)
		if err != nil {
			return Value{}, &ParseError{Text: text, Token: tok, Reason: "invalid time"}
		}
		return Value{Kind: ValueTime, Minutes: min, Raw: tok}, nil
	case len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"':
		return Value{Kind: ValueLabel, Label: tok[1 : len(tok)-1], Raw: tok}, nil
	default:
		return Value{}, &ParseError{Text: text, Token: tok, Reason: "unrecognized value"}
	}
}

// checkShape enforces the operator/subject/value combinations the grammar
// allows.
func (c *Constraint) checkShape(text string) error {
	if c.Op == OpLt {
		if c.SubjectType != SubjectPaper {
			return &ParseError{Text: text, Token: string(c.SubjectType),
				Reason: "precedence (<) applies to papers only"}
		}
		if len(c.Values) != 1 || c.Values[0].Kind != ValuePaper {
			return &ParseError{Text: text, Token: c.valueRaw(),
				Reason: "precedence (<) requires a single paper value"}
		}
	}
	switch c.SubjectType {
	case SubjectMorningBreak, SubjectAfternoonBreak, SubjectLunch, SubjectDinner:
		if c.Op != OpEq {
			return &ParseError{Text: text, Token: string(c.Op),
				Reason: "break/meal subjects accept = only"}
		}
		if len(c.Values) != 1 || c.Values[0].Kind != ValueTime {
			return &ParseError{Text: text, Token: c.valueRaw(),
				Reason: "break/meal subjects require a HH:MM value"}
		}
		if _, err := strconv.Atoi(c.SubjectID); err != nil {
			return &ParseError{Text: text, Token: c.SubjectID,
				Reason: "break/meal subject requires a day number"}
		}
	case SubjectSection:
		if c.Op != OpEq || len(c.Values) != 1 || c.Values[0].Kind != ValueLabel {
			return &ParseError{Text: text, Token: c.valueRaw(),
				Reason: "section subjects accept = with a quoted label only"}
		}
	case SubjectRoom:
		for _, v := range c.Values {
			if v.Kind != ValueDay {
				return &ParseError{Text: text, Token: v.Raw,
					Reason: "room subjects accept day values only"}
			}
		}
	}
	return nil
}

func (c *Constraint) valueRaw() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0].Raw
}

// Subject returns the textual subject, e.g. "paper_437".
func (c *Constraint) Subject() string {
	return string(c.SubjectType) + "_" + c.SubjectID
}

// Text renders the constraint back to its grammar form.
func (c *Constraint) Text() string {
	var vals []string
	for _, v := range c.Values {
		vals = append(vals, v.Raw)
	}
	valStr := ""
	switch len(vals) {
	case 0:
	case 1:
		valStr = vals[0]
	default:
		valStr = "{" + strings.Join(vals, ", ") + "}"
	}
	return fmt.Sprintf("%s %s %s", c.Subject(), c.Op, valStr)
}
