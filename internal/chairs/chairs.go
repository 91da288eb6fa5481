// Package chairs assigns session chairs to a programme. A chair is only
// eligible on days they are present, never chairs a session containing
// their own paper, never chairs while presenting in a parallel session,
// and never chairs two sessions in the same slot. Among eligible chairs a
// topic match is preferred and load is balanced across the roster.
package chairs

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"progman/internal/types"
)

const (
	topicBonus  = 100
	loadPenalty = 10
)

// Assigner is the chair assignment stage.
type Assigner struct {
	logger *zap.Logger
}

// New creates an Assigner. A nil logger is replaced with a no-op logger.
func New(logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{logger: logger}
}

// InferTopics fills in each chair's topic ids by matching the chair's
// email or name against paper authors. Chairs whose topics are already
// set are left alone. The input slice is modified in place.
func InferTopics(roster []types.Chair, papers []types.Paper) {
	emailPrefs := make(map[string][]int)
	namePrefs := make(map[string][]int)
	for _, p := range papers {
		for _, a := range p.Authors {
			if a.Email != "" {
				key := strings.ToLower(a.Email)
				emailPrefs[key] = append(emailPrefs[key], p.PrefIDs...)
			}
			if a.Name != "" {
				key := strings.ToLower(a.Name)
				namePrefs[key] = append(namePrefs[key], p.PrefIDs...)
			}
		}
	}

	for i := range roster {
		ch := &roster[i]
		if len(ch.TopicIDs) > 0 {
			continue
		}
		var prefs []int
		if ch.Email != "" {
			prefs = append(prefs, emailPrefs[strings.ToLower(ch.Email)]...)
		}
		if ch.Name != "" {
			prefs = append(prefs, namePrefs[strings.ToLower(ch.Name)]...)
		}
		seen := make(map[int]bool, len(prefs))
		for _, tid := range prefs {
			if !seen[tid] {
				seen[tid] = true
				ch.TopicIDs = append(ch.TopicIDs, tid)
			}
		}
	}
}

// sessionAuthorEmails collects the lowercase emails of every author
// presenting in the session.
func sessionAuthorEmails(sess *types.Session) map[string]bool {
	emails := make(map[string]bool)
	for _, p := range sess.Papers {
		for _, a := range p.Authors {
			if a.Email != "" {
				emails[strings.ToLower(a.Email)] = true
			}
		}
	}
	return emails
}

func chairPresentsIn(ch *types.Chair, sess *types.Session) bool {
	if ch.Email == "" {
		return false
	}
	return sessionAuthorEmails(sess)[strings.ToLower(ch.Email)]
}

func chairPresentsInSlot(ch *types.Chair, slot []*types.Session) bool {
	for _, sess := range slot {
		if chairPresentsIn(ch, sess) {
			return true
		}
	}
	return false
}

// Assign places a chair on every regular session where an eligible chair
// exists and returns a new programme; the input is never mutated.
// Sessions with no eligible chair are left open and recorded as warnings
// in the programme metadata. Existing chair assignments are cleared
// first, so re-running the stage is safe.
func (a *Assigner) Assign(prog *types.Program, roster []types.Chair,
	papers []types.Paper) *types.Program {

	out := prog.Clone()
	if len(roster) == 0 {
		a.logger.Warn("no chairs provided, skipping chair assignment")
		return out
	}

	chairs := append([]types.Chair(nil), roster...)
	sort.Slice(chairs, func(i, j int) bool { return chairs[i].ID < chairs[j].ID })
	InferTopics(chairs, papers)

	for _, sess := range out.AllSessions() {
		sess.Chair = nil
	}

	load := make(map[int]int)
	var warnings []string

	for _, dayProg := range out.Days {
		day := dayProg.Day
		for _, slot := range dayProg.Slots {
			if slot.Time.Kind != types.SlotSession {
				continue
			}
			sessions := append([]*types.Session(nil), slot.Sessions...)
			sort.Slice(sessions, func(i, j int) bool { return types.SessionIDLess(sessions[i].ID, sessions[j].ID) })
			usedInSlot := make(map[int]bool)

			for _, sess := range sessions {
				var best *types.Chair
				bestScore := 0
				for i := range chairs {
					ch := &chairs[i]
					if usedInSlot[ch.ID] || !ch.Available(day) {
						continue
					}
					if chairPresentsIn(ch, sess) || chairPresentsInSlot(ch, sessions) {
						continue
					}
					score := -load[ch.ID] * loadPenalty
					if sess.Topic != nil && containsInt(ch.TopicIDs, sess.Topic.ID) {
						score += topicBonus
					}
					// Strict improvement keeps the lowest chair id on ties.
					if best == nil || score > bestScore {
						best = ch
						bestScore = score
					}
				}
				if best == nil {
					w := fmt.Sprintf("no eligible chair for session %s (day %d)", sess.ID, day)
					warnings = append(warnings, w)
					a.logger.Warn("no eligible chair",
						zap.String("session", sess.ID), zap.Int("day", day))
					continue
				}
				ch := *best
				ch.TopicIDs = append([]int(nil), best.TopicIDs...)
				sess.Chair = &ch
				usedInSlot[best.ID] = true
				load[best.ID]++
			}
		}
	}

	out.Meta.Stage = "chairs"
	out.Meta.ChairWarnings = warnings
	a.logger.Info("chairs assigned",
		zap.Int("chairs", len(chairs)),
		zap.Int("warnings", len(warnings)))
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
