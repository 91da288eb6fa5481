// Package config holds the schedule configuration: conference shape, daily
// times, breaks, plenary reservations, and the raw constraint list. The
// configuration is loaded once, validated, and passed to each pipeline stage
// as an immutable value.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"progman/internal/types"
)

// PlenarySlot reserves a fixed slot in the schedule (keynote, welcome,
// closing). Room optionally pins the slot to a specific room name.
type PlenarySlot struct {
	Label string `yaml:"label" json:"label"`
	Day   int    `yaml:"day" json:"day"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
	Room  string `yaml:"room,omitempty" json:"room,omitempty"`
}

// ScheduleConfig is every tunable for building a conference programme.
type ScheduleConfig struct {
	// Conference shape.
	NumDays            int `yaml:"num_days"`
	MaxSessionDuration int `yaml:"max_session_duration_min"`
	PresentationMin    int `yaml:"presentation_duration_min"`
	NumAvailableRooms  int `yaml:"num_available_rooms"`
	MaxRoomsPerDay     int `yaml:"max_rooms_per_day"`

	// Daily times. FirstDayStart/LastDayEnd override day 1 / the last day
	// when non-empty.
	DayStart      string `yaml:"day_start"`
	DayEnd        string `yaml:"day_end"`
	FirstDayStart string `yaml:"first_day_start,omitempty"`
	LastDayEnd    string `yaml:"last_day_end,omitempty"`

	// Breaks and meals.
	BreakDuration   int    `yaml:"break_duration_min"`
	MorningBreak    bool   `yaml:"morning_break"`
	AfternoonBreak  bool   `yaml:"afternoon_break"`
	LunchIncluded   bool   `yaml:"lunch_included"`
	LunchDuration   int    `yaml:"lunch_duration_min"`
	DinnerIncluded  bool   `yaml:"dinner_included"`
	DinnerStart     string `yaml:"dinner_start"`

	// Target placement times for breaks and lunch ("HH:MM").
	MorningBreakTarget   string `yaml:"morning_break_target"`
	LunchTarget          string `yaml:"lunch_target"`
	AfternoonBreakTarget string `yaml:"afternoon_break_target"`

	// Minutes lost when an audience changes rooms between slots.
	RoomChangePenalty int `yaml:"room_change_penalty_min"`

	// Reserved slots.
	PlenarySlots []PlenarySlot `yaml:"plenary_slots,omitempty"`

	// Constraints in text form, one per entry (grammar: subject op value).
	Constraints []string `yaml:"constraints,omitempty"`

	// Extra is a catch-all for tunables that have no dedicated field yet.
	Extra map[string]any `yaml:"extra,omitempty"`
}

// DefaultConfig returns a three-day conference with conventional times.
func DefaultConfig() *ScheduleConfig {
	return &ScheduleConfig{
		NumDays:            3,
		MaxSessionDuration: 90,
		PresentationMin:    20,
		NumAvailableRooms:  5,
		MaxRoomsPerDay:     5,
		DayStart:           "09:00",
		DayEnd:             "17:30",
		BreakDuration:      30,
		MorningBreak:       true,
		AfternoonBreak:     true,
		LunchIncluded:      true,
		LunchDuration:      60,
		DinnerIncluded:     false,
		DinnerStart:        "19:00",
		MorningBreakTarget: "10:30",
		LunchTarget:        "12:00",
		AfternoonBreakTarget: "15:00",
		RoomChangePenalty:  5,
	}
}

// PapersPerSession returns the derived per-session paper capacity.
func (c *ScheduleConfig) PapersPerSession() int {
	if c.PresentationMin <= 0 {
		return 0
	}
	return c.MaxSessionDuration / c.PresentationMin
}

// EffectiveDayStart returns the start time for the given day, honouring
// the first-day override.
func (c *ScheduleConfig) EffectiveDayStart(day int) string {
	if day == 1 && c.FirstDayStart != "" {
		return c.FirstDayStart
	}
	return c.DayStart
}

// EffectiveDayEnd returns the end time for the given day, honouring the
// last-day override.
func (c *ScheduleConfig) EffectiveDayEnd(day int) string {
	if day == c.NumDays && c.LastDayEnd != "" {
		return c.LastDayEnd
	}
	return c.DayEnd
}

// TopicDiversity reports whether the solver's topic-diversity objective is
// enabled. Defaults to true when extra.topic_diversity is absent.
func (c *ScheduleConfig) TopicDiversity() bool {
	if c.Extra == nil {
		return true
	}
	v, ok := c.Extra["topic_diversity"]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

// ParallelSessions returns how many sessions run in parallel per slot.
func (c *ScheduleConfig) ParallelSessions() int {
	n := c.NumAvailableRooms
	if c.MaxRoomsPerDay > 0 && c.MaxRoomsPerDay < n {
		n = c.MaxRoomsPerDay
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks the configuration for internally inconsistent values.
func (c *ScheduleConfig) Validate() error {
	if c.NumDays < 1 {
		return fmt.Errorf("num_days must be at least 1, got %d", c.NumDays)
	}
	if c.PresentationMin <= 0 {
		return fmt.Errorf("presentation_duration_min must be positive, got %d", c.PresentationMin)
	}
	if c.MaxSessionDuration < c.PresentationMin {
		return fmt.Errorf("max_session_duration_min (%d) is shorter than one presentation (%d)",
			c.MaxSessionDuration, c.PresentationMin)
	}
	for name, val := range map[string]string{
		"day_start": c.DayStart,
		"day_end":   c.DayEnd,
	} {
		if _, err := types.ParseClock(val); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	start, _ := types.ParseClock(c.DayStart)
	end, _ := types.ParseClock(c.DayEnd)
	if end <= start {
		return fmt.Errorf("day_end %s is not after day_start %s", c.DayEnd, c.DayStart)
	}
	for _, opt := range []struct{ name, val string }{
		{"first_day_start", c.FirstDayStart},
		{"last_day_end", c.LastDayEnd},
		{"dinner_start", c.DinnerStart},
		{"morning_break_target", c.MorningBreakTarget},
		{"lunch_target", c.LunchTarget},
		{"afternoon_break_target", c.AfternoonBreakTarget},
	} {
		if opt.val == "" {
			continue
		}
		if _, err := types.ParseClock(opt.val); err != nil {
			return fmt.Errorf("%s: %w", opt.name, err)
		}
	}
	for i, ps := range c.PlenarySlots {
		if ps.Day < 1 || ps.Day > c.NumDays {
			return fmt.Errorf("plenary_slots[%d] (%s): day %d outside 1..%d",
				i, ps.Label, ps.Day, c.NumDays)
		}
		s, err := types.ParseClock(ps.Start)
		if err != nil {
			return fmt.Errorf("plenary_slots[%d] (%s): %w", i, ps.Label, err)
		}
		e, err := types.ParseClock(ps.End)
		if err != nil {
			return fmt.Errorf("plenary_slots[%d] (%s): %w", i, ps.Label, err)
		}
		if e <= s {
			return fmt.Errorf("plenary_slots[%d] (%s): end %s is not after start %s",
				i, ps.Label, ps.End, ps.Start)
		}
	}
	return nil
}

// Load reads and validates a schedule configuration from a YAML file.
func Load(path string) (*ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *ScheduleConfig) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
