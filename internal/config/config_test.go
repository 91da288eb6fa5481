package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.NumDays)
	assert.Equal(t, 4, cfg.PapersPerSession())
	assert.Equal(t, 5, cfg.ParallelSessions())
	assert.True(t, cfg.TopicDiversity())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScheduleConfig)
		want   string
	}{
		{"zero days", func(c *ScheduleConfig) { c.NumDays = 0 }, "num_days"},
		{"zero presentation", func(c *ScheduleConfig) { c.PresentationMin = 0 }, "presentation_duration_min"},
		{"session too short", func(c *ScheduleConfig) { c.MaxSessionDuration = 10 }, "shorter than one presentation"},
		{"bad day start", func(c *ScheduleConfig) { c.DayStart = "9am" }, "day_start"},
		{"bad day end", func(c *ScheduleConfig) { c.DayEnd = "25:00" }, "day_end"},
		{"inverted day", func(c *ScheduleConfig) { c.DayStart = "17:00"; c.DayEnd = "09:00" }, "not after"},
		{"bad lunch target", func(c *ScheduleConfig) { c.LunchTarget = "noon" }, "lunch_target"},
		{"plenary day out of range", func(c *ScheduleConfig) {
			c.PlenarySlots = []PlenarySlot{{Label: "Keynote", Day: 9, Start: "09:00", End: "10:00"}}
		}, "outside 1..3"},
		{"plenary inverted", func(c *ScheduleConfig) {
			c.PlenarySlots = []PlenarySlot{{Label: "Keynote", Day: 1, Start: "10:00", End: "10:00"}}
		}, "not after start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEffectiveDayTimes(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "09:00", cfg.EffectiveDayStart(1))
	assert.Equal(t, "17:30", cfg.EffectiveDayEnd(3))

	cfg.FirstDayStart = "11:00"
	cfg.LastDayEnd = "15:00"
	assert.Equal(t, "11:00", cfg.EffectiveDayStart(1))
	assert.Equal(t, "09:00", cfg.EffectiveDayStart(2))
	assert.Equal(t, "15:00", cfg.EffectiveDayEnd(3))
	assert.Equal(t, "17:30", cfg.EffectiveDayEnd(2))
}

func TestParallelSessions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAvailableRooms = 6
	cfg.MaxRoomsPerDay = 4
	assert.Equal(t, 4, cfg.ParallelSessions())

	cfg.MaxRoomsPerDay = 0
	assert.Equal(t, 6, cfg.ParallelSessions())

	cfg.NumAvailableRooms = 0
	assert.Equal(t, 1, cfg.ParallelSessions())
}

func TestTopicDiversityExtra(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.TopicDiversity())

	cfg.Extra = map[string]any{"topic_diversity": false}
	assert.False(t, cfg.TopicDiversity())

	cfg.Extra["topic_diversity"] = "nope"
	assert.True(t, cfg.TopicDiversity())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDays = 2
	cfg.FirstDayStart = "10:00"
	cfg.PlenarySlots = []PlenarySlot{{Label: "Welcome", Day: 1, Start: "10:00", End: "10:30"}}
	cfg.Constraints = []string{"paper_4 = day_1", "paper_4 = paper_7"}

	path := filepath.Join(t.TempDir(), "sub", "schedule_config.yaml")
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_days: 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NumDays)
	assert.Equal(t, "09:00", cfg.DayStart)
	assert.True(t, cfg.LunchIncluded)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_days: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
