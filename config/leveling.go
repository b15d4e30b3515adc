package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
)

// LevelingFile is the YAML layout of the leveling tuning file.
// Keys missing from the file keep their default values.
type LevelingFile struct {
	BasePoints int64         `yaml:"base_points"`
	BonusRange int64         `yaml:"bonus_range"`
	Cooldown   time.Duration `yaml:"cooldown"`

	Curve struct {
		Multiplier float64 `yaml:"multiplier"`
		Growth     float64 `yaml:"growth"`
	} `yaml:"curve"`

	Bonuses struct {
		Media             int64 `yaml:"media"`
		LongMessage       int64 `yaml:"long_message"`
		LongMessageLength int   `yaml:"long_message_length"`
		VoicePerMinute    int64 `yaml:"voice_per_minute"`
	} `yaml:"bonuses"`

	Daily struct {
		Bonus  int64         `yaml:"bonus"`
		Window time.Duration `yaml:"window"`
	} `yaml:"daily"`

	Booster struct {
		DefaultDuration time.Duration `yaml:"default_duration"`
	} `yaml:"booster"`

	Prestige struct {
		Level     int     `yaml:"level"`
		Retention float64 `yaml:"retention"`
	} `yaml:"prestige"`

	RoleMilestones []int `yaml:"role_milestones"`

	WeeklyReset struct {
		Day      string        `yaml:"day"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"weekly_reset"`
}

func defaultLevelingFile() LevelingFile {
	r := progression.DefaultRules()

	var f LevelingFile
	f.BasePoints = r.BasePoints
	f.BonusRange = r.BonusRange
	f.Cooldown = r.Cooldown
	f.Curve.Multiplier = r.Curve.Multiplier
	f.Curve.Growth = r.Curve.Growth
	f.Bonuses.Media = r.MediaBonus
	f.Bonuses.LongMessage = r.LongMessageBonus
	f.Bonuses.LongMessageLength = r.LongMessageLength
	f.Bonuses.VoicePerMinute = r.VoiceBonusPerMinute
	f.Daily.Bonus = r.DailyBonus
	f.Daily.Window = r.DailyWindow
	f.Booster.DefaultDuration = r.BoosterDuration
	f.Prestige.Level = r.PrestigeLevel
	f.Prestige.Retention = r.PrestigeRetention
	f.RoleMilestones = r.RoleMilestones
	f.WeeklyReset.Day = strings.ToLower(r.WeeklyResetDay.String())
	f.WeeklyReset.Interval = r.WeeklyInterval
	return f
}

// LoadLeveling reads the leveling tuning file. An empty path yields the default rules.
func LoadLeveling(path string) (progression.Rules, error) {
	if path == "" {
		return progression.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return progression.Rules{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseLeveling(data)
}

// ParseLeveling decodes a leveling YAML document over the defaults and validates it.
func ParseLeveling(data []byte) (progression.Rules, error) {
	f := defaultLevelingFile()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return progression.Rules{}, fmt.Errorf("parse leveling file: %w", err)
	}

	rules, err := f.Rules()
	if err != nil {
		return progression.Rules{}, err
	}
	if err := rules.Validate(); err != nil {
		return progression.Rules{}, err
	}
	return rules, nil
}

// Rules converts the file into engine rules.
func (f LevelingFile) Rules() (progression.Rules, error) {
	day, err := parseWeekday(f.WeeklyReset.Day)
	if err != nil {
		return progression.Rules{}, err
	}

	return progression.Rules{
		BasePoints:          f.BasePoints,
		BonusRange:          f.BonusRange,
		Cooldown:            f.Cooldown,
		Curve:               progression.Curve{Multiplier: f.Curve.Multiplier, Growth: f.Curve.Growth},
		MediaBonus:          f.Bonuses.Media,
		LongMessageBonus:    f.Bonuses.LongMessage,
		LongMessageLength:   f.Bonuses.LongMessageLength,
		VoiceBonusPerMinute: f.Bonuses.VoicePerMinute,
		DailyBonus:          f.Daily.Bonus,
		DailyWindow:         f.Daily.Window,
		BoosterDuration:     f.Booster.DefaultDuration,
		PrestigeLevel:       f.Prestige.Level,
		PrestigeRetention:   f.Prestige.Retention,
		RoleMilestones:      f.RoleMilestones,
		WeeklyResetDay:      day,
		WeeklyInterval:      f.WeeklyReset.Interval,
	}, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
