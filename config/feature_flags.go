package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with percentage rollout keyed by
// guild id.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Guilds are assigned based on a hash of their id
	RolloutPercent int
}

// Predefined feature flag names.
const (
	FeatureLevelingXP        = "leveling.xp"              // Award XP for chat messages
	FeatureLevelUpAnnounce   = "leveling.announce"        // Post level-up messages in the channel
	FeatureMilestoneRoles    = "leveling.milestone_roles" // Grant roles at level milestones
	FeatureFunCommands       = "commands.fun"             // 8ball, joke, quote, coinflip, dice
	FeatureLiveFeed          = "http.live_feed"           // Websocket event feed
	FeatureWeeklyLeaderboard = "leaderboard.weekly"       // Weekly leaderboard window
)

// LoadFeatureFlags creates flags with defaults and applies FEATURE_* environment overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	defaults := []*Feature{
		{Name: FeatureLevelingXP, Description: "Award XP for chat messages", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLevelUpAnnounce, Description: "Announce level-ups in the channel", Enabled: true, RolloutPercent: 100},
		{Name: FeatureMilestoneRoles, Description: "Grant roles at level milestones", Enabled: true, RolloutPercent: 100},
		{Name: FeatureFunCommands, Description: "Fun commands", Enabled: true, RolloutPercent: 100},
		{Name: FeatureLiveFeed, Description: "Websocket live event feed", Enabled: true, RolloutPercent: 100},
		{Name: FeatureWeeklyLeaderboard, Description: "Weekly leaderboard window", Enabled: true, RolloutPercent: 100},
	}
	for _, f := range defaults {
		ff.features[f.Name] = f
	}
}

// loadFromEnvironment reads FEATURE_<NAME>=bool and FEATURE_<NAME>_ROLLOUT=0..100.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, f := range ff.features {
		key := featureNameToEnvKey(name)
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				f.Enabled = b
			}
		}
		if val := os.Getenv(key + "_ROLLOUT"); val != "" {
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				f.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts "leveling.xp" to "FEATURE_LEVELING_XP".
func featureNameToEnvKey(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return "FEATURE_" + strings.ToUpper(r.Replace(name))
}

// IsEnabled reports whether the feature is on for the guild.
// Unknown features are disabled. An empty guild id (DMs, HTTP) skips rollout.
func (ff *FeatureFlags) IsEnabled(featureName, guildID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[featureName]
	if !ok || !f.Enabled {
		return false
	}
	if guildID == "" || f.RolloutPercent >= 100 {
		return true
	}
	return ff.isInRollout(guildID, featureName, f.RolloutPercent)
}

func (ff *FeatureFlags) isInRollout(guildID, featureName string, percent int) bool {
	if percent <= 0 {
		return false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(featureName + ":" + guildID))
	return int(h.Sum32()%100) < percent
}

// GetAllFeatures returns a copy of every feature.
func (ff *FeatureFlags) GetAllFeatures() map[string]Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make(map[string]Feature, len(ff.features))
	for name, f := range ff.features {
		out[name] = *f
	}
	return out
}
