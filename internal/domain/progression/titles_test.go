package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelTitle_Clamping(t *testing.T) {
	assert.Equal(t, "Civilian", LevelTitle(0).Title)
	assert.Equal(t, "Civilian", LevelTitle(1).Title)
	assert.Equal(t, "Saiyan Champion", LevelTitle(20).Title)
	assert.Equal(t, "Legendary Ascendant", LevelTitle(50).Title)
	assert.Equal(t, "Legendary Ascendant", LevelTitle(73).Title)
}

func TestPrestigeTitle_Clamping(t *testing.T) {
	assert.Equal(t, "Eternal Saiyan", PrestigeTitle(1).Title)
	assert.Equal(t, "Omni-Saiyan", PrestigeTitle(5).Title)
	assert.Equal(t, "Omni-Saiyan", PrestigeTitle(12).Title)
}

func TestTitleFor(t *testing.T) {
	r := NewRecord("u", "g")
	title := TitleFor(r)
	assert.Equal(t, "👤 Civilian", title.Title)
	assert.Equal(t, "👤", title.Emoji)
	assert.Equal(t, 0, title.Prestige)

	r.Prestige = 2
	r.Level = 3
	title = TitleFor(r)
	assert.Equal(t, "🔱 Infinite Aura Warrior - Ki Novice", title.Title)
	assert.Equal(t, "🔱", title.Emoji)
	assert.Equal(t, 2, title.Prestige)

	r.Prestige = 9
	r.Level = 0
	title = TitleFor(r)
	assert.Equal(t, "🌠 Omni-Saiyan - Legendary Ascendant", title.Title)
}
