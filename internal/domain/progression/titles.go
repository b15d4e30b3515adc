package progression

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// TITLES
// ══════════════════════════════════════════════════════════════════════════════

// TitleEntry - строка таблицы титулов.
type TitleEntry struct {
	Title string
	Emoji string
}

// Title - титул участника.
type Title struct {
	Title    string `json:"title"`
	Emoji    string `json:"emoji"`
	Prestige int    `json:"prestige"`
}

const (
	maxLevelTitle    = 50
	maxPrestigeTitle = 5
)

var levelTitles = map[int]TitleEntry{
	1: {"Civilian", "👤"}, 2: {"Martial Arts Student", "🥋"},
	3: {"Ki Novice", "✨"}, 4: {"Ki Apprentice", "⚡"},
	5: {"Battle Trainee", "⚔️"}, 6: {"Rising Fighter", "🔥"},
	7: {"Z-Warrior in Training", "💪"}, 8: {"Earth Defender", "🌍"},
	9: {"Ki Adept", "💫"}, 10: {"Battle Disciple", "🛡️"},
	11: {"Serious Combatant", "⚡"}, 12: {"Elite Recruit", "🎖️"},
	13: {"Ki Specialist", "✴️"}, 14: {"Spirit Warrior", "👊"},
	15: {"Saiyan-Blooded", "💥"}, 16: {"Saiyan Fighter", "🔴"},
	17: {"Saiyan Elite", "🟠"}, 18: {"Saiyan Vanguard", "🟡"},
	19: {"Saiyan Commander", "⭐"}, 20: {"Saiyan Champion", "🏆"},
	21: {"Awakened Saiyan", "💛"}, 22: {"Ascended Saiyan", "⚡"},
	23: {"Radiant Saiyan", "✨"}, 24: {"Empowered Saiyan", "💪"},
	25: {"Ultra Saiyan", "🌟"}, 26: {"Limit-Break Saiyan", "💥"},
	27: {"Primal Saiyan", "🦍"}, 28: {"Unleashed Saiyan", "⚡"},
	29: {"Blazing Saiyan", "🔥"}, 30: {"Golden Aura Warrior", "🟡"},
	31: {"Apex Saiyan", "🔺"}, 32: {"Transcendent Warrior", "🌠"},
	33: {"Hyper-Ki Ascendant", "⚡"}, 34: {"Celestial Saiyan", "☄️"},
	35: {"Ultra Instinct Initiate", "🤍"}, 36: {"Ultra Instinct Adept", "💠"},
	37: {"Ultra Instinct Warrior", "💎"}, 38: {"Ultra Instinct Master", "🔷"},
	39: {"Ultra Instinct Ascendant", "🔮"}, 40: {"Ultra Instinct Supreme", "👁️"},
	41: {"Divine Aura Warrior", "🌌"}, 42: {"Spirit-God Disciple", "🙏"},
	43: {"Ki-Deity", "⚜️"}, 44: {"God Ki Initiate", "🔵"},
	45: {"God Ki Practitioner", "💙"}, 46: {"God Ki Warrior", "🌀"},
	47: {"God Ki Master", "💫"}, 48: {"Cosmic Saiyan", "🌌"},
	49: {"Universal Champion", "🌟"}, 50: {"Legendary Ascendant", "👑"},
}

var prestigeTitles = map[int]TitleEntry{
	1: {"Eternal Saiyan", "♾️"},
	2: {"Infinite Aura Warrior", "🔱"},
	3: {"Timeless Instinct Master", "⏳"},
	4: {"Cosmic Vanguard", "🪐"},
	5: {"Omni-Saiyan", "🌠"},
}

// LevelTitle возвращает титул уровня. Уровни выше 50 получают титул 50,
// уровень 0 - титул 1.
func LevelTitle(level int) TitleEntry {
	switch {
	case level > maxLevelTitle:
		level = maxLevelTitle
	case level < 1:
		level = 1
	}
	return levelTitles[level]
}

// PrestigeTitle возвращает титул престижа, начиная с 5 - всегда титул 5.
func PrestigeTitle(prestige int) TitleEntry {
	switch {
	case prestige > maxPrestigeTitle:
		prestige = maxPrestigeTitle
	case prestige < 1:
		prestige = 1
	}
	return prestigeTitles[prestige]
}

// TitleFor вычисляет титул записи.
// При престиже > 0 титул составной: "<эмодзи престижа> <престиж> - <уровень>",
// и уровень вне таблицы (включая 0) получает титул 50.
func TitleFor(rec *Record) Title {
	if rec.Prestige > 0 {
		p := PrestigeTitle(rec.Prestige)
		l, ok := levelTitles[rec.Level]
		if !ok {
			l = levelTitles[maxLevelTitle]
		}
		return Title{
			Title:    fmt.Sprintf("%s %s - %s", p.Emoji, p.Title, l.Title),
			Emoji:    p.Emoji,
			Prestige: rec.Prestige,
		}
	}
	l := LevelTitle(rec.Level)
	return Title{
		Title: fmt.Sprintf("%s %s", l.Emoji, l.Title),
		Emoji: l.Emoji,
	}
}
