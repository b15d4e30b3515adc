package progression

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Booster - временный множитель XP.
// Все временные метки хранятся в миллисекундах Unix, 0 означает "никогда".
type Booster struct {
	// Multiplier - добавка к базовому множителю 1.0.
	Multiplier float64 `json:"multiplier"`

	// ExpiresAt - момент истечения (мс). Бустер с ExpiresAt <= now неактивен.
	ExpiresAt int64 `json:"expiresAt"`

	// AddedAt - момент выдачи (мс).
	AddedAt int64 `json:"addedAt"`
}

// Record - прогресс одного участника на одном сервере.
// Поля Level и XP производные: после каждой мутации Level = f(TotalXP).
type Record struct {
	// UserID - идентификатор пользователя платформы.
	UserID string `json:"userId"`

	// GuildID - идентификатор сервера.
	GuildID string `json:"guildId"`

	// XP - опыт внутри текущего уровня: 0 <= XP < ThresholdFor(Level+1).
	XP int64 `json:"xp"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// TotalXP - накопленный опыт. Уменьшается только при престиже.
	TotalXP int64 `json:"totalXp"`

	// Messages - количество событий, принёсших XP.
	Messages int64 `json:"messages"`

	// LastXPGain - время последнего начисления (мс), только для диагностики.
	LastXPGain int64 `json:"lastXpGain"`

	// LastDailyLogin - время последнего ежедневного бонуса (мс).
	LastDailyLogin int64 `json:"lastDailyLogin"`

	// WeeklyXP - опыт с момента последнего недельного сброса.
	WeeklyXP int64 `json:"weeklyXp"`

	// Prestige - ранг престижа, только растёт.
	Prestige int `json:"prestige"`

	// ActiveBoosters - бустеры в порядке выдачи.
	ActiveBoosters []Booster `json:"activeBoosters"`

	// VoiceMinutes - минуты голосовой активности.
	VoiceMinutes int64 `json:"voiceMinutes"`
}

// Key возвращает составной ключ записи.
func Key(userID, guildID string) string {
	return guildID + "-" + userID
}

// NewRecord создаёт пустую запись с нулевыми счётчиками.
func NewRecord(userID, guildID string) *Record {
	return &Record{
		UserID:         userID,
		GuildID:        guildID,
		ActiveBoosters: []Booster{},
	}
}

// Key возвращает ключ записи.
func (r *Record) Key() string {
	return Key(r.UserID, r.GuildID)
}

// Clone возвращает глубокую копию записи.
func (r *Record) Clone() *Record {
	c := *r
	c.ActiveBoosters = make([]Booster, len(r.ActiveBoosters))
	copy(c.ActiveBoosters, r.ActiveBoosters)
	return &c
}

// Recompute пересчитывает Level и XP из TotalXP по кривой.
func (r *Record) Recompute(curve Curve) {
	r.Level, r.XP = curve.LevelFromTotalXP(r.TotalXP)
}

// normalize чинит поля после десериализации.
func (r *Record) normalize() {
	if r.ActiveBoosters == nil {
		r.ActiveBoosters = []Booster{}
	}
}
