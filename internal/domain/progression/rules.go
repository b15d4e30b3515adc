package progression

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULES
// ══════════════════════════════════════════════════════════════════════════════

// PrestigeRankWeight - вес престижа в составном ключе рейтинга.
// Предполагается, что за один престиж TotalXP не достигает 1 000 000.
const PrestigeRankWeight int64 = 1_000_000

// Rules - константы начисления опыта.
type Rules struct {
	// BasePoints - базовые очки за сообщение.
	BasePoints int64

	// BonusRange - верхняя граница случайной добавки (исключительно): [0, BonusRange).
	BonusRange int64

	// Cooldown - минимальный интервал между начислениями.
	Cooldown time.Duration

	// Curve - кривая уровней.
	Curve Curve

	// MediaBonus - бонус за вложения.
	MediaBonus int64

	// LongMessageBonus - бонус за длинное сообщение.
	LongMessageBonus int64

	// LongMessageLength - длина сообщения (в символах), с которой оно считается длинным.
	LongMessageLength int

	// VoiceBonusPerMinute - бонус за минуту голосовой активности.
	VoiceBonusPerMinute int64

	// DailyBonus - ежедневный бонус.
	DailyBonus int64

	// DailyWindow - окно ежедневного бонуса.
	DailyWindow time.Duration

	// BoosterDuration - длительность бустера по умолчанию.
	BoosterDuration time.Duration

	// PrestigeLevel - минимальный уровень для престижа.
	PrestigeLevel int

	// PrestigeRetention - доля TotalXP, сохраняемая при престиже.
	PrestigeRetention float64

	// RoleMilestones - уровни, за которые выдаются роли.
	RoleMilestones []int

	// WeeklyResetDay - день недельного сброса.
	WeeklyResetDay time.Weekday

	// WeeklyInterval - минимальный интервал между недельными сбросами.
	WeeklyInterval time.Duration
}

// DefaultRules возвращает стандартные правила.
func DefaultRules() Rules {
	return Rules{
		BasePoints:          20,
		BonusRange:          15,
		Cooldown:            60 * time.Second,
		Curve:               DefaultCurve(),
		MediaBonus:          25,
		LongMessageBonus:    15,
		LongMessageLength:   100,
		VoiceBonusPerMinute: 10,
		DailyBonus:          100,
		DailyWindow:         24 * time.Hour,
		BoosterDuration:     time.Hour,
		PrestigeLevel:       50,
		PrestigeRetention:   0.1,
		RoleMilestones:      []int{5, 10, 15, 20, 30, 50},
		WeeklyResetDay:      time.Sunday,
		WeeklyInterval:      7 * 24 * time.Hour,
	}
}

// Validate проверяет корректность правил.
func (r Rules) Validate() error {
	switch {
	case r.BasePoints < 0:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrNegativeValue, "base points cannot be negative")
	case r.BonusRange < 1:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrValueOutOfRange, "bonus range must be at least 1")
	case r.Curve.Multiplier <= 0 || r.Curve.Growth < 0:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrValueOutOfRange, "curve must be strictly increasing")
	case r.PrestigeRetention < 0 || r.PrestigeRetention >= 1:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrValueOutOfRange,
			fmt.Sprintf("prestige retention %.2f outside [0, 1)", r.PrestigeRetention))
	case r.PrestigeLevel < 1:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrValueOutOfRange, "prestige level must be positive")
	case r.Cooldown < 0 || r.DailyWindow < 0 || r.WeeklyInterval <= 0:
		return shared.NewDomainError("progression", "ValidateRules", shared.ErrNegativeValue, "durations must be positive")
	}
	return nil
}

// RandomSource - источник случайной добавки к награде.
// *rand.Rand из math/rand/v2 удовлетворяет интерфейсу.
type RandomSource interface {
	IntN(n int) int
}

// SystemRandom - общий потокобезопасный источник из math/rand/v2.
type SystemRandom struct{}

// IntN возвращает число в [0, n).
func (SystemRandom) IntN(n int) int { return rand.IntN(n) }

// AwardContext - метаданные события, за которое начисляется XP.
type AwardContext struct {
	// HasMedia - в сообщении есть вложения.
	HasMedia bool

	// IsLongMessage - сообщение длинное.
	IsLongMessage bool

	// VoiceMinutes - минуты голосовой активности (0 - не было).
	VoiceMinutes int64
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// AwardResult - результат начисления.
// LeveledUp различает две формы: с полями уровня и без них.
type AwardResult struct {
	UserID      string  `json:"userId,omitempty"`
	GuildID     string  `json:"guildId,omitempty"`
	XPGained    int64   `json:"xpGained"`
	Multiplier  float64 `json:"multiplier"`
	LeveledUp   bool    `json:"-"`
	OldLevel    int     `json:"oldLevel,omitempty"`
	NewLevel    int     `json:"newLevel,omitempty"`
	TotalXP     int64   `json:"totalXp,omitempty"`
	CanPrestige bool    `json:"canPrestige,omitempty"`
	Milestones  []int   `json:"milestones,omitempty"`
}

// DailyResult - результат ежедневного бонуса.
type DailyResult struct {
	Claimed   bool          `json:"claimed"`
	TimeLeft  time.Duration `json:"timeLeft,omitempty"`
	XPGained  int64         `json:"xpGained,omitempty"`
	LeveledUp bool          `json:"leveledUp,omitempty"`
	OldLevel  int           `json:"-"`
	NewLevel  int           `json:"newLevel,omitempty"`
}

// PrestigeResult - результат престижа.
type PrestigeResult struct {
	Success     bool   `json:"success"`
	Reason      string `json:"reason,omitempty"`
	NewPrestige int    `json:"newPrestige,omitempty"`
	OldPrestige int    `json:"oldPrestige,omitempty"`
	RetainedXP  int64  `json:"retainedXp,omitempty"`
	NewLevel    int    `json:"newLevel,omitempty"`
}

// ReasonLevelTooLow - причина отказа в престиже.
const ReasonLevelTooLow = "Level too low"

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// RawAward возвращает награду до применения множителя.
func (r Rules) RawAward(ac AwardContext, rnd RandomSource) int64 {
	xp := r.BasePoints + int64(rnd.IntN(int(r.BonusRange)))
	if ac.HasMedia {
		xp += r.MediaBonus
	}
	if ac.IsLongMessage {
		xp += r.LongMessageBonus
	}
	if ac.VoiceMinutes > 0 {
		xp += ac.VoiceMinutes * r.VoiceBonusPerMinute
	}
	return xp
}

// ActiveMultiplier возвращает 1.0 плюс сумму активных бустеров.
// Истёкшие бустеры (ExpiresAt <= now) удаляются из записи.
func ActiveMultiplier(rec *Record, now time.Time) float64 {
	nowMs := now.UnixMilli()
	multiplier := 1.0
	active := rec.ActiveBoosters[:0]
	for _, b := range rec.ActiveBoosters {
		if b.ExpiresAt > nowMs {
			active = append(active, b)
			multiplier += b.Multiplier
		}
	}
	rec.ActiveBoosters = active
	return multiplier
}

// Award начисляет опыт за событие. Проверка кулдауна выполняется вызывающей стороной.
func (r Rules) Award(rec *Record, ac AwardContext, rnd RandomSource, now time.Time) AwardResult {
	raw := r.RawAward(ac, rnd)
	if ac.VoiceMinutes > 0 {
		rec.VoiceMinutes += ac.VoiceMinutes
	}

	multiplier := ActiveMultiplier(rec, now)
	gained := int64(math.Floor(float64(raw) * multiplier))

	oldLevel := rec.Level
	rec.TotalXP += gained
	rec.Messages++
	rec.LastXPGain = now.UnixMilli()
	rec.WeeklyXP += gained
	rec.Recompute(r.Curve)

	if rec.Level > oldLevel {
		return AwardResult{
			UserID:      rec.UserID,
			GuildID:     rec.GuildID,
			XPGained:    gained,
			Multiplier:  multiplier,
			LeveledUp:   true,
			OldLevel:    oldLevel,
			NewLevel:    rec.Level,
			TotalXP:     rec.TotalXP,
			CanPrestige: rec.Level >= r.PrestigeLevel,
			Milestones:  r.CrossedMilestones(oldLevel, rec.Level),
		}
	}
	return AwardResult{XPGained: gained, Multiplier: multiplier}
}

// ClaimDaily выдаёт ежедневный бонус, если окно истекло.
func (r Rules) ClaimDaily(rec *Record, now time.Time) DailyResult {
	nowMs := now.UnixMilli()
	window := r.DailyWindow.Milliseconds()
	elapsed := nowMs - rec.LastDailyLogin
	if elapsed < window {
		return DailyResult{
			Claimed:  false,
			TimeLeft: time.Duration(window-elapsed) * time.Millisecond,
		}
	}

	oldLevel := rec.Level
	rec.LastDailyLogin = nowMs
	rec.TotalXP += r.DailyBonus
	rec.WeeklyXP += r.DailyBonus
	rec.Recompute(r.Curve)

	return DailyResult{
		Claimed:   true,
		XPGained:  r.DailyBonus,
		LeveledUp: rec.Level > oldLevel,
		OldLevel:  oldLevel,
		NewLevel:  rec.Level,
	}
}

// Prestige сбрасывает прогресс с сохранением доли XP.
// Ниже PrestigeLevel запись не изменяется.
func (r Rules) Prestige(rec *Record) PrestigeResult {
	if rec.Level < r.PrestigeLevel {
		return PrestigeResult{Success: false, Reason: ReasonLevelTooLow}
	}

	retained := int64(math.Floor(float64(rec.TotalXP) * r.PrestigeRetention))
	oldPrestige := rec.Prestige
	rec.Prestige++
	rec.TotalXP = retained
	rec.WeeklyXP = 0
	rec.Recompute(r.Curve)

	return PrestigeResult{
		Success:     true,
		NewPrestige: rec.Prestige,
		OldPrestige: oldPrestige,
		RetainedXP:  retained,
		NewLevel:    rec.Level,
	}
}

// AddBooster добавляет бустер. duration <= 0 означает длительность по умолчанию.
func (r Rules) AddBooster(rec *Record, multiplier float64, duration time.Duration, now time.Time) (Booster, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return Booster{}, shared.ErrInvalidBooster
	}
	if duration <= 0 {
		duration = r.BoosterDuration
	}
	b := Booster{
		Multiplier: multiplier,
		ExpiresAt:  now.Add(duration).UnixMilli(),
		AddedAt:    now.UnixMilli(),
	}
	rec.ActiveBoosters = append(rec.ActiveBoosters, b)
	return b, nil
}

// CrossedMilestones возвращает уровни-вехи в полуинтервале (oldLevel, newLevel].
func (r Rules) CrossedMilestones(oldLevel, newLevel int) []int {
	var crossed []int
	for _, m := range r.RoleMilestones {
		if m > oldLevel && m <= newLevel {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// IsLongMessage сообщает, считается ли текст длинным.
func (r Rules) IsLongMessage(content string) bool {
	return r.LongMessageLength > 0 && len([]rune(content)) >= r.LongMessageLength
}
