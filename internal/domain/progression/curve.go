package progression

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CURVE
// ══════════════════════════════════════════════════════════════════════════════

// Curve описывает порог перехода между уровнями:
// ThresholdFor(l) = floor(l * Multiplier * (1 + l * Growth)).
type Curve struct {
	// Multiplier - линейный множитель (по умолчанию 150).
	Multiplier float64

	// Growth - квадратичный рост (по умолчанию 0.1).
	Growth float64
}

// DefaultCurve возвращает стандартную кривую.
func DefaultCurve() Curve {
	return Curve{Multiplier: 150, Growth: 0.1}
}

// ThresholdFor возвращает XP, необходимый для перехода с уровня level-1 на level.
// Явные float64() округляют каждый шаг отдельно (без FMA).
func (c Curve) ThresholdFor(level int) int64 {
	l := float64(level)
	growth := float64(1 + float64(l*c.Growth))
	return int64(math.Floor(float64(float64(l*c.Multiplier) * growth)))
}

// LevelFromTotalXP возвращает уровень и остаток XP внутри уровня.
func (c Curve) LevelFromTotalXP(totalXP int64) (level int, remainder int64) {
	remainder = totalXP
	for {
		next := c.ThresholdFor(level + 1)
		if next <= 0 || remainder < next {
			return level, remainder
		}
		remainder -= next
		level++
	}
}

// CumulativeXP возвращает суммарный XP, необходимый для достижения уровня level.
func (c Curve) CumulativeXP(level int) int64 {
	var total int64
	for i := 1; i <= level; i++ {
		total += c.ThresholdFor(i)
	}
	return total
}

// Progress возвращает долю пройденного текущего уровня в диапазоне [0, 1).
func (c Curve) Progress(r *Record) float64 {
	next := c.ThresholdFor(r.Level + 1)
	if next <= 0 {
		return 0
	}
	return float64(r.XP) / float64(next)
}
