package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurve_ThresholdFor_KnownValues(t *testing.T) {
	c := DefaultCurve()

	assert.Equal(t, int64(0), c.ThresholdFor(0))
	assert.Equal(t, int64(165), c.ThresholdFor(1))
	assert.Equal(t, int64(360), c.ThresholdFor(2))
	assert.Equal(t, int64(585), c.ThresholdFor(3))
	assert.Equal(t, int64(840), c.ThresholdFor(4))
	assert.Equal(t, int64(1125), c.ThresholdFor(5))
}

func TestCurve_ThresholdsStrictlyIncrease(t *testing.T) {
	c := DefaultCurve()
	for level := 0; level < 500; level++ {
		assert.Greater(t, c.ThresholdFor(level+1), c.ThresholdFor(level), "level %d", level)
	}
}

func TestCurve_LevelFromTotalXP(t *testing.T) {
	c := DefaultCurve()

	tests := []struct {
		name      string
		totalXP   int64
		level     int
		remainder int64
	}{
		{"zero", 0, 0, 0},
		{"just below first threshold", 164, 0, 164},
		{"exactly first threshold", 165, 1, 0},
		{"inside level 1", 524, 1, 359},
		{"exactly level 2", 525, 2, 0},
		{"exactly level 5", 3075, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, rem := c.LevelFromTotalXP(tt.totalXP)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.remainder, rem)
		})
	}
}

func TestCurve_TotalXPReconstruction(t *testing.T) {
	c := DefaultCurve()
	for _, total := range []int64{0, 1, 164, 165, 999, 12345, 250000, 835125, 999999, 5_000_000} {
		level, rem := c.LevelFromTotalXP(total)
		assert.Equal(t, total, c.CumulativeXP(level)+rem, "totalXP %d", total)
		assert.GreaterOrEqual(t, rem, int64(0))
		assert.Less(t, rem, c.ThresholdFor(level+1))
	}
}

func TestCurve_Progress(t *testing.T) {
	c := DefaultCurve()
	rec := NewRecord("u", "g")
	rec.TotalXP = 165 + 180
	rec.Recompute(c)

	assert.Equal(t, 1, rec.Level)
	assert.InDelta(t, 0.5, c.Progress(rec), 1e-9)
}
