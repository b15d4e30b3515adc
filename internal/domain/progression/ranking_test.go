package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(user string, prestige int, totalXP, weeklyXP int64) *Record {
	r := NewRecord(user, "g1")
	r.Prestige = prestige
	r.TotalXP = totalXP
	r.WeeklyXP = weeklyXP
	return r
}

func users(records []*Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.UserID)
	}
	return out
}

func TestSortByRank_PrestigeDominates(t *testing.T) {
	records := []*Record{
		rec("a", 0, 100, 0),
		rec("b", 1, 50, 0),
		rec("c", 0, 99999, 0),
	}

	SortByRank(records, WindowAllTime)

	assert.Equal(t, []string{"b", "c", "a"}, users(records))
}

func TestSortByRank_WeeklyUsesWeeklyXP(t *testing.T) {
	records := []*Record{
		rec("a", 3, 900000, 10),
		rec("b", 0, 10, 300),
		rec("c", 0, 10, 20),
	}

	SortByRank(records, WindowWeekly)

	assert.Equal(t, []string{"b", "c", "a"}, users(records))
}

func TestSortByRank_StableTies(t *testing.T) {
	records := []*Record{
		rec("first", 0, 500, 5),
		rec("second", 0, 500, 5),
		rec("third", 0, 700, 5),
		rec("fourth", 0, 500, 5),
	}

	SortByRank(records, WindowAllTime)
	assert.Equal(t, []string{"third", "first", "second", "fourth"}, users(records))

	SortByRank(records, WindowWeekly)
	assert.Equal(t, []string{"third", "first", "second", "fourth"}, users(records))
}

func TestTop_Limit(t *testing.T) {
	records := []*Record{rec("a", 0, 1, 0), rec("b", 0, 3, 0), rec("c", 0, 2, 0)}

	top := Top(records, WindowAllTime, 2)
	require.Len(t, top, 2)
	assert.Equal(t, []string{"b", "c"}, users(top))

	all := Top([]*Record{rec("a", 0, 1, 0)}, WindowAllTime, 10)
	assert.Len(t, all, 1)

	none := Top([]*Record{rec("a", 0, 1, 0)}, WindowAllTime, 0)
	assert.Empty(t, none)
}

func TestRankOf(t *testing.T) {
	records := []*Record{rec("a", 0, 1, 9), rec("b", 0, 3, 1), rec("c", 0, 2, 5)}

	assert.Equal(t, 1, RankOf(records, "b", WindowAllTime))
	assert.Equal(t, 3, RankOf(records, "a", WindowAllTime))
	assert.Equal(t, 1, RankOf(records, "a", WindowWeekly))
	assert.Equal(t, 0, RankOf(records, "missing", WindowAllTime))
	assert.Equal(t, []string{"a", "b", "c"}, users(records), "input order is kept")
}

func TestRankOf_WeeklyTiesUseInsertionOrder(t *testing.T) {
	records := []*Record{rec("a", 0, 1, 5), rec("b", 0, 9, 5)}

	assert.Equal(t, 1, RankOf(records, "b", WindowAllTime))
	assert.Equal(t, 1, RankOf(records, "a", WindowWeekly))
}

func TestRankKey_CompositeWeight(t *testing.T) {
	assert.Equal(t, int64(2_000_050), RankKey(rec("a", 2, 50, 0), WindowAllTime))
	assert.Equal(t, int64(7), RankKey(rec("a", 2, 50, 7), WindowWeekly))
}
