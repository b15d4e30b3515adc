package progression

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Window - окно рейтинга.
type Window string

const (
	// WindowAllTime - рейтинг за всё время (престиж доминирует над XP).
	WindowAllTime Window = "all_time"

	// WindowWeekly - рейтинг по WeeklyXP.
	WindowWeekly Window = "weekly"
)

// WindowOf возвращает окно по флагу weekly.
func WindowOf(weekly bool) Window {
	if weekly {
		return WindowWeekly
	}
	return WindowAllTime
}

// IsWeekly сообщает, недельное ли окно.
func (w Window) IsWeekly() bool {
	return w == WindowWeekly
}

// RankKey возвращает ключ сортировки записи.
// Для общего рейтинга: Prestige * PrestigeRankWeight + TotalXP.
func RankKey(rec *Record, w Window) int64 {
	if w.IsWeekly() {
		return rec.WeeklyXP
	}
	return int64(rec.Prestige)*PrestigeRankWeight + rec.TotalXP
}

// SortByRank сортирует записи по убыванию ключа.
// Сортировка стабильная: при равенстве сохраняется исходный порядок.
func SortByRank(records []*Record, w Window) {
	sort.SliceStable(records, func(i, j int) bool {
		return RankKey(records[i], w) > RankKey(records[j], w)
	})
}

// Top возвращает первые limit записей после сортировки. Исходный срез не меняется.
func Top(records []*Record, w Window, limit int) []*Record {
	sorted := append([]*Record(nil), records...)
	SortByRank(sorted, w)
	if limit >= 0 && limit < len(sorted) {
		return sorted[:limit]
	}
	return sorted
}

// RankOf возвращает позицию пользователя (с 1) или 0, если записи нет.
func RankOf(records []*Record, userID string, w Window) int {
	sorted := append([]*Record(nil), records...)
	SortByRank(sorted, w)
	for i, rec := range sorted {
		if rec.UserID == userID {
			return i + 1
		}
	}
	return 0
}
