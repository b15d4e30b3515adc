package progression

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY RESET
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyResetDue сообщает, пора ли обнулить недельный XP.
// Условие: сегодня WeeklyResetDay (в часовом поясе now) И с последнего сброса
// прошло не меньше WeeklyInterval. Одно и то же условие проверяется и при
// загрузке, и периодической задачей, поэтому двойной сброс за неделю невозможен.
func (r Rules) WeeklyResetDue(now time.Time, lastResetMs int64) bool {
	if now.Weekday() != r.WeeklyResetDay {
		return false
	}
	return now.UnixMilli()-lastResetMs >= r.WeeklyInterval.Milliseconds()
}

// ResetWeekly обнуляет недельный XP записи и сообщает, изменилась ли она.
func ResetWeekly(rec *Record) bool {
	if rec.WeeklyXP == 0 {
		return false
	}
	rec.WeeklyXP = 0
	return true
}
