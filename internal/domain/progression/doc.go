// Package progression содержит доменную модель системы уровней.
//
// Основные понятия:
//   - Record - прогресс участника на одном сервере (ключ serverId-userId).
//   - Curve - нелинейная кривая уровней: порог thresholdFor(l) растёт быстрее линейного.
//   - Rules - константы начисления XP (база, бонусы, кулдаун, ежедневный бонус, престиж).
//   - Booster - временный множитель XP, удаляется лениво при чтении множителя.
//   - Prestige - сброс прогресса с частичным сохранением XP и повышением ранга.
//
// Пакет не зависит от инфраструктуры: хранение снапшотов описано
// интерфейсом SnapshotStore, реализации находятся в infrastructure/persistence.
package progression
