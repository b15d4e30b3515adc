package progression

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore - долговременное хранилище снапшота.
// Каждое сохранение полностью перезаписывает предыдущий снимок.
type SnapshotStore interface {
	// Load загружает снапшот. Если его нет - возвращает shared.ErrSnapshotNotFound.
	Load(ctx context.Context) (*Snapshot, error)

	// Save перезаписывает снапшот.
	Save(ctx context.Context, snap *Snapshot) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Name возвращает имя бэкенда для логов.
	Name() string
}

// Handle - эксклюзивный доступ к записи до вызова Release.
type Handle interface {
	// Record возвращает запись для изменения.
	Record() *Record

	// Created сообщает, была ли запись создана при получении.
	Created() bool

	// Release освобождает запись.
	Release()
}

// Ledger - журнал прогресса в памяти с синхронизацией в SnapshotStore.
type Ledger interface {
	// Acquire получает или создаёт запись и блокирует её.
	Acquire(userID, guildID string) Handle

	// View возвращает копию записи без создания.
	View(userID, guildID string) (*Record, bool)

	// GuildRecords возвращает копии записей сервера в порядке создания.
	GuildRecords(guildID string) []*Record

	// Persist записывает полный снапшот.
	Persist(ctx context.Context) error

	// LastWeeklyReset возвращает время последнего недельного сброса (мс).
	LastWeeklyReset() int64

	// ResetWeekly обнуляет WeeklyXP у всех записей, фиксирует время сброса
	// и возвращает число изменённых записей.
	ResetWeekly(ctx context.Context, atMs int64) (int, error)
}
