package progression

import (
	"sync"
	"time"
)

// Cooldowns - эфемерная таблица последних начислений.
// Не сохраняется: после перезапуска все кулдауны сбрасываются.
type Cooldowns struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

// NewCooldowns создаёт таблицу кулдаунов.
func NewCooldowns(interval time.Duration) *Cooldowns {
	return &Cooldowns{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

// Active сообщает, действует ли кулдаун для ключа.
func (c *Cooldowns) Active(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked(key, now)
}

// TryStart атомарно проверяет кулдаун и, если он не активен, запускает новый.
func (c *Cooldowns) TryStart(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeLocked(key, now) {
		return false
	}
	c.last[key] = now
	return true
}

// Remaining возвращает оставшееся время кулдауна.
func (c *Cooldowns) Remaining(key string, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[key]
	if !ok {
		return 0
	}
	if left := c.interval - now.Sub(last); left > 0 {
		return left
	}
	return 0
}

// Sweep удаляет истёкшие записи и возвращает их количество.
func (c *Cooldowns) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.last {
		if !c.activeLocked(key, now) {
			delete(c.last, key)
			removed++
		}
	}
	return removed
}

// Len возвращает количество отслеживаемых ключей.
func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}

func (c *Cooldowns) activeLocked(key string, now time.Time) bool {
	last, ok := c.last[key]
	return ok && now.Sub(last) < c.interval
}
