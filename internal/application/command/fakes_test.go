package command

import (
	"context"
	"sync"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// Wednesday.
var now = time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

type fixedRand struct{ n int }

func (f fixedRand) IntN(n int) int { return f.n % n }

type fakeHandle struct {
	rec     *progression.Record
	created bool
	release func()
	once    sync.Once
}

func (h *fakeHandle) Record() *progression.Record { return h.rec }
func (h *fakeHandle) Created() bool               { return h.created }
func (h *fakeHandle) Release()                    { h.once.Do(h.release) }

type fakeLedger struct {
	mu         sync.Mutex
	records    map[string]*progression.Record
	order      []string
	lastReset  int64
	persists   int
	persistErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]*progression.Record)}
}

func (l *fakeLedger) put(rec *progression.Record) {
	l.records[rec.Key()] = rec
	l.order = append(l.order, rec.Key())
}

func (l *fakeLedger) Acquire(userID, guildID string) progression.Handle {
	l.mu.Lock()
	key := progression.Key(userID, guildID)
	rec, ok := l.records[key]
	if !ok {
		rec = progression.NewRecord(userID, guildID)
		l.put(rec)
	}
	return &fakeHandle{rec: rec, created: !ok, release: l.mu.Unlock}
}

func (l *fakeLedger) View(userID, guildID string) (*progression.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[progression.Key(userID, guildID)]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

func (l *fakeLedger) GuildRecords(guildID string) []*progression.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*progression.Record
	for _, key := range l.order {
		if rec := l.records[key]; rec.GuildID == guildID {
			out = append(out, rec.Clone())
		}
	}
	return out
}

func (l *fakeLedger) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.persistErr != nil {
		return l.persistErr
	}
	l.persists++
	return nil
}

func (l *fakeLedger) LastWeeklyReset() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReset
}

func (l *fakeLedger) ResetWeekly(ctx context.Context, atMs int64) (int, error) {
	l.mu.Lock()
	changed := 0
	for _, rec := range l.records {
		if progression.ResetWeekly(rec) {
			changed++
		}
	}
	l.lastReset = atMs
	l.mu.Unlock()
	return changed, l.Persist(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

var _ progression.Ledger = (*fakeLedger)(nil)
