package progression

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotVersion - текущая версия формата снапшота.
const SnapshotVersion = 1

// Snapshot - полный снимок журнала прогресса.
type Snapshot struct {
	// Version - версия формата.
	Version int `json:"version"`

	// Revision - уникальный идентификатор записи снапшота.
	Revision string `json:"revision"`

	// SavedAt - время сохранения (мс).
	SavedAt int64 `json:"savedAt"`

	// LastWeeklyReset - время последнего недельного сброса (мс).
	LastWeeklyReset int64 `json:"lastWeeklyReset"`

	// Records - записи в порядке создания.
	Records *RecordSet `json:"records"`
}

// NewSnapshot создаёт пустой снапшот.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version: SnapshotVersion,
		Records: NewRecordSet(),
	}
}

// RecordSet - отображение ключ -> запись с сохранением порядка вставки.
// Порядок нужен для детерминированного разрешения ничьих в рейтинге,
// поэтому JSON-объект пишется и читается в том же порядке.
type RecordSet struct {
	keys  []string
	byKey map[string]*Record
}

// NewRecordSet создаёт пустой набор.
func NewRecordSet() *RecordSet {
	return &RecordSet{byKey: make(map[string]*Record)}
}

// Put добавляет или заменяет запись по её ключу.
func (s *RecordSet) Put(rec *Record) {
	s.put(rec.Key(), rec)
}

func (s *RecordSet) put(key string, rec *Record) {
	if _, ok := s.byKey[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.byKey[key] = rec
}

// Get возвращает запись по ключу.
func (s *RecordSet) Get(key string) (*Record, bool) {
	rec, ok := s.byKey[key]
	return rec, ok
}

// Len возвращает количество записей.
func (s *RecordSet) Len() int {
	return len(s.keys)
}

// Keys возвращает ключи в порядке вставки.
func (s *RecordSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Records возвращает записи в порядке вставки.
func (s *RecordSet) Records() []*Record {
	out := make([]*Record, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.byKey[k])
	}
	return out
}

// MarshalJSON пишет объект с ключами в порядке вставки.
func (s *RecordSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.byKey[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект, сохраняя порядок ключей.
func (s *RecordSet) UnmarshalJSON(data []byte) error {
	s.keys = nil
	s.byKey = make(map[string]*Record)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("records: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("records: expected key, got %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("records[%s]: %w", key, err)
		}
		rec.normalize()
		s.put(key, &rec)
	}

	_, err = dec.Token()
	return err
}

// Clone возвращает глубокую копию набора.
func (s *RecordSet) Clone() *RecordSet {
	c := &RecordSet{
		keys:  make([]string, len(s.keys)),
		byKey: make(map[string]*Record, len(s.byKey)),
	}
	copy(c.keys, s.keys)
	for k, rec := range s.byKey {
		c.byKey[k] = rec.Clone()
	}
	return c
}

// EncodeSnapshot сериализует снапшот в JSON.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap.Records == nil {
		snap.Records = NewRecordSet()
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, shared.WrapError("progression", "Encode", shared.ErrStorage, "marshal snapshot", err)
	}
	return data, nil
}

// DecodeSnapshot разбирает снапшот. Принимает и конверт с версией,
// и плоский объект "serverId-userId" -> запись (старый формат файла).
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, shared.WrapError("progression", "Decode", shared.ErrCorruptSnapshot, "parse snapshot", err)
	}

	_, hasVersion := keys["version"]
	_, hasRecords := keys["records"]
	if hasVersion && hasRecords {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, shared.WrapError("progression", "Decode", shared.ErrCorruptSnapshot, "parse snapshot", err)
		}
		if snap.Version > SnapshotVersion {
			return nil, shared.NewDomainError("progression", "Decode", shared.ErrCorruptSnapshot,
				fmt.Sprintf("unsupported snapshot version %d", snap.Version))
		}
		if snap.Records == nil {
			snap.Records = NewRecordSet()
		}
		return &snap, nil
	}

	records := NewRecordSet()
	if err := records.UnmarshalJSON(data); err != nil {
		return nil, shared.WrapError("progression", "Decode", shared.ErrCorruptSnapshot, "parse legacy snapshot", err)
	}
	snap := NewSnapshot()
	snap.Records = records
	return snap, nil
}
