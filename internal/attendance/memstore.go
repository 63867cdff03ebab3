package attendance

import (
	"context"
	"database/sql"
	"sort"
	"sync"
)

// MemStore is a thread-safe in-memory Store used for dev mode
// (STORAGE_BACKEND=memory) and tests.
type MemStore struct {
	mu      sync.RWMutex
	records []Record
	byDay   map[string]int // participantID+"|"+day -> index into records
}

// NewMemStore initializes an empty ledger.
func NewMemStore() *MemStore {
	return &MemStore{byDay: make(map[string]int)}
}

func dayKey(participantID, day string) string {
	return participantID + "|" + day
}

func (m *MemStore) Insert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(rec.ParticipantID, rec.DayBucket)
	if _, exists := m.byDay[key]; exists {
		return Record{}, ErrDuplicateDay
	}
	m.byDay[key] = len(m.records)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *MemStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, sql.ErrNoRows
}

func (m *MemStore) FindByParticipantAndDay(_ context.Context, participantID, day string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.byDay[dayKey(participantID, day)]; ok {
		rec := m.records[i]
		return &rec, nil
	}
	return nil, nil
}

func (m *MemStore) ListByParticipant(_ context.Context, participantID, day string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []Record
	for _, rec := range m.records {
		if rec.ParticipantID != participantID {
			continue
		}
		if day != "" && rec.DayBucket != day {
			continue
		}
		res = append(res, rec)
	}
	sortNewestFirst(res)
	return res, nil
}

func (m *MemStore) List(_ context.Context, f Filter) ([]Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []Record
	for _, rec := range m.records {
		if f.Day != "" && rec.DayBucket != f.Day {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		matched = append(matched, rec)
	}
	total := len(matched)
	sortNewestFirst(matched)

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *MemStore) ListAll(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Record, len(m.records))
	copy(res, m.records)
	return res, nil
}

func (m *MemStore) CountByStatus(_ context.Context, day string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[string]int{}
	for _, rec := range m.records {
		if day != "" && rec.DayBucket != day {
			continue
		}
		counts[rec.Status]++
	}
	return counts, nil
}

func sortNewestFirst(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
