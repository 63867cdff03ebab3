package registration

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is a thread-safe in-memory Store used for dev mode
// (STORAGE_BACKEND=memory) and tests.
type MemStore struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// NewMemStore initializes an empty store.
func NewMemStore() *MemStore {
	return &MemStore{participants: make(map[string]Participant)}
}

func (m *MemStore) Insert(_ context.Context, p Participant) (Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.participants {
		if existing.RegistrationID == p.RegistrationID {
			return Participant{}, ErrDuplicateRegistrationID
		}
		if existing.IsActive && strings.EqualFold(existing.Email, p.Email) {
			return Participant{}, ErrDuplicateEmail
		}
	}
	p.IsActive = true
	m.participants[p.ID] = p
	return p, nil
}

func (m *MemStore) FindActiveByEmail(_ context.Context, email string) (*Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.participants {
		if p.IsActive && strings.EqualFold(p.Email, email) {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MemStore) FindByRegistrationID(_ context.Context, registrationID string) (*Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.participants {
		if p.IsActive && p.RegistrationID == registrationID {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ListActive(_ context.Context, limit int) ([]Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []Participant
	for _, p := range m.participants {
		if p.IsActive {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].RegisteredAt.After(res[j].RegisteredAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemStore) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	m.participants[id] = p
	return nil
}

func (m *MemStore) CountActive(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.participants {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}
