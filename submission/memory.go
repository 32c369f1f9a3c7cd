package submission

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{drafts: make(map[string][]byte)}
}

// SaveDraft stores a serialized copy so callers cannot mutate stored state.
func (m *Memory) SaveDraft(_ context.Context, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.ID] = data
	return nil
}

func (m *Memory) GetDraft(_ context.Context, id string) (*Draft, error) {
	m.mu.RLock()
	data, ok := m.drafts[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *Memory) ListDrafts(ctx context.Context) ([]Draft, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.drafts))
	for id := range m.drafts {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	drafts := make([]Draft, 0, len(ids))
	for _, id := range ids {
		d, err := m.GetDraft(ctx, id)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

func (m *Memory) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}
