package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Memory is a process-local store with the same contract as Firestore. It backs
// offline runs and tests.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]model.Task
	writes int
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]model.Task)}
}

// Writes counts Put and UpdateFields calls that reached the store.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *Memory) Get(_ context.Context, id string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.docs[id]
	if !ok {
		return model.Task{}, model.ErrNotFound
	}
	return t, nil
}

func (m *Memory) FindByExternalID(_ context.Context, owner, externalID string) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool {
		return t.OwnerIdentity == owner && t.ExternalID == externalID
	}), nil
}

func (m *Memory) FindByTitle(_ context.Context, owner, title string) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool {
		return t.OwnerIdentity == owner && t.Title == title
	}), nil
}

func (m *Memory) ListByOwner(_ context.Context, owner string) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool {
		return t.OwnerIdentity == owner
	}), nil
}

func (m *Memory) Put(_ context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("%w: mirror put without id", model.ErrInvalidTask)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[t.ID] = t
	m.writes++
	return nil
}

func (m *Memory) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.docs[id]
	if !ok {
		return model.ErrNotFound
	}
	for path, value := range fields {
		if err := setField(&t, path, value); err != nil {
			return err
		}
	}
	m.docs[id] = t
	m.writes++
	return nil
}

func (m *Memory) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

func (m *Memory) DeleteByOwner(_ context.Context, owner string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, t := range m.docs {
		if t.OwnerIdentity == owner {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

// filter returns matches ordered by id, as Firestore orders query results.
func (m *Memory) filter(keep func(model.Task) bool) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Task
	for _, t := range m.docs {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func setField(t *model.Task, path string, value any) error {
	switch path {
	case FieldStatus:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: want string, got %T", path, value)
		}
		t.Status = model.ParseStatus(s)
	case FieldExternalID, FieldTitle, FieldDescription, FieldOwner:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: want string, got %T", path, value)
		}
		switch path {
		case FieldExternalID:
			t.ExternalID = s
		case FieldTitle:
			t.Title = s
		case FieldDescription:
			t.Description = s
		case FieldOwner:
			t.OwnerIdentity = s
		}
	case FieldScheduledDate:
		d, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("field %s: want time, got %T", path, value)
		}
		t.ScheduledDate = d
	default:
		return fmt.Errorf("field %s cannot be updated", path)
	}
	return nil
}
