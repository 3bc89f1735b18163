package storage

import (
	"context"

	"github.com/taskdot/taskdot/internal/task"
)

// MemoryStore is an in-memory Storage implementation with the same
// semantics as the SQLite store, including snapshot-based transactions.
// It backs tests and ad-hoc dry runs.
type MemoryStore struct {
	state *memState
}

// memState holds tasks in insertion order plus an ID index.
type memState struct {
	order []string
	byID  map[string]*task.Task
}

func newMemState() *memState {
	return &memState{byID: make(map[string]*task.Task)}
}

func (m *memState) clone() *memState {
	out := &memState{
		order: append([]string(nil), m.order...),
		byID:  make(map[string]*task.Task, len(m.byID)),
	}
	for id, t := range m.byID {
		out.byID[id] = t.Clone()
	}
	return out
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (m *memState) getTask(id string) (*task.Task, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, task.Errorf(task.KindNotFound, "task %s not found", id)
	}
	return t.Clone(), nil
}

func (m *memState) getAllTasks() []*task.Task {
	out := make([]*task.Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].Clone())
	}
	return out
}

func (m *memState) getChildTasks(parentID string) []*task.Task {
	var out []*task.Task
	for _, id := range m.order {
		if t := m.byID[id]; t.ParentID == parentID {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (m *memState) createTask(t *task.Task) error {
	if err := t.Validate(); err != nil {
		return task.WrapErr(task.KindValidation, err, "invalid task")
	}
	if _, exists := m.byID[t.ID]; exists {
		return task.Errorf(task.KindDatabase, "task %s already exists", t.ID)
	}
	stored := t.Clone()
	delete(stored.Metadata, task.MetaSimilarityScore)
	m.byID[t.ID] = stored
	m.order = append(m.order, t.ID)
	return nil
}

func (m *memState) updateTask(t *task.Task) error {
	if err := t.Validate(); err != nil {
		return task.WrapErr(task.KindValidation, err, "invalid task")
	}
	if _, ok := m.byID[t.ID]; !ok {
		return task.Errorf(task.KindNotFound, "task %s not found", t.ID)
	}
	stored := t.Clone()
	delete(stored.Metadata, task.MetaSimilarityScore)
	m.byID[t.ID] = stored
	return nil
}

func (m *memState) removeTask(id string) error {
	if _, ok := m.byID[id]; !ok {
		return task.Errorf(task.KindNotFound, "task %s not found", id)
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memState) renameTask(oldID, newID, newParentID string) error {
	t, ok := m.byID[oldID]
	if !ok {
		return task.Errorf(task.KindNotFound, "task %s not found", oldID)
	}
	if _, clash := m.byID[newID]; clash {
		return task.Errorf(task.KindDependency, "rename target %s already exists", newID)
	}
	delete(m.byID, oldID)
	t.ID = newID
	t.ParentID = newParentID
	m.byID[newID] = t
	for i, oid := range m.order {
		if oid == oldID {
			m.order[i] = newID
			break
		}
	}
	return nil
}

// ---- Storage interface ----

func (s *MemoryStore) GetTask(_ context.Context, id string) (*task.Task, error) {
	return s.state.getTask(id)
}

func (s *MemoryStore) GetAllTasks(_ context.Context) ([]*task.Task, error) {
	return s.state.getAllTasks(), nil
}

func (s *MemoryStore) GetChildTasks(_ context.Context, parentID string) ([]*task.Task, error) {
	return s.state.getChildTasks(parentID), nil
}

func (s *MemoryStore) CreateTask(_ context.Context, t *task.Task) error {
	return s.state.createTask(t)
}

func (s *MemoryStore) UpdateTask(_ context.Context, t *task.Task) error {
	return s.state.updateTask(t)
}

func (s *MemoryStore) RemoveTask(_ context.Context, id string) error {
	return s.state.removeTask(id)
}

func (s *MemoryStore) RenameTask(_ context.Context, oldID, newID, newParentID string) error {
	return s.state.renameTask(oldID, newID, newParentID)
}

func (s *MemoryStore) Close() error {
	return nil
}

// memTx operates on a deep copy of the store state; the copy replaces the
// live state only when the transaction function succeeds.
type memTx struct {
	state *memState
}

func (t *memTx) GetTask(_ context.Context, id string) (*task.Task, error) {
	return t.state.getTask(id)
}

func (t *memTx) GetAllTasks(_ context.Context) ([]*task.Task, error) {
	return t.state.getAllTasks(), nil
}

func (t *memTx) GetChildTasks(_ context.Context, parentID string) ([]*task.Task, error) {
	return t.state.getChildTasks(parentID), nil
}

func (t *memTx) CreateTask(_ context.Context, tk *task.Task) error {
	return t.state.createTask(tk)
}

func (t *memTx) UpdateTask(_ context.Context, tk *task.Task) error {
	return t.state.updateTask(tk)
}

func (t *memTx) RemoveTask(_ context.Context, id string) error {
	return t.state.removeTask(id)
}

func (t *memTx) RenameTask(_ context.Context, oldID, newID, newParentID string) error {
	return t.state.renameTask(oldID, newID, newParentID)
}

// RunInTransaction gives fn a snapshot; on success the snapshot becomes
// the live state, on error it is discarded.
func (s *MemoryStore) RunInTransaction(_ context.Context, fn func(tx Transaction) error) error {
	snapshot := s.state.clone()
	if err := fn(&memTx{state: snapshot}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}
