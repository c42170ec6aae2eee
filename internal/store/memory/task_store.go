package memory

import (
	"context"
	"errors"
	"sync"
	"task-tracker/internal/domain"
	"task-tracker/internal/store"
)

var (
	ErrNotInitialized = errors.New("task store not initialized")
)

// TaskStore keeps tasks in creation order. IDs come from a counter that only
// moves forward, so they are never reused.
type TaskStore struct {
	mu     sync.RWMutex
	nextID int64
	tasks  []domain.Task
	index  map[int64]int
}

func New() *TaskStore {
	return &TaskStore{
		tasks: make([]domain.Task, 0),
		index: make(map[int64]int),
	}
}

func (ts *TaskStore) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

func (ts *TaskStore) Ping(ctx context.Context) error {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.index == nil {
		return ErrNotInitialized
	}
	return ctx.Err()
}

func (ts *TaskStore) Close() error {
	return nil
}

func (ts *TaskStore) OpenSession(ctx context.Context) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.StorageError{Op: "open session", Err: err}
	}
	return &session{ts: ts}, nil
}

func (ts *TaskStore) create(task domain.Task) (domain.Task, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.index == nil {
		return domain.Task{}, ErrNotInitialized
	}

	// id is not definable by user
	ts.nextID++
	task.ID = ts.nextID

	ts.index[task.ID] = len(ts.tasks)
	ts.tasks = append(ts.tasks, task)

	return task, nil
}

func (ts *TaskStore) get(id int64) (domain.Task, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	i, ok := ts.index[id]
	if !ok {
		return domain.Task{}, false
	}
	// task is non-pointer value
	return ts.tasks[i], true
}

func (ts *TaskStore) list() ([]domain.Task, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.index == nil {
		return nil, ErrNotInitialized
	}

	tasks := make([]domain.Task, len(ts.tasks))
	copy(tasks, ts.tasks)

	return tasks, nil
}

type session struct {
	mu     sync.Mutex
	ts     *TaskStore
	closed bool
}

func (s *session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrSessionClosed
	}
	return nil
}

func (s *session) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := s.check(); err != nil {
		return domain.Task{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Task{}, &store.StorageError{Op: "create", Err: err}
	}

	created, err := s.ts.create(task)
	if err != nil {
		return domain.Task{}, &store.StorageError{Op: "create", Err: err}
	}
	return created, nil
}

func (s *session) Get(ctx context.Context, id int64) (domain.Task, error) {
	if err := s.check(); err != nil {
		return domain.Task{}, err
	}

	task, ok := s.ts.get(id)
	if !ok {
		return domain.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (s *session) List(ctx context.Context) ([]domain.Task, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	tasks, err := s.ts.list()
	if err != nil {
		return nil, &store.StorageError{Op: "list", Err: err}
	}
	return tasks, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return nil
}
