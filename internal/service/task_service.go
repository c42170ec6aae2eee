package service

import (
	"context"
	"errors"
	"strings"
	"task-tracker/internal/domain"
	"task-tracker/internal/store"
)

type TaskStore interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	Get(ctx context.Context, id int64) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
}

// TaskService is bound to one store session for the lifetime of a request.
type TaskService struct {
	store TaskStore
}

func New(store TaskStore) (*TaskService, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	return &TaskService{store: store}, nil
}

func (s *TaskService) CreateTask(ctx context.Context, title string, completed bool) (domain.Task, error) {
	// title is stored as given, blank is rejected
	if strings.TrimSpace(title) == "" {
		return domain.Task{}, ErrInvalidInput
	}

	task := domain.Task{
		Title:     title,
		Completed: completed,
	}

	return s.store.Create(ctx, task)
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	if id <= 0 {
		return domain.Task{}, ErrInvalidID
	}

	task, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Task{}, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}
