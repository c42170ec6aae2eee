package store

import (
	"context"
	"errors"
	"task-tracker/internal/domain"
)

var (
	ErrNotFound      = errors.New("task not found")
	ErrSessionClosed = errors.New("store session closed")
)

// Session is a handle to the backing store scoped to a single request.
// Callers must Close it on every exit path; Close is idempotent.
type Session interface {
	Create(ctx context.Context, t domain.Task) (domain.Task, error)
	Get(ctx context.Context, id int64) (domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Close() error
}

type Opener interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Backend is a backing store as seen by the process: it hands out sessions,
// owns the schema and the underlying connections.
type Backend interface {
	Opener
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// StorageError reports a failure of the backing engine itself
// (connection, IO, constraint). It never carries ErrNotFound.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
