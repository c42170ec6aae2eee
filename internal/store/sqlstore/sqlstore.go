// Package sqlstore persists tasks in a relational table through database/sql.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx stdlib) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"task-tracker/internal/domain"
	"task-tracker/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

const sqliteBusyTimeout = "busy_timeout(5000)"

type dialect struct {
	name   string
	driver string
	schema string
	insert string
	get    string
	list   string
}

var dialects = map[string]dialect{
	"sqlite": {
		name:   "sqlite",
		driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT 0
)`,
		insert: `INSERT INTO tasks (title, completed) VALUES (?, ?) RETURNING id, title, completed`,
		get:    `SELECT id, title, completed FROM tasks WHERE id = ?`,
		list:   `SELECT id, title, completed FROM tasks ORDER BY id`,
	},
	"postgres": {
		name:   "postgres",
		driver: "pgx",
		schema: `CREATE TABLE IF NOT EXISTS tasks (
	id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	title TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`,
		insert: `INSERT INTO tasks (title, completed) VALUES ($1, $2) RETURNING id, title, completed`,
		get:    `SELECT id, title, completed FROM tasks WHERE id = $1`,
		list:   `SELECT id, title, completed FROM tasks ORDER BY id`,
	},
}

// DB is a store.Backend over a *sql.DB connection pool.
type DB struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the database named by driver ("sqlite" or "postgres") and
// verifies the connection. It does not create the schema; call EnsureSchema.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if d.name == "sqlite" {
		dsn = sqliteDSN(dsn)
	}

	sqlDB, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, &store.StorageError{Op: "open", Err: err}
	}

	// every connection to :memory: is a separate database
	if d.name == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, &store.StorageError{Op: "ping", Err: err}
	}

	return &DB{db: sqlDB, dialect: d}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + sqliteBusyTimeout
}

// EnsureSchema creates the tasks table if it does not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, d.dialect.schema); err != nil {
		return &store.StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return &store.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// OpenSession reserves a dedicated connection from the pool until the
// returned session is closed.
func (d *DB) OpenSession(ctx context.Context) (store.Session, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, &store.StorageError{Op: "open session", Err: err}
	}
	return &session{conn: conn, dialect: d.dialect}, nil
}

type session struct {
	mu      sync.Mutex
	conn    *sql.Conn
	dialect dialect
	closed  bool
}

func (s *session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrSessionClosed
	}
	return nil
}

// Create inserts the task in its own transaction and returns the stored row.
// The caller's ID is ignored.
func (s *session) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := s.check(); err != nil {
		return domain.Task{}, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, &store.StorageError{Op: "create", Err: err}
	}

	created, err := scanTask(tx.QueryRowContext(ctx, s.dialect.insert, task.Title, task.Completed))
	if err != nil {
		_ = tx.Rollback()
		return domain.Task{}, &store.StorageError{Op: "create", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return domain.Task{}, &store.StorageError{Op: "create", Err: err}
	}

	return created, nil
}

func (s *session) Get(ctx context.Context, id int64) (domain.Task, error) {
	if err := s.check(); err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(s.conn.QueryRowContext(ctx, s.dialect.get, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, &store.StorageError{Op: "get", Err: err}
	}
	return task, nil
}

func (s *session) List(ctx context.Context) ([]domain.Task, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, s.dialect.list)
	if err != nil {
		return nil, &store.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, &store.StorageError{Op: "list", Err: err}
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "list", Err: err}
	}

	return tasks, nil
}

// Close returns the connection to the pool.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.conn.Close()
}
