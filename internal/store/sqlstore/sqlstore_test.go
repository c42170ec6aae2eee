package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"task-tracker/internal/domain"
	"task-tracker/internal/store"
	"testing"
)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := Open(context.Background(), "sqlite", path)
	if err != nil {
		t.Fatalf("Open() err = %v, want nil", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() err = %v, want nil", err)
	}
	return db, path
}

func openSession(t *testing.T, db *DB) store.Session {
	t.Helper()

	sess, err := db.OpenSession(context.Background())
	if err != nil {
		t.Fatalf("OpenSession() err = %v, want nil", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Open() err = %v, want %v", err, ErrUnknownDriver)
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tasks.db", "tasks.db?_pragma=busy_timeout(5000)"},
		{"file:tasks.db?mode=rwc", "file:tasks.db?mode=rwc&_pragma=busy_timeout(5000)"},
		{"tasks.db?_pragma=busy_timeout(100)", "tasks.db?_pragma=busy_timeout(100)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db, _ := newTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.EnsureSchema(context.Background()); err != nil {
			t.Fatalf("EnsureSchema() #%d err = %v, want nil", i, err)
		}
	}
}

func TestList_EmptyStore(t *testing.T) {
	db, _ := newTestDB(t)

	list, err := openSession(t, db).List(context.Background())
	if err != nil {
		t.Fatalf("List() err = %v, want nil", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("List() = %#v, want empty non-nil slice", list)
	}
}

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	db, _ := newTestDB(t)
	sess := openSession(t, db)
	ctx := context.Background()

	first, err := sess.Create(ctx, domain.Task{ID: 99, Title: "buy milk"})
	if err != nil {
		t.Fatalf("Create() err = %v, want nil", err)
	}
	want := domain.Task{ID: 1, Title: "buy milk", Completed: false}
	if first != want {
		t.Fatalf("Create() = %+v, want %+v", first, want)
	}

	second, err := sess.Create(ctx, domain.Task{Title: "walk dog", Completed: true})
	if err != nil {
		t.Fatalf("Create() err = %v, want nil", err)
	}
	if second.ID <= first.ID || !second.Completed {
		t.Fatalf("Create() = %+v, want id > %d and completed", second, first.ID)
	}

	list, err := sess.List(ctx)
	if err != nil {
		t.Fatalf("List() err = %v, want nil", err)
	}
	if len(list) != 2 || list[0] != first || list[1] != second {
		t.Fatalf("List() = %+v, want [%+v %+v]", list, first, second)
	}
}

func TestCreate_VisibleToOtherSessionsAndReopen(t *testing.T) {
	db, path := newTestDB(t)
	ctx := context.Background()

	a := openSession(t, db)
	created, err := a.Create(ctx, domain.Task{Title: "durable"})
	if err != nil {
		t.Fatalf("Create() err = %v, want nil", err)
	}
	_ = a.Close()

	got, err := openSession(t, db).Get(ctx, created.ID)
	if err != nil || got != created {
		t.Fatalf("Get() = %+v, %v, want %+v", got, err, created)
	}

	reopened, err := Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("Open() err = %v, want nil", err)
	}
	defer reopened.Close()

	list, err := openSession(t, reopened).List(ctx)
	if err != nil {
		t.Fatalf("List() err = %v, want nil", err)
	}
	if len(list) != 1 || list[0] != created {
		t.Fatalf("List() after reopen = %+v, want [%+v]", list, created)
	}
}

func TestCreate_IDsNeverReused(t *testing.T) {
	db, _ := newTestDB(t)
	sess := openSession(t, db)
	ctx := context.Background()

	_, _ = sess.Create(ctx, domain.Task{Title: "a"})
	last, _ := sess.Create(ctx, domain.Task{Title: "b"})

	// the service has no delete path; remove the row behind its back
	if _, err := db.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, last.ID); err != nil {
		t.Fatalf("delete err = %v", err)
	}

	next, err := sess.Create(ctx, domain.Task{Title: "c"})
	if err != nil {
		t.Fatalf("Create() err = %v, want nil", err)
	}
	if next.ID <= last.ID {
		t.Fatalf("Create() id = %d, want > %d", next.ID, last.ID)
	}
}

func TestCreate_CanceledContextPersistsNothing(t *testing.T) {
	db, _ := newTestDB(t)
	sess := openSession(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Create(ctx, domain.Task{Title: "never"})
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Create() err = %v, want *store.StorageError", err)
	}

	list, err := sess.List(context.Background())
	if err != nil {
		t.Fatalf("List() err = %v, want nil", err)
	}
	if len(list) != 0 {
		t.Fatalf("List() len = %d, want 0", len(list))
	}
}

func TestGet_NotFound(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := openSession(t, db).Get(context.Background(), 123)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get() err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestSession_Closed(t *testing.T) {
	db, _ := newTestDB(t)
	sess := openSession(t, db)

	if err := sess.Close(); err != nil {
		t.Fatalf("Close() err = %v, want nil", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close() err = %v, want nil", err)
	}

	if _, err := sess.List(context.Background()); !errors.Is(err, store.ErrSessionClosed) {
		t.Fatalf("List() err = %v, want %v", err, store.ErrSessionClosed)
	}
	if _, err := sess.Create(context.Background(), domain.Task{Title: "x"}); !errors.Is(err, store.ErrSessionClosed) {
		t.Fatalf("Create() err = %v, want %v", err, store.ErrSessionClosed)
	}
}

func TestClosedDB_StorageError(t *testing.T) {
	db, _ := newTestDB(t)
	_ = db.Close()

	_, err := db.OpenSession(context.Background())
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("OpenSession() err = %v, want *store.StorageError", err)
	}
	if err := db.Ping(context.Background()); !errors.As(err, &storageErr) {
		t.Fatalf("Ping() err = %v, want *store.StorageError", err)
	}
}

func TestCreate_Concurrent(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			sess, err := db.OpenSession(ctx)
			if err != nil {
				errs <- err
				return
			}
			defer sess.Close()
			if _, err := sess.Create(ctx, domain.Task{Title: "x"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent Create() err = %v", err)
	}

	list, err := openSession(t, db).List(ctx)
	if err != nil {
		t.Fatalf("List() err = %v, want nil", err)
	}
	if len(list) != n {
		t.Fatalf("List() len = %d, want %d", len(list), n)
	}
	seen := make(map[int64]bool, n)
	for _, task := range list {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestOpen_MemoryDSN(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open() err = %v, want nil", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() err = %v, want nil", err)
	}

	a := openSession(t, db)
	created, err := a.Create(context.Background(), domain.Task{Title: "in memory"})
	if err != nil {
		t.Fatalf("Create() err = %v, want nil", err)
	}
	_ = a.Close()

	got, err := openSession(t, db).Get(context.Background(), created.ID)
	if err != nil || got.Title != "in memory" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
}
