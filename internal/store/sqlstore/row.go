package sqlstore

import "task-tracker/internal/domain"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask maps one (id, title, completed) row onto a domain.Task.
func scanTask(row rowScanner) (domain.Task, error) {
	var (
		id        int64
		title     string
		completed bool
	)
	if err := row.Scan(&id, &title, &completed); err != nil {
		return domain.Task{}, err
	}

	return domain.Task{
		ID:        id,
		Title:     title,
		Completed: completed,
	}, nil
}
