package domain

// Task is the only persisted entity. ID is assigned by the store on create
// and never changes afterwards.
type Task struct {
	ID        int64
	Title     string
	Completed bool
}
