package dto

import "task-tracker/internal/domain"

// CreateTaskRequest is a create request after validation and defaults.
type CreateTaskRequest struct {
	Title     string
	Completed bool
}

type TaskResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func ToView(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Completed: task.Completed,
	}
}

// ToViews never returns nil so an empty list encodes as [].
func ToViews(tasks []domain.Task) []TaskResponse {
	views := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, ToView(task))
	}
	return views
}
