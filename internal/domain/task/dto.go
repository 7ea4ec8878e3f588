package task

import "time"

// CreateTaskRequest dispatches an approved project to a writer.
type CreateTaskRequest struct {
	WriterID    string     `json:"writer_id" validate:"required"`
	Description string     `json:"description" validate:"required"`
	DueDate     *time.Time `json:"due_date"`
}

type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}
