package dto

import (
	"time"

	"taskReminder/internal/models/task"
	"taskReminder/internal/service"
)

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

// UpdateTaskRequest - разреженный патч, пустые поля не меняются
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
}

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      r.Status,
	}
}

func FromSnapshot(s task.Snapshot) TaskResponse {
	return TaskResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		DueDate:     s.DueDate,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromSnapshots(snapshots []task.Snapshot) []TaskResponse {
	result := make([]TaskResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = FromSnapshot(s)
	}
	return result
}
