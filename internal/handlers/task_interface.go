package handlers

import (
	"context"

	"taskReminder/internal/models/task"
	"taskReminder/internal/service"
)

type Service interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, service.CreateTaskInput) (task.Snapshot, error)
	GetTasks(ctx context.Context, status string) ([]task.Snapshot, error)
	GetTaskByID(ctx context.Context, id string) (task.Snapshot, error)
	UpdateTask(ctx context.Context, id string, in service.UpdateTaskInput) (task.Snapshot, error)
	DeleteTask(ctx context.Context, id string) error
}

var _ Service = (*service.TaskService)(nil)
