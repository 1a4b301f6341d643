package service

import (
	"context"

	"taskReminder/internal/models/notification"
	"taskReminder/internal/models/task"
	"taskReminder/internal/repository"
)

// TaskRepository - граница хранения.
// FindByID сообщает об отсутствии задачи через found=false, а не ошибкой.
// Create не перезаписывает существующий id, Update и Delete возвращают repository.ErrNotFound,
// если задача исчезла между чтением и записью
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	FindByID(ctx context.Context, id string) (t *task.Task, found bool, err error)
	FindAll(context.Context, repository.TaskFilter) ([]*task.Task, error)
	Update(context.Context, *task.Task) error
	Delete(ctx context.Context, id string) error
}

// Notifier возвращает управление, когда сообщение передано транспорту, или ошибку
type Notifier interface {
	EnqueueDueSoon(context.Context, notification.Message) error
}
