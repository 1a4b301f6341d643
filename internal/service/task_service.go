package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskReminder/internal/logger"
	"taskReminder/internal/models/notification"
	"taskReminder/internal/models/task"
	"taskReminder/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

// окно "скоро дедлайн" в часах
const DueSoonWindowHours = 24

const resourceTask = "Задача"

type TaskService struct {
	repo     TaskRepository
	notifier Notifier
}

func NewTaskService(repo TaskRepository, notifier Notifier) TaskService {
	return TaskService{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (task.Snapshot, error) {
	params, err := in.toParams(uuid.New().String())
	if err != nil {
		logger.Info("Service: Ошибка валидации при создании задачи", zap.Error(err))
		return task.Snapshot{}, err
	}

	created, err := task.New(params)
	if err != nil {
		return task.Snapshot{}, mapTaskError(err)
	}

	if err := s.repo.Create(ctx, created); err != nil {
		return task.Snapshot{}, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", created.ID()))

	if err := s.notifyIfDueSoon(ctx, created); err != nil {
		return task.Snapshot{}, err
	}

	return created.Snapshot(), nil
}

func (s *TaskService) GetTasks(ctx context.Context, status string) ([]task.Snapshot, error) {
	filter := repository.TaskFilter{}
	if status != "" {
		parsed, err := task.ParseStatus(status)
		if err != nil {
			return nil, NewValidationError("status", "invalid")
		}
		filter.Status = &parsed
	}

	tasks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	res := make([]task.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.Snapshot())
	}
	return res, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id string) (task.Snapshot, error) {
	found, err := s.load(ctx, id)
	if err != nil {
		return task.Snapshot{}, err
	}
	return found.Snapshot(), nil
}

// UpdateTask применяет патч и заново проверяет дедлайн уже по результату обновления.
// Повторные обновления внутри окна ставят в очередь повторные напоминания, дедупликации нет
func (s *TaskService) UpdateTask(ctx context.Context, id string, in UpdateTaskInput) (task.Snapshot, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return task.Snapshot{}, err
	}

	options, err := in.toOptions()
	if err != nil {
		logger.Info("Service: Ошибка валидации при обновлении задачи",
			zap.String("task_id", id),
			zap.Error(err))
		return task.Snapshot{}, err
	}

	existing.Update(options...)

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return task.Snapshot{}, NewNotFound(resourceTask, id)
		}
		return task.Snapshot{}, fmt.Errorf("обновление задачи: %w", err)
	}

	logger.Info("Service: Задача обновлена", zap.String("task_id", id))

	if err := s.notifyIfDueSoon(ctx, existing); err != nil {
		return task.Snapshot{}, err
	}

	return existing.Snapshot(), nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound(resourceTask, id)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id))
	return nil
}

func (s *TaskService) load(ctx context.Context, id string) (*task.Task, error) {
	found, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	if !ok {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id))
		return nil, NewNotFound(resourceTask, id)
	}
	return found, nil
}

// notifyIfDueSoon не повторяет неудачную постановку в очередь: ошибка уходит вызывающему,
// хотя задача уже сохранена
func (s *TaskService) notifyIfDueSoon(ctx context.Context, t *task.Task) error {
	dueTime := t.DueDate()
	if dueTime == nil {
		return nil
	}
	if !task.DueDateFrom(*dueTime).IsWithinNextHours(DueSoonWindowHours) {
		return nil
	}

	msg := notification.NewDueSoon(t.ID(), t.Title(), *dueTime, time.Now())
	if err := s.notifier.EnqueueDueSoon(ctx, msg); err != nil {
		logger.Error("Service: Не удалось поставить напоминание в очередь", err,
			zap.String("task_id", t.ID()))
		return fmt.Errorf("постановка напоминания в очередь: %w", err)
	}

	logger.Info("Service: Напоминание поставлено в очередь",
		zap.String("task_id", t.ID()),
		zap.String("due_date", msg.DueDate))
	return nil
}
