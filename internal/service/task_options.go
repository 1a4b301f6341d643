package service

import (
	"errors"
	"strings"

	"taskReminder/internal/models/task"
)

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
}

// UpdateTaskInput - разреженный патч: пустая строка означает "не менять"
type UpdateTaskInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// toOptions проверяет патч и превращает его в опции задачи
func (in UpdateTaskInput) toOptions() ([]task.TaskOption, error) {
	var due *task.DueDate
	if in.DueDate != "" {
		parsed, err := task.ParseDueDate(in.DueDate)
		if err != nil {
			return nil, NewValidationError("dueDate", "invalid")
		}
		due = parsed
	}

	var status task.Status
	if in.Status != "" {
		parsed, err := task.ParseStatus(in.Status)
		if err != nil {
			return nil, NewValidationError("status", "invalid")
		}
		status = parsed
	}

	if in.Title != "" && strings.TrimSpace(in.Title) == "" {
		return nil, NewValidationError("title", "empty")
	}

	return []task.TaskOption{
		task.WithTitle(in.Title),
		task.WithDescription(in.Description),
		task.WithDueDate(due),
		task.WithStatus(status),
	}, nil
}

func (in CreateTaskInput) toParams(id string) (task.Params, error) {
	if strings.TrimSpace(in.Title) == "" {
		return task.Params{}, NewValidationError("title", "required")
	}

	params := task.Params{
		ID:     id,
		Title:  in.Title,
		Status: task.StatusPending,
	}

	if in.Description != "" {
		description := in.Description
		params.Description = &description
	}

	if in.DueDate != "" {
		due, err := task.ParseDueDate(in.DueDate)
		if err != nil {
			return task.Params{}, NewValidationError("dueDate", "invalid")
		}
		value := due.Value()
		params.DueDate = &value
	}

	return params, nil
}

func mapTaskError(err error) error {
	if errors.Is(err, task.ErrEmptyTitle) {
		return NewValidationError("title", "required")
	}
	return err
}
