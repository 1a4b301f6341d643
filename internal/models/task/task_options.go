package task

import "strings"

// TaskOption - одно поле разреженного патча.
// Пустое значение даёт nil: поле остаётся как было, очистить его через патч нельзя
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.title = title
	}
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.description = &description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.status = status
	}
}

func WithDueDate(due *DueDate) TaskOption {
	if due == nil {
		return nil
	}
	value := due.Value()
	return func(task *Task) {
		task.dueDate = &value
	}
}
