package repository

import (
	"errors"

	"taskReminder/internal/models/task"
)

var ErrNotFound = errors.New("задача не найдена")
var ErrAlreadyExists = errors.New("задача с таким id уже существует")

// TaskFilter - пустой фильтр возвращает все задачи
type TaskFilter struct {
	Status *task.Status
}

func (f TaskFilter) Match(s task.Status) bool {
	return f.Status == nil || *f.Status == s
}
