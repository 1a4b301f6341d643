package inmemory

import (
	"context"
	"fmt"
	"sync"

	"taskReminder/internal/logger"
	"taskReminder/internal/models/task"
	repo "taskReminder/internal/repository"
)

// TaskStorage хранит снимки, а не сами задачи: изменения снаружи не попадают в хранилище без Update
type TaskStorage struct {
	storage map[string]task.Snapshot
	mtx     *sync.RWMutex
	ids     []string
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[string]task.Snapshot),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.ID()]; ok {
		return repo.ErrAlreadyExists
	}

	s.storage[taskToCreate.ID()] = taskToCreate.Snapshot()
	s.ids = append(s.ids, taskToCreate.ID())
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID()]; !ok {
		return repo.ErrNotFound
	}

	s.storage[taskToUpdate.ID()] = taskToUpdate.Snapshot()
	return nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id string) (*task.Task, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snapshot, ok := s.storage[id]
	if !ok {
		return nil, false, nil
	}

	taskToGet, err := fromSnapshot(snapshot)
	if err != nil {
		return nil, false, err
	}
	return taskToGet, true, nil
}

// задачи в порядке добавления
func (s *TaskStorage) FindAll(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		snapshot := s.storage[id]
		if !filter.Match(snapshot.Status) {
			continue
		}

		taskToGet, err := fromSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		res = append(res, taskToGet)
	}

	return res, nil
}

func (s *TaskStorage) Delete(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func fromSnapshot(snapshot task.Snapshot) (*task.Task, error) {
	restored, err := task.New(task.Params{
		ID:          snapshot.ID,
		Title:       snapshot.Title,
		Description: snapshot.Description,
		DueDate:     snapshot.DueDate,
		Status:      snapshot.Status,
		CreatedAt:   snapshot.CreatedAt,
		UpdatedAt:   snapshot.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("восстановление задачи %s: %w", snapshot.ID, err)
	}
	return restored, nil
}
