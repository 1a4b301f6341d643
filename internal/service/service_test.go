package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskReminder/internal/models/notification"
	"taskReminder/internal/models/task"
	"taskReminder/internal/repository"
	"taskReminder/internal/repository/task/inmemory"
	"taskReminder/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id string) (*task.Task, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*task.Task), args.Bool(1), args.Error(2)
}

func (m *MockTaskRepository) FindAll(ctx context.Context, filter repository.TaskFilter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

// MockNotifier - мок очереди напоминаний
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) EnqueueDueSoon(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var _ service.Notifier = (*MockNotifier)(nil)

// recordingNotifier запоминает все сообщения
type recordingNotifier struct {
	mtx      sync.Mutex
	messages []notification.Message
}

func (r *recordingNotifier) EnqueueDueSoon(ctx context.Context, msg notification.Message) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) Messages() []notification.Message {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]notification.Message(nil), r.messages...)
}

func existingTask(t *testing.T, id string, due *time.Time) *task.Task {
	t.Helper()
	description := "original description"
	created, err := task.New(task.Params{
		ID:          id,
		Title:       "Original",
		Description: &description,
		DueDate:     due,
		CreatedAt:   time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	return created
}

func isoIn(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "ожидалась BusinessError, получено %v", err)
	require.Equal(t, service.CodeValidation, busErr.Code)
	fields, ok := busErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	return fields
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier))
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_CreateTask тестирует создание задачи и решение о напоминании
func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		input         service.CreateTaskInput
		expectEnqueue bool
	}{
		{name: "no due date", input: service.CreateTaskInput{Title: "Plain"}},
		{name: "due in 23h", input: service.CreateTaskInput{Title: "Soon", DueDate: isoIn(23 * time.Hour)}, expectEnqueue: true},
		{name: "due in 48h", input: service.CreateTaskInput{Title: "Later", DueDate: isoIn(48 * time.Hour)}},
		{name: "due in the past", input: service.CreateTaskInput{Title: "Overdue", DueDate: isoIn(-time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockNotifier := new(MockNotifier)

			mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(created *task.Task) bool {
				return created.Title() == tt.input.Title && created.Status() == task.StatusPending
			})).Return(nil)

			if tt.expectEnqueue {
				mockNotifier.On("EnqueueDueSoon", mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
					return msg.Type == notification.TypeDueSoon && msg.Title == tt.input.Title && msg.TaskID != ""
				})).Return(nil).Once()
			}

			svc := service.NewTaskService(mockRepo, mockNotifier)
			result, err := svc.CreateTask(ctx, tt.input)

			require.NoError(t, err)
			assert.NotEmpty(t, result.ID)
			assert.Equal(t, result.CreatedAt, result.UpdatedAt)
			assert.Equal(t, task.StatusPending, result.Status)

			mockRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
			if !tt.expectEnqueue {
				mockNotifier.AssertNotCalled(t, "EnqueueDueSoon", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTaskService_CreateTask_MessageMatchesTask(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := service.NewTaskService(inmemory.NewTaskStorage(), notifier)

	created, err := svc.CreateTask(context.Background(), service.CreateTaskInput{
		Title:   "Report",
		DueDate: isoIn(2 * time.Hour),
	})
	require.NoError(t, err)

	messages := notifier.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, created.ID, messages[0].TaskID)
	assert.Equal(t, "Report", messages[0].Title)
	assert.Equal(t, notification.FormatTime(*created.DueDate), messages[0].DueDate)
}

func TestTaskService_CreateTask_UniqueIDs(t *testing.T) {
	svc := service.NewTaskService(inmemory.NewTaskStorage(), &recordingNotifier{})

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		created, err := svc.CreateTask(context.Background(), service.CreateTaskInput{Title: "Same"})
		require.NoError(t, err)
		assert.False(t, seen[created.ID])
		seen[created.ID] = true
	}
}

// TestTaskService_CreateTask_Validation - ничего не сохраняется и не ставится в очередь
func TestTaskService_CreateTask_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  service.CreateTaskInput
		field  string
		reason string
	}{
		{name: "empty title", input: service.CreateTaskInput{Title: ""}, field: "title", reason: "required"},
		{name: "whitespace title", input: service.CreateTaskInput{Title: "   \t"}, field: "title", reason: "required"},
		{name: "bad due date", input: service.CreateTaskInput{Title: "Ok", DueDate: "tomorrow"}, field: "dueDate", reason: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockNotifier := new(MockNotifier)

			svc := service.NewTaskService(mockRepo, mockNotifier)
			_, err := svc.CreateTask(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, service.IsValidation(err))
			assert.Equal(t, tt.reason, validationFields(t, err)[tt.field])

			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mockNotifier.AssertNotCalled(t, "EnqueueDueSoon", mock.Anything, mock.Anything)
		})
	}
}

func TestTaskService_CreateTask_Failures(t *testing.T) {
	t.Run("repository error is internal", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		svc := service.NewTaskService(mockRepo, mockNotifier)
		_, err := svc.CreateTask(context.Background(), service.CreateTaskInput{Title: "T", DueDate: isoIn(time.Hour)})

		require.Error(t, err)
		_, isBusiness := service.AsBusinessError(err)
		assert.False(t, isBusiness)
		mockNotifier.AssertNotCalled(t, "EnqueueDueSoon", mock.Anything, mock.Anything)
	})

	t.Run("enqueue failure fails the call after the row is saved", func(t *testing.T) {
		storage := inmemory.NewTaskStorage()
		mockNotifier := new(MockNotifier)
		mockNotifier.On("EnqueueDueSoon", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		svc := service.NewTaskService(storage, mockNotifier)
		_, err := svc.CreateTask(context.Background(), service.CreateTaskInput{Title: "T", DueDate: isoIn(time.Hour)})

		require.Error(t, err)
		_, isBusiness := service.AsBusinessError(err)
		assert.False(t, isBusiness)

		all, err := storage.FindAll(context.Background(), repository.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

// список задач с фильтром по статусу
func TestTaskService_GetTasks(t *testing.T) {
	ctx := context.Background()
	pending := task.StatusPending

	t.Run("no filter", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindAll", mock.Anything, repository.TaskFilter{}).
			Return([]*task.Task{existingTask(t, "a", nil), existingTask(t, "b", nil)}, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		res, err := svc.GetTasks(ctx, "")

		require.NoError(t, err)
		assert.Len(t, res, 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("status filter passed to repository", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindAll", mock.Anything, repository.TaskFilter{Status: &pending}).
			Return([]*task.Task{}, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		res, err := svc.GetTasks(ctx, "pending")

		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		_, err := svc.GetTasks(ctx, "archived")

		require.Error(t, err)
		assert.Equal(t, "invalid", validationFields(t, err)["status"])
		mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindAll", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		_, err := svc.GetTasks(ctx, "")

		require.Error(t, err)
		assert.False(t, service.IsValidation(err))
	})
}

func TestTaskService_GetTasks_FilterMembership(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage(), &recordingNotifier{})

	first, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "First"})
	require.NoError(t, err)
	second, err := svc.CreateTask(ctx, service.CreateTaskInput{Title: "Second"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, second.ID, service.UpdateTaskInput{Status: "completed"})
	require.NoError(t, err)

	ids := func(snapshots []task.Snapshot) []string {
		res := []string{}
		for _, s := range snapshots {
			res = append(res, s.ID)
		}
		return res
	}

	all, err := svc.GetTasks(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids(all))

	pending, err := svc.GetTasks(ctx, "pending")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID}, ids(pending))

	completed, err := svc.GetTasks(ctx, "completed")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{second.ID}, ids(completed))
}

// TestTaskService_GetTaskByID тестирует получение по id
func TestTaskService_GetTaskByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		existing := existingTask(t, "id-1", nil)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existing, true, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		res, err := svc.GetTaskByID(ctx, "id-1")

		require.NoError(t, err)
		assert.Equal(t, existing.Snapshot(), res)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, false, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		_, err := svc.GetTaskByID(ctx, "missing")

		assert.True(t, service.IsNotFound(err))
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(nil, false, errors.New("boom"))

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		_, err := svc.GetTaskByID(ctx, "id-1")

		require.Error(t, err)
		assert.False(t, service.IsNotFound(err))
	})
}

// TestTaskService_UpdateTask тестирует разреженный патч
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("omitted fields stay unchanged", func(t *testing.T) {
		due := time.Now().Add(72 * time.Hour)
		existing := existingTask(t, "id-1", &due)
		before := existing.Snapshot()

		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existing, true, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		res, err := svc.UpdateTask(ctx, "id-1", service.UpdateTaskInput{Title: "Renamed"})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", res.Title)
		assert.Equal(t, before.Description, res.Description)
		assert.True(t, before.DueDate.Equal(*res.DueDate))
		assert.Equal(t, before.Status, res.Status)
		assert.Equal(t, before.CreatedAt, res.CreatedAt)
		assert.True(t, res.UpdatedAt.After(before.UpdatedAt))
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty patch still refreshes updatedAt", func(t *testing.T) {
		existing := existingTask(t, "id-1", nil)
		before := existing.Snapshot()

		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existing, true, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		res, err := svc.UpdateTask(ctx, "id-1", service.UpdateTaskInput{})

		require.NoError(t, err)
		assert.Equal(t, before.Title, res.Title)
		assert.True(t, res.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("due date moved into window enqueues", func(t *testing.T) {
		existing := existingTask(t, "id-1", nil)

		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existing, true, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		mockNotifier.On("EnqueueDueSoon", mock.Anything, mock.MatchedBy(func(msg notification.Message) bool {
			return msg.TaskID == "id-1" && msg.Title == "Original"
		})).Return(nil).Once()

		svc := service.NewTaskService(mockRepo, mockNotifier)
		_, err := svc.UpdateTask(ctx, "id-1", service.UpdateTaskInput{DueDate: isoIn(5 * time.Hour)})

		require.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("not found - no side effects", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, false, nil)

		svc := service.NewTaskService(mockRepo, mockNotifier)
		_, err := svc.UpdateTask(ctx, "missing", service.UpdateTaskInput{Title: "X"})

		assert.True(t, service.IsNotFound(err))
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockNotifier.AssertNotCalled(t, "EnqueueDueSoon", mock.Anything, mock.Anything)
	})

	t.Run("disappeared between read and write", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existingTask(t, "id-1", nil), true, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		_, err := svc.UpdateTask(ctx, "id-1", service.UpdateTaskInput{Title: "X"})

		assert.True(t, service.IsNotFound(err))
	})

	validation := []struct {
		name   string
		input  service.UpdateTaskInput
		field  string
		reason string
	}{
		{name: "invalid status", input: service.UpdateTaskInput{Status: "archived"}, field: "status", reason: "invalid"},
		{name: "invalid due date", input: service.UpdateTaskInput{DueDate: "31/12/2024"}, field: "dueDate", reason: "invalid"},
		{name: "whitespace title", input: service.UpdateTaskInput{Title: "   "}, field: "title", reason: "empty"},
	}

	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockRepo.On("FindByID", mock.Anything, "id-1").Return(existingTask(t, "id-1", nil), true, nil)

			svc := service.NewTaskService(mockRepo, new(MockNotifier))
			_, err := svc.UpdateTask(ctx, "id-1", tt.input)

			require.Error(t, err)
			assert.Equal(t, tt.reason, validationFields(t, err)[tt.field])
			mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

// TestTaskService_DeleteTask тестирует удаление
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existingTask(t, "id-1", nil), true, nil)
		mockRepo.On("Delete", mock.Anything, "id-1").Return(nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		require.NoError(t, svc.DeleteTask(ctx, "id-1"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, false, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		err := svc.DeleteTask(ctx, "missing")

		assert.True(t, service.IsNotFound(err))
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("disappeared between read and delete", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, "id-1").Return(existingTask(t, "id-1", nil), true, nil)
		mockRepo.On("Delete", mock.Anything, "id-1").Return(repository.ErrNotFound)

		svc := service.NewTaskService(mockRepo, new(MockNotifier))
		assert.True(t, service.IsNotFound(svc.DeleteTask(ctx, "id-1")))
	})
}

// сквозной сценарий: создание, обновление, удаление одной задачи
func TestTaskService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := service.NewTaskService(inmemory.NewTaskStorage(), notifier)

	created, err := svc.CreateTask(ctx, service.CreateTaskInput{
		Title:   "Task A",
		DueDate: isoIn(23 * time.Hour),
	})
	require.NoError(t, err)

	messages := notifier.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, created.ID, messages[0].TaskID)
	assert.Equal(t, "Task A", messages[0].Title)

	updated, err := svc.UpdateTask(ctx, created.ID, service.UpdateTaskInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, updated.Status)

	// дедлайн всё ещё в окне: второе напоминание без дедупликации
	messages = notifier.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, created.ID, messages[1].TaskID)

	require.NoError(t, svc.DeleteTask(ctx, created.ID))

	_, err = svc.GetTaskByID(ctx, created.ID)
	assert.True(t, service.IsNotFound(err))

	all, err := svc.GetTasks(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
