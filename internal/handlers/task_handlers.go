package handlers

import (
	"net/http"
	"time"

	"taskReminder/internal/handlers/dto"
	"taskReminder/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const contentTypeJSON = "application/json"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// Routes - маршруты /tasks
func (s *TaskHandler) Routes(r chi.Router) {
	r.Get("/", s.GetTasks)
	r.Post("/", s.PostTask)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.GetTaskByID)
		r.Put("/", s.UpdateTaskByID)
		r.Delete("/", s.DeleteTaskByID)
	})
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unavailable"))
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	status := r.URL.Query().Get("status")

	tasks, err := s.TaskService.GetTasks(r.Context(), status)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromSnapshots(tasks))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, contentTypeJSON) {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", contentTypeJSON),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, codeBadRequest, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := decodeJSON(r, w, &request); err != nil {

		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, codeBadRequest, "Неверное тело запроса")
		return
	}

	if err := validateRequest(request); err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromSnapshot(created))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")

	found, err := s.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", found.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromSnapshot(found))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, contentTypeJSON) {

		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", contentTypeJSON),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, codeBadRequest, "Content-Type должен быть application/json")
		return
	}

	id := chi.URLParam(r, "id")

	var request dto.UpdateTaskRequest
	if err := decodeJSON(r, w, &request); err != nil {

		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, codeBadRequest, "Неверно переданы параметры обновления")
		return
	}

	// статус проверяет и сервис, но после поиска задачи: неизвестный id с плохим статусом даёт 404
	updated, err := s.TaskService.UpdateTask(r.Context(), id, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromSnapshot(updated))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
