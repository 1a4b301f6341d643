package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskReminder/internal/config"
	"taskReminder/internal/handlers"
	"taskReminder/internal/logger"
	"taskReminder/internal/metrics"
	"taskReminder/internal/middleware"
	redisqueue "taskReminder/internal/queue/redis"
	"taskReminder/internal/repository/task/inmemory"
	"taskReminder/internal/repository/task/postgres"
	"taskReminder/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "task-reminder"

// App держит все соединения процесса API.
// Соединения открываются в Init и закрываются в Shutdown в обратном порядке
type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	notifier   service.Notifier
	service    *service.TaskService
	shutdowns  []func()
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if a.repository == nil {
		if err := a.config.ValidateStorage(); err != nil {
			return err
		}
	}

	if err := logger.Init(LoggerOptions(a.config)); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.closeAll()
		return err
	}

	if err := a.initQueue(ctx); err != nil {
		a.closeAll()
		return err
	}

	taskService := service.NewTaskService(a.repository, a.notifier)
	a.service = &taskService

	a.initRouter()

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

// WithRepository и WithNotifier подменяют зависимости до Init, например в тестах
func (a *App) WithRepository(repo service.TaskRepository) *App {
	a.repository = repo
	return a
}

func (a *App) WithNotifier(notifier service.Notifier) *App {
	a.notifier = notifier
	return a
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run блокируется до остановки сервера
func (a *App) Run() error {
	logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))

	err := a.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP: Сервер остановлен с ошибкой", err)
		return fmt.Errorf("запуск сервера: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	if a.server != nil {
		logger.Info("HTTP: Остановка сервера")
		if err := a.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("остановка сервера: %w", err)
		}
	}

	a.closeAll()
	return shutdownErr
}

func (a *App) closeAll() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

func (a *App) initRepository(ctx context.Context) error {
	if a.repository != nil {
		return nil
	}

	switch a.config.Repository.Type {
	case config.RepositoryInMemory:
		logger.Info("Repository: Используется хранилище в памяти")
		a.repository = inmemory.NewTaskStorage()
		return nil

	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolOptions{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)

		if a.config.Database.Migrate {
			if err := storage.Migrate(ctx); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}

		a.repository = storage
		return nil

	default:
		return fmt.Errorf("неизвестный тип репозитория: %s", a.config.Repository.Type)
	}
}

func (a *App) initQueue(ctx context.Context) error {
	if a.notifier != nil {
		return nil
	}

	client, err := redisqueue.NewClient(ctx, a.config.Redis.URL)
	if err != nil {
		return fmt.Errorf("подключение к redis: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Queue: Ошибка закрытия клиента redis", zap.Error(err))
		}
	})

	a.notifier = redisqueue.New(client, a.config.Redis.QueueKey)
	return nil
}

func (a *App) initRouter() {
	taskHandler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIdHeader},
		ExposedHeaders: []string{middleware.RequestIdHeader},
		MaxAge:         300,
	}))

	r.Route("/tasks", taskHandler.Routes)

	r.Get("/health", taskHandler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	a.router = r
}

// LoggerOptions общие для API и воркера
func LoggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	}
}
