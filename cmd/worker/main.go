package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"taskReminder/internal/app"
	"taskReminder/internal/config"
	"taskReminder/internal/logger"
	"taskReminder/internal/metrics"
	redisqueue "taskReminder/internal/queue/redis"
	"taskReminder/internal/worker"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфига: %v", err)
	}

	if err := logger.Init(app.LoggerOptions(cfg)); err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := redisqueue.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Error("Worker: Не удалось подключиться к redis", err)
		os.Exit(1)
	}

	queue := redisqueue.New(client, cfg.Redis.QueueKey)
	sink := worker.NewFileLog(cfg.Worker.LogDir)
	backoff := cfg.Worker.Backoff
	notificationWorker := worker.NewNotificationWorker(queue, sink, &backoff)

	var metricsServer *http.Server
	if cfg.Worker.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.Worker.MetricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Worker: Сервер метрик остановлен с ошибкой", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		notificationWorker.Run(ctx)
		close(done)
	}()

	logger.Info("Worker: Запущен",
		zap.String("queue", queue.Key()),
		zap.String("log_file", sink.Path()))

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"worker": func(shutdownCtx context.Context) error {
			cancel()
			// BRPOP не реагирует на отмену контекста, его снимает закрытие клиента
			closeErr := client.Close()

			select {
			case <-done:
			case <-shutdownCtx.Done():
				return shutdownCtx.Err()
			}
			return closeErr
		},
		"metrics": func(shutdownCtx context.Context) error {
			if metricsServer == nil {
				return nil
			}
			return metricsServer.Shutdown(shutdownCtx)
		},
	})

	exitCode := <-wait
	logger.Info("Worker: Остановлен", zap.Int("exit_code", exitCode))
	logger.Sync()
	os.Exit(exitCode)
}
