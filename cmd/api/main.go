package main

import (
	"context"
	"log"
	"os"

	"taskReminder/internal/app"
	"taskReminder/internal/config"
	"taskReminder/internal/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфига: %v", err)
	}

	ctx := context.Background()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		log.Fatalf("Ошибка инициализации приложения: %v", err)
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Error("Сервер завершился с ошибкой", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"application": func(ctx context.Context) error {
			logger.Info("Получен сигнал остановки")
			return application.Shutdown(ctx)
		},
	})

	exitCode := <-wait
	os.Exit(exitCode)
}
