package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskReminder/internal/logger"
	"taskReminder/internal/metrics"
	"taskReminder/internal/models/notification"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultKey = "notifications"

const pingTimeout = 5 * time.Second

// Queue - один FIFO список: LPUSH со стороны API, BRPOP со стороны воркера
type Queue struct {
	client redis.UniversalClient
	key    string
}

func New(client redis.UniversalClient, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{client: client, key: key}
}

// NewClient создаёт клиент по REDIS_URL и проверяет соединение
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Error("Queue: Неверный адрес redis", err)
		return nil, fmt.Errorf("разбор адреса redis: %w", err)
	}

	// BRPOP с нулевым таймаутом блокирует соединение сколь угодно долго
	opts.ReadTimeout = -1

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Queue: Redis недоступен", err)
		return nil, fmt.Errorf("проверка соединения redis: %w", err)
	}

	logger.Info("Queue: Подключение к redis установлено", zap.String("addr", opts.Addr))
	return client, nil
}

func (q *Queue) Key() string {
	return q.key
}

func (q *Queue) EnqueueDueSoon(ctx context.Context, msg notification.Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("сериализация напоминания: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		logger.Error("Queue: Не удалось поставить напоминание в очередь", err, zap.String("task_id", msg.TaskID))
		return fmt.Errorf("постановка в очередь %s: %w", q.key, err)
	}

	metrics.NotificationsEnqueued.WithLabelValues(msg.Type).Inc()
	logger.Info("Queue: Напоминание поставлено в очередь", zap.String("task_id", msg.TaskID))
	return nil
}

// Dequeue блокируется до появления сообщения или отмены ctx
func (q *Queue) Dequeue(ctx context.Context) ([]byte, error) {
	for {
		res, err := q.client.BRPop(ctx, 0, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("чтение из очереди %s: %w", q.key, err)
		}

		// ответ BRPOP: [ключ, значение]
		if len(res) != 2 {
			return nil, fmt.Errorf("неожиданный ответ BRPOP: %d элементов", len(res))
		}
		return []byte(res[1]), nil
	}
}

func (q *Queue) HealthCheck(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("проверка соединения redis: %w", err)
	}
	return nil
}
