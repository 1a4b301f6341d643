package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"taskReminder/internal/logger"
	"taskReminder/internal/metrics"
	"taskReminder/internal/models/notification"

	"go.uber.org/zap"
)

type State int32

const (
	StateWaiting State = iota
	StateProcessing
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateProcessing:
		return "PROCESSING"
	case StateBackoff:
		return "BACKOFF"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const defaultBackoff = time.Second

// Consumer блокируется до следующего сообщения очереди
type Consumer interface {
	Dequeue(ctx context.Context) ([]byte, error)
}

// Sink - журнал обработанных напоминаний
type Sink interface {
	Append(line string) error
}

// NotificationWorker обрабатывает сообщения строго по одному.
// Упавшее сообщение не возвращается в очередь и не повторяется
type NotificationWorker struct {
	consumer Consumer
	sink     Sink
	backoff  time.Duration
	state    atomic.Int32
	now      func() time.Time
}

func NewNotificationWorker(consumer Consumer, sink Sink, backoff *time.Duration) *NotificationWorker {
	var backoffToSet time.Duration
	if backoff == nil || *backoff <= 0 {
		backoffToSet = defaultBackoff
	} else {
		backoffToSet = *backoff
	}

	return &NotificationWorker{
		consumer: consumer,
		sink:     sink,
		backoff:  backoffToSet,
		now:      time.Now,
	}
}

func (w *NotificationWorker) State() State {
	return State(w.state.Load())
}

// Run работает, пока не отменён ctx
func (w *NotificationWorker) Run(ctx context.Context) {
	logger.Info("Worker: Ожидание напоминаний", zap.Duration("backoff", w.backoff))

	for {
		w.setState(StateWaiting)

		raw, err := w.consumer.Dequeue(ctx)
		if ctx.Err() != nil {
			logger.Info("Worker: Обработка напоминаний останавливается")
			return
		}
		if err != nil {
			logger.Error("Worker: Ошибка чтения из очереди", err)
			metrics.WorkerMessages.WithLabelValues(metrics.ResultFailed).Inc()
			if !w.pause(ctx) {
				return
			}
			continue
		}

		w.setState(StateProcessing)
		if err := w.Process(raw); err != nil {
			logger.Error("Worker: Ошибка обработки напоминания", err, zap.ByteString("payload", raw))
			metrics.WorkerMessages.WithLabelValues(metrics.ResultFailed).Inc()
			if !w.pause(ctx) {
				return
			}
			continue
		}

		metrics.WorkerMessages.WithLabelValues(metrics.ResultProcessed).Inc()
	}
}

// Process разбирает одно сообщение и дописывает строку в журнал
func (w *NotificationWorker) Process(raw []byte) error {
	msg, err := notification.Decode(raw)
	if err != nil {
		return err
	}

	if err := w.sink.Append(msg.LogLine(w.now())); err != nil {
		return fmt.Errorf("запись в журнал: %w", err)
	}

	logger.Info("Worker: Напоминание записано",
		zap.String("task_id", msg.TaskID),
		zap.String("due_date", msg.DueDate))
	return nil
}

// pause возвращает false, если во время паузы пришла остановка
func (w *NotificationWorker) pause(ctx context.Context) bool {
	w.setState(StateBackoff)

	timer := time.NewTimer(w.backoff)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		logger.Info("Worker: Обработка напоминаний останавливается")
		return false
	}
}

func (w *NotificationWorker) setState(s State) {
	w.state.Store(int32(s))
}
