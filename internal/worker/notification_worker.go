package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// RedisQueue is a FIFO of notification jobs stored in a Redis list.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue binds the queue to key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "helpdesk:notifications"
	}
	return &RedisQueue{client: client, key: key}
}

// Enqueue appends job to the tail of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job service.NotificationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

// Dequeue blocks up to timeout for the next job. It returns (nil, nil) on timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*service.NotificationJob, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job service.NotificationJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Len reports the number of queued jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Deliverer sends one notification. Delivery transports are plugged in here.
type Deliverer interface {
	Deliver(ctx context.Context, job service.NotificationJob) error
}

// LogDeliverer writes jobs to the log instead of sending them.
type LogDeliverer struct {
	Logger *zap.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, job service.NotificationJob) error {
	d.Logger.Info("notification delivered",
		zap.String("job_id", job.ID),
		zap.String("event_type", string(job.EventType)),
		zap.String("ticket_id", job.TicketID),
		zap.Strings("to", job.To),
		zap.String("subject", job.Subject),
	)
	return nil
}

// ProcessedRecorder counts worker outcomes.
type ProcessedRecorder interface {
	NotificationProcessed(outcome string)
}

// NotificationWorker drains the notification queue.
type NotificationWorker struct {
	queue     *RedisQueue
	deliverer Deliverer
	metrics   ProcessedRecorder
	logger    *zap.Logger
	poll      time.Duration
}

// NewNotificationWorker creates a worker. A nil metrics recorder is allowed.
func NewNotificationWorker(queue *RedisQueue, deliverer Deliverer, metrics ProcessedRecorder, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{queue: queue, deliverer: deliverer, metrics: metrics, logger: logger, poll: time.Second}
}

// StartNotificationWorker registers notification handlers and starts draining the queue until
// ctx is cancelled. The returned channel closes when the worker has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, worker *NotificationWorker) <-chan struct{} {
	done := make(chan struct{})
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if worker == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()
	return done
}

// Run processes jobs until ctx is done.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopped")
			return
		}
		if _, err := w.ProcessOne(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("notification worker error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.poll):
			}
		}
	}
}

// ProcessOne handles at most one job and reports whether one was found.
func (w *NotificationWorker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.queue.Dequeue(ctx, w.poll)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	if err := w.deliverer.Deliver(ctx, *job); err != nil {
		w.record("failed")
		w.logger.Error("notification delivery failed", zap.String("job_id", job.ID), zap.Error(err))
		return true, nil
	}
	w.record("delivered")
	return true, nil
}

func (w *NotificationWorker) record(outcome string) {
	if w.metrics != nil {
		w.metrics.NotificationProcessed(outcome)
	}
}
