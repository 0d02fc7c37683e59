// internal/worker/queue.go
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/config"
)

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher hands runs to asynq workers through Redis.
type QueueDispatcher struct {
	client Enqueuer
	queue  string
	log    *logrus.Entry
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewQueueDispatcher(client Enqueuer, cfg config.QueueConfig) *QueueDispatcher {
	return &QueueDispatcher{
		client: client,
		queue:  cfg.Queue,
		log:    logrus.WithField("component", "queue"),
	}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, runID uuid.UUID) error {
	task, err := NewGenerateListingTask(runID, d.queue)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	d.log.WithFields(logrus.Fields{"run_id": runID, "task_id": info.ID, "queue": info.Queue}).Info("Generation run enqueued")
	return nil
}
