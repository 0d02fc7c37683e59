// internal/worker/processor.go
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/generation"
)

// Executor runs one reserved generation run.
type Executor interface {
	Execute(ctx context.Context, runID uuid.UUID) error
}

// Processor consumes generation tasks from the queue.
type Processor struct {
	exec Executor
	log  *logrus.Entry
}

func NewProcessor(exec Executor) *Processor {
	return &Processor{exec: exec, log: logrus.WithField("component", "worker")}
}

func NewServer(redis config.RedisConfig, cfg config.QueueConfig) *asynq.Server {
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return asynq.NewServer(RedisOpt(redis), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      logrus.WithField("component", "asynq"),
	})
}

func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateListing, p.HandleGenerateListing)
	return mux
}

func (p *Processor) HandleGenerateListing(ctx context.Context, t *asynq.Task) error {
	runID, err := parseGenerateListing(t)
	if err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	log := p.log.WithField("run_id", runID)
	log.Info("Processing generation run")

	err = p.exec.Execute(ctx, runID)
	switch {
	case err == nil:
		log.Info("Generation run finished")
		return nil
	case errors.Is(err, generation.ErrRunCanceled), errors.Is(err, generation.ErrSuperseded):
		// the run row already records the outcome
		log.WithError(err).Info("Generation run stopped")
		return nil
	default:
		log.WithError(err).Error("Generation run failed")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
}
