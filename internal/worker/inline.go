// internal/worker/inline.go
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/generation"
)

var ErrShuttingDown = errors.New("worker is shutting down")

// InlineDispatcher executes runs in goroutines of this process. Runs outlive
// the request that started them and stop when the dispatcher shuts down.
type InlineDispatcher struct {
	exec   Executor
	base   context.Context
	cancel context.CancelFunc
	log    *logrus.Entry

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewInlineDispatcher(exec Executor) *InlineDispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &InlineDispatcher{
		exec:   exec,
		base:   base,
		cancel: cancel,
		log:    logrus.WithField("component", "worker"),
	}
}

func (d *InlineDispatcher) Dispatch(_ context.Context, runID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrShuttingDown
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		log := d.log.WithField("run_id", runID)
		err := d.exec.Execute(d.base, runID)
		switch {
		case err == nil:
			log.Info("Generation run finished")
		case errors.Is(err, generation.ErrRunCanceled), errors.Is(err, generation.ErrSuperseded):
			log.WithError(err).Info("Generation run stopped")
		default:
			log.WithError(err).Error("Generation run failed")
		}
	}()
	return nil
}

// Shutdown stops accepting runs, cancels the ones in flight and waits for
// them until ctx expires.
func (d *InlineDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
