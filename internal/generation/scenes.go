// internal/generation/scenes.go
package generation

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// batch describes one multi-image phase.
type batch struct {
	phase   Phase
	start   int
	band    int
	scenes  []Scene
	aspect  AspectRatio
	publish func(s *Snapshot, items []MediaItem)
}

// generateBatch runs the scenes of b with at most cfg.ImageConcurrency calls in
// flight. Failed scenes are dropped. Both the returned items and every
// published snapshot keep scene order regardless of completion order.
func (o *Orchestrator) generateBatch(ctx context.Context, st *runState, b batch) ([]MediaItem, error) {
	results := make([]*MediaItem, len(b.scenes))

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ImageConcurrency)

	for i, scene := range b.scenes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrRunCanceled, err)
			}

			label := fmt.Sprintf("Creating %s (%d/%d)...", scene.Label, i+1, len(b.scenes))
			st.progress(func(s *Snapshot) { s.StepLabel = label })

			url, err := o.generateImage(gctx, st, scene, b.aspect, "product_variation")
			if err != nil && ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrRunCanceled, ctx.Err())
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				st.log.WithError(err).WithField("scene", scene.Label).Warn("Scene generation failed")
			} else {
				results[i] = &MediaItem{URL: url, Description: scene.Label}
			}
			percent := b.start + b.band*done/len(b.scenes)
			items := completed(results)
			st.progress(func(s *Snapshot) {
				s.Phase = b.phase
				s.Progress = percent
				b.publish(s, items)
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunCanceled, err)
	}

	return completed(results), nil
}

// completed returns the finished items in scene order.
func completed(results []*MediaItem) []MediaItem {
	items := make([]MediaItem, 0, len(results))
	for _, r := range results {
		if r != nil {
			items = append(items, *r)
		}
	}
	return items
}
