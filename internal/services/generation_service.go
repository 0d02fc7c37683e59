// internal/services/generation_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/models"
)

// Dispatcher hands a reserved run to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, runID uuid.UUID) error
}

// Actor is the authenticated caller.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Email     string
}

// RunView is what status reads return: the durable row plus the live snapshot
// when this instance is executing the run.
type RunView struct {
	Run      *models.GenerationRun `json:"run"`
	Snapshot generation.Snapshot   `json:"snapshot"`
	Live     bool                  `json:"live"`
}

const (
	watchPollInterval  = time.Second
	cancelPollInterval = 2 * time.Second
)

type GenerationService struct {
	db           *gorm.DB
	registry     *generation.Registry
	orchestrator *generation.Orchestrator
	products     *ProductService
	dispatcher   Dispatcher
	log          *logrus.Entry
	now          func() time.Time
}

func NewGenerationService(db *gorm.DB, registry *generation.Registry, orchestrator *generation.Orchestrator, products *ProductService) *GenerationService {
	return &GenerationService{
		db:           db,
		registry:     registry,
		orchestrator: orchestrator,
		products:     products,
		log:          logrus.WithField("component", "generation"),
		now:          time.Now,
	}
}

func (s *GenerationService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// Start reserves a run for the listing key and dispatches it.
func (s *GenerationService) Start(ctx context.Context, actor Actor, productID uuid.UUID, channel models.Channel) (*models.GenerationRun, error) {
	if !channel.Valid() {
		return nil, ErrInvalidChannel
	}
	if _, err := s.products.GetProduct(ctx, actor.CompanyID, productID); err != nil {
		return nil, err
	}

	run := &models.GenerationRun{
		ProductID: productID,
		CompanyID: actor.CompanyID,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		Channel:   channel,
		Status:    models.RunStatusQueued,
		Phase:     generation.PhaseResearch.String(),
		StepLabel: "Queued",
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, generation.ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to create generation run: %w", err)
	}

	if err := s.dispatcher.Dispatch(ctx, run.ID); err != nil {
		s.finishRow(context.WithoutCancel(ctx), run.ID, models.RunStatusFailed, generation.Snapshot{
			Phase: generation.PhaseResearch,
			Error: "dispatch failed: " + err.Error(),
		}, nil)
		return nil, fmt.Errorf("failed to dispatch generation run: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"product_id": productID,
		"channel":    channel,
	}).Info("Listing generation queued")
	return run, nil
}

// Execute runs a queued run to completion. Runs that are no longer queued are skipped.
func (s *GenerationService) Execute(ctx context.Context, runID uuid.UUID) error {
	var row models.GenerationRun
	if err := s.db.WithContext(ctx).First(&row, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRunNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	log := s.log.WithFields(logrus.Fields{"run_id": row.ID, "product_id": row.ProductID, "channel": row.Channel})

	started := s.now()
	res := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Where("id = ? AND status = ?", row.ID, models.RunStatusQueued).
		Updates(map[string]interface{}{"status": models.RunStatusRunning, "started_at": started})
	if res.Error != nil {
		return fmt.Errorf("failed to mark run running: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		log.Info("Generation run is no longer queued, skipping")
		return nil
	}

	product, err := s.products.GetProduct(ctx, row.CompanyID, row.ProductID)
	if err != nil {
		s.finishRow(ctx, row.ID, models.RunStatusFailed, generation.Snapshot{Error: err.Error()}, nil)
		return err
	}

	run, runCtx, err := s.registry.Begin(ctx, row.Key(), row.ID, s.rowGuard(row.ID))
	if err != nil {
		s.finishRow(ctx, row.ID, models.RunStatusFailed, generation.Snapshot{Error: err.Error()}, nil)
		return err
	}
	defer s.registry.End(run)

	var wg sync.WaitGroup
	updates, unsubscribe := run.Progress.Subscribe()
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.recordProgress(context.WithoutCancel(ctx), row.ID, updates)
	}()
	watchDone := make(chan struct{})
	go func() {
		defer wg.Done()
		s.watchCancellation(runCtx, row.ID, row.Key(), watchDone)
	}()

	out, runErr := s.orchestrator.Run(runCtx, run, generation.Request{
		Product:   ToProductContext(product),
		Channel:   row.Channel,
		CompanyID: row.CompanyID,
		UserID:    row.UserID,
		Email:     row.UserEmail,
	})

	close(watchDone)
	unsubscribe()
	wg.Wait()

	final := run.Progress.Read()
	finishCtx := context.WithoutCancel(ctx)
	switch {
	case runErr == nil:
		s.finishRow(finishCtx, row.ID, models.RunStatusDone, final, &out.Summary)
	case errors.Is(runErr, generation.ErrRunCanceled):
		s.finishRow(finishCtx, row.ID, models.RunStatusCanceled, final, nil)
	case errors.Is(runErr, generation.ErrSuperseded):
		log.WithError(runErr).Warn("Generation run lost its listing key")
	default:
		s.finishRow(finishCtx, row.ID, models.RunStatusFailed, final, nil)
	}
	return runErr
}

// rowGuard rejects writes once the run row left the running state.
func (s *GenerationService) rowGuard(runID uuid.UUID) generation.Guard {
	return func(ctx context.Context) error {
		status, err := s.runStatusOf(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to check run status: %w", err)
		}
		switch status {
		case models.RunStatusRunning:
			return nil
		case models.RunStatusCanceled:
			return generation.ErrRunCanceled
		default:
			return generation.ErrSuperseded
		}
	}
}

func (s *GenerationService) runStatusOf(ctx context.Context, runID uuid.UUID) (models.RunStatus, error) {
	var row struct{ Status models.RunStatus }
	err := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Select("status").
		Where("id = ?", runID).
		Scan(&row).Error
	return row.Status, err
}

// watchCancellation polls the run row so a cancel issued on another instance stops this run.
func (s *GenerationService) watchCancellation(ctx context.Context, runID uuid.UUID, key models.ListingKey, done <-chan struct{}) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := s.runStatusOf(ctx, runID)
			if err == nil && status == models.RunStatusCanceled {
				s.registry.Cancel(key)
				return
			}
		}
	}
}

func (s *GenerationService) recordProgress(ctx context.Context, runID uuid.UUID, updates <-chan generation.Snapshot) {
	for snap := range updates {
		if snap.Status != generation.StatusRunning {
			continue
		}
		err := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
			Where("id = ? AND status = ?", runID, models.RunStatusRunning).
			Updates(map[string]interface{}{
				"phase":      snap.Phase.String(),
				"progress":   snap.Progress,
				"step_label": snap.StepLabel,
			}).Error
		if err != nil {
			s.log.WithError(err).WithField("run_id", runID).Warn("Failed to record generation progress")
		}
	}
}

func (s *GenerationService) finishRow(ctx context.Context, runID uuid.UUID, status models.RunStatus, snap generation.Snapshot, summary *generation.Summary) {
	finished := s.now()
	updates := map[string]interface{}{
		"status":      status,
		"phase":       snap.Phase.String(),
		"progress":    snap.Progress,
		"step_label":  snap.StepLabel,
		"error":       snap.Error,
		"finished_at": finished,
	}
	if summary != nil {
		if raw, err := json.Marshal(summary); err == nil {
			updates["summary"] = raw
		}
	}

	// a run canceled through the API keeps that status
	err := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Where("id = ? AND status IN ?", runID, []models.RunStatus{models.RunStatusQueued, models.RunStatusRunning}).
		Updates(updates).Error
	if err != nil {
		s.log.WithError(err).WithField("run_id", runID).Error("Failed to finish generation run")
	}
}

// latestRun returns the newest run of the listing key visible to companyID.
func (s *GenerationService) latestRun(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) (*models.GenerationRun, error) {
	var row models.GenerationRun
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND product_id = ? AND channel = ?", companyID, productID, channel).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &row, nil
}

// Status returns the latest run of a listing key.
func (s *GenerationService) Status(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) (*RunView, error) {
	if !channel.Valid() {
		return nil, ErrInvalidChannel
	}
	row, err := s.latestRun(ctx, companyID, productID, channel)
	if err != nil {
		return nil, err
	}

	if snap, ok := s.registry.Snapshot(row.Key()); ok && snap.RunID == row.ID {
		return &RunView{Run: row, Snapshot: snap, Live: true}, nil
	}
	return &RunView{Run: row, Snapshot: SnapshotFromRun(row)}, nil
}

// Watch streams snapshots of the latest run until it reaches a terminal state
// or ctx ends. Runs executing elsewhere are followed by polling the row.
func (s *GenerationService) Watch(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) (<-chan generation.Snapshot, error) {
	view, err := s.Status(ctx, companyID, productID, channel)
	if err != nil {
		return nil, err
	}

	out := make(chan generation.Snapshot, 1)
	if run, ok := s.registry.Active(view.Run.Key()); ok && run.ID == view.Run.ID {
		updates, unsubscribe := run.Progress.Subscribe()
		go func() {
			defer close(out)
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case snap, ok := <-updates:
					if !ok {
						// projector closed; the registry keeps the final snapshot
						if final, found := s.registry.Snapshot(view.Run.Key()); found && final.RunID == view.Run.ID {
							send(ctx, out, final)
						}
						return
					}
					if !send(ctx, out, snap) {
						return
					}
				}
			}
		}()
		return out, nil
	}

	go s.pollRun(ctx, view, out)
	return out, nil
}

func (s *GenerationService) pollRun(ctx context.Context, view *RunView, out chan<- generation.Snapshot) {
	defer close(out)
	if !send(ctx, out, view.Snapshot) || !view.Run.Status.Active() {
		return
	}

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	last := view.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var row models.GenerationRun
			if err := s.db.WithContext(ctx).First(&row, "id = ?", view.Run.ID).Error; err != nil {
				s.log.WithError(err).WithField("run_id", view.Run.ID).Warn("Failed to poll generation run")
				continue
			}
			snap := SnapshotFromRun(&row)
			if snap.Progress != last.Progress || snap.StepLabel != last.StepLabel || snap.Status != last.Status {
				if !send(ctx, out, snap) {
					return
				}
				last = snap
			}
			if !row.Status.Active() {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- generation.Snapshot, snap generation.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

// Cancel stops the active run of a listing key.
func (s *GenerationService) Cancel(ctx context.Context, companyID, productID uuid.UUID, channel models.Channel) error {
	if !channel.Valid() {
		return ErrInvalidChannel
	}
	key := models.ListingKey{ProductID: productID, Channel: channel}

	res := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Where("company_id = ? AND product_id = ? AND channel = ? AND status IN ?",
			companyID, productID, channel, []models.RunStatus{models.RunStatusQueued, models.RunStatusRunning}).
		Updates(map[string]interface{}{
			"status":      models.RunStatusCanceled,
			"error":       generation.ErrRunCanceled.Error(),
			"finished_at": s.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to cancel generation run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}

	s.registry.Cancel(key)
	s.log.WithFields(logrus.Fields{"product_id": productID, "channel": channel}).Info("Listing generation canceled")
	return nil
}

// GenerateSlotImage generates one template slot image for a listing. It holds
// the listing key for its duration, so it cannot overlap a full run.
func (s *GenerationService) GenerateSlotImage(ctx context.Context, actor Actor, productID uuid.UUID, channel models.Channel, slotNumber int) (*generation.SlotOutcome, error) {
	if !channel.Valid() {
		return nil, ErrInvalidChannel
	}
	slot, ok := generation.SlotByNumber(slotNumber)
	if !ok {
		return nil, generation.ErrUnknownSlot
	}
	product, err := s.products.GetProduct(ctx, actor.CompanyID, productID)
	if err != nil {
		return nil, err
	}

	key := models.ListingKey{ProductID: productID, Channel: channel}
	var active int64
	err = s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Where("product_id = ? AND channel = ? AND status IN ?",
			productID, channel, []models.RunStatus{models.RunStatusQueued, models.RunStatusRunning}).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if active > 0 {
		return nil, generation.ErrRunInProgress
	}

	run, runCtx, err := s.registry.Begin(ctx, key, uuid.New())
	if err != nil {
		return nil, err
	}
	defer s.registry.End(run)

	out, err := s.orchestrator.GenerateSlotImage(runCtx, run, generation.Request{
		Product:   ToProductContext(product),
		Channel:   channel,
		CompanyID: actor.CompanyID,
		UserID:    actor.UserID,
		Email:     actor.Email,
	}, slot)
	if err != nil {
		return nil, err
	}

	if out.Listing != nil {
		if err := s.products.SyncListingMedia(ctx, out.Listing); err != nil {
			s.log.WithError(err).WithField("product_id", productID).Warn("Failed to sync slot image to product")
		}
	}
	return out, nil
}

// ReapStale fails active runs whose row has not changed for staleAfter. A
// process that died mid-run otherwise holds its listing key forever.
func (s *GenerationService) ReapStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.GenerationRun{}).
		Where("status IN ? AND updated_at < ?",
			[]models.RunStatus{models.RunStatusQueued, models.RunStatusRunning}, now.Add(-staleAfter)).
		Updates(map[string]interface{}{
			"status":      models.RunStatusFailed,
			"error":       "generation run abandoned",
			"finished_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reap stale runs: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.WithField("count", res.RowsAffected).Warn("Reaped abandoned generation runs")
	}
	return res.RowsAffected, nil
}

// RunReaper calls ReapStale every interval until ctx ends.
func (s *GenerationService) RunReaper(ctx context.Context, interval, staleAfter time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.ReapStale(ctx, staleAfter); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("Stale run reaper failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SnapshotFromRun rebuilds a snapshot from the durable run row.
func SnapshotFromRun(row *models.GenerationRun) generation.Snapshot {
	phase, err := generation.ParsePhase(row.Phase)
	if err != nil {
		phase = generation.PhaseResearch
	}
	snap := generation.Snapshot{
		RunID:         row.ID,
		Phase:         phase,
		Status:        runStatus(row.Status),
		Progress:      row.Progress,
		StepLabel:     row.StepLabel,
		StartTime:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Error:         row.Error,
		GalleryImages: []generation.MediaItem{},
		VideoFrames:   []generation.MediaItem{},
	}
	if row.StartedAt != nil {
		snap.StartTime = *row.StartedAt
	}
	if row.FinishedAt != nil {
		snap.UpdatedAt = *row.FinishedAt
	}
	return snap
}

func runStatus(s models.RunStatus) generation.Status {
	switch s {
	case models.RunStatusDone:
		return generation.StatusDone
	case models.RunStatusFailed:
		return generation.StatusFailed
	case models.RunStatusCanceled:
		return generation.StatusCanceled
	default:
		return generation.StatusRunning
	}
}
