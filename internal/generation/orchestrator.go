// internal/generation/orchestrator.go
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/models"
)

// Config tunes a run. Zero timeouts leave the call bounded only by the run context.
type Config struct {
	Language             string
	Tone                 string
	ImageConcurrency     int
	VideoDurationSeconds int
	VideoAspectRatio     AspectRatio
	ResearchTimeout      time.Duration
	CopyTimeout          time.Duration
	ImageTimeout         time.Duration
	VideoTimeout         time.Duration
}

func DefaultConfig() Config {
	return Config{
		Language:             "EN",
		Tone:                 "professional",
		ImageConcurrency:     1,
		VideoDurationSeconds: 6,
		VideoAspectRatio:     AspectWide,
		ResearchTimeout:      60 * time.Second,
		CopyTimeout:          90 * time.Second,
		ImageTimeout:         120 * time.Second,
		VideoTimeout:         300 * time.Second,
	}
}

// Request identifies what a run generates and on whose behalf.
type Request struct {
	Product   ProductContext
	Channel   models.Channel
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Email     string
}

func (r Request) Key() models.ListingKey {
	return models.ListingKey{ProductID: r.Product.ID, Channel: r.Channel}
}

// Summary counts what a run actually produced.
type Summary struct {
	ResearchFromCatalog bool `json:"research_from_catalog"`
	CopyGenerated       bool `json:"copy_generated"`
	HeroGenerated       bool `json:"hero_generated"`
	GalleryCount        int  `json:"gallery_count"`
	VideoFrameCount     int  `json:"video_frame_count"`
	VideoGenerated      bool `json:"video_generated"`
	VideoProcessing     bool `json:"video_processing"`
}

func (s Summary) ImageCount() int {
	n := s.GalleryCount + s.VideoFrameCount
	if s.HeroGenerated {
		n++
	}
	return n
}

// Message is the human-readable completion line, e.g. "Listing complete! 7 images + copy + video generated".
func (s Summary) Message() string {
	parts := []string{fmt.Sprintf("%d images", s.ImageCount())}
	if s.CopyGenerated {
		parts = append(parts, "copy")
	}
	switch {
	case s.VideoGenerated:
		parts = append(parts, "video")
	case s.VideoProcessing:
		parts = append(parts, "video (processing)")
	}
	return "Listing complete! " + strings.Join(parts, " + ") + " generated"
}

// Outcome is returned by a run that reached done.
type Outcome struct {
	Snapshot Snapshot        `json:"snapshot"`
	Summary  Summary         `json:"summary"`
	Message  string          `json:"message"`
	Listing  *models.Listing `json:"listing,omitempty"`
}

// Orchestrator drives a product through research, copy, hero, gallery, video
// frames and video, persisting each phase's output as soon as it exists.
type Orchestrator struct {
	clients   Clients
	store     ListingStore
	cfg       Config
	library   ContentLibrary
	sync      ProductSync
	mirror    AssetMirror
	finalizer *Finalizer
	log       *logrus.Entry
}

type Option func(*Orchestrator)

func WithContentLibrary(l ContentLibrary) Option { return func(o *Orchestrator) { o.library = l } }
func WithProductSync(s ProductSync) Option       { return func(o *Orchestrator) { o.sync = s } }
func WithAssetMirror(m AssetMirror) Option       { return func(o *Orchestrator) { o.mirror = m } }
func WithFinalizer(f *Finalizer) Option          { return func(o *Orchestrator) { o.finalizer = f } }
func WithLogger(l *logrus.Entry) Option          { return func(o *Orchestrator) { o.log = l } }

func NewOrchestrator(clients Clients, store ListingStore, cfg Config, opts ...Option) *Orchestrator {
	if cfg.ImageConcurrency < 1 {
		cfg.ImageConcurrency = 1
	}
	if cfg.VideoAspectRatio == "" {
		cfg.VideoAspectRatio = AspectWide
	}
	o := &Orchestrator{
		clients: clients,
		store:   store,
		cfg:     cfg,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// runState is the bookkeeping of one Run call.
type runState struct {
	run      *Run
	req      Request
	log      *logrus.Entry
	saved    *models.Listing
	research ResearchResult
	prompts  promptContext
	summary  Summary
	heroURL  string
	gallery  []MediaItem
	frames   []MediaItem
}

func (st *runState) progress(fn func(s *Snapshot)) {
	st.run.Progress.Update(fn)
}

func (st *runState) step(phase Phase, percent int, label string) {
	st.progress(func(s *Snapshot) {
		s.Phase = phase
		s.Progress = percent
		s.StepLabel = label
	})
}

// Run executes all phases for req. Only copy failure, cancellation and
// supersession end a run early; they are returned as errors and the snapshot
// is left in a failed or canceled state.
func (o *Orchestrator) Run(ctx context.Context, run *Run, req Request) (*Outcome, error) {
	st := &runState{
		run: run,
		req: req,
		log: o.log.WithFields(logrus.Fields{
			"run_id":     run.ID,
			"product_id": req.Product.ID,
			"channel":    req.Channel,
		}),
	}

	gallery := galleryScenes(newPromptContext(req.Product, ResearchResult{}))
	frames := videoFrameScenes(newPromptContext(req.Product, ResearchResult{}))
	st.progress(func(s *Snapshot) {
		s.Phase = PhaseResearch
		s.Status = StatusRunning
		s.Progress = progressResearchStart
		s.StepLabel = "Researching product..."
		s.GalleryTotal = len(gallery)
		s.VideoFramesTotal = len(frames)
	})
	st.log.Info("Listing generation started")

	existing, err := o.store.GetListing(ctx, run.Key)
	switch {
	case err == nil:
		st.saved = existing
	case !errors.Is(err, models.ErrListingNotFound):
		st.log.WithError(err).Warn("Could not load existing listing")
	}

	if err := o.checkpoint(ctx); err != nil {
		return nil, o.fail(st, err)
	}
	o.runResearch(ctx, st)
	st.prompts = newPromptContext(req.Product, st.research)

	if err := o.checkpoint(ctx); err != nil {
		return nil, o.fail(st, err)
	}
	if err := o.runCopy(ctx, st); err != nil {
		return nil, o.fail(st, err)
	}

	steps := []func(context.Context, *runState) error{
		o.runHero,
		o.runGallery,
		o.runVideoFrames,
		o.runVideo,
	}
	for _, step := range steps {
		if err := o.checkpoint(ctx); err != nil {
			return nil, o.fail(st, err)
		}
		if err := step(ctx, st); err != nil {
			return nil, o.fail(st, err)
		}
	}
	if err := o.checkpoint(ctx); err != nil {
		return nil, o.fail(st, err)
	}

	o.syncProduct(ctx, st)
	return o.complete(ctx, st), nil
}

func (o *Orchestrator) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRunCanceled, err)
	}
	return nil
}

func (o *Orchestrator) fail(st *runState, err error) error {
	status := StatusFailed
	if errors.Is(err, ErrRunCanceled) {
		status = StatusCanceled
	}
	st.progress(func(s *Snapshot) {
		s.Status = status
		s.Error = err.Error()
	})
	st.log.WithError(err).WithField("status", status).Error("Listing generation stopped")
	return err
}

// persist writes patch unless the run lost ownership of its listing key.
func (o *Orchestrator) persist(ctx context.Context, st *runState, patch models.ListingPatch) error {
	if err := st.run.Check(ctx); err != nil {
		return err
	}
	saved, err := o.store.UpsertListing(ctx, st.run.Key, st.req.CompanyID, patch)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	st.saved = saved
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (o *Orchestrator) runResearch(ctx context.Context, st *runState) {
	p := st.req.Product
	callCtx, cancel := withTimeout(ctx, o.cfg.ResearchTimeout)
	defer cancel()

	res, err := o.clients.Research.Research(callCtx, ResearchRequest{
		ProductDescription: strings.TrimSpace(p.Name + " " + p.Description),
		EAN:                p.EAN,
		SupplierName:       p.Brand,
		ModelNumber:        p.ModelNumber,
	})
	if err == nil && !res.usable() {
		err = errors.New("research returned no usable context")
	}

	label := "Research complete!"
	if err != nil {
		st.log.WithError(err).Warn("Research failed, using catalog data")
		fallback := FallbackResearch(p)
		res = &fallback
		label = "Using catalog data"
		st.summary.ResearchFromCatalog = true
	}

	st.research = *res
	st.progress(func(s *Snapshot) {
		s.Phase = PhaseResearch
		s.Progress = progressResearchEnd
		s.StepLabel = label
		s.Research = res
	})
}

// FallbackResearch builds a research context from catalog fields alone.
func FallbackResearch(p ProductContext) ResearchResult {
	summary := p.Description
	if summary == "" {
		summary = "Using existing product catalog data"
	}
	audience := "General consumers"
	if p.Category != "" {
		audience = "Consumers interested in " + p.Category
	}
	return ResearchResult{
		Summary:           summary,
		ValuePropositions: []string{},
		TargetAudience:    audience,
		KeyFeatures:       []string{},
		Sources:           []string{},
		FromCatalog:       true,
	}
}

func (o *Orchestrator) runCopy(ctx context.Context, st *runState) error {
	st.step(PhaseCopy, progressCopyStart, "Crafting research-informed copy...")

	callCtx, cancel := withTimeout(ctx, o.cfg.CopyTimeout)
	defer cancel()

	res, err := o.clients.Copy.WriteCopy(callCtx, CopyRequest{
		Product:  st.req.Product,
		Channel:  st.req.Channel,
		Language: o.cfg.Language,
		Tone:     o.cfg.Tone,
		Research: st.research,
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrRunCanceled, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if !res.usable() {
		return fmt.Errorf("%w: no copy data returned", ErrCopyFailed)
	}

	title := res.firstTitle()
	if title == "" {
		title = st.req.Product.Name
	}
	bullets := append([]string{}, res.BulletPoints...)
	keywords := append([]string{}, res.SearchKeywords...)

	err = o.persist(ctx, st, models.ListingPatch{
		Title:          &title,
		Description:    &res.Description,
		BulletPoints:   bullets,
		SEOTitle:       &res.SEOTitle,
		SEODescription: &res.SEODescription,
		SearchKeywords: keywords,
	})
	if err != nil {
		if isFatal(err) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	st.summary.CopyGenerated = true

	summary := &CopySummary{
		Title:          title,
		AllTitles:      append([]string{}, res.Titles...),
		Description:    res.Description,
		BulletPoints:   bullets,
		SEOTitle:       res.SEOTitle,
		SEODescription: res.SEODescription,
		SearchKeywords: keywords,
		ShortTagline:   res.ShortTagline,
		Reasoning:      res.Reasoning,
	}
	st.progress(func(s *Snapshot) {
		s.Phase = PhaseCopy
		s.Progress = progressCopyEnd
		s.StepLabel = "Copy generated!"
		s.Copy = summary
	})
	return nil
}

func (o *Orchestrator) runHero(ctx context.Context, st *runState) error {
	st.step(PhaseHero, progressHeroStart, "Creating studio hero shot...")

	url, err := o.generateImage(ctx, st, Scene{Label: "Hero Image", Prompt: heroPrompt(st.prompts)}, AspectSquare, "product_variation")
	if err == nil {
		err = o.persist(ctx, st, models.ListingPatch{HeroImageURL: &url})
	}
	if err != nil {
		if isFatal(err) {
			return err
		}
		st.log.WithError(err).Warn("Hero image failed")
		st.step(PhaseHero, progressHeroSkipped, "Hero image skipped")
		return nil
	}

	st.heroURL = url
	st.summary.HeroGenerated = true
	st.progress(func(s *Snapshot) {
		s.Phase = PhaseHero
		s.Progress = progressHeroEnd
		s.StepLabel = "Hero image created!"
		s.HeroImageURL = url
	})
	return nil
}

func (o *Orchestrator) runGallery(ctx context.Context, st *runState) error {
	st.step(PhaseGallery, progressGalleryStart, "Generating lifestyle gallery...")

	items, err := o.generateBatch(ctx, st, batch{
		phase:  PhaseGallery,
		start:  progressGalleryStart,
		band:   progressGalleryBand,
		scenes: galleryScenes(st.prompts),
		aspect: AspectSquare,
		publish: func(s *Snapshot, items []MediaItem) {
			s.GalleryImages = items
		},
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	if err := o.persist(ctx, st, models.ListingPatch{AppendGalleryURLs: urls}); err != nil {
		if isFatal(err) {
			return err
		}
		st.log.WithError(err).Warn("Failed to save gallery images")
		return nil
	}
	st.gallery = items
	st.summary.GalleryCount = len(items)
	return nil
}

func (o *Orchestrator) runVideoFrames(ctx context.Context, st *runState) error {
	st.step(PhaseVideoFrames, progressVideoFramesStart, "Generating cinematic video frames...")

	items, err := o.generateBatch(ctx, st, batch{
		phase:  PhaseVideoFrames,
		start:  progressVideoFramesStart,
		band:   progressVideoFramesBand,
		scenes: videoFrameScenes(st.prompts),
		aspect: AspectWide,
		publish: func(s *Snapshot, items []MediaItem) {
			s.VideoFrames = items
		},
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	if err := o.persist(ctx, st, models.ListingPatch{VideoReferenceFrameURLs: urls}); err != nil {
		if isFatal(err) {
			return err
		}
		st.log.WithError(err).Warn("Failed to save video frames")
		return nil
	}
	st.frames = items
	st.summary.VideoFrameCount = len(items)
	return nil
}

// videoReference prefers a frame from this run, then the listing hero, then the catalog.
func (st *runState) videoReference() string {
	if len(st.frames) > 0 {
		return st.frames[0].URL
	}
	if st.heroURL != "" {
		return st.heroURL
	}
	if st.saved != nil && st.saved.HeroImageURL != nil && *st.saved.HeroImageURL != "" {
		return *st.saved.HeroImageURL
	}
	if len(st.req.Product.ReferenceImages) > 0 {
		return st.req.Product.ReferenceImages[0]
	}
	return ""
}

func (o *Orchestrator) runVideo(ctx context.Context, st *runState) error {
	st.step(PhaseVideo, progressVideoStart, "Preparing product video...")

	ref := st.videoReference()
	if ref == "" {
		st.log.Warn("No reference image available for video, skipping")
		st.step(PhaseVideo, progressVideoSkipped, "Video skipped - images must generate first")
		return nil
	}

	prompt := videoPrompt(st.prompts, st.research)
	callCtx, cancel := withTimeout(ctx, o.cfg.VideoTimeout)
	defer cancel()

	res, err := o.clients.Video.GenerateVideo(callCtx, VideoRequest{
		ReferenceImageURL: ref,
		Prompt:            prompt,
		DurationSeconds:   o.cfg.VideoDurationSeconds,
		AspectRatio:       o.cfg.VideoAspectRatio,
		CompanyID:         st.req.CompanyID,
		UserID:            st.req.UserID,
	})
	if err != nil {
		st.log.WithError(err).Warn("Video generation failed")
		st.step(PhaseVideo, progressVideoSkipped, "Video skipped - check Video Studio later")
		return nil
	}

	switch {
	case res != nil && res.URL != "":
		url := o.mirrorAsset(ctx, st, res.URL, "videos")
		if err := o.persist(ctx, st, models.ListingPatch{VideoURL: &url}); err != nil {
			if isFatal(err) {
				return err
			}
			st.log.WithError(err).Warn("Failed to save video")
			st.step(PhaseVideo, progressVideoSkipped, "Video skipped - check Video Studio later")
			return nil
		}
		st.summary.VideoGenerated = true
		o.saveAsset(ctx, st, Asset{Label: "Product Video", Type: models.ContentTypeVideo, URL: url, Prompt: prompt})
		st.progress(func(s *Snapshot) {
			s.Phase = PhaseVideo
			s.Progress = progressVideoEnd
			s.StepLabel = "Video created!"
			s.VideoURL = url
		})
	case res.Processing():
		st.summary.VideoProcessing = true
		st.step(PhaseVideo, progressVideoSkipped, "Video processing in background...")
	default:
		st.step(PhaseVideo, progressVideoSkipped, "Video generation completed")
	}
	return nil
}

// generateImage runs one image call and returns the URL to persist.
func (o *Orchestrator) generateImage(ctx context.Context, st *runState, scene Scene, aspect AspectRatio, useCase string) (string, error) {
	callCtx, cancel := withTimeout(ctx, o.cfg.ImageTimeout)
	defer cancel()

	refs := st.req.Product.ReferenceImages
	if len(refs) == 0 {
		useCase = "marketing_creative"
	}
	res, err := o.clients.Image.GenerateImage(callCtx, ImageRequest{
		Prompt:          scene.Prompt,
		ReferenceImages: refs,
		AspectRatio:     aspect,
		UseCase:         useCase,
		Product:         st.req.Product,
		CompanyID:       st.req.CompanyID,
		UserID:          st.req.UserID,
	})
	if err != nil {
		return "", err
	}
	if res == nil || res.URL == "" {
		return "", errors.New("no image URL returned")
	}

	url := o.mirrorAsset(ctx, st, res.URL, "listings")
	o.saveAsset(ctx, st, Asset{Label: scene.Label, Type: models.ContentTypeImage, URL: url, Prompt: scene.Prompt})
	return url, nil
}

func (o *Orchestrator) mirrorAsset(ctx context.Context, st *runState, url, folder string) string {
	if o.mirror == nil {
		return url
	}
	mirrored, err := o.mirror.Mirror(ctx, url, folder)
	if err != nil || mirrored == "" {
		st.log.WithError(err).WithField("url", url).Warn("Asset mirroring failed, keeping source URL")
		return url
	}
	return mirrored
}

func (o *Orchestrator) saveAsset(ctx context.Context, st *runState, a Asset) {
	if o.library == nil {
		return
	}
	a.CompanyID = st.req.CompanyID
	a.UserID = st.req.UserID
	a.ProductID = st.req.Product.ID
	a.ProductName = st.req.Product.Name
	if err := o.library.SaveAsset(ctx, a); err != nil {
		st.log.WithError(err).WithField("label", a.Label).Warn("Failed to save asset to library")
	}
}

func (o *Orchestrator) syncProduct(ctx context.Context, st *runState) {
	if o.sync == nil {
		return
	}
	images := make([]models.MediaImage, 0, len(st.gallery)+len(st.frames))
	for i, g := range st.gallery {
		images = append(images, mediaImage(g, fmt.Sprintf("AI-generated gallery image %d", i+1)))
	}
	for i, f := range st.frames {
		images = append(images, mediaImage(f, fmt.Sprintf("Video reference frame %d", i+1)))
	}
	if st.heroURL == "" && len(images) == 0 {
		return
	}
	if err := o.sync.SyncGeneratedMedia(ctx, st.req.Product.ID, st.heroURL, images); err != nil {
		st.log.WithError(err).Warn("Failed to sync generated media to product")
	}
}

func mediaImage(item MediaItem, fallbackAlt string) models.MediaImage {
	alt := item.Description
	if alt == "" {
		alt = fallbackAlt
	}
	return models.MediaImage{URL: item.URL, Alt: alt, Type: "image/png"}
}

func (o *Orchestrator) complete(ctx context.Context, st *runState) *Outcome {
	snap := st.run.Progress.Update(func(s *Snapshot) {
		s.Phase = PhaseDone
		s.Status = StatusDone
		s.Progress = progressDone
		s.StepLabel = "Your listing is ready!"
	})

	outcome := &Outcome{
		Snapshot: snap,
		Summary:  st.summary,
		Message:  st.summary.Message(),
		Listing:  st.saved,
	}
	if o.finalizer != nil {
		if listing := o.finalizer.Finalize(ctx, st.run, st.req, st.summary); listing != nil {
			outcome.Listing = listing
		}
	}

	st.log.WithFields(logrus.Fields{
		"images":  st.summary.ImageCount(),
		"video":   st.summary.VideoGenerated,
		"elapsed": snap.Elapsed(snap.UpdatedAt).String(),
	}).Info("Listing generation completed")
	return outcome
}
