// internal/generation/orchestrator_test.go
package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/listing-studio/internal/models"
)

type OrchestratorTestSuite struct {
	suite.Suite
	store    *memoryStore
	registry *Registry
	product  ProductContext
	video    *recordingVideo
	clients  Clients
	cfg      Config
}

func (suite *OrchestratorTestSuite) SetupTest() {
	suite.store = newMemoryStore()
	suite.registry = NewRegistry()
	suite.product = ProductContext{ID: uuid.New(), Name: "Widget"}
	suite.video = &recordingVideo{err: errUnavailable}
	suite.clients = Clients{
		Research: researchDown(),
		Copy:     widgetCopy(),
		Image:    imagesOK(),
		Video:    suite.video,
	}
	suite.cfg = DefaultConfig()
}

func (suite *OrchestratorTestSuite) key() models.ListingKey {
	return models.ListingKey{ProductID: suite.product.ID, Channel: models.ChannelGeneric}
}

func (suite *OrchestratorTestSuite) request() Request {
	return Request{Product: suite.product, Channel: models.ChannelGeneric, CompanyID: uuid.New(), UserID: uuid.New()}
}

func (suite *OrchestratorTestSuite) begin(guards ...Guard) (*Run, context.Context) {
	run, ctx, err := suite.registry.Begin(context.Background(), suite.key(), uuid.New(), guards...)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { suite.registry.End(run) })
	return run, ctx
}

func (suite *OrchestratorTestSuite) execute(opts ...Option) (*Run, *Outcome, error) {
	run, ctx := suite.begin()
	out, err := NewOrchestrator(suite.clients, suite.store, suite.cfg, opts...).Run(ctx, run, suite.request())
	return run, out, err
}

func (suite *OrchestratorTestSuite) listing() *models.Listing {
	l, err := suite.store.GetListing(context.Background(), suite.key())
	suite.Require().NoError(err)
	return l
}

func (suite *OrchestratorTestSuite) TestCopyOnlyRunCompletes() {
	suite.clients.Image = imagesFailing("hero", "lifestyle", "closeup", "flatlay", "inuse", "frame-hero", "frame-lifestyle")

	run, out, err := suite.execute()
	suite.Require().NoError(err)

	l := suite.listing()
	suite.Equal("Widget Pro", l.Title)
	suite.Equal([]string{"fast", "durable"}, []string(l.BulletPoints))
	suite.Equal("<p>desc</p>", l.Description)
	suite.Equal([]string{"widget"}, []string(l.SearchKeywords))
	suite.Nil(l.HeroImageURL)
	suite.Nil(l.VideoURL)
	suite.Empty(l.GalleryURLs)
	suite.Empty(l.VideoReferenceFrameURLs)

	suite.True(out.Summary.CopyGenerated)
	suite.Equal(0, out.Summary.ImageCount())
	suite.False(out.Summary.VideoGenerated)
	suite.True(out.Summary.ResearchFromCatalog)
	suite.Equal("Listing complete! 0 images + copy generated", out.Message)
	suite.Empty(suite.video.calls, "video needs a reference image")

	snap := run.Progress.Read()
	suite.Equal(PhaseDone, snap.Phase)
	suite.Equal(StatusDone, snap.Status)
	suite.Equal(100, snap.Progress)
	suite.Equal("Your listing is ready!", snap.StepLabel)
	suite.Len(suite.store.writes(), 1)
}

func (suite *OrchestratorTestSuite) TestCopyFailureAbortsWithoutWriting() {
	suite.clients.Copy = copyFunc(func(context.Context, CopyRequest) (*CopyResult, error) {
		return nil, errUnavailable
	})
	images := 0
	suite.clients.Image = imageFunc(func(context.Context, ImageRequest) (*ImageResult, error) {
		images++
		return &ImageResult{URL: "x"}, nil
	})

	run, out, err := suite.execute()
	suite.Nil(out)
	suite.ErrorIs(err, ErrCopyFailed)
	suite.Empty(suite.store.writes())
	suite.Zero(images)

	snap := run.Progress.Read()
	suite.Equal(StatusFailed, snap.Status)
	suite.Equal(PhaseCopy, snap.Phase)
	suite.NotEmpty(snap.Error)
}

func (suite *OrchestratorTestSuite) TestEmptyCopyIsFatal() {
	suite.clients.Copy = copyFunc(func(context.Context, CopyRequest) (*CopyResult, error) {
		return &CopyResult{Titles: []string{""}}, nil
	})

	_, _, err := suite.execute()
	suite.ErrorIs(err, ErrCopyFailed)
	suite.Empty(suite.store.writes())
}

func (suite *OrchestratorTestSuite) TestCopyPersistFailureIsFatal() {
	suite.store.failWhen = func(p models.ListingPatch) error {
		if p.Title != nil {
			return errors.New("db down")
		}
		return nil
	}

	run, _, err := suite.execute()
	suite.ErrorIs(err, ErrCopyFailed)
	suite.Equal(StatusFailed, run.Progress.Read().Status)
}

func (suite *OrchestratorTestSuite) TestTitleFallsBackToProductName() {
	suite.clients.Copy = copyFunc(func(context.Context, CopyRequest) (*CopyResult, error) {
		return &CopyResult{Description: "only a description"}, nil
	})

	_, _, err := suite.execute()
	suite.Require().NoError(err)
	suite.Equal("Widget", suite.listing().Title)
}

func (suite *OrchestratorTestSuite) TestFullRunPersistsEveryAsset() {
	suite.video.err = nil
	suite.video.result = &VideoResult{URL: "https://cdn.test/video.mp4"}
	notifier := &recordingNotifier{}
	library := &recordingLibrary{}
	productSync := &recordingSync{}

	_, out, err := suite.execute(
		WithFinalizer(NewFinalizer(suite.store, notifier, nil)),
		WithContentLibrary(library),
		WithProductSync(productSync),
	)
	suite.Require().NoError(err)

	l := suite.listing()
	suite.Equal(imageURL("hero"), models.StringValue(l.HeroImageURL))
	suite.Equal([]string{imageURL("lifestyle"), imageURL("closeup"), imageURL("flatlay"), imageURL("inuse")}, []string(l.GalleryURLs))
	suite.Equal([]string{imageURL("frame-hero"), imageURL("frame-lifestyle")}, []string(l.VideoReferenceFrameURLs))
	suite.Equal("https://cdn.test/video.mp4", models.StringValue(l.VideoURL))

	suite.Require().Len(suite.video.calls, 1)
	suite.Equal(imageURL("frame-hero"), suite.video.calls[0].ReferenceImageURL)
	suite.Equal(AspectWide, suite.video.calls[0].AspectRatio)
	suite.Equal(6, suite.video.calls[0].DurationSeconds)

	suite.Equal(7, out.Summary.ImageCount())
	suite.Equal("Listing complete! 7 images + copy + video generated", out.Message)
	suite.Equal("https://cdn.test/video.mp4", out.Snapshot.VideoURL)
	suite.Len(out.Snapshot.GalleryImages, 4)
	suite.Len(out.Snapshot.VideoFrames, 2)

	suite.Require().Len(notifier.completions, 1)
	suite.Equal("Widget Pro", notifier.completions[0].Title)
	suite.Equal(out.Message, notifier.completions[0].Message)
	suite.Len(library.assets, 8)
	suite.Equal(1, productSync.calls)
	suite.Equal(imageURL("hero"), productSync.heroURL)
	suite.Len(productSync.images, 6)
}

func (suite *OrchestratorTestSuite) TestPartialGalleryKeepsSceneOrder() {
	suite.clients.Image = imagesFailing("closeup")

	_, out, err := suite.execute()
	suite.Require().NoError(err)

	suite.Equal([]string{imageURL("lifestyle"), imageURL("flatlay"), imageURL("inuse")}, []string(suite.listing().GalleryURLs))
	suite.Equal(3, out.Summary.GalleryCount)
	suite.Equal(4, out.Snapshot.GalleryTotal)
}

func (suite *OrchestratorTestSuite) TestRerunOverwritesHeroAndAppendsGallery() {
	old := "https://cdn.test/old-hero.png"
	existing := &models.Listing{
		ProductID:    suite.product.ID,
		Channel:      models.ChannelGeneric,
		Title:        "Old",
		HeroImageURL: &old,
		GalleryURLs:  []string{"https://cdn.test/old-1.png"},
	}
	suite.store.seed(existing)
	suite.clients.Image = imagesFailing("closeup", "flatlay", "inuse", "frame-hero", "frame-lifestyle")

	_, _, err := suite.execute()
	suite.Require().NoError(err)

	l := suite.listing()
	suite.Equal("Widget Pro", l.Title)
	suite.Equal(imageURL("hero"), models.StringValue(l.HeroImageURL))
	suite.Equal([]string{"https://cdn.test/old-1.png", imageURL("lifestyle")}, []string(l.GalleryURLs))
}

func (suite *OrchestratorTestSuite) TestNoVisualWritesWhenEverythingFails() {
	old := "https://cdn.test/old-hero.png"
	suite.store.seed(&models.Listing{
		ProductID:               suite.product.ID,
		Channel:                 models.ChannelGeneric,
		HeroImageURL:            &old,
		VideoReferenceFrameURLs: []string{"https://cdn.test/old-frame.png"},
	})
	suite.clients.Image = imagesFailing("hero", "lifestyle", "closeup", "flatlay", "inuse", "frame-hero", "frame-lifestyle")

	_, out, err := suite.execute()
	suite.Require().NoError(err)

	l := suite.listing()
	suite.Equal(old, models.StringValue(l.HeroImageURL))
	suite.Equal([]string{"https://cdn.test/old-frame.png"}, []string(l.VideoReferenceFrameURLs))
	suite.False(out.Summary.HeroGenerated)

	suite.Require().Len(suite.video.calls, 1)
	suite.Equal(old, suite.video.calls[0].ReferenceImageURL)
}

func (suite *OrchestratorTestSuite) TestVideoFallsBackToHeroThenCatalog() {
	suite.clients.Image = imagesFailing("frame-hero", "frame-lifestyle")
	_, _, err := suite.execute()
	suite.Require().NoError(err)
	suite.Require().Len(suite.video.calls, 1)
	suite.Equal(imageURL("hero"), suite.video.calls[0].ReferenceImageURL)

	suite.SetupTest()
	suite.product.ReferenceImages = []string{"https://catalog.test/a.jpg", "https://catalog.test/b.jpg"}
	suite.clients.Image = imagesFailing("hero", "lifestyle", "closeup", "flatlay", "inuse", "frame-hero", "frame-lifestyle")
	_, _, err = suite.execute()
	suite.Require().NoError(err)
	suite.Require().Len(suite.video.calls, 1)
	suite.Equal("https://catalog.test/a.jpg", suite.video.calls[0].ReferenceImageURL)
}

func (suite *OrchestratorTestSuite) TestVideoSkippedWithoutReference() {
	run, ctx := suite.begin()
	suite.clients.Video = videoFunc(func(context.Context, VideoRequest) (*VideoResult, error) {
		suite.Fail("video should not be requested")
		return nil, nil
	})
	o := NewOrchestrator(suite.clients, suite.store, suite.cfg)
	st := &runState{run: run, req: suite.request(), log: o.log}

	suite.Require().NoError(o.runVideo(ctx, st))

	snap := run.Progress.Read()
	suite.Equal(PhaseVideo, snap.Phase)
	suite.Equal(90, snap.Progress)
	suite.Equal("Video skipped - images must generate first", snap.StepLabel)
}

func (suite *OrchestratorTestSuite) TestVideoProcessingIsSoftSuccess() {
	suite.video.err = nil
	suite.video.result = &VideoResult{Status: "processing"}

	_, out, err := suite.execute()
	suite.Require().NoError(err)
	suite.True(out.Summary.VideoProcessing)
	suite.False(out.Summary.VideoGenerated)
	suite.Nil(suite.listing().VideoURL)
	suite.Contains(out.Message, "video (processing)")
}

func (suite *OrchestratorTestSuite) TestResearchFallbackFeedsCopy() {
	suite.product.Description = "A sturdy widget"
	suite.product.Category = "Tools"
	var got ResearchResult
	suite.clients.Copy = copyFunc(func(ctx context.Context, req CopyRequest) (*CopyResult, error) {
		got = req.Research
		return widgetCopy()(ctx, req)
	})

	run, _, err := suite.execute()
	suite.Require().NoError(err)
	suite.True(got.FromCatalog)
	suite.Equal("A sturdy widget", got.Summary)
	suite.Equal("Consumers interested in Tools", got.TargetAudience)
	suite.Require().NotNil(run.Progress.Read().Research)
	suite.True(run.Progress.Read().Research.FromCatalog)
}

func (suite *OrchestratorTestSuite) TestResearchResultIsUsed() {
	suite.product.Brand = "Acme"
	suite.product.EAN = "8712345678906"
	var req ResearchRequest
	suite.clients.Research = researchFunc(func(_ context.Context, r ResearchRequest) (*ResearchResult, error) {
		req = r
		return &ResearchResult{Summary: "Market leader", KeyFeatures: []string{"steel"}}, nil
	})

	_, out, err := suite.execute()
	suite.Require().NoError(err)
	suite.Equal("Acme", req.SupplierName)
	suite.Equal("8712345678906", req.EAN)
	suite.False(out.Summary.ResearchFromCatalog)
	suite.Equal("Market leader", out.Snapshot.Research.Summary)
}

func (suite *OrchestratorTestSuite) TestPhasesAndProgressNeverGoBackwards() {
	suite.cfg.ImageConcurrency = 3
	suite.video.err = nil
	suite.video.result = &VideoResult{URL: "https://cdn.test/video.mp4"}
	run, ctx := suite.begin()

	var (
		mu      sync.Mutex
		samples []Snapshot
	)
	sample := func() {
		mu.Lock()
		defer mu.Unlock()
		samples = append(samples, run.Progress.Read())
	}
	clients := suite.clients
	clients.Copy = copyFunc(func(ctx context.Context, req CopyRequest) (*CopyResult, error) {
		sample()
		return widgetCopy()(ctx, req)
	})
	clients.Image = imageFunc(func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
		sample()
		return imagesOK()(ctx, req)
	})
	clients.Video = videoFunc(func(ctx context.Context, req VideoRequest) (*VideoResult, error) {
		sample()
		return suite.video.GenerateVideo(ctx, req)
	})

	out, err := NewOrchestrator(clients, suite.store, suite.cfg).Run(ctx, run, suite.request())
	suite.Require().NoError(err)
	samples = append(samples, out.Snapshot)

	for i := 1; i < len(samples); i++ {
		suite.GreaterOrEqual(samples[i].Phase, samples[i-1].Phase)
		suite.GreaterOrEqual(samples[i].Progress, samples[i-1].Progress)
	}
}

func (suite *OrchestratorTestSuite) TestParallelScenesKeepPromptOrder() {
	suite.cfg.ImageConcurrency = 4
	run, ctx := suite.begin()
	delays := map[string]time.Duration{
		"closeup": 30 * time.Millisecond,
		"flatlay": 20 * time.Millisecond,
		"inuse":   10 * time.Millisecond,
	}
	var midway []MediaItem
	suite.clients.Image = imageFunc(func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
		scene := sceneOf(req.Prompt)
		if scene == "lifestyle" {
			// finish last so every other scene is already published
			suite.Eventually(func() bool {
				return len(run.Progress.Read().GalleryImages) == 3
			}, 2*time.Second, 5*time.Millisecond)
			midway = run.Progress.Read().GalleryImages
		}
		time.Sleep(delays[scene])
		return &ImageResult{URL: imageURL(scene)}, nil
	})

	out, err := NewOrchestrator(suite.clients, suite.store, suite.cfg).Run(ctx, run, suite.request())
	suite.Require().NoError(err)

	ordered := []string{imageURL("lifestyle"), imageURL("closeup"), imageURL("flatlay"), imageURL("inuse")}
	suite.Equal(ordered, []string(suite.listing().GalleryURLs))
	suite.Equal(ordered, mediaURLs(out.Snapshot.GalleryImages))
	suite.Equal(ordered[1:], mediaURLs(midway), "partial snapshot keeps scene order")
}

func mediaURLs(items []MediaItem) []string {
	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	return urls
}

func (suite *OrchestratorTestSuite) TestCancelStopsRun() {
	run, ctx := suite.begin()
	suite.clients.Image = imageFunc(func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
		if sceneOf(req.Prompt) == "hero" {
			suite.registry.Cancel(suite.key())
			<-ctx.Done()
			return nil, ctx.Err()
		}
		suite.Fail("no image after cancel")
		return nil, nil
	})

	_, err := NewOrchestrator(suite.clients, suite.store, suite.cfg).Run(ctx, run, suite.request())
	suite.ErrorIs(err, ErrRunCanceled)
	suite.Equal(StatusCanceled, run.Progress.Read().Status)
	suite.Len(suite.store.writes(), 1, "only the copy write happened")
	suite.Nil(suite.listing().HeroImageURL)
}

func (suite *OrchestratorTestSuite) TestCancelDuringVideoEndsCanceled() {
	run, ctx := suite.begin()
	suite.clients.Video = videoFunc(func(ctx context.Context, _ VideoRequest) (*VideoResult, error) {
		suite.registry.Cancel(suite.key())
		<-ctx.Done()
		return nil, ctx.Err()
	})

	out, err := NewOrchestrator(suite.clients, suite.store, suite.cfg).Run(ctx, run, suite.request())
	suite.Nil(out)
	suite.ErrorIs(err, ErrRunCanceled)
	suite.Equal(StatusCanceled, run.Progress.Read().Status)
	suite.Nil(suite.listing().VideoURL)
	suite.NotNil(suite.listing().HeroImageURL, "work finished before the cancel is kept")
}

func (suite *OrchestratorTestSuite) TestSupersededRunStopsWriting() {
	superseded := false
	run, ctx := suite.begin(func(context.Context) error {
		if superseded {
			return ErrSuperseded
		}
		return nil
	})
	suite.clients.Image = imageFunc(func(ctx context.Context, req ImageRequest) (*ImageResult, error) {
		superseded = true
		return imagesOK()(ctx, req)
	})

	_, err := NewOrchestrator(suite.clients, suite.store, suite.cfg).Run(ctx, run, suite.request())
	suite.ErrorIs(err, ErrSuperseded)
	suite.Equal(StatusFailed, run.Progress.Read().Status)
	suite.Len(suite.store.writes(), 1)
	suite.Nil(suite.listing().HeroImageURL)
}

func (suite *OrchestratorTestSuite) TestMirrorRewritesURLs() {
	_, _, err := suite.execute(WithAssetMirror(prefixMirror{}))
	suite.Require().NoError(err)
	suite.Equal("https://bucket.test/listings/hero.png", models.StringValue(suite.listing().HeroImageURL))

	suite.SetupTest()
	_, _, err = suite.execute(WithAssetMirror(prefixMirror{fail: true}))
	suite.Require().NoError(err)
	suite.Equal(imageURL("hero"), models.StringValue(suite.listing().HeroImageURL))
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func TestSummaryMessage(t *testing.T) {
	assert.Equal(t, "Listing complete! 0 images generated", Summary{}.Message())
	s := Summary{CopyGenerated: true, HeroGenerated: true, GalleryCount: 2, VideoFrameCount: 1, VideoGenerated: true}
	assert.Equal(t, 4, s.ImageCount())
	assert.Equal(t, "Listing complete! 4 images + copy + video generated", s.Message())
}

func TestFallbackResearch(t *testing.T) {
	r := FallbackResearch(ProductContext{Name: "Widget"})
	require.True(t, r.FromCatalog)
	assert.Equal(t, "Using existing product catalog data", r.Summary)
	assert.Equal(t, "General consumers", r.TargetAudience)
	assert.NotNil(t, r.KeyFeatures)
}
