// internal/generation/fakes_test.go
package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/models"
)

var errUnavailable = errors.New("service unavailable")

type memoryStore struct {
	mu       sync.Mutex
	rows     map[models.ListingKey]*models.Listing
	patches  []models.ListingPatch
	failWhen func(p models.ListingPatch) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[models.ListingKey]*models.Listing)}
}

func (m *memoryStore) GetListing(_ context.Context, key models.ListingKey) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[key]
	if !ok {
		return nil, models.ErrListingNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memoryStore) UpsertListing(_ context.Context, key models.ListingKey, companyID uuid.UUID, patch models.ListingPatch) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWhen != nil {
		if err := m.failWhen(patch); err != nil {
			return nil, err
		}
	}
	row, ok := m.rows[key]
	if !ok {
		row = &models.Listing{ProductID: key.ProductID, Channel: key.Channel, CompanyID: companyID}
		row.ID = uuid.New()
		m.rows[key] = row
	}
	patch.ApplyTo(row, time.Now())
	m.patches = append(m.patches, patch)
	cp := *row
	return &cp, nil
}

func (m *memoryStore) seed(l *models.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[models.ListingKey{ProductID: l.ProductID, Channel: l.Channel}] = l
}

func (m *memoryStore) writes() []models.ListingPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ListingPatch(nil), m.patches...)
}

type researchFunc func(ctx context.Context, req ResearchRequest) (*ResearchResult, error)

func (f researchFunc) Research(ctx context.Context, req ResearchRequest) (*ResearchResult, error) {
	return f(ctx, req)
}

type copyFunc func(ctx context.Context, req CopyRequest) (*CopyResult, error)

func (f copyFunc) WriteCopy(ctx context.Context, req CopyRequest) (*CopyResult, error) {
	return f(ctx, req)
}

type imageFunc func(ctx context.Context, req ImageRequest) (*ImageResult, error)

func (f imageFunc) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	return f(ctx, req)
}

type videoFunc func(ctx context.Context, req VideoRequest) (*VideoResult, error)

func (f videoFunc) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	return f(ctx, req)
}

// sceneOf names the scene an image prompt was built for.
func sceneOf(prompt string) string {
	switch {
	case strings.Contains(prompt, "hero photograph"):
		return "hero"
	case strings.Contains(prompt, "lifestyle photograph"):
		return "lifestyle"
	case strings.Contains(prompt, "extreme close-up"):
		return "closeup"
	case strings.Contains(prompt, "flat-lay"):
		return "flatlay"
	case strings.Contains(prompt, "being used naturally"):
		return "inuse"
	case strings.Contains(prompt, "cinematic opening frame"):
		return "frame-hero"
	case strings.Contains(prompt, "cinematic lifestyle frame"):
		return "frame-lifestyle"
	}
	return "unknown"
}

func imageURL(scene string) string { return "https://cdn.test/" + scene + ".png" }

func imagesOK() imageFunc {
	return func(_ context.Context, req ImageRequest) (*ImageResult, error) {
		return &ImageResult{URL: imageURL(sceneOf(req.Prompt))}, nil
	}
}

func imagesFailing(scenes ...string) imageFunc {
	failing := make(map[string]bool, len(scenes))
	for _, s := range scenes {
		failing[s] = true
	}
	return func(_ context.Context, req ImageRequest) (*ImageResult, error) {
		scene := sceneOf(req.Prompt)
		if failing[scene] {
			return nil, errUnavailable
		}
		return &ImageResult{URL: imageURL(scene)}, nil
	}
}

func researchDown() researchFunc {
	return func(context.Context, ResearchRequest) (*ResearchResult, error) {
		return nil, errUnavailable
	}
}

func widgetCopy() copyFunc {
	return func(context.Context, CopyRequest) (*CopyResult, error) {
		return &CopyResult{
			Titles:         []string{"Widget Pro"},
			Description:    "<p>desc</p>",
			BulletPoints:   []string{"fast", "durable"},
			SEOTitle:       "Widget Pro SEO",
			SEODescription: "...",
			SearchKeywords: []string{"widget"},
		}, nil
	}
}

type recordingVideo struct {
	mu     sync.Mutex
	calls  []VideoRequest
	result *VideoResult
	err    error
}

func (v *recordingVideo) GenerateVideo(_ context.Context, req VideoRequest) (*VideoResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, req)
	return v.result, v.err
}

type recordingNotifier struct {
	mu          sync.Mutex
	completions []Completion
}

func (n *recordingNotifier) NotifyGenerationComplete(_ context.Context, c Completion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, c)
	return nil
}

type recordingLibrary struct {
	mu     sync.Mutex
	assets []Asset
}

func (l *recordingLibrary) SaveAsset(_ context.Context, a Asset) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets = append(l.assets, a)
	return nil
}

type recordingSync struct {
	heroURL string
	images  []models.MediaImage
	calls   int
}

func (s *recordingSync) SyncGeneratedMedia(_ context.Context, _ uuid.UUID, heroURL string, images []models.MediaImage) error {
	s.calls++
	s.heroURL = heroURL
	s.images = images
	return nil
}

type prefixMirror struct{ fail bool }

func (m prefixMirror) Mirror(_ context.Context, sourceURL, folder string) (string, error) {
	if m.fail {
		return "", errUnavailable
	}
	return "https://bucket.test/" + folder + "/" + sourceURL[strings.LastIndex(sourceURL, "/")+1:], nil
}
