// internal/generation/clients.go
package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/models"
)

// ProductContext carries the catalog fields a run works from.
type ProductContext struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Category        string                 `json:"category"`
	Brand           string                 `json:"brand"`
	Price           float64                `json:"price"`
	Currency        string                 `json:"currency"`
	Tags            []string               `json:"tags"`
	EAN             string                 `json:"ean"`
	ModelNumber     string                 `json:"model_number"`
	Specifications  map[string]interface{} `json:"specifications,omitempty"`
	ReferenceImages []string               `json:"reference_images"`
}

type ResearchRequest struct {
	ProductDescription string `json:"productDescription"`
	EAN                string `json:"extractedEan,omitempty"`
	SupplierName       string `json:"supplierName,omitempty"`
	ModelNumber        string `json:"modelNumber,omitempty"`
}

// ResearchResult is the research context handed to copywriting. The same
// shape is produced from catalog data when research is unavailable.
type ResearchResult struct {
	Summary            string   `json:"summary"`
	ValuePropositions  []string `json:"value_propositions"`
	TargetAudience     string   `json:"target_audience"`
	CompetitorInsights string   `json:"competitor_insights"`
	KeyFeatures        []string `json:"key_features"`
	Sources            []string `json:"sources"`
	Brand              string   `json:"brand,omitempty"`
	Category           string   `json:"category,omitempty"`
	FromCatalog        bool     `json:"from_catalog"`
}

func (r *ResearchResult) usable() bool {
	return r != nil && (r.Summary != "" || len(r.KeyFeatures) > 0 || len(r.ValuePropositions) > 0)
}

type CopyRequest struct {
	Product  ProductContext `json:"product"`
	Channel  models.Channel `json:"channel"`
	Language string         `json:"language"`
	Tone     string         `json:"tone"`
	Research ResearchResult `json:"research_context"`
}

type CopyResult struct {
	Titles         []string `json:"titles"`
	Description    string   `json:"description"`
	BulletPoints   []string `json:"bullet_points"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SearchKeywords []string `json:"search_keywords"`
	ShortTagline   string   `json:"short_tagline,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

func (c *CopyResult) usable() bool {
	if c == nil {
		return false
	}
	return c.Description != "" || c.firstTitle() != ""
}

func (c *CopyResult) firstTitle() string {
	for _, t := range c.Titles {
		if t != "" {
			return t
		}
	}
	return ""
}

type AspectRatio string

const (
	AspectSquare AspectRatio = "1:1"
	AspectWide   AspectRatio = "16:9"
)

// Dimensions returns the pixel size requested for the aspect ratio.
func (a AspectRatio) Dimensions() (int, int) {
	if a == AspectWide {
		return 1280, 720
	}
	return 1024, 1024
}

type ImageRequest struct {
	Prompt          string         `json:"prompt"`
	ReferenceImages []string       `json:"product_images"`
	AspectRatio     AspectRatio    `json:"aspect_ratio"`
	UseCase         string         `json:"use_case"`
	Product         ProductContext `json:"-"`
	CompanyID       uuid.UUID      `json:"company_id"`
	UserID          uuid.UUID      `json:"user_id"`
}

type ImageResult struct {
	URL string `json:"url"`
}

type VideoRequest struct {
	ReferenceImageURL string      `json:"image_url"`
	Prompt            string      `json:"prompt"`
	DurationSeconds   int         `json:"duration_seconds"`
	AspectRatio       AspectRatio `json:"aspect_ratio"`
	CompanyID         uuid.UUID   `json:"company_id"`
	UserID            uuid.UUID   `json:"user_id"`
}

// VideoResult holds either a finished URL or a processing status.
type VideoResult struct {
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}

func (v *VideoResult) Processing() bool {
	return v != nil && v.URL == "" && v.Status == "processing"
}

type ResearchClient interface {
	Research(ctx context.Context, req ResearchRequest) (*ResearchResult, error)
}

type CopywritingClient interface {
	WriteCopy(ctx context.Context, req CopyRequest) (*CopyResult, error)
}

type ImageClient interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

type VideoClient interface {
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error)
}

// Clients groups the four generation endpoints a run depends on.
type Clients struct {
	Research ResearchClient
	Copy     CopywritingClient
	Image    ImageClient
	Video    VideoClient
}

// ListingStore is the durable listing record store keyed on (product, channel).
// GetListing returns models.ErrListingNotFound when no row exists yet.
type ListingStore interface {
	GetListing(ctx context.Context, key models.ListingKey) (*models.Listing, error)
	UpsertListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID, patch models.ListingPatch) (*models.Listing, error)
}

// Asset describes one generated image or video for the content library.
type Asset struct {
	CompanyID   uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Label       string
	Type        models.ContentType
	URL         string
	Prompt      string
}

type ContentLibrary interface {
	SaveAsset(ctx context.Context, asset Asset) error
}

// ProductSync pushes generated media back onto the catalog product.
type ProductSync interface {
	SyncGeneratedMedia(ctx context.Context, productID uuid.UUID, heroURL string, images []models.MediaImage) error
}

// AssetMirror copies a generated asset into owned storage and returns the new URL.
type AssetMirror interface {
	Mirror(ctx context.Context, sourceURL, folder string) (string, error)
}

// Completion is what the finalizer reports once a run reaches done.
type Completion struct {
	RunID     uuid.UUID
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Email     string
	Key       models.ListingKey
	Title     string
	Message   string
	Summary   Summary
}

type Notifier interface {
	NotifyGenerationComplete(ctx context.Context, c Completion) error
}
