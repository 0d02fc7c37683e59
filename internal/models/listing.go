// internal/models/listing.go
package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrListingNotFound = errors.New("listing not found")

// MaxBulletPoints caps the bullet list of a listing.
const MaxBulletPoints = 5

// Listing is the per-channel content record of a product.
type Listing struct {
	BaseModel
	ProductID               uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_listings_product_channel"`
	CompanyID               uuid.UUID      `json:"company_id" gorm:"type:uuid;not null;index"`
	Channel                 Channel        `json:"channel" gorm:"type:varchar(20);not null;uniqueIndex:idx_listings_product_channel"`
	Title                   string         `json:"title" gorm:"size:500"`
	Description             string         `json:"description" gorm:"type:text"`
	BulletPoints            pq.StringArray `json:"bullet_points" gorm:"type:text[]"`
	SEOTitle                string         `json:"seo_title" gorm:"size:255"`
	SEODescription          string         `json:"seo_description" gorm:"type:text"`
	SearchKeywords          pq.StringArray `json:"search_keywords" gorm:"type:text[]"`
	HeroImageURL            *string        `json:"hero_image_url,omitempty" gorm:"type:text"`
	GalleryURLs             pq.StringArray `json:"gallery_urls" gorm:"type:text[]"`
	VideoReferenceFrameURLs pq.StringArray `json:"video_reference_frame_urls" gorm:"type:text[]"`
	VideoURL                *string        `json:"video_url,omitempty" gorm:"type:text"`
}

// ListingKey identifies a listing row.
type ListingKey struct {
	ProductID uuid.UUID `json:"product_id"`
	Channel   Channel   `json:"channel"`
}

func (k ListingKey) String() string {
	return k.ProductID.String() + "/" + string(k.Channel)
}

// ListingPatch is a partial listing write. Nil fields are left untouched.
type ListingPatch struct {
	Title                   *string
	Description             *string
	BulletPoints            []string
	SEOTitle                *string
	SEODescription          *string
	SearchKeywords          []string
	HeroImageURL            *string
	GalleryURLs             []string
	AppendGalleryURLs       []string
	VideoReferenceFrameURLs []string
	VideoURL                *string
	InsertImage             *ImageInsert
}

// ImageInsert places URL at a 1-based position of the listing's image
// sequence, the hero followed by the gallery.
type ImageInsert struct {
	Position int
	URL      string
}

func (p ListingPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.BulletPoints == nil &&
		p.SEOTitle == nil && p.SEODescription == nil && p.SearchKeywords == nil &&
		p.HeroImageURL == nil && p.GalleryURLs == nil && len(p.AppendGalleryURLs) == 0 &&
		p.VideoReferenceFrameURLs == nil && p.VideoURL == nil && p.InsertImage == nil
}

// ApplyTo merges the patch into l and stamps UpdatedAt.
// GalleryURLs replaces the gallery before AppendGalleryURLs is appended.
func (p ListingPatch) ApplyTo(l *Listing, now time.Time) {
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.BulletPoints != nil {
		l.BulletPoints = CapBulletPoints(p.BulletPoints)
	}
	if p.SEOTitle != nil {
		l.SEOTitle = *p.SEOTitle
	}
	if p.SEODescription != nil {
		l.SEODescription = *p.SEODescription
	}
	if p.SearchKeywords != nil {
		l.SearchKeywords = NormalizeKeywords(p.SearchKeywords)
	}
	if p.HeroImageURL != nil {
		l.HeroImageURL = optionalURL(*p.HeroImageURL)
	}
	if p.GalleryURLs != nil {
		l.GalleryURLs = append(pq.StringArray{}, p.GalleryURLs...)
	}
	if len(p.AppendGalleryURLs) > 0 {
		gallery := make(pq.StringArray, 0, len(l.GalleryURLs)+len(p.AppendGalleryURLs))
		gallery = append(gallery, l.GalleryURLs...)
		l.GalleryURLs = append(gallery, p.AppendGalleryURLs...)
	}
	if p.InsertImage != nil {
		hero, gallery := InsertImage(StringValue(l.HeroImageURL), l.GalleryURLs, p.InsertImage.Position, p.InsertImage.URL)
		l.HeroImageURL = optionalURL(hero)
		l.GalleryURLs = gallery
	}
	if p.VideoReferenceFrameURLs != nil {
		l.VideoReferenceFrameURLs = append(pq.StringArray{}, p.VideoReferenceFrameURLs...)
	}
	if p.VideoURL != nil {
		l.VideoURL = optionalURL(*p.VideoURL)
	}
	l.UpdatedAt = now
}

// InsertImage inserts url at position (1-based) of [hero, gallery...] and
// splits the result back into hero and gallery. Positions past the end append.
func InsertImage(hero string, gallery []string, position int, url string) (string, pq.StringArray) {
	images := make([]string, 0, len(gallery)+2)
	if hero != "" {
		images = append(images, hero)
	}
	for _, u := range gallery {
		if u != "" {
			images = append(images, u)
		}
	}

	at := min(max(position-1, 0), len(images))
	images = slices.Insert(images, at, url)
	return images[0], append(pq.StringArray{}, images[1:]...)
}

// NormalizeKeywords lower-cases and trims keywords, dropping blanks and
// duplicates while keeping first-seen order.
func NormalizeKeywords(keywords []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func CapBulletPoints(points []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
		if len(out) == MaxBulletPoints {
			break
		}
	}
	return out
}

func optionalURL(u string) *string {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil
	}
	return &u
}

// StringValue dereferences an optional column.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
