// internal/services/listing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/listing-studio/internal/database"
	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/utils"
)

// ListingService is the keyed listing store. Upserts lock the row so that
// append patches apply against the current gallery.
type ListingService struct {
	db       *gorm.DB
	products *ProductService
	now      func() time.Time
}

type UpdateListingRequest struct {
	Title                   *string  `json:"title,omitempty" validate:"omitempty,max=500"`
	Description             *string  `json:"description,omitempty"`
	BulletPoints            []string `json:"bullet_points,omitempty" validate:"omitempty,max=5,dive,max=500"`
	SEOTitle                *string  `json:"seo_title,omitempty" validate:"omitempty,max=255"`
	SEODescription          *string  `json:"seo_description,omitempty" validate:"omitempty,max=1000"`
	SearchKeywords          []string `json:"search_keywords,omitempty" validate:"omitempty,max=50,dive,max=100"`
	HeroImageURL            *string  `json:"hero_image_url,omitempty" validate:"omitempty,media_url"`
	GalleryURLs             []string `json:"gallery_urls,omitempty" validate:"omitempty,dive,media_url"`
	VideoReferenceFrameURLs []string `json:"video_reference_frame_urls,omitempty" validate:"omitempty,dive,media_url"`
	VideoURL                *string  `json:"video_url,omitempty" validate:"omitempty,media_url"`
}

func (r *UpdateListingRequest) Patch() models.ListingPatch {
	return models.ListingPatch{
		Title:                   r.Title,
		Description:             r.Description,
		BulletPoints:            r.BulletPoints,
		SEOTitle:                r.SEOTitle,
		SEODescription:          r.SEODescription,
		SearchKeywords:          r.SearchKeywords,
		HeroImageURL:            r.HeroImageURL,
		GalleryURLs:             r.GalleryURLs,
		VideoReferenceFrameURLs: r.VideoReferenceFrameURLs,
		VideoURL:                r.VideoURL,
	}
}

// NewListingService builds the store. Manual media edits are mirrored onto
// the product when products is not nil.
func NewListingService(db *gorm.DB, products *ProductService) *ListingService {
	return &ListingService{db: db, products: products, now: time.Now}
}

func (s *ListingService) GetListing(ctx context.Context, key models.ListingKey) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND channel = ?", key.ProductID, key.Channel).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &listing, nil
}

// UpsertListing merges patch into the listing for key, creating the row on first write.
func (s *ListingService) UpsertListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID, patch models.ListingPatch) (*models.Listing, error) {
	var saved models.Listing
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var listing models.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND channel = ?", key.ProductID, key.Channel).
			First(&listing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			listing = models.Listing{ProductID: key.ProductID, CompanyID: companyID, Channel: key.Channel}
			patch.ApplyTo(&listing, s.now())
			// a concurrent first write for the same key turns into a retryable conflict
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&listing)
			if res.Error != nil {
				return fmt.Errorf("failed to create listing: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return errConcurrentCreate
			}
		case err != nil:
			return fmt.Errorf("database error: %w", err)
		default:
			patch.ApplyTo(&listing, s.now())
			if err := tx.Save(&listing).Error; err != nil {
				return fmt.Errorf("failed to update listing: %w", err)
			}
		}

		saved = listing
		return nil
	})
	if errors.Is(err, errConcurrentCreate) {
		return s.UpsertListing(ctx, key, companyID, patch)
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

var errConcurrentCreate = errors.New("listing created concurrently")

// UpdateListing applies a manual edit from the API.
func (s *ListingService) UpdateListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID, req *UpdateListingRequest) (*models.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	patch := req.Patch()
	if patch.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	listing, err := s.UpsertListing(ctx, key, companyID, patch)
	if err != nil {
		return nil, err
	}

	if s.products != nil && (patch.HeroImageURL != nil || patch.GalleryURLs != nil) {
		if err := s.products.SyncListingMedia(ctx, listing); err != nil {
			logrus.WithError(err).WithField("listing", key.String()).Warn("Failed to sync listing media to product")
		}
	}
	return listing, nil
}

// GetCompanyListing reads a listing only when it belongs to companyID.
func (s *ListingService) GetCompanyListing(ctx context.Context, key models.ListingKey, companyID uuid.UUID) (*models.Listing, error) {
	listing, err := s.GetListing(ctx, key)
	if err != nil {
		return nil, err
	}
	if listing.CompanyID != companyID {
		return nil, models.ErrListingNotFound
	}
	return listing, nil
}
