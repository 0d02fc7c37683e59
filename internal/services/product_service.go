// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/listing-studio/internal/database"
	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/models"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// GetProduct loads a product owned by companyID.
func (s *ProductService) GetProduct(ctx context.Context, companyID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", productID, companyID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// ToProductContext maps the catalog row onto what a generation run reads.
func ToProductContext(p *models.Product) generation.ProductContext {
	description := p.Description
	if description == "" {
		description = p.ShortDescription
	}
	return generation.ProductContext{
		ID:              p.ID,
		Name:            p.Name,
		Description:     description,
		Category:        p.Category,
		Brand:           p.Brand,
		Price:           p.Price,
		Currency:        p.Currency,
		Tags:            []string(p.Tags),
		EAN:             p.EAN,
		ModelNumber:     p.ModelNumber,
		Specifications:  map[string]interface{}(p.Specifications),
		ReferenceImages: p.ReferenceImages(),
	}
}

// SyncGeneratedMedia makes the hero the featured image and appends new images
// to the product gallery, skipping URLs it already has.
func (s *ProductService) SyncGeneratedMedia(ctx context.Context, productID uuid.UUID, heroURL string, images []models.MediaImage) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := map[string]interface{}{}
		if heroURL != "" {
			updates["featured_image"] = datatypes.NewJSONType(&models.MediaImage{
				URL:  heroURL,
				Alt:  product.Name + " - AI generated hero image",
				Type: "image/png",
			})
		}
		if product.AppendGallery(images) > 0 {
			updates["gallery"] = product.Gallery
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product media: %w", err)
		}
		return nil
	})
}

// SyncListingMedia pushes a listing's hero and gallery onto its product.
func (s *ProductService) SyncListingMedia(ctx context.Context, listing *models.Listing) error {
	images := make([]models.MediaImage, 0, len(listing.GalleryURLs))
	for i, url := range listing.GalleryURLs {
		if url == "" {
			continue
		}
		images = append(images, models.MediaImage{URL: url, Alt: fmt.Sprintf("AI-generated image %d", i+1), Type: "image/png"})
	}
	hero := models.StringValue(listing.HeroImageURL)
	if hero == "" && len(images) == 0 {
		return nil
	}
	return s.SyncGeneratedMedia(ctx, listing.ProductID, hero, images)
}
