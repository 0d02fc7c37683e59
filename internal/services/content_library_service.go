// internal/services/content_library_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/models"
	"github.com/javajoker/listing-studio/internal/utils"
)

// ContentLibraryService records every generated asset so it can be reused
// outside the listing it was made for.
type ContentLibraryService struct {
	db *gorm.DB
}

func NewContentLibraryService(db *gorm.DB) *ContentLibraryService {
	return &ContentLibraryService{db: db}
}

func (s *ContentLibraryService) SaveAsset(ctx context.Context, asset generation.Asset) error {
	content := &models.GeneratedContent{
		CompanyID:    asset.CompanyID,
		CreatedBy:    asset.UserID,
		ContentType:  asset.Type,
		Status:       "completed",
		URL:          asset.URL,
		ThumbnailURL: asset.URL,
		Name:         fmt.Sprintf("%s - %s", asset.ProductName, asset.Label),
		GenerationConfig: datatypes.JSONMap{
			"prompt": asset.Prompt,
			"source": "listing_builder",
			"label":  asset.Label,
		},
		Tags: []string{"listing-builder", string(asset.Type)},
	}
	if asset.ProductID != uuid.Nil {
		productID := asset.ProductID
		content.ProductID = &productID
	}

	if err := s.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("failed to save generated content: %w", err)
	}
	return nil
}

var contentSortFields = []string{"created_at", "content_type", "name"}

// ListForProduct returns one page of the library entries of a product.
func (s *ContentLibraryService) ListForProduct(ctx context.Context, companyID, productID uuid.UUID, params utils.PaginationParams) ([]models.GeneratedContent, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.GeneratedContent{}).
		Where("company_id = ? AND product_id = ?", companyID, productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	var contents []models.GeneratedContent
	query = utils.ApplySort(query, params, contentSortFields)
	if err := utils.ApplyPagination(query, params).Find(&contents).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	return contents, total, nil
}
