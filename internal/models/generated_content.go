// internal/models/generated_content.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// GeneratedContent is a library entry for an AI-generated asset.
type GeneratedContent struct {
	BaseModel
	CompanyID        uuid.UUID         `json:"company_id" gorm:"type:uuid;not null;index"`
	CreatedBy        uuid.UUID         `json:"created_by" gorm:"type:uuid"`
	ProductID        *uuid.UUID        `json:"product_id,omitempty" gorm:"type:uuid;index"`
	ContentType      ContentType       `json:"content_type" gorm:"type:varchar(20);not null"`
	Status           string            `json:"status" gorm:"type:varchar(20);default:'completed'"`
	URL              string            `json:"url" gorm:"type:text;not null"`
	ThumbnailURL     string            `json:"thumbnail_url" gorm:"type:text"`
	Name             string            `json:"name" gorm:"size:255"`
	GenerationConfig datatypes.JSONMap `json:"generation_config" gorm:"type:jsonb"`
	Tags             pq.StringArray    `json:"tags" gorm:"type:text[]"`
}
