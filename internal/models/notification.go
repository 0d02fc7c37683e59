// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	CompanyID uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Type      string     `json:"type" gorm:"size:50;not null"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	Message   string     `json:"message" gorm:"type:text"`
	Data      JSONB      `json:"data,omitempty" gorm:"type:jsonb"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
