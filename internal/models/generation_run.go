// internal/models/generation_run.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GenerationRun is the durable record of one listing generation run.
type GenerationRun struct {
	BaseModel
	ProductID  uuid.UUID      `json:"product_id" gorm:"type:uuid;not null;index"`
	CompanyID  uuid.UUID      `json:"company_id" gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID      `json:"user_id" gorm:"type:uuid;not null"`
	UserEmail  string         `json:"-" gorm:"size:255"`
	Channel    Channel        `json:"channel" gorm:"type:varchar(20);not null"`
	Status     RunStatus      `json:"status" gorm:"type:varchar(20);not null;default:'queued';index"`
	Phase      string         `json:"phase" gorm:"type:varchar(20)"`
	Progress   int            `json:"progress" gorm:"default:0"`
	StepLabel  string         `json:"step_label" gorm:"size:255"`
	Error      string         `json:"error,omitempty" gorm:"type:text"`
	Summary    datatypes.JSON `json:"summary,omitempty" gorm:"type:jsonb"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func (r *GenerationRun) Key() ListingKey {
	return ListingKey{ProductID: r.ProductID, Channel: r.Channel}
}
