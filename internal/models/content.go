package models

import (
	"time"

	"gorm.io/gorm"
)

// Content unit lifecycle states. Transitions are driven exclusively by the
// status derivation in internal/service; handlers never set these directly.
const (
	UnitStatusPending    = "pending"
	UnitStatusProcessing = "processing"
	UnitStatusComplete   = "complete"
	UnitStatusPartial    = "partial"
	UnitStatusFailed     = "failed"
)

// ContentUnit is one submitted piece of source material. TargetPlatforms is
// fixed at creation and is the universe completeness is measured against.
type ContentUnit struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	PublicID            string         `gorm:"uniqueIndex;not null;size:36" json:"public_id"`
	ProfileID           uint           `gorm:"not null;index" json:"profile_id"`
	Title               string         `gorm:"not null;size:500" json:"title"`
	Body                string         `gorm:"type:text" json:"body"`
	ImageRefs           StringArray    `gorm:"type:text[]" json:"image_refs"`
	TargetPlatforms     StringArray    `gorm:"type:text[];not null" json:"target_platforms"`
	Status              string         `gorm:"size:20;default:'pending'" json:"status"`
	ErrorMessage        string         `gorm:"type:text" json:"error_message"`
	ProcessingStartedAt *time.Time     `json:"processing_started_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Profile Profile          `gorm:"foreignKey:ProfileID" json:"-"`
	Results []PlatformResult `gorm:"foreignKey:ContentUnitID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}
