package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds the author-level defaults that platform configs inherit from.
type Profile struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"uniqueIndex;not null;size:200" json:"name"`
	GlobalTone         string         `gorm:"size:500" json:"global_tone"`
	TargetAudience     string         `gorm:"size:500" json:"target_audience"`
	CustomInstructions string         `gorm:"type:text" json:"custom_instructions"`
	Keywords           StringArray    `gorm:"type:text[]" json:"keywords"`
	DoList             StringArray    `gorm:"type:text[]" json:"do_list"`
	DontList           StringArray    `gorm:"type:text[]" json:"dont_list"`
	SystemPrompt       string         `gorm:"type:text" json:"system_prompt"`
	CopyPromptTemplate string         `gorm:"type:text" json:"copy_prompt_template"`
	ExampleInput       string         `gorm:"type:text" json:"example_input"`
	ExampleOutput      string         `gorm:"type:text" json:"example_output"`
	ConfigVersion      int            `gorm:"default:1" json:"config_version"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// PlatformConfig carries the per-platform overrides for one profile.
// Zero values mean "inherit from the profile or the system defaults".
type PlatformConfig struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ProfileID          uint      `gorm:"not null;index;uniqueIndex:idx_profile_platform" json:"profile_id"`
	Platform           string    `gorm:"not null;size:100;uniqueIndex:idx_profile_platform" json:"platform"`
	Enabled            bool      `gorm:"default:true" json:"enabled"`
	Tone               string    `gorm:"size:500" json:"tone"`
	CustomInstructions string    `gorm:"type:text" json:"custom_instructions"`
	ImageWidth         int       `json:"image_width"`
	ImageHeight        int       `json:"image_height"`
	CharLimit          int       `json:"char_limit"`
	HashtagMin         int       `json:"hashtag_min"`
	HashtagMax         int       `json:"hashtag_max"`
	SystemPrompt       string    `gorm:"type:text" json:"system_prompt"`
	CopyPromptTemplate string    `gorm:"type:text" json:"copy_prompt_template"`
	ExampleInput       string    `gorm:"type:text" json:"example_input"`
	ExampleOutput      string    `gorm:"type:text" json:"example_output"`
	BestTime           string    `gorm:"size:5" json:"best_time"` // "HH:MM" 24h clock
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Profile Profile `gorm:"foreignKey:ProfileID" json:"-"`
}
