package models

import (
	"time"
)

// Platform result states. A row exists from the moment a job is dispatched,
// so "no row" always means "never dispatched" rather than "failed".
const (
	ResultStatusDispatched = "dispatched"
	ResultStatusSucceeded  = "succeeded"
	ResultStatusFailed     = "failed"
)

// PlatformResult is the outcome of one dispatched job for one
// (content unit, platform) pair. Uniqueness on the pair is enforced by the
// store; a re-dispatch supersedes the row in place and bumps Generation so
// late completions from older jobs can be recognized and discarded.
type PlatformResult struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ContentUnitID uint   `gorm:"not null;index;uniqueIndex:idx_unit_platform" json:"content_unit_id"`
	Platform      string `gorm:"not null;size:100;uniqueIndex:idx_unit_platform" json:"platform"`
	Generation    int    `gorm:"not null;default:1" json:"generation"`
	Status        string `gorm:"size:20;not null;default:'dispatched'" json:"status"`

	GeneratedCopy string      `gorm:"type:text" json:"generated_copy"`
	Hashtags      StringArray `gorm:"type:text[]" json:"hashtags"`
	ImageURL      string      `gorm:"size:2000" json:"image_url"`

	UserEdited     bool        `gorm:"default:false" json:"user_edited"`
	EditedCopy     string      `gorm:"type:text" json:"edited_copy"`
	EditedHashtags StringArray `gorm:"type:text[]" json:"edited_hashtags"`
	// HashtagsEdited distinguishes "hashtags cleared to an empty list" from
	// "hashtags never edited"; EditedHashtags alone cannot.
	HashtagsEdited bool `gorm:"default:false" json:"hashtags_edited"`

	ScheduledFor *time.Time `json:"scheduled_for"`
	Published    bool       `gorm:"default:false" json:"published"`
	PublishedAt  *time.Time `json:"published_at"`

	InputTokens   int64  `json:"input_tokens"`
	OutputTokens  int64  `json:"output_tokens"`
	LatencyMs     int64  `json:"latency_ms"`
	Model         string `gorm:"size:100" json:"model"`
	ConfigVersion int    `json:"config_version"`
	ErrorMessage  string `gorm:"type:text" json:"error_message"`

	DispatchedAt time.Time  `json:"dispatched_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Resolved reports whether the job behind this row reached a terminal outcome.
func (r *PlatformResult) Resolved() bool {
	return r.Status == ResultStatusSucceeded || r.Status == ResultStatusFailed
}
