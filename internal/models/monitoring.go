package models

import (
	"time"
)

// SystemStats is a per-day snapshot of overall pipeline health.
type SystemStats struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Date             time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalUnits       int       `gorm:"default:0" json:"total_units"`
	ProcessingUnits  int       `gorm:"default:0" json:"processing_units"`
	CompleteUnits    int       `gorm:"default:0" json:"complete_units"`
	PartialUnits     int       `gorm:"default:0" json:"partial_units"`
	FailedUnits      int       `gorm:"default:0" json:"failed_units"`
	TotalResults     int       `gorm:"default:0" json:"total_results"`
	ScheduledResults int       `gorm:"default:0" json:"scheduled_results"`
	PublishedResults int       `gorm:"default:0" json:"published_results"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PlatformStats is a per-day, per-platform job breakdown.
type PlatformStats struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Date          time.Time  `gorm:"index;not null" json:"date"`
	Platform      string     `gorm:"size:100;not null;index" json:"platform"`
	TotalJobs     int        `gorm:"default:0" json:"total_jobs"`
	SucceededJobs int        `gorm:"default:0" json:"succeeded_jobs"`
	FailedJobs    int        `gorm:"default:0" json:"failed_jobs"`
	InFlightJobs  int        `gorm:"default:0" json:"in_flight_jobs"`
	AvgLatencyMs  float64    `gorm:"default:0" json:"avg_latency_ms"`
	LastSuccessAt *time.Time `json:"last_success_at"`
	LastFailureAt *time.Time `json:"last_failure_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ErrorLog records operational errors for later inspection.
type ErrorLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Level      string     `gorm:"size:20;not null;index" json:"level"`
	Source     string     `gorm:"size:100;not null;index" json:"source"` // dispatcher, recorder, scheduler, publisher
	Platform   string     `gorm:"size:100;index" json:"platform"`
	UnitID     *uint      `gorm:"index" json:"unit_id"`
	ResultID   *uint      `gorm:"index" json:"result_id"`
	Title      string     `gorm:"size:500;not null" json:"title"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Context    string     `gorm:"type:jsonb" json:"context"`
	Resolved   bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// MetricsSample is a single measurement point.
type MetricsSample struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MetricName string    `gorm:"size:100;not null;index" json:"metric_name"`
	MetricType string    `gorm:"size:50;not null" json:"metric_type"` // gauge, counter, histogram
	Value      float64   `gorm:"not null" json:"value"`
	Tags       string    `gorm:"type:jsonb" json:"tags"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
