package service

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recastlabs/recast/internal/models"
)

// MonitoringService records operational errors, metric samples and daily
// stats straight into the database. It is optional plumbing: core services
// hold a nil pointer when running without a database.
type MonitoringService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMonitoringService(db *gorm.DB, logger *zap.Logger) *MonitoringService {
	return &MonitoringService{
		db:     db,
		logger: logger,
	}
}

// ErrorLogOption customizes an error log entry.
type ErrorLogOption func(*models.ErrorLog)

func WithPlatform(platform string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Platform = platform
	}
}

func WithUnit(unitID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.UnitID = &unitID
	}
}

func WithResult(resultID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.ResultID = &resultID
	}
}

func WithContext(data map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(data); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) error {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	return m.db.Create(errorLog).Error
}

func (m *MonitoringService) RecordMetric(name, metricType string, value float64, tags map[string]interface{}) error {
	var tagsJSON string
	if tags != nil {
		if tagsBytes, err := json.Marshal(tags); err == nil {
			tagsJSON = string(tagsBytes)
		}
	}

	metric := &models.MetricsSample{
		MetricName: name,
		MetricType: metricType,
		Value:      value,
		Tags:       tagsJSON,
		Timestamp:  time.Now(),
	}

	return m.db.Create(metric).Error
}

// UpdateSystemStats refreshes today's pipeline-wide counters.
func (m *MonitoringService) UpdateSystemStats() error {
	today := time.Now().Truncate(24 * time.Hour)

	var stats models.SystemStats
	result := m.db.Where("date = ?", today).First(&stats)

	var totalUnits, processingUnits, completeUnits, partialUnits, failedUnits int64
	m.db.Model(&models.ContentUnit{}).Count(&totalUnits)
	m.db.Model(&models.ContentUnit{}).Where("status = ?", models.UnitStatusProcessing).Count(&processingUnits)
	m.db.Model(&models.ContentUnit{}).Where("status = ?", models.UnitStatusComplete).Count(&completeUnits)
	m.db.Model(&models.ContentUnit{}).Where("status = ?", models.UnitStatusPartial).Count(&partialUnits)
	m.db.Model(&models.ContentUnit{}).Where("status = ?", models.UnitStatusFailed).Count(&failedUnits)

	var totalResults, scheduledResults, publishedResults int64
	m.db.Model(&models.PlatformResult{}).Count(&totalResults)
	m.db.Model(&models.PlatformResult{}).Where("scheduled_for IS NOT NULL").Count(&scheduledResults)
	m.db.Model(&models.PlatformResult{}).Where("published = ?", true).Count(&publishedResults)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.SystemStats{
			Date:             today,
			TotalUnits:       int(totalUnits),
			ProcessingUnits:  int(processingUnits),
			CompleteUnits:    int(completeUnits),
			PartialUnits:     int(partialUnits),
			FailedUnits:      int(failedUnits),
			TotalResults:     int(totalResults),
			ScheduledResults: int(scheduledResults),
			PublishedResults: int(publishedResults),
		}
		return m.db.Create(&stats).Error
	}

	return m.db.Model(&stats).Updates(map[string]interface{}{
		"total_units":       totalUnits,
		"processing_units":  processingUnits,
		"complete_units":    completeUnits,
		"partial_units":     partialUnits,
		"failed_units":      failedUnits,
		"total_results":     totalResults,
		"scheduled_results": scheduledResults,
		"published_results": publishedResults,
	}).Error
}

// UpdatePlatformStats refreshes today's per-platform job counters.
func (m *MonitoringService) UpdatePlatformStats() error {
	today := time.Now().Truncate(24 * time.Hour)

	for _, platform := range SupportedPlatforms() {
		var stats models.PlatformStats
		result := m.db.Where("date = ? AND platform = ?", today, platform).First(&stats)

		var totalJobs, succeededJobs, failedJobs, inFlightJobs int64
		m.db.Model(&models.PlatformResult{}).Where("platform = ?", platform).Count(&totalJobs)
		m.db.Model(&models.PlatformResult{}).Where("platform = ? AND status = ?", platform, models.ResultStatusSucceeded).Count(&succeededJobs)
		m.db.Model(&models.PlatformResult{}).Where("platform = ? AND status = ?", platform, models.ResultStatusFailed).Count(&failedJobs)
		m.db.Model(&models.PlatformResult{}).Where("platform = ? AND status = ?", platform, models.ResultStatusDispatched).Count(&inFlightJobs)

		var avgLatency float64
		m.db.Model(&models.PlatformResult{}).
			Where("platform = ? AND status = ?", platform, models.ResultStatusSucceeded).
			Select("COALESCE(AVG(latency_ms), 0)").
			Scan(&avgLatency)

		var lastSuccess, lastFailure models.PlatformResult
		m.db.Where("platform = ? AND status = ?", platform, models.ResultStatusSucceeded).Order("completed_at desc").First(&lastSuccess)
		m.db.Where("platform = ? AND status = ?", platform, models.ResultStatusFailed).Order("completed_at desc").First(&lastFailure)

		if result.Error == gorm.ErrRecordNotFound {
			stats = models.PlatformStats{
				Date:          today,
				Platform:      platform,
				TotalJobs:     int(totalJobs),
				SucceededJobs: int(succeededJobs),
				FailedJobs:    int(failedJobs),
				InFlightJobs:  int(inFlightJobs),
				AvgLatencyMs:  avgLatency,
			}
			if lastSuccess.ID != 0 {
				stats.LastSuccessAt = lastSuccess.CompletedAt
			}
			if lastFailure.ID != 0 {
				stats.LastFailureAt = lastFailure.CompletedAt
			}
			if err := m.db.Create(&stats).Error; err != nil {
				return err
			}
			continue
		}

		updates := map[string]interface{}{
			"total_jobs":     totalJobs,
			"succeeded_jobs": succeededJobs,
			"failed_jobs":    failedJobs,
			"in_flight_jobs": inFlightJobs,
			"avg_latency_ms": avgLatency,
		}
		if lastSuccess.ID != 0 {
			updates["last_success_at"] = lastSuccess.CompletedAt
		}
		if lastFailure.ID != 0 {
			updates["last_failure_at"] = lastFailure.CompletedAt
		}
		if err := m.db.Model(&stats).Updates(updates).Error; err != nil {
			return err
		}
	}

	return nil
}

// CleanupOldData removes stats, metrics and resolved errors older than the
// retention window.
func (m *MonitoringService) CleanupOldData(daysToKeep int) error {
	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)

	if err := m.db.Where("timestamp < ?", cutoffDate).Delete(&models.MetricsSample{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup metrics samples: %w", err)
	}
	if err := m.db.Where("date < ?", cutoffDate).Delete(&models.SystemStats{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup system stats: %w", err)
	}
	if err := m.db.Where("date < ?", cutoffDate).Delete(&models.PlatformStats{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup platform stats: %w", err)
	}
	if err := m.db.Where("created_at < ? AND resolved = ?", cutoffDate, true).Delete(&models.ErrorLog{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup resolved errors: %w", err)
	}

	return nil
}
