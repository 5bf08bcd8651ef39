package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/recastlabs/recast/internal/models"
)

// GormStore implements Store on top of GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateProfile(p *models.Profile) error {
	return s.db.Create(p).Error
}

func (s *GormStore) GetProfile(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *GormStore) ListProfiles() ([]models.Profile, error) {
	var profiles []models.Profile
	if err := s.db.Order("created_at ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *GormStore) SavePlatformConfig(pc *models.PlatformConfig) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "tone", "custom_instructions", "image_width", "image_height",
			"char_limit", "hashtag_min", "hashtag_max", "system_prompt",
			"copy_prompt_template", "example_input", "example_output", "best_time",
			"updated_at",
		}),
	}).Create(pc).Error
}

func (s *GormStore) GetPlatformConfig(profileID uint, platform string) (*models.PlatformConfig, error) {
	var pc models.PlatformConfig
	err := s.db.Where("profile_id = ? AND platform = ?", profileID, platform).First(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (s *GormStore) CreateContentUnit(u *models.ContentUnit) error {
	return s.db.Create(u).Error
}

func (s *GormStore) GetContentUnit(publicID string) (*models.ContentUnit, error) {
	var unit models.ContentUnit
	if err := s.db.Where("public_id = ?", publicID).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

func (s *GormStore) MarkProcessing(unitID uint, now time.Time) error {
	return s.db.Model(&models.ContentUnit{}).
		Where("id = ?", unitID).
		Updates(map[string]interface{}{
			"status":                models.UnitStatusProcessing,
			"error_message":         "",
			"processing_started_at": gorm.Expr("COALESCE(processing_started_at, ?)", now),
		}).Error
}

func (s *GormStore) BeginDispatch(unitID uint, platform string, configVersion int, now time.Time) (int, error) {
	var generation int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PlatformResult
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("content_unit_id = ? AND platform = ?", unitID, platform).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			result := models.PlatformResult{
				ContentUnitID: unitID,
				Platform:      platform,
				Generation:    1,
				Status:        models.ResultStatusDispatched,
				ConfigVersion: configVersion,
				DispatchedAt:  now,
			}
			if err := tx.Create(&result).Error; err != nil {
				return fmt.Errorf("create platform result: %w", err)
			}
			generation = 1
			return nil
		}
		if err != nil {
			return err
		}

		generation = existing.Generation + 1
		return tx.Model(&models.PlatformResult{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"generation":      generation,
				"status":          models.ResultStatusDispatched,
				"generated_copy":  "",
				"hashtags":        models.StringArray{},
				"image_url":       "",
				"user_edited":     false,
				"edited_copy":     "",
				"edited_hashtags": models.StringArray{},
				"hashtags_edited": false,
				"scheduled_for":   nil,
				"published":       false,
				"published_at":    nil,
				"input_tokens":    0,
				"output_tokens":   0,
				"latency_ms":      0,
				"model":           "",
				"config_version":  configVersion,
				"error_message":   "",
				"dispatched_at":   now,
				"completed_at":    nil,
			}).Error
	})
	return generation, err
}

func (s *GormStore) ApplyOutcome(o JobOutcome, now time.Time) (bool, error) {
	status := models.ResultStatusSucceeded
	if !o.Succeeded {
		status = models.ResultStatusFailed
	}

	res := s.db.Model(&models.PlatformResult{}).
		Where("content_unit_id = ? AND platform = ? AND generation = ? AND status = ?",
			o.ContentUnitID, o.Platform, o.Generation, models.ResultStatusDispatched).
		Updates(map[string]interface{}{
			"status":         status,
			"generated_copy": o.Copy,
			"hashtags":       models.StringArray(o.Hashtags),
			"image_url":      o.ImageURL,
			"input_tokens":   o.InputTokens,
			"output_tokens":  o.OutputTokens,
			"latency_ms":     o.LatencyMs,
			"model":          o.Model,
			"error_message":  o.ErrorMessage,
			"completed_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ResultsFor(unitID uint) ([]models.PlatformResult, error) {
	var results []models.PlatformResult
	if err := s.db.Where("content_unit_id = ?", unitID).
		Order("platform ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) GetResult(unitID, resultID uint) (*models.PlatformResult, error) {
	var result models.PlatformResult
	err := s.db.Where("id = ? AND content_unit_id = ?", resultID, unitID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) SaveEdit(resultID uint, editedCopy *string, editedHashtags []string) (*models.PlatformResult, error) {
	updates := map[string]interface{}{"user_edited": true}
	if editedCopy != nil {
		updates["edited_copy"] = *editedCopy
	}
	if editedHashtags != nil {
		updates["edited_hashtags"] = models.StringArray(editedHashtags)
		updates["hashtags_edited"] = true
	}

	if err := s.db.Model(&models.PlatformResult{}).
		Where("id = ?", resultID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var result models.PlatformResult
	if err := s.db.First(&result, resultID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) RecomputeStatus(unitID uint, derive StatusDeriver) (string, error) {
	var status string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var unit models.ContentUnit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&unit, unitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var results []models.PlatformResult
		if err := tx.Where("content_unit_id = ?", unitID).Find(&results).Error; err != nil {
			return err
		}

		derived, errMsg := derive(&unit, results)
		status = derived
		return tx.Model(&models.ContentUnit{}).
			Where("id = ?", unitID).
			Updates(map[string]interface{}{
				"status":        derived,
				"error_message": errMsg,
			}).Error
	})
	return status, err
}

func (s *GormStore) SetSchedule(unitID uint, times map[string]time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for platform, at := range times {
			res := tx.Model(&models.PlatformResult{}).
				Where("content_unit_id = ? AND platform = ? AND status = ?",
					unitID, platform, models.ResultStatusSucceeded).
				Update("scheduled_for", at)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("no successful result for platform %s: %w", platform, ErrNotFound)
			}
		}
		return nil
	})
}

func (s *GormStore) DueResults(now time.Time, limit int) ([]models.PlatformResult, error) {
	var results []models.PlatformResult
	if err := s.db.Where("status = ? AND published = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?",
		models.ResultStatusSucceeded, false, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) MarkPublished(resultID uint, at time.Time) error {
	return s.db.Model(&models.PlatformResult{}).
		Where("id = ? AND published = ?", resultID, false).
		Updates(map[string]interface{}{
			"published":    true,
			"published_at": at,
		}).Error
}
