package service

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/store"
)

// SubmitRequest is one content unit as submitted by a client.
type SubmitRequest struct {
	ProfileID       uint     `json:"profile_id" binding:"required"`
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	ImageRefs       []string `json:"image_refs"`
	TargetPlatforms []string `json:"target_platforms"`
}

// IntakeService validates submissions and hands accepted units to the
// dispatcher. Validation and configuration errors are rejected here,
// synchronously; anything past this point only ever surfaces as a
// per-platform failure.
type IntakeService struct {
	store      store.Store
	logger     *zap.Logger
	dispatcher *Dispatcher
}

func NewIntakeService(st store.Store, logger *zap.Logger, dispatcher *Dispatcher) *IntakeService {
	return &IntakeService{
		store:      st,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Submit validates the request, persists the unit in pending state and
// dispatches one job per target platform. The returned unit is already on its
// way; callers poll for progress.
func (s *IntakeService) Submit(req SubmitRequest) (*models.ContentUnit, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewCodedError(CodeInvalidRequest, "title is required")
	}
	if len(req.TargetPlatforms) == 0 {
		return nil, NewCodedError(CodeInvalidRequest, "at least one target platform is required")
	}

	var unknown []string
	for _, platform := range req.TargetPlatforms {
		if !IsSupportedPlatform(platform) {
			unknown = append(unknown, platform)
		}
	}
	if len(unknown) > 0 {
		return nil, NewCodedError(CodeInvalidPlatforms, "unsupported platforms: %s", strings.Join(unknown, ", "))
	}

	profile, err := s.store.GetProfile(req.ProfileID)
	if err == store.ErrNotFound {
		return nil, NewCodedError(CodeInvalidRequest, "profile %d not found", req.ProfileID)
	}
	if err != nil {
		return nil, err
	}

	// Every target needs an enabled platform config up front. A disabled or
	// absent config is a configuration error, not a platform job failure.
	for _, platform := range req.TargetPlatforms {
		pc, err := s.store.GetPlatformConfig(profile.ID, platform)
		if err != nil {
			return nil, err
		}
		if pc == nil || !pc.Enabled {
			return nil, NewCodedError(CodeMissingPlatformConfig, "no enabled configuration for platform %s", platform)
		}
	}

	unit := &models.ContentUnit{
		PublicID:        uuid.New().String(),
		ProfileID:       profile.ID,
		Title:           req.Title,
		Body:            req.Body,
		ImageRefs:       req.ImageRefs,
		TargetPlatforms: req.TargetPlatforms,
		Status:          models.UnitStatusPending,
	}
	if err := s.store.CreateContentUnit(unit); err != nil {
		return nil, err
	}

	s.logger.Info("Content unit accepted",
		zap.String("unit", unit.PublicID),
		zap.Uint("profile_id", profile.ID),
		zap.Strings("platforms", unit.TargetPlatforms))

	if err := s.dispatcher.Dispatch(unit, unit.TargetPlatforms); err != nil {
		return nil, err
	}
	return unit, nil
}
