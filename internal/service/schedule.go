package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/store"
)

// Scheduling modes.
const (
	ScheduleModeHeuristic = "heuristic"
	ScheduleModeExplicit  = "explicit"
)

// ScheduledItem is one computed (platform, timestamp) assignment.
type ScheduledItem struct {
	Platform     string    `json:"platform"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ScheduleService computes and persists publish timestamps for a unit's
// successful results. It never publishes; the publish worker picks up due
// rows later.
type ScheduleService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduleService(st store.Store, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule assigns a publish timestamp to every eligible platform of the
// unit. Only platforms with a successful result are eligible; failed ones are
// silently skipped. In explicit mode every eligible platform must have a
// strictly-future override; any violation rejects the whole call and nothing
// is persisted.
func (s *ScheduleService) Schedule(publicID, mode string, overrides map[string]time.Time) ([]ScheduledItem, error) {
	unit, err := s.store.GetContentUnit(publicID)
	if err != nil {
		return nil, err
	}
	if unit.Status != models.UnitStatusComplete && unit.Status != models.UnitStatusPartial {
		return nil, NewCodedError(CodeUnitNotReady,
			"unit is %s, scheduling requires complete or partial", unit.Status)
	}

	results, err := s.store.ResultsFor(unit.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	times := make(map[string]time.Time)

	for _, r := range results {
		if r.Status != models.ResultStatusSucceeded {
			continue
		}

		switch mode {
		case ScheduleModeHeuristic:
			bestTime, err := s.bestTimeFor(unit, r.Platform)
			if err != nil {
				return nil, err
			}
			times[r.Platform] = nextOccurrence(bestTime, now)
		case ScheduleModeExplicit:
			at, ok := overrides[r.Platform]
			if !ok {
				return nil, NewCodedError(CodeMissingSchedule,
					"no timestamp supplied for %s", r.Platform)
			}
			if !at.After(now) {
				return nil, NewCodedError(CodeInvalidSchedule,
					"timestamp for %s is not in the future", r.Platform)
			}
			times[r.Platform] = at
		default:
			return nil, NewCodedError(CodeInvalidRequest, "unknown scheduling mode %q", mode)
		}
	}

	if err := s.store.SetSchedule(unit.ID, times); err != nil {
		return nil, err
	}

	items := make([]ScheduledItem, 0, len(times))
	for _, platform := range unit.TargetPlatforms {
		if at, ok := times[platform]; ok {
			items = append(items, ScheduledItem{Platform: platform, ScheduledFor: at})
		}
	}

	s.logger.Info("Publication scheduled",
		zap.String("unit", publicID),
		zap.String("mode", mode),
		zap.Int("platforms", len(items)))
	return items, nil
}

func (s *ScheduleService) bestTimeFor(unit *models.ContentUnit, platform string) (string, error) {
	profile, err := s.store.GetProfile(unit.ProfileID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	pc, err := s.store.GetPlatformConfig(unit.ProfileID, platform)
	if err != nil {
		return "", fmt.Errorf("failed to load platform config: %w", err)
	}
	return Resolve(profile, pc, platform).BestTime, nil
}

// nextOccurrence maps an "HH:MM" time of day onto today, or tomorrow when
// today's occurrence has already passed.
func nextOccurrence(bestTime string, now time.Time) time.Time {
	parsed, err := time.Parse("15:04", bestTime)
	if err != nil {
		// Malformed best-time values fall back to one hour out.
		return now.Add(time.Hour)
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}
