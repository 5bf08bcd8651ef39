package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/store"
)

// EditorService exposes the two mutation paths that bypass the main dispatch
// flow: manual overrides of a stored result, and selective re-dispatch.
type EditorService struct {
	store      store.Store
	logger     *zap.Logger
	dispatcher *Dispatcher
}

func NewEditorService(st store.Store, logger *zap.Logger, dispatcher *Dispatcher) *EditorService {
	return &EditorService{
		store:      st,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// ApplyEdit stores a user override on one platform result. The generated copy
// and hashtags stay untouched for audit; the override flag is set whenever
// either field is supplied. Edited copy is validated against the platform's
// resolved character ceiling. The unit's aggregate status is not affected.
func (e *EditorService) ApplyEdit(publicID string, resultID uint, editedCopy *string, editedHashtags []string) (*models.PlatformResult, error) {
	if editedCopy == nil && editedHashtags == nil {
		return nil, NewCodedError(CodeInvalidRequest, "edit must supply copy or hashtags")
	}

	unit, err := e.store.GetContentUnit(publicID)
	if err != nil {
		return nil, err
	}
	result, err := e.store.GetResult(unit.ID, resultID)
	if err != nil {
		return nil, err
	}

	if editedCopy != nil {
		profile, err := e.store.GetProfile(unit.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		pc, err := e.store.GetPlatformConfig(unit.ProfileID, result.Platform)
		if err != nil {
			return nil, fmt.Errorf("failed to load platform config: %w", err)
		}

		limit := Resolve(profile, pc, result.Platform).CharLimit
		if length := len([]rune(*editedCopy)); length > limit {
			return nil, NewCodedError(CodeCharLimitExceeded,
				"copy is %d characters, %s allows %d", length, result.Platform, limit)
		}
	}

	updated, err := e.store.SaveEdit(result.ID, editedCopy, editedHashtags)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Result edited",
		zap.String("unit", publicID),
		zap.String("platform", result.Platform),
		zap.Uint("result_id", result.ID))
	return updated, nil
}

// Regenerate supersedes the results for exactly the named platforms and
// re-enters the dispatcher for that subset. Untouched platforms keep their
// results; in-flight jobs for other platforms are unaffected.
func (e *EditorService) Regenerate(publicID string, platforms []string) error {
	if len(platforms) == 0 {
		return NewCodedError(CodeInvalidRequest, "no platforms named")
	}

	unit, err := e.store.GetContentUnit(publicID)
	if err != nil {
		return err
	}

	var offenders []string
	for _, platform := range platforms {
		if !unit.TargetPlatforms.Contains(platform) {
			offenders = append(offenders, platform)
		}
	}
	if len(offenders) > 0 {
		return NewCodedError(CodeInvalidPlatforms,
			"not in the unit's target platforms: %s", strings.Join(offenders, ", "))
	}

	e.logger.Info("Regenerating platforms",
		zap.String("unit", publicID),
		zap.Strings("platforms", platforms))
	return e.dispatcher.Dispatch(unit, platforms)
}
