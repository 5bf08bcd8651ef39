package store

import (
	"errors"
	"time"

	"github.com/recastlabs/recast/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// JobOutcome is what a finished platform job reports to the recorder.
// Generation identifies which dispatch produced it; outcomes carrying a stale
// generation are rejected instead of overwriting a fresher result.
type JobOutcome struct {
	ContentUnitID uint
	Platform      string
	Generation    int
	Succeeded     bool
	Copy          string
	Hashtags      []string
	ImageURL      string
	InputTokens   int64
	OutputTokens  int64
	LatencyMs     int64
	Model         string
	ErrorMessage  string
}

// StatusDeriver computes a unit's aggregate status from its current results.
// Implementations of Store invoke it atomically with respect to result writes.
type StatusDeriver func(unit *models.ContentUnit, results []models.PlatformResult) (status, errorMessage string)

// Store is the durable persistence boundary. Every mutation on content units
// and platform results is a single atomic operation; callers never
// read-modify-write across calls.
type Store interface {
	// Profiles and platform configuration.
	CreateProfile(p *models.Profile) error
	GetProfile(id uint) (*models.Profile, error)
	ListProfiles() ([]models.Profile, error)
	// SavePlatformConfig upserts on (profile, platform).
	SavePlatformConfig(pc *models.PlatformConfig) error
	// GetPlatformConfig returns (nil, nil) when no row exists for the pair.
	GetPlatformConfig(profileID uint, platform string) (*models.PlatformConfig, error)

	// Content units.
	CreateContentUnit(u *models.ContentUnit) error
	GetContentUnit(publicID string) (*models.ContentUnit, error)
	// MarkProcessing sets status to processing and records the processing
	// start timestamp only if it is not already set.
	MarkProcessing(unitID uint, now time.Time) error

	// Platform results.
	//
	// BeginDispatch atomically creates the (unit, platform) result row in
	// dispatched state, or supersedes an existing row in place: generation is
	// incremented and all prior outcome, edit and scheduling fields are
	// cleared. It returns the new generation.
	BeginDispatch(unitID uint, platform string, configVersion int, now time.Time) (int, error)
	// ApplyOutcome records a job outcome. It is a no-op returning false when
	// the outcome's generation no longer matches the stored row, which is how
	// completions from superseded jobs are discarded.
	ApplyOutcome(o JobOutcome, now time.Time) (bool, error)
	ResultsFor(unitID uint) ([]models.PlatformResult, error)
	GetResult(unitID, resultID uint) (*models.PlatformResult, error)
	// SaveEdit stores a user override. Nil copy / nil hashtags mean "leave
	// that field as is"; a non-nil empty hashtag list clears the hashtags
	// and marks them edited. The user-edited flag is always set.
	SaveEdit(resultID uint, editedCopy *string, editedHashtags []string) (*models.PlatformResult, error)

	// RecomputeStatus re-derives the unit's aggregate status from freshly
	// read rows, atomically with respect to concurrent outcome writes, and
	// persists it. It returns the derived status.
	RecomputeStatus(unitID uint, derive StatusDeriver) (string, error)

	// Scheduling and publication.
	//
	// SetSchedule persists one timestamp per platform, all-or-nothing.
	SetSchedule(unitID uint, times map[string]time.Time) error
	DueResults(now time.Time, limit int) ([]models.PlatformResult, error)
	MarkPublished(resultID uint, at time.Time) error
}
