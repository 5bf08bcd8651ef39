package service

import (
	"fmt"
	"strings"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/store"
)

// DeriveStatus computes a content unit's aggregate status from its current
// platform results. With T = len(target platforms), R = resolved results and
// S = successes: R < T is processing, R == T is complete / failed / partial
// depending on S. A unit with no dispatch rows at all is still pending. The
// error message is populated only on terminal failed.
//
// The derivation reads nothing but its arguments, so the store can evaluate
// it under any interleaving of job completions and always reach the same
// terminal state.
func DeriveStatus(unit *models.ContentUnit, results []models.PlatformResult) (string, string) {
	if len(results) == 0 {
		return models.UnitStatusPending, ""
	}

	total := len(unit.TargetPlatforms)
	resolved := 0
	succeeded := 0
	var failures []string

	for _, r := range results {
		if !r.Resolved() {
			continue
		}
		resolved++
		if r.Status == models.ResultStatusSucceeded {
			succeeded++
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Platform, r.ErrorMessage))
		}
	}

	if resolved < total {
		return models.UnitStatusProcessing, ""
	}

	switch {
	case succeeded == total:
		return models.UnitStatusComplete, ""
	case succeeded == 0:
		return models.UnitStatusFailed, "all platforms failed: " + strings.Join(failures, "; ")
	default:
		return models.UnitStatusPartial, ""
	}
}

// StatusReport is the poll projection clients consume.
type StatusReport struct {
	Status            string   `json:"status"`
	PlatformsComplete []string `json:"platforms_complete"`
	PlatformsPending  []string `json:"platforms_pending"`
	PlatformsFailed   []string `json:"platforms_failed"`
	ErrorMessage      string   `json:"error_message,omitempty"`
}

// ResultProjection is one platform result as exposed to clients. Copy is nil
// unless the job succeeded.
type ResultProjection struct {
	ID             uint     `json:"id"`
	Platform       string   `json:"platform"`
	Status         string   `json:"status"`
	Copy           *string  `json:"copy"`
	Hashtags       []string `json:"hashtags"`
	ImageURL       string   `json:"image_url,omitempty"`
	UserEdited     bool     `json:"user_edited"`
	EditedCopy     string   `json:"edited_copy,omitempty"`
	EditedHashtags []string `json:"edited_hashtags,omitempty"`
	ScheduledFor   *string  `json:"scheduled_for,omitempty"`
	Published      bool     `json:"published"`
	ErrorMessage   string   `json:"error_message,omitempty"`

	// Metadata is only populated when the caller asks for it.
	Metadata *ResultMetadata `json:"metadata,omitempty"`
}

type ResultMetadata struct {
	InputTokens   int64  `json:"input_tokens"`
	OutputTokens  int64  `json:"output_tokens"`
	LatencyMs     int64  `json:"latency_ms"`
	Model         string `json:"model"`
	Generation    int    `json:"generation"`
	ConfigVersion int    `json:"config_version"`
}

// ResultsReport is the fetch-results projection.
type ResultsReport struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Status          string             `json:"status"`
	TargetPlatforms []string           `json:"target_platforms"`
	Results         []ResultProjection `json:"results"`
}

// StatusService answers the two read paths clients poll.
type StatusService struct {
	store store.Store
}

func NewStatusService(st store.Store) *StatusService {
	return &StatusService{store: st}
}

func (s *StatusService) Poll(publicID string) (*StatusReport, error) {
	unit, err := s.store.GetContentUnit(publicID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ResultsFor(unit.ID)
	if err != nil {
		return nil, err
	}

	byPlatform := make(map[string]models.PlatformResult, len(results))
	for _, r := range results {
		byPlatform[r.Platform] = r
	}

	report := &StatusReport{
		Status:            unit.Status,
		PlatformsComplete: []string{},
		PlatformsPending:  []string{},
		PlatformsFailed:   []string{},
		ErrorMessage:      unit.ErrorMessage,
	}
	for _, platform := range unit.TargetPlatforms {
		switch r, ok := byPlatform[platform]; {
		case ok && r.Status == models.ResultStatusSucceeded:
			report.PlatformsComplete = append(report.PlatformsComplete, platform)
		case ok && r.Status == models.ResultStatusFailed:
			report.PlatformsFailed = append(report.PlatformsFailed, platform)
		default:
			report.PlatformsPending = append(report.PlatformsPending, platform)
		}
	}
	return report, nil
}

func (s *StatusService) Results(publicID string, includeMetadata bool) (*ResultsReport, error) {
	unit, err := s.store.GetContentUnit(publicID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ResultsFor(unit.ID)
	if err != nil {
		return nil, err
	}

	byPlatform := make(map[string]models.PlatformResult, len(results))
	for _, r := range results {
		byPlatform[r.Platform] = r
	}

	report := &ResultsReport{
		ID:              unit.PublicID,
		Title:           unit.Title,
		Status:          unit.Status,
		TargetPlatforms: unit.TargetPlatforms,
		Results:         []ResultProjection{},
	}

	// Projections follow the target-platform order fixed at submission.
	for _, platform := range unit.TargetPlatforms {
		r, ok := byPlatform[platform]
		if !ok {
			continue
		}
		projection := ResultProjection{
			ID:             r.ID,
			Platform:       r.Platform,
			Status:         r.Status,
			Hashtags:       r.Hashtags,
			ImageURL:       r.ImageURL,
			UserEdited:     r.UserEdited,
			EditedCopy:     r.EditedCopy,
			EditedHashtags: r.EditedHashtags,
			Published:      r.Published,
			ErrorMessage:   r.ErrorMessage,
		}
		if r.Status == models.ResultStatusSucceeded {
			generated := r.GeneratedCopy
			projection.Copy = &generated
		}
		if r.ScheduledFor != nil {
			scheduled := r.ScheduledFor.Format("2006-01-02T15:04:05Z07:00")
			projection.ScheduledFor = &scheduled
		}
		if includeMetadata {
			projection.Metadata = &ResultMetadata{
				InputTokens:   r.InputTokens,
				OutputTokens:  r.OutputTokens,
				LatencyMs:     r.LatencyMs,
				Model:         r.Model,
				Generation:    r.Generation,
				ConfigVersion: r.ConfigVersion,
			}
		}
		report.Results = append(report.Results, projection)
	}
	return report, nil
}
