package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/service/generation"
	"github.com/recastlabs/recast/internal/store"
)

const seededPublicID = "11111111-2222-3333-4444-555555555555"

var nowFixed = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

// newSeededStore returns a memory store holding one profile with enabled
// configs for the given platforms and one content unit targeting them.
func newSeededStore(t *testing.T, platforms ...string) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()

	profile := &models.Profile{Name: "acme", ConfigVersion: 1}
	require.NoError(t, st.CreateProfile(profile))

	for _, platform := range platforms {
		require.NoError(t, st.SavePlatformConfig(&models.PlatformConfig{
			ProfileID: profile.ID,
			Platform:  platform,
			Enabled:   true,
		}))
	}

	unit := &models.ContentUnit{
		PublicID:        seededPublicID,
		ProfileID:       profile.ID,
		Title:           "Why Go",
		Body:            "Because it compiles fast.",
		TargetPlatforms: models.StringArray(platforms),
		Status:          models.UnitStatusPending,
	}
	require.NoError(t, st.CreateContentUnit(unit))
	return st
}

func applyOutcome(t *testing.T, st store.Store, unitID uint, platform string, gen int, succeeded bool, errMsg string) {
	t.Helper()
	applied, err := st.ApplyOutcome(store.JobOutcome{
		ContentUnitID: unitID,
		Platform:      platform,
		Generation:    gen,
		Succeeded:     succeeded,
		Copy:          "generated copy for " + platform,
		ErrorMessage:  errMsg,
	}, nowFixed)
	require.NoError(t, err)
	require.True(t, applied)
	_, err = st.RecomputeStatus(unitID, DeriveStatus)
	require.NoError(t, err)
}

// stubGenerator returns canned text per prompt kind and can be told to fail a
// number of times first.
type stubGenerator struct {
	mu       sync.Mutex
	calls    int
	failures int
	failAll  bool
	copyText string
	tagsText string
}

func (g *stubGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (*generation.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failAll || g.failures > 0 {
		if g.failures > 0 {
			g.failures--
		}
		return nil, fmt.Errorf("generation service unavailable")
	}

	text := g.copyText
	if text == "" {
		text = "generated copy"
	}
	// The hashtag prompt is the only one demanding a JSON array.
	if strings.Contains(userPrompt, "JSON array") {
		text = g.tagsText
		if text == "" {
			text = `["GoLang","DevTools"]`
		}
	}
	return &generation.Result{
		Text:         text,
		InputTokens:  100,
		OutputTokens: 20,
		Model:        "stub-model",
	}, nil
}

// stubImages resizes nothing; it echoes a URL carrying the requested
// dimensions and can be told to fail for one height, which lets tests fail a
// single platform through its distinct default image size.
type stubImages struct {
	mu         sync.Mutex
	calls      []string
	failHeight int
}

func (s *stubImages) Transform(ctx context.Context, sourceURL string, width, height int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failHeight != 0 && height == s.failHeight {
		return "", fmt.Errorf("transform rejected %dx%d", width, height)
	}
	url := fmt.Sprintf("https://img.test/%dx%d", width, height)
	s.calls = append(s.calls, url)
	return url, nil
}
