package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/service/generation"
	"github.com/recastlabs/recast/internal/store"
)

func newTestDispatcher(st store.Store, gen generation.Generator, images *stubImages) *Dispatcher {
	logger := zap.NewNop()
	recorder := NewRecorder(st, logger, nil)
	return NewDispatcher(st, logger, gen, images, recorder, DispatcherOptions{
		JobTimeout:     10 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestDispatchAllPlatformsSucceed(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	d := newTestDispatcher(st, &stubGenerator{}, &stubImages{})
	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, models.ResultStatusSucceeded, r.Status)
		assert.Equal(t, "generated copy", r.GeneratedCopy)
		assert.Equal(t, []string{"GoLang", "DevTools"}, []string(r.Hashtags))
		assert.Equal(t, "stub-model", r.Model)
		assert.NotZero(t, r.InputTokens)
	}
}

// One platform failing its image transform must not disturb its siblings; the
// unit lands in partial. Platforms are told apart by their default image
// heights.
func TestDispatchPartialFailureIsConfined(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	unit.ImageRefs = models.StringArray{"https://cdn.test/original.png"}

	images := &stubImages{failHeight: 627} // linkedin's default
	d := newTestDispatcher(st, &stubGenerator{}, images)
	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusPartial, unit.Status)
	assert.Empty(t, unit.ErrorMessage)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	byPlatform := map[string]models.PlatformResult{}
	for _, r := range results {
		byPlatform[r.Platform] = r
	}

	assert.Equal(t, models.ResultStatusSucceeded, byPlatform["twitter"].Status)
	assert.Equal(t, "https://img.test/1200x675", byPlatform["twitter"].ImageURL)
	assert.Equal(t, models.ResultStatusFailed, byPlatform["linkedin"].Status)
	assert.Contains(t, byPlatform["linkedin"].ErrorMessage, "image transform failed")
}

func TestDispatchAllFailedSetsUnitError(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	d := newTestDispatcher(st, &stubGenerator{failAll: true}, &stubImages{})
	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusFailed, unit.Status)
	assert.Contains(t, unit.ErrorMessage, "all platforms failed")
}

func TestDispatchRetriesTransientGenerationFailures(t *testing.T) {
	st := newSeededStore(t, "twitter")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	// Two failures, then success: the third attempt is still allowed.
	gen := &stubGenerator{failures: 2}
	d := newTestDispatcher(st, gen, &stubImages{})
	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)
}

// A hashtag failure degrades to an empty list; the job still succeeds.
func TestDispatchHashtagFailureDegradesToEmpty(t *testing.T) {
	st := newSeededStore(t, "twitter")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	failTags := &tagFailingGenerator{inner: &stubGenerator{}}
	d := newTestDispatcher(st, failTags, &stubImages{})

	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.ResultStatusSucceeded, results[0].Status)
	assert.Empty(t, []string(results[0].Hashtags))
}

func TestRegenerationSupersedesAndStaleOutcomeIsDiscarded(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	gen1, err := st.BeginDispatch(unit.ID, "twitter", 1, nowFixed)
	require.NoError(t, err)
	require.Equal(t, 1, gen1)

	// Regeneration supersedes the row before the first job reports.
	gen2, err := st.BeginDispatch(unit.ID, "twitter", 1, nowFixed)
	require.NoError(t, err)
	require.Equal(t, 2, gen2)

	recorder := NewRecorder(st, zap.NewNop(), nil)

	// The stale generation-1 completion must be dropped on the floor.
	status, err := recorder.Record(store.JobOutcome{
		ContentUnitID: unit.ID,
		Platform:      "twitter",
		Generation:    gen1,
		Succeeded:     true,
		Copy:          "stale copy",
	})
	require.NoError(t, err)
	assert.Empty(t, status)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.ResultStatusDispatched, results[0].Status)
	assert.Empty(t, results[0].GeneratedCopy)

	// The fresh generation-2 completion lands normally.
	_, err = recorder.Record(store.JobOutcome{
		ContentUnitID: unit.ID,
		Platform:      "twitter",
		Generation:    gen2,
		Succeeded:     true,
		Copy:          "fresh copy",
	})
	require.NoError(t, err)

	results, err = st.ResultsFor(unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh copy", results[0].GeneratedCopy)
	assert.Equal(t, 2, results[0].Generation)
}

// tagFailingGenerator fails every hashtag prompt while passing copy prompts
// through.
type tagFailingGenerator struct {
	inner *stubGenerator
}

func (g *tagFailingGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (*generation.Result, error) {
	if strings.Contains(userPrompt, "JSON array") {
		return nil, fmt.Errorf("hashtag generation down")
	}
	return g.inner.GenerateText(ctx, systemPrompt, userPrompt)
}

// Full lifecycle: an image failure confines one platform to failed, the unit
// lands partial, and regenerating just that platform carries it to complete
// without touching its sibling.
func TestDispatchPartialThenRegenerateToComplete(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	images := &stubImages{failHeight: 627}
	d := newTestDispatcher(st, &stubGenerator{}, images)
	require.NoError(t, d.Dispatch(unit, unit.TargetPlatforms))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusPartial, unit.Status)

	report, err := NewStatusService(st).Poll(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, []string{"twitter"}, report.PlatformsComplete)
	assert.Equal(t, []string{"linkedin"}, report.PlatformsFailed)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	var twitterCopy string
	for _, r := range results {
		if r.Platform == "twitter" {
			twitterCopy = r.GeneratedCopy
		}
	}
	require.NotEmpty(t, twitterCopy)

	// The transform recovers; only the failed platform is redone.
	images.mu.Lock()
	images.failHeight = 0
	images.mu.Unlock()

	editor := NewEditorService(st, zap.NewNop(), d)
	require.NoError(t, editor.Regenerate(seededPublicID, []string{"linkedin"}))
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)

	results, err = st.ResultsFor(unit.ID)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, models.ResultStatusSucceeded, r.Status)
		if r.Platform == "twitter" {
			assert.Equal(t, 1, r.Generation)
			assert.Equal(t, twitterCopy, r.GeneratedCopy)
		} else {
			assert.Equal(t, 2, r.Generation)
		}
	}
}

// markRacingStore recomputes the unit status right after MarkProcessing,
// standing in for a sibling completion landing before the supersede.
type markRacingStore struct {
	store.Store
}

func (s *markRacingStore) MarkProcessing(unitID uint, now time.Time) error {
	if err := s.Store.MarkProcessing(unitID, now); err != nil {
		return err
	}
	_, err := s.Store.RecomputeStatus(unitID, DeriveStatus)
	return err
}

// gatedGenerator holds every call until released so the unit status can be
// observed while jobs are still in flight.
type gatedGenerator struct {
	inner   generation.Generator
	release chan struct{}
}

func (g *gatedGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (*generation.Result, error) {
	<-g.release
	return g.inner.GenerateText(ctx, systemPrompt, userPrompt)
}

// A completion recorded between MarkProcessing and the supersede can derive a
// terminal status from the old rows; once every named platform is superseded
// the unit must read processing again, before any new job reports.
func TestDispatchRederivesStatusAfterSupersede(t *testing.T) {
	st := newSeededStore(t, "twitter", "linkedin")
	unit, err := st.GetContentUnit(seededPublicID)
	require.NoError(t, err)

	for _, platform := range unit.TargetPlatforms {
		gen, err := st.BeginDispatch(unit.ID, platform, 1, nowFixed)
		require.NoError(t, err)
		applyOutcome(t, st, unit.ID, platform, gen, true, "")
	}
	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusComplete, unit.Status)

	gated := &gatedGenerator{inner: &stubGenerator{}, release: make(chan struct{})}
	racing := &markRacingStore{Store: st}
	d := newTestDispatcher(racing, gated, &stubImages{})

	require.NoError(t, d.Dispatch(unit, []string{"linkedin"}))

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusProcessing, unit.Status)

	close(gated.release)
	d.Drain()

	unit, err = st.GetContentUnit(seededPublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)
}
