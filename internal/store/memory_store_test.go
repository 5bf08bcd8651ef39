package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recastlabs/recast/internal/models"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func seedUnit(t *testing.T, st *MemoryStore, platforms ...string) *models.ContentUnit {
	t.Helper()
	profile := &models.Profile{Name: "acme"}
	require.NoError(t, st.CreateProfile(profile))
	unit := &models.ContentUnit{
		PublicID:        "pub-1",
		ProfileID:       profile.ID,
		Title:           "t",
		TargetPlatforms: models.StringArray(platforms),
	}
	require.NoError(t, st.CreateContentUnit(unit))
	return unit
}

func TestSavePlatformConfigUpserts(t *testing.T) {
	st := NewMemoryStore()
	profile := &models.Profile{Name: "acme"}
	require.NoError(t, st.CreateProfile(profile))

	first := &models.PlatformConfig{ProfileID: profile.ID, Platform: "twitter", Enabled: true, CharLimit: 250}
	require.NoError(t, st.SavePlatformConfig(first))

	second := &models.PlatformConfig{ProfileID: profile.ID, Platform: "twitter", Enabled: true, CharLimit: 200}
	require.NoError(t, st.SavePlatformConfig(second))
	assert.Equal(t, first.ID, second.ID)

	pc, err := st.GetPlatformConfig(profile.ID, "twitter")
	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.Equal(t, 200, pc.CharLimit)

	// Absent pair is (nil, nil), not an error.
	pc, err = st.GetPlatformConfig(profile.ID, "linkedin")
	require.NoError(t, err)
	assert.Nil(t, pc)
}

func TestMarkProcessingTimestampIsSticky(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter")

	require.NoError(t, st.MarkProcessing(unit.ID, testNow))
	require.NoError(t, st.MarkProcessing(unit.ID, testNow.Add(time.Hour)))

	got, err := st.GetContentUnit(unit.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusProcessing, got.Status)
	require.NotNil(t, got.ProcessingStartedAt)
	assert.Equal(t, testNow, *got.ProcessingStartedAt)
}

// BeginDispatch must never produce a second row for the same pair: a repeat
// call supersedes in place, bumping the generation and wiping prior state.
func TestBeginDispatchSupersedesInPlace(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter")

	gen1, err := st.BeginDispatch(unit.ID, "twitter", 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, gen1)

	applied, err := st.ApplyOutcome(JobOutcome{
		ContentUnitID: unit.ID,
		Platform:      "twitter",
		Generation:    gen1,
		Succeeded:     true,
		Copy:          "v1",
		Hashtags:      []string{"One"},
	}, testNow)
	require.NoError(t, err)
	require.True(t, applied)

	edited := "edited"
	_, err = st.SaveEdit(1, &edited, []string{"Edit"})
	require.NoError(t, err)
	require.NoError(t, st.SetSchedule(unit.ID, map[string]time.Time{"twitter": testNow.Add(time.Hour)}))

	gen2, err := st.BeginDispatch(unit.ID, "twitter", 2, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, gen2)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, models.ResultStatusDispatched, r.Status)
	assert.Equal(t, 2, r.Generation)
	assert.Equal(t, 2, r.ConfigVersion)
	assert.Empty(t, r.GeneratedCopy)
	assert.Empty(t, []string(r.Hashtags))
	assert.False(t, r.UserEdited)
	assert.Empty(t, r.EditedCopy)
	assert.False(t, r.HashtagsEdited)
	assert.Nil(t, r.ScheduledFor)
	assert.False(t, r.Published)
}

func TestApplyOutcomeRejectsStaleGeneration(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter")

	gen1, err := st.BeginDispatch(unit.ID, "twitter", 1, testNow)
	require.NoError(t, err)
	gen2, err := st.BeginDispatch(unit.ID, "twitter", 1, testNow)
	require.NoError(t, err)

	applied, err := st.ApplyOutcome(JobOutcome{
		ContentUnitID: unit.ID, Platform: "twitter", Generation: gen1, Succeeded: true, Copy: "stale",
	}, testNow)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = st.ApplyOutcome(JobOutcome{
		ContentUnitID: unit.ID, Platform: "twitter", Generation: gen2, Succeeded: true, Copy: "fresh",
	}, testNow)
	require.NoError(t, err)
	assert.True(t, applied)

	// A double completion for the same generation is also rejected; the row
	// is no longer in dispatched state.
	applied, err = st.ApplyOutcome(JobOutcome{
		ContentUnitID: unit.ID, Platform: "twitter", Generation: gen2, Succeeded: false, ErrorMessage: "late",
	}, testNow)
	require.NoError(t, err)
	assert.False(t, applied)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].GeneratedCopy)
	assert.Equal(t, models.ResultStatusSucceeded, results[0].Status)
}

func TestSetScheduleIsAllOrNothing(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter", "linkedin")

	gen, err := st.BeginDispatch(unit.ID, "twitter", 1, testNow)
	require.NoError(t, err)
	applied, err := st.ApplyOutcome(JobOutcome{
		ContentUnitID: unit.ID, Platform: "twitter", Generation: gen, Succeeded: true, Copy: "c",
	}, testNow)
	require.NoError(t, err)
	require.True(t, applied)

	// linkedin has no successful result; the whole call fails and twitter
	// keeps its empty schedule.
	err = st.SetSchedule(unit.ID, map[string]time.Time{
		"twitter":  testNow.Add(time.Hour),
		"linkedin": testNow.Add(time.Hour),
	})
	require.Error(t, err)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	for _, r := range results {
		assert.Nil(t, r.ScheduledFor)
	}
}

func TestDueResultsHonorsLimitAndPublishedFlag(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter", "linkedin", "facebook")

	times := map[string]time.Time{}
	for _, platform := range unit.TargetPlatforms {
		gen, err := st.BeginDispatch(unit.ID, platform, 1, testNow)
		require.NoError(t, err)
		applied, err := st.ApplyOutcome(JobOutcome{
			ContentUnitID: unit.ID, Platform: platform, Generation: gen, Succeeded: true, Copy: "c",
		}, testNow)
		require.NoError(t, err)
		require.True(t, applied)
		times[platform] = testNow.Add(-time.Minute)
	}
	require.NoError(t, st.SetSchedule(unit.ID, times))

	due, err := st.DueResults(testNow, 2)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	require.NoError(t, st.MarkPublished(due[0].ID, testNow))
	require.NoError(t, st.MarkPublished(due[1].ID, testNow))

	due, err = st.DueResults(testNow, 10)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestGetResultEnforcesOwnership(t *testing.T) {
	st := NewMemoryStore()
	unit := seedUnit(t, st, "twitter")
	_, err := st.BeginDispatch(unit.ID, "twitter", 1, testNow)
	require.NoError(t, err)

	other := &models.ContentUnit{PublicID: "pub-2", ProfileID: unit.ProfileID, Title: "o", TargetPlatforms: models.StringArray{"twitter"}}
	require.NoError(t, st.CreateContentUnit(other))

	_, err = st.GetResult(unit.ID, 1)
	assert.NoError(t, err)
	_, err = st.GetResult(other.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
