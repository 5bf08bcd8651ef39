package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/store"
)

func newTestIntake(st store.Store) *IntakeService {
	d := newTestDispatcher(st, &stubGenerator{}, &stubImages{})
	return NewIntakeService(st, zap.NewNop(), d)
}

func TestSubmitValidation(t *testing.T) {
	st := store.NewMemoryStore()
	profile := &models.Profile{Name: "acme"}
	require.NoError(t, st.CreateProfile(profile))
	require.NoError(t, st.SavePlatformConfig(&models.PlatformConfig{
		ProfileID: profile.ID,
		Platform:  "twitter",
		Enabled:   true,
	}))

	intake := newTestIntake(st)

	cases := []struct {
		name string
		req  SubmitRequest
		code string
	}{
		{"missing title", SubmitRequest{ProfileID: profile.ID, TargetPlatforms: []string{"twitter"}}, CodeInvalidRequest},
		{"no targets", SubmitRequest{ProfileID: profile.ID, Title: "t"}, CodeInvalidRequest},
		{"unknown platform", SubmitRequest{ProfileID: profile.ID, Title: "t", TargetPlatforms: []string{"twitter", "myspace"}}, CodeInvalidPlatforms},
		{"unknown profile", SubmitRequest{ProfileID: 999, Title: "t", TargetPlatforms: []string{"twitter"}}, CodeInvalidRequest},
		{"missing config", SubmitRequest{ProfileID: profile.ID, Title: "t", TargetPlatforms: []string{"twitter", "linkedin"}}, CodeMissingPlatformConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := intake.Submit(tc.req)
			coded, ok := err.(*CodedError)
			require.True(t, ok, "expected coded error, got %v", err)
			assert.Equal(t, tc.code, coded.Code)
		})
	}
}

func TestSubmitDispatchesAllTargets(t *testing.T) {
	st := store.NewMemoryStore()
	profile := &models.Profile{Name: "acme"}
	require.NoError(t, st.CreateProfile(profile))
	for _, platform := range []string{"twitter", "linkedin"} {
		require.NoError(t, st.SavePlatformConfig(&models.PlatformConfig{
			ProfileID: profile.ID,
			Platform:  platform,
			Enabled:   true,
		}))
	}

	d := newTestDispatcher(st, &stubGenerator{}, &stubImages{})
	intake := NewIntakeService(st, zap.NewNop(), d)

	unit, err := intake.Submit(SubmitRequest{
		ProfileID:       profile.ID,
		Title:           "Why Go",
		Body:            "Because it compiles fast.",
		TargetPlatforms: []string{"twitter", "linkedin"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, unit.PublicID)

	d.Drain()

	unit, err = st.GetContentUnit(unit.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusComplete, unit.Status)
	assert.NotNil(t, unit.ProcessingStartedAt)

	results, err := st.ResultsFor(unit.ID)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSubmitRejectsDisabledConfigSynchronously(t *testing.T) {
	st := store.NewMemoryStore()
	profile := &models.Profile{Name: "acme"}
	require.NoError(t, st.CreateProfile(profile))
	require.NoError(t, st.SavePlatformConfig(&models.PlatformConfig{
		ProfileID: profile.ID,
		Platform:  "twitter",
		Enabled:   false,
	}))

	intake := newTestIntake(st)
	_, err := intake.Submit(SubmitRequest{
		ProfileID:       profile.ID,
		Title:           "t",
		TargetPlatforms: []string{"twitter"},
	})
	coded, ok := err.(*CodedError)
	require.True(t, ok)
	assert.Equal(t, CodeMissingPlatformConfig, coded.Code)

	// Nothing was persisted.
	profiles, err := st.ListProfiles()
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
