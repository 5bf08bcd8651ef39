package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/recastlabs/recast/internal/models"
)

// MemoryStore implements Store in-process. A single mutex serializes every
// operation, which gives the same atomicity the GORM implementation gets from
// transactions; it backs the service-layer tests.
type MemoryStore struct {
	mu sync.Mutex

	profiles map[uint]models.Profile
	configs  map[string]models.PlatformConfig // key: profileID/platform
	units    map[uint]models.ContentUnit
	unitIDs  map[string]uint // public ID -> internal ID
	results  map[uint]models.PlatformResult
	byPair   map[string]uint // unitID/platform -> result ID

	nextProfile uint
	nextUnit    uint
	nextResult  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uint]models.Profile),
		configs:  make(map[string]models.PlatformConfig),
		units:    make(map[uint]models.ContentUnit),
		unitIDs:  make(map[string]uint),
		results:  make(map[uint]models.PlatformResult),
		byPair:   make(map[string]uint),
	}
}

func configKey(profileID uint, platform string) string {
	return fmt.Sprintf("%d/%s", profileID, platform)
}

func pairKey(unitID uint, platform string) string {
	return fmt.Sprintf("%d/%s", unitID, platform)
}

func (m *MemoryStore) CreateProfile(p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextProfile++
	p.ID = m.nextProfile
	p.CreatedAt = time.Now()
	m.profiles[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProfile(id uint) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProfiles() ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles := make([]models.Profile, 0, len(m.profiles))
	for id := uint(1); id <= m.nextProfile; id++ {
		if p, ok := m.profiles[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (m *MemoryStore) SavePlatformConfig(pc *models.PlatformConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := configKey(pc.ProfileID, pc.Platform)
	if existing, ok := m.configs[key]; ok {
		pc.ID = existing.ID
	} else {
		pc.ID = uint(len(m.configs) + 1)
	}
	m.configs[key] = *pc
	return nil
}

func (m *MemoryStore) GetPlatformConfig(profileID uint, platform string) (*models.PlatformConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.configs[configKey(profileID, platform)]
	if !ok {
		return nil, nil
	}
	return &pc, nil
}

func (m *MemoryStore) CreateContentUnit(u *models.ContentUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUnit++
	u.ID = m.nextUnit
	u.CreatedAt = time.Now()
	if u.Status == "" {
		u.Status = models.UnitStatusPending
	}
	m.units[u.ID] = *u
	m.unitIDs[u.PublicID] = u.ID
	return nil
}

func (m *MemoryStore) GetContentUnit(publicID string) (*models.ContentUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.unitIDs[publicID]
	if !ok {
		return nil, ErrNotFound
	}
	unit := m.units[id]
	return &unit, nil
}

func (m *MemoryStore) MarkProcessing(unitID uint, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, ok := m.units[unitID]
	if !ok {
		return ErrNotFound
	}
	unit.Status = models.UnitStatusProcessing
	unit.ErrorMessage = ""
	if unit.ProcessingStartedAt == nil {
		started := now
		unit.ProcessingStartedAt = &started
	}
	unit.UpdatedAt = now
	m.units[unitID] = unit
	return nil
}

func (m *MemoryStore) BeginDispatch(unitID uint, platform string, configVersion int, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(unitID, platform)
	if id, ok := m.byPair[key]; ok {
		result := m.results[id]
		result.Generation++
		result.Status = models.ResultStatusDispatched
		result.GeneratedCopy = ""
		result.Hashtags = models.StringArray{}
		result.ImageURL = ""
		result.UserEdited = false
		result.EditedCopy = ""
		result.EditedHashtags = models.StringArray{}
		result.HashtagsEdited = false
		result.ScheduledFor = nil
		result.Published = false
		result.PublishedAt = nil
		result.InputTokens = 0
		result.OutputTokens = 0
		result.LatencyMs = 0
		result.Model = ""
		result.ConfigVersion = configVersion
		result.ErrorMessage = ""
		result.DispatchedAt = now
		result.CompletedAt = nil
		result.UpdatedAt = now
		m.results[id] = result
		return result.Generation, nil
	}

	m.nextResult++
	result := models.PlatformResult{
		ID:            m.nextResult,
		ContentUnitID: unitID,
		Platform:      platform,
		Generation:    1,
		Status:        models.ResultStatusDispatched,
		ConfigVersion: configVersion,
		DispatchedAt:  now,
		CreatedAt:     now,
	}
	m.results[result.ID] = result
	m.byPair[key] = result.ID
	return 1, nil
}

func (m *MemoryStore) ApplyOutcome(o JobOutcome, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byPair[pairKey(o.ContentUnitID, o.Platform)]
	if !ok {
		return false, nil
	}
	result := m.results[id]
	if result.Generation != o.Generation || result.Status != models.ResultStatusDispatched {
		return false, nil
	}

	if o.Succeeded {
		result.Status = models.ResultStatusSucceeded
	} else {
		result.Status = models.ResultStatusFailed
	}
	result.GeneratedCopy = o.Copy
	result.Hashtags = models.StringArray(o.Hashtags)
	result.ImageURL = o.ImageURL
	result.InputTokens = o.InputTokens
	result.OutputTokens = o.OutputTokens
	result.LatencyMs = o.LatencyMs
	result.Model = o.Model
	result.ErrorMessage = o.ErrorMessage
	completed := now
	result.CompletedAt = &completed
	result.UpdatedAt = now
	m.results[id] = result
	return true, nil
}

func (m *MemoryStore) ResultsFor(unitID uint) ([]models.PlatformResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsForLocked(unitID), nil
}

func (m *MemoryStore) resultsForLocked(unitID uint) []models.PlatformResult {
	var results []models.PlatformResult
	for id := uint(1); id <= m.nextResult; id++ {
		if r, ok := m.results[id]; ok && r.ContentUnitID == unitID {
			results = append(results, r)
		}
	}
	return results
}

func (m *MemoryStore) GetResult(unitID, resultID uint) (*models.PlatformResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[resultID]
	if !ok || result.ContentUnitID != unitID {
		return nil, ErrNotFound
	}
	return &result, nil
}

func (m *MemoryStore) SaveEdit(resultID uint, editedCopy *string, editedHashtags []string) (*models.PlatformResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[resultID]
	if !ok {
		return nil, ErrNotFound
	}
	result.UserEdited = true
	if editedCopy != nil {
		result.EditedCopy = *editedCopy
	}
	if editedHashtags != nil {
		result.EditedHashtags = models.StringArray(editedHashtags)
		result.HashtagsEdited = true
	}
	result.UpdatedAt = time.Now()
	m.results[resultID] = result
	return &result, nil
}

func (m *MemoryStore) RecomputeStatus(unitID uint, derive StatusDeriver) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, ok := m.units[unitID]
	if !ok {
		return "", ErrNotFound
	}
	status, errMsg := derive(&unit, m.resultsForLocked(unitID))
	unit.Status = status
	unit.ErrorMessage = errMsg
	m.units[unitID] = unit
	return status, nil
}

func (m *MemoryStore) SetSchedule(unitID uint, times map[string]time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate before mutating so the call is all-or-nothing.
	ids := make(map[string]uint, len(times))
	for platform := range times {
		id, ok := m.byPair[pairKey(unitID, platform)]
		if !ok || m.results[id].Status != models.ResultStatusSucceeded {
			return fmt.Errorf("no successful result for platform %s: %w", platform, ErrNotFound)
		}
		ids[platform] = id
	}
	for platform, at := range times {
		result := m.results[ids[platform]]
		scheduled := at
		result.ScheduledFor = &scheduled
		m.results[ids[platform]] = result
	}
	return nil
}

func (m *MemoryStore) DueResults(now time.Time, limit int) ([]models.PlatformResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.PlatformResult
	for id := uint(1); id <= m.nextResult; id++ {
		r, ok := m.results[id]
		if !ok || r.Status != models.ResultStatusSucceeded || r.Published {
			continue
		}
		if r.ScheduledFor != nil && !r.ScheduledFor.After(now) {
			due = append(due, r)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (m *MemoryStore) MarkPublished(resultID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[resultID]
	if !ok {
		return ErrNotFound
	}
	if !result.Published {
		result.Published = true
		published := at
		result.PublishedAt = &published
	}
	m.results[resultID] = result
	return nil
}
