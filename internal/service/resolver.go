package service

import (
	"sort"

	"github.com/recastlabs/recast/internal/models"
)

// PlatformDefaults is the hard-coded bottom layer of the configuration chain.
// Every supported platform has an entry, so resolution never fails.
type PlatformDefaults struct {
	DisplayName string
	ImageWidth  int
	ImageHeight int
	CharLimit   int
	HashtagMin  int
	HashtagMax  int
	BestTime    string // "HH:MM" 24h clock
}

var platformDefaults = map[string]PlatformDefaults{
	"twitter":   {DisplayName: "Twitter/X", ImageWidth: 1200, ImageHeight: 675, CharLimit: 280, HashtagMin: 1, HashtagMax: 3, BestTime: "09:00"},
	"linkedin":  {DisplayName: "LinkedIn", ImageWidth: 1200, ImageHeight: 627, CharLimit: 3000, HashtagMin: 3, HashtagMax: 5, BestTime: "08:30"},
	"instagram": {DisplayName: "Instagram", ImageWidth: 1080, ImageHeight: 1080, CharLimit: 2200, HashtagMin: 5, HashtagMax: 10, BestTime: "12:00"},
	"facebook":  {DisplayName: "Facebook", ImageWidth: 1200, ImageHeight: 630, CharLimit: 5000, HashtagMin: 2, HashtagMax: 4, BestTime: "13:00"},
	"threads":   {DisplayName: "Threads", ImageWidth: 1080, ImageHeight: 1350, CharLimit: 500, HashtagMin: 1, HashtagMax: 5, BestTime: "19:00"},
}

const (
	defaultGlobalTone = "clear, engaging and professional"

	defaultSystemPrompt = `You are a social media copywriter. You repurpose long-form articles ` +
		`into short posts tailored to a specific platform. Follow the tone, audience and ` +
		`length constraints exactly. Return only the post text, with no preamble and no markdown.`

	defaultCopyTemplate = `Write a {{platform}} post promoting the article below.

Tone: {{tone}}
Target audience: {{target_audience}}
Hard character limit: {{char_limit}}
{{custom_instructions}}

Keywords to work in where natural: {{keywords}}
Do: {{do_list}}
Don't: {{dont_list}}

Article title: {{title}}

Article body:
{{body}}`
)

// SupportedPlatforms returns the supported platform names, sorted.
func SupportedPlatforms() []string {
	names := make([]string, 0, len(platformDefaults))
	for name := range platformDefaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func IsSupportedPlatform(name string) bool {
	_, ok := platformDefaults[name]
	return ok
}

// DefaultsFor exposes the system defaults table for one platform.
func DefaultsFor(platform string) (PlatformDefaults, bool) {
	d, ok := platformDefaults[platform]
	return d, ok
}

// FewShotExample is one input/output pair prepended to the copy prompt.
type FewShotExample struct {
	Input  string
	Output string
}

// EffectiveConfig is the fully resolved configuration for one
// (content unit, platform) pair. It is recomputed at every dispatch and never
// persisted; only ConfigVersion is recorded on the result.
type EffectiveConfig struct {
	Platform           string
	Tone               string
	GlobalTone         string
	TargetAudience     string
	CustomInstructions string
	Keywords           []string
	DoList             []string
	DontList           []string
	ImageWidth         int
	ImageHeight        int
	CharLimit          int
	HashtagMin         int
	HashtagMax         int
	SystemPrompt       string
	CopyPromptTemplate string
	Examples           []FewShotExample
	BestTime           string
	ConfigVersion      int
}

// Resolve merges the three configuration layers for one platform, highest
// precedence first: platform override, profile setting, system default. Each
// field falls back independently, and every field terminates in a default, so
// resolution always succeeds. pc may be nil when the profile has no platform
// row. Pure function; no side effects.
func Resolve(profile *models.Profile, pc *models.PlatformConfig, platform string) EffectiveConfig {
	defaults := platformDefaults[platform]

	cfg := EffectiveConfig{
		Platform:           platform,
		GlobalTone:         firstNonEmpty(profile.GlobalTone, defaultGlobalTone),
		TargetAudience:     profile.TargetAudience,
		CustomInstructions: profile.CustomInstructions,
		Keywords:           profile.Keywords,
		DoList:             profile.DoList,
		DontList:           profile.DontList,
		ImageWidth:         defaults.ImageWidth,
		ImageHeight:        defaults.ImageHeight,
		CharLimit:          defaults.CharLimit,
		HashtagMin:         defaults.HashtagMin,
		HashtagMax:         defaults.HashtagMax,
		SystemPrompt:       firstNonEmpty(profile.SystemPrompt, defaultSystemPrompt),
		CopyPromptTemplate: firstNonEmpty(profile.CopyPromptTemplate, defaultCopyTemplate),
		BestTime:           defaults.BestTime,
		ConfigVersion:      profile.ConfigVersion,
	}
	cfg.Tone = cfg.GlobalTone

	if profile.ExampleInput != "" || profile.ExampleOutput != "" {
		cfg.Examples = append(cfg.Examples, FewShotExample{
			Input:  profile.ExampleInput,
			Output: profile.ExampleOutput,
		})
	}

	if pc != nil {
		if pc.Tone != "" {
			cfg.Tone = pc.Tone
		}
		if pc.CustomInstructions != "" {
			cfg.CustomInstructions = pc.CustomInstructions
		}
		if pc.ImageWidth > 0 {
			cfg.ImageWidth = pc.ImageWidth
		}
		if pc.ImageHeight > 0 {
			cfg.ImageHeight = pc.ImageHeight
		}
		if pc.CharLimit > 0 {
			cfg.CharLimit = pc.CharLimit
		}
		if pc.HashtagMin > 0 {
			cfg.HashtagMin = pc.HashtagMin
		}
		if pc.HashtagMax > 0 {
			cfg.HashtagMax = pc.HashtagMax
		}
		if pc.SystemPrompt != "" {
			cfg.SystemPrompt = pc.SystemPrompt
		}
		if pc.CopyPromptTemplate != "" {
			cfg.CopyPromptTemplate = pc.CopyPromptTemplate
		}
		if pc.BestTime != "" {
			cfg.BestTime = pc.BestTime
		}
		if pc.ExampleInput != "" || pc.ExampleOutput != "" {
			cfg.Examples = append(cfg.Examples, FewShotExample{
				Input:  pc.ExampleInput,
				Output: pc.ExampleOutput,
			})
		}
	}

	// Keep the hashtag range well-formed whatever the overrides say.
	if cfg.HashtagMax < cfg.HashtagMin {
		cfg.HashtagMax = cfg.HashtagMin
	}

	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
