package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recastlabs/recast/internal/models"
)

func TestBuildPromptsSubstitutesPlaceholders(t *testing.T) {
	cfg := EffectiveConfig{
		Platform:           "twitter",
		Tone:               "witty",
		CharLimit:          280,
		HashtagMin:         1,
		HashtagMax:         3,
		SystemPrompt:       "Write for {{platform}} in a {{tone}} tone.",
		CopyPromptTemplate: "Title: {{title}}\nLimit: {{char_limit}}\nBody: {{body}}",
	}
	unit := &models.ContentUnit{Title: "Go Generics", Body: "A deep dive."}

	prompts := BuildPrompts(cfg, unit)

	assert.Equal(t, "Write for twitter in a witty tone.", prompts.System)
	assert.Equal(t, "Title: Go Generics\nLimit: 280\nBody: A deep dive.", prompts.Copy)
	assert.Contains(t, prompts.Hashtags, "Go Generics")
	assert.Contains(t, prompts.Hashtags, "between 1 and 3 hashtags")
}

func TestBuildPromptsStripsUnknownPlaceholders(t *testing.T) {
	cfg := EffectiveConfig{
		Platform:           "twitter",
		CharLimit:          280,
		SystemPrompt:       "sys",
		CopyPromptTemplate: "Before {{ not_a_thing }} after {{title}}.",
	}
	unit := &models.ContentUnit{Title: "X"}

	prompts := BuildPrompts(cfg, unit)

	assert.Equal(t, "Before  after X.", prompts.Copy)
	assert.NotContains(t, prompts.Copy, "{{")
}

func TestBuildPromptsEmptyValuesSubstituteEmpty(t *testing.T) {
	cfg := EffectiveConfig{
		Platform:           "twitter",
		SystemPrompt:       "sys",
		CopyPromptTemplate: "Audience: {{target_audience}}.",
	}

	prompts := BuildPrompts(cfg, &models.ContentUnit{})

	assert.Equal(t, "Audience: .", prompts.Copy)
}

func TestBuildPromptsPrependsExamplesInOrder(t *testing.T) {
	cfg := EffectiveConfig{
		Platform:           "twitter",
		SystemPrompt:       "sys",
		CopyPromptTemplate: "THE TASK",
		Examples: []FewShotExample{
			{Input: "profile in", Output: "profile out"},
			{Input: "platform in", Output: "platform out"},
		},
	}

	prompts := BuildPrompts(cfg, &models.ContentUnit{})

	first := strings.Index(prompts.Copy, "profile in")
	second := strings.Index(prompts.Copy, "platform in")
	task := strings.Index(prompts.Copy, "THE TASK")
	assert.True(t, first >= 0 && second > first && task > second,
		"expected profile example, then platform example, then the task: %q", prompts.Copy)
	assert.Contains(t, prompts.Copy, "---")
}

func TestBuildPromptsListJoins(t *testing.T) {
	cfg := EffectiveConfig{
		Platform:           "twitter",
		Keywords:           []string{"go", "testing"},
		DoList:             []string{"be brief", "be bold"},
		SystemPrompt:       "sys",
		CopyPromptTemplate: "kw: {{keywords}} do: {{do_list}}",
	}

	prompts := BuildPrompts(cfg, &models.ContentUnit{})

	assert.Equal(t, "kw: go, testing do: be brief; be bold", prompts.Copy)
}
