package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/recastlabs/recast/internal/models"
)

// PromptSet is the rendered prompt material for one platform job. Copy and
// Hashtags are independent user prompts sharing the same system prompt.
type PromptSet struct {
	System   string
	Copy     string
	Hashtags string
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

const hashtagTemplate = `Suggest hashtags for a social media post about the article below.

Article title: {{title}}

Article body:
{{body}}

Rules:
- Return ONLY a JSON array of strings, e.g. ["GoLang","DevTools"]. No markdown fence, no prose.
- Return between {{hashtag_min}} and {{hashtag_max}} hashtags.
- Mix popularity tiers: include at least one broad, high-traffic tag and at least one niche, low-competition tag.
- No "#" prefix, no spaces inside a tag.`

// BuildPrompts renders the system, copy and hashtag prompts for one resolved
// configuration. Placeholders come from a closed set; a template referencing
// anything outside it has the placeholder stripped rather than leaking
// "{{...}}" into generated copy, and a known placeholder with no value
// substitutes to an empty string so a partially filled template never blocks
// dispatch.
func BuildPrompts(cfg EffectiveConfig, unit *models.ContentUnit) PromptSet {
	vars := map[string]string{
		"title":               unit.Title,
		"body":                unit.Body,
		"platform":            cfg.Platform,
		"tone":                cfg.Tone,
		"global_tone":         cfg.GlobalTone,
		"target_audience":     cfg.TargetAudience,
		"custom_instructions": cfg.CustomInstructions,
		"char_limit":          strconv.Itoa(cfg.CharLimit),
		"keywords":            strings.Join(cfg.Keywords, ", "),
		"do_list":             strings.Join(cfg.DoList, "; "),
		"dont_list":           strings.Join(cfg.DontList, "; "),
		"hashtag_min":         strconv.Itoa(cfg.HashtagMin),
		"hashtag_max":         strconv.Itoa(cfg.HashtagMax),
	}

	copyPrompt := substitute(cfg.CopyPromptTemplate, vars)
	if examples := renderExamples(cfg.Examples); examples != "" {
		copyPrompt = examples + copyPrompt
	}

	return PromptSet{
		System:   substitute(cfg.SystemPrompt, vars),
		Copy:     copyPrompt,
		Hashtags: substitute(hashtagTemplate, vars),
	}
}

// substitute replaces every known {{placeholder}} in a single pass over the
// template and strips unknown ones.
func substitute(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// renderExamples formats the few-shot blocks in resolution order: the
// profile-level example, then the platform-level one.
func renderExamples(examples []FewShotExample) string {
	var b strings.Builder
	for i, ex := range examples {
		if ex.Input == "" && ex.Output == "" {
			continue
		}
		fmt.Fprintf(&b, "Example %d input:\n%s\n\nExample %d output:\n%s\n\n", i+1, ex.Input, i+1, ex.Output)
	}
	if b.Len() > 0 {
		b.WriteString("---\n\n")
	}
	return b.String()
}
