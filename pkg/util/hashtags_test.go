package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHashtagsJSONArray(t *testing.T) {
	tags := ParseHashtags(`["GoLang","DevTools"]`)
	assert.Equal(t, []string{"GoLang", "DevTools"}, tags)
}

func TestParseHashtagsMarkdownFence(t *testing.T) {
	tags := ParseHashtags("```json\n[\"GoLang\",\"DevTools\"]\n```")
	assert.Equal(t, []string{"GoLang", "DevTools"}, tags)
}

func TestParseHashtagsCommaFallback(t *testing.T) {
	tags := ParseHashtags("#GoLang, #DevTools\ncloud")
	assert.Equal(t, []string{"GoLang", "DevTools", "cloud"}, tags)
}

func TestParseHashtagsDeduplicates(t *testing.T) {
	tags := ParseHashtags(`["GoLang","golang","GoLang"]`)
	assert.Equal(t, []string{"GoLang"}, tags)
}

func TestParseHashtagsEmpty(t *testing.T) {
	assert.Empty(t, ParseHashtags(""))
	assert.Empty(t, ParseHashtags("[]"))
}

func TestNormalizeHashtag(t *testing.T) {
	assert.Equal(t, "GoLang", NormalizeHashtag(` "#Go Lang" `))
	assert.Equal(t, "", NormalizeHashtag("  #  "))
}

func TestFormatHashtags(t *testing.T) {
	assert.Equal(t, "#GoLang #DevTools", FormatHashtags([]string{"GoLang", "#DevTools"}))
	assert.Equal(t, "", FormatHashtags(nil))
}
