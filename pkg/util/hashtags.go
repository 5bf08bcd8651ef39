package util

import (
	"encoding/json"
	"strings"
)

// ParseHashtags extracts a hashtag list from a generation-service response.
// The prompt asks for a bare JSON array, but models occasionally wrap the
// output in a markdown fence or fall back to a comma-separated list, so both
// forms are accepted.
func ParseHashtags(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return cleanTags(arr)
	}

	// Fallback: comma or newline separated list
	raw = strings.Trim(raw, "[]")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return cleanTags(fields)
}

func cleanTags(tags []string) []string {
	var clean []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = NormalizeHashtag(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		clean = append(clean, tag)
	}
	return clean
}

// NormalizeHashtag strips quotes, the leading '#', and internal whitespace.
func NormalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.Trim(tag, "\"'")
	tag = strings.TrimPrefix(tag, "#")
	tag = strings.Join(strings.Fields(tag), "")
	return tag
}

// FormatHashtags renders tags as a single "#a #b #c" line.
func FormatHashtags(tags []string) string {
	var parts []string
	for _, tag := range tags {
		tag = NormalizeHashtag(tag)
		if tag != "" {
			parts = append(parts, "#"+tag)
		}
	}
	return strings.Join(parts, " ")
}
