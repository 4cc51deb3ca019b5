package topic

import (
	"encoding/json"
	"errors"
	"strings"
)

// TagList accepts either a comma-separated string or a JSON array of strings
type TagList []string

// UnmarshalJSON decodes both accepted forms and normalizes the result
func (t *TagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*t = NormalizeTags(strings.Split(raw, ","))
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("tags must be a string or an array of strings")
	}
	*t = NormalizeTags(list)
	return nil
}

// NormalizeTags trims every tag, drops empty ones and keeps the first
// occurrence of duplicates, preserving order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
