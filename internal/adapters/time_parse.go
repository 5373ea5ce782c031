package adapters

import (
	"strings"
	"time"
)

// parseUpdateTime parses the updateTime field of a Cloud Functions API
// response. The v1 API emits RFC 3339, but operation metadata sometimes
// drops the fractional seconds or the timezone, so those layouts are
// tried too. Unparseable values map to the zero time instead of failing
// the whole function lookup.
func parseUpdateTime(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
