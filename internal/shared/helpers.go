// Package shared provides common utility functions used across multiple
// packages in the funcfleet codebase.
package shared

import (
	"fmt"
	"strings"
)

// NormalizePackageName lowercases a Python package name and replaces
// underscores and dots with hyphens, following PEP 503 normalization.
func NormalizePackageName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "-", ".", "-")
	return replacer.Replace(lower)
}

// TopicResource expands a bare topic ID into the provider resource path.
// Already-qualified names pass through unchanged.
func TopicResource(project string, topic string) string {
	trimmed := strings.TrimSpace(topic)
	if strings.HasPrefix(trimmed, "projects/") {
		return trimmed
	}
	return fmt.Sprintf("projects/%s/topics/%s", strings.TrimSpace(project), trimmed)
}

// FunctionResource builds the fully qualified function name used by the
// deployment API.
func FunctionResource(project string, region string, name string) string {
	return fmt.Sprintf("projects/%s/locations/%s/functions/%s", project, region, name)
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
