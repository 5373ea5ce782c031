package core

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"funcfleet/internal/types"
)

// Forum page markers. The phrasing is fixed by the upstream phpBB theme
// and must not be localized.
const (
	deletedTopicMarker = "Запрошенной темы не существует"
	hiddenTopicMarker  = "Для просмотра этого форума вы должны быть авторизованы"

	contentOpenTag = `<div class="content">`
	backToTopTag   = `<div class="back2top">`
	backToTopTrim  = 12
)

var (
	viewCounterPattern = regexp.MustCompile(`\) \d+ просмотр(а|ов)?`)
	formTokenPattern   = regexp.MustCompile(`value="\S{40}"|value="\S{32}"|value="\S{10}"`)
	sessionIDPattern   = regexp.MustCompile(`sid=\S{32}&amp;`)
	sqlFooterPattern   = regexp.MustCompile(`(?s)<span class="footer-info"><span title="SQL time:.*?</span>`)

	topicTitlePattern = regexp.MustCompile(`(?s)<h2 class="topic-title">(.*?)</h2>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// ClassifyTopicPage maps a fetched topic page to its visibility. Pages
// behind the forum login wall and removed topics both answer 200 with a
// marker phrase in the body.
func ClassifyTopicPage(body string) types.Visibility {
	switch {
	case strings.Contains(body, deletedTopicMarker):
		return types.VisibilityDeleted
	case strings.Contains(body, hiddenTopicMarker):
		return types.VisibilityHidden
	default:
		return types.VisibilityRegular
	}
}

// ExtractFirstPost cuts the first post block out of a topic page. The
// block starts right after the first content div open tag and ends just
// before the back2top div, then is trimmed back to the last closing div
// and the last tag boundary.
func ExtractFirstPost(body string) (string, bool) {
	start := strings.Index(body, contentOpenTag)
	if start < 0 {
		return "", false
	}
	start += len(contentOpenTag)
	end := strings.Index(body, backToTopTag)
	if end < 0 {
		return "", false
	}
	end -= backToTopTrim
	if end <= start {
		return "", false
	}
	cut := body[start:end]
	if idx := strings.LastIndex(cut, "</div>"); idx >= 0 {
		cut = cut[:idx]
	}
	if idx := strings.LastIndex(cut, ">"); idx >= 0 {
		cut = cut[:idx+1]
	}
	return cut, true
}

// NormalizeFirstPost strips the volatile page fragments that change on
// every request: view counters, form tokens, session ids and the SQL
// timing footer. Without this every fetch would hash differently.
func NormalizeFirstPost(content string) string {
	normalized := viewCounterPattern.ReplaceAllString(content, ")")
	normalized = formTokenPattern.ReplaceAllString(normalized, "")
	normalized = sessionIDPattern.ReplaceAllString(normalized, "")
	normalized = sqlFooterPattern.ReplaceAllString(normalized, "")
	return normalized
}

// HashFirstPost returns the change-detection hash of a normalized first
// post. md5 keeps parity with the hashes already stored in the history
// table.
func HashFirstPost(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ExtractTopicTitle returns the topic title text with inner markup
// removed, or an empty string when the page has no title heading.
func ExtractTopicTitle(body string) string {
	match := topicTitlePattern.FindStringSubmatch(body)
	if match == nil {
		return ""
	}
	title := htmlTagPattern.ReplaceAllString(match[1], "")
	return strings.TrimSpace(title)
}

// ExtractTopicStatus reads the search status from the topic title.
// Titles mark closed searches with short codes or the found-alive and
// found-dead words; anything unmarked is still an active search.
func ExtractTopicStatus(body string) types.TopicStatus {
	title := ExtractTopicTitle(body)
	switch {
	case strings.Contains(title, "НЖ"), strings.Contains(title, "Жив"):
		return types.TopicStatusFoundOK
	case strings.Contains(title, "НП"), strings.Contains(title, "Погиб"):
		return types.TopicStatusFoundNot
	case strings.Contains(title, "Завершен"):
		return types.TopicStatusClosed
	default:
		return types.TopicStatusActive
	}
}
