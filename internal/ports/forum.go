package ports

import (
	"context"

	"funcfleet/internal/types"
)

// ForumPort fetches one topic page. The body is already decoded to
// UTF-8 from whatever charset the forum declares.
type ForumPort interface {
	FetchTopic(ctx context.Context, topicID int) (types.TopicPage, error)
}
