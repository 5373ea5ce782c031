package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"funcfleet/internal/types"
)

func queryListCandidates(ctx context.Context, db executor) ([]types.SearchCandidate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.topic_id,
		       s.folder_id,
		       COALESCE(w.weight, 1),
		       COALESCE(s.start_time, to_timestamp(0)),
		       COALESCE(MAX(h.checked_at), to_timestamp(0)),
		       COUNT(h.id),
		       s.status_short
		FROM searches s
		LEFT JOIN folder_weights w ON w.folder_id = s.folder_id
		LEFT JOIN search_health_check h ON h.topic_id = s.topic_id
		GROUP BY s.topic_id, s.folder_id, w.weight, s.start_time, s.status_short
		ORDER BY s.topic_id`)
	if err != nil {
		return nil, fmt.Errorf("list sweep candidates: %w", err)
	}
	defer rows.Close()
	var candidates []types.SearchCandidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweep candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sweep candidates: %w", err)
	}
	return candidates, nil
}

func queryRecordHealthCheck(ctx context.Context, db executor, topicID int, at time.Time, status types.Visibility) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO search_health_check (topic_id, checked_at, status)
		VALUES ($1, $2, $3)`,
		topicID, at, string(status))
	if err != nil {
		return fmt.Errorf("record health check: %w", err)
	}
	return nil
}

func queryActualFirstPost(ctx context.Context, db executor, topicID int) (types.FirstPostRecord, bool, error) {
	row := db.QueryRowContext(ctx, `
		SELECT search_id, at, actual, content_hash, content, num_of_checks
		FROM search_first_posts
		WHERE search_id = $1 AND actual
		ORDER BY at DESC
		LIMIT 1`, topicID)
	record, err := scanFirstPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FirstPostRecord{}, false, nil
	}
	if err != nil {
		return types.FirstPostRecord{}, false, fmt.Errorf("load first post: %w", err)
	}
	return record, true, nil
}

func queryDemoteFirstPosts(ctx context.Context, db executor, searchID int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE search_first_posts SET actual = FALSE
		WHERE search_id = $1 AND actual`, searchID)
	if err != nil {
		return fmt.Errorf("demote first posts: %w", err)
	}
	return nil
}

func queryInsertFirstPost(ctx context.Context, db executor, record types.FirstPostRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO search_first_posts (search_id, at, actual, content_hash, content, num_of_checks)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.SearchID,
		record.Timestamp,
		record.Actual,
		record.ContentHash,
		record.Content,
		record.NumOfChecks,
	)
	if err != nil {
		return fmt.Errorf("insert first post: %w", err)
	}
	return nil
}
