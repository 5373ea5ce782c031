package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"funcfleet/internal/types"
)

func querySetUserStatus(ctx context.Context, db executor, userID int64, status string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_statuses (user_id, status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET status = $2, updated_at = $3`,
		userID, status, at)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	return nil
}

func queryUpsertCoordinates(ctx context.Context, db executor, coords types.UserCoordinates) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_coordinates (user_id, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET latitude = $2, longitude = $3, updated_at = $4`,
		coords.UserID, coords.Latitude, coords.Longitude, coords.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert coordinates: %w", err)
	}
	return nil
}

func queryCoordinates(ctx context.Context, db executor, userID int64) (types.UserCoordinates, bool, error) {
	row := db.QueryRowContext(ctx, `
		SELECT user_id, latitude, longitude, updated_at
		FROM user_coordinates WHERE user_id = $1`, userID)
	var coords types.UserCoordinates
	err := row.Scan(&coords.UserID, &coords.Latitude, &coords.Longitude, &coords.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.UserCoordinates{}, false, nil
	}
	if err != nil {
		return types.UserCoordinates{}, false, fmt.Errorf("load coordinates: %w", err)
	}
	return coords, true, nil
}

func querySetPreference(ctx context.Context, db executor, userID int64, prefID int, name string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, pref_id, preference)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, pref_id) DO UPDATE SET preference = $3`,
		userID, prefID, name)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func queryDeletePreference(ctx context.Context, db executor, userID int64, prefID int) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM user_preferences WHERE user_id = $1 AND pref_id = $2`,
		userID, prefID)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}

func queryPreferences(ctx context.Context, db executor, userID int64) ([]types.UserPreference, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, pref_id, preference
		FROM user_preferences WHERE user_id = $1
		ORDER BY pref_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()
	var prefs []types.UserPreference
	for rows.Next() {
		var pref types.UserPreference
		if err := rows.Scan(&pref.UserID, &pref.PrefID, &pref.Preference); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

func queryToggleRegionalPreference(ctx context.Context, db executor, userID int64, folderID int) (bool, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM user_regional_preferences
		WHERE user_id = $1 AND folder_id = $2`,
		userID, folderID)
	if err != nil {
		return false, fmt.Errorf("toggle regional preference: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle regional preference: %w", err)
	}
	if deleted > 0 {
		return false, nil
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO user_regional_preferences (user_id, folder_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, folder_id) DO NOTHING`,
		userID, folderID)
	if err != nil {
		return false, fmt.Errorf("toggle regional preference: %w", err)
	}
	return true, nil
}

func queryRegionalPreferences(ctx context.Context, db executor, userID int64) ([]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT folder_id FROM user_regional_preferences
		WHERE user_id = $1 ORDER BY folder_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list regional preferences: %w", err)
	}
	defer rows.Close()
	var folders []int
	for rows.Next() {
		var folderID int
		if err := rows.Scan(&folderID); err != nil {
			return nil, fmt.Errorf("scan regional preference: %w", err)
		}
		folders = append(folders, folderID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list regional preferences: %w", err)
	}
	return folders, nil
}

func queryRecentSearches(ctx context.Context, db executor, limit int) ([]types.SearchSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT topic_id, title, status_short, folder_id,
		       COALESCE(start_time, to_timestamp(0)),
		       latitude, longitude
		FROM searches
		ORDER BY start_time DESC NULLS LAST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	defer rows.Close()
	var summaries []types.SearchSummary
	for rows.Next() {
		summary, err := scanSearchSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	return summaries, nil
}
