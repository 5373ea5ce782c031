package adapters

import (
	"database/sql"

	"funcfleet/internal/types"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDeploy(row scannable) (types.DeployInfo, error) {
	var record types.DeployInfo
	var status string
	err := row.Scan(
		&record.ID,
		&record.EventID,
		&record.Function,
		&record.Revision,
		&status,
		&record.Actor,
		&record.DeployedAt,
	)
	if err != nil {
		return types.DeployInfo{}, err
	}
	record.Status = types.DeployStatus(status)
	return record, nil
}

func scanDeploys(rows *sql.Rows) ([]types.DeployInfo, error) {
	var records []types.DeployInfo
	for rows.Next() {
		record, err := scanDeploy(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanCandidate(row scannable) (types.SearchCandidate, error) {
	var candidate types.SearchCandidate
	err := row.Scan(
		&candidate.TopicID,
		&candidate.FolderID,
		&candidate.FolderWeight,
		&candidate.StartTime,
		&candidate.LastChecked,
		&candidate.ChecksMade,
		&candidate.Status,
	)
	if err != nil {
		return types.SearchCandidate{}, err
	}
	return candidate, nil
}

func scanFirstPost(row scannable) (types.FirstPostRecord, error) {
	var record types.FirstPostRecord
	err := row.Scan(
		&record.SearchID,
		&record.Timestamp,
		&record.Actual,
		&record.ContentHash,
		&record.Content,
		&record.NumOfChecks,
	)
	if err != nil {
		return types.FirstPostRecord{}, err
	}
	return record, nil
}

func scanSearchSummary(row scannable) (types.SearchSummary, error) {
	var summary types.SearchSummary
	var latitude sql.NullFloat64
	var longitude sql.NullFloat64
	err := row.Scan(
		&summary.TopicID,
		&summary.Title,
		&summary.StatusShort,
		&summary.FolderID,
		&summary.StartTime,
		&latitude,
		&longitude,
	)
	if err != nil {
		return types.SearchSummary{}, err
	}
	if latitude.Valid && longitude.Valid {
		summary.Latitude = latitude.Float64
		summary.Longitude = longitude.Float64
		summary.HasCoords = true
	}
	return summary, nil
}
