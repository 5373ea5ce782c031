package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"funcfleet/internal/types"
)

const deployColumns = `id, event_id, function, revision, status, actor, deployed_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsertDeploy(ctx context.Context, db executor, record types.DeployInfo) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO deploy_history (event_id, function, revision, status, actor, deployed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.EventID,
		record.Function,
		record.Revision,
		string(record.Status),
		record.Actor,
		record.DeployedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deploy record: %w", err)
	}
	return nil
}

func queryListDeploys(ctx context.Context, db executor, function string, since time.Time, limit int) ([]types.DeployInfo, error) {
	var (
		whereClauses []string
		args         []any
	)
	if strings.TrimSpace(function) != "" {
		args = append(args, function)
		whereClauses = append(whereClauses, fmt.Sprintf("function = $%d", len(args)))
	}
	if !since.IsZero() {
		args = append(args, since)
		whereClauses = append(whereClauses, fmt.Sprintf("deployed_at >= $%d", len(args)))
	}
	query := `SELECT ` + deployColumns + ` FROM deploy_history`
	if len(whereClauses) > 0 {
		query += ` WHERE ` + strings.Join(whereClauses, " AND ")
	}
	query += ` ORDER BY deployed_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deploy records: %w", err)
	}
	defer rows.Close()
	return scanDeploys(rows)
}

func queryListAllDeploys(ctx context.Context, db executor) ([]types.DeployInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+deployColumns+` FROM deploy_history
		ORDER BY function, deployed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list deploy records: %w", err)
	}
	defer rows.Close()
	return scanDeploys(rows)
}

func queryDeleteDeploys(ctx context.Context, db executor, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	result, err := db.ExecContext(ctx,
		`DELETE FROM deploy_history WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("delete deploy records: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted deploy records: %w", err)
	}
	return int(affected), nil
}
