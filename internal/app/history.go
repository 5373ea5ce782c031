package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

// Secret names the fleet's functions share.
const (
	secretBotToken    = "bot_api_token"
	secretAdminChatID = "my_telegram_id"
	secretDatabaseURL = "database_url"
)

func (s Service) History(ctx context.Context, req HistoryRequest) (HistoryResult, error) {
	ledger, err := s.historyLedger(ctx, req.DatabaseURL, req.SecretsBackend, req.Project)
	if err != nil {
		return HistoryResult{}, err
	}
	var since time.Time
	if req.Since > 0 {
		since = timeNow(s.Clock).Add(-req.Since)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	records, err := ledger.ListDeploys(ctx, strings.TrimSpace(req.Function), since, limit)
	if err != nil {
		return HistoryResult{}, err
	}
	return HistoryResult{Records: records}, nil
}

// historyLedger connects the deploy history store, resolving the
// database URL from the secrets backend when no explicit URL is given.
func (s Service) historyLedger(ctx context.Context, databaseURL string, backend string, project string) (ports.LedgerPort, error) {
	if s.Ledger != nil {
		return s.Ledger, nil
	}
	url := strings.TrimSpace(databaseURL)
	if url == "" {
		secrets, err := s.secretsPort(ctx, backend, project)
		if err != nil {
			return nil, err
		}
		url, err = secrets.Get(ctx, secretDatabaseURL)
		if err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(url) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("database url is required")
	}
	return s.ledgerPort(url)
}
