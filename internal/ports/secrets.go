package ports

import "context"

// SecretsPort fetches the latest version of a named secret. Known names
// are bot_api_token, my_telegram_id and database_url.
type SecretsPort interface {
	Get(ctx context.Context, name string) (string, error)
}
