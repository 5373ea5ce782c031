package adapters

import (
	"context"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

const envSecretPrefix = "FUNCFLEET_SECRET_"

// SecretsEnvAdapter resolves secrets from the process environment.
// "bot-token" maps to FUNCFLEET_SECRET_BOT_TOKEN. Used in local runs
// and CI where Secret Manager access is not configured.
type SecretsEnvAdapter struct{}

func NewSecretsEnvAdapter() SecretsEnvAdapter {
	return SecretsEnvAdapter{}
}

func (a SecretsEnvAdapter) Get(ctx context.Context, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("secret name is required")
	}
	key := envSecretPrefix + envSecretKey(trimmed)
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("secret not set: " + key)
	}
	return value, nil
}

func envSecretKey(name string) string {
	upper := strings.ToUpper(name)
	replacer := strings.NewReplacer("-", "_", ".", "_", "/", "_")
	return replacer.Replace(upper)
}

var _ ports.SecretsPort = SecretsEnvAdapter{}
