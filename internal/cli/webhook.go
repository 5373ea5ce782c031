package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type webhookServeOptions struct {
	Listen         string
	Path           string
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

func newWebhookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Chat bot webhook",
	}
	cmd.AddCommand(newWebhookServeCommand())
	return cmd
}

func newWebhookServeCommand() *cobra.Command {
	opts := webhookServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat bot webhook over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWebhookServe(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Listen, "listen", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.Path, "path", "/webhook", "Webhook request path")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "User database url")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))
	return cmd
}

func runWebhookServe(ctx context.Context, cmd *cobra.Command, opts webhookServeOptions) error {
	service := newAppService()
	handler, err := service.WebhookHandler(ctx, app.WebhookRequest{
		Project:        resolveString(cmd, opts.Project, "project", "project"),
		DatabaseURL:    resolveString(cmd, opts.DatabaseURL, "database_url", "database-url"),
		SecretsBackend: resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, handler)
	server := &http.Server{
		Addr:              resolveString(cmd, opts.Listen, "listen", "listen"),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()
	log.Ctx(ctx).Info().Str("addr", server.Addr).Str("path", opts.Path).Msg("webhook listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
