package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type relayOptions struct {
	Subscription   string
	Project        string
	Message        string
	Once           bool
	SecretsBackend string
}

func newRelayCommand() *cobra.Command {
	opts := relayOptions{}
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay notification messages to the admin chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Subscription, "subscription", "", "Notification subscription id")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id")
	cmd.Flags().StringVar(&opts.Message, "message", "", "Single message to relay with --once")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Relay one message and exit")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("subscription", cmd.Flags().Lookup("subscription"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))
	return cmd
}

func runRelay(ctx context.Context, cmd *cobra.Command, opts relayOptions) error {
	service := newAppService()
	result, err := service.Relay(ctx, app.RelayRequest{
		Subscription:   resolveString(cmd, opts.Subscription, "subscription", "subscription"),
		Project:        resolveString(cmd, opts.Project, "project", "project"),
		Message:        opts.Message,
		Once:           opts.Once,
		SecretsBackend: resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("relayed: %d message(s)\n", result.Delivered)
	return nil
}
