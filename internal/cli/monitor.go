package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type monitorSweepOptions struct {
	Percent        int
	Mode           string
	Limit          int
	ForumBase      string
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

func newMonitorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Forum topic monitoring",
	}
	cmd.AddCommand(newMonitorSweepCommand())
	return cmd
}

func newMonitorSweepCommand() *cobra.Command {
	opts := monitorSweepOptions{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep monitored forum topics for first-post changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitorSweep(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Percent, "percent", 0, "Share of candidates to check per sweep")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Candidate selection mode")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum topics to check per sweep")
	cmd.Flags().StringVar(&opts.ForumBase, "forum-base", "", "Forum base url")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id for event publishing")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "Monitor database url")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("forum_base", cmd.Flags().Lookup("forum-base"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))
	return cmd
}

func runMonitorSweep(ctx context.Context, cmd *cobra.Command, opts monitorSweepOptions) error {
	service := newAppService()
	result, err := service.MonitorSweep(ctx, app.MonitorRequest{
		Percent:        opts.Percent,
		Mode:           opts.Mode,
		Limit:          resolveInt(cmd, opts.Limit, "limit", "limit"),
		ForumBase:      resolveString(cmd, opts.ForumBase, "forum_base", "forum-base"),
		Project:        resolveString(cmd, opts.Project, "project", "project"),
		DatabaseURL:    resolveString(cmd, opts.DatabaseURL, "database_url", "database-url"),
		SecretsBackend: resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("sweep: mode=%s checked=%d changed=%d hidden=%d deleted=%d\n",
		result.Mode, result.Checked, result.Changed, result.Hidden, result.Deleted)
	return nil
}
