package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type historyOptions struct {
	Function       string
	Since          time.Duration
	Limit          int
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

func newHistoryCommand() *cobra.Command {
	opts := historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded deploys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Function, "function", "", "Limit history to one function")
	cmd.Flags().DurationVar(&opts.Since, "since", 0, "Only show deploys newer than this age")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum records to list")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id for secret lookups")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "Deploy history database url")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))

	cmd.AddCommand(newHistoryPruneCommand())
	return cmd
}

func runHistory(ctx context.Context, cmd *cobra.Command, opts historyOptions) error {
	service := newAppService()
	result, err := service.History(ctx, app.HistoryRequest{
		Function:       opts.Function,
		Since:          opts.Since,
		Limit:          resolveInt(cmd, opts.Limit, "limit", "limit"),
		Project:        resolveString(cmd, opts.Project, "project", "project"),
		DatabaseURL:    resolveString(cmd, opts.DatabaseURL, "database_url", "database-url"),
		SecretsBackend: resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}
	for _, record := range result.Records {
		fmt.Printf("%s %s revision=%s status=%s actor=%s\n",
			record.DeployedAt.Format(time.RFC3339), record.Function, record.Revision, record.Status, record.Actor)
	}
	return nil
}

type historyPruneOptions struct {
	KeepLast       int
	KeepDays       int
	Protect        []string
	Apply          bool
	Project        string
	DatabaseURL    string
	SecretsBackend string
}

func newHistoryPruneCommand() *cobra.Command {
	opts := historyPruneOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune old deploy history records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryPrune(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Records to keep per function")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Keep records newer than this many days")
	cmd.Flags().StringSliceVar(&opts.Protect, "protect", nil, "Functions whose history is never pruned")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "Delete records instead of reporting")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id for secret lookups")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "Deploy history database url")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("keep_days", cmd.Flags().Lookup("keep-days"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))
	return cmd
}

func runHistoryPrune(ctx context.Context, cmd *cobra.Command, opts historyPruneOptions) error {
	service := newAppService()
	result, err := service.HistoryPrune(ctx, app.HistoryPruneRequest{
		KeepLast:         resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		KeepDays:         resolveInt(cmd, opts.KeepDays, "keep_days", "keep-days"),
		ProtectFunctions: opts.Protect,
		Apply:            opts.Apply,
		Project:          resolveString(cmd, opts.Project, "project", "project"),
		DatabaseURL:      resolveString(cmd, opts.DatabaseURL, "database_url", "database-url"),
		SecretsBackend:   resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}
	if result.DryRun {
		fmt.Printf("prune (dry run): keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
		return nil
	}
	fmt.Printf("pruned: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
	return nil
}
