package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type auditOptions struct {
	Manifests  []string
	IndexURL   string
	IndexFile  string
	Workers    int
	TimeoutSec int
	Retries    int
}

func newAuditCommand(cfg *RootConfig) *cobra.Command {
	opts := auditOptions{}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit pinned manifest versions against the package index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Manifests, "manifest", nil, "Dependency manifest paths")
	cmd.Flags().StringVar(&opts.IndexURL, "index-url", "", "Package index base url")
	cmd.Flags().StringVar(&opts.IndexFile, "index-file", "", "Cached version index file")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent index lookups")
	cmd.Flags().IntVar(&opts.TimeoutSec, "http-timeout", 0, "Index request timeout in seconds")
	cmd.Flags().IntVar(&opts.Retries, "http-retries", 0, "Index request retries")
	_ = viper.BindPFlag("manifests", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("index_url", cmd.Flags().Lookup("index-url"))
	_ = viper.BindPFlag("index_file", cmd.Flags().Lookup("index-file"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("http_timeout", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	return cmd
}

func runAudit(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts auditOptions) error {
	service := newAppService()
	result, err := service.Audit(ctx, app.AuditRequest{
		Manifests:      resolveStrings(cmd, opts.Manifests, "manifests", "manifest"),
		IndexURL:       resolveString(cmd, opts.IndexURL, "index_url", "index-url"),
		IndexFile:      resolveString(cmd, opts.IndexFile, "index_file", "index-file"),
		Workers:        resolveInt(cmd, opts.Workers, "workers", "workers"),
		OutputDir:      resolveString(cmd, cfg.Output, "output", "output"),
		HTTPTimeoutSec: resolveInt(cmd, opts.TimeoutSec, "http_timeout", "http-timeout"),
		HTTPRetries:    resolveInt(cmd, opts.Retries, "http_retries", "http-retries"),
	})
	if err != nil {
		return err
	}
	for _, finding := range result.Findings {
		fmt.Printf("%s: %s\n", finding.Level, finding.Message)
	}
	fmt.Printf("audit: %d error(s), %d warning(s)\n", result.Errors, result.Warnings)
	return nil
}
