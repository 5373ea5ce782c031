package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type deployOptions struct {
	Fleet          string
	Overlays       []string
	Functions      []string
	Plan           string
	All            bool
	Project        string
	StageBucket    string
	SkipPreflight  bool
	DryRun         bool
	Catalogs       []string
	Actor          string
	DatabaseURL    string
	SecretsBackend string
}

func newDeployCommand(cfg *RootConfig) *cobra.Command {
	opts := deployOptions{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy fleet functions to the cloud project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringSliceVar(&opts.Functions, "function", nil, "Functions to deploy")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "Deploy plan file produced by the plan command")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Deploy every fleet function")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id")
	cmd.Flags().StringVar(&opts.StageBucket, "stage-bucket", "", "Bucket for staged source archives")
	cmd.Flags().BoolVar(&opts.SkipPreflight, "skip-preflight", false, "Skip trigger topic preflight checks")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report intended changes without deploying")
	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "Runtime catalog paths")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "Actor recorded in deploy history")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "Deploy history database url")
	cmd.Flags().StringVar(&opts.SecretsBackend, "secrets-backend", "", "Secrets backend (env or gcp)")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("stage_bucket", cmd.Flags().Lookup("stage-bucket"))
	_ = viper.BindPFlag("catalogs", cmd.Flags().Lookup("catalog"))
	_ = viper.BindPFlag("actor", cmd.Flags().Lookup("actor"))
	_ = viper.BindPFlag("database_url", cmd.Flags().Lookup("database-url"))
	_ = viper.BindPFlag("secrets_backend", cmd.Flags().Lookup("secrets-backend"))
	return cmd
}

func runDeploy(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts deployOptions) error {
	service := newAppService()
	result, err := service.Deploy(ctx, app.DeployRequest{
		FleetPath:      resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths:   resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		Functions:      opts.Functions,
		PlanPath:       opts.Plan,
		All:            opts.All,
		Project:        resolveString(cmd, opts.Project, "project", "project"),
		StageBucket:    resolveString(cmd, opts.StageBucket, "stage_bucket", "stage-bucket"),
		SkipPreflight:  opts.SkipPreflight,
		DryRun:         opts.DryRun,
		OutputDir:      resolveString(cmd, cfg.Output, "output", "output"),
		CatalogFiles:   resolveStrings(cmd, opts.Catalogs, "catalogs", "catalog"),
		Actor:          resolveString(cmd, opts.Actor, "actor", "actor"),
		DatabaseURL:    resolveString(cmd, opts.DatabaseURL, "database_url", "database-url"),
		SecretsBackend: resolveString(cmd, opts.SecretsBackend, "secrets_backend", "secrets-backend"),
	})
	if err != nil {
		return err
	}
	for _, entry := range result.Entries {
		fmt.Printf("%s: %s revision=%s %s\n", entry.Status, entry.Function, entry.Revision, entry.Detail)
	}
	return nil
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		if value != 0 {
			return value
		}
		return viper.GetInt(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}
