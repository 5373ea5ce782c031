package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type validateOptions struct {
	Fleet     string
	Overlays  []string
	RepoDir   string
	Manifests []string
	Catalogs  []string
}

func newValidateCommand(cfg *RootConfig) *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the fleet spec, workflows and manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringVar(&opts.RepoDir, "repo", "", "Repository checkout to validate against")
	cmd.Flags().StringSliceVar(&opts.Manifests, "manifest", nil, "Dependency manifest paths")
	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "Runtime catalog paths")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("repo", cmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("manifests", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("catalogs", cmd.Flags().Lookup("catalog"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		FleetPath:    resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths: resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		RepoDir:      resolveString(cmd, opts.RepoDir, "repo", "repo"),
		Manifests:    resolveStrings(cmd, opts.Manifests, "manifests", "manifest"),
		CatalogFiles: resolveStrings(cmd, opts.Catalogs, "catalogs", "catalog"),
		OutputDir:    resolveString(cmd, cfg.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("validated: %s (%d warning(s))\n", result.FleetName, result.Warnings)
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
