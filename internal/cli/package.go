package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type packageOptions struct {
	Fleet     string
	Overlays  []string
	Functions []string
	All       bool
}

func newPackageCommand(cfg *RootConfig) *cobra.Command {
	opts := packageOptions{}
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build source archives for fleet functions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPackage(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringSliceVar(&opts.Functions, "function", nil, "Functions to package")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Package every fleet function")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	return cmd
}

func runPackage(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts packageOptions) error {
	service := newAppService()
	result, err := service.Package(ctx, app.PackageRequest{
		FleetPath:    resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths: resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		Functions:    opts.Functions,
		All:          opts.All,
		OutputDir:    resolveString(cmd, cfg.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	for _, archive := range result.Archives {
		fmt.Printf("packaged: %s revision=%s bytes=%d\n", archive.Path, archive.Revision, archive.Bytes)
	}
	return nil
}
