package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type renderOptions struct {
	Fleet    string
	Overlays []string
	Project  string
	Apply    bool
	RepoDir  string
}

func newRenderCommand(cfg *RootConfig) *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render deploy workflows for every fleet function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "Sync rendered workflows into the repository")
	cmd.Flags().StringVar(&opts.RepoDir, "repo", "", "Repository checkout to sync into")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("repo", cmd.Flags().Lookup("repo"))
	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts renderOptions) error {
	service := newAppService()
	result, err := service.Render(ctx, app.RenderRequest{
		FleetPath:    resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths: resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		Project:      resolveString(cmd, opts.Project, "project", "project"),
		OutputDir:    resolveString(cmd, cfg.Output, "output", "output"),
		Apply:        resolveBool(cmd, opts.Apply, "apply", "apply"),
		RepoDir:      resolveString(cmd, opts.RepoDir, "repo", "repo"),
	})
	if err != nil {
		return err
	}
	for _, workflow := range result.Rendered {
		fmt.Printf("rendered: %s function=%s revision=%s\n", workflow.File, workflow.Function, workflow.Revision)
	}
	for _, file := range result.Removed {
		fmt.Printf("removed: %s\n", file)
	}
	return nil
}
