package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type planOptions struct {
	Fleet    string
	Overlays []string
	RepoDir  string
	Changed  []string
	GitRange string
	Force    []string
	All      bool
}

func newPlanCommand(cfg *RootConfig) *cobra.Command {
	opts := planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute which functions need a deploy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.Context(), cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringVar(&opts.RepoDir, "repo", "", "Repository checkout")
	cmd.Flags().StringSliceVar(&opts.Changed, "changed", nil, "Changed paths relative to the repository root")
	cmd.Flags().StringVar(&opts.GitRange, "git-range", "", "Git revision range to diff for changed paths")
	cmd.Flags().StringSliceVar(&opts.Force, "force", nil, "Functions to force into the plan")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Plan every fleet function")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("repo", cmd.Flags().Lookup("repo"))
	return cmd
}

func runPlan(ctx context.Context, cmd *cobra.Command, cfg *RootConfig, opts planOptions) error {
	service := newAppService()
	result, err := service.Plan(ctx, app.PlanRequest{
		FleetPath:    resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths: resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		RepoDir:      resolveString(cmd, opts.RepoDir, "repo", "repo"),
		Changed:      opts.Changed,
		GitRange:     opts.GitRange,
		Force:        opts.Force,
		All:          opts.All,
		OutputDir:    resolveString(cmd, cfg.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("plan: %s (%d function(s))\n", result.Plan.Fingerprint, len(result.Plan.Entries))
	for _, entry := range result.Plan.Entries {
		fmt.Printf("  %s revision=%s reason=%s\n", entry.Function, entry.Revision, entry.Reason)
	}
	return nil
}
