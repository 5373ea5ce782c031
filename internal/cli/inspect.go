package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"funcfleet/internal/app"
)

type inspectOptions struct {
	Fleet    string
	Overlays []string
	Function string
	Project  string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the effective spec and live state of fleet functions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Fleet, "fleet", "", "Fleet spec path")
	cmd.Flags().StringSliceVar(&opts.Overlays, "overlay", nil, "Overlay spec paths")
	cmd.Flags().StringVar(&opts.Function, "function", "", "Limit output to one function")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Cloud project id for live state")
	_ = viper.BindPFlag("fleet", cmd.Flags().Lookup("fleet"))
	_ = viper.BindPFlag("overlays", cmd.Flags().Lookup("overlay"))
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		FleetPath:    resolveString(cmd, opts.Fleet, "fleet", "fleet"),
		OverlayPaths: resolveStrings(cmd, opts.Overlays, "overlays", "overlay"),
		Function:     opts.Function,
		Project:      resolveString(cmd, opts.Project, "project", "project"),
	})
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		fmt.Println(line)
	}
	return nil
}
