package status

import (
	"fmt"

	"github.com/movementinfra/movectl/internal/types"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	clusterName    string
	stateFile      string
	kubeConfigPath string
	watch          bool
	pollInterval   int
)

func NewStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the status of a deployment",
		Long:          "Show the lifecycle state, helm releases, pods and services of a deployment. With --watch, refresh continuously in an interactive view. Press q to quit, r to refresh, +/- to adjust the interval.",
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PreRunE:       preRunStatus,
		RunE:          runStatus,
	}

	requiredFlags := pflag.NewFlagSet("required", pflag.ExitOnError)
	requiredFlags.SortFlags = false
	requiredFlags.StringVar(&clusterName, "cluster-name", "", "The name of the deployment to inspect.")
	statusCmd.Flags().AddFlagSet(requiredFlags)

	optionalFlags := pflag.NewFlagSet("optional", pflag.ExitOnError)
	optionalFlags.SortFlags = false
	optionalFlags.StringVar(&stateFile, "state-file", types.DefaultStateFile, "The path to the deployment state file.")
	optionalFlags.StringVar(&kubeConfigPath, "kubeconfig-path", "kubeconfig", "The kubeconfig written during deploy.")
	optionalFlags.BoolVar(&watch, "watch", false, "Refresh continuously in an interactive view.")
	optionalFlags.IntVar(&pollInterval, "poll-interval", 5, "Poll interval in seconds with --watch (1-60).")
	statusCmd.Flags().AddFlagSet(optionalFlags)

	statusCmd.SetUsageFunc(func(c *cobra.Command) error {
		flagOrder := []*pflag.FlagSet{requiredFlags, optionalFlags}
		groupNames := []string{"Required Flags", "Optional Flags"}

		for i, fs := range flagOrder {
			usage := fs.FlagUsages()
			if usage != "" {
				fmt.Printf("%s:\n%s\n", groupNames[i], usage)
			}
		}

		fmt.Println("All flags can be provided via environment variables (uppercase, with underscores).")

		return nil
	})

	statusCmd.MarkFlagRequired("cluster-name")

	return statusCmd
}

func preRunStatus(cmd *cobra.Command, args []string) error {
	return utils.BindEnvToFlags(cmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	checker := NewStatusChecker(clusterName, stateFile, kubeConfigPath)

	if !watch {
		snapshot, err := checker.Fetch(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch status: %w", err)
		}
		fmt.Println(renderSnapshot(snapshot))
		return nil
	}

	interval := pollInterval
	if interval < 1 {
		interval = 1
	}
	if interval > 60 {
		interval = 60
	}

	p := newProgram(newModel(checker, interval))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
