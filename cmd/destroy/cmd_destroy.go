package destroy

import (
	"fmt"
	"time"

	"github.com/movementinfra/movectl/internal/types"
	"github.com/movementinfra/movectl/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	clusterName    string
	region         string
	clusterDir     string
	stateFile      string
	kubeConfigPath string
	helmTimeout    time.Duration
	skipWorkloads  bool
)

func NewDestroyCmd() *cobra.Command {
	destroyCmd := &cobra.Command{
		Use:           "destroy",
		Short:         "Uninstall the workloads and destroy the cluster infrastructure",
		Long:          "Uninstall the helm releases in reverse deployment order, then destroy the Terraform-managed infrastructure.",
		SilenceErrors: true,
		PreRunE:       preRunDestroy,
		RunE:          runDestroy,
	}

	requiredFlags := pflag.NewFlagSet("required", pflag.ExitOnError)
	requiredFlags.SortFlags = false
	requiredFlags.StringVar(&clusterName, "cluster-name", "", "The name of the deployment to destroy.")
	requiredFlags.StringVar(&region, "region", "", "The AWS region of the cluster.")
	destroyCmd.Flags().AddFlagSet(requiredFlags)

	optionalFlags := pflag.NewFlagSet("optional", pflag.ExitOnError)
	optionalFlags.SortFlags = false
	optionalFlags.StringVar(&clusterDir, "cluster-dir", "cluster-infra", "The directory holding the generated Terraform project.")
	optionalFlags.StringVar(&stateFile, "state-file", types.DefaultStateFile, "The path to the deployment state file.")
	optionalFlags.StringVar(&kubeConfigPath, "kubeconfig-path", "kubeconfig", "The kubeconfig written during deploy.")
	optionalFlags.DurationVar(&helmTimeout, "helm-timeout", 15*time.Minute, "Timeout for each helm uninstall.")
	optionalFlags.BoolVar(&skipWorkloads, "skip-workloads", false, "Skip the helm uninstalls and only destroy the infrastructure.")
	destroyCmd.Flags().AddFlagSet(optionalFlags)

	destroyCmd.SetUsageFunc(func(c *cobra.Command) error {
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

	destroyCmd.MarkFlagRequired("cluster-name")
	destroyCmd.MarkFlagRequired("region")

	return destroyCmd
}

func preRunDestroy(cmd *cobra.Command, args []string) error {
	return utils.BindEnvToFlags(cmd)
}

func runDestroy(cmd *cobra.Command, args []string) error {
	destroyer := NewDestroyer(DestroyerOpts{
		ClusterName:    clusterName,
		Region:         region,
		ClusterDir:     clusterDir,
		StateFile:      stateFile,
		KubeConfigPath: kubeConfigPath,
		HelmTimeout:    helmTimeout,
		SkipWorkloads:  skipWorkloads,
	})
	if err := destroyer.Run(cmd.Context()); err != nil {
		return fmt.Errorf("failed to destroy: %w", err)
	}

	return nil
}
