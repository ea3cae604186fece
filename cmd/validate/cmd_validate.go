package validate

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
	kubeConfigPath string
	stateFile      string

	podTimeout time.Duration
	lbTimeout  time.Duration
	apiTimeout time.Duration

	checkIRSA bool
)

func NewValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:           "validate",
		Short:         "Validate a deployed cluster",
		Long:          "Check that every node's pods are ready, the public endpoint has a load balancer address, and the node API is serving ledger state.",
		SilenceErrors: true,
		PreRunE:       preRunValidate,
		RunE:          runValidate,
	}

	requiredFlags := pflag.NewFlagSet("required", pflag.ExitOnError)
	requiredFlags.SortFlags = false
	requiredFlags.StringVar(&clusterName, "cluster-name", "", "The name of the deployment to validate.")
	requiredFlags.StringVar(&region, "region", "", "The AWS region of the cluster.")
	validateCmd.Flags().AddFlagSet(requiredFlags)

	optionalFlags := pflag.NewFlagSet("optional", pflag.ExitOnError)
	optionalFlags.SortFlags = false
	optionalFlags.StringVar(&kubeConfigPath, "kubeconfig-path", "kubeconfig", "The kubeconfig written during deploy.")
	optionalFlags.StringVar(&stateFile, "state-file", types.DefaultStateFile, "The path to the deployment state file.")
	optionalFlags.DurationVar(&podTimeout, "pod-timeout", 60*time.Minute, "How long to wait for pods to become ready.")
	optionalFlags.DurationVar(&lbTimeout, "lb-timeout", 10*time.Minute, "How long to wait for the load balancer address.")
	optionalFlags.DurationVar(&apiTimeout, "api-timeout", 5*time.Minute, "How long to wait for the node API to serve ledger state.")
	optionalFlags.BoolVar(&checkIRSA, "check-irsa", false, "Also verify the fullnode snapshot role trusts the cluster OIDC provider.")
	validateCmd.Flags().AddFlagSet(optionalFlags)

	validateCmd.SetUsageFunc(func(c *cobra.Command) error {
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

	validateCmd.MarkFlagRequired("cluster-name")
	validateCmd.MarkFlagRequired("region")

	return validateCmd
}

func preRunValidate(cmd *cobra.Command, args []string) error {
	return utils.BindEnvToFlags(cmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	state, err := types.NewStateFromFile(stateFile)
	if err != nil {
		return err
	}
	deployment, err := state.GetDeployment(clusterName)
	if err != nil {
		return err
	}

	validator := NewValidator(ValidatorOpts{
		ClusterName:    clusterName,
		Region:         region,
		KubeConfigPath: kubeConfigPath,
		Namespace:      deployment.Namespace,
		Topology:       deployment.Topology,
		Outputs:        deployment.Outputs,
		PodTimeout:     podTimeout,
		LBTimeout:      lbTimeout,
		APITimeout:     apiTimeout,
		CheckIRSA:      checkIRSA,
	})
	if err := validator.Run(cmd.Context()); err != nil {
		return fmt.Errorf("failed to validate deployment: %w", err)
	}

	if err := deployment.Transition(cmd.Context(), types.EventValidationPassed); err != nil {
		return err
	}
	state.UpsertDeployment(deployment)
	return state.WriteToFile(stateFile)
}
