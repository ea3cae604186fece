package create_asset

import (
	"github.com/movementinfra/movectl/cmd/create_asset/cluster_infra"
	"github.com/spf13/cobra"
)

func NewCreateAssetCmd() *cobra.Command {
	createAssetCmd := &cobra.Command{
		Use:   "create-asset",
		Short: "Generate deployment assets",
		Long:  "Generate deployable assets such as the Terraform project for the cluster infrastructure.",
	}

	createAssetCmd.AddCommand(
		cluster_infra.NewClusterInfraCmd(),
	)

	return createAssetCmd
}
