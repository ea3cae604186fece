package cluster_infra

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/movementinfra/movectl/internal/services/hcl"
	"github.com/movementinfra/movectl/internal/types"
)

type ClusterInfraOpts struct {
	Request   types.ClusterInfraRequest
	OutputDir string
}

type ClusterInfraAssetGenerator struct {
	request   types.ClusterInfraRequest
	outputDir string
}

func NewClusterInfraAssetGenerator(opts ClusterInfraOpts) *ClusterInfraAssetGenerator {
	return &ClusterInfraAssetGenerator{
		request:   opts.Request,
		outputDir: opts.OutputDir,
	}
}

func (ci *ClusterInfraAssetGenerator) Run() error {
	slog.Info("🏁 generating cluster infrastructure", "cluster", ci.request.ClusterName, "region", ci.request.Region)

	outputDir := ci.outputDir
	if outputDir == "" {
		outputDir = "cluster-infra"
	}
	slog.Info("📁 creating cluster-infra directory", "directory", outputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create cluster-infra directory: %w", err)
	}

	slog.Info("📋 generating Terraform configuration")
	hclService := hcl.NewClusterInfraHCLService()
	project, err := hclService.GenerateTerraformProject(ci.request)
	if err != nil {
		return err
	}

	if err := ci.buildTerraformProject(outputDir, project); err != nil {
		return fmt.Errorf("failed to write Terraform project: %w", err)
	}

	slog.Info("✅ cluster infrastructure generated", "directory", outputDir)
	return nil
}

func (ci *ClusterInfraAssetGenerator) buildTerraformProject(outputDir string, project types.TerraformProject) error {
	files := map[string]string{
		"providers.tf":     project.ProvidersTf,
		"variables.tf":     project.VariablesTf,
		"main.tf":          project.MainTf,
		"outputs.tf":       project.OutputsTf,
		"terraform.tfvars": project.TfvarsTf,
	}

	for _, filename := range []string{"providers.tf", "variables.tf", "main.tf", "outputs.tf", "terraform.tfvars"} {
		content := files[filename]
		if content == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(outputDir, filename), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		slog.Info("✅ wrote " + filename)
	}

	return nil
}
