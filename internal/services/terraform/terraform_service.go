package terraform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/movementinfra/movectl/internal/types"
)

// TerraformService drives the terraform binary in a fixed working directory.
// Infrastructure stays declared in HCL; this service only sequences
// init/validate/apply/destroy and reads outputs back.
type TerraformService struct {
	workingDir string
}

func NewTerraformService(workingDir string) (*TerraformService, error) {
	info, err := os.Stat(workingDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("terraform directory not found: %s", workingDir)
	}
	return &TerraformService{workingDir: workingDir}, nil
}

func (t *TerraformService) Init(ctx context.Context, upgrade bool) error {
	slog.Info("🏗️ initializing terraform", "dir", t.workingDir)
	args := []string{"init"}
	if upgrade {
		args = append(args, "-upgrade")
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("terraform init failed: %w", err)
	}
	return nil
}

func (t *TerraformService) Validate(ctx context.Context) error {
	slog.Info("🔍 validating terraform configuration", "dir", t.workingDir)
	if err := t.run(ctx, "validate"); err != nil {
		return fmt.Errorf("terraform validate failed: %w", err)
	}
	return nil
}

func (t *TerraformService) Plan(ctx context.Context, varArgs []string, outFile string) error {
	slog.Info("📋 planning terraform changes", "dir", t.workingDir)
	args := append([]string{"plan"}, varArgs...)
	if outFile != "" {
		args = append(args, "-out", outFile)
	}
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("terraform plan failed: %w", err)
	}
	return nil
}

func (t *TerraformService) Apply(ctx context.Context, varArgs []string) error {
	slog.Info("🚀 applying terraform configuration", "dir", t.workingDir)
	args := []string{"apply", "-auto-approve"}
	args = append(args, varArgs...)
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("terraform apply failed: %w", err)
	}
	slog.Info("✅ terraform applied")
	return nil
}

func (t *TerraformService) Destroy(ctx context.Context, varArgs []string) error {
	slog.Info("💣 destroying terraform infrastructure", "dir", t.workingDir)
	args := []string{"destroy", "-auto-approve"}
	args = append(args, varArgs...)
	if err := t.run(ctx, args...); err != nil {
		return fmt.Errorf("terraform destroy failed: %w", err)
	}
	slog.Info("✅ terraform destroyed")
	return nil
}

// Outputs reads `terraform output -json`. A working directory with no state
// yields empty outputs rather than an error, so callers can use "outputs
// present" as the cluster-already-exists signal.
func (t *TerraformService) Outputs(ctx context.Context) (types.TerraformOutputs, error) {
	stdout, err := t.capture(ctx, "output", "-json")
	if err != nil {
		return types.TerraformOutputs{}, nil
	}
	return types.ParseTerraformOutputs(stdout)
}

// Output reads a single output value.
func (t *TerraformService) Output(ctx context.Context, key string, raw bool) (string, error) {
	args := []string{"output"}
	if raw {
		args = append(args, "-raw")
	}
	args = append(args, key)

	stdout, err := t.capture(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("terraform output %s failed: %w", key, err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// BuildVarArgs converts a variable map into -var arguments. Booleans are
// lowered, slices and maps are JSON encoded, nils are skipped. Keys are
// emitted in sorted order so generated commands are stable.
func BuildVarArgs(variables map[string]any) ([]string, error) {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		if variables[key] == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	varArgs := []string{}
	for _, key := range keys {
		var rendered string
		switch value := variables[key].(type) {
		case bool:
			rendered = fmt.Sprintf("%t", value)
		case string:
			rendered = value
		case int, int64, float64:
			rendered = fmt.Sprintf("%v", value)
		default:
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode terraform variable %s: %w", key, err)
			}
			rendered = string(encoded)
		}
		varArgs = append(varArgs, "-var", fmt.Sprintf("%s=%s", key, rendered))
	}
	return varArgs, nil
}

// run executes terraform with inherited stdio so apply/destroy progress
// streams straight to the operator.
func (t *TerraformService) run(ctx context.Context, args ...string) error {
	slog.Info("→ running terraform", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "terraform", args...)
	cmd.Dir = t.workingDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// capture executes terraform and returns stdout.
func (t *TerraformService) capture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "terraform", args...)
	cmd.Dir = t.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("%w: %s", err, detail)
	}
	return stdout.Bytes(), nil
}
