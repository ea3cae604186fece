package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TerraformOutputs holds the unwrapped values from `terraform output -json`.
type TerraformOutputs map[string]any

// String returns the output as a string, or the fallback when the key is
// absent or not a string.
func (o TerraformOutputs) String(key, fallback string) string {
	if value, ok := o[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// Bool returns the output as a bool. Terraform booleans arrive as native JSON
// booleans, but string-typed outputs like "true" are tolerated.
func (o TerraformOutputs) Bool(key string) bool {
	switch value := o[key].(type) {
	case bool:
		return value
	case string:
		parsed, err := strconv.ParseBool(value)
		return err == nil && parsed
	default:
		return false
	}
}

// outputValue is the envelope terraform wraps each output in.
type outputValue struct {
	Sensitive bool `json:"sensitive"`
	Value     any  `json:"value"`
}

// ParseTerraformOutputs unwraps the `terraform output -json` envelope.
// Empty input yields empty outputs: a fresh working directory has no state.
func ParseTerraformOutputs(data []byte) (TerraformOutputs, error) {
	outputs := TerraformOutputs{}
	if len(bytes.TrimSpace(data)) == 0 {
		return outputs, nil
	}

	var raw map[string]outputValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse terraform outputs: %w", err)
	}

	for key, wrapped := range raw {
		outputs[key] = wrapped.Value
	}
	return outputs, nil
}

// TerraformVariable describes one variable block in a generated variables.tf.
type TerraformVariable struct {
	Name        string
	Type        string
	Description string
	Sensitive   bool
}

// TerraformProject is a generated, runnable Terraform root module.
type TerraformProject struct {
	ProvidersTf string
	VariablesTf string
	MainTf      string
	OutputsTf   string
	TfvarsTf    string
}

// ClusterInfraRequest parameterizes the generated cluster infrastructure.
type ClusterInfraRequest struct {
	ClusterName       string
	Region            string
	KubernetesVersion string

	VpcCidr            string
	PublicSubnetCidrs  []string
	PrivateSubnetCidrs []string

	NodeInstanceTypes []string
	NodeDesiredSize   int
	NodeMinSize       int
	NodeMaxSize       int

	Namespace   string
	ReleaseName string

	EnableDNS   bool
	DNSZoneName string

	BootstrapS3Bucket string
	BootstrapS3Prefix string
	BootstrapS3Region string

	Tags map[string]string
}

func (r ClusterInfraRequest) Validate() error {
	if r.ClusterName == "" {
		return fmt.Errorf("cluster name must not be empty")
	}
	if r.Region == "" {
		return fmt.Errorf("region must not be empty")
	}
	if r.VpcCidr == "" {
		return fmt.Errorf("vpc cidr must not be empty")
	}
	if len(r.PublicSubnetCidrs) == 0 || len(r.PrivateSubnetCidrs) == 0 {
		return fmt.Errorf("at least one public and one private subnet cidr are required")
	}
	if len(r.NodeInstanceTypes) == 0 {
		return fmt.Errorf("at least one node instance type is required")
	}
	if r.EnableDNS && r.DNSZoneName == "" {
		return fmt.Errorf("dns zone name must not be empty when dns is enabled")
	}
	return nil
}

// BootstrapEnabled reports whether the deployment restores the node database
// from an S3 snapshot.
func (r ClusterInfraRequest) BootstrapEnabled() bool {
	return r.BootstrapS3Bucket != ""
}

// BootstrapS3URI is the s3:// URI of the snapshot prefix.
func (r ClusterInfraRequest) BootstrapS3URI() string {
	if !r.BootstrapEnabled() {
		return ""
	}
	if r.BootstrapS3Prefix == "" {
		return fmt.Sprintf("s3://%s", r.BootstrapS3Bucket)
	}
	return fmt.Sprintf("s3://%s/%s", r.BootstrapS3Bucket, r.BootstrapS3Prefix)
}
