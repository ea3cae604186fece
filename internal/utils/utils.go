package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// sets flag values from corresponding environment variables if flags weren't explicitly provided
func BindEnvToFlags(cmd *cobra.Command) error {
	v := viper.New()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		flagName := f.Name

		// Convert flag name to environment variable name
		// e.g., "vpc-cidr" -> "VPC_CIDR"
		envVarName := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		v.BindEnv(flagName, envVarName)

		// If the flag wasn't explicitly set via command line
		// AND
		// there's a value available from environment,
		// THEN
		// set the flag value from the environment
		if !f.Changed && v.IsSet(flagName) {
			val := v.Get(flagName)
			cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})

	return nil
}

// LoadEnvFile reads a .env style file and exports its entries into the
// process environment so that BindEnvToFlags can pick them up. Values already
// present in the environment win over file entries.
func LoadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		return fmt.Errorf("environment file not found: %s", envFile)
	}

	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read environment file %s: %w", envFile, err)
	}

	for _, key := range v.AllKeys() {
		envVarName := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if _, exists := os.LookupEnv(envVarName); exists {
			continue
		}
		os.Setenv(envVarName, fmt.Sprintf("%v", v.Get(key)))
	}

	return nil
}

// Parsing flags from string to boolean. Opted for this approach to make the inputs appear as more natural syntax.
// --deploy-vfn=false vs --deploy-vfn false
func ParseBoolFlag(flagName, value string) (bool, error) {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for --%s: must be 'true' or 'false', got '%s'", flagName, value)
	}
	return parsed, nil
}

// SplitAndTrim splits a comma separated flag value into trimmed, non-empty parts.
func SplitAndTrim(raw string) []string {
	parts := []string{}
	for part := range strings.SplitSeq(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
