package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindEnvToFlags(t *testing.T) {
	t.Run("env var fills an unset flag", func(t *testing.T) {
		t.Setenv("CLUSTER_NAME", "from-env")

		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("cluster-name", "", "")

		require.NoError(t, BindEnvToFlags(cmd))

		value, err := cmd.Flags().GetString("cluster-name")
		require.NoError(t, err)
		assert.Equal(t, "from-env", value)
	})

	t.Run("explicit flag wins over env var", func(t *testing.T) {
		t.Setenv("CLUSTER_NAME", "from-env")

		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("cluster-name", "", "")
		require.NoError(t, cmd.Flags().Set("cluster-name", "from-flag"))

		require.NoError(t, BindEnvToFlags(cmd))

		value, err := cmd.Flags().GetString("cluster-name")
		require.NoError(t, err)
		assert.Equal(t, "from-flag", value)
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("exports entries into the environment", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("REGION=us-east-1\n"), 0644))
		t.Setenv("REGION", "")
		os.Unsetenv("REGION")

		require.NoError(t, LoadEnvFile(envFile))
		assert.Equal(t, "us-east-1", os.Getenv("REGION"))
	})

	t.Run("existing environment wins over file entries", func(t *testing.T) {
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("REGION=us-east-1\n"), 0644))
		t.Setenv("REGION", "eu-west-1")

		require.NoError(t, LoadEnvFile(envFile))
		assert.Equal(t, "eu-west-1", os.Getenv("REGION"))
	})

	t.Run("missing file errors", func(t *testing.T) {
		err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorContains(t, err, "environment file not found")
	})
}

func TestParseBoolFlag(t *testing.T) {
	parsed, err := ParseBoolFlag("deploy-vfn", "true")
	require.NoError(t, err)
	assert.True(t, parsed)

	parsed, err = ParseBoolFlag("deploy-vfn", "false")
	require.NoError(t, err)
	assert.False(t, parsed)

	_, err = ParseBoolFlag("deploy-vfn", "yes please")
	assert.ErrorContains(t, err, "invalid value for --deploy-vfn")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitAndTrim(" a, b ,c"))
	assert.Equal(t, []string{"a"}, SplitAndTrim("a,,"))
	assert.Empty(t, SplitAndTrim(""))
	assert.Empty(t, SplitAndTrim(" , "))
}
