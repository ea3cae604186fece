package helm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseValuesMerge(t *testing.T) {
	t.Run("set values", func(t *testing.T) {
		vals := ReleaseValues{
			SetValues: []string{
				"service.type=LoadBalancer",
				"chain.chainId=250",
				"validator.enabled=true",
			},
		}
		merged, err := vals.Merge()
		require.NoError(t, err)

		service, ok := merged["service"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "LoadBalancer", service["type"])

		chain, ok := merged["chain"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, int64(250), chain["chainId"])

		validator, ok := merged["validator"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, validator["enabled"])
	})

	t.Run("value files then set precedence", func(t *testing.T) {
		dir := t.TempDir()
		valuesFile := filepath.Join(dir, "values.yaml")
		require.NoError(t, os.WriteFile(valuesFile, []byte("replicas: 1\nimage:\n  tag: v1.0.0\n"), 0o644))

		vals := ReleaseValues{
			ValueFiles: []string{valuesFile},
			SetValues:  []string{"image.tag=v2.0.0"},
		}
		merged, err := vals.Merge()
		require.NoError(t, err)

		image, ok := merged["image"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "v2.0.0", image["tag"])
		assert.EqualValues(t, 1, merged["replicas"])
	})

	t.Run("set file reads content as value", func(t *testing.T) {
		dir := t.TempDir()
		identityFile := filepath.Join(dir, "identity.yaml")
		require.NoError(t, os.WriteFile(identityFile, []byte("account_address: 0xabc"), 0o644))

		vals := ReleaseValues{
			SetFiles: []string{"identity=" + identityFile},
		}
		merged, err := vals.Merge()
		require.NoError(t, err)
		assert.Equal(t, "account_address: 0xabc", merged["identity"])
	})

	t.Run("empty sources", func(t *testing.T) {
		merged, err := ReleaseValues{}.Merge()
		require.NoError(t, err)
		assert.Empty(t, merged)
	})
}
