package types

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "movectl-state.json")

	state := NewState()
	deployment := NewDeployment("test-cluster", "us-east-1", "movement-l1", Topology{ValidatorName: "validator"})
	require.NoError(t, deployment.Transition(context.Background(), EventProvisionInfra))
	deployment.Outputs = map[string]any{"cluster_name": "test-cluster"}
	state.UpsertDeployment(deployment)

	require.NoError(t, state.WriteToFile(stateFile))

	restored, err := NewStateFromFile(stateFile)
	require.NoError(t, err)
	require.Len(t, restored.Deployments, 1)

	got, err := restored.GetDeployment("test-cluster")
	require.NoError(t, err)
	assert.Equal(t, StateInfraProvisioned, got.CurrentState)
	assert.Equal(t, "test-cluster", got.Outputs["cluster_name"])

	// the FSM must be re-armed from the persisted state
	require.NotNil(t, got.FSM)
	require.NoError(t, got.Transition(context.Background(), EventDeployWorkloads))
	assert.Equal(t, StateWorkloadsDeployed, got.CurrentState)
}

func TestNewStateFromFile(t *testing.T) {
	t.Run("missing file yields a fresh state", func(t *testing.T) {
		state, err := NewStateFromFile(filepath.Join(t.TempDir(), "does-not-exist.json"))
		require.NoError(t, err)
		assert.Empty(t, state.Deployments)
	})
}

func TestUpsertDeployment(t *testing.T) {
	state := NewState()

	first := NewDeployment("test-cluster", "us-east-1", "movement-l1", Topology{ValidatorName: "validator"})
	state.UpsertDeployment(first)
	require.Len(t, state.Deployments, 1)

	updated := NewDeployment("test-cluster", "us-west-2", "movement-l1", Topology{ValidatorName: "validator"})
	state.UpsertDeployment(updated)
	require.Len(t, state.Deployments, 1)
	assert.Equal(t, "us-west-2", state.Deployments[0].Region)

	other := NewDeployment("other-cluster", "eu-west-1", "movement-l1", Topology{ValidatorName: "validator"})
	state.UpsertDeployment(other)
	assert.Len(t, state.Deployments, 2)
}

func TestGetDeployment(t *testing.T) {
	state := NewState()
	_, err := state.GetDeployment("nope")
	assert.ErrorContains(t, err, "not found in state file")
}
