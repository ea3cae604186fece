package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeployment() *Deployment {
	return NewDeployment("test-cluster", "us-east-1", "movement-l1", Topology{ValidatorName: "validator"})
}

func TestNewDeployment(t *testing.T) {
	deployment := newTestDeployment()

	assert.NotEmpty(t, deployment.DeploymentId)
	assert.Equal(t, StateUninitialized, deployment.CurrentState)
	assert.Equal(t, StateUninitialized, deployment.GetCurrentState())
	assert.Equal(t, "test-cluster", deployment.Name)
	assert.False(t, deployment.CreatedAt.IsZero())
}

func TestDeploymentTransitions(t *testing.T) {
	t.Run("happy path walks the full lifecycle", func(t *testing.T) {
		ctx := context.Background()
		deployment := newTestDeployment()

		require.NoError(t, deployment.Transition(ctx, EventProvisionInfra))
		assert.Equal(t, StateInfraProvisioned, deployment.CurrentState)

		require.NoError(t, deployment.Transition(ctx, EventDeployWorkloads))
		assert.Equal(t, StateWorkloadsDeployed, deployment.CurrentState)

		require.NoError(t, deployment.Transition(ctx, EventValidationPassed))
		assert.Equal(t, StateValidated, deployment.CurrentState)

		require.NoError(t, deployment.Transition(ctx, EventDestroy))
		assert.Equal(t, StateDestroyed, deployment.CurrentState)
	})

	t.Run("redeploying workloads is allowed", func(t *testing.T) {
		ctx := context.Background()
		deployment := newTestDeployment()

		require.NoError(t, deployment.Transition(ctx, EventProvisionInfra))
		require.NoError(t, deployment.Transition(ctx, EventDeployWorkloads))
		require.NoError(t, deployment.Transition(ctx, EventDeployWorkloads))
		assert.Equal(t, StateWorkloadsDeployed, deployment.CurrentState)

		require.NoError(t, deployment.Transition(ctx, EventValidationPassed))
		require.NoError(t, deployment.Transition(ctx, EventDeployWorkloads))
		assert.Equal(t, StateWorkloadsDeployed, deployment.CurrentState)
	})

	t.Run("destroyed cluster can be provisioned again", func(t *testing.T) {
		ctx := context.Background()
		deployment := newTestDeployment()

		require.NoError(t, deployment.Transition(ctx, EventProvisionInfra))
		require.NoError(t, deployment.Transition(ctx, EventDestroy))
		require.NoError(t, deployment.Transition(ctx, EventProvisionInfra))
		assert.Equal(t, StateInfraProvisioned, deployment.CurrentState)
	})

	t.Run("workloads cannot be deployed before infrastructure", func(t *testing.T) {
		deployment := newTestDeployment()
		err := deployment.Transition(context.Background(), EventDeployWorkloads)
		assert.ErrorContains(t, err, "cannot transition")
		assert.Equal(t, StateUninitialized, deployment.CurrentState)
	})

	t.Run("destroyed cluster cannot be destroyed again", func(t *testing.T) {
		ctx := context.Background()
		deployment := newTestDeployment()

		require.NoError(t, deployment.Transition(ctx, EventProvisionInfra))
		require.NoError(t, deployment.Transition(ctx, EventDestroy))
		assert.Error(t, deployment.Transition(ctx, EventDestroy))
	})

	t.Run("transition re-arms a nil FSM from the persisted state", func(t *testing.T) {
		deployment := &Deployment{Name: "restored", CurrentState: StateInfraProvisioned}
		require.NoError(t, deployment.Transition(context.Background(), EventDeployWorkloads))
		assert.Equal(t, StateWorkloadsDeployed, deployment.CurrentState)
	})
}
