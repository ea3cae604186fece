package types

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// FSM State constants
const (
	StateUninitialized     = "uninitialized"
	StateInfraProvisioned  = "infra_provisioned"
	StateWorkloadsDeployed = "workloads_deployed"
	StateValidated         = "validated"
	StateDestroyed         = "destroyed"
)

// FSM Event constants
const (
	EventProvisionInfra   = "provision_infra"
	EventDeployWorkloads  = "deploy_workloads"
	EventValidationPassed = "validation_passed"
	EventDestroy          = "destroy"
)

// Deployment tracks one validator cluster through its lifecycle with a
// finite state machine.
type Deployment struct {
	DeploymentId string   `json:"deployment_id"`
	CurrentState string   `json:"current_state"`
	FSM          *fsm.FSM `json:"-"`

	Name      string   `json:"name"`
	Region    string   `json:"region"`
	Namespace string   `json:"namespace"`
	Topology  Topology `json:"topology"`

	// Snapshot of the Terraform outputs from the last apply, kept so that
	// status and destroy work without re-reading terraform state.
	Outputs map[string]any `json:"outputs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Deployment) initializeFSM(initialState string) {
	d.FSM = fsm.NewFSM(
		initialState,
		fsm.Events{
			{Name: EventProvisionInfra, Src: []string{StateUninitialized, StateDestroyed}, Dst: StateInfraProvisioned},
			{Name: EventDeployWorkloads, Src: []string{StateInfraProvisioned, StateWorkloadsDeployed, StateValidated}, Dst: StateWorkloadsDeployed},
			{Name: EventValidationPassed, Src: []string{StateWorkloadsDeployed}, Dst: StateValidated},
			{Name: EventDestroy, Src: []string{StateUninitialized, StateInfraProvisioned, StateWorkloadsDeployed, StateValidated}, Dst: StateDestroyed},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				d.CurrentState = d.FSM.Current()
				d.UpdatedAt = time.Now()
			},
		},
	)
}

// NewDeployment creates a new Deployment starting in the uninitialized state.
func NewDeployment(name, region, namespace string, topology Topology) *Deployment {
	now := time.Now()
	d := &Deployment{
		DeploymentId: uuid.New().String(),
		CurrentState: StateUninitialized,
		Name:         name,
		Region:       region,
		Namespace:    namespace,
		Topology:     topology,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	d.initializeFSM(StateUninitialized)

	return d
}

// Transition fires an FSM event; invalid transitions are returned as errors.
func (d *Deployment) Transition(ctx context.Context, event string) error {
	if d.FSM == nil {
		d.initializeFSM(d.CurrentState)
	}
	if err := d.FSM.Event(ctx, event); err != nil {
		// Self-loops like redeploying workloads surface as NoTransitionError.
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			d.UpdatedAt = time.Now()
			return nil
		}
		return fmt.Errorf("deployment %s cannot transition with event %q from state %q: %w", d.Name, event, d.CurrentState, err)
	}
	return nil
}

func (d *Deployment) GetCurrentState() string {
	if d.FSM == nil {
		return d.CurrentState
	}
	return d.FSM.Current()
}
