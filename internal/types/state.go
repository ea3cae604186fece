package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/movementinfra/movectl/internal/build_info"
)

const DefaultStateFile = "movectl-state.json"

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// State is the movectl-state.json file: the deployments this tool manages,
// plus metadata about the build that last wrote it.
type State struct {
	Deployments []Deployment `json:"deployments"`
	BuildInfo   BuildInfo    `json:"build_info"`
	Timestamp   time.Time    `json:"timestamp"`
}

func NewState() *State {
	return &State{
		Deployments: []Deployment{},
		BuildInfo: BuildInfo{
			Version: build_info.Version,
			Commit:  build_info.Commit,
			Date:    build_info.Date,
		},
		Timestamp: time.Now(),
	}
}

// NewStateFromFile loads the state file, re-arming each deployment's FSM from
// its persisted state. A missing file yields a fresh empty state.
func NewStateFromFile(stateFile string) (*State, error) {
	file, err := os.ReadFile(stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(file, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	for i := range state.Deployments {
		state.Deployments[i].initializeFSM(state.Deployments[i].CurrentState)
	}

	return &state, nil
}

func (s *State) WriteToFile(filePath string) error {
	s.BuildInfo = BuildInfo{
		Version: build_info.Version,
		Commit:  build_info.Commit,
		Date:    build_info.Date,
	}
	s.Timestamp = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// UpsertDeployment inserts a new deployment or replaces an existing one by name.
func (s *State) UpsertDeployment(deployment *Deployment) {
	for i, existing := range s.Deployments {
		if existing.Name == deployment.Name {
			s.Deployments[i] = *deployment
			return
		}
	}
	s.Deployments = append(s.Deployments, *deployment)
}

// GetDeployment returns the deployment with the given name.
func (s *State) GetDeployment(name string) (*Deployment, error) {
	for i := range s.Deployments {
		if s.Deployments[i].Name == name {
			return &s.Deployments[i], nil
		}
	}
	return nil, fmt.Errorf("deployment %s not found in state file", name)
}
