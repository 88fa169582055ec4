package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
)

// StepDef is one remote command of a scenario.
type StepDef struct {
	Op       string  `yaml:"op"`
	Channel  int     `yaml:"channel"`
	Source   int     `yaml:"source"`
	Value    float64 `yaml:"value"`
	Enable   bool    `yaml:"enable"`
	Coupling string  `yaml:"coupling"`
	Mask     uint32  `yaml:"mask"`
	// ExpectError is a substring of the error the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

func (s StepDef) ToCommand(id string) coremqtt.Command {
	return coremqtt.Command{
		ID:       id,
		Op:       s.Op,
		Channel:  s.Channel,
		Source:   s.Source,
		Value:    s.Value,
		Enable:   s.Enable,
		Coupling: s.Coupling,
		Mask:     s.Mask,
	}
}

// ChannelExpect checks the settled values of one channel. Nil fields are
// not checked.
type ChannelExpect struct {
	Channel       int      `yaml:"channel"`
	USet          *float64 `yaml:"u_set,omitempty"`
	ISet          *float64 `yaml:"i_set,omitempty"`
	OutputEnabled *bool    `yaml:"output_enabled,omitempty"`
	Mode          string   `yaml:"mode,omitempty"`
}

type Expected struct {
	Coupling     string          `yaml:"coupling"`
	TrackingMask uint32          `yaml:"tracking_mask"`
	Events       []string        `yaml:"events"`
	Channels     []ChannelExpect `yaml:"channels"`
}

type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Channels    int       `yaml:"channels,omitempty"`
	Steps       []StepDef `yaml:"steps"`
	Expected    Expected  `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
