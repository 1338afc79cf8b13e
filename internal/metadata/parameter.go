package metadata

import (
	"fmt"
	"strings"
)

type ParameterType string

const (
	ParameterSingle   ParameterType = "single"
	ParameterMultiple ParameterType = "multiple"
)

// ParseParameterType accepts the type names case-insensitively.
func ParseParameterType(text string) (ParameterType, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "single":
		return ParameterSingle, nil
	case "multiple":
		return ParameterMultiple, nil
	}
	return "", fmt.Errorf("unknown parameter type %q", text)
}

// ParameterDefinition describes one parameter of a managed object.
type ParameterDefinition struct {
	MOName           string        `json:"mo_name" yaml:"mo_name"`
	MODescription    string        `json:"mo_description,omitempty" yaml:"mo_description,omitempty"`
	Scenario         string        `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Name             string        `json:"parameter_name" yaml:"parameter_name"`
	ID               string        `json:"parameter_id" yaml:"parameter_id"`
	Type             ParameterType `json:"parameter_type" yaml:"parameter_type"`
	Meaning          string        `json:"parameter_meaning,omitempty" yaml:"parameter_meaning,omitempty"`
	ValueDescription string        `json:"value_description,omitempty" yaml:"value_description,omitempty"`

	// Switches holds the per-switch meaning parsed from ValueDescription (set at load time).
	Switches map[string]string `json:"-" yaml:"-"`
}

// IsMultiple returns true for switch-group parameters.
func (p *ParameterDefinition) IsMultiple() bool {
	return p.Type == ParameterMultiple
}

// CommandID returns the identifier used in corrective commands, falling back to the name.
func (p *ParameterDefinition) CommandID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Name
}

type parameterKey struct {
	mo   string
	name string
}
