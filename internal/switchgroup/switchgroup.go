// Package switchgroup encodes and decodes multi-value "switch group" parameters,
// e.g. "sw_a:on&sw_b:off".
package switchgroup

import "strings"

// Delimiters in priority order. Decode uses the first one present for the whole string.
var delimiters = []string{"&", ",", ";"}

// StateMap maps switch names to state tokens, remembering insertion order.
type StateMap struct {
	names  []string
	states map[string]string
}

// NewStateMap returns an empty StateMap.
func NewStateMap() *StateMap {
	return &StateMap{states: make(map[string]string)}
}

// Set assigns state to name. Re-setting an existing switch keeps its original position.
func (m *StateMap) Set(name, state string) {
	if m.states == nil {
		m.states = make(map[string]string)
	}
	if _, ok := m.states[name]; !ok {
		m.names = append(m.names, name)
	}
	m.states[name] = state
}

// Get returns the state of name and whether it is present.
func (m *StateMap) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	state, ok := m.states[name]
	return state, ok
}

// Names returns switch names in insertion order.
func (m *StateMap) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Len returns the number of switches.
func (m *StateMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Decode parses a switch group string. Tokens without ':' are dropped.
func Decode(text string) *StateMap {
	result := NewStateMap()
	for _, part := range split(text) {
		name, state, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		result.Set(strings.TrimSpace(name), strings.TrimSpace(state))
	}
	return result
}

// Encode renders the map as "name:state" pairs joined by '&'.
func Encode(m *StateMap) string {
	if m.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, m.Len())
	for _, name := range m.names {
		parts = append(parts, name+":"+m.states[name])
	}
	return strings.Join(parts, "&")
}

func split(text string) []string {
	for _, sep := range delimiters {
		if strings.Contains(text, sep) {
			return strings.Split(text, sep)
		}
	}
	return []string{text}
}

// DescribeSwitches parses a value description of the form
// "switch:meaning;switch:meaning" into switch -> meaning.
func DescribeSwitches(valueDescription string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(valueDescription, ";") {
		name, meaning, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		result[name] = strings.TrimSpace(meaning)
	}
	return result
}
