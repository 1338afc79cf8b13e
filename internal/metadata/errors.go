package metadata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")
	ErrCyclicRuleChain      = errors.New("cyclic rule chain")
	ErrUnknownParameter     = errors.New("unknown parameter")
)

// CyclicRuleChainError names the rules of a next_rule loop, starting and ending with the same id.
type CyclicRuleChainError struct {
	MOName string
	Chain  []string
}

func (e *CyclicRuleChainError) Error() string {
	return fmt.Sprintf("cyclic rule chain in %s: %s", e.MOName, strings.Join(e.Chain, " -> "))
}

func (e *CyclicRuleChainError) Unwrap() error {
	return ErrCyclicRuleChain
}

type UnknownParameterError struct {
	MOName    string
	RuleID    string
	Parameter string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("rule %s references unknown parameter %s.%s", e.RuleID, e.MOName, e.Parameter)
}

func (e *UnknownParameterError) Unwrap() error {
	return ErrUnknownParameter
}
