package condition

import (
	"errors"
	"fmt"
)

// ErrMalformedCondition is matched by every error Parse and Evaluate return.
var ErrMalformedCondition = errors.New("malformed condition")

// MalformedConditionError reports a fragment of a filter expression that
// could not be understood. Fragment is empty for structural errors.
type MalformedConditionError struct {
	Expression string
	Fragment   string
	Reason     string
}

func (e *MalformedConditionError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("malformed condition %q: %s", e.Expression, e.Reason)
	}
	return fmt.Sprintf("malformed condition %q: %s in %q", e.Expression, e.Reason, e.Fragment)
}

func (e *MalformedConditionError) Unwrap() error {
	return ErrMalformedCondition
}
