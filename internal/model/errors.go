package model

import (
	"errors"
	"fmt"
	"strings"
)

// Build-time error taxonomy. Data errors are raised at load time,
// constraint-spec errors while translating the definitions dictionary.
// All of them abort model construction: no partial model is ever handed
// to the solver.
var (
	ErrDataIntegrity              = errors.New("data integrity violation")
	ErrDanglingAdjacencyReference = errors.New("adjacency list references unknown bed")
	ErrUnknownAdjacencyType       = errors.New("unknown adjacency type")
	ErrUnknownConstraintType      = errors.New("unknown constraint type")
	ErrMissingParameter           = errors.New("missing required parameter")
	ErrUndefinedAttribute         = errors.New("undefined attribute in rule")
)

// EmptyDomainError reports a slot whose candidate-bed domain was
// restricted down to nothing. It carries the full removal history so
// the user can see which rules to relax.
type EmptyDomainError struct {
	Constraint string
	Slot       string
	History    []string
}

func (e *EmptyDomainError) Error() string {
	return fmt.Sprintf(
		"constraint %q leaves no candidate bed for slot %s (removals: %s)",
		e.Constraint, e.Slot, strings.Join(e.History, "; "),
	)
}

// ModelInconsistencyError means the decoder found a solver-accepted
// assignment violating a posted constraint. It indicates a builder bug,
// never a data problem.
type ModelInconsistencyError struct {
	Detail string
}

func (e *ModelInconsistencyError) Error() string {
	return "model inconsistency: " + e.Detail
}

func specError(name string, err error) error {
	return fmt.Errorf("constraint %q: %w", name, err)
}
