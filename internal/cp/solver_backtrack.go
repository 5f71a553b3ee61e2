package cp

import (
	"errors"
	"sort"
)

// ErrSearchBudgetExceeded is returned when the backtracking backend
// exhausts its node budget before proving feasibility or infeasibility.
var ErrSearchBudgetExceeded = errors.New("cp: search node budget exceeded")

type backtrackSolver struct {
	maxNodes int
}

// BacktrackOption configures the bundled backtracking backend.
type BacktrackOption func(*backtrackSolver)

// WithMaxNodes bounds the number of search nodes explored. Zero means
// unbounded.
func WithMaxNodes(n int) BacktrackOption {
	return func(s *backtrackSolver) { s.maxNodes = n }
}

// NewBacktrackSolver returns an in-process chronological backtracking
// solver with smallest-domain-first variable ordering. It is adequate
// for the bed counts this layer targets; larger deployments can plug
// any CSP engine in behind the Solver interface.
func NewBacktrackSolver(options ...BacktrackOption) Solver {
	solver := &backtrackSolver{}
	for _, option := range options {
		option(solver)
	}
	return solver
}

func (s *backtrackSolver) Solve(instance Instance) (Assignment, error) {
	assignment := make(Assignment, len(instance.Variables))
	for i := range assignment {
		assignment[i] = Unassigned
	}

	// Constraints indexed by variable, so each tentative value only
	// re-checks the constraints it can affect.
	watching := make([][]Constraint, len(instance.Variables))
	for _, constraint := range instance.Constraints {
		for _, v := range constraint.Scope() {
			watching[v] = append(watching[v], constraint)
		}
	}

	// Static smallest-domain-first ordering.
	order := make([]int, len(instance.Variables))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(instance.Variables[order[a]].Domain) < len(instance.Variables[order[b]].Domain)
	})

	nodes := 0
	var search func(depth int) (bool, error)
	search = func(depth int) (bool, error) {
		if depth == len(order) {
			return true, nil
		}
		v := order[depth]
		for _, value := range instance.Variables[v].Domain {
			nodes++
			if s.maxNodes > 0 && nodes > s.maxNodes {
				return false, ErrSearchBudgetExceeded
			}
			assignment[v] = value
			if s.consistent(watching[v], assignment) {
				ok, err := search(depth + 1)
				if ok || err != nil {
					return ok, err
				}
			}
			assignment[v] = Unassigned
		}
		return false, nil
	}

	ok, err := search(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return assignment, nil
}

func (s *backtrackSolver) consistent(constraints []Constraint, assignment Assignment) bool {
	for _, constraint := range constraints {
		if !constraint.Check(assignment) {
			return false
		}
	}
	return true
}
