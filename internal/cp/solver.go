package cp

// Solver solves a CSP instance. It returns a complete satisfying
// assignment, or a nil assignment (with a nil error) when the instance
// is infeasible. Search configuration such as timeouts belongs to the
// concrete backend and is opaque to callers.
type Solver interface {
	Solve(instance Instance) (Assignment, error)
}
