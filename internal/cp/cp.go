package cp

import "slices"

// Unassigned marks a variable without a value in a partial assignment.
const Unassigned = -1

// Variable is an integer decision variable with a finite domain.
// The domain is sorted ascending and must not be empty.
type Variable struct {
	Name   string
	Domain []int
}

// Assignment holds one value per variable, indexed by variable position.
type Assignment []int

// Complete reports whether every variable has a value.
func (a Assignment) Complete() bool {
	return !slices.Contains(a, Unassigned)
}

// Instance is a fully-built CSP handed to a Solver. It is immutable once
// built: solvers must not mutate variables or constraints.
type Instance struct {
	Variables   []Variable
	Constraints []Constraint
}

// Constraint is an atomic constraint over a subset of the variables.
//
// Check must accept partial assignments: it returns false only if the
// assigned values already violate the constraint, and true whenever the
// constraint could still be satisfied by completing the assignment.
type Constraint interface {
	// Group returns the name of the constraint group this constraint
	// was posted under, used for diagnostics and conflict reporting.
	Group() string
	// Scope returns the indices of the constrained variables.
	Scope() []int
	Check(assignment Assignment) bool
}

// AllDifferent requires all scoped variables to take pairwise distinct values.
type AllDifferent struct {
	Name string
	Vars []int
}

func (c AllDifferent) Group() string { return c.Name }
func (c AllDifferent) Scope() []int  { return c.Vars }

func (c AllDifferent) Check(assignment Assignment) bool {
	seen := make(map[int]struct{}, len(c.Vars))
	for _, v := range c.Vars {
		value := assignment[v]
		if value == Unassigned {
			continue
		}
		if _, ok := seen[value]; ok {
			return false
		}
		seen[value] = struct{}{}
	}
	return true
}

// AllEqual requires all scoped variables to take the same value.
type AllEqual struct {
	Name string
	Vars []int
}

func (c AllEqual) Group() string { return c.Name }
func (c AllEqual) Scope() []int  { return c.Vars }

func (c AllEqual) Check(assignment Assignment) bool {
	value := Unassigned
	for _, v := range c.Vars {
		if assignment[v] == Unassigned {
			continue
		}
		if value == Unassigned {
			value = assignment[v]
		} else if assignment[v] != value {
			return false
		}
	}
	return true
}

// NotEqual is a binary dis-equality constraint.
type NotEqual struct {
	Name string
	X, Y int
}

func (c NotEqual) Group() string { return c.Name }
func (c NotEqual) Scope() []int  { return []int{c.X, c.Y} }

func (c NotEqual) Check(assignment Assignment) bool {
	x, y := assignment[c.X], assignment[c.Y]
	return x == Unassigned || y == Unassigned || x != y
}

// Equal is a binary equality constraint.
type Equal struct {
	Name string
	X, Y int
}

func (c Equal) Group() string { return c.Name }
func (c Equal) Scope() []int  { return []int{c.X, c.Y} }

func (c Equal) Check(assignment Assignment) bool {
	x, y := assignment[c.X], assignment[c.Y]
	return x == Unassigned || y == Unassigned || x == y
}

// Table constrains the scoped variables to (if Feasible) or away from
// (if not) an explicit list of value tuples.
type Table struct {
	Name     string
	Vars     []int
	Tuples   [][]int
	Feasible bool
}

func (c Table) Group() string { return c.Name }
func (c Table) Scope() []int  { return c.Vars }

func (c Table) Check(assignment Assignment) bool {
	values := make([]int, len(c.Vars))
	for i, v := range c.Vars {
		if assignment[v] == Unassigned {
			return true
		}
		values[i] = assignment[v]
	}
	matched := slices.ContainsFunc(c.Tuples, func(tuple []int) bool {
		return slices.Equal(tuple, values)
	})
	return matched == c.Feasible
}

// Increasing requires the scoped variables to take strictly increasing
// values, used to break symmetries between interchangeable slots.
type Increasing struct {
	Name string
	Vars []int
}

func (c Increasing) Group() string { return c.Name }
func (c Increasing) Scope() []int  { return c.Vars }

func (c Increasing) Check(assignment Assignment) bool {
	previous := Unassigned
	for _, v := range c.Vars {
		value := assignment[v]
		if value == Unassigned {
			continue
		}
		if previous != Unassigned && value <= previous {
			return false
		}
		previous = value
	}
	return true
}
