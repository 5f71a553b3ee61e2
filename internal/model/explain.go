package model

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agroplan/internal/cp"
)

// Conflict is a set of constraint names that is unsatisfiable on its
// own, together with the base non-overlap model.
type Conflict struct {
	Constraints []string
}

// ExplainInfeasibility searches for small unsatisfiable subsets of the
// constraint definitions. Subsets are probed in increasing size, each
// against a fresh model build; the first size producing conflicts wins
// and larger subsets are not tried, so the reported conflicts are
// minimal with respect to subset size. Probes within a size run
// concurrently.
//
// A probe whose solver exceeds its search budget is inconclusive and
// not reported. An empty result means no conflict of size up to
// maxSize was found.
func ExplainInfeasibility(
	ctx context.Context,
	problem *Problem,
	specs map[string]ConstraintSpec,
	newSolver func() cp.Solver,
	maxSize int,
	logger *zap.Logger,
) ([]Conflict, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)
	if maxSize <= 0 || maxSize > len(names) {
		maxSize = len(names)
	}

	for size := 1; size <= maxSize; size++ {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(4)

		var mu sync.Mutex
		var conflicts []Conflict
		for _, subset := range combinations(names, size) {
			subset := subset
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				unsat, err := probeSubset(problem, specs, subset, newSolver())
				if err != nil {
					return err
				}
				if unsat {
					mu.Lock()
					conflicts = append(conflicts, Conflict{Constraints: subset})
					mu.Unlock()
					logger.Info("found unsatisfiable constraint subset",
						zap.Strings("constraints", subset))
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			slices.SortFunc(conflicts, func(a, b Conflict) int {
				return slices.Compare(a.Constraints, b.Constraints)
			})
			return conflicts, nil
		}
	}
	return nil, nil
}

// probeSubset builds and solves the model restricted to the given
// constraint names. A build failing with an empty domain counts as
// unsatisfiable; a solver budget blow-up counts as inconclusive.
func probeSubset(problem *Problem, specs map[string]ConstraintSpec, subset []string, solver cp.Solver) (bool, error) {
	restricted := make(map[string]ConstraintSpec, len(subset))
	for _, name := range subset {
		restricted[name] = specs[name]
	}

	build, err := NewBuilder(problem, nil).Build(restricted)
	if err != nil {
		var emptyDomain *EmptyDomainError
		if errors.As(err, &emptyDomain) {
			return true, nil
		}
		return false, err
	}

	assignment, err := solver.Solve(build.Instance)
	if err != nil {
		if errors.Is(err, cp.ErrSearchBudgetExceeded) {
			return false, nil
		}
		return false, err
	}
	return assignment == nil, nil
}

// combinations enumerates the k-element subsets of names, preserving
// order within each subset.
func combinations(names []string, k int) [][]string {
	var subsets [][]string
	subset := make([]string, 0, k)
	var pick func(start int)
	pick = func(start int) {
		if len(subset) == k {
			subsets = append(subsets, slices.Clone(subset))
			return
		}
		for i := start; i <= len(names)-(k-len(subset)); i++ {
			subset = append(subset, names[i])
			pick(i + 1)
			subset = subset[:len(subset)-1]
		}
	}
	pick(0)
	return subsets
}
