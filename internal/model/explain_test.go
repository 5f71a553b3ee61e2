package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroplan/internal/cp"
)

func newTestSolver() cp.Solver {
	return cp.NewBacktrackSolver(cp.WithMaxNodes(10000))
}

func TestExplainInfeasibility(t *testing.T) {
	calendar := []CalendarEntry{
		{CropName: "tomate 1", CropType: "tomate", Interval: span(t, "2023-04-01", "2023-06-30"), Quantity: 1},
	}
	north := ConstraintSpec{
		"constraint_type":      "compatible_beds",
		"type":                 "enforced",
		"crops_selection_rule": `crop.family == "Solanaceae"`,
		"beds_selection_rule":  `bed.garden == "north"`,
	}
	south := ConstraintSpec{
		"constraint_type":      "compatible_beds",
		"type":                 "enforced",
		"crops_selection_rule": `crop.family == "Solanaceae"`,
		"beds_selection_rule":  `bed.garden == "south"`,
	}

	t.Run("finds the minimal conflicting pair", func(t *testing.T) {
		// Arrange: each constraint is satisfiable alone, contradictory
		// together.
		problem := buildProblem(t, calendar, nil)
		specs := map[string]ConstraintSpec{
			"tomatoes_north": north,
			"tomatoes_south": south,
		}

		// Act
		conflicts, err := ExplainInfeasibility(
			context.Background(), problem, specs, newTestSolver, 0, nil)

		// Assert
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, []string{"tomatoes_north", "tomatoes_south"}, conflicts[0].Constraints)
	})

	t.Run("reports a singleton conflict without probing pairs", func(t *testing.T) {
		// Arrange: a rule matching no bed at all conflicts on its own.
		problem := buildProblem(t, calendar, nil)
		west := ConstraintSpec{
			"constraint_type":      "compatible_beds",
			"type":                 "enforced",
			"crops_selection_rule": `crop.family == "Solanaceae"`,
			"beds_selection_rule":  `bed.garden == "west"`,
		}
		specs := map[string]ConstraintSpec{
			"tomatoes_north": north,
			"tomatoes_west":  west,
		}

		// Act
		conflicts, err := ExplainInfeasibility(
			context.Background(), problem, specs, newTestSolver, 0, nil)

		// Assert
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, []string{"tomatoes_west"}, conflicts[0].Constraints)
	})

	t.Run("satisfiable definitions yield no conflicts", func(t *testing.T) {
		problem := buildProblem(t, calendar, nil)
		specs := map[string]ConstraintSpec{"tomatoes_north": north}

		conflicts, err := ExplainInfeasibility(
			context.Background(), problem, specs, newTestSolver, 0, nil)

		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("respects the size cap", func(t *testing.T) {
		problem := buildProblem(t, calendar, nil)
		specs := map[string]ConstraintSpec{
			"tomatoes_north": north,
			"tomatoes_south": south,
		}

		conflicts, err := ExplainInfeasibility(
			context.Background(), problem, specs, newTestSolver, 1, nil)

		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("propagates build errors", func(t *testing.T) {
		problem := buildProblem(t, calendar, nil)
		specs := map[string]ConstraintSpec{
			"broken": {"constraint_type": "lunar_phases"},
		}

		_, err := ExplainInfeasibility(
			context.Background(), problem, specs, newTestSolver, 0, nil)

		assert.ErrorIs(t, err, ErrUnknownConstraintType)
	})
}

func TestCombinations(t *testing.T) {
	names := []string{"a", "b", "c"}

	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, combinations(names, 1))
	assert.Equal(t, [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}, combinations(names, 2))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, combinations(names, 3))
}
