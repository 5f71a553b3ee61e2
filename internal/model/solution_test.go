package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroplan/internal/cp"
)

func solvedBuild(t *testing.T) (*Build, cp.Assignment) {
	t.Helper()
	problem := buildProblem(t,
		[]CalendarEntry{
			{CropName: "tomate 1", CropType: "tomate", Interval: span(t, "2023-04-01", "2023-06-30"), Quantity: 2},
		},
		[]PastPlanEntry{
			{CropName: "courgette 0", CropType: "courgette", Interval: span(t, "2023-01-01", "2023-02-28"), Beds: []int{3}},
		},
	)
	build, err := NewBuilder(problem, nil).Build(nil)
	require.NoError(t, err)
	return build, solve(t, build)
}

func TestDecodeSolution(t *testing.T) {
	t.Run("decodes a valid assignment", func(t *testing.T) {
		// Arrange
		build, assignment := solvedBuild(t)

		// Act
		plan, err := DecodeSolution(build, assignment)

		// Assert
		require.NoError(t, err)
		require.Len(t, plan.Entries, 1)
		assert.Equal(t, "tomate 1", plan.Entries[0].CropName)
		assert.Len(t, plan.Entries[0].Beds, 2)
		assert.NotEqual(t, plan.Entries[0].Beds[0], plan.Entries[0].Beds[1])
	})

	t.Run("rejects an incomplete assignment", func(t *testing.T) {
		build, assignment := solvedBuild(t)
		assignment[1] = cp.Unassigned

		_, err := DecodeSolution(build, assignment)

		var inconsistency *ModelInconsistencyError
		assert.ErrorAs(t, err, &inconsistency)
	})

	t.Run("rejects a constraint-violating assignment", func(t *testing.T) {
		// Arrange: both future slots moved onto the same bed.
		build, assignment := solvedBuild(t)
		assignment[2] = assignment[1]

		// Act
		_, err := DecodeSolution(build, assignment)

		// Assert
		var inconsistency *ModelInconsistencyError
		assert.ErrorAs(t, err, &inconsistency)
	})

	t.Run("rejects a moved past allocation", func(t *testing.T) {
		build, assignment := solvedBuild(t)
		assignment[0] = 1
		assignment[1] = 3

		_, err := DecodeSolution(build, assignment)

		var inconsistency *ModelInconsistencyError
		assert.ErrorAs(t, err, &inconsistency)
	})

	t.Run("rejects a value outside the final domain", func(t *testing.T) {
		build, assignment := solvedBuild(t)
		assignment[1] = 42

		_, err := DecodeSolution(build, assignment)

		var inconsistency *ModelInconsistencyError
		assert.ErrorAs(t, err, &inconsistency)
	})
}

func TestPlanWriteCSV(t *testing.T) {
	// Arrange
	build, assignment := solvedBuild(t)
	plan, err := DecodeSolution(build, assignment)
	require.NoError(t, err)

	// Act
	var out strings.Builder
	require.NoError(t, plan.WriteCSV(&out))

	// Assert: the output round-trips through the past-plan loader.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "crop_name;crop_type;starting_date;ending_date;allocated_beds_ids", lines[0])
	assert.Equal(t, "tomate 1;tomate;2023-04-01;2023-06-30;1,2", lines[1])

	path := writeTable(t, "plan.csv", out.String())
	reloaded, err := LoadPastPlanCSV(path)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, []int{1, 2}, reloaded[0].Beds)
}
