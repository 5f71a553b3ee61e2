package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agroplan/internal/cp"
	"agroplan/internal/model"
)

var (
	bedsPath        string
	calendarPath    string
	cropTypesPath   string
	pastPlanPath    string
	constraintsPath string
	outPath         string
	maxNodes        int
	maxConflictSize int
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:           "agroplan",
	Short:         "Crop-planning constraint model builder and solver",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Build the constraint model and search for a bed allocation",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		problem, specs, err := loadInputs()
		if err != nil {
			return err
		}

		build, err := model.NewBuilder(problem, logger).Build(specs)
		if err != nil {
			return err
		}

		solver := cp.NewBacktrackSolver(cp.WithMaxNodes(maxNodes))
		assignment, err := solver.Solve(build.Instance)
		if err != nil {
			return err
		}
		if assignment == nil {
			logger.Warn("no feasible crop plan exists for these constraints")
			return fmt.Errorf("infeasible: run \"agroplan explain\" to find conflicting constraints")
		}

		plan, err := model.DecodeSolution(build, assignment)
		if err != nil {
			return err
		}

		out := os.Stdout
		if outPath != "" {
			file, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}
		if err := plan.WriteCSV(out); err != nil {
			return err
		}
		logger.Info("crop plan written",
			zap.Int("entries", len(plan.Entries)),
			zap.String("out", outPath),
		)
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Search for small unsatisfiable subsets of the constraint definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		problem, specs, err := loadInputs()
		if err != nil {
			return err
		}

		newSolver := func() cp.Solver {
			return cp.NewBacktrackSolver(cp.WithMaxNodes(maxNodes))
		}
		conflicts, err := model.ExplainInfeasibility(
			cmd.Context(), problem, specs, newSolver, maxConflictSize, logger)
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("no unsatisfiable constraint subset found")
			return nil
		}
		for _, conflict := range conflicts {
			fmt.Printf("unsatisfiable together: %v\n", conflict.Constraints)
		}
		return nil
	},
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadInputs() (*model.Problem, map[string]model.ConstraintSpec, error) {
	beds, err := model.LoadBedsCSV(bedsPath)
	if err != nil {
		return nil, nil, err
	}
	calendar, err := model.LoadCalendarCSV(calendarPath)
	if err != nil {
		return nil, nil, err
	}
	var cropTypes map[string]model.CropType
	if cropTypesPath != "" {
		if cropTypes, err = model.LoadCropTypesCSV(cropTypesPath); err != nil {
			return nil, nil, err
		}
	}
	var pastPlan []model.PastPlanEntry
	if pastPlanPath != "" {
		if pastPlan, err = model.LoadPastPlanCSV(pastPlanPath); err != nil {
			return nil, nil, err
		}
	}

	problem, err := model.NewProblem(beds, cropTypes, calendar, pastPlan)
	if err != nil {
		return nil, nil, err
	}

	specs := map[string]model.ConstraintSpec{}
	if constraintsPath != "" {
		if specs, err = model.LoadConstraintDefinitions(constraintsPath); err != nil {
			return nil, nil, err
		}
	}
	return problem, specs, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&bedsPath, "beds", "", "beds table (semicolon CSV)")
	flags.StringVar(&calendarPath, "calendar", "", "future crop calendar (semicolon CSV)")
	flags.StringVar(&cropTypesPath, "crop-types", "", "crop type attributes table (optional)")
	flags.StringVar(&pastPlanPath, "past", "", "past crop plan table (optional)")
	flags.StringVar(&constraintsPath, "constraints", "", "constraint definitions (YAML)")
	flags.IntVar(&maxNodes, "max-nodes", 0, "solver search-node budget, 0 for unbounded")
	flags.BoolVarP(&verbose, "verbose", "v", false, "development logging")
	rootCmd.MarkPersistentFlagRequired("beds")
	rootCmd.MarkPersistentFlagRequired("calendar")

	solveCmd.Flags().StringVar(&outPath, "out", "", "write the solved plan here instead of stdout")
	explainCmd.Flags().IntVar(&maxConflictSize, "max-size", 3, "largest constraint subset to probe")

	rootCmd.AddCommand(solveCmd, explainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
