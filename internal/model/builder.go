package model

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"agroplan/internal/cp"
)

// Slot is one unit of bed demand: a calendar entry asking for quantity
// n expands to n slots, and each past allocation contributes one fixed
// slot per occupied bed. Every slot becomes a decision variable whose
// domain is its candidate beds.
type Slot struct {
	Past     bool
	Entry    int // index into Problem.Calendar, or Problem.PastPlan when Past
	Index    int // position within the entry's expansion
	CropName string
	CropType string
	Interval Interval
	FixedBed int // occupied bed, past slots only
}

func (s Slot) describe() string {
	if s.Past {
		return fmt.Sprintf("past crop %q on bed %d", s.CropName, s.FixedBed)
	}
	return fmt.Sprintf("crop %q slot %d starting %s", s.CropName, s.Index, s.Interval.Start.Format("2006-01-02"))
}

// GroupPreference is a soft crop-grouping wish the solver is free to
// ignore; it is reported alongside the model so callers can score
// solutions by how many groups ended up contiguous.
type GroupPreference struct {
	Constraint    string
	AdjacencyType string
	GroupValue    string
	Slots         []int
}

// Build is the finished constraint model: the expanded slots, their
// final candidate-bed domains, and the CSP instance ready for a solver.
type Build struct {
	Problem     *Problem
	Slots       []Slot
	Domains     [][]int
	Instance    cp.Instance
	Preferences []GroupPreference
}

// Builder translates a problem plus a constraint-definitions dictionary
// into a CSP instance. A Builder is single-use: make a fresh one per
// Build call.
type Builder struct {
	problem *Problem
	logger  *zap.Logger

	slots       []Slot
	domains     [][]int
	history     [][]string
	constraints []cp.Constraint
	preferences []GroupPreference
}

// NewBuilder returns a builder over the given problem. A nil logger
// disables build diagnostics.
func NewBuilder(problem *Problem, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{problem: problem, logger: logger}
}

// Build expands slots, posts the base non-overlap and symmetry-breaking
// constraints, then translates every definition in deterministic name
// order. Any constraint error aborts the build.
func (b *Builder) Build(specs map[string]ConstraintSpec) (*Build, error) {
	b.expandSlots()
	if err := b.postBaseConstraints(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		spec := specs[name]
		constraintType, ok := spec["constraint_type"].(string)
		if !ok {
			return nil, specError(name, fmt.Errorf("%w: constraint_type", ErrMissingParameter))
		}

		var err error
		switch constraintType {
		case "compatible_beds":
			err = b.postCompatibleBeds(name, spec)
		case "return_delays":
			err = b.postReturnDelays(name, spec)
		case "precedence":
			err = b.postPrecedence(name, spec)
		case "spatial_interactions":
			err = b.postSpatialInteractions(name, spec)
		case "group_crops":
			err = b.postGroupCrops(name, spec)
		default:
			err = specError(name, fmt.Errorf("%w: %q", ErrUnknownConstraintType, constraintType))
		}
		if err != nil {
			return nil, err
		}
		b.logger.Debug("posted constraint",
			zap.String("name", name),
			zap.String("type", constraintType),
		)
	}

	variables := make([]cp.Variable, len(b.slots))
	for i, slot := range b.slots {
		name := fmt.Sprintf("a_%d", i)
		if slot.Past {
			name = fmt.Sprintf("past_a_%d", i)
		}
		variables[i] = cp.Variable{Name: name, Domain: slices.Clone(b.domains[i])}
	}

	b.logger.Info("model built",
		zap.Int("slots", len(b.slots)),
		zap.Int("constraints", len(b.constraints)),
		zap.Int("preferences", len(b.preferences)),
	)
	return &Build{
		Problem:     b.problem,
		Slots:       b.slots,
		Domains:     b.domains,
		Instance:    cp.Instance{Variables: variables, Constraints: b.constraints},
		Preferences: b.preferences,
	}, nil
}

// expandSlots lays out past slots first (one per occupied bed, with a
// singleton domain), then the future slots in calendar order. The
// calendar was sorted by NewProblem, so the layout is deterministic.
func (b *Builder) expandSlots() {
	for entry, past := range b.problem.PastPlan {
		for index, bed := range past.Beds {
			b.slots = append(b.slots, Slot{
				Past:     true,
				Entry:    entry,
				Index:    index,
				CropName: past.CropName,
				CropType: past.CropType,
				Interval: past.Interval,
				FixedBed: bed,
			})
			b.domains = append(b.domains, []int{bed})
			b.history = append(b.history, nil)
		}
	}
	for entry, demand := range b.problem.Calendar {
		for index := 0; index < demand.Quantity; index++ {
			b.slots = append(b.slots, Slot{
				Entry:    entry,
				Index:    index,
				CropName: demand.CropName,
				CropType: demand.CropType,
				Interval: demand.Interval,
				FixedBed: cp.Unassigned,
			})
			b.domains = append(b.domains, slices.Clone(b.problem.BedIDs()))
			b.history = append(b.history, nil)
		}
	}
}

// postBaseConstraints posts one all-different per maximal clique of the
// slot interval graph (covering past and future slots alike) and one
// strictly-increasing ordering per interchangeable slot group, breaking
// the permutation symmetry between a demand's identical slots.
func (b *Builder) postBaseConstraints() error {
	intervals := make([]Interval, len(b.slots))
	for i, slot := range b.slots {
		intervals[i] = slot.Interval
	}
	graph, err := BuildIntervalGraph(intervals)
	if err != nil {
		return err
	}
	for _, clique := range graph.MaximalCliques() {
		if len(clique) < 2 {
			continue
		}
		b.constraints = append(b.constraints, cp.AllDifferent{
			Name: "non_overlapping_assignments",
			Vars: clique,
		})
	}

	groups := map[int][]int{}
	for i, slot := range b.slots {
		if !slot.Past {
			groups[slot.Entry] = append(groups[slot.Entry], i)
		}
	}
	entries := make([]int, 0, len(groups))
	for entry := range groups {
		entries = append(entries, entry)
	}
	slices.Sort(entries)
	for _, entry := range entries {
		if len(groups[entry]) < 2 {
			continue
		}
		b.constraints = append(b.constraints, cp.Increasing{
			Name: "symmetry_breaking",
			Vars: groups[entry],
		})
	}
	return nil
}

// futureSlots yields the indices of the non-past slots.
func (b *Builder) futureSlots() []int {
	var future []int
	for i, slot := range b.slots {
		if !slot.Past {
			future = append(future, i)
		}
	}
	return future
}

func (b *Builder) cropRecord(slot Slot) map[string]any {
	return b.problem.CropRecord(slot.CropName, slot.CropType, slot.Interval)
}

// restrictDomain intersects a future slot's domain with the allowed
// beds, failing with EmptyDomainError when nothing survives.
func (b *Builder) restrictDomain(slot int, allowed map[int]bool, constraint string) error {
	kept := b.domains[slot][:0:0]
	var removed []int
	for _, bed := range b.domains[slot] {
		if allowed[bed] {
			kept = append(kept, bed)
		} else {
			removed = append(removed, bed)
		}
	}
	return b.applyDomainChange(slot, kept, removed, constraint)
}

// removeFromDomain subtracts the forbidden beds from a future slot's
// domain.
func (b *Builder) removeFromDomain(slot int, forbidden map[int]bool, constraint string) error {
	kept := b.domains[slot][:0:0]
	var removed []int
	for _, bed := range b.domains[slot] {
		if forbidden[bed] {
			removed = append(removed, bed)
		} else {
			kept = append(kept, bed)
		}
	}
	return b.applyDomainChange(slot, kept, removed, constraint)
}

func (b *Builder) applyDomainChange(slot int, kept, removed []int, constraint string) error {
	if len(removed) == 0 {
		return nil
	}
	b.domains[slot] = kept
	b.history[slot] = append(b.history[slot],
		fmt.Sprintf("%q removed beds %v", constraint, removed))
	if len(kept) == 0 {
		return &EmptyDomainError{
			Constraint: constraint,
			Slot:       b.slots[slot].describe(),
			History:    b.history[slot],
		}
	}
	return nil
}

// groupKey renders a crop attribute value as a stable grouping key.
func groupKey(value any) string {
	return fmt.Sprint(value)
}

// sortedGroupValues returns the group keys in deterministic order.
func sortedGroupValues(groups map[string][]int) []string {
	values := make([]string, 0, len(groups))
	for value := range groups {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
