package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"agroplan/internal/cp"
)

// PlanEntry is one solved calendar line: the demanded crop with the
// distinct beds allocated to it.
type PlanEntry struct {
	CropName string
	CropType string
	Interval Interval
	Beds     []int
}

// Plan is a decoded bed allocation for the future calendar, in calendar
// order. Past allocations are not repeated here.
type Plan struct {
	Entries []PlanEntry
}

// DecodeSolution turns a solver assignment back into a crop plan. The
// assignment is re-validated against the built model: an incomplete or
// constraint-violating assignment means the solver backend misbehaved
// and yields a ModelInconsistencyError.
func DecodeSolution(build *Build, assignment cp.Assignment) (*Plan, error) {
	if len(assignment) != len(build.Slots) {
		return nil, &ModelInconsistencyError{
			Detail: fmt.Sprintf("assignment has %d values for %d slots", len(assignment), len(build.Slots)),
		}
	}
	if !assignment.Complete() {
		return nil, &ModelInconsistencyError{Detail: "assignment is incomplete"}
	}
	for i, slot := range build.Slots {
		if !slices.Contains(build.Domains[i], assignment[i]) {
			return nil, &ModelInconsistencyError{
				Detail: fmt.Sprintf("%s assigned bed %d outside its domain", slot.describe(), assignment[i]),
			}
		}
		if slot.Past && assignment[i] != slot.FixedBed {
			return nil, &ModelInconsistencyError{
				Detail: fmt.Sprintf("%s moved to bed %d", slot.describe(), assignment[i]),
			}
		}
	}
	for _, constraint := range build.Instance.Constraints {
		if !constraint.Check(assignment) {
			return nil, &ModelInconsistencyError{
				Detail: fmt.Sprintf("assignment violates constraint %q", constraint.Group()),
			}
		}
	}

	beds := make(map[int][]int, len(build.Problem.Calendar))
	for i, slot := range build.Slots {
		if !slot.Past {
			beds[slot.Entry] = append(beds[slot.Entry], assignment[i])
		}
	}

	plan := &Plan{}
	for entry, demand := range build.Problem.Calendar {
		allocated := beds[entry]
		slices.Sort(allocated)
		if len(lo.Uniq(allocated)) != demand.Quantity {
			return nil, &ModelInconsistencyError{
				Detail: fmt.Sprintf("entry %q got beds %v for quantity %d", demand.CropName, allocated, demand.Quantity),
			}
		}
		plan.Entries = append(plan.Entries, PlanEntry{
			CropName: demand.CropName,
			CropType: demand.CropType,
			Interval: demand.Interval,
			Beds:     allocated,
		})
	}
	return plan, nil
}

// WriteCSV writes the plan in the past-crop-plan table format, so a
// solved plan can be fed back in as history for the next season.
func (p *Plan) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := writer.Write([]string{
		"crop_name", "crop_type", "starting_date", "ending_date", "allocated_beds_ids",
	}); err != nil {
		return err
	}
	for _, entry := range p.Entries {
		beds := make([]string, len(entry.Beds))
		for i, bed := range entry.Beds {
			beds[i] = strconv.Itoa(bed)
		}
		if err := writer.Write([]string{
			entry.CropName,
			entry.CropType,
			entry.Interval.Start.Format("2006-01-02"),
			entry.Interval.End.Format("2006-01-02"),
			strings.Join(beds, ","),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
