package model

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Bed is a physical cultivation plot, the unit of spatial allocation.
// Immutable after load.
type Bed struct {
	ID         int
	Garden     string
	Adjacent   map[string][]int
	Attributes Attributes
}

// CropType carries the user-defined attributes of a crop type, such as
// botanical family or weed sensitivity. Immutable.
type CropType struct {
	Name       string
	Attributes Attributes
}

// CalendarEntry is one line of the future crop calendar: a demand for a
// crop over an interval needing Quantity distinct beds.
type CalendarEntry struct {
	CropName string
	CropType string
	Interval Interval
	Quantity int
}

// PastPlanEntry is one historical allocation: a crop that actually
// occupied the listed beds over the interval. Used only for
// return-delay and precedence reasoning.
type PastPlanEntry struct {
	CropName string
	CropType string
	Interval Interval
	Beds     []int
}

// Problem bundles the immutable domain data the builder consumes.
type Problem struct {
	Beds      []Bed
	CropTypes map[string]CropType
	Calendar  []CalendarEntry
	PastPlan  []PastPlanEntry

	bedIDs []int
}

// NewProblem validates and normalises the loaded data. The calendar is
// sorted by starting date (then ending date, crop name and quantity) so
// slot expansion is deterministic. All data-integrity violations are
// fatal here; nothing downstream re-checks them.
func NewProblem(beds []Bed, cropTypes map[string]CropType, calendar []CalendarEntry, pastPlan []PastPlanEntry) (*Problem, error) {
	if len(beds) == 0 {
		return nil, fmt.Errorf("%w: no beds loaded", ErrDataIntegrity)
	}

	bedIDs := lo.Map(beds, func(bed Bed, _ int) int { return bed.ID })
	slices.Sort(bedIDs)
	if duplicates := lo.FindDuplicates(bedIDs); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate bed ids %v", ErrDataIntegrity, duplicates)
	}
	known := lo.SliceToMap(bedIDs, func(id int) (int, bool) { return id, true })
	for _, bed := range beds {
		for adjacencyType, neighbors := range bed.Adjacent {
			for _, neighbor := range neighbors {
				if !known[neighbor] {
					return nil, fmt.Errorf(
						"%w: bed %d lists %d for adjacency type %q",
						ErrDanglingAdjacencyReference, bed.ID, neighbor, adjacencyType,
					)
				}
			}
		}
	}

	if cropTypes == nil {
		cropTypes = map[string]CropType{}
	}
	for _, entry := range calendar {
		if err := checkEntry(entry.CropName, entry.CropType, entry.Interval, cropTypes); err != nil {
			return nil, err
		}
		if entry.Quantity <= 0 {
			return nil, fmt.Errorf("%w: entry %q has non-positive quantity %d",
				ErrDataIntegrity, entry.CropName, entry.Quantity)
		}
	}
	for _, entry := range pastPlan {
		if err := checkEntry(entry.CropName, entry.CropType, entry.Interval, cropTypes); err != nil {
			return nil, err
		}
		for _, bed := range entry.Beds {
			if !known[bed] {
				return nil, fmt.Errorf("%w: past entry %q allocated to unknown bed %d",
					ErrDataIntegrity, entry.CropName, bed)
			}
		}
	}
	if err := checkPastPlanConsistency(pastPlan); err != nil {
		return nil, err
	}

	calendar = slices.Clone(calendar)
	sort.SliceStable(calendar, func(a, b int) bool {
		if !calendar[a].Interval.Start.Equal(calendar[b].Interval.Start) {
			return calendar[a].Interval.Start.Before(calendar[b].Interval.Start)
		}
		if !calendar[a].Interval.End.Equal(calendar[b].Interval.End) {
			return calendar[a].Interval.End.Before(calendar[b].Interval.End)
		}
		if calendar[a].CropName != calendar[b].CropName {
			return calendar[a].CropName < calendar[b].CropName
		}
		return calendar[a].Quantity < calendar[b].Quantity
	})

	return &Problem{
		Beds:      beds,
		CropTypes: cropTypes,
		Calendar:  calendar,
		PastPlan:  pastPlan,
		bedIDs:    bedIDs,
	}, nil
}

// BedIDs returns all bed ids, sorted ascending. The slice is shared and
// must not be mutated.
func (p *Problem) BedIDs() []int { return p.bedIDs }

// CropRecord builds the rule-evaluation record for a crop occurrence:
// the crop type's attributes plus the derived fields.
func (p *Problem) CropRecord(cropName, cropType string, interval Interval) map[string]any {
	record := map[string]any{}
	if t, ok := p.CropTypes[cropType]; ok {
		for key, value := range t.Attributes {
			record[key] = value
		}
	}
	record["crop_name"] = cropName
	record["crop_type"] = cropType
	record["starting_date"] = interval.Start
	record["ending_date"] = interval.End
	record["cultivation_season"] = Season(interval.Start)
	return record
}

// BedRecord builds the rule-evaluation record for a bed.
func (b Bed) BedRecord() map[string]any {
	record := map[string]any{}
	for key, value := range b.Attributes {
		record[key] = value
	}
	record["bed_id"] = b.ID
	record["garden"] = b.Garden
	return record
}

// CropSchema returns the set of fields a crop-record rule may
// reference: the union of all crop type attributes and the derived
// fields.
func (p *Problem) CropSchema() map[string]bool {
	schema := map[string]bool{
		"crop_name":          true,
		"crop_type":          true,
		"starting_date":      true,
		"ending_date":        true,
		"cultivation_season": true,
	}
	for _, cropType := range p.CropTypes {
		for key := range cropType.Attributes {
			schema[key] = true
		}
	}
	return schema
}

// BedSchema returns the set of fields a bed-record rule may reference.
func (p *Problem) BedSchema() map[string]bool {
	schema := map[string]bool{"bed_id": true, "garden": true}
	for _, bed := range p.Beds {
		for key := range bed.Attributes {
			schema[key] = true
		}
	}
	return schema
}

func checkEntry(cropName, cropType string, interval Interval, cropTypes map[string]CropType) error {
	if strings.TrimSpace(cropName) == "" {
		return fmt.Errorf("%w: entry with empty crop name", ErrDataIntegrity)
	}
	if !interval.Valid() {
		return fmt.Errorf("%w: entry %q has empty interval %s", ErrDataIntegrity, cropName, interval)
	}
	if len(cropTypes) > 0 {
		if _, ok := cropTypes[cropType]; !ok {
			return fmt.Errorf("%w: entry %q references unknown crop type %q",
				ErrDataIntegrity, cropName, cropType)
		}
	}
	return nil
}

// checkPastPlanConsistency rejects a historical record claiming two
// overlapping crops on the same bed.
func checkPastPlanConsistency(pastPlan []PastPlanEntry) error {
	type occupancy struct {
		crop     string
		interval Interval
	}
	perBed := map[int][]occupancy{}
	for _, entry := range pastPlan {
		for _, bed := range entry.Beds {
			perBed[bed] = append(perBed[bed], occupancy{entry.CropName, entry.Interval})
		}
	}
	for bed, occupancies := range perBed {
		for i := 0; i < len(occupancies); i++ {
			for j := i + 1; j < len(occupancies); j++ {
				if occupancies[i].interval.Overlaps(occupancies[j].interval) {
					return fmt.Errorf(
						"%w: past plan has %q and %q overlapping on bed %d",
						ErrDataIntegrity, occupancies[i].crop, occupancies[j].crop, bed,
					)
				}
			}
		}
	}
	return nil
}
