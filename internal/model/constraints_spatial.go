package model

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"agroplan/internal/cp"
)

// postSpatialInteractions relates crop pairs cultivated at the same
// time on adjacent beds. The rule selects the pairs (crop1 is the slot
// expanded first); forbidden definitions keep them off neighbouring
// beds, enforced ones require neighbouring beds. An intervals_overlap
// pattern narrows which temporal overlaps the rule applies to.
func (b *Builder) postSpatialInteractions(name string, spec ConstraintSpec) error {
	var params struct {
		Type             string `mapstructure:"type"`
		AdjacencyType    string `mapstructure:"adjacency_type"`
		Rule             string `mapstructure:"rule"`
		IntervalsOverlap string `mapstructure:"intervals_overlap"`
	}
	if err := decodeParams(name, spec, &params, "type", "adjacency_type", "rule"); err != nil {
		return err
	}
	forbidden, err := parseKind(name, params.Type)
	if err != nil {
		return err
	}
	pattern, err := ParseOverlapPattern(params.IntervalsOverlap)
	if err != nil {
		return specError(name, err)
	}
	graph, err := BuildAdjacencyGraph(b.problem.Beds, params.AdjacencyType)
	if err != nil {
		return specError(name, err)
	}

	cropSchema := b.problem.CropSchema()
	rule, err := CompileRule(params.Rule, RuleSchema{
		"crop1": cropSchema,
		"crop2": cropSchema,
	})
	if err != nil {
		return specError(name, err)
	}

	adjacentTuples := lo.Map(graph.Edges(), func(edge [2]int, _ int) []int {
		return []int{edge[0], edge[1]}
	})

	for i := range b.slots {
		for j := i + 1; j < len(b.slots); j++ {
			if b.slots[i].Past && b.slots[j].Past {
				continue
			}
			if !MatchesPattern(pattern, b.slots[i].Interval, b.slots[j].Interval) {
				continue
			}
			applies, err := rule.Eval(map[string]any{
				"crop1": b.cropRecord(b.slots[i]),
				"crop2": b.cropRecord(b.slots[j]),
			})
			if err != nil {
				return specError(name, err)
			}
			if !applies {
				continue
			}

			switch {
			case b.slots[i].Past:
				if err := b.pinToNeighbors(j, graph, b.slots[i].FixedBed, forbidden, name); err != nil {
					return err
				}
			case b.slots[j].Past:
				if err := b.pinToNeighbors(i, graph, b.slots[j].FixedBed, forbidden, name); err != nil {
					return err
				}
			default:
				b.constraints = append(b.constraints, cp.Table{
					Name:     name,
					Vars:     []int{i, j},
					Tuples:   adjacentTuples,
					Feasible: !forbidden,
				})
			}
		}
	}
	return nil
}

// pinToNeighbors applies a spatial interaction against a fixed past
// bed: the future slot must avoid (forbidden) or stay within (enforced)
// that bed's neighbourhood.
func (b *Builder) pinToNeighbors(slot int, graph *AdjacencyGraph, bed int, forbidden bool, name string) error {
	neighbors := lo.SliceToMap(graph.Neighbors(bed), func(n int) (int, bool) { return n, true })
	if forbidden {
		return b.removeFromDomain(slot, neighbors, name)
	}
	return b.restrictDomain(slot, neighbors, name)
}

// postGroupCrops gathers future slots sharing a crop attribute value
// and asks for each group to sit on contiguous beds. In hard mode the
// group's beds must form a simple path of the adjacency graph; in soft
// mode the grouping is recorded as a preference and left to the caller.
func (b *Builder) postGroupCrops(name string, spec ConstraintSpec) error {
	var params struct {
		AdjacencyType string `mapstructure:"adjacency_type"`
		GroupBy       string `mapstructure:"group_by"`
		FilteringRule string `mapstructure:"filtering_rule"`
		Mode          string `mapstructure:"mode"`
	}
	if err := decodeParams(name, spec, &params, "adjacency_type", "group_by"); err != nil {
		return err
	}
	if params.Mode == "" {
		params.Mode = "hard"
	}
	if params.Mode != "hard" && params.Mode != "soft" {
		return specError(name, fmt.Errorf("mode must be \"hard\" or \"soft\", given %q", params.Mode))
	}
	graph, err := BuildAdjacencyGraph(b.problem.Beds, params.AdjacencyType)
	if err != nil {
		return specError(name, err)
	}

	cropSchema := b.problem.CropSchema()
	if !cropSchema[params.GroupBy] {
		return specError(name, fmt.Errorf("%w: group_by attribute %q", ErrUndefinedAttribute, params.GroupBy))
	}
	var filter *Rule
	if params.FilteringRule != "" {
		filter, err = CompileRule(params.FilteringRule, RuleSchema{"crop": cropSchema})
		if err != nil {
			return specError(name, err)
		}
	}

	groups := map[string][]int{}
	for _, slot := range b.futureSlots() {
		record := b.cropRecord(b.slots[slot])
		if filter != nil {
			keep, err := filter.Eval(map[string]any{"crop": record})
			if err != nil {
				return specError(name, err)
			}
			if !keep {
				continue
			}
		}
		value, ok := record[params.GroupBy]
		if !ok || value == nil {
			continue
		}
		groups[groupKey(value)] = append(groups[groupKey(value)], slot)
	}

	for _, value := range sortedGroupValues(groups) {
		group := groups[value]
		if len(group) < 2 {
			continue
		}
		if params.Mode == "soft" {
			b.preferences = append(b.preferences, GroupPreference{
				Constraint:    name,
				AdjacencyType: params.AdjacencyType,
				GroupValue:    value,
				Slots:         group,
			})
			b.logger.Debug("recorded grouping preference",
				zap.String("constraint", name),
				zap.String("group", value),
			)
			continue
		}
		b.constraints = append(b.constraints, cp.Table{
			Name:     name,
			Vars:     group,
			Tuples:   graph.SimplePaths(len(group)),
			Feasible: true,
		})
	}
	return nil
}
