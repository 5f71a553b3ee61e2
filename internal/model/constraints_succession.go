package model

import (
	"fmt"

	"agroplan/internal/cp"
)

// successionPairs visits every ordered slot pair (preceding, following)
// where the following crop starts strictly after the preceding one
// ends. Pairs of two past slots are skipped: history cannot be
// constrained.
func (b *Builder) successionPairs(visit func(preceding, following int, gapDays int) error) error {
	for p, precedingSlot := range b.slots {
		for f, followingSlot := range b.slots {
			if p == f || (precedingSlot.Past && followingSlot.Past) {
				continue
			}
			if !followingSlot.Interval.Start.After(precedingSlot.Interval.End) {
				continue
			}
			gap := DaysBetween(precedingSlot.Interval.End, followingSlot.Interval.Start)
			if err := visit(p, f, gap); err != nil {
				return err
			}
		}
	}
	return nil
}

// postReturnDelays forbids replanting a crop type too soon after
// another on the same bed. The delay matrix maps (preceding type,
// following type) to a minimum rest gap in days, measured from the end
// of the preceding cultivation to the start of the following one.
func (b *Builder) postReturnDelays(name string, spec ConstraintSpec) error {
	var params struct {
		Delays     map[string]map[string]int `mapstructure:"delays"`
		DelaysFile string                    `mapstructure:"delays_file"`
	}
	if err := decodeParams(name, spec, &params); err != nil {
		return err
	}

	var matrix DelayMatrix
	switch {
	case len(params.Delays) > 0 && params.DelaysFile != "":
		return specError(name, fmt.Errorf("delays and delays_file are mutually exclusive"))
	case len(params.Delays) > 0:
		matrix = DelayMatrix(params.Delays)
	case params.DelaysFile != "":
		loaded, err := LoadReturnDelaysCSV(params.DelaysFile)
		if err != nil {
			return specError(name, err)
		}
		matrix = loaded
	default:
		return specError(name, fmt.Errorf("%w: delays or delays_file", ErrMissingParameter))
	}

	return b.successionPairs(func(preceding, following, gapDays int) error {
		delay, ok := matrix.Delay(b.slots[preceding].CropType, b.slots[following].CropType)
		if !ok || gapDays >= delay {
			return nil
		}
		switch {
		case b.slots[preceding].Past:
			return b.removeFromDomain(following, map[int]bool{b.slots[preceding].FixedBed: true}, name)
		case b.slots[following].Past:
			return b.removeFromDomain(preceding, map[int]bool{b.slots[following].FixedBed: true}, name)
		default:
			b.constraints = append(b.constraints, cp.NotEqual{Name: name, X: preceding, Y: following})
			return nil
		}
	})
}

// postPrecedence relates crop pairs in succession on the same bed,
// within a sliding window of precedence_effect_delay_in_weeks weeks
// after the preceding crop ends. Forbidden definitions keep matching
// pairs off the same bed; enforced ones pin them together.
func (b *Builder) postPrecedence(name string, spec ConstraintSpec) error {
	var params struct {
		Type       string `mapstructure:"type"`
		DelayWeeks int    `mapstructure:"precedence_effect_delay_in_weeks"`
		Rule       string `mapstructure:"rule"`
	}
	if err := decodeParams(name, spec, &params,
		"type", "precedence_effect_delay_in_weeks", "rule"); err != nil {
		return err
	}
	forbidden, err := parseKind(name, params.Type)
	if err != nil {
		return err
	}
	if params.DelayWeeks <= 0 {
		return specError(name, fmt.Errorf("precedence_effect_delay_in_weeks must be positive, given %d", params.DelayWeeks))
	}

	cropSchema := b.problem.CropSchema()
	rule, err := CompileRule(params.Rule, RuleSchema{
		"preceding_crop": cropSchema,
		"following_crop": cropSchema,
	})
	if err != nil {
		return specError(name, err)
	}

	windowDays := 7 * params.DelayWeeks
	return b.successionPairs(func(preceding, following, gapDays int) error {
		if gapDays > windowDays {
			return nil
		}
		applies, err := rule.Eval(map[string]any{
			"preceding_crop": b.cropRecord(b.slots[preceding]),
			"following_crop": b.cropRecord(b.slots[following]),
		})
		if err != nil {
			return specError(name, err)
		}
		if !applies {
			return nil
		}

		switch {
		case b.slots[preceding].Past:
			bed := map[int]bool{b.slots[preceding].FixedBed: true}
			if forbidden {
				return b.removeFromDomain(following, bed, name)
			}
			return b.restrictDomain(following, bed, name)
		case b.slots[following].Past:
			bed := map[int]bool{b.slots[following].FixedBed: true}
			if forbidden {
				return b.removeFromDomain(preceding, bed, name)
			}
			return b.restrictDomain(preceding, bed, name)
		default:
			if forbidden {
				b.constraints = append(b.constraints, cp.NotEqual{Name: name, X: preceding, Y: following})
			} else {
				b.constraints = append(b.constraints, cp.Equal{Name: name, X: preceding, Y: following})
			}
			return nil
		}
	})
}
