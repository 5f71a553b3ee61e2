package model

// postCompatibleBeds restricts the candidate beds of every future slot
// whose crop matches the crops selection rule. Enforced definitions
// keep only the beds matching the beds selection rule; forbidden ones
// remove them. Past slots are never touched, their bed is history.
func (b *Builder) postCompatibleBeds(name string, spec ConstraintSpec) error {
	var params struct {
		Type               string `mapstructure:"type"`
		CropsSelectionRule string `mapstructure:"crops_selection_rule"`
		BedsSelectionRule  string `mapstructure:"beds_selection_rule"`
	}
	if err := decodeParams(name, spec, &params,
		"type", "crops_selection_rule", "beds_selection_rule"); err != nil {
		return err
	}
	forbidden, err := parseKind(name, params.Type)
	if err != nil {
		return err
	}

	cropSchema := b.problem.CropSchema()
	cropsRule, err := CompileRule(params.CropsSelectionRule, RuleSchema{"crop": cropSchema})
	if err != nil {
		return specError(name, err)
	}
	// The beds rule sees the crop too, so bed eligibility can depend on
	// the crop being placed (e.g. matching gardens to water needs).
	bedsRule, err := CompileRule(params.BedsSelectionRule, RuleSchema{
		"crop": cropSchema,
		"bed":  b.problem.BedSchema(),
	})
	if err != nil {
		return specError(name, err)
	}

	bedRecords := make([]map[string]any, len(b.problem.Beds))
	for i, bed := range b.problem.Beds {
		bedRecords[i] = bed.BedRecord()
	}

	for _, slot := range b.futureSlots() {
		crop := b.cropRecord(b.slots[slot])
		selected, err := cropsRule.Eval(map[string]any{"crop": crop})
		if err != nil {
			return specError(name, err)
		}
		if !selected {
			continue
		}

		matching := map[int]bool{}
		for i, bed := range b.problem.Beds {
			ok, err := bedsRule.Eval(map[string]any{"crop": crop, "bed": bedRecords[i]})
			if err != nil {
				return specError(name, err)
			}
			if ok {
				matching[bed.ID] = true
			}
		}

		if forbidden {
			err = b.removeFromDomain(slot, matching, name)
		} else {
			err = b.restrictDomain(slot, matching, name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
