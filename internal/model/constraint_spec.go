package model

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ConstraintSpec is one entry of the constraint-definitions dictionary:
// a constraint_type tag plus kind-specific parameters, validated when
// the model is built.
type ConstraintSpec map[string]any

// LoadConstraintDefinitions reads a YAML mapping from constraint name
// to definition.
func LoadConstraintDefinitions(path string) (map[string]ConstraintSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs map[string]ConstraintSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parsing constraint definitions %s: %w", path, err)
	}
	return specs, nil
}

// decodeParams checks the required parameters are present and decodes
// the remaining keys into a typed parameter struct. Unknown keys are
// rejected so misspelled parameters surface at build time.
func decodeParams(name string, spec ConstraintSpec, out any, required ...string) error {
	params := make(map[string]any, len(spec))
	for key, value := range spec {
		if key != "constraint_type" {
			params[key] = value
		}
	}
	for _, field := range required {
		if _, ok := params[field]; !ok {
			return specError(name, fmt.Errorf("%w: %s", ErrMissingParameter, field))
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return specError(name, err)
	}
	if err := decoder.Decode(params); err != nil {
		return specError(name, err)
	}
	return nil
}

// parseKind maps the type parameter to its polarity: true for
// forbidden, false for enforced.
func parseKind(name, kind string) (bool, error) {
	switch kind {
	case "forbidden":
		return true, nil
	case "enforced":
		return false, nil
	default:
		return false, specError(name, fmt.Errorf("type must be \"enforced\" or \"forbidden\", given %q", kind))
	}
}
