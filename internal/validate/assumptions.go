package validate

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/vouch/internal/model"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// CheckAssumptions rejects an empty list, duplicate ids, and assumptions
// failing their struct constraints
func CheckAssumptions(assumptions []model.Assumption) error {
	if len(assumptions) == 0 {
		return fmt.Errorf("%w: list is empty", model.ErrInvalidAssumptions)
	}

	seen := make(map[string]bool, len(assumptions))
	var errs []error
	for i, a := range assumptions {
		if err := structValidator.Struct(a); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fmt.Errorf("assumption %d (%s): field %s failed %q", i, a.ID, fe.Field(), fe.Tag()))
				}
				continue
			}
			errs = append(errs, fmt.Errorf("assumption %d: %v", i, err))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("assumption %d: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", model.ErrInvalidAssumptions, errors.Join(errs...))
	}
	return nil
}

// assumptionFile is the YAML/JSON document accepted by LoadAssumptions.
// Either a top-level list or an "assumptions" key works.
type assumptionFile struct {
	Assumptions []rawAssumption `yaml:"assumptions"`
}

type rawAssumption struct {
	ID              string `yaml:"id"`
	AttributeType   string `yaml:"attribute_type"`
	Attribute       string `yaml:"attribute"`
	Text            string `yaml:"text"`
	EvidenceSummary string `yaml:"evidence_summary"`
}

// LoadAssumptions reads assumptions from a YAML or JSON file
func LoadAssumptions(path string) ([]model.Assumption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assumptions: %w", err)
	}
	return ParseAssumptions(data)
}

// ParseAssumptions decodes assumptions and normalizes attribute names
// ("Pain Points", "pain_points", "pain-points" are all accepted)
func ParseAssumptions(data []byte) ([]model.Assumption, error) {
	var raws []rawAssumption
	if err := yaml.Unmarshal(data, &raws); err != nil {
		var doc assumptionFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("%w: parse: %v", model.ErrInvalidAssumptions, err2)
		}
		raws = doc.Assumptions
	}

	out := make([]model.Assumption, 0, len(raws))
	for i, r := range raws {
		attr := r.AttributeType
		if attr == "" {
			attr = r.Attribute
		}
		a := model.Assumption{
			ID:              r.ID,
			Text:            r.Text,
			EvidenceSummary: r.EvidenceSummary,
		}
		if attr != "" {
			t, ok := model.ParseAttributeType(attr)
			if !ok {
				return nil, fmt.Errorf("%w: assumption %d: unknown attribute type %q", model.ErrInvalidAssumptions, i, attr)
			}
			a.AttributeType = t
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("a%d", i+1)
		}
		out = append(out, a)
	}
	return out, nil
}
