package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one dedupe comparison ruleset.
type Profile struct {
	FuzzyThreshold   float64  `yaml:"fuzzy_threshold"`
	KeyFields        []string `yaml:"key_fields"`
	ExactMatchFields []string `yaml:"exact_match_fields"`
	SkipFields       []string `yaml:"skip_fields"`
}

// DedupeProfiles holds the default ruleset plus per-entity overrides
// (contact, account, opportunity, ...). Entity profiles inherit any field
// they leave empty from the default.
type DedupeProfiles struct {
	Default  Profile            `yaml:"default"`
	Entities map[string]Profile `yaml:"entities"`
}

func LoadProfiles(path string) (*DedupeProfiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dedupe profiles: %w", err)
	}
	var profiles DedupeProfiles
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing dedupe profiles: %w", err)
	}
	if profiles.Default.FuzzyThreshold <= 0 {
		profiles.Default.FuzzyThreshold = 85
	}
	return &profiles, nil
}

// ForEntity resolves the effective profile for an entity type.
func (p *DedupeProfiles) ForEntity(entity string) Profile {
	resolved := p.Default
	override, ok := p.Entities[entity]
	if !ok {
		return resolved
	}
	if override.FuzzyThreshold > 0 {
		resolved.FuzzyThreshold = override.FuzzyThreshold
	}
	if len(override.KeyFields) > 0 {
		resolved.KeyFields = override.KeyFields
	}
	if len(override.ExactMatchFields) > 0 {
		resolved.ExactMatchFields = override.ExactMatchFields
	}
	if len(override.SkipFields) > 0 {
		resolved.SkipFields = override.SkipFields
	}
	return resolved
}
