package nsmap

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type optionsFile struct {
	Separators     *string    `yaml:"separators"`
	MaxAliasLength *int       `yaml:"maxAliasLength"`
	Specials       [][]string `yaml:"specials"`
}

// ParseGenerateOptions reads GenerateOptions from YAML of the form
//
//	separators: "/#"
//	maxAliasLength: 30
//	specials:
//	  - [rdf, "http://www.w3.org/1999/02/22-rdf-syntax-ns#"]
//
// Missing fields keep their defaults.
func ParseGenerateOptions(data []byte) (*GenerateOptions, error) {
	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("generate options: %w", err)
	}
	opts := &GenerateOptions{
		Separators:     DefaultSeparators,
		MaxAliasLength: DefaultMaxAliasLength,
	}
	if f.Separators != nil {
		if *f.Separators == "" {
			return nil, fmt.Errorf("generate options: separators must not be empty")
		}
		opts.Separators = *f.Separators
	}
	if f.MaxAliasLength != nil {
		if *f.MaxAliasLength <= 0 {
			return nil, fmt.Errorf("generate options: maxAliasLength %d must be positive", *f.MaxAliasLength)
		}
		opts.MaxAliasLength = *f.MaxAliasLength
	}
	if len(f.Specials) > 0 {
		specials := Empty()
		for i, s := range f.Specials {
			if len(s) != 2 {
				return nil, fmt.Errorf("generate options: specials[%d] has %d elements, want 2", i, len(s))
			}
			var err error
			specials, err = specials.TryAdd(s[0], s[1])
			if err != nil {
				return nil, fmt.Errorf("generate options: specials[%d]: %w", i, err)
			}
		}
		opts.Specials = specials
	}
	return opts, nil
}
