package expr

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/exprlang/exprlang/internal/exprtypes"
	"github.com/exprlang/exprlang/internal/reporting"
)

// ParserSettings is the declarative subset of New's Options that a host can
// load from a config file rather than wire up in Go source: which seed
// groups to register and whether name comparisons are case-insensitive.
type ParserSettings struct {
	CaseInsensitive bool     `yaml:"caseInsensitive"`
	SeedGroups      []string `yaml:"seedGroups"`
}

var seedGroupNames = map[string]exprtypes.SeedGroup{
	"primitiveAliases":   exprtypes.SeedPrimitiveAliases,
	"literalIdentifiers": exprtypes.SeedLiteralIdentifiers,
	"commonTypes":        exprtypes.SeedCommonTypes,
}

// Options converts the loaded settings into construction-time Options, in
// any order — the underlying config accumulator doesn't care (spec §6
// construct(options)).
func (s ParserSettings) Options() ([]Option, error) {
	opts := make([]Option, 0, len(s.SeedGroups)+1)
	if s.CaseInsensitive {
		opts = append(opts, WithCaseInsensitiveNames())
	}
	for _, name := range s.SeedGroups {
		group, ok := seedGroupNames[name]
		if !ok {
			return nil, reporting.NewConfigurationError("unknown seed group %q", name)
		}
		opts = append(opts, seedGroupOption(group))
	}
	return opts, nil
}

func seedGroupOption(group exprtypes.SeedGroup) Option {
	return func(c *config) { c.seedGroups = append(c.seedGroups, group) }
}

// LoadParserSettingsYAML parses a ParserSettings document and builds an
// Interpreter from it, letting a host describe the fixed construction-time
// shape of its embedding (which seed groups, case sensitivity) as config
// rather than code.
func LoadParserSettingsYAML(data []byte) (*Interpreter, error) {
	var settings ParserSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("expr: parsing parser settings: %w", err)
	}
	opts, err := settings.Options()
	if err != nil {
		return nil, err
	}
	return New(opts...), nil
}
