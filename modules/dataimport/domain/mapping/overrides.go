package mapping

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

var ErrOverridesNotFound = errors.New("mapping overrides file not found")

type overridesFile struct {
	Version  int                          `yaml:"version"`
	Entities map[string]map[string]string `yaml:"entities"`
}

// LoadWithOverrides returns the builtin registry extended by the YAML file at
// path. Overrides add new input columns or repoint existing ones; they cannot
// remove a table. An empty path returns the builtin registry as-is.
func LoadWithOverrides(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrOverridesNotFound, path)
		}
		return nil, err
	}

	var file overridesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported mapping overrides version: %d", file.Version)
	}

	base := Builtin()
	tables := make(map[entitytype.EntityType]Table, len(base.tables))
	for et, table := range base.tables {
		copied := make(Table, len(table))
		for input, target := range table {
			copied[input] = target
		}
		tables[et] = copied
	}

	for name, fields := range file.Entities {
		et, err := entitytype.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("mapping overrides: %w", err)
		}
		for input, target := range fields {
			input = strings.TrimSpace(input)
			if input == "" {
				return nil, fmt.Errorf("mapping overrides: entity %q has an empty field name", name)
			}
			target = strings.TrimSpace(target)
			if target == "" {
				return nil, fmt.Errorf("mapping overrides: entity %q field %q has an empty target", name, input)
			}
			tables[et][input] = target
		}
	}

	return &Registry{tables: tables}, nil
}
