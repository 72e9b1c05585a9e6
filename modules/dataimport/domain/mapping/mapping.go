package mapping

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

// CustomFieldsKey is the reserved mapping target. An input column mapped to
// it is expected to already hold an object whose entries are merged into the
// payload's custom-fields bag instead of landing at the top level.
const CustomFieldsKey = "custom_fields"

//go:embed builtin.toml
var builtinTOML []byte

// Table maps input field names (CSV headers, snake_case aliases) to the
// backend's property names for a single entity type.
type Table map[string]string

// Registry holds one immutable mapping table per entity type. Tables are
// read-only after construction; concurrent use requires no locking.
type Registry struct {
	tables map[entitytype.EntityType]Table
}

var builtin = sync.OnceValue(func() *Registry {
	reg, err := parseTables(builtinTOML)
	if err != nil {
		panic(fmt.Sprintf("mapping: invalid builtin tables: %v", err))
	}
	return reg
})

// Builtin returns the registry backed by the compiled-in mapping tables.
func Builtin() *Registry {
	return builtin()
}

func parseTables(raw []byte) (*Registry, error) {
	var decoded map[string]map[string]string
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	tables := make(map[entitytype.EntityType]Table, len(decoded))
	for name, fields := range decoded {
		et, err := entitytype.Parse(name)
		if err != nil {
			return nil, err
		}
		table := make(Table, len(fields))
		for input, target := range fields {
			if strings.TrimSpace(input) == "" {
				return nil, fmt.Errorf("entity %q: empty input field name", name)
			}
			if strings.TrimSpace(target) == "" {
				return nil, fmt.Errorf("entity %q: field %q has an empty target", name, input)
			}
			table[input] = target
		}
		tables[et] = table
	}

	// Every supported entity must have a table. The unknown-entity
	// pass-through in MapRecord covers values outside the enum, not holes
	// in the builtin data.
	for _, et := range entitytype.All() {
		if _, ok := tables[et]; !ok {
			return nil, fmt.Errorf("no mapping table for entity type %q", et)
		}
	}

	return &Registry{tables: tables}, nil
}

// Table returns a copy of the mapping table for the entity type.
func (r *Registry) Table(et entitytype.EntityType) (Table, bool) {
	table, ok := r.tables[et]
	if !ok {
		return nil, false
	}
	out := make(Table, len(table))
	for input, target := range table {
		out[input] = target
	}
	return out, true
}

// InputFields returns the known input field names for the entity type,
// sorted, excluding the reserved custom-fields passthrough column.
func (r *Registry) InputFields(et entitytype.EntityType) []string {
	table, ok := r.tables[et]
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(table))
	for input, target := range table {
		if target == CustomFieldsKey {
			continue
		}
		fields = append(fields, input)
	}
	sort.Strings(fields)
	return fields
}
