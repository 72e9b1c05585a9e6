package mapping

import (
	"sort"
	"strings"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

// organizationNameAlternatives is the ordered candidate list used to backfill
// a blank organization name. Order is priority; the first non-empty trimmed
// value wins, checking the raw record before the mapped output per key.
var organizationNameAlternatives = []string{
	"name",
	"company_name",
	"organization_name",
	"org_name",
	"company",
	"organization",
	"Company Name",
	"Organization Name",
	"Name",
	"field_1",
	"Field_1",
	"field1",
	"Field1",
}

// OrganizationNameAlternatives returns the fallback key list in priority order.
func OrganizationNameAlternatives() []string {
	out := make([]string, len(organizationNameAlternatives))
	copy(out, organizationNameAlternatives)
	return out
}

// MapRecord translates one import row into the backend payload shape.
//
// Keys present in the entity's mapping table land at the top level under
// their backend names. Unknown keys collect into a custom-fields bag, named
// by the caller-supplied label translation when one exists. Empty-string and
// nil values are treated as "not provided" and never appear in the output.
// An entity type without a table returns the record unchanged. MapRecord
// never fails; it degrades to best-effort mapping.
func (r *Registry) MapRecord(et entitytype.EntityType, record map[string]any, fieldLabels map[string]string) map[string]any {
	table, ok := r.tables[et]
	if !ok {
		return record
	}

	out := make(map[string]any, len(record))
	custom := make(map[string]any)
	for _, key := range sortedKeys(record) {
		value := record[key]
		if skipValue(value) {
			continue
		}
		target, mapped := table[key]
		switch {
		case mapped && target == CustomFieldsKey:
			// A column literally named custom_fields carries a
			// pre-built bag. Merge objects only; scalars and arrays
			// under this key are dropped.
			merged, isObject := value.(map[string]any)
			if !isObject {
				continue
			}
			for _, ck := range sortedKeys(merged) {
				custom[ck] = merged[ck]
			}
		case mapped:
			out[target] = value
		default:
			name := key
			if label := fieldLabels[key]; label != "" {
				name = label
			}
			custom[name] = value
		}
	}
	if len(custom) > 0 {
		out[CustomFieldsKey] = custom
	}

	if et == entitytype.Organizations {
		applyOrganizationNameFallback(record, out)
	}
	return out
}

func applyOrganizationNameFallback(record, out map[string]any) {
	if hasOrganizationName(out) {
		return
	}
	for _, key := range organizationNameAlternatives {
		if v := trimmedString(record[key]); v != "" {
			out["name"] = v
			return
		}
		if v := trimmedString(out[key]); v != "" {
			out["name"] = v
			return
		}
	}
}

func hasOrganizationName(out map[string]any) bool {
	v, ok := out["name"]
	if !ok {
		return false
	}
	s, isString := v.(string)
	if !isString {
		// Non-string names pass through untouched.
		return true
	}
	return strings.TrimSpace(s) != ""
}

// skipValue reports whether an input value means "not provided".
func skipValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func trimmedString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// sortedKeys keeps iteration deterministic so alias and label collisions
// resolve the same way on every run.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
