package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

func TestMapRecord_MappedFieldsLandOnBackendKeys(t *testing.T) {
	reg := Builtin()
	for _, et := range entitytype.All() {
		table, ok := reg.Table(et)
		require.True(t, ok, "missing table for %s", et)
		for input, target := range table {
			if target == CustomFieldsKey {
				continue
			}
			out := reg.MapRecord(et, map[string]any{input: "value"}, nil)
			require.Equal(t, "value", out[target], "%s: %s -> %s", et, input, target)
			require.NotContains(t, out, CustomFieldsKey, "%s: %s must not spill into custom fields", et, input)
		}
	}
}

func TestMapRecord_UnmappedFieldFallsBackToCustomFields(t *testing.T) {
	reg := Builtin()

	t.Run("keyed by original name without labels", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Leads, map[string]any{
			"email":          "lead@example.com",
			"favorite_snack": "stroopwafel",
		}, nil)

		require.Equal(t, "lead@example.com", out["email"])
		custom, ok := out[CustomFieldsKey].(map[string]any)
		require.True(t, ok)
		require.Equal(t, map[string]any{"favorite_snack": "stroopwafel"}, custom)
	})

	t.Run("keyed by label when one is supplied", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Leads, map[string]any{
			"favorite_snack": "stroopwafel",
		}, map[string]string{"favorite_snack": "Favorite Snack"})

		custom, ok := out[CustomFieldsKey].(map[string]any)
		require.True(t, ok)
		require.Equal(t, map[string]any{"Favorite Snack": "stroopwafel"}, custom)
	})

	t.Run("blank label falls back to the original name", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Leads, map[string]any{
			"favorite_snack": "stroopwafel",
		}, map[string]string{"favorite_snack": ""})

		custom, ok := out[CustomFieldsKey].(map[string]any)
		require.True(t, ok)
		require.Equal(t, map[string]any{"favorite_snack": "stroopwafel"}, custom)
	})
}

func TestMapRecord_EmptyValuesSuppressed(t *testing.T) {
	reg := Builtin()

	out := reg.MapRecord(entitytype.JobSeekers, map[string]any{
		"first_name": "Jane",
		"last_name":  "",
		"email":      nil,
		"hobby":      "",
	}, nil)

	require.Equal(t, map[string]any{"firstName": "Jane"}, out)

	t.Run("no empty bag from suppressed keys alone", func(t *testing.T) {
		out := reg.MapRecord(entitytype.JobSeekers, map[string]any{"hobby": ""}, nil)
		require.Empty(t, out)
		require.NotContains(t, out, CustomFieldsKey)
	})
}

func TestMapRecord_CustomFieldsColumnMergesObjects(t *testing.T) {
	reg := Builtin()

	t.Run("object entries merge into the bag", func(t *testing.T) {
		out := reg.MapRecord(entitytype.JobSeekers, map[string]any{
			"custom_fields": map[string]any{"badge_color": "green", "floor": "3"},
			"shoe_size":     "42",
		}, nil)

		custom, ok := out[CustomFieldsKey].(map[string]any)
		require.True(t, ok)
		require.Equal(t, map[string]any{
			"badge_color": "green",
			"floor":       "3",
			"shoe_size":   "42",
		}, custom)
	})

	t.Run("arrays and scalars under the reserved column are dropped", func(t *testing.T) {
		out := reg.MapRecord(entitytype.JobSeekers, map[string]any{
			"custom_fields": []any{"not", "an", "object"},
		}, nil)
		require.NotContains(t, out, CustomFieldsKey)

		out = reg.MapRecord(entitytype.JobSeekers, map[string]any{
			"custom_fields": "scalar",
		}, nil)
		require.NotContains(t, out, CustomFieldsKey)
	})
}

func TestMapRecord_OrganizationNameFallback(t *testing.T) {
	reg := Builtin()

	t.Run("company_name outranks Name", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Organizations, map[string]any{
			"company_name": " Acme Staffing ",
			"Name":         "Other Co",
		}, nil)
		require.Equal(t, "Acme Staffing", out["name"])
	})

	t.Run("blank mapped name triggers the fallback", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Organizations, map[string]any{
			"name":    "   ",
			"company": "Fallback Inc",
		}, nil)
		require.Equal(t, "Fallback Inc", out["name"])
	})

	t.Run("present name wins over every alternative", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Organizations, map[string]any{
			"name":         "Present Co",
			"company_name": "Ignored Co",
		}, nil)
		require.Equal(t, "Present Co", out["name"])
	})

	t.Run("lowest-priority keys still fill in", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Organizations, map[string]any{
			"Field1": "Last Resort LLC",
		}, nil)
		require.Equal(t, "Last Resort LLC", out["name"])
	})

	t.Run("no candidates leaves name unset", func(t *testing.T) {
		out := reg.MapRecord(entitytype.Organizations, map[string]any{
			"industry": "staffing",
		}, nil)
		require.NotContains(t, out, "name")
	})
}

func TestMapRecord_UnknownEntityPassesThrough(t *testing.T) {
	reg := Builtin()
	record := map[string]any{"anything": "goes", "empty": ""}

	out := reg.MapRecord(entitytype.EntityType("bogus"), record, nil)

	require.Equal(t, record, out)
}

func TestOrganizationNameAlternatives_Order(t *testing.T) {
	alts := OrganizationNameAlternatives()
	require.Equal(t, "name", alts[0])
	require.Equal(t, "company_name", alts[1])
	require.Equal(t, "Field1", alts[len(alts)-1])

	alts[0] = "mutated"
	require.Equal(t, "name", OrganizationNameAlternatives()[0])
}
