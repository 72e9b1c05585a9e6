package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

func TestSuggest(t *testing.T) {
	reg := Builtin()

	t.Run("exact matches ignore case and separators", func(t *testing.T) {
		got := reg.Suggest(entitytype.JobSeekers, []string{"First Name", "E-Mail", "zip code"})

		require.Equal(t, []Suggestion{
			{Header: "First Name", Field: "firstName", Match: "exact"},
			{Header: "E-Mail", Field: "email", Match: "exact"},
			{Header: "zip code", Field: "zipCode", Match: "exact"},
		}, got)
	})

	t.Run("fuzzy match picks the closest known column", func(t *testing.T) {
		got := reg.Suggest(entitytype.JobSeekers, []string{"Primary Email"})

		require.Len(t, got, 1)
		require.Equal(t, "email", got[0].Field)
		require.Equal(t, "fuzzy", got[0].Match)
	})

	t.Run("hopeless headers get an empty suggestion", func(t *testing.T) {
		got := reg.Suggest(entitytype.JobSeekers, []string{"Favorite Color", ""})

		require.Equal(t, []Suggestion{
			{Header: "Favorite Color"},
			{Header: ""},
		}, got)
	})

	t.Run("unknown entity suggests nothing", func(t *testing.T) {
		got := reg.Suggest(entitytype.EntityType("bogus"), []string{"email"})

		require.Equal(t, []Suggestion{{Header: "email"}}, got)
	})

	t.Run("reserved custom_fields column is never suggested", func(t *testing.T) {
		got := reg.Suggest(entitytype.JobSeekers, []string{"custom_fields"})

		require.Len(t, got, 1)
		require.NotEqual(t, CustomFieldsKey, got[0].Field)
	})
}

func TestNormalizeFieldName(t *testing.T) {
	cases := map[string]string{
		"First Name":  "firstname",
		"first_name":  "firstname",
		"first-name":  "firstname",
		"  Email  ":   "email",
		"Zip_Code- 1": "zipcode1",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeFieldName(in), "input %q", in)
	}
}
