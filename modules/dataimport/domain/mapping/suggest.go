package mapping

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
)

// Suggestion pairs an uploaded column header with the backend field it most
// likely feeds. An empty Field means the column should go to custom fields.
type Suggestion struct {
	Header string `json:"header"`
	Field  string `json:"field"`
	Match  string `json:"match,omitempty"`
}

const (
	matchExact = "exact"
	matchFuzzy = "fuzzy"
)

// Suggest proposes a backend field for each header. Exact matches on the
// normalized header win; otherwise the closest fuzzy match over the entity's
// known input names is used. Headers with no plausible match get an empty
// suggestion.
func (r *Registry) Suggest(et entitytype.EntityType, headers []string) []Suggestion {
	suggestions := make([]Suggestion, 0, len(headers))
	table, ok := r.tables[et]
	if !ok {
		for _, header := range headers {
			suggestions = append(suggestions, Suggestion{Header: header})
		}
		return suggestions
	}

	inputs := r.InputFields(et)
	exact := make(map[string]string, len(inputs))
	for _, input := range inputs {
		norm := normalizeFieldName(input)
		if _, taken := exact[norm]; !taken {
			exact[norm] = input
		}
	}

	for _, header := range headers {
		norm := normalizeFieldName(header)
		if norm == "" {
			suggestions = append(suggestions, Suggestion{Header: header})
			continue
		}
		if input, found := exact[norm]; found {
			suggestions = append(suggestions, Suggestion{Header: header, Field: table[input], Match: matchExact})
			continue
		}

		best := ""
		bestDistance := -1
		for _, input := range inputs {
			candidate := normalizeFieldName(input)
			if !fuzzy.Match(norm, candidate) && !fuzzy.Match(candidate, norm) {
				continue
			}
			if d := fuzzy.LevenshteinDistance(norm, candidate); bestDistance < 0 || d < bestDistance {
				best = input
				bestDistance = d
			}
		}
		if best == "" {
			suggestions = append(suggestions, Suggestion{Header: header})
			continue
		}
		suggestions = append(suggestions, Suggestion{Header: header, Field: table[best], Match: matchFuzzy})
	}
	return suggestions
}

// normalizeFieldName lowercases and strips separators so "First Name",
// first_name and first-name all compare equal.
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
