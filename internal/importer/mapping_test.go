package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappingByField(entries []MappingEntry) map[string]MappingEntry {
	out := make(map[string]MappingEntry, len(entries))
	for _, e := range entries {
		out[e.Field] = e
	}
	return out
}

func TestSuggestMappingExactMatch(t *testing.T) {
	headers := []string{"Name", "Email", "Phone", "Company"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	assert.Equal(t, "Name", byField["name"].Column)
	assert.Equal(t, "Email", byField["email"].Column)
	assert.Equal(t, "Phone", byField["phone"].Column)
	assert.Equal(t, "Company", byField["company"].Column)
}

func TestSuggestMappingSubstring(t *testing.T) {
	headers := []string{"Full Name", "Email Address", "Phone Number"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	assert.Equal(t, "Full Name", byField["name"].Column)
	assert.Equal(t, "Email Address", byField["email"].Column)
	assert.Equal(t, "Phone Number", byField["phone"].Column)
}

func TestSuggestMappingExactBeatsSubstring(t *testing.T) {
	// "Email" appears both as a substring match and an exact match; the
	// exact header must win even though the substring one comes first.
	headers := []string{"Email Address", "Email"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	assert.Equal(t, "Email", byField["email"].Column)
}

func TestSuggestMappingLeftmostWins(t *testing.T) {
	headers := []string{"Name", "Name (alt)", "Email", "Phone"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	assert.Equal(t, "Name", byField["name"].Column)
}

func TestSuggestMappingRequiredAlwaysPresent(t *testing.T) {
	// No header matches phone; the required entry is still emitted with
	// an empty column so the operator sees the gap.
	headers := []string{"Name", "Email"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	entry, ok := byField["phone"]
	require.True(t, ok)
	assert.Equal(t, "", entry.Column)
	assert.True(t, entry.Required)
}

func TestSuggestMappingOptionalOmittedWhenUnmatched(t *testing.T) {
	headers := []string{"Name", "Email", "Phone"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	_, hasCompany := byField["company"]
	assert.False(t, hasCompany)
	_, hasSource := byField["source"]
	assert.False(t, hasSource)
}

func TestSuggestMappingDeterministic(t *testing.T) {
	headers := []string{"Full Name", "Email", "Phone", "Company", "Priority"}

	first := SuggestMapping(DefaultLeadFields(), headers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SuggestMapping(DefaultLeadFields(), headers))
	}
}

func TestSuggestMappingCarriesDefaults(t *testing.T) {
	headers := []string{"Name", "Email", "Phone", "Source", "Priority"}

	mapping := SuggestMapping(DefaultLeadFields(), headers)
	byField := mappingByField(mapping)

	assert.Equal(t, "Import", byField["source"].Default)
	assert.Equal(t, "Medium", byField["priority"].Default)
}
