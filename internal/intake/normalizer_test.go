package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{DefaultState: "CA", MaxPartiesPerType: 20}
}

func TestNormalizeAddressFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStreet string
		wantState  string
	}{
		{
			name: "dedicated street field wins",
			payload: map[string]interface{}{
				"property-street-address": "12 Oak St",
				"property-address-line-1": "ignored",
				"property-state":          "ny",
			},
			wantStreet: "12 Oak St",
			wantState:  "NY",
		},
		{
			name: "line 1 fallback with default state",
			payload: map[string]interface{}{
				"property-address-line-1": "456 Elm Ave",
			},
			wantStreet: "456 Elm Ave",
			wantState:  "CA",
		},
		{
			name: "malformed state falls back to default",
			payload: map[string]interface{}{
				"property-street-address": "789 Pine Rd",
				"property-state":          "California",
			},
			wantStreet: "789 Pine Rd",
			wantState:  "CA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.payload, testOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreet, got.Case.StreetAddress)
			assert.Equal(t, tt.wantState, got.Case.State)
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	_, err := Normalize(nil, testOptions())
	var malformed *MalformedSubmissionError
	require.ErrorAs(t, err, &malformed)

	_, err = Normalize(map[string]interface{}{
		"property-city": "Los Angeles",
	}, testOptions())
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "property address")
}

func TestNormalizeSparsePartyIndices(t *testing.T) {
	payload := map[string]interface{}{
		"property-street-address": "12 Oak St",
		"plaintiff-2-first-name":  "Maria",
		"plaintiff-2-last-name":   "Lopez",
		"plaintiff-5-first-name":  "James",
		"plaintiff-5-last-name":   "Lopez",
		"defendant-1-last-name":   "Bayview Property Mgmt",
		"defendant-1-role":        "property manager",
	}

	got, err := Normalize(payload, testOptions())
	require.NoError(t, err)
	require.Len(t, got.Parties, 3)

	// Sparse indices compact: discovery order is the ascending index
	// scan, so ordinals stay stable across re-runs.
	assert.Equal(t, "plaintiff", got.Parties[0].Type)
	assert.Equal(t, 1, got.Parties[0].Ordinal)
	assert.Equal(t, "Maria", got.Parties[0].FirstName)
	assert.Equal(t, 2, got.Parties[1].Ordinal)
	assert.Equal(t, "James", got.Parties[1].FirstName)

	assert.Equal(t, "defendant", got.Parties[2].Type)
	assert.Equal(t, 1, got.Parties[2].Ordinal)
	assert.Equal(t, map[string]interface{}{"role": "property manager"}, got.Parties[2].Attributes)
}

func TestNormalizePartyAttributes(t *testing.T) {
	payload := map[string]interface{}{
		"property-street-address":       "12 Oak St",
		"plaintiff-1-first-name":        "Ana",
		"plaintiff-1-head-of-household": "yes",
		"defendant-1-last-name":         "Smith Holdings LLC",
		"defendant-1-unit":              "4B",
	}

	got, err := Normalize(payload, testOptions())
	require.NoError(t, err)
	require.Len(t, got.Parties, 2)

	assert.Equal(t, map[string]interface{}{"head_of_household": true}, got.Parties[0].Attributes)
	assert.Equal(t, map[string]interface{}{"unit": "4B"}, got.Parties[1].Attributes)
}

func TestFlattenIssueShapes(t *testing.T) {
	base := map[string]interface{}{
		"property-street-address": "12 Oak St",
		"plaintiff-1-first-name":  "Ana",
	}

	t.Run("nested checklist map", func(t *testing.T) {
		payload := clone(base)
		payload["plaintiff-1-issues"] = map[string]interface{}{
			"pest_infestation": []interface{}{"Cockroaches", "Mice"},
			"plumbing":         "Leaking Pipes",
		}

		got, err := Normalize(payload, testOptions())
		require.NoError(t, err)
		require.Len(t, got.Parties[0].Issues, 3)
		assert.Equal(t, IssuePair{CategoryHint: "pest_infestation", Label: "Cockroaches"}, got.Parties[0].Issues[0])
		assert.Equal(t, IssuePair{CategoryHint: "plumbing", Label: "Leaking Pipes"}, got.Parties[0].Issues[2])
	})

	t.Run("flat label list", func(t *testing.T) {
		payload := clone(base)
		payload["plaintiff-1-issues"] = []interface{}{"Mice", "No Heat"}

		got, err := Normalize(payload, testOptions())
		require.NoError(t, err)
		require.Len(t, got.Parties[0].Issues, 2)
		assert.Empty(t, got.Parties[0].Issues[0].CategoryHint)
	})

	t.Run("duplicates dropped case-insensitively", func(t *testing.T) {
		payload := clone(base)
		payload["plaintiff-1-issues"] = map[string]interface{}{
			"pest_infestation": []interface{}{"Mice", "mice", " MICE "},
		}

		got, err := Normalize(payload, testOptions())
		require.NoError(t, err)
		assert.Len(t, got.Parties[0].Issues, 1)
	})
}

func TestNormalizeIsPure(t *testing.T) {
	payload := map[string]interface{}{
		"property-street-address": "12 Oak St",
		"plaintiff-1-first-name":  "Ana",
		"plaintiff-1-issues":      []interface{}{"Mice"},
	}

	first, err := Normalize(payload, testOptions())
	require.NoError(t, err)
	second, err := Normalize(payload, testOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func clone(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
