package intake

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Field fallback chains for the case-level address. The form has shipped
// several key spellings over time; first non-empty wins.
var (
	streetKeys = []string{"property-street-address", "property-address-line-1", "property-address"}
	cityKeys   = []string{"property-city"}
	stateKeys  = []string{"property-state"}
	postalKeys = []string{"property-zip", "property-postal-code"}
	countyKeys = []string{"filing-county"}
	courtKeys  = []string{"filing-court"}
)

var stateCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// Normalize converts a raw form submission into the intermediate
// representation. Pure function of its input; the only error it returns
// is *MalformedSubmissionError.
func Normalize(raw map[string]interface{}, opts Options) (*Normalized, error) {
	if raw == nil {
		return nil, &MalformedSubmissionError{Reason: "payload is not a key/value document"}
	}
	if opts.MaxPartiesPerType <= 0 {
		opts.MaxPartiesPerType = 20
	}

	street := firstNonEmpty(raw, streetKeys)
	if street == "" {
		return nil, &MalformedSubmissionError{Reason: "property address missing from all known fields"}
	}

	normalized := &Normalized{
		Case: CaseFields{
			StreetAddress: street,
			City:          firstNonEmpty(raw, cityKeys),
			State:         normalizeState(firstNonEmpty(raw, stateKeys), opts.DefaultState),
			PostalCode:    firstNonEmpty(raw, postalKeys),
			FilingCounty:  firstNonEmpty(raw, countyKeys),
			FilingCourt:   firstNonEmpty(raw, courtKeys),
		},
	}

	normalized.Parties = append(normalized.Parties, scanParties(raw, "plaintiff", opts.MaxPartiesPerType)...)
	normalized.Parties = append(normalized.Parties, scanParties(raw, "defendant", opts.MaxPartiesPerType)...)

	return normalized, nil
}

// scanParties walks the repeated-group keys <type>-N-* for N in
// 1..maxPerType. Missing indices are skipped; ordinals are assigned
// sequentially in discovery order, so sparse numbering compacts.
func scanParties(raw map[string]interface{}, partyType string, maxPerType int) []PartyFields {
	var parties []PartyFields

	for n := 1; n <= maxPerType; n++ {
		prefix := fmt.Sprintf("%s-%d-", partyType, n)
		if !hasPrefixedKey(raw, prefix) {
			continue
		}

		party := PartyFields{
			Type:      partyType,
			Ordinal:   len(parties) + 1,
			FirstName: stringValue(raw[prefix+"first-name"]),
			LastName:  stringValue(raw[prefix+"last-name"]),
		}

		switch partyType {
		case "plaintiff":
			if v, ok := raw[prefix+"head-of-household"]; ok {
				party.Attributes = map[string]interface{}{
					"head_of_household": truthy(v),
				}
			}
		case "defendant":
			attrs := map[string]interface{}{}
			if unit := stringValue(raw[prefix+"unit"]); unit != "" {
				attrs["unit"] = unit
			}
			if role := stringValue(raw[prefix+"role"]); role != "" {
				attrs["role"] = role
			}
			if len(attrs) > 0 {
				party.Attributes = attrs
			}
		}

		party.Issues = flattenIssues(raw[prefix+"issues"])
		parties = append(parties, party)
	}

	return parties
}

// flattenIssues accepts the checklist shapes the form produces: a map of
// category hint to label list (or single label), a bare label list, or a
// single label. Duplicate pairs are dropped.
func flattenIssues(value interface{}) []IssuePair {
	var pairs []IssuePair

	switch v := value.(type) {
	case map[string]interface{}:
		// Sort hints so output order does not depend on map iteration.
		hints := make([]string, 0, len(v))
		for hint := range v {
			hints = append(hints, hint)
		}
		sort.Strings(hints)

		for _, hint := range hints {
			switch labels := v[hint].(type) {
			case []interface{}:
				for _, label := range labels {
					pairs = appendPair(pairs, hint, stringValue(label))
				}
			default:
				pairs = appendPair(pairs, hint, stringValue(labels))
			}
		}
	case []interface{}:
		for _, label := range v {
			pairs = appendPair(pairs, "", stringValue(label))
		}
	default:
		pairs = appendPair(pairs, "", stringValue(v))
	}

	return dedupePairs(pairs)
}

func appendPair(pairs []IssuePair, hint, label string) []IssuePair {
	label = strings.TrimSpace(label)
	if label == "" {
		return pairs
	}
	return append(pairs, IssuePair{CategoryHint: strings.TrimSpace(hint), Label: label})
}

func dedupePairs(pairs []IssuePair) []IssuePair {
	if len(pairs) < 2 {
		return pairs
	}

	seen := make(map[string]bool, len(pairs))
	out := pairs[:0]
	for _, pair := range pairs {
		key := strings.ToLower(pair.CategoryHint) + "\x00" + strings.ToLower(pair.Label)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, pair)
	}
	return out
}

// normalizeState uppercases a 2-letter state code and falls back to the
// configured default jurisdiction when absent or malformed.
func normalizeState(value, defaultState string) string {
	code := strings.ToUpper(strings.TrimSpace(value))
	if stateCodeRe.MatchString(code) {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(defaultState))
}

func firstNonEmpty(raw map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if value := stringValue(raw[key]); value != "" {
			return value
		}
	}
	return ""
}

func hasPrefixedKey(raw map[string]interface{}, prefix string) bool {
	for key := range raw {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	case bool, int, int64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}
