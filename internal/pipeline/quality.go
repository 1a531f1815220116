package pipeline

import (
	"fmt"
	"regexp"

	"github.com/relaw/case-intake/internal/intake"
)

// Quality rule names surfaced to callers on failure.
const (
	RuleAtLeastOneParty  = "at_least_one_party"
	RulePartyNameMissing = "party_name_required"
	RulePostalCodeFormat = "postal_code_format"
)

// QualityCheckError names the violated rule. Quality violations fail the
// pipeline because the submission cannot produce a usable case record.
type QualityCheckError struct {
	Rule   string
	Detail string
}

func (e *QualityCheckError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("quality check failed: %s (%s)", e.Rule, e.Detail)
	}
	return "quality check failed: " + e.Rule
}

// QualityRules is the configurable cross-field rule set applied in phase 4.
type QualityRules struct {
	// RequireParty enforces at least one party of any type.
	RequireParty bool
	// PostalCodePattern validates the case postal code when set.
	PostalCodePattern *regexp.Regexp
}

// Check runs every configured rule against the intermediate representation
// and returns the first violation.
func (r QualityRules) Check(n *intake.Normalized) *QualityCheckError {
	if r.RequireParty && len(n.Parties) == 0 {
		return &QualityCheckError{Rule: RuleAtLeastOneParty}
	}

	for _, party := range n.Parties {
		if party.FirstName == "" && party.LastName == "" {
			return &QualityCheckError{
				Rule:   RulePartyNameMissing,
				Detail: fmt.Sprintf("%s %d has no name", party.Type, party.Ordinal),
			}
		}
	}

	if r.PostalCodePattern != nil && !r.PostalCodePattern.MatchString(n.Case.PostalCode) {
		return &QualityCheckError{
			Rule:   RulePostalCodeFormat,
			Detail: fmt.Sprintf("postal code %q does not match required format", n.Case.PostalCode),
		}
	}

	return nil
}
