package intake

import (
	"fmt"

	"github.com/relaw/case-intake/internal/taxonomy"
)

// ResolvedSelection ties a party (by index into Normalized.Parties) to a
// taxonomy option.
type ResolvedSelection struct {
	PartyIndex   int    `json:"party_index"`
	OptionID     string `json:"option_id"`
	OptionCode   string `json:"option_code"`
	OptionName   string `json:"option_name"`
	CategoryID   string `json:"category_id"`
	CategoryCode string `json:"category_code"`
}

// UnresolvedIssue is a checklist entry that matched no taxonomy option.
// Collected as a warning, never a failure.
type UnresolvedIssue struct {
	PartyType    string `json:"party_type"`
	PartyOrdinal int    `json:"party_ordinal"`
	CategoryHint string `json:"category_hint,omitempty"`
	Label        string `json:"label"`
}

// Resolution is the resolver output for one submission.
type Resolution struct {
	Selections []ResolvedSelection `json:"selections"`
	Unresolved []UnresolvedIssue   `json:"unresolved"`
}

// Resolve maps every party's issue pairs to taxonomy options against a
// fixed catalog snapshot. Deterministic: no I/O, identical input and
// snapshot always produce identical output.
func Resolve(n *Normalized, snap *taxonomy.Snapshot) *Resolution {
	res := &Resolution{}
	seen := make(map[string]bool)

	for pi := range n.Parties {
		party := &n.Parties[pi]

		for _, pair := range party.Issues {
			option, ok := snap.LookupOption(pair.CategoryHint, pair.Label)
			if !ok {
				res.Unresolved = append(res.Unresolved, UnresolvedIssue{
					PartyType:    party.Type,
					PartyOrdinal: party.Ordinal,
					CategoryHint: pair.CategoryHint,
					Label:        pair.Label,
				})
				continue
			}

			// Two labels can alias the same option; keep one selection
			// per (party, option) so the unique constraint holds.
			key := keyFor(pi, option.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			_, category, _ := snap.OptionByID(option.ID)
			selection := ResolvedSelection{
				PartyIndex: pi,
				OptionID:   option.ID,
				OptionCode: option.Code,
				OptionName: option.Name,
				CategoryID: option.CategoryID,
			}
			if category != nil {
				selection.CategoryCode = category.Code
			}
			res.Selections = append(res.Selections, selection)
		}
	}

	return res
}

func keyFor(partyIndex int, optionID string) string {
	return fmt.Sprintf("%d:%s", partyIndex, optionID)
}
