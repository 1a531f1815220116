package reconstruct

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/intake"
)

// Reconstructor rebuilds an original-shaped submission document from a
// case's relational rows. Used for exports and document generation; it is
// the inverse of the normalization pipeline for every field the pipeline
// wrote. Fields that were never normalized (submitter contact metadata
// and the like) live only in the stored raw payload.
type Reconstructor struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Reconstructor {
	return &Reconstructor{db: db}
}

// Reconstruct builds the document for one case. Parties come back in
// (type, ordinal) order and each party's issues are regrouped by category
// in display order.
func (r *Reconstructor) Reconstruct(ctx context.Context, caseID string) (map[string]interface{}, error) {
	var caseRow database.Case
	if err := r.db.WithContext(ctx).First(&caseRow, "id = ?", caseID).Error; err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	var parties []database.Party
	err := r.db.WithContext(ctx).
		Preload("Selections.IssueOption").
		Where("case_id = ?", caseID).
		Order("type ASC, ordinal ASC").
		Find(&parties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load parties for case %s: %w", caseID, err)
	}

	categoryCodes, err := r.categoryCodesByOption(ctx)
	if err != nil {
		return nil, err
	}

	doc := map[string]interface{}{
		"property-street-address": caseRow.StreetAddress,
		"property-city":           caseRow.City,
		"property-state":          caseRow.State,
		"property-zip":            caseRow.PostalCode,
		"filing-county":           caseRow.FilingCounty,
		"filing-court":            caseRow.FilingCourt,
	}

	for _, party := range parties {
		prefix := fmt.Sprintf("%s-%d-", party.Type, party.Ordinal)
		doc[prefix+"first-name"] = party.FirstName
		doc[prefix+"last-name"] = party.LastName

		if len(party.Attributes) > 0 {
			var attrs map[string]interface{}
			if err := json.Unmarshal(party.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("party %s has unreadable attributes: %w", party.ID, err)
			}
			switch party.Type {
			case database.PartyPlaintiff:
				if hoh, ok := attrs["head_of_household"].(bool); ok {
					doc[prefix+"head-of-household"] = hoh
				}
			case database.PartyDefendant:
				if unit, ok := attrs["unit"].(string); ok {
					doc[prefix+"unit"] = unit
				}
				if role, ok := attrs["role"].(string); ok {
					doc[prefix+"role"] = role
				}
			}
		}

		if issues := groupSelections(party.Selections, categoryCodes); len(issues) > 0 {
			doc[prefix+"issues"] = issues
		}
	}

	return doc, nil
}

// groupSelections regroups a party's selections into the nested checklist
// shape: category code -> option names, in stored selection order (which
// follows option display order via the preload ordering on insert).
func groupSelections(selections []database.PartyIssueSelection, categoryCodes map[string]string) map[string]interface{} {
	grouped := make(map[string][]interface{})
	for _, sel := range selections {
		code := categoryCodes[sel.IssueOption.CategoryID]
		if code == "" {
			code = sel.IssueOption.CategoryID
		}
		grouped[code] = append(grouped[code], sel.IssueOption.Name)
	}

	if len(grouped) == 0 {
		return nil
	}

	issues := make(map[string]interface{}, len(grouped))
	for code, names := range grouped {
		issues[code] = names
	}
	return issues
}

func (r *Reconstructor) categoryCodesByOption(ctx context.Context) (map[string]string, error) {
	var categories []database.IssueCategory
	if err := r.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load issue categories: %w", err)
	}

	codes := make(map[string]string, len(categories))
	for _, category := range categories {
		codes[category.ID] = category.Code
	}
	return codes, nil
}

// VerifyRoundTrip re-normalizes a reconstructed document and checks that
// the party split survives. It guards the reconstruction key convention
// against drifting away from the normalizer's.
func (r *Reconstructor) VerifyRoundTrip(ctx context.Context, caseID string, doc map[string]interface{}, opts intake.Options) error {
	normalized, err := intake.Normalize(doc, opts)
	if err != nil {
		return fmt.Errorf("reconstructed document failed normalization: %w", err)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Party{}).Where("case_id = ?", caseID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count parties: %w", err)
	}

	if int64(len(normalized.Parties)) != count {
		return fmt.Errorf("round-trip mismatch: reconstructed %d parties, stored %d", len(normalized.Parties), count)
	}

	return nil
}
