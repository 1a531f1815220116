package taxonomy

import (
	"strings"

	"github.com/relaw/case-intake/internal/database"
)

// Snapshot is an immutable view of the issue catalog taken at load time.
// Categories and their options are ordered by display order, and lookup
// indexes are prebuilt so resolution is a pure in-memory operation.
type Snapshot struct {
	Categories []database.IssueCategory

	// byCategory maps a folded category code or name to that category's
	// option index (folded option code or name -> option).
	byCategory map[string]map[string]*database.IssueOption
	// global holds every option keyed by folded code/name, first category
	// in display order wins on collisions.
	global map[string]*database.IssueOption
	// optionsByID resolves an option id back to its option and category.
	optionsByID map[string]optionRef
}

type optionRef struct {
	Option   *database.IssueOption
	Category *database.IssueCategory
}

// Fold normalizes a label for matching: whitespace-trimmed, case-folded.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewSnapshot builds a snapshot from categories loaded in display order
// with their options preloaded in display order.
func NewSnapshot(categories []database.IssueCategory) *Snapshot {
	snap := &Snapshot{
		Categories:  categories,
		byCategory:  make(map[string]map[string]*database.IssueOption),
		global:      make(map[string]*database.IssueOption),
		optionsByID: make(map[string]optionRef),
	}

	for ci := range snap.Categories {
		category := &snap.Categories[ci]

		index := make(map[string]*database.IssueOption, len(category.Options)*2)
		for oi := range category.Options {
			option := &category.Options[oi]

			for _, key := range []string{Fold(option.Code), Fold(option.Name)} {
				if key == "" {
					continue
				}
				index[key] = option
				if _, taken := snap.global[key]; !taken {
					snap.global[key] = option
				}
			}
			snap.optionsByID[option.ID] = optionRef{Option: option, Category: category}
		}

		for _, key := range []string{Fold(category.Code), Fold(category.Name)} {
			if key == "" {
				continue
			}
			if _, taken := snap.byCategory[key]; !taken {
				snap.byCategory[key] = index
			}
		}
	}

	return snap
}

// LookupOption resolves a (category hint, label) pair to an option. The
// hinted category is searched first; an unknown or empty hint falls back
// to the global index.
func (s *Snapshot) LookupOption(categoryHint, label string) (*database.IssueOption, bool) {
	key := Fold(label)
	if key == "" {
		return nil, false
	}

	if hint := Fold(categoryHint); hint != "" {
		if index, ok := s.byCategory[hint]; ok {
			if option, ok := index[key]; ok {
				return option, true
			}
			// Hint matched a category but the label is not in it; fall
			// through to the global search.
		}
	}

	option, ok := s.global[key]
	return option, ok
}

// OptionByID returns the option and its category for a stored selection.
func (s *Snapshot) OptionByID(id string) (*database.IssueOption, *database.IssueCategory, bool) {
	ref, ok := s.optionsByID[id]
	if !ok {
		return nil, nil, false
	}
	return ref.Option, ref.Category, true
}
