package reconstruct

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/intake"
	"github.com/relaw/case-intake/internal/pipeline"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

func setup(t *testing.T) (*Reconstructor, *pipeline.Coordinator, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedTaxonomy(db))

	log, err := logger.NewLogger("error", "json")
	require.NoError(t, err)

	var categories []database.IssueCategory
	err = db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC")
	}).Order("display_order ASC").Find(&categories).Error
	require.NoError(t, err)

	coordinator := pipeline.NewCoordinator(db, &taxonomy.FixedProvider{Snap: taxonomy.NewSnapshot(categories)}, log, pipeline.Config{
		Normalizer: intake.Options{DefaultState: "CA", MaxPartiesPerType: 20},
		Quality: pipeline.QualityRules{
			RequireParty:      true,
			PostalCodePattern: regexp.MustCompile(`^\d{5}(-\d{4})?$`),
		},
	})

	return New(db), coordinator, db
}

func TestReconstructRoundTrip(t *testing.T) {
	recon, coordinator, _ := setup(t)
	ctx := context.Background()

	// 2 plaintiffs, 1 defendant, 3 resolvable selections, 1 unresolvable.
	payload := map[string]interface{}{
		"property-street-address": "12 Oak St",
		"property-city":           "Oakland",
		"property-state":          "CA",
		"property-zip":            "94601",
		"filing-county":           "Alameda",
		"filing-court":            "Superior Court of Alameda County",

		"plaintiff-1-first-name":        "Maria",
		"plaintiff-1-last-name":         "Lopez",
		"plaintiff-1-head-of-household": true,
		"plaintiff-1-issues": map[string]interface{}{
			"pest_infestation": []interface{}{"Cockroaches", "Mice"},
		},

		"plaintiff-2-first-name": "James",
		"plaintiff-2-last-name":  "Lopez",
		"plaintiff-2-issues": map[string]interface{}{
			"mold_mildew": []interface{}{"Bathroom Mold", "Broken Jacuzzi"},
		},

		"defendant-1-last-name": "Bayview Property Mgmt",
		"defendant-1-unit":      "4B",
	}

	result, err := coordinator.Run(ctx, "", payload)
	require.NoError(t, err)
	require.Equal(t, database.StatusSucceeded, result.Status)
	require.Len(t, result.Unresolved, 1)

	doc, err := recon.Reconstruct(ctx, result.CaseID)
	require.NoError(t, err)

	// Case fields survive.
	assert.Equal(t, "12 Oak St", doc["property-street-address"])
	assert.Equal(t, "CA", doc["property-state"])
	assert.Equal(t, "Alameda", doc["filing-county"])

	// Party split survives: 2 plaintiffs, 1 defendant.
	assert.Equal(t, "Maria", doc["plaintiff-1-first-name"])
	assert.Equal(t, true, doc["plaintiff-1-head-of-household"])
	assert.Equal(t, "James", doc["plaintiff-2-first-name"])
	assert.Equal(t, "Bayview Property Mgmt", doc["defendant-1-last-name"])
	assert.Equal(t, "4B", doc["defendant-1-unit"])
	assert.NotContains(t, doc, "plaintiff-3-first-name")
	assert.NotContains(t, doc, "defendant-2-last-name")

	// The 3 resolved selections come back grouped by category; the
	// unresolved label does not reappear.
	p1Issues, ok := doc["plaintiff-1-issues"].(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"Cockroaches", "Mice"}, p1Issues["pest_infestation"])

	p2Issues, ok := doc["plaintiff-2-issues"].(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"Bathroom Mold"}, p2Issues["mold_mildew"])

	assert.NotContains(t, fmt.Sprint(doc), "Broken Jacuzzi")

	// The reconstructed document normalizes back to the same shape.
	require.NoError(t, recon.VerifyRoundTrip(ctx, result.CaseID, doc, intake.Options{DefaultState: "CA", MaxPartiesPerType: 20}))
}

func TestReconstructUnknownCase(t *testing.T) {
	recon, _, _ := setup(t)

	_, err := recon.Reconstruct(context.Background(), "no-such-case")
	assert.Error(t, err)
}

func TestReconstructOrdering(t *testing.T) {
	recon, coordinator, _ := setup(t)
	ctx := context.Background()

	payload := map[string]interface{}{
		"property-street-address": "12 Oak St",
		"property-zip":            "94601",
		"plaintiff-3-first-name":  "Third",
		"plaintiff-3-last-name":   "Index",
		"plaintiff-8-first-name":  "Eighth",
		"plaintiff-8-last-name":   "Index",
	}

	result, err := coordinator.Run(ctx, "", payload)
	require.NoError(t, err)
	require.Equal(t, database.StatusSucceeded, result.Status)

	doc, err := recon.Reconstruct(ctx, result.CaseID)
	require.NoError(t, err)

	// Sparse input indices reconstruct as compact ordinals.
	assert.Equal(t, "Third", doc["plaintiff-1-first-name"])
	assert.Equal(t, "Eighth", doc["plaintiff-2-first-name"])
	assert.NotContains(t, doc, "plaintiff-3-first-name")
}
