package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/intake"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

// Config carries the tunable parts of a pipeline run.
type Config struct {
	Normalizer intake.Options
	Quality    QualityRules
}

// Result is the outcome of one pipeline run.
type Result struct {
	CaseID     string                   `json:"case_id"`
	Status     string                   `json:"pipeline_status"`
	Unresolved []intake.UnresolvedIssue `json:"unresolved_issues"`
	Errors     []string                 `json:"errors"`
}

// Coordinator drives the five-phase normalization pipeline:
// validate -> extract_parties -> resolve_issues -> quality_check -> persist.
// Phases 1-4 are side-effect free; persist is all-or-nothing inside a
// single transaction, serialized per case id.
type Coordinator struct {
	db       *gorm.DB
	taxonomy taxonomy.SnapshotProvider
	logger   *logger.Logger
	cfg      Config
	locks    *caseLocks
}

func NewCoordinator(db *gorm.DB, provider taxonomy.SnapshotProvider, log *logger.Logger, cfg Config) *Coordinator {
	return &Coordinator{
		db:       db,
		taxonomy: provider,
		logger:   log,
		cfg:      cfg,
		locks:    newCaseLocks(),
	}
}

// Run executes the pipeline for one submission. An empty caseID creates a
// new case; a known caseID re-runs against the existing row, replacing
// parties and selections wholesale. Pipeline-domain failures (malformed
// submission, quality violations, persistence errors) are reported in the
// Result with status "failed"; the returned error is reserved for
// infrastructure problems that prevented recording an outcome at all.
func (c *Coordinator) Run(ctx context.Context, caseID string, raw map[string]interface{}) (*Result, error) {
	caseRow, err := c.ensureCase(ctx, caseID, raw)
	if err != nil {
		return nil, err
	}

	result := &Result{CaseID: caseRow.ID, Status: database.StatusRunning}

	// Phase 1: validate.
	normalized, err := intake.Normalize(raw, c.cfg.Normalizer)
	if err != nil {
		var malformed *intake.MalformedSubmissionError
		if errors.As(err, &malformed) {
			c.logger.Warn("Submission rejected as malformed", "case_id", caseRow.ID, "reason", malformed.Reason)
			return c.fail(ctx, result, err.Error()), nil
		}
		return nil, fmt.Errorf("normalization failed: %w", err)
	}

	// Phase 2: extract parties. Ordinals were assigned per type in
	// discovery order by the normalizer, so the uniqueness invariant
	// holds by construction.
	parties := buildParties(caseRow.ID, normalized)

	// Phase 3: resolve issues. Unresolved labels are warnings only.
	snap, err := c.taxonomy.Snapshot(ctx)
	if err != nil {
		c.logger.Error("Failed to load taxonomy snapshot", "case_id", caseRow.ID, "error", err)
		return c.fail(ctx, result, fmt.Sprintf("taxonomy snapshot unavailable: %v", err)), nil
	}
	resolution := intake.Resolve(normalized, snap)
	result.Unresolved = resolution.Unresolved
	for _, u := range resolution.Unresolved {
		c.logger.Warn("Unresolved issue label",
			"case_id", caseRow.ID,
			"party", fmt.Sprintf("%s-%d", u.PartyType, u.PartyOrdinal),
			"category_hint", u.CategoryHint,
			"label", u.Label,
		)
	}

	// Phase 4: quality check.
	if violation := c.cfg.Quality.Check(normalized); violation != nil {
		c.logger.Warn("Quality check failed", "case_id", caseRow.ID, "rule", violation.Rule)
		return c.fail(ctx, result, violation.Error()), nil
	}

	// Phase 5: persist, serialized per case id.
	c.locks.acquire(caseRow.ID)
	defer c.locks.release(caseRow.ID)

	if err := c.persist(ctx, caseRow.ID, normalized, parties, resolution); err != nil {
		c.logger.Error("Persist phase failed", "case_id", caseRow.ID, "error", err)
		return c.fail(ctx, result, err.Error()), nil
	}

	result.Status = database.StatusSucceeded
	c.logger.Info("Pipeline run succeeded",
		"case_id", caseRow.ID,
		"parties", len(parties),
		"selections", len(resolution.Selections),
		"unresolved", len(resolution.Unresolved),
	)
	return result, nil
}

// RunStored re-runs the pipeline from a case's stored raw payload.
func (c *Coordinator) RunStored(ctx context.Context, caseID string) (*Result, error) {
	var caseRow database.Case
	if err := c.db.WithContext(ctx).First(&caseRow, "id = ?", caseID).Error; err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(caseRow.RawPayload, &raw); err != nil {
		return nil, fmt.Errorf("stored raw payload for case %s is unreadable: %w", caseID, err)
	}

	return c.Run(ctx, caseID, raw)
}

// ensureCase creates the case row (recording the raw payload write-once)
// or flips an existing row back to running. The raw payload of an existing
// case is never touched.
func (c *Coordinator) ensureCase(ctx context.Context, caseID string, raw map[string]interface{}) (*database.Case, error) {
	if caseID != "" {
		var existing database.Case
		err := c.db.WithContext(ctx).First(&existing, "id = ?", caseID).Error
		if err == nil {
			update := c.db.WithContext(ctx).Model(&database.Case{}).
				Where("id = ?", caseID).
				Update("pipeline_status", database.StatusRunning)
			if update.Error != nil {
				return nil, fmt.Errorf("failed to mark case running: %w", update.Error)
			}
			existing.PipelineStatus = database.StatusRunning
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
		}
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}

	caseRow := &database.Case{
		ID:             caseID,
		RawPayload:     rawJSON,
		PipelineStatus: database.StatusRunning,
	}
	if err := c.db.WithContext(ctx).Create(caseRow).Error; err != nil {
		return nil, fmt.Errorf("failed to create case row: %w", err)
	}
	return caseRow, nil
}

// buildParties materializes party rows with pre-assigned ids so selection
// rows can reference them before anything is written.
func buildParties(caseID string, n *intake.Normalized) []database.Party {
	parties := make([]database.Party, 0, len(n.Parties))

	for _, pf := range n.Parties {
		party := database.Party{
			ID:        uuid.New().String(),
			CaseID:    caseID,
			Type:      pf.Type,
			Ordinal:   pf.Ordinal,
			FirstName: pf.FirstName,
			LastName:  pf.LastName,
		}
		if len(pf.Attributes) > 0 {
			// Attribute bags are small; a marshal failure here would mean
			// the normalizer emitted something non-JSON, which it cannot.
			attrs, _ := json.Marshal(pf.Attributes)
			party.Attributes = attrs
		}
		parties = append(parties, party)
	}

	return parties
}

// persist replaces the case's relational rows inside one transaction.
// Any error rolls the whole transaction back, leaving rows from a prior
// successful run untouched.
func (c *Coordinator) persist(ctx context.Context, caseID string, n *intake.Normalized, parties []database.Party, resolution *intake.Resolution) error {
	latest, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode normalized payload: %w", err)
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Replace, never patch: clear this case's selections and parties.
		if err := tx.Exec(`
			DELETE FROM party_issue_selections
			WHERE party_id IN (SELECT id FROM parties WHERE case_id = ?)
		`, caseID).Error; err != nil {
			return fmt.Errorf("failed to clear selections: %w", err)
		}
		if err := tx.Where("case_id = ?", caseID).Delete(&database.Party{}).Error; err != nil {
			return fmt.Errorf("failed to clear parties: %w", err)
		}

		updates := map[string]interface{}{
			"street_address":  n.Case.StreetAddress,
			"city":            n.Case.City,
			"state":           n.Case.State,
			"postal_code":     n.Case.PostalCode,
			"filing_county":   n.Case.FilingCounty,
			"filing_court":    n.Case.FilingCourt,
			"latest_payload":  latest,
			"pipeline_status": database.StatusSucceeded,
			"pipeline_error":  "",
		}
		if err := tx.Model(&database.Case{}).Where("id = ?", caseID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update case: %w", err)
		}

		if len(parties) > 0 {
			if err := tx.Create(&parties).Error; err != nil {
				return fmt.Errorf("failed to insert parties: %w", err)
			}
		}

		for _, sel := range resolution.Selections {
			row := database.PartyIssueSelection{
				PartyID:       parties[sel.PartyIndex].ID,
				IssueOptionID: sel.OptionID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert selection: %w", err)
			}
		}

		return nil
	})
}

// fail records the failed outcome on the case row and in the result. The
// status update is deliberately outside any transaction so it survives a
// persist rollback.
func (c *Coordinator) fail(ctx context.Context, result *Result, detail string) *Result {
	result.Status = database.StatusFailed
	result.Errors = append(result.Errors, detail)

	err := c.db.WithContext(ctx).Model(&database.Case{}).
		Where("id = ?", result.CaseID).
		Updates(map[string]interface{}{
			"pipeline_status": database.StatusFailed,
			"pipeline_error":  detail,
		}).Error
	if err != nil {
		c.logger.Error("Failed to record pipeline failure", "case_id", result.CaseID, "error", err)
	}

	return result
}
