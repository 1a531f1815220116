package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes all database migrations beyond AutoMigrate
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Index for status dashboards and retry sweeps
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cases_status_updated
		ON cases(pipeline_status, updated_at)
	`).Error; err != nil {
		return err
	}

	// Index for party lookups in reconstruction order
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_parties_case_order
		ON parties(case_id, type, ordinal)
	`).Error; err != nil {
		return err
	}

	// Index for joining selections back to options
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_selections_option
		ON party_issue_selections(issue_option_id)
	`).Error; err != nil {
		return err
	}

	return nil
}
