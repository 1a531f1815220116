package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/reconstruct"
	"github.com/relaw/case-intake/pkg/logger"
)

// DefaultTemplates are rendered when the caller does not name any.
var DefaultTemplates = []string{"IntakeSummary.docx", "HabitabilityComplaint.docx"}

// DocumentResult reports the outcome for one rendered template.
type DocumentResult struct {
	Template   string `json:"template"`
	Filename   string `json:"filename"`
	Size       int    `json:"size"`
	LocalPath  string `json:"local_path,omitempty"`
	BackupPath string `json:"backup_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// GenerationResult reports one document-generation run for a case.
type GenerationResult struct {
	CaseID             string           `json:"case_id"`
	Success            bool             `json:"success"`
	DocumentsGenerated int              `json:"documents_generated"`
	DocumentsUploaded  int              `json:"documents_uploaded"`
	Documents          []DocumentResult `json:"documents"`
	Error              string           `json:"error,omitempty"`
	Timestamp          time.Time        `json:"timestamp"`
}

// Service orchestrates document generation: reconstruct the case document,
// render each template, keep a local copy, and upload when backup is on.
// It runs strictly after a succeeded pipeline run and the core has no
// dependency back on it.
type Service struct {
	db        *gorm.DB
	recon     *reconstruct.Reconstructor
	renderer  *RenderClient
	backup    *BackupClient
	outputDir string
	logger    *logger.Logger
}

func NewService(db *gorm.DB, recon *reconstruct.Reconstructor, renderer *RenderClient, backup *BackupClient, outputDir string, log *logger.Logger) *Service {
	return &Service{
		db:        db,
		recon:     recon,
		renderer:  renderer,
		backup:    backup,
		outputDir: outputDir,
		logger:    log,
	}
}

// GenerateForCase renders the given templates (or the defaults) for a case
// whose pipeline has succeeded.
func (s *Service) GenerateForCase(ctx context.Context, caseID string, templates []string) (*GenerationResult, error) {
	result := &GenerationResult{CaseID: caseID, Timestamp: time.Now().UTC()}

	var caseRow database.Case
	if err := s.db.WithContext(ctx).First(&caseRow, "id = ?", caseID).Error; err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if caseRow.PipelineStatus != database.StatusSucceeded {
		result.Error = fmt.Sprintf("case pipeline status is %q, documents require a succeeded run", caseRow.PipelineStatus)
		return result, nil
	}

	doc, err := s.recon.Reconstruct(ctx, caseID)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	if len(templates) == 0 {
		templates = DefaultTemplates
	}

	if err := os.MkdirAll(filepath.Join(s.outputDir, caseID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, template := range templates {
		docResult := s.generateOne(ctx, caseID, template, doc)
		result.Documents = append(result.Documents, docResult)
		if docResult.Error == "" {
			result.DocumentsGenerated++
			if docResult.BackupPath != "" {
				result.DocumentsUploaded++
			}
		}
	}

	result.Success = result.DocumentsGenerated == len(templates)
	s.logger.Info("Document generation finished",
		"case_id", caseID,
		"generated", result.DocumentsGenerated,
		"uploaded", result.DocumentsUploaded,
		"requested", len(templates),
	)
	return result, nil
}

func (s *Service) generateOne(ctx context.Context, caseID, template string, data map[string]interface{}) DocumentResult {
	filename := outputFilename(template, caseID)
	docResult := DocumentResult{Template: template, Filename: filename}

	document, err := s.renderer.Render(ctx, template, filename, data)
	if err != nil {
		docResult.Error = err.Error()
		return docResult
	}
	docResult.Size = len(document)

	localPath := filepath.Join(s.outputDir, caseID, filename)
	if err := os.WriteFile(localPath, document, 0644); err != nil {
		docResult.Error = fmt.Sprintf("failed to write local copy: %v", err)
		return docResult
	}
	docResult.LocalPath = localPath

	if s.backup.Enabled() {
		backupPath, err := s.backup.Upload(ctx, filepath.ToSlash(filepath.Join("Cases", caseID, filename)), document)
		if err != nil {
			// Local copy exists; report but do not fail the document.
			s.logger.Error("Backup upload failed", "case_id", caseID, "template", template, "error", err)
		} else {
			docResult.BackupPath = backupPath
		}
	}

	return docResult
}

func outputFilename(template, caseID string) string {
	base := template
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return fmt.Sprintf("%s-%s.pdf", base, caseID)
}
