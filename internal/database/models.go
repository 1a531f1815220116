package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pipeline status values for a Case
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Party type values
const (
	PartyPlaintiff = "plaintiff"
	PartyDefendant = "defendant"
)

// Case is one legal matter: the immutable raw submission plus its
// normalized relational projection.
type Case struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state" gorm:"size:2"`
	PostalCode    string `json:"postal_code"`

	FilingCounty string `json:"filing_county"`
	FilingCourt  string `json:"filing_court"`

	// RawPayload is write-once: set when the row is created, never updated.
	RawPayload datatypes.JSON `json:"raw_payload" gorm:"type:json"`
	// LatestPayload is overwritten only by a successful pipeline run.
	LatestPayload datatypes.JSON `json:"latest_payload,omitempty" gorm:"type:json"`

	PipelineStatus string `json:"pipeline_status" gorm:"index;default:pending"`
	PipelineError  string `json:"pipeline_error,omitempty"`

	Parties []Party `json:"parties,omitempty" gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

// Party is a plaintiff or defendant belonging to exactly one Case.
// (CaseID, Type, Ordinal) is unique; ordinals are 1-based per type.
type Party struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CaseID  string `json:"case_id" gorm:"type:uuid;not null;uniqueIndex:idx_party_case_type_ordinal"`
	Type    string `json:"type" gorm:"not null;uniqueIndex:idx_party_case_type_ordinal"`
	Ordinal int    `json:"ordinal" gorm:"not null;uniqueIndex:idx_party_case_type_ordinal"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Attributes holds the type-specific fields: head_of_household for
	// plaintiffs, unit/role for defendants.
	Attributes datatypes.JSON `json:"attributes,omitempty" gorm:"type:json"`

	Selections []PartyIssueSelection `json:"selections,omitempty" gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE"`
}

// IssueCategory is a top-level grouping of selectable issues. Reference
// data, not case-specific.
type IssueCategory struct {
	ID           string `json:"id" gorm:"type:uuid;primaryKey"`
	Code         string `json:"code" gorm:"not null;uniqueIndex"`
	Name         string `json:"name" gorm:"not null"`
	DisplayOrder int    `json:"display_order" gorm:"not null;default:0"`
	MultiSelect  bool   `json:"multi_select" gorm:"not null;default:true"`

	Options []IssueOption `json:"options,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

// IssueOption is a selectable value within a category.
type IssueOption struct {
	ID           string `json:"id" gorm:"type:uuid;primaryKey"`
	CategoryID   string `json:"category_id" gorm:"type:uuid;not null;uniqueIndex:idx_option_category_code"`
	Code         string `json:"code" gorm:"not null;uniqueIndex:idx_option_category_code"`
	Name         string `json:"name" gorm:"not null"`
	DisplayOrder int    `json:"display_order" gorm:"not null;default:0"`
}

// PartyIssueSelection records that a Party selected an IssueOption.
type PartyIssueSelection struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PartyID       string `json:"party_id" gorm:"type:uuid;not null;uniqueIndex:idx_selection_party_option"`
	IssueOptionID string `json:"issue_option_id" gorm:"type:uuid;not null;uniqueIndex:idx_selection_party_option"`

	IssueOption IssueOption `json:"issue_option,omitempty" gorm:"foreignKey:IssueOptionID"`
}

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (ic *IssueCategory) BeforeCreate(tx *gorm.DB) error {
	if ic.ID == "" {
		ic.ID = uuid.New().String()
	}
	return nil
}

func (io *IssueOption) BeforeCreate(tx *gorm.DB) error {
	if io.ID == "" {
		io.ID = uuid.New().String()
	}
	return nil
}

func (s *PartyIssueSelection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (Case) TableName() string {
	return "cases"
}

func (Party) TableName() string {
	return "parties"
}

func (IssueCategory) TableName() string {
	return "issue_categories"
}

func (IssueOption) TableName() string {
	return "issue_options"
}

func (PartyIssueSelection) TableName() string {
	return "party_issue_selections"
}
