package intake

// Options controls normalization behavior.
type Options struct {
	// DefaultState is the 2-letter jurisdiction code used when the
	// submission carries no usable state field.
	DefaultState string
	// MaxPartiesPerType bounds the sparse party index scan.
	MaxPartiesPerType int
}

// IssuePair is one flattened checklist entry: a category hint (may be
// empty) and the selected option label as the form sent it.
type IssuePair struct {
	CategoryHint string `json:"category_hint"`
	Label        string `json:"label"`
}

// PartyFields is one discovered party before persistence.
type PartyFields struct {
	Type       string                 `json:"type"`
	Ordinal    int                    `json:"ordinal"`
	FirstName  string                 `json:"first_name"`
	LastName   string                 `json:"last_name"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Issues     []IssuePair            `json:"issues,omitempty"`
}

// CaseFields holds the normalized case-level fields.
type CaseFields struct {
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	FilingCounty  string `json:"filing_county"`
	FilingCourt   string `json:"filing_court"`
}

// Normalized is the intermediate representation the pipeline works on.
type Normalized struct {
	Case    CaseFields    `json:"case"`
	Parties []PartyFields `json:"parties"`
}

// MalformedSubmissionError marks a structural defect in the raw payload.
// It is the only fatal outcome of normalization.
type MalformedSubmissionError struct {
	Reason string
}

func (e *MalformedSubmissionError) Error() string {
	return "malformed submission: " + e.Reason
}
