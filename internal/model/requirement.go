package model

type RequirementType string

const (
	RequirementTechnical      RequirementType = "technical"
	RequirementFunctional     RequirementType = "functional"
	RequirementAdministrative RequirementType = "administrative"
)

func (t RequirementType) Valid() bool {
	switch t {
	case RequirementTechnical, RequirementFunctional, RequirementAdministrative:
		return true
	}
	return false
}

type Priority string

const (
	PriorityMandatory  Priority = "mandatory"
	PriorityOptional   Priority = "optional"
	PriorityNiceToHave Priority = "nice_to_have"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityMandatory, PriorityOptional, PriorityNiceToHave:
		return true
	}
	return false
}

type Requirement struct {
	ID         string          `json:"id"`
	Type       RequirementType `json:"type"`
	Priority   Priority        `json:"priority"`
	Text       string          `json:"text"`
	Entities   []string        `json:"entities,omitempty"`
	Keywords   []string        `json:"keywords,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
}

// RequirementSet is everything extracted from one tender document.
type RequirementSet struct {
	DocumentID           string        `json:"document_id"`
	ExtractionConfidence *float64      `json:"extraction_confidence,omitempty"`
	Requirements         []Requirement `json:"requirements"`
}

type CompanyProfile struct {
	ID             string   `json:"id"`
	TenantID       string   `json:"tenant_id"`
	Name           string   `json:"name"`
	Capabilities   []string `json:"capabilities"`
	Certifications []string `json:"certifications"`
	Keywords       []string `json:"keywords,omitempty"`
}
