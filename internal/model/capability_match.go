package model

import "time"

type Recommendation string

const (
	RecommendationGo           Recommendation = "go"
	RecommendationNoGo         Recommendation = "no_go"
	RecommendationReviewNeeded Recommendation = "review_needed"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

type Gap struct {
	RequirementID string          `json:"requirement_id"`
	Type          RequirementType `json:"type"`
	Priority      Priority        `json:"priority"`
	Text          string          `json:"text"`
	Coverage      float64         `json:"coverage"`
	Severity      Severity        `json:"severity"`
	Missing       []string        `json:"missing,omitempty"`
}

type Strength struct {
	RequirementID string          `json:"requirement_id"`
	Type          RequirementType `json:"type"`
	Text          string          `json:"text"`
	Coverage      float64         `json:"coverage"`
	Matched       []string        `json:"matched,omitempty"`
}

type CapabilityMatch struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenant_id"`
	DocumentID       string         `json:"document_id"`
	CompanyProfileID string         `json:"company_profile_id"`
	OverallScore     float64        `json:"overall_score"`
	TechnicalScore   float64        `json:"technical_score"`
	FunctionalScore  float64        `json:"functional_score"`
	Gaps             []Gap          `json:"gaps"`
	Strengths        []Strength     `json:"strengths"`
	Recommendation   Recommendation `json:"recommendation"`
	ConfidenceLevel  float64        `json:"confidence_level"`
	LowConfidence    bool           `json:"low_confidence"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (m *CapabilityMatch) CriticalGaps() []Gap {
	var out []Gap
	for _, gap := range m.Gaps {
		if gap.Severity == SeverityCritical {
			out = append(out, gap)
		}
	}
	return out
}
