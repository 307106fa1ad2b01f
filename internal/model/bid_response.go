package model

import "time"

type BidStatus string

const (
	BidStatusDraft     BidStatus = "draft"
	BidStatusReviewing BidStatus = "reviewing"
	BidStatusFinal     BidStatus = "final"
)

type ResponseSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ComplianceIssue struct {
	RuleName    string      `json:"rule_name"`
	Category    string      `json:"category"`
	Status      CheckStatus `json:"status"`
	Severity    Severity    `json:"severity"`
	Message     string      `json:"message"`
	AutoFixable bool        `json:"auto_fixable"`
}

type BidResponse struct {
	ID                string            `json:"id"`
	TenantID          string            `json:"tenant_id"`
	CapabilityMatchID string            `json:"capability_match_id"`
	DocumentID        string            `json:"document_id"`
	CompanyProfileID  string            `json:"company_profile_id"`
	CreatedBy         string            `json:"created_by"`
	Status            BidStatus         `json:"status"`
	Version           int               `json:"version"`
	Sections          []ResponseSection `json:"sections"`
	ComplianceScore   float64           `json:"compliance_score"`
	ComplianceIssues  []ComplianceIssue `json:"compliance_issues"`
	SubmittedAt       *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
)

type ComplianceCheck struct {
	ID            string      `json:"id"`
	BidResponseID string      `json:"bid_response_id"`
	RuleCategory  string      `json:"rule_category"`
	RuleName      string      `json:"rule_name"`
	Status        CheckStatus `json:"status"`
	Severity      Severity    `json:"severity"`
	Message       string      `json:"message"`
	AutoFixable   bool        `json:"auto_fixable"`
	CreatedAt     time.Time   `json:"created_at"`
}
