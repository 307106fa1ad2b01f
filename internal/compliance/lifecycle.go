package compliance

import (
	"fmt"
	"time"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

var nextStatus = map[model.BidStatus]model.BidStatus{
	model.BidStatusDraft:     model.BidStatusReviewing,
	model.BidStatusReviewing: model.BidStatusFinal,
}

func validStatus(s model.BidStatus) bool {
	switch s {
	case model.BidStatusDraft, model.BidStatusReviewing, model.BidStatusFinal:
		return true
	}
	return false
}

// Transition moves bid one step forward. Entering final needs the latest
// compliance result and stamps SubmittedAt once. Going back is only possible
// through NewVersion.
func Transition(bid *model.BidResponse, to model.BidStatus, latest *Result, now time.Time) error {
	if !validStatus(to) {
		return fmt.Errorf("%w: unknown status %q", appErr.ErrInvalid, to)
	}
	if nextStatus[bid.Status] != to {
		return fmt.Errorf("%w: %s -> %s", appErr.ErrInvalidTransition, bid.Status, to)
	}
	if to == model.BidStatusFinal {
		if latest == nil {
			return fmt.Errorf("%w: compliance has not been evaluated", appErr.ErrInvalidTransition)
		}
		if latest.HasUnresolvedCritical {
			return fmt.Errorf("%w: unresolved critical compliance failures", appErr.ErrInvalidTransition)
		}
		if bid.SubmittedAt == nil {
			at := now
			bid.SubmittedAt = &at
		}
	}
	bid.Status = to
	bid.UpdatedAt = now
	return nil
}

// ApplyResult records a compliance evaluation on the bid.
func ApplyResult(bid *model.BidResponse, res Result, now time.Time) {
	bid.ComplianceScore = res.Score
	bid.ComplianceIssues = res.Issues
	bid.UpdatedAt = now
}

// NewVersion copies bid into a fresh draft with the next version number.
// Compliance results belong to the old version and are not carried over.
func NewVersion(bid model.BidResponse, id string, now time.Time) model.BidResponse {
	sections := make([]model.ResponseSection, len(bid.Sections))
	copy(sections, bid.Sections)
	return model.BidResponse{
		ID:                id,
		TenantID:          bid.TenantID,
		CapabilityMatchID: bid.CapabilityMatchID,
		DocumentID:        bid.DocumentID,
		CompanyProfileID:  bid.CompanyProfileID,
		CreatedBy:         bid.CreatedBy,
		Status:            model.BidStatusDraft,
		Version:           bid.Version + 1,
		Sections:          sections,
		ComplianceIssues:  []model.ComplianceIssue{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
