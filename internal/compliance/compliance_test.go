package compliance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

func bid() model.BidResponse {
	return model.BidResponse{
		ID:      "bid-1",
		Status:  model.BidStatusDraft,
		Version: 1,
		Sections: []model.ResponseSection{
			{Title: "Technical Response", Body: "We operate Kubernetes clusters in HDS certified datacenters."},
			{Title: "Pricing", Body: "Fixed price, TBD after workshop."},
		},
	}
}

func matchWithGap(coverage float64) *model.CapabilityMatch {
	return &model.CapabilityMatch{
		OverallScore: 72,
		Gaps: []model.Gap{
			{RequirementID: "r9", Priority: model.PriorityMandatory, Severity: model.SeverityCritical, Coverage: coverage},
		},
	}
}

func TestScoreAggregation(t *testing.T) {
	rules := RuleSet{Rules: []Rule{
		{Kind: KindNoCriticalGaps, Name: "gaps", Severity: model.SeverityCritical, OnViolation: model.CheckFailed},
		{Kind: KindForbiddenPhrases, Name: "placeholders", Severity: model.SeverityMinor, OnViolation: model.CheckWarning, Phrases: []string{"tbd"}},
		{Kind: KindMaxWords, Name: "length", Severity: model.SeverityMinor, OnViolation: model.CheckWarning, MaxWords: 5},
		{Kind: KindRequiredSection, Name: "pricing", Severity: model.SeverityMajor, Section: "pricing"},
	}}
	require.NoError(t, rules.Validate())

	res := NewChecker(DefaultWeights()).Evaluate(bid(), matchWithGap(0), rules)
	require.Len(t, res.Checks, 4)
	require.Equal(t, model.CheckFailed, res.Checks[0].Status)
	require.Equal(t, model.CheckWarning, res.Checks[1].Status)
	require.Equal(t, model.CheckWarning, res.Checks[2].Status)
	require.Equal(t, model.CheckPassed, res.Checks[3].Status)
	require.Equal(t, 69.0, res.Score)
	require.True(t, res.HasUnresolvedCritical)
	require.Len(t, res.Issues, 3)
	require.Equal(t, "bid-1", res.Checks[0].BidResponseID)
	require.Contains(t, res.Checks[0].Message, "r9")
}

func TestScoreClampsAtZero(t *testing.T) {
	c := NewChecker(Weights{})
	checks := make([]model.ComplianceCheck, 5)
	for i := range checks {
		checks[i] = model.ComplianceCheck{Status: model.CheckFailed, Severity: model.SeverityCritical}
	}
	require.Equal(t, 0.0, c.Score(checks))
	require.Equal(t, 100.0, c.Score(nil))
}

func TestRuleKinds(t *testing.T) {
	c := NewChecker(DefaultWeights())
	tests := []struct {
		name  string
		rule  Rule
		match *model.CapabilityMatch
		pass  bool
	}{
		{"section present", Rule{Kind: KindRequiredSection, Section: " technical response "}, nil, true},
		{"section missing", Rule{Kind: KindRequiredSection, Section: "References"}, nil, false},
		{"keywords whole word", Rule{Kind: KindRequiredKeywords, Keywords: []string{"kubernetes", "HDS certified"}}, nil, true},
		{"keyword missing", Rule{Kind: KindRequiredKeywords, Keywords: []string{"ISO 27001"}}, nil, false},
		{"keyword in named section", Rule{Kind: KindRequiredKeywords, Section: "Pricing", Keywords: []string{"kubernetes"}}, nil, false},
		{"keyword section missing", Rule{Kind: KindRequiredKeywords, Section: "Annex", Keywords: []string{"x"}}, nil, false},
		{"forbidden absent", Rule{Kind: KindForbiddenPhrases, Phrases: []string{"lorem ipsum"}}, nil, true},
		{"forbidden partial word ignored", Rule{Kind: KindForbiddenPhrases, Phrases: []string{"pric"}}, nil, true},
		{"within word limit", Rule{Kind: KindMaxWords, Section: "pricing", MaxWords: 5}, nil, true},
		{"min score met", Rule{Kind: KindMinMatchScore, MinScore: 70}, matchWithGap(0.2), true},
		{"min score missed", Rule{Kind: KindMinMatchScore, MinScore: 80}, matchWithGap(0.2), false},
		{"min score without match", Rule{Kind: KindMinMatchScore, MinScore: 10}, nil, false},
		{"no critical gaps", Rule{Kind: KindNoCriticalGaps}, &model.CapabilityMatch{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.rule.Name = "r"
			tc.rule.Severity = model.SeverityMinor
			res := c.Evaluate(bid(), tc.match, RuleSet{Rules: []Rule{tc.rule}})
			require.Len(t, res.Checks, 1)
			if tc.pass {
				require.Equal(t, model.CheckPassed, res.Checks[0].Status, res.Checks[0].Message)
			} else {
				require.Equal(t, model.CheckFailed, res.Checks[0].Status, res.Checks[0].Message)
			}
		})
	}
}

func TestRuleSetValidate(t *testing.T) {
	require.NoError(t, DefaultRuleSet().Validate())
	bad := []RuleSet{
		{Rules: []Rule{{Kind: "spelling", Name: "a", Severity: model.SeverityMinor}}},
		{Rules: []Rule{{Kind: KindMaxWords, Name: "a", Severity: model.SeverityMinor}}},
		{Rules: []Rule{{Kind: KindNoCriticalGaps, Name: "a", Severity: "blocker"}}},
		{Rules: []Rule{{Kind: KindNoCriticalGaps, Name: "a", Severity: model.SeverityMinor, OnViolation: model.CheckPassed}}},
		{Rules: []Rule{
			{Kind: KindNoCriticalGaps, Name: "a", Severity: model.SeverityMinor},
			{Kind: KindNoCriticalGaps, Name: "a", Severity: model.SeverityMinor},
		}},
	}
	for _, s := range bad {
		require.ErrorIs(t, s.Validate(), appErr.ErrInvalid)
	}
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"city","rules":[
		{"kind":"required_keywords","category":"eligibility","name":"dc1","severity":"critical","keywords":["DC1"]}
	]}`), 0o644))
	set, err := LoadRuleSet(path)
	require.NoError(t, err)
	require.Equal(t, "city", set.Name)
	require.Len(t, set.Rules, 1)
	require.Equal(t, []string{"DC1"}, set.Rules[0].Keywords)

	require.NoError(t, os.WriteFile(path, []byte(`{"rules":[{"kind":"max_words","name":"x","severity":"minor"}]}`), 0o644))
	_, err = LoadRuleSet(path)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestLifecycle(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	b := bid()
	clean := &Result{Score: 100}

	require.ErrorIs(t, Transition(&b, model.BidStatusFinal, clean, now), appErr.ErrInvalidTransition)
	require.NoError(t, Transition(&b, model.BidStatusReviewing, nil, now))
	require.Nil(t, b.SubmittedAt)
	require.ErrorIs(t, Transition(&b, model.BidStatusDraft, nil, now), appErr.ErrInvalidTransition)

	require.ErrorIs(t, Transition(&b, model.BidStatusFinal, nil, now), appErr.ErrInvalidTransition)
	require.ErrorIs(t, Transition(&b, model.BidStatusFinal, &Result{HasUnresolvedCritical: true}, now), appErr.ErrInvalidTransition)
	require.Equal(t, model.BidStatusReviewing, b.Status)

	require.NoError(t, Transition(&b, model.BidStatusFinal, clean, now))
	require.Equal(t, model.BidStatusFinal, b.Status)
	require.Equal(t, now, *b.SubmittedAt)

	later := now.Add(time.Hour)
	require.ErrorIs(t, Transition(&b, model.BidStatusFinal, clean, later), appErr.ErrInvalidTransition)
	require.ErrorIs(t, Transition(&b, model.BidStatusDraft, clean, later), appErr.ErrInvalidTransition)
	require.Equal(t, now, *b.SubmittedAt)

	require.ErrorIs(t, Transition(&b, "archived", clean, later), appErr.ErrInvalid)
}

func TestNewVersion(t *testing.T) {
	now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	b := bid()
	b.Status = model.BidStatusFinal
	b.SubmittedAt = &now
	b.ComplianceScore = 90
	b.ComplianceIssues = []model.ComplianceIssue{{RuleName: "x"}}

	v2 := NewVersion(b, "bid-2", now)
	require.Equal(t, "bid-2", v2.ID)
	require.Equal(t, 2, v2.Version)
	require.Equal(t, model.BidStatusDraft, v2.Status)
	require.Nil(t, v2.SubmittedAt)
	require.Zero(t, v2.ComplianceScore)
	require.Empty(t, v2.ComplianceIssues)
	require.Equal(t, b.Sections, v2.Sections)

	v2.Sections[0].Body = "changed"
	require.NotEqual(t, "changed", b.Sections[0].Body)
}

func TestApplyResult(t *testing.T) {
	now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	b := bid()
	res := NewChecker(DefaultWeights()).Evaluate(b, nil, DefaultRuleSet())
	ApplyResult(&b, res, now)
	require.Equal(t, res.Score, b.ComplianceScore)
	require.Equal(t, res.Issues, b.ComplianceIssues)
	require.Equal(t, now, b.UpdatedAt)
}
