package compliance

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

type RuleKind string

const (
	KindRequiredSection  RuleKind = "required_section"
	KindRequiredKeywords RuleKind = "required_keywords"
	KindForbiddenPhrases RuleKind = "forbidden_phrases"
	KindMaxWords         RuleKind = "max_words"
	KindMinMatchScore    RuleKind = "min_match_score"
	KindNoCriticalGaps   RuleKind = "no_critical_gaps"
)

// Rule is one check. Which of the parameter fields are read depends on Kind.
// Section scopes keyword and word-count rules to one section when set.
type Rule struct {
	Kind        RuleKind          `json:"kind"`
	Category    string            `json:"category"`
	Name        string            `json:"name"`
	Severity    model.Severity    `json:"severity"`
	OnViolation model.CheckStatus `json:"on_violation"`
	AutoFixable bool              `json:"auto_fixable"`
	Section     string            `json:"section,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Phrases     []string          `json:"phrases,omitempty"`
	MaxWords    int               `json:"max_words,omitempty"`
	MinScore    float64           `json:"min_score,omitempty"`
}

type RuleSet struct {
	Name  string `json:"name"`
	Rules []Rule `json:"rules"`
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("rule %s: unknown severity %q", r.Name, r.Severity)
	}
	switch r.OnViolation {
	case "", model.CheckFailed, model.CheckWarning:
	default:
		return fmt.Errorf("rule %s: on_violation must be failed or warning", r.Name)
	}
	switch r.Kind {
	case KindRequiredSection:
		if strings.TrimSpace(r.Section) == "" {
			return fmt.Errorf("rule %s: section is required", r.Name)
		}
	case KindRequiredKeywords:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %s: keywords are required", r.Name)
		}
	case KindForbiddenPhrases:
		if len(r.Phrases) == 0 {
			return fmt.Errorf("rule %s: phrases are required", r.Name)
		}
	case KindMaxWords:
		if r.MaxWords <= 0 {
			return fmt.Errorf("rule %s: max_words must be positive", r.Name)
		}
	case KindMinMatchScore, KindNoCriticalGaps:
	default:
		return fmt.Errorf("rule %s: unknown kind %q", r.Name, r.Kind)
	}
	return nil
}

func (s RuleSet) Validate() error {
	seen := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: %v", appErr.ErrInvalid, err)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate rule %s", appErr.ErrInvalid, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rule set: %w", err)
	}
	var set RuleSet
	if err := json.Unmarshal(data, &set); err != nil {
		return RuleSet{}, fmt.Errorf("decode rule set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return RuleSet{}, err
	}
	return set, nil
}

// DefaultRuleSet is used when no rules file is configured.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Name: "default",
		Rules: []Rule{
			{Kind: KindNoCriticalGaps, Category: "eligibility", Name: "no_critical_gaps",
				Severity: model.SeverityCritical, OnViolation: model.CheckFailed},
			{Kind: KindRequiredSection, Category: "structure", Name: "technical_response_section",
				Severity: model.SeverityMajor, OnViolation: model.CheckFailed, Section: "Technical response", AutoFixable: true},
			{Kind: KindRequiredSection, Category: "structure", Name: "pricing_section",
				Severity: model.SeverityMajor, OnViolation: model.CheckFailed, Section: "Pricing", AutoFixable: true},
			{Kind: KindMinMatchScore, Category: "fit", Name: "minimum_match_score",
				Severity: model.SeverityMajor, OnViolation: model.CheckWarning, MinScore: 40},
			{Kind: KindForbiddenPhrases, Category: "quality", Name: "no_placeholders",
				Severity: model.SeverityMinor, OnViolation: model.CheckWarning, Phrases: []string{"TODO", "TBD", "lorem ipsum"}, AutoFixable: true},
			{Kind: KindMaxWords, Category: "format", Name: "length_limit",
				Severity: model.SeverityMinor, OnViolation: model.CheckWarning, MaxWords: 20000},
		},
	}
}
