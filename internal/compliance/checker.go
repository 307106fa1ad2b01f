package compliance

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
)

type Weights struct {
	Critical float64
	Major    float64
	Minor    float64
}

func DefaultWeights() Weights {
	return Weights{Critical: 25, Major: 10, Minor: 3}
}

type Result struct {
	Checks                []model.ComplianceCheck
	Score                 float64
	Issues                []model.ComplianceIssue
	HasUnresolvedCritical bool
}

// Checker evaluates rule sets. It is pure: check identifiers and timestamps
// are assigned by whoever persists the result.
type Checker struct {
	weights Weights
}

func NewChecker(w Weights) *Checker {
	def := DefaultWeights()
	if w.Critical <= 0 {
		w.Critical = def.Critical
	}
	if w.Major <= 0 {
		w.Major = def.Major
	}
	if w.Minor <= 0 {
		w.Minor = def.Minor
	}
	return &Checker{weights: w}
}

func (c *Checker) weight(s model.Severity) float64 {
	switch s {
	case model.SeverityCritical:
		return c.weights.Critical
	case model.SeverityMajor:
		return c.weights.Major
	default:
		return c.weights.Minor
	}
}

// Score is 100 minus the severity weight of every check that did not pass,
// clamped to [0,100].
func (c *Checker) Score(checks []model.ComplianceCheck) float64 {
	score := 100.0
	for _, ch := range checks {
		if ch.Status != model.CheckPassed {
			score -= c.weight(ch.Severity)
		}
	}
	return math.Max(0, math.Min(100, score))
}

// Evaluate runs every rule independently. match may be nil when the bid has
// no stored capability match; rules that need it then report a violation.
func (c *Checker) Evaluate(bid model.BidResponse, match *model.CapabilityMatch, rules RuleSet) Result {
	res := Result{Checks: make([]model.ComplianceCheck, 0, len(rules.Rules)), Issues: []model.ComplianceIssue{}}
	for _, rule := range rules.Rules {
		ok, msg := evaluateRule(rule, bid, match)
		status := model.CheckPassed
		if !ok {
			status = rule.OnViolation
			if status == "" {
				status = model.CheckFailed
			}
		}
		check := model.ComplianceCheck{
			BidResponseID: bid.ID,
			RuleCategory:  rule.Category,
			RuleName:      rule.Name,
			Status:        status,
			Severity:      rule.Severity,
			Message:       msg,
			AutoFixable:   rule.AutoFixable,
		}
		res.Checks = append(res.Checks, check)
		if status == model.CheckPassed {
			continue
		}
		res.Issues = append(res.Issues, model.ComplianceIssue{
			RuleName:    rule.Name,
			Category:    rule.Category,
			Status:      status,
			Severity:    rule.Severity,
			Message:     msg,
			AutoFixable: rule.AutoFixable,
		})
		if status == model.CheckFailed && rule.Severity == model.SeverityCritical {
			res.HasUnresolvedCritical = true
		}
	}
	res.Score = c.Score(res.Checks)
	return res
}

func evaluateRule(rule Rule, bid model.BidResponse, match *model.CapabilityMatch) (bool, string) {
	switch rule.Kind {
	case KindRequiredSection:
		sec, ok := findSection(bid.Sections, rule.Section)
		if !ok {
			return false, fmt.Sprintf("section %q is missing", rule.Section)
		}
		if strings.TrimSpace(sec.Body) == "" {
			return false, fmt.Sprintf("section %q is empty", rule.Section)
		}
		return true, fmt.Sprintf("section %q present", rule.Section)
	case KindRequiredKeywords:
		text, ok := scopedText(bid, rule.Section)
		if !ok {
			return false, fmt.Sprintf("section %q is missing", rule.Section)
		}
		var missing []string
		for _, kw := range rule.Keywords {
			if !containsTerm(text, kw) {
				missing = append(missing, kw)
			}
		}
		if len(missing) > 0 {
			return false, "missing keywords: " + strings.Join(missing, ", ")
		}
		return true, "all keywords present"
	case KindForbiddenPhrases:
		text, _ := scopedText(bid, rule.Section)
		var found []string
		for _, p := range rule.Phrases {
			if containsTerm(text, p) {
				found = append(found, p)
			}
		}
		if len(found) > 0 {
			return false, "forbidden phrases found: " + strings.Join(found, ", ")
		}
		return true, "no forbidden phrases"
	case KindMaxWords:
		text, _ := scopedText(bid, rule.Section)
		n := len(strings.Fields(text))
		if n > rule.MaxWords {
			return false, fmt.Sprintf("%d words exceeds limit of %d", n, rule.MaxWords)
		}
		return true, fmt.Sprintf("%d words within limit of %d", n, rule.MaxWords)
	case KindMinMatchScore:
		if match == nil {
			return false, "no capability match available"
		}
		if match.OverallScore < rule.MinScore {
			return false, fmt.Sprintf("match score %.2f below minimum %.2f", match.OverallScore, rule.MinScore)
		}
		return true, fmt.Sprintf("match score %.2f meets minimum %.2f", match.OverallScore, rule.MinScore)
	case KindNoCriticalGaps:
		if match == nil {
			return false, "no capability match available"
		}
		if gaps := match.CriticalGaps(); len(gaps) > 0 {
			ids := make([]string, 0, len(gaps))
			for _, g := range gaps {
				ids = append(ids, g.RequirementID)
			}
			return false, fmt.Sprintf("%d critical gaps: %s", len(gaps), strings.Join(ids, ", "))
		}
		return true, "no critical gaps"
	}
	return false, fmt.Sprintf("unknown rule kind %q", rule.Kind)
}

func findSection(sections []model.ResponseSection, title string) (model.ResponseSection, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	for _, s := range sections {
		if strings.ToLower(strings.TrimSpace(s.Title)) == want {
			return s, true
		}
	}
	return model.ResponseSection{}, false
}

// scopedText returns one section's body, or every section when title is
// empty. ok is false only when a named section does not exist.
func scopedText(bid model.BidResponse, title string) (string, bool) {
	if strings.TrimSpace(title) != "" {
		sec, ok := findSection(bid.Sections, title)
		return sec.Body, ok
	}
	parts := make([]string, 0, len(bid.Sections)*2)
	for _, s := range bid.Sections {
		parts = append(parts, s.Title, s.Body)
	}
	return strings.Join(parts, "\n"), true
}

func words(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// containsTerm matches whole words, case-insensitively.
func containsTerm(text, term string) bool {
	needle := words(term)
	if needle == "" {
		return false
	}
	return strings.Contains(" "+words(text)+" ", " "+needle+" ")
}
