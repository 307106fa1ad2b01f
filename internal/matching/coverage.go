package matching

import (
	"strings"
	"unicode"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
)

// Coverage says how much of one requirement the company covers, in [0,1].
type Coverage struct {
	Score   float64
	Matched []string
	Missing []string
}

type CoverageScorer interface {
	Score(req model.Requirement, profile model.CompanyProfile) Coverage
}

// KeywordOverlap compares requirement terms with the profile vocabulary.
// Terms come from keywords and entities; requirements without either fall
// back to the significant words of their text.
type KeywordOverlap struct{}

func (KeywordOverlap) Score(req model.Requirement, profile model.CompanyProfile) Coverage {
	terms := requirementTerms(req)
	if len(terms) == 0 {
		return Coverage{}
	}
	vocab := newVocabulary(profile)
	cov := Coverage{}
	for _, term := range terms {
		if vocab.covers(term) {
			cov.Matched = append(cov.Matched, term)
		} else {
			cov.Missing = append(cov.Missing, term)
		}
	}
	cov.Score = float64(len(cov.Matched)) / float64(len(terms))
	return cov
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "must": true, "shall": true,
	"should": true, "will": true, "be": true, "are": true, "is": true, "of": true,
	"all": true, "any": true, "from": true, "that": true, "this": true, "have": true,
	"les": true, "des": true, "une": true, "pour": true, "dans": true, "avec": true,
	"sur": true, "par": true, "aux": true, "est": true, "doit": true, "être": true,
	"ses": true, "son": true, "qui": true, "que": true, "pas": true,
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeTerm(s string) string {
	return strings.Join(tokenize(s), " ")
}

func requirementTerms(req model.Requirement) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(term string) {
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		out = append(out, term)
	}
	for _, kw := range req.Keywords {
		add(normalizeTerm(kw))
	}
	for _, ent := range req.Entities {
		add(normalizeTerm(ent))
	}
	if len(out) > 0 {
		return out
	}
	for _, tok := range tokenize(req.Text) {
		if len([]rune(tok)) < 3 || stopwords[tok] {
			continue
		}
		add(tok)
	}
	return out
}

type vocabulary struct {
	phrases []string
	tokens  map[string]bool
}

func newVocabulary(profile model.CompanyProfile) *vocabulary {
	v := &vocabulary{tokens: make(map[string]bool)}
	for _, group := range [][]string{profile.Capabilities, profile.Certifications, profile.Keywords} {
		for _, item := range group {
			phrase := normalizeTerm(item)
			if phrase == "" {
				continue
			}
			v.phrases = append(v.phrases, phrase)
			for _, tok := range strings.Fields(phrase) {
				v.tokens[tok] = true
			}
		}
	}
	return v
}

func containsPhrase(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// covers matches single words against profile words, and multi-word terms
// by phrase containment in either direction or by all of their words.
func (v *vocabulary) covers(term string) bool {
	words := strings.Fields(term)
	if len(words) == 1 {
		return v.tokens[term]
	}
	for _, phrase := range v.phrases {
		if containsPhrase(phrase, term) {
			return true
		}
		if strings.Contains(phrase, " ") && containsPhrase(term, phrase) {
			return true
		}
	}
	for _, w := range words {
		if !v.tokens[w] {
			return false
		}
	}
	return true
}
