package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
)

const (
	GoThreshold   = 70.0
	NoGoThreshold = 40.0
)

type Config struct {
	GapThreshold           float64
	StrengthThreshold      float64
	TechnicalWeight        float64
	FunctionalWeight       float64
	MandatoryWeight        float64
	OptionalWeight         float64
	NiceToHaveWeight       float64
	LowConfidenceThreshold float64
}

func DefaultConfig() Config {
	return Config{
		GapThreshold:           0.5,
		StrengthThreshold:      0.8,
		TechnicalWeight:        0.6,
		FunctionalWeight:       0.4,
		MandatoryWeight:        3,
		OptionalWeight:         2,
		NiceToHaveWeight:       1,
		LowConfidenceThreshold: 0.6,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.GapThreshold <= 0 {
		c.GapThreshold = def.GapThreshold
	}
	if c.StrengthThreshold <= 0 {
		c.StrengthThreshold = def.StrengthThreshold
	}
	if c.TechnicalWeight <= 0 && c.FunctionalWeight <= 0 {
		c.TechnicalWeight = def.TechnicalWeight
		c.FunctionalWeight = def.FunctionalWeight
	}
	if c.MandatoryWeight <= 0 {
		c.MandatoryWeight = def.MandatoryWeight
	}
	if c.OptionalWeight <= 0 {
		c.OptionalWeight = def.OptionalWeight
	}
	if c.NiceToHaveWeight <= 0 {
		c.NiceToHaveWeight = def.NiceToHaveWeight
	}
	if c.LowConfidenceThreshold <= 0 {
		c.LowConfidenceThreshold = def.LowConfidenceThreshold
	}
	return c
}

type Option func(*Engine)

func WithScorer(s CoverageScorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// Engine scores a requirement set against a company profile. It does no
// I/O; identifiers and timestamps are left to the caller.
type Engine struct {
	cfg    Config
	scorer CoverageScorer
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg.withDefaults(), scorer: KeywordOverlap{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Derive returns an engine with cfg that keeps this engine's scorer.
func (e *Engine) Derive(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults(), scorer: e.scorer}
}

func (e *Engine) priorityWeight(p model.Priority) float64 {
	switch p {
	case model.PriorityMandatory:
		return e.cfg.MandatoryWeight
	case model.PriorityOptional:
		return e.cfg.OptionalWeight
	default:
		return e.cfg.NiceToHaveWeight
	}
}

// Validate checks a requirement set before it is scored or stored.
func Validate(set model.RequirementSet) error {
	if len(set.Requirements) == 0 {
		return fmt.Errorf("%w: requirement set is empty", appErr.ErrInvalid)
	}
	if c := set.ExtractionConfidence; c != nil && (*c < 0 || *c > 1 || math.IsNaN(*c)) {
		return fmt.Errorf("%w: extraction confidence %v out of range", appErr.ErrInvalid, *c)
	}
	for i, req := range set.Requirements {
		if !req.Type.Valid() {
			return fmt.Errorf("%w: requirement %d: unknown type %q", appErr.ErrInvalid, i, req.Type)
		}
		if !req.Priority.Valid() {
			return fmt.Errorf("%w: requirement %d: unknown priority %q", appErr.ErrInvalid, i, req.Priority)
		}
		if strings.TrimSpace(req.Text) == "" {
			return fmt.Errorf("%w: requirement %d: text is required", appErr.ErrInvalid, i)
		}
		if c := req.Confidence; c != nil && (*c < 0 || *c > 1 || math.IsNaN(*c)) {
			return fmt.Errorf("%w: requirement %d: confidence %v out of range", appErr.ErrInvalid, i, *c)
		}
	}
	return nil
}

type weightedMean struct {
	sum    float64
	weight float64
}

func (w *weightedMean) add(v, weight float64) {
	w.sum += v * weight
	w.weight += weight
}

func (w *weightedMean) present() bool {
	return w.weight > 0
}

func (w *weightedMean) value() float64 {
	if w.weight == 0 {
		return 0
	}
	return w.sum / w.weight
}

func (e *Engine) ComputeMatch(set model.RequirementSet, profile model.CompanyProfile) (*model.CapabilityMatch, error) {
	if err := Validate(set); err != nil {
		return nil, err
	}
	var tech, fn, conf weightedMean
	gaps := make([]model.Gap, 0)
	strengths := make([]model.Strength, 0)
	for _, req := range set.Requirements {
		cov := e.scorer.Score(req, profile)
		score := clamp(cov.Score, 0, 1)
		weight := e.priorityWeight(req.Priority)
		switch req.Type {
		case model.RequirementTechnical:
			tech.add(score, weight)
		case model.RequirementFunctional:
			fn.add(score, weight)
		}
		if req.Confidence != nil {
			conf.add(*req.Confidence, weight)
		}
		if score < e.cfg.GapThreshold {
			severity := model.SeverityMajor
			if req.Priority == model.PriorityMandatory {
				severity = model.SeverityCritical
			}
			gaps = append(gaps, model.Gap{
				RequirementID: req.ID,
				Type:          req.Type,
				Priority:      req.Priority,
				Text:          req.Text,
				Coverage:      score,
				Severity:      severity,
				Missing:       cov.Missing,
			})
		}
		if score >= e.cfg.StrengthThreshold {
			strengths = append(strengths, model.Strength{
				RequirementID: req.ID,
				Type:          req.Type,
				Text:          req.Text,
				Coverage:      score,
				Matched:       cov.Matched,
			})
		}
	}

	techScore := tech.value() * 100
	fnScore := fn.value() * 100
	var overall weightedMean
	if tech.present() {
		overall.add(techScore, e.cfg.TechnicalWeight)
	}
	if fn.present() {
		overall.add(fnScore, e.cfg.FunctionalWeight)
	}
	overallScore := round2(overall.value())

	confidence, low := e.confidence(conf, set.ExtractionConfidence)
	return &model.CapabilityMatch{
		DocumentID:       set.DocumentID,
		CompanyProfileID: profile.ID,
		OverallScore:     overallScore,
		TechnicalScore:   round2(techScore),
		FunctionalScore:  round2(fnScore),
		Gaps:             gaps,
		Strengths:        strengths,
		Recommendation:   Recommend(overallScore, gaps),
		ConfidenceLevel:  confidence,
		LowConfidence:    low,
	}, nil
}

// confidence is driven by extraction quality only, never by the match
// score. With nothing to go on it is a neutral 0.5 flagged as low.
func (e *Engine) confidence(reqs weightedMean, extraction *float64) (float64, bool) {
	var level float64
	switch {
	case reqs.present() && extraction != nil:
		level = 0.5*reqs.value() + 0.5*(*extraction)
	case reqs.present():
		level = reqs.value()
	case extraction != nil:
		level = *extraction
	default:
		return 0.5, true
	}
	level = clamp(level, 0, 1)
	return level, level < e.cfg.LowConfidenceThreshold
}

// Recommend applies the bid policy to the overall score as it is stored.
func Recommend(overall float64, gaps []model.Gap) model.Recommendation {
	critical := false
	uncovered := false
	for _, g := range gaps {
		if g.Severity != model.SeverityCritical {
			continue
		}
		critical = true
		if g.Priority == model.PriorityMandatory && g.Coverage == 0 {
			uncovered = true
		}
	}
	switch {
	case overall >= GoThreshold && !critical:
		return model.RecommendationGo
	case overall < NoGoThreshold || uncovered:
		return model.RecommendationNoGo
	default:
		return model.RecommendationReviewNeeded
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
