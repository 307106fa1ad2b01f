package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/ai"
	"github.com/cisbeo/scorpiusProject-sub002/internal/index"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
	"github.com/cisbeo/scorpiusProject-sub002/internal/querycache"
)

type State string

const (
	StateReceived       State = "RECEIVED"
	StateCacheCheck     State = "CACHE_CHECK"
	StateCacheHit       State = "CACHE_HIT"
	StateCacheMiss      State = "CACHE_MISS"
	StateEmbedding      State = "EMBEDDING"
	StateRetrieval      State = "RETRIEVAL"
	StateAnswerAssembly State = "ANSWER_ASSEMBLY"
	StateCacheWrite     State = "CACHE_WRITE"
	StateDone           State = "DONE"
)

// InsufficientContextAnswer is returned verbatim when nothing in the index
// clears the similarity threshold.
const InsufficientContextAnswer = "The tender documents do not contain enough relevant information to answer this question."

type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	AnswerQuestion(ctx context.Context, question string, passages []ai.Passage) (*ai.GeneratedAnswer, error)
}

type Retriever interface {
	SimilaritySearch(ctx context.Context, query []float32, topK int, minScore float64, scope index.Scope) ([]model.ChunkHit, error)
	TextSearch(ctx context.Context, text string, limit int, scope index.Scope) ([]model.ChunkEmbedding, error)
}

type Cache interface {
	Get(ctx context.Context, query string, scope querycache.Scope) (*model.QueryCacheEntry, bool, error)
	Put(ctx context.Context, query string, scope querycache.Scope, response interface{}, ttlSeconds int, opts ...querycache.PutOption) (*model.QueryCacheEntry, error)
}

// Config.MinScore is nil for the 0.5 default; an explicit 0 is kept.
type Config struct {
	TopK             int
	MinScore         *float64
	SimilarityWeight float64
	ModelWeight      float64
	CacheTTLSeconds  int
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MinScore == nil {
		def := 0.5
		c.MinScore = &def
	} else {
		v := *c.MinScore
		c.MinScore = &v
	}
	if c.SimilarityWeight <= 0 && c.ModelWeight <= 0 {
		c.SimilarityWeight = 0.7
		c.ModelWeight = 0.3
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 3600
	}
	return c
}

type Question struct {
	TenantID    string
	DocumentIDs []string
	Text        string
	TopK        int
	// MinScore overrides the configured threshold when set.
	MinScore *float64
}

type Source struct {
	DocumentID   string  `json:"document_id"`
	DocumentType string  `json:"document_type,omitempty"`
	ChunkID      int     `json:"chunk_id"`
	Section      string  `json:"section,omitempty"`
	Page         int     `json:"page,omitempty"`
	Confidence   float64 `json:"confidence"`
}

type Answer struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	ConfidenceScore  float64  `json:"confidence_score"`
	InsufficientData bool     `json:"insufficient_data"`
	Cached           bool     `json:"cached"`
	CacheKey         string   `json:"cache_key,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Trace            []State  `json:"-"`
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline answers questions from the index. It holds no locks of its own;
// the index and cache are shared handles built once at startup.
type Pipeline struct {
	index     Retriever
	cache     Cache
	embedder  Embedder
	generator Generator
	cfg       Config
	now       func() time.Time
}

func New(idx Retriever, cache Cache, embedder Embedder, generator Generator, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:     idx,
		cache:     cache,
		embedder:  embedder,
		generator: generator,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type run struct {
	start time.Time
	trace []State
}

func (r *run) enter(s State) {
	r.trace = append(r.trace, s)
}

func (p *Pipeline) finish(ctx context.Context, r *run, ans *Answer) *Answer {
	r.enter(StateDone)
	ans.Trace = r.trace
	ans.ProcessingTimeMs = p.now().Sub(r.start).Milliseconds()
	trace := make([]string, 0, len(r.trace))
	for _, s := range r.trace {
		trace = append(trace, string(s))
	}
	logutil.GetLogger(ctx).Debug("question answered",
		zap.Strings("trace", trace),
		zap.Bool("cached", ans.Cached),
		zap.Bool("insufficient_data", ans.InsufficientData),
		zap.Float64("confidence", ans.ConfidenceScore),
		zap.Int64("processing_time_ms", ans.ProcessingTimeMs))
	return ans
}

func (p *Pipeline) Answer(ctx context.Context, q Question) (*Answer, error) {
	r := &run{start: p.now()}
	r.enter(StateReceived)

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	if q.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant is required", appErr.ErrInvalid)
	}
	topK := q.TopK
	if topK <= 0 {
		topK = p.cfg.TopK
	}
	minScore := *p.cfg.MinScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}
	scope := querycache.Scope{TenantID: q.TenantID, DocumentIDs: q.DocumentIDs, TopK: topK, MinScore: minScore}
	cacheKey := querycache.Key(text, scope)

	r.enter(StateCacheCheck)
	if cached := p.lookup(ctx, text, scope); cached != nil {
		r.enter(StateCacheHit)
		cached.Cached = true
		cached.CacheKey = cacheKey
		return p.finish(ctx, r, cached), nil
	}
	r.enter(StateCacheMiss)

	r.enter(StateEmbedding)
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", appErr.ErrRetrieval, err)
	}

	r.enter(StateRetrieval)
	hits, err := p.index.SimilaritySearch(ctx, vec, topK, minScore, index.Scope{TenantID: q.TenantID, DocumentIDs: q.DocumentIDs})
	if err != nil {
		if appErr.IsInvalid(err) {
			return nil, err
		}
		return nil, fmt.Errorf("similarity search: %w: %w", appErr.ErrRetrieval, err)
	}
	if len(hits) == 0 {
		logutil.GetLogger(ctx).Info("no chunk cleared the similarity threshold",
			zap.String("tenant_id", q.TenantID), zap.Float64("min_score", minScore))
		return p.finish(ctx, r, &Answer{
			Answer:           InsufficientContextAnswer,
			Sources:          []Source{},
			InsufficientData: true,
		}), nil
	}

	r.enter(StateAnswerAssembly)
	generated, err := p.generator.AnswerQuestion(ctx, text, passagesFrom(hits))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w: %w", appErr.ErrRetrieval, err)
	}
	ans := &Answer{
		Answer:          generated.Text,
		Sources:         sourcesFrom(hits),
		ConfidenceScore: Confidence(hits[0].Score, generated.Confidence, p.cfg.SimilarityWeight, p.cfg.ModelWeight),
	}

	if ctx.Err() == nil {
		r.enter(StateCacheWrite)
		if _, err := p.cache.Put(ctx, text, scope, ans, p.cfg.CacheTTLSeconds, querycache.WithQueryVector(vec)); err != nil {
			logutil.GetLogger(ctx).Warn("cache answer failed", zap.Error(err))
		}
	}
	ans.CacheKey = cacheKey
	return p.finish(ctx, r, ans), nil
}

// lookup treats any cache failure as a miss.
func (p *Pipeline) lookup(ctx context.Context, text string, scope querycache.Scope) *Answer {
	entry, ok, err := p.cache.Get(ctx, text, scope)
	if err != nil {
		logutil.GetLogger(ctx).Warn("cache lookup failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var ans Answer
	if err := json.Unmarshal(entry.Response, &ans); err != nil {
		logutil.GetLogger(ctx).Warn("decode cached answer failed", zap.String("key", entry.Key), zap.Error(err))
		return nil
	}
	return &ans
}

func passagesFrom(hits []model.ChunkHit) []ai.Passage {
	out := make([]ai.Passage, 0, len(hits))
	for _, h := range hits {
		out = append(out, ai.Passage{Label: label(h.Chunk), Text: h.Chunk.Content})
	}
	return out
}

func label(c model.ChunkEmbedding) string {
	parts := []string{c.DocumentID}
	if c.Metadata.DocumentType != "" {
		parts = append(parts, c.Metadata.DocumentType)
	}
	if c.Metadata.Section != "" {
		parts = append(parts, c.Metadata.Section)
	}
	if c.Metadata.Page > 0 {
		parts = append(parts, "p."+strconv.Itoa(c.Metadata.Page))
	}
	return strings.Join(parts, " ")
}

func sourcesFrom(hits []model.ChunkHit) []Source {
	out := make([]Source, 0, len(hits))
	for _, h := range hits {
		out = append(out, Source{
			DocumentID:   h.Chunk.DocumentID,
			DocumentType: h.Chunk.Metadata.DocumentType,
			ChunkID:      h.Chunk.ChunkID,
			Section:      h.Chunk.Metadata.Section,
			Page:         h.Chunk.Metadata.Page,
			Confidence:   clamp01(h.Score),
		})
	}
	return out
}

// Confidence combines the best similarity s with the model's self-reported
// confidence g as s^ws * g^wg. Without g it is s alone.
func Confidence(maxSimilarity float64, selfReported *float64, ws, wg float64) float64 {
	s := clamp01(maxSimilarity)
	if selfReported == nil {
		return s
	}
	g := clamp01(*selfReported)
	return clamp01(math.Pow(s, ws) * math.Pow(g, wg))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
