package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/cisbeo/scorpiusProject-sub002/internal/ai"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
	"github.com/cisbeo/scorpiusProject-sub002/internal/rag"
)

const DegradedAnswer = "The answer could not be produced right now. Please try again later."

type questionAnswerer interface {
	Answer(ctx context.Context, q rag.Question) (*rag.Answer, error)
	Search(ctx context.Context, q rag.SearchQuery) (*rag.SearchResult, error)
}

type feedbackStore interface {
	Create(ctx context.Context, fb *model.Feedback) error
}

type RAGService struct {
	pipeline questionAnswerer
	docs     documentStore
	feedback feedbackStore
	retry    ai.RetryConfig
	now      func() time.Time
}

func NewRAGService(pipeline questionAnswerer, docs documentStore, feedback feedbackStore, retry ai.RetryConfig) *RAGService {
	return &RAGService{pipeline: pipeline, docs: docs, feedback: feedback, retry: retry, now: time.Now}
}

type AskRequest struct {
	TenantID string
	TenderID string
	Question string
	TopK     int
	MinScore *float64
}

// AnswerQuestion retries transient model failures. Once retries are spent the
// caller gets a degraded answer instead of an error.
func (s *RAGService) AnswerQuestion(ctx context.Context, req AskRequest) (*rag.Answer, error) {
	if strings.TrimSpace(req.TenderID) == "" {
		return nil, fmt.Errorf("%w: tender id is required", appErr.ErrInvalid)
	}
	if err := s.docs.EnsureExists(ctx, req.TenantID, req.TenderID); err != nil {
		return nil, err
	}
	start := s.now()
	q := rag.Question{
		TenantID:    req.TenantID,
		DocumentIDs: []string{req.TenderID},
		Text:        req.Question,
		TopK:        req.TopK,
		MinScore:    req.MinScore,
	}
	ans, err := ai.Retry(ctx, s.retry, appErr.IsRetrieval, func(ctx context.Context) (*rag.Answer, error) {
		return s.pipeline.Answer(ctx, q)
	})
	if err == nil {
		return ans, nil
	}
	if !appErr.IsRetrieval(err) || ctx.Err() != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Warn("answer degraded after retries",
		zap.String("tenant_id", req.TenantID),
		zap.String("tender_id", req.TenderID),
		zap.Int("max_retries", s.retry.MaxRetries),
		zap.Error(err))
	return &rag.Answer{
		Answer:           DegradedAnswer,
		Sources:          []rag.Source{},
		InsufficientData: true,
		ProcessingTimeMs: s.now().Sub(start).Milliseconds(),
	}, nil
}

func (s *RAGService) Search(ctx context.Context, q rag.SearchQuery) (*rag.SearchResult, error) {
	return s.pipeline.Search(ctx, q)
}

func (s *RAGService) SubmitFeedback(ctx context.Context, fb *model.Feedback) error {
	fb.Question = strings.TrimSpace(fb.Question)
	if fb.TenantID == "" {
		return fmt.Errorf("%w: tenant is required", appErr.ErrInvalid)
	}
	if fb.Question == "" && fb.CacheKey == "" {
		return fmt.Errorf("%w: question or cache_key is required", appErr.ErrInvalid)
	}
	fb.ID = uuid.NewString()
	fb.CreatedAt = s.now().UTC()
	if err := s.feedback.Create(ctx, fb); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("answer feedback recorded",
		zap.String("feedback_id", fb.ID),
		zap.String("cache_key", fb.CacheKey),
		zap.Bool("helpful", fb.Helpful))
	return nil
}
