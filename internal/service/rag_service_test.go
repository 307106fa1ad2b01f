package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cisbeo/scorpiusProject-sub002/internal/ai"
	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
	"github.com/cisbeo/scorpiusProject-sub002/internal/rag"
)

func transient() error {
	return fmt.Errorf("generate answer: %w: %w", appErr.ErrRetrieval, errors.New("503"))
}

func newRAGService(p *fakePipeline, retries int) (*RAGService, *fakeFeedback) {
	fb := &fakeFeedback{}
	docs := &fakeDocs{owners: map[string]string{"tender-1": "t1"}}
	cfg := ai.RetryConfig{MaxRetries: retries, RetryDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return NewRAGService(p, docs, fb, cfg), fb
}

func TestAnswerQuestionRetriesTransientFailures(t *testing.T) {
	p := &fakePipeline{errs: []error{transient(), transient()}, answer: &rag.Answer{Answer: "30 days", ConfidenceScore: 0.8}}
	svc, _ := newRAGService(p, 3)

	ans, err := svc.AnswerQuestion(context.Background(), AskRequest{TenantID: "t1", TenderID: "tender-1", Question: "delivery?", TopK: 3})
	require.NoError(t, err)
	require.Equal(t, "30 days", ans.Answer)
	require.Equal(t, 3, p.calls)
	require.Equal(t, []string{"tender-1"}, p.questions[0].DocumentIDs)
	require.Equal(t, 3, p.questions[0].TopK)
}

func TestAnswerQuestionDegradesAfterRetries(t *testing.T) {
	p := &fakePipeline{errs: []error{transient(), transient(), transient()}}
	svc, _ := newRAGService(p, 2)

	ans, err := svc.AnswerQuestion(context.Background(), AskRequest{TenantID: "t1", TenderID: "tender-1", Question: "delivery?"})
	require.NoError(t, err)
	require.Equal(t, 3, p.calls)
	require.True(t, ans.InsufficientData)
	require.Zero(t, ans.ConfidenceScore)
	require.Equal(t, DegradedAnswer, ans.Answer)
	require.Empty(t, ans.Sources)
	require.False(t, ans.Cached)
}

func TestAnswerQuestionDoesNotRetryOtherErrors(t *testing.T) {
	p := &fakePipeline{errs: []error{fmt.Errorf("%w: question is required", appErr.ErrInvalid)}}
	svc, _ := newRAGService(p, 3)

	_, err := svc.AnswerQuestion(context.Background(), AskRequest{TenantID: "t1", TenderID: "tender-1"})
	require.True(t, appErr.IsInvalid(err))
	require.Equal(t, 1, p.calls)
}

func TestAnswerQuestionUnknownTender(t *testing.T) {
	p := &fakePipeline{}
	svc, _ := newRAGService(p, 0)

	_, err := svc.AnswerQuestion(context.Background(), AskRequest{TenantID: "t2", TenderID: "tender-1", Question: "q"})
	require.True(t, appErr.IsNotFound(err))
	_, err = svc.AnswerQuestion(context.Background(), AskRequest{TenantID: "t1", Question: "q"})
	require.True(t, appErr.IsInvalid(err))
	require.Zero(t, p.calls)
}

func TestAnswerQuestionCancelledIsNotDegraded(t *testing.T) {
	p := &fakePipeline{errs: []error{transient(), transient()}}
	svc, _ := newRAGService(p, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnswerQuestion(ctx, AskRequest{TenantID: "t1", TenderID: "tender-1", Question: "q"})
	require.Error(t, err)
}

func TestSubmitFeedback(t *testing.T) {
	svc, store := newRAGService(&fakePipeline{}, 0)

	fb := &model.Feedback{TenantID: "t1", CacheKey: "abc", Question: " delivery? ", Helpful: true}
	require.NoError(t, svc.SubmitFeedback(context.Background(), fb))
	require.Len(t, store.saved, 1)
	require.Len(t, fb.ID, 36)
	require.False(t, fb.CreatedAt.IsZero())
	require.Equal(t, "delivery?", fb.Question)

	err := svc.SubmitFeedback(context.Background(), &model.Feedback{TenantID: "t1"})
	require.True(t, appErr.IsInvalid(err))
	err = svc.SubmitFeedback(context.Background(), &model.Feedback{Question: "q"})
	require.True(t, appErr.IsInvalid(err))
}
