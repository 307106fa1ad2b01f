package service

import (
	"context"
	"sync"

	"github.com/cisbeo/scorpiusProject-sub002/internal/model"
	appErr "github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errors"
	"github.com/cisbeo/scorpiusProject-sub002/internal/rag"
)

type fakeDocs struct {
	owners map[string]string
	total  int64
}

func (f *fakeDocs) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	return f.total, nil
}

func (f *fakeDocs) EnsureExists(ctx context.Context, tenantID, id string) error {
	if owner, ok := f.owners[id]; ok && owner == tenantID {
		return nil
	}
	return appErr.ErrNotFound
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (f *fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeSource struct {
	chunks []model.ChunkEmbedding
}

func (f *fakeSource) ListLive(ctx context.Context) ([]model.ChunkEmbedding, error) {
	return f.chunks, nil
}

type fakePipeline struct {
	errs      []error
	answer    *rag.Answer
	calls     int
	questions []rag.Question
}

func (f *fakePipeline) Answer(ctx context.Context, q rag.Question) (*rag.Answer, error) {
	f.calls++
	f.questions = append(f.questions, q)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.answer, nil
}

func (f *fakePipeline) Search(ctx context.Context, q rag.SearchQuery) (*rag.SearchResult, error) {
	return &rag.SearchResult{Results: []rag.SearchHit{}, SearchType: rag.SearchTypeSemantic}, nil
}

type fakeFeedback struct {
	saved []*model.Feedback
}

func (f *fakeFeedback) Create(ctx context.Context, fb *model.Feedback) error {
	f.saved = append(f.saved, fb)
	return nil
}

type fakeRequirements struct {
	sets map[string]*model.RequirementSet
}

func (f *fakeRequirements) Save(ctx context.Context, set *model.RequirementSet) error {
	f.sets[set.DocumentID] = set
	return nil
}

func (f *fakeRequirements) GetByDocument(ctx context.Context, tenantID, documentID string) (*model.RequirementSet, error) {
	set, ok := f.sets[documentID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return set, nil
}

type fakeProfiles struct {
	profiles map[string]*model.CompanyProfile
}

func (f *fakeProfiles) GetByID(ctx context.Context, tenantID, id string) (*model.CompanyProfile, error) {
	p, ok := f.profiles[id]
	if !ok || p.TenantID != tenantID {
		return nil, appErr.ErrNotFound
	}
	return p, nil
}

type fakeMatches struct {
	items map[string]*model.CapabilityMatch
}

func newFakeMatches(ms ...*model.CapabilityMatch) *fakeMatches {
	f := &fakeMatches{items: make(map[string]*model.CapabilityMatch)}
	for _, m := range ms {
		f.items[m.ID] = m
	}
	return f
}

func (f *fakeMatches) Create(ctx context.Context, m *model.CapabilityMatch) error {
	if _, ok := f.items[m.ID]; ok {
		return appErr.ErrConflict
	}
	f.items[m.ID] = m
	return nil
}

func (f *fakeMatches) GetByID(ctx context.Context, tenantID, id string) (*model.CapabilityMatch, error) {
	m, ok := f.items[id]
	if !ok || m.TenantID != tenantID {
		return nil, appErr.ErrNotFound
	}
	return m, nil
}

// fakeBids mirrors the repo contract: optimistic updates on status and one
// row per (match, version).
type fakeBids struct {
	mu    sync.Mutex
	items map[string]model.BidResponse
}

func newFakeBids() *fakeBids {
	return &fakeBids{items: make(map[string]model.BidResponse)}
}

func (f *fakeBids) Create(ctx context.Context, bid *model.BidResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.items {
		if b.ID == bid.ID || (b.CapabilityMatchID == bid.CapabilityMatchID && b.Version == bid.Version) {
			return appErr.ErrConflict
		}
	}
	f.items[bid.ID] = *bid
	return nil
}

func (f *fakeBids) Update(ctx context.Context, bid *model.BidResponse, expected model.BidStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[bid.ID]
	if !ok || cur.Status != expected {
		return appErr.ErrConflict
	}
	f.items[bid.ID] = *bid
	return nil
}

func (f *fakeBids) GetByID(ctx context.Context, tenantID, id string) (*model.BidResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok || b.TenantID != tenantID {
		return nil, appErr.ErrNotFound
	}
	return &b, nil
}

type fakeChecks struct {
	byBid map[string][]model.ComplianceCheck
}

func (f *fakeChecks) Replace(ctx context.Context, bidID string, checks []model.ComplianceCheck) error {
	f.byBid[bidID] = checks
	return nil
}

func (f *fakeChecks) ListByBid(ctx context.Context, bidID string) ([]model.ComplianceCheck, error) {
	return f.byBid[bidID], nil
}
