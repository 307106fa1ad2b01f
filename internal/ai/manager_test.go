package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	out     string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

type fakeEmbedder struct {
	name  string
	vec   []float32
	err   error
	calls int
	tasks []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.calls++
	f.tasks = append(f.tasks, taskType)
	return f.vec, f.err
}

func (f *fakeEmbedder) ModelName() string {
	return f.name
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		text       string
		confidence *float64
	}{
		{"json", `{"answer": "Deadline is 30 May [1]", "confidence": 0.8}`, "Deadline is 30 May [1]", ptr(0.8)},
		{"fenced", "```json\n{\"answer\": \"yes\", \"confidence\": 1}\n```", "yes", ptr(1)},
		{"no confidence", `{"answer": "yes"}`, "yes", nil},
		{"plain text", "The deadline is 30 May.", "The deadline is 30 May.", nil},
		{"broken json", `{"answer": "yes"`, `{"answer": "yes"`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := parseAnswer(tc.in)
			require.Equal(t, tc.text, out.Text)
			if tc.confidence == nil {
				require.Nil(t, out.Confidence)
			} else {
				require.NotNil(t, out.Confidence)
				require.InDelta(t, *tc.confidence, *out.Confidence, 1e-9)
			}
		})
	}
}

func TestAnswerQuestionNumbersPassages(t *testing.T) {
	gen := &fakeGenerator{out: `{"answer":"ok","confidence":0.9}`}
	m := NewManager(gen, nil, ManagerConfig{})
	out, err := m.AnswerQuestion(context.Background(), "When?", []Passage{
		{Label: "rc.pdf p.2", Text: "Submission before 30 May."},
		{Label: "ccap.pdf p.7", Text: "Penalties apply."},
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out.Text)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "[1] rc.pdf p.2\nSubmission before 30 May.")
	require.Contains(t, gen.prompts[0], "[2] ccap.pdf p.7\nPenalties apply.")
	require.True(t, strings.HasSuffix(gen.prompts[0], "When?"))
}

func TestAnswerQuestionContextLimit(t *testing.T) {
	gen := &fakeGenerator{out: "ok"}
	m := NewManager(gen, nil, ManagerConfig{MaxContextChars: 40})
	_, err := m.AnswerQuestion(context.Background(), "q", []Passage{
		{Label: "a", Text: "short"},
		{Label: "b", Text: strings.Repeat("x", 100)},
	})
	require.NoError(t, err)
	require.Contains(t, gen.prompts[0], "[1] a")
	require.NotContains(t, gen.prompts[0], "[2] b")
}

func TestAnswerQuestionErrors(t *testing.T) {
	m := NewManager(nil, nil, ManagerConfig{})
	_, err := m.AnswerQuestion(context.Background(), "q", nil)
	require.ErrorIs(t, err, ErrUnavailable)

	m = NewManager(&fakeGenerator{out: "   "}, nil, ManagerConfig{})
	_, err = m.AnswerQuestion(context.Background(), "q", nil)
	require.Error(t, err)

	boom := errors.New("boom")
	m = NewManager(&fakeGenerator{err: boom}, nil, ManagerConfig{})
	_, err = m.AnswerQuestion(context.Background(), "q", nil)
	require.ErrorIs(t, err, boom)
}

func TestEmbedQueryUsesQueryTask(t *testing.T) {
	emb := &fakeEmbedder{name: "m", vec: []float32{1, 0}}
	m := NewManager(nil, emb, ManagerConfig{Timeout: 5})
	vec, err := m.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, vec)
	require.Equal(t, []string{TaskRetrievalQuery}, emb.tasks)

	_, err = NewManager(nil, &fakeEmbedder{}, ManagerConfig{}).EmbedQuery(context.Background(), "q")
	require.Error(t, err)
	_, err = NewManager(nil, nil, ManagerConfig{}).EmbedQuery(context.Background(), "q")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestGroupEmbedderFallsBack(t *testing.T) {
	first := &fakeEmbedder{name: "a", err: errors.New("down")}
	second := &fakeEmbedder{name: "b", vec: []float32{0.5}}
	g := NewGroupEmbedder([]EmbedderEntry{{Name: "a", Embedder: first}, {Name: "nil"}, {Name: "b", Embedder: second}})
	vec, err := g.Embed(context.Background(), "t", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{0.5}, vec)
	require.Equal(t, 1, first.calls)
	require.Equal(t, "a|b", g.ModelName())

	require.Nil(t, NewGroupEmbedder(nil))
}

func TestGroupGeneratorReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &fakeGenerator{err: errors.New("first")}},
		{Name: "b", Generator: &fakeGenerator{err: boom}},
	})
	_, err := g.Generate(context.Background(), "p")
	require.ErrorIs(t, err, boom)
}

func TestRegistry(t *testing.T) {
	_, err := NewProvider("", nil)
	require.Error(t, err)
	_, err = NewProvider("nope", map[string]interface{}{})
	require.Error(t, err)

	p, err := NewProvider(" Gemini ", map[string]interface{}{"api_key": ""})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "m", "p")
	require.ErrorIs(t, err, ErrUnavailable)

	ep, err := NewEmbedProvider("openrouter", map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, "openrouter", ep.Name())
	_, err = ep.Embed(context.Background(), "m", "t", "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func ptr(v float64) *float64 {
	return &v
}
