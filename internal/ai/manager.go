package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Timeout         int
	MaxContextChars int
}

// Passage is one numbered piece of retrieved context handed to the model.
type Passage struct {
	Label string
	Text  string
}

// GeneratedAnswer is the model output. Confidence is nil when the model did
// not report one.
type GeneratedAnswer struct {
	Text       string
	Confidence *float64
}

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return ctx, func() {}
}

func (m *Manager) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	vec, err := m.embedder.Embed(ctx, text, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return vec, nil
}

func (m *Manager) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.embedder.Embed(ctx, text, TaskRetrievalDocument)
}

func (m *Manager) AnswerQuestion(ctx context.Context, question string, passages []Passage) (*GeneratedAnswer, error) {
	if m.generator == nil {
		return nil, fmt.Errorf("generator not configured: %w", ErrUnavailable)
	}
	prompt := fmt.Sprintf(`You are an assistant answering questions about a public procurement tender.
Answer ONLY from the numbered context passages below and cite passage numbers like [1].
- Use the same language as the question.
- If the context does not contain the answer, say so.
- Reply with a JSON object: {"answer": "<text>", "confidence": <number between 0 and 1>}. No extra text.

CONTEXT:
%s

QUESTION:
%s`, m.buildContext(passages), question)

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out := parseAnswer(resp)
	if out.Text == "" {
		return nil, fmt.Errorf("empty ai response")
	}
	return out, nil
}

func (m *Manager) buildContext(passages []Passage) string {
	var sb strings.Builder
	for i, p := range passages {
		block := fmt.Sprintf("[%d] %s\n%s\n\n", i+1, p.Label, strings.TrimSpace(p.Text))
		if m.cfg.MaxContextChars > 0 && sb.Len()+len(block) > m.cfg.MaxContextChars {
			if i == 0 {
				sb.WriteString(block[:m.cfg.MaxContextChars])
			}
			break
		}
		sb.WriteString(block)
	}
	return strings.TrimSpace(sb.String())
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

// parseAnswer accepts either the requested JSON object or plain text.
func parseAnswer(output string) *GeneratedAnswer {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		var payload struct {
			Answer     string   `json:"answer"`
			Confidence *float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(clean[start:end+1]), &payload); err == nil && strings.TrimSpace(payload.Answer) != "" {
			return &GeneratedAnswer{Text: strings.TrimSpace(payload.Answer), Confidence: payload.Confidence}
		}
	}
	return &GeneratedAnswer{Text: clean}
}
