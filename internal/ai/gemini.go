package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey               string  `json:"api_key"`
	Temperature          float32 `json:"temperature"`
	OutputDimensionality int32   `json:"output_dimensionality"`
}

// geminiProvider serves both generation and embedding from one lazily
// created client.
type geminiProvider struct {
	cfg geminiConfig

	mu     sync.Mutex
	client *genai.Client
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	if p.cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}
	var config *genai.GenerateContentConfig
	if p.cfg.Temperature > 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(p.cfg.Temperature)}
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		config,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}
	config := &genai.EmbedContentConfig{TaskType: taskType}
	if p.cfg.OutputDimensionality > 0 {
		config.OutputDimensionality = genai.Ptr(p.cfg.OutputDimensionality)
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func newGeminiProvider(args interface{}) (*geminiProvider, error) {
	cfg := geminiConfig{}
	if err := decodeConfig(args, &cfg); err != nil {
		return nil, err
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &geminiProvider{cfg: cfg}, nil
}

func init() {
	Register("gemini", func(args interface{}) (IAIProvider, error) {
		p, err := newGeminiProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	RegisterEmbed("gemini", func(args interface{}) (IEmbedProvider, error) {
		p, err := newGeminiProvider(args)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
