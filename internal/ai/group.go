package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

// firstSuccess walks the entries in order and returns the first result that
// did not fail. Context errors stop the walk.
func firstSuccess[T any](ctx context.Context, kind string, names []string, call func(i int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i, name := range names {
		res, err := call(i)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn(kind+" failed", zap.Int("index", i), zap.String("name", name), zap.Error(err))
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	if lastErr == nil {
		return zero, fmt.Errorf("%s not configured", kind)
	}
	return zero, lastErr
}

type groupGenerator struct {
	items []GeneratorEntry
	names []string
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	kept := make([]GeneratorEntry, 0, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Generator == nil {
			continue
		}
		kept = append(kept, item)
		names = append(names, item.Name)
	}
	if len(kept) == 0 {
		return nil
	}
	return &groupGenerator{items: kept, names: names}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return firstSuccess(ctx, "generator", g.names, func(i int) (string, error) {
		return g.items[i].Generator.Generate(ctx, prompt)
	})
}

type groupEmbedder struct {
	items []EmbedderEntry
	names []string
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	kept := make([]EmbedderEntry, 0, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Embedder == nil {
			continue
		}
		kept = append(kept, item)
		names = append(names, item.Name)
	}
	if len(kept) == 0 {
		return nil
	}
	return &groupEmbedder{items: kept, names: names}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return firstSuccess(ctx, "embedder", g.names, func(i int) ([]float32, error) {
		return g.items[i].Embedder.Embed(ctx, text, taskType)
	})
}

// ModelName joins the member model names. Vectors from different members
// are not comparable, so every member must share a dimension.
func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if n := item.Embedder.ModelName(); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}
