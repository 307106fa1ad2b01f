package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cisbeo/scorpiusProject-sub002/internal/ai"
)

type countingEmbedder struct {
	name  string
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return c.name
}

func TestLruEmbedderMemoizes(t *testing.T) {
	inner := &countingEmbedder{name: "gemini/text-embedding-004"}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "deadline?", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	first[0] = 99

	second, err := e.Embed(ctx, " deadline? ", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{9, 1}, second)
	require.Equal(t, 1, inner.calls)

	_, err = e.Embed(ctx, "deadline?", ai.TaskRetrievalDocument)
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
	require.Equal(t, inner.name, e.ModelName())
}

func TestLruEmbedderDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{name: "m", err: errors.New("down")}
	e := WrapLruCacheToEmbedder(inner, 16, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := e.Embed(context.Background(), "q", ai.TaskRetrievalQuery)
		require.Error(t, err)
	}
	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedderDisabled(t *testing.T) {
	inner := &countingEmbedder{name: "m"}
	require.Same(t, ai.IEmbedder(inner), WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 10, time.Minute))
}
