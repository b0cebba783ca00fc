package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func lengthEmbedder(dim int) embeddings.EmbedderClientFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			v := make([]float32, dim)
			v[0] = float32(len(text))
			out[i] = v
		}
		return out, nil
	}
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel("test-model"), ai.WithBatchSize(2))
	require.NoError(t, cfg.Validate())

	var calls atomic.Int32
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		assert.LessOrEqual(t, len(texts), 2)
		return lengthEmbedder(3)(ctx, texts)
	})

	e, err := newEmbedderWithClient(client, cfg)
	require.NoError(t, err)
	assert.Equal(t, "test-model", e.Model())

	input := []string{"a", "bb\nb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedTexts(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	assert.Equal(t, float32(4), vectors[1][0])
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "bb\nb", input[1], "input must not be modified")
}

func TestEmbedder_EmptyBatch(t *testing.T) {
	cfg := ai.NewConfig()
	require.NoError(t, cfg.Validate())

	e, err := newEmbedderWithClient(embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		t.Fatal("client should not be called")
		return nil, nil
	}), cfg)
	require.NoError(t, err)

	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedder_DimensionEnforced(t *testing.T) {
	t.Run("configured dimension", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingModel("custom"), ai.WithDimension(4))
		require.NoError(t, cfg.Validate())

		e, err := newEmbedderWithClient(lengthEmbedder(3), cfg)
		require.NoError(t, err)

		_, err = e.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("learned from first response", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithEmbeddingModel("custom"))
		require.NoError(t, cfg.Validate())

		dim := 3
		client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
			return lengthEmbedder(dim)(ctx, texts)
		})
		e, err := newEmbedderWithClient(client, cfg)
		require.NoError(t, err)

		v, err := e.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Len(t, v, 3)

		dim = 5
		_, err = e.EmbedTexts(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestEmbedder_Normalize(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel("custom"), ai.WithNormalize(true))
	require.NoError(t, cfg.Validate())

	e, err := newEmbedderWithClient(embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{3, 4}}, nil
	}), cfg)
	require.NoError(t, err)

	v, err := e.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestEmbedder_ClientError(t *testing.T) {
	cfg := ai.NewConfig()
	require.NoError(t, cfg.Validate())

	boom := errors.New("boom")
	e, err := newEmbedderWithClient(embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}), cfg)
	require.NoError(t, err)

	_, err = e.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
	_, err = e.EmbedText(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func TestEmbedder_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: req.Model}
		for i, text := range req.Input {
			v := make([]float32, 384)
			v[0] = float32(len(text))
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: v, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost(server.URL)))
	require.NoError(t, err)
	defer provider.Close()

	vectors, err := provider.Embedder().EmbedTexts(context.Background(), []string{"one", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 384)
	assert.Equal(t, float32(5), vectors[1][0])
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)

	_, err = NewProvider(nil)
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
}
