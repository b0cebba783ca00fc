package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
)

// embeddingProcessor generates embeddings for chunk batches.
type embeddingProcessor struct {
	embedder   ai.Embedder
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(embedder ai.Embedder, maxRetries int, retryDelay time.Duration, logger *slog.Logger) (processor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if maxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder:   embedder,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process embeds one batch. Dimension and count mismatches are not retried.
func (ep *embeddingProcessor) process(ctx context.Context, b batch) ([][]float32, error) {
	ep.logger.Debug("generating embeddings", "offset", b.offset, "chunks", len(b.texts))

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = ep.embedder.EmbedTexts(ctx, b.texts)
		if err != nil {
			if errors.Is(err, core.ErrDimensionMismatch) {
				return Permanent(err)
			}
			return err
		}
		if len(vectors) != len(b.texts) {
			return Permanent(fmt.Errorf("%w: embedding count mismatch: expected %d, got %d",
				core.ErrEmbeddingUnavailable, len(b.texts), len(vectors)))
		}
		return nil
	}, ep.maxRetries, ep.retryDelay)
	if err != nil {
		ep.logger.Error("error generating embeddings", "offset", b.offset, "err", err)
		return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", b.offset, b.offset+len(b.texts)-1, err)
	}

	for i, v := range vectors {
		if err := core.ValidateVector(v); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", b.offset+i, err)
		}
	}
	return vectors, nil
}
