package ingestion

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/poiesic/docsearch/core"
)

// Reembed rebuilds the vectors of the persisted snapshot with the current
// embedder, keeping its chunks. Use it after changing the embedding model
// when the source documents are not at hand. The previous index keeps
// serving until the new snapshot is saved.
func (r *Refresher) Reembed(ctx context.Context) (*Summary, error) {
	if !r.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	stored, err := r.repository.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if stored.Len() == 0 {
		return nil, core.Fail("ingestion", core.ErrInvalidIndexInput,
			"No stored chunks to re-embed. Run a refresh first.", nil)
	}

	r.logger.Info("re-embedding stored snapshot",
		"chunks", stored.Len(), "from_model", stored.Model, "to_model", r.embedder.Model())

	vectors, err := r.embedAll(ctx, stored.Texts)
	if err != nil {
		return nil, err
	}

	snap, err := r.publish(ctx, vectors,
		slices.Clone(stored.SourceLabels), slices.Clone(stored.FileIDs), slices.Clone(stored.Texts))
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Documents: snap.DocumentCount(),
		Chunks:    snap.Len(),
		Dimension: snap.Dimension,
		Model:     snap.Model,
		Elapsed:   time.Since(start),
	}
	r.logger.Info("re-embedding complete", "chunks", summary.Chunks, "dimension", summary.Dimension, "elapsed", summary.Elapsed)
	return summary, nil
}
