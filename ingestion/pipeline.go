package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/index"
	"github.com/poiesic/docsearch/storage"
)

const (
	// DefaultBatchSize is the number of chunks sent per embedding request.
	DefaultBatchSize = 64
	// DefaultMaxRetries is the number of attempts per batch.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base backoff delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Summary describes a completed refresh.
type Summary struct {
	Documents int // documents chunked
	Skipped   int // documents rejected by validation
	Chunks    int
	Dimension int
	Model     string
	Elapsed   time.Duration
}

// Refresher rebuilds the corpus from source documents and publishes it.
type Refresher struct {
	chunker    *chunker.Chunker
	embedder   ai.Embedder
	repository storage.SnapshotRepository
	holder     *index.Holder
	pool       *ants.Pool
	embedProc  processor

	batchSize        int
	maxRetries       int
	retryDelay       time.Duration
	progress         io.Writer
	progressInterval int
	logger           *slog.Logger

	mu sync.Mutex
}

// Option configures a Refresher.
type Option func(*Refresher) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Refresher) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if r.pool != nil {
			r.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of chunks per embedding request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(r *Refresher) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		r.batchSize = size
		return nil
	}
}

// WithMaxRetries sets the number of attempts per batch.
// Default is DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(r *Refresher) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		r.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base backoff delay.
// Default is DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Refresher) error {
		if d < 0 {
			d = 0
		}
		r.retryDelay = d
		return nil
	}
}

// WithProgress reports embedding progress to w every interval chunks.
// Disabled by default.
func WithProgress(w io.Writer, interval int) Option {
	return func(r *Refresher) error {
		r.progress = w
		r.progressInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRefresher creates a new refresh pipeline.
func NewRefresher(
	ch *chunker.Chunker,
	embedder ai.Embedder,
	repository storage.SnapshotRepository,
	holder *index.Holder,
	opts ...Option,
) (*Refresher, error) {
	if ch == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if holder == nil {
		return nil, ErrHolderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Refresher{
		chunker:    ch,
		embedder:   embedder,
		repository: repository,
		holder:     holder,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	r.logger = r.logger.With("component", "refresher")

	// Create processor after options are applied (so it gets final config)
	embedProc, err := newEmbeddingProcessor(embedder, r.maxRetries, r.retryDelay, r.logger)
	if err != nil {
		r.Release()
		return nil, err
	}
	r.embedProc = embedProc

	return r, nil
}

// Refresh rebuilds the corpus from docs, the complete current document set.
// The new index is published only after the snapshot is persisted; on any
// earlier failure the previous index keeps serving. Returns
// ErrRefreshInProgress if another refresh is running.
func (r *Refresher) Refresh(ctx context.Context, docs []core.SourceDocument) (*Summary, error) {
	if !r.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	summary := &Summary{Model: r.embedder.Model()}

	var chunks []core.Chunk
	for i := range docs {
		if err := core.ValidateSourceDocument(&docs[i]); err != nil {
			r.logger.Warn("skipping document", "index", i, "err", err)
			summary.Skipped++
			continue
		}
		chunks = append(chunks, r.chunker.Chunk(docs[i])...)
		summary.Documents++
	}
	summary.Chunks = len(chunks)
	r.logger.Info("refresh started", "documents", summary.Documents, "skipped", summary.Skipped, "chunks", len(chunks))

	if len(chunks) == 0 {
		return nil, core.Fail("ingestion", core.ErrInvalidIndexInput,
			"No documents to index; the previous index is still in use.", nil,
			"documents", len(docs))
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(chunks))
	fileIDs := make([]string, len(chunks))
	for i := range chunks {
		labels[i] = chunks[i].SourceLabel
		fileIDs[i] = chunks[i].FileID
	}

	snap, err := r.publish(ctx, vectors, labels, fileIDs, texts)
	if err != nil {
		return nil, err
	}

	summary.Dimension = snap.Dimension
	summary.Elapsed = time.Since(start)
	r.logger.Info("refresh complete",
		"documents", summary.Documents,
		"chunks", summary.Chunks,
		"dimension", summary.Dimension,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// publish assembles a snapshot from aligned sequences, builds its index,
// persists it and swaps it in. Nothing is published on error.
func (r *Refresher) publish(ctx context.Context, vectors [][]float32, labels, fileIDs, texts []string) (*core.Snapshot, error) {
	snap := &core.Snapshot{
		Vectors:      vectors,
		SourceLabels: labels,
		FileIDs:      fileIDs,
		Texts:        texts,
		Model:        r.embedder.Model(),
		BuiltAt:      time.Now().UTC(),
	}
	if len(vectors) > 0 {
		snap.Dimension = len(vectors[0])
	}

	corpus, err := index.NewCorpus(snap)
	if err != nil {
		return nil, core.Fail("ingestion", core.ErrInvalidIndexInput,
			"The index could not be rebuilt; the previous index is still in use.", err,
			"chunks", len(texts))
	}

	if err := r.repository.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	r.holder.Swap(corpus)
	return snap, nil
}

// embedAll embeds texts in batches on the worker pool and returns vectors in
// text order. The first failure cancels the remaining batches.
func (r *Refresher) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if r.progress != nil {
		tracker = NewProgressTracker(r.progress, len(texts), r.progressInterval)
		tracker.Start()
	}

	vectors := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, b := range makeBatches(texts, r.batchSize) {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			out, err := r.embedProc.process(ctx, b)
			if err != nil {
				fail(err)
				return
			}
			// Batches cover disjoint ranges.
			copy(vectors[b.offset:], out)
			if tracker != nil {
				tracker.Increment(len(b.texts))
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to schedule embedding batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	// A caller cancellation may have stopped scheduling early.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tracker != nil {
		tracker.Finish()
	}
	return vectors, nil
}

// Restore loads the persisted snapshot and publishes its index.
// Returns false with no error when nothing has been saved yet. A snapshot
// embedded with a different model than the current embedder is rejected
// with core.ErrModelMismatch.
func (r *Refresher) Restore(ctx context.Context) (bool, error) {
	snap, err := r.repository.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if snap.Model != "" && snap.Model != r.embedder.Model() {
		return false, fmt.Errorf("%w: snapshot built with %q, embedder uses %q",
			core.ErrModelMismatch, snap.Model, r.embedder.Model())
	}
	if snap.Len() == 0 {
		return false, nil
	}

	corpus, err := index.NewCorpus(snap)
	if err != nil {
		return false, fmt.Errorf("failed to build index from snapshot: %w", err)
	}
	r.holder.Swap(corpus)

	r.logger.Info("restored snapshot", "chunks", snap.Len(), "dimension", snap.Dimension, "built_at", snap.BuiltAt)
	return true, nil
}

// Release releases resources including the worker pool.
// The refresher should not be used after calling Release.
func (r *Refresher) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
