package search

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/docsearch/access"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/index"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCandidatePool is the number of nearest chunks fetched before filtering.
	DefaultCandidatePool = 10
	// DefaultTopK is the number of results returned.
	DefaultTopK = 3
	// DefaultExcerptLength is the maximum excerpt length in characters.
	DefaultExcerptLength = 500
)

const notInitialized = "Search not initialized. Run a refresh first."

// AccessResolver returns the file IDs an identity may read.
// *access.Filter implements it.
type AccessResolver interface {
	ResolveAccessibleFiles(ctx context.Context, identity string) (access.Set, error)
}

// Engine runs queries against the live index.
// Safe for concurrent use; it never mutates the index.
type Engine struct {
	embedder      ai.Embedder
	holder        *index.Holder
	access        AccessResolver
	candidatePool int
	topK          int
	excerptLength int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithCandidatePool sets the default number of candidates fetched before filtering.
// Default is DefaultCandidatePool.
func WithCandidatePool(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			n = DefaultCandidatePool
		}
		e.candidatePool = n
		return nil
	}
}

// WithTopK sets the default number of results.
// Default is DefaultTopK.
func WithTopK(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			n = DefaultTopK
		}
		e.topK = n
		return nil
	}
}

// WithExcerptLength sets the maximum excerpt length in characters.
// Default is DefaultExcerptLength.
func WithExcerptLength(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			n = DefaultExcerptLength
		}
		e.excerptLength = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(embedder ai.Embedder, holder *index.Holder, resolver AccessResolver, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if holder == nil {
		return nil, ErrHolderRequired
	}
	if resolver == nil {
		return nil, ErrAccessResolverRequired
	}

	e := &Engine{
		embedder:      embedder,
		holder:        holder,
		access:        resolver,
		candidatePool: DefaultCandidatePool,
		topK:          DefaultTopK,
		excerptLength: DefaultExcerptLength,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "search")

	return e, nil
}

// Search runs q and returns ranked, access-checked results.
func (e *Engine) Search(ctx context.Context, q core.Query) (*core.SearchResponse, error) {
	return e.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs q with monitoring.
// The monitor receives callbacks at each stage of the search process.
//
// An empty query fails with core.ErrInvalidQuery before any I/O. With no
// index loaded it fails with core.ErrIndexNotLoaded. Access check failures
// do not fail the search.
func (e *Engine) SearchWithMonitor(ctx context.Context, q core.Query, monitor SearchMonitor) (*core.SearchResponse, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateQuery(&q); err != nil {
		return nil, core.Fail("search", core.ErrInvalidQuery, "Enter a search query.", err)
	}
	text := strings.TrimSpace(q.Text)
	topK := q.TopK
	if topK == 0 {
		topK = e.topK
	}
	pool := q.CandidatePool
	if pool == 0 {
		pool = e.candidatePool
	}
	pool = max(pool, topK)

	// Pin one corpus for the whole query; a concurrent refresh swaps the
	// holder, not this value.
	corpus := e.holder.Load()
	if corpus == nil {
		return nil, core.Fail("search", core.ErrEmbeddingUnavailable, notInitialized, core.ErrIndexNotLoaded)
	}
	if model := corpus.Snapshot.Model; model != "" && model != e.embedder.Model() {
		return nil, core.Fail("search", core.ErrEmbeddingUnavailable, notInitialized, core.ErrModelMismatch,
			"index_model", model, "embedder_model", e.embedder.Model())
	}

	monitor.Start(q)

	var (
		candidates []index.Neighbor
		accessible access.Set
		accessErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := e.embedder.EmbedText(gctx, text)
		if err != nil {
			if ctxErr := gctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return err
			}
			e.logger.Error("error generating embedding for query", "err", err)
			return core.Fail("search", core.ErrEmbeddingUnavailable,
				"The embedding model is unavailable. Try again later.", err)
		}
		candidates, err = corpus.Index.Search(vector, pool)
		if err != nil {
			e.logger.Error("error searching index", "err", err)
			return core.Fail("search", core.ErrEmbeddingUnavailable, notInitialized, err)
		}
		return nil
	})
	g.Go(func() error {
		// Recoverable; never cancels the embedding path.
		accessible, accessErr = e.access.ResolveAccessibleFiles(gctx, q.Identity)
		if accessible == nil {
			accessible = access.Set{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(candidates)
	monitor.AfterAccessResolution(accessible.Len(), accessErr)

	survivors := e.filter(corpus.Snapshot, candidates, text, q.Filters)
	monitor.AfterFiltering(survivors)

	slices.SortStableFunc(survivors, func(a, b index.Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	if len(survivors) > topK {
		survivors = survivors[:topK]
	}

	results := make([]core.QueryResult, 0, len(survivors))
	for _, n := range survivors {
		fileID := corpus.Snapshot.FileIDs[n.Position]
		results = append(results, core.QueryResult{
			SourceLabel: corpus.Snapshot.SourceLabels[n.Position],
			FileID:      fileID,
			Excerpt:     excerpt(corpus.Snapshot.Texts[n.Position], e.excerptLength),
			Distance:    n.Distance,
			Position:    n.Position,
			Accessible:  accessible.Contains(fileID),
		})
	}
	monitor.Finish(results)

	e.logger.Debug("search complete",
		"candidates", len(candidates),
		"results", len(results),
		"access_error", accessErr != nil)

	return &core.SearchResponse{
		Query:     text,
		Results:   results,
		AccessErr: accessErr,
	}, nil
}

// filter applies the user filters to candidates, keeping their order.
func (e *Engine) filter(snap *core.Snapshot, candidates []index.Neighbor, query string, filters core.Filters) []index.Neighbor {
	keyword := strings.TrimSpace(filters.FilenameKeyword)
	survivors := make([]index.Neighbor, 0, len(candidates))
	for _, n := range candidates {
		if filters.ExactMatchOnly && !containsFold(snap.Texts[n.Position], query) {
			continue
		}
		if keyword != "" && !containsFold(snap.SourceLabels[n.Position], keyword) {
			continue
		}
		survivors = append(survivors, n)
	}
	return survivors
}
