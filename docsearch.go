// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package docsearch is permission-aware semantic search over an
// organization's documents.
//
// A System wires the refresh pipeline, the snapshot store, the live vector
// index and the retrieval engine from a Config:
//
//	sys, err := docsearch.Open(ctx, cfg)
//	if err != nil { ... }
//	defer sys.Close()
//
//	summary, err := sys.Refresh(ctx, docs)
//	resp, err := sys.Search(ctx, core.Query{Text: "vpn setup", Identity: "ana@example.com"})
package docsearch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/docsearch/access"
	"github.com/poiesic/docsearch/access/drive"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/openai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/index"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"github.com/poiesic/docsearch/source"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
)

// ErrNoAccessProvider is the access failure reported when no permission
// provider is configured.
var ErrNoAccessProvider = errors.New("no access provider configured")

// System is an open docsearch instance.
type System struct {
	cfg       *Config
	repo      storage.SnapshotRepository
	provider  ai.AIProvider
	holder    *index.Holder
	refresher *ingestion.Refresher
	engine    *search.Engine
	logger    *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider   ai.AIProvider
	access     access.Provider
	repository storage.SnapshotRepository
	progress   io.Writer
	logger     *slog.Logger
}

// WithAIProvider replaces the OpenAI-compatible provider built from the
// config. The System closes it.
func WithAIProvider(p ai.AIProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithAccessProvider replaces the permission provider built from the config.
func WithAccessProvider(p access.Provider) Option {
	return func(o *options) {
		o.access = p
	}
}

// WithRepository replaces the BadgerDB snapshot store under the data
// directory. The System closes it.
func WithRepository(r storage.SnapshotRepository) Option {
	return func(o *options) {
		o.repository = r
	}
}

// WithProgress reports refresh progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open wires a System from cfg and loads the last saved snapshot, if any.
// A nil cfg means DefaultConfig. A snapshot that cannot be restored is
// logged and left in place; the System starts uninitialized until the next
// refresh.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*System, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	s := &System{
		cfg:    cfg,
		holder: index.NewHolder(),
		logger: o.logger.With("component", "docsearch"),
	}

	// Open snapshot store
	s.repo = o.repository
	if s.repo == nil {
		repo, err := badger.NewRepository(filepath.Join(cfg.DataDir, "snapshot"))
		if err != nil {
			return nil, err
		}
		s.repo = repo
	}

	// Create AI provider with configured settings
	s.provider = o.provider
	if s.provider == nil {
		provider, err := openai.NewProvider(cfg.aiConfig())
		if err != nil {
			s.closeRepo()
			return nil, err
		}
		s.provider = provider
	}

	if err := s.wire(ctx, o); err != nil {
		s.Close()
		return nil, err
	}

	restored, err := s.refresher.Restore(ctx)
	switch {
	case err != nil:
		s.logger.Warn("stored snapshot not loaded; run a refresh", "err", err)
	case !restored:
		s.logger.Info("no stored snapshot; run a refresh")
	}
	return s, nil
}

func (s *System) wire(ctx context.Context, o *options) error {
	embedder := s.provider.Embedder()

	ch, err := chunker.New(chunker.WithMaxWords(s.cfg.Refresh.MaxWords))
	if err != nil {
		return err
	}

	refreshOpts := []ingestion.Option{
		ingestion.WithBatchSize(s.cfg.Refresh.BatchSize),
		ingestion.WithMaxRetries(s.cfg.Refresh.MaxRetries),
		ingestion.WithRetryDelay(s.cfg.Refresh.RetryDelay),
		ingestion.WithLogger(o.logger),
	}
	if s.cfg.Refresh.PoolSize > 0 {
		refreshOpts = append(refreshOpts, ingestion.WithPoolSize(s.cfg.Refresh.PoolSize))
	}
	if o.progress != nil {
		refreshOpts = append(refreshOpts, ingestion.WithProgress(o.progress, s.cfg.Refresh.BatchSize))
	}
	s.refresher, err = ingestion.NewRefresher(ch, embedder, s.repo, s.holder, refreshOpts...)
	if err != nil {
		return err
	}

	provider := o.access
	if provider == nil {
		provider, err = s.accessProvider(ctx, o.logger)
		if err != nil {
			return err
		}
	}
	filter, err := access.NewFilter(provider,
		access.WithTimeout(s.cfg.Access.Timeout),
		access.WithLogger(o.logger))
	if err != nil {
		return err
	}

	s.engine, err = search.NewEngine(embedder, s.holder, filter,
		search.WithCandidatePool(s.cfg.Search.CandidatePool),
		search.WithTopK(s.cfg.Search.TopK),
		search.WithExcerptLength(s.cfg.Search.ExcerptLength),
		search.WithLogger(o.logger))
	return err
}

func (s *System) accessProvider(ctx context.Context, logger *slog.Logger) (access.Provider, error) {
	if s.cfg.Access.Provider != AccessProviderDrive {
		return access.ProviderFunc(func(context.Context, string, string) (access.Page, error) {
			return access.Page{}, ErrNoAccessProvider
		}), nil
	}

	driveOpts := []drive.Option{
		drive.WithAllDrives(s.cfg.Access.AllDrives),
		drive.WithLogger(logger),
	}
	if s.cfg.Access.CredentialsFile != "" {
		driveOpts = append(driveOpts, drive.WithCredentialsFile(s.cfg.Access.CredentialsFile))
	}
	if s.cfg.Access.PageSize > 0 {
		driveOpts = append(driveOpts, drive.WithPageSize(s.cfg.Access.PageSize))
	}
	return drive.New(ctx, driveOpts...)
}

// Refresh rebuilds the index from docs, the complete current document set.
// Documents with a local path get their text extracted from the file.
func (s *System) Refresh(ctx context.Context, docs []core.SourceDocument) (*ingestion.Summary, error) {
	loaded, err := source.Load(ctx, docs, s.logger)
	if err != nil {
		return nil, err
	}
	return s.refresher.Refresh(ctx, loaded)
}

// Reembed re-embeds the stored corpus with the configured model and
// publishes the result. Used after changing embedding models.
func (s *System) Reembed(ctx context.Context) (*ingestion.Summary, error) {
	return s.refresher.Reembed(ctx)
}

// Search runs q against the live index.
func (s *System) Search(ctx context.Context, q core.Query) (*core.SearchResponse, error) {
	return s.engine.Search(ctx, q)
}

// SearchWithMonitor runs q with monitoring callbacks.
func (s *System) SearchWithMonitor(ctx context.Context, q core.Query, monitor search.SearchMonitor) (*core.SearchResponse, error) {
	return s.engine.SearchWithMonitor(ctx, q, monitor)
}

// Stats summarizes the live corpus.
// Fails with core.ErrIndexNotLoaded before the first refresh.
func (s *System) Stats() (core.Stats, error) {
	corpus := s.holder.Load()
	if corpus == nil {
		return core.Stats{}, core.Fail("docsearch", core.ErrEmbeddingUnavailable,
			"Search not initialized. Run a refresh first.", core.ErrIndexNotLoaded)
	}
	snap := corpus.Snapshot
	return core.Stats{
		Documents: snap.DocumentCount(),
		Chunks:    snap.Len(),
		Dimension: snap.Dimension,
		Model:     snap.Model,
		BuiltAt:   snap.BuiltAt,
	}, nil
}

// Close releases the worker pool, the AI provider and the snapshot store.
func (s *System) Close() error {
	if s.refresher != nil {
		s.refresher.Release()
	}

	// Close AI provider first
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}

	return s.closeRepo()
}

func (s *System) closeRepo() error {
	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing snapshot repository", "err", err)
		return err
	}
	return nil
}
