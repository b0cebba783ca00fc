package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docsearch/core"
)

// DefaultTimeout bounds one permission resolution.
const DefaultTimeout = 10 * time.Second

// Set is the set of file IDs an identity may read at query time.
type Set map[string]struct{}

// NewSet returns a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether fileID is readable.
func (s Set) Contains(fileID string) bool {
	_, ok := s[fileID]
	return ok
}

// Len returns the number of readable files.
func (s Set) Len() int {
	return len(s)
}

// Filter resolves access sets against a Provider. Nothing is cached.
type Filter struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter) error

// WithTimeout bounds each resolution. Zero disables the bound.
// Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) error {
		if d < 0 {
			d = 0
		}
		f.timeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFilter creates a Filter over provider.
func NewFilter(provider Provider, opts ...Option) (*Filter, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	f := &Filter{
		provider: provider,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "access-filter")
	return f, nil
}

// ResolveAccessibleFiles returns every file identity may read, paging through
// the provider until no continuation token remains.
//
// On any failure the returned set is empty, never nil, and the error wraps
// core.ErrAccessCheckTimeout when the time bound expired or
// core.ErrAccessCheckFailed otherwise. Callers treat both as recoverable.
func (f *Filter) ResolveAccessibleFiles(ctx context.Context, identity string) (Set, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Set{}, core.Fail("access", core.ErrAccessCheckFailed,
			"No reader identity was given; results are shown without access.",
			core.ErrInvalidIdentity)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	set := Set{}
	pages := 0
	for ids, err := range Pages(ctx, f.provider, identity) {
		if err != nil {
			return Set{}, f.classify(ctx, identity, pages, err)
		}
		pages++
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	f.logger.Debug("resolved access set",
		"identity", identity,
		"files", len(set),
		"pages", pages,
		"elapsed", time.Since(start))
	return set, nil
}

func (f *Filter) classify(ctx context.Context, identity string, pages int, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		f.logger.Warn("access check timed out", "identity", identity, "pages", pages, "timeout", f.timeout)
		return core.Fail("access", core.ErrAccessCheckTimeout,
			"Permission check timed out; results are shown without access.",
			err, "identity", identity, "pages", pages)
	}

	f.logger.Warn("access check failed", "identity", identity, "pages", pages, "err", err)
	return core.Fail("access", core.ErrAccessCheckFailed,
		"Could not verify document permissions; results are shown without access.",
		err, "identity", identity, "pages", pages)
}
