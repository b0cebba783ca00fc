package access

import (
	"context"
	"fmt"
	"iter"
)

// Page is one page of a permission listing.
type Page struct {
	FileIDs       []string
	NextPageToken string // empty on the last page
}

// Provider lists the files an identity may read, one page at a time.
// An empty pageToken requests the first page.
// Implementations must be thread-safe for concurrent use.
type Provider interface {
	ListReadable(ctx context.Context, identity, pageToken string) (Page, error)
}

// ProviderFunc adapts an ordinary function to a Provider.
type ProviderFunc func(ctx context.Context, identity, pageToken string) (Page, error)

// ListReadable calls f.
func (f ProviderFunc) ListReadable(ctx context.Context, identity, pageToken string) (Page, error) {
	return f(ctx, identity, pageToken)
}

// Pages returns the lazy sequence of file-id batches readable by identity.
// The sequence ends after the page without a continuation token. A provider
// error is yielded once and ends the sequence.
func Pages(ctx context.Context, p Provider, identity string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		seen := make(map[string]struct{})
		token := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := p.ListReadable(ctx, identity, token)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page.FileIDs, nil) {
				return
			}

			token = page.NextPageToken
			if token == "" {
				return
			}
			if _, dup := seen[token]; dup {
				yield(nil, fmt.Errorf("%w: %q", ErrPaginationLoop, token))
				return
			}
			seen[token] = struct{}{}
		}
	}
}
