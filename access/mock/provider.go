// Package mock provides an in-memory permission provider for tests.
package mock

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/docsearch/access"
)

// Provider is an in-memory access.Provider. Grants can change between
// calls, which lets tests observe that access sets are never cached.
type Provider struct {
	// PageSize is the number of file IDs per page. Default 2.
	PageSize int

	// ListFunc, if set, replaces the default behavior.
	ListFunc func(ctx context.Context, identity, pageToken string) (access.Page, error)

	// Delay is waited before every page, honoring context cancellation.
	Delay time.Duration

	mu       sync.RWMutex
	grants   map[string]map[string]struct{} // identity -> file IDs
	failWith error
	calls    atomic.Int64
}

// NewProvider creates an empty Provider.
func NewProvider() *Provider {
	return &Provider{
		PageSize: 2,
		grants:   make(map[string]map[string]struct{}),
	}
}

// Grant gives identity read access to fileIDs.
func (p *Provider) Grant(identity string, fileIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	files, ok := p.grants[identity]
	if !ok {
		files = make(map[string]struct{})
		p.grants[identity] = files
	}
	for _, id := range fileIDs {
		files[id] = struct{}{}
	}
}

// Revoke removes identity's read access to fileIDs.
func (p *Provider) Revoke(identity string, fileIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range fileIDs {
		delete(p.grants[identity], id)
	}
}

// FailWith makes every subsequent call return err. Nil restores normal behavior.
func (p *Provider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// Calls returns the number of pages requested so far.
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}

// ListReadable returns one page of identity's readable files in sorted order.
// Page tokens are decimal offsets.
func (p *Provider) ListReadable(ctx context.Context, identity, pageToken string) (access.Page, error) {
	p.calls.Add(1)

	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return access.Page{}, ctx.Err()
		}
	}
	if p.ListFunc != nil {
		return p.ListFunc(ctx, identity, pageToken)
	}

	p.mu.RLock()
	if p.failWith != nil {
		err := p.failWith
		p.mu.RUnlock()
		return access.Page{}, err
	}
	ids := make([]string, 0, len(p.grants[identity]))
	for id := range p.grants[identity] {
		ids = append(ids, id)
	}
	p.mu.RUnlock()
	slices.Sort(ids)

	offset := 0
	if pageToken != "" {
		var err error
		if offset, err = strconv.Atoi(pageToken); err != nil {
			return access.Page{}, err
		}
	}
	size := p.PageSize
	if size < 1 {
		size = 2
	}

	offset = min(offset, len(ids))
	end := min(offset+size, len(ids))
	page := access.Page{FileIDs: ids[offset:end]}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}
