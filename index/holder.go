package index

import (
	"sync/atomic"

	"github.com/poiesic/docsearch/core"
)

// Corpus pairs a built Index with the snapshot it was built from.
// Both are read-only once published.
type Corpus struct {
	Index    *Index
	Snapshot *core.Snapshot
}

// NewCorpus builds an Index from snap. The snapshot must be aligned and
// non-empty.
func NewCorpus(snap *core.Snapshot) (*Corpus, error) {
	if err := core.ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	idx, err := Build(snap.Vectors)
	if err != nil {
		return nil, err
	}
	return &Corpus{Index: idx, Snapshot: snap}, nil
}

// Holder publishes the live Corpus. The zero value holds nothing.
type Holder struct {
	current atomic.Pointer[Corpus]
}

// NewHolder returns an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the live corpus, or nil if none has been published.
func (h *Holder) Load() *Corpus {
	return h.current.Load()
}

// Swap publishes c and returns the previous corpus.
func (h *Holder) Swap(c *Corpus) *Corpus {
	return h.current.Swap(c)
}
