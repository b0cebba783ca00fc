package index

import (
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(vectors ...[]float32) *core.Snapshot {
	s := &core.Snapshot{Vectors: vectors}
	for i := range vectors {
		s.SourceLabels = append(s.SourceLabels, "label")
		s.FileIDs = append(s.FileIDs, "file")
		s.Texts = append(s.Texts, string(rune('a'+i)))
	}
	return s
}

func TestNewCorpus(t *testing.T) {
	t.Run("valid snapshot", func(t *testing.T) {
		c, err := NewCorpus(snapshotOf([]float32{1, 2}, []float32{3, 4}))
		require.NoError(t, err)
		assert.Equal(t, 2, c.Index.Len())
	})

	t.Run("empty snapshot", func(t *testing.T) {
		_, err := NewCorpus(&core.Snapshot{})
		assert.ErrorIs(t, err, core.ErrInvalidIndexInput)
	})

	t.Run("misaligned snapshot", func(t *testing.T) {
		s := snapshotOf([]float32{1})
		s.Texts = nil
		_, err := NewCorpus(s)
		assert.ErrorIs(t, err, core.ErrInvalidSnapshot)
	})
}

func TestHolder_Swap(t *testing.T) {
	h := NewHolder()
	assert.Nil(t, h.Load())

	first, err := NewCorpus(snapshotOf([]float32{1}))
	require.NoError(t, err)
	assert.Nil(t, h.Swap(first))
	assert.Same(t, first, h.Load())

	// A failed build leaves the live corpus untouched.
	_, err = NewCorpus(&core.Snapshot{})
	require.Error(t, err)
	assert.Same(t, first, h.Load())

	second, err := NewCorpus(snapshotOf([]float32{2}, []float32{3}))
	require.NoError(t, err)
	assert.Same(t, first, h.Swap(second))
	assert.Same(t, second, h.Load())
}
