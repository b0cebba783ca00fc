package index

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/poiesic/docsearch/core"
)

// Neighbor is one search hit.
type Neighbor struct {
	Distance float32 // squared Euclidean distance to the query
	Position int     // insertion position of the vector
}

// Index is a flat, exact L2 index. Immutable after Build.
type Index struct {
	dim  int
	n    int
	data []float32 // row-major n x dim
}

// Build copies vectors into a new Index.
//
// Build rejects an empty sequence, zero-length vectors, vectors of differing
// dimensionality and non-finite components with core.ErrInvalidIndexInput.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors", core.ErrInvalidIndexInput)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector at 0", core.ErrInvalidIndexInput)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: %w: vector %d has %d dimensions, want %d",
				core.ErrInvalidIndexInput, core.ErrDimensionMismatch, i, len(v), dim)
		}
		if err := core.ValidateVector(v); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		data = append(data, v...)
	}

	return &Index{dim: dim, n: len(vectors), data: data}, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return idx.n
}

// Dimension returns the dimensionality of the indexed vectors.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Vector returns a copy of the vector at position i.
func (idx *Index) Vector(i int) []float32 {
	return slices.Clone(idx.row(i))
}

func (idx *Index) row(i int) []float32 {
	return idx.data[i*idx.dim : (i+1)*idx.dim]
}

// Search returns the k nearest vectors to query. If k exceeds Len, every
// vector is returned. A non-positive k returns no results.
func (idx *Index) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			core.ErrDimensionMismatch, len(query), idx.dim)
	}
	if k <= 0 {
		return []Neighbor{}, nil
	}
	k = min(k, idx.n)

	all := make([]Neighbor, idx.n)
	for i := range idx.n {
		all[i] = Neighbor{Distance: SquaredL2(query, idx.row(i)), Position: i}
	}

	slices.SortFunc(all, compareNeighbors)
	return all[:k:k], nil
}

func compareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Position, b.Position)
}
