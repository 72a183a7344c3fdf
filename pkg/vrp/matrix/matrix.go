// Package matrix materializes per-profile cost matrices: it holds
// user-supplied matrices, fetches missing ones from a routing backend in
// parallel, remaps dense backend output onto explicit caller indices when
// needed, and bounds the worst-case route cost the solver will accumulate.
//
// This package has no dependency on the instance-building types in the
// parent vrp package; callers translate instance state into the plain Point
// and index slices the functions here take, which keeps the dependency
// graph a one-way vrp -> matrix -> (apperror, cache, logger) chain.
package matrix

import "fmt"

// Point is the minimal shape the routing backend needs to compute a cost
// matrix entry: a coordinate pair.
type Point struct {
	Lon, Lat float64
}

// Matrix is a square table of unsigned costs (seconds or meters, opaque),
// indexed by matrix index. Only the subset of indices actually referenced
// by jobs/vehicles is ever read; a sparsely populated Matrix is valid as
// long as those entries are present.
type Matrix struct {
	Dimension int
	Rows      [][]uint64
}

// NewMatrix allocates a dimension x dimension matrix with all entries zero.
func NewMatrix(dimension int) Matrix {
	rows := make([][]uint64, dimension)
	for i := range rows {
		rows[i] = make([]uint64, dimension)
	}
	return Matrix{Dimension: dimension, Rows: rows}
}

// Get returns the cost from i to j.
func (m Matrix) Get(i, j int) uint64 {
	return m.Rows[i][j]
}

// Set stores the cost from i to j.
func (m Matrix) Set(i, j int, cost uint64) {
	m.Rows[i][j] = cost
}

func (m Matrix) String() string {
	return fmt.Sprintf("Matrix(dimension=%d)", m.Dimension)
}

// Remap translates a dense, backend-returned matrix (indexed 0..n-1 by
// position in the locations slice that produced it) into one indexed by
// user-supplied explicit indices. dimension is max_matrices_used_index + 1;
// entries not touched by the remap are left at their zero value (they are
// unreachable — no job or vehicle references them).
func Remap(dense Matrix, resolvedIndices []int, dimension int) Matrix {
	out := NewMatrix(dimension)
	for i, ui := range resolvedIndices {
		for j, uj := range resolvedIndices {
			out.Rows[ui][uj] = dense.Rows[i][j]
		}
	}
	return out
}
