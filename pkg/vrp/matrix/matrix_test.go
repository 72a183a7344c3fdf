package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrixGetSet(t *testing.T) {
	m := NewMatrix(3)
	m.Set(0, 2, 42)
	assert.Equal(t, uint64(42), m.Get(0, 2))
	assert.Equal(t, uint64(0), m.Get(1, 1))
}

func TestRemap(t *testing.T) {
	dense := NewMatrix(3)
	dense.Set(0, 1, 10)
	dense.Set(1, 2, 20)
	dense.Set(2, 0, 30)

	out := Remap(dense, []int{5, 1, 8}, 9)

	assert.Equal(t, uint64(10), out.Get(5, 1))
	assert.Equal(t, uint64(20), out.Get(1, 8))
	assert.Equal(t, uint64(30), out.Get(8, 5))
	assert.Equal(t, uint64(0), out.Get(0, 0), "untouched entry should stay zero")
}

func TestMatrixString(t *testing.T) {
	m := NewMatrix(4)
	assert.Equal(t, "Matrix(dimension=4)", m.String())
}
