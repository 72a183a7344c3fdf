package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"vrpcore/pkg/apperror"
)

func TestCheckedAddOverflow(t *testing.T) {
	_, err := CheckedAdd(math.MaxUint64, 1)
	require.True(t, apperror.Is(err, apperror.CodeCostOverflow))
}

func TestCheckedAddNoOverflow(t *testing.T) {
	got, err := CheckedAdd(10, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(30), got)
}

func TestCheckedSum(t *testing.T) {
	got, err := CheckedSum(1, 2, 3, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got)

	_, err = CheckedSum(math.MaxUint64, 1, 1)
	require.Error(t, err)
}

func TestCostUpperBound(t *testing.T) {
	m := NewMatrix(4)
	// start=0, jobs=1,2, end=3
	m.Set(0, 1, 5)
	m.Set(0, 2, 7)
	m.Set(1, 3, 3)
	m.Set(2, 3, 9)
	m.Set(1, 2, 2)
	m.Set(2, 1, 4)

	bound, err := CostUpperBound(m, CostBoundInput{
		Used:          []int{0, 1, 2, 3},
		VehicleStarts: []int{0},
		JobIndices:    []int{1, 2},
		VehicleEnds:   []int{3},
	})
	require.NoError(t, err)
	require.NotZero(t, bound)
}

func TestCostUpperBoundOverflows(t *testing.T) {
	m := NewMatrix(2)
	m.Set(0, 1, math.MaxUint64)
	m.Set(1, 0, math.MaxUint64)

	_, err := CostUpperBound(m, CostBoundInput{
		Used:          []int{0, 1},
		VehicleStarts: []int{0, 0},
		JobIndices:    []int{1},
		VehicleEnds:   []int{1},
	})
	require.Error(t, err)
}
