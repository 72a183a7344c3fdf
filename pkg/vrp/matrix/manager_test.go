package matrix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vrpcore/pkg/apperror"
)

type fakeSource struct {
	profile string
	rows    [][]uint64
	err     error
}

func (f *fakeSource) GetMatrix(ctx context.Context, points []Point) (Matrix, error) {
	if f.err != nil {
		return Matrix{}, f.err
	}
	return Matrix{Dimension: len(points), Rows: f.rows}, nil
}

func baseRequest(profiles []string, newAdapter func(profile string) (Source, error)) BuildRequest {
	return BuildRequest{
		Profiles:        profiles,
		NbThread:        2,
		Points:          []Point{{0, 0}, {1, 1}, {2, 2}},
		ResolvedIndices: []int{0, 1, 2},
		Explicit:        false,
		MaxIndex:        2,
		Used:            []int{0, 1, 2},
		JobIndices:      []int{1},
		VehicleStarts:   map[string][]int{"car": {0}},
		VehicleEnds:     map[string][]int{"car": {2}},
		NewAdapter:      newAdapter,
	}
}

func TestBuildFetchesAndBoundsSingleProfile(t *testing.T) {
	rows := [][]uint64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	}
	req := baseRequest([]string{"car"}, func(profile string) (Source, error) {
		return &fakeSource{profile: profile, rows: rows}, nil
	})

	result, err := Build(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, result.Matrices["car"].Dimension)
	_, ok := result.CostUpperBounds["car"]
	require.True(t, ok, "expected a cost upper bound for profile car")
}

func TestBuildPassesThroughUserMatrix(t *testing.T) {
	req := baseRequest([]string{"car"}, func(profile string) (Source, error) {
		t.Fatal("adapter should not be constructed when a user matrix is supplied")
		return nil, nil
	})
	req.UserMatrices = map[string]Matrix{"car": NewMatrix(5)}
	req.Explicit = true

	result, err := Build(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 5, result.Matrices["car"].Dimension)
}

func TestBuildRejectsUserMatrixWithoutExplicitIndices(t *testing.T) {
	req := baseRequest([]string{"car"}, nil)
	req.UserMatrices = map[string]Matrix{"car": NewMatrix(5)}
	req.Explicit = false

	_, err := Build(context.Background(), req)
	require.True(t, apperror.Is(err, apperror.CodeCustomMatrixImplicit))
}

func TestBuildPropagatesFirstFailure(t *testing.T) {
	wantErr := apperror.New(apperror.CodeBackendRequestFailed, "boom")
	req := baseRequest([]string{"car", "bike", "truck"}, func(profile string) (Source, error) {
		if profile == "bike" {
			return &fakeSource{profile: profile, err: wantErr}, nil
		}
		return &fakeSource{profile: profile, rows: [][]uint64{
			{0, 1, 2}, {1, 0, 3}, {2, 3, 0},
		}}, nil
	})
	req.NbThread = 1
	req.VehicleStarts = map[string][]int{"car": {0}, "bike": {0}, "truck": {0}}
	req.VehicleEnds = map[string][]int{"car": {2}, "bike": {2}, "truck": {2}}

	_, err := Build(context.Background(), req)
	require.Error(t, err)
	require.True(t, apperror.Is(err, apperror.CodeBackendRequestFailed))
}

func TestBuildRejectsUndersizedUserMatrix(t *testing.T) {
	req := baseRequest([]string{"car"}, nil)
	req.UserMatrices = map[string]Matrix{"car": NewMatrix(2)}
	req.Explicit = true
	req.MaxIndex = 4

	_, err := Build(context.Background(), req)
	require.True(t, apperror.Is(err, apperror.CodeMatrixTooSmall))
}
