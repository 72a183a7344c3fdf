package vrp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

// explicitSingleVehicleInstance uses explicit matrix indices and a
// user-supplied matrix so Solve/Check never need a real routing backend.
func explicitSingleVehicleInstance(t *testing.T) *Instance {
	t.Helper()
	inst := NewInstance(1)
	mustAddJob(t, inst, Job{ID: "j1", Kind: JobSingle, Location: Location{HasIndex: true, Index: 0}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	mustAddJob(t, inst, Job{ID: "j2", Kind: JobSingle, Location: Location{HasIndex: true, Index: 1}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	start := Location{HasIndex: true, Index: 2}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car"})
	inst.SetMatrix("car", matrix.NewMatrix(3))
	return inst
}

type fakeSolver struct {
	calledWith SolveRequest
	result     Solution
	err        error
}

func (f *fakeSolver) Solve(ctx context.Context, req SolveRequest) (Solution, error) {
	f.calledWith = req
	return f.result, f.err
}

type fakeValidator struct {
	calledWith ValidateRequest
	result     Solution
	err        error
}

func (f *fakeValidator) Validate(ctx context.Context, req ValidateRequest) (Solution, error) {
	f.calledWith = req
	return f.result, f.err
}

func emptyVRPConfig() config.VRPConfig {
	return config.VRPConfig{AmountSize: 1, NbThread: 1}
}

func TestDispatcherSolveSelectsCVRPWithoutTimeWindows(t *testing.T) {
	inst := explicitSingleVehicleInstance(t)
	solver := &fakeSolver{result: Solution{Routes: []RouteResult{{VehicleID: "v1"}}, TotalCost: 42}}
	d := NewDispatcher(solver, nil, emptyVRPConfig(), nil)

	sol, err := d.Solve(context.Background(), inst, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42), sol.TotalCost)
	require.False(t, solver.calledWith.HasTW, "expected HasTW false for an instance with no time windows")
	require.Len(t, solver.calledWith.Matrices, 1)
}

func TestDispatcherSolvePropagatesSolverError(t *testing.T) {
	inst := explicitSingleVehicleInstance(t)
	wantErr := apperror.New(apperror.CodeInternal, "solver exploded")
	solver := &fakeSolver{err: wantErr}
	d := NewDispatcher(solver, nil, emptyVRPConfig(), nil)

	_, err := d.Solve(context.Background(), inst, 1, nil)
	require.ErrorIs(t, err, wantErr)
}

func TestDispatcherSolveRejectsGeometryWithoutCoords(t *testing.T) {
	inst := NewInstance(1)
	mustAddJob(t, inst, Job{ID: "j1", Kind: JobSingle, Location: Location{HasIndex: true, Index: 0}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	start := Location{HasIndex: true, Index: 1}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car"})

	cfg := emptyVRPConfig()
	cfg.Geometry = true
	d := NewDispatcher(&fakeSolver{}, nil, cfg, nil)

	_, err := d.Solve(context.Background(), inst, 1, nil)
	require.True(t, apperror.Is(err, apperror.CodeMissingCoordinates))
}

func TestDispatcherCheckFailsWithoutValidator(t *testing.T) {
	inst := twoJobOneVehicleInstance(t)
	d := NewDispatcher(&fakeSolver{}, nil, emptyVRPConfig(), nil)

	_, err := d.Check(context.Background(), inst)
	require.True(t, apperror.Is(err, apperror.CodeValidatorUnavailable))
}

func TestDispatcherCheckResolvesSteps(t *testing.T) {
	inst := NewInstance(1)
	mustAddJob(t, inst, Job{ID: "j1", Kind: JobSingle, Location: Location{HasIndex: true, Index: 0}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	mustAddJob(t, inst, Job{ID: "j2", Kind: JobSingle, Location: Location{HasIndex: true, Index: 1}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	start := Location{HasIndex: true, Index: 2}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car",
		Steps: []Step{{ID: "j1", Kind: StepJob}, {ID: "j2", Kind: StepJob}}})
	inst.SetMatrix("car", matrix.NewMatrix(3))

	validator := &fakeValidator{result: Solution{Routes: []RouteResult{{VehicleID: "v1"}}}}
	d := NewDispatcher(&fakeSolver{}, validator, emptyVRPConfig(), nil)

	_, err := d.Check(context.Background(), inst)
	require.NoError(t, err)

	resolved := validator.calledWith.Resolved["v1"]
	require.Len(t, resolved, 2)
	require.Equal(t, 0, resolved[0].Rank)
	require.Equal(t, 1, resolved[1].Rank)
}

func TestDispatcherCheckUnknownStepIDRejected(t *testing.T) {
	inst := NewInstance(1)
	start := Location{HasIndex: true, Index: 0}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car",
		Steps: []Step{{ID: "ghost", Kind: StepJob}}})
	inst.SetMatrix("car", matrix.NewMatrix(1))

	d := NewDispatcher(&fakeSolver{}, &fakeValidator{}, emptyVRPConfig(), nil)
	_, err := d.Check(context.Background(), inst)
	require.True(t, apperror.Is(err, apperror.CodeUnknownStepID))
}

func TestResolveStepsRejectsDuplicateStepID(t *testing.T) {
	inst := NewInstance(1)
	mustAddJob(t, inst, Job{ID: "j1", Kind: JobSingle, Location: Location{HasCoords: true}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	start := Location{HasCoords: true}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car",
		Steps: []Step{{ID: "j1", Kind: StepJob}, {ID: "j1", Kind: StepJob}}})

	_, err := ResolveSteps(inst)
	require.True(t, apperror.Is(err, apperror.CodeDuplicateStepID))
}

func TestVariantNameSelection(t *testing.T) {
	require.Equal(t, "CVRP", variantName(false))
	require.Equal(t, "VRPTW", variantName(true))
}

func TestResolveStepsHandlesBreaks(t *testing.T) {
	inst := NewInstance(1)
	mustAddJob(t, inst, Job{ID: "j1", Kind: JobSingle, Location: Location{HasCoords: true}, PickupAmount: []int64{0}, DeliveryAmount: []int64{0}})
	start := Location{HasCoords: true}
	mustAddVehicle(t, inst, Vehicle{ID: "v1", Start: &start, Capacity: []int64{10}, Profile: "car",
		Steps: []Step{{ID: "break1", Kind: StepBreak}, {ID: "j1", Kind: StepJob}}})

	resolved, err := ResolveSteps(inst)
	require.NoError(t, err)
	steps := resolved["v1"]
	require.Equal(t, -1, steps[0].Rank)
	require.Equal(t, 0, steps[1].Rank)
}
