package vrp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/cache"
	"vrpcore/pkg/config"
	"vrpcore/pkg/logger"
	"vrpcore/pkg/metrics"
	"vrpcore/pkg/telemetry"
	"vrpcore/pkg/vrp/matrix"
	"vrpcore/pkg/vrp/routing"
)

// RouteResult is one vehicle's portion of a Solution: its ordered steps,
// the costs accumulated serving them, and (when geometry was requested)
// the enriched distance and polyline.
type RouteResult struct {
	VehicleID       string
	Steps           []Step
	Cost            uint64
	Service         int64
	Duration        int64
	Waiting         int64
	Priority        int
	DeliveredAmount []int64
	PickedUpAmount  []int64
	Profile         string
	Description     string
	Violations      []string
	Distance        float64
	Geometry        string
}

// Solution is what a Solver or PlanValidator hands back: one RouteResult
// per vehicle plus aggregated totals and the three timing fields the
// dispatcher is responsible for filling in.
type Solution struct {
	Routes []RouteResult

	TotalCost     uint64
	TotalDistance float64
	TotalService  int64
	TotalDuration int64
	TotalWaiting  int64

	LoadingTime time.Duration
	SolvingTime time.Duration
	RoutingTime time.Duration
}

// SolveRequest is the read-only view of a prepared instance the Solver
// collaborator consumes. It never exposes ingestion methods — solving
// happens strictly after the instance is fully built.
type SolveRequest struct {
	Jobs     []Job
	Vehicles []Vehicle

	HasTW                bool
	HasJobs              bool
	HasShipments         bool
	HasSkills            bool
	HomogeneousLocations bool
	HomogeneousProfiles  bool

	Matrices        map[string]matrix.Matrix
	CostUpperBounds map[string]uint64
	Compat          CompatibilityTables

	ExplorationLevel int
	NbThread         int
	HeuristicParams  map[string]any
}

// Solver is the collaborator that searches for routes given a fully
// prepared instance. It is modeled as a plain interface rather than a
// network client: this core is agnostic to how (or whether) the solver is
// reached over a wire.
type Solver interface {
	Solve(ctx context.Context, req SolveRequest) (Solution, error)
}

// ValidateRequest is the read-only view the PlanValidator collaborator
// consumes: a prepared instance plus each vehicle's pre-planned steps,
// already resolved to ranks in the job sequence.
type ValidateRequest struct {
	Jobs       []Job
	Vehicles   []Vehicle
	Matrices   map[string]matrix.Matrix
	Resolved   map[string][]ResolvedStep
}

// PlanValidator is the collaborator that computes ETAs and violations for
// an already-fixed plan, as opposed to searching for one.
type PlanValidator interface {
	Validate(ctx context.Context, req ValidateRequest) (Solution, error)
}

// matrixBuildOutcome bundles buildMatrices' two return values so the matrix
// build can run as a single telemetry-wrapped stage.
type matrixBuildOutcome struct {
	Matrices map[string]matrix.Matrix
	Bounds   map[string]uint64
}

// ResolvedStep is a vehicle's pre-planned step translated from a caller id
// into its rank within the job sequence. Breaks carry no job and resolve to
// Rank -1.
type ResolvedStep struct {
	ID   string
	Kind StepKind
	Rank int
}

// Dispatcher owns the collaborators and backend configuration needed to
// run Solve and Check against a prepared instance: the routing backend
// selection, the matrix cache, and the solver/validator themselves.
type Dispatcher struct {
	Solver    Solver
	Validator PlanValidator

	Router   config.Router
	Servers  map[string]config.ServerConfig
	Geometry bool
	NbThread int

	Cache    *cache.MatrixCache
	CacheTTL time.Duration

	Metrics *metrics.Metrics
}

// NewDispatcher builds a Dispatcher from an instance's configuration.
// Validator may be nil; Check then fails with CodeValidatorUnavailable.
func NewDispatcher(solver Solver, validator PlanValidator, cfg config.VRPConfig, matrixCache *cache.MatrixCache) *Dispatcher {
	return &Dispatcher{
		Solver:    solver,
		Validator: validator,
		Router:    cfg.Router,
		Servers:   cfg.Servers,
		Geometry:  cfg.Geometry,
		NbThread:  cfg.NbThread,
		Cache:     matrixCache,
		Metrics:   metrics.Get(),
	}
}

// Solve runs the full pipeline: geometry precheck, matrix build, compatibility
// build, CVRP/VRPTW selection, hand-off to the solver, and (if geometry was
// requested) route enrichment. It returns the solver's Solution with the
// three timing fields populated.
func (d *Dispatcher) Solve(ctx context.Context, inst *Instance, explorationLevel int, heuristicParams map[string]any) (*Solution, error) {
	requestID := uuid.NewString()
	log := logger.L().With("request_id", requestID, "op", "solve")
	start := time.Now()

	if d.Geometry && !inst.AllLocationsHaveCoords() {
		return nil, apperror.New(apperror.CodeMissingCoordinates,
			"geometry was requested but at least one location has no coordinates")
	}

	loadStart := time.Now()
	built, err := telemetry.StageValue(ctx, "vrp.matrix_build", telemetry.InstanceAttributes(
		inst.Registry().Len(), len(inst.Jobs()), len(inst.Vehicles()), boolToInt(inst.HasShipments())),
		func(ctx context.Context) (matrixBuildOutcome, error) {
			matrices, bounds, err := d.buildMatrices(ctx, inst)
			return matrixBuildOutcome{Matrices: matrices, Bounds: bounds}, err
		})
	if err != nil {
		log.Error("matrix build failed", "error", err)
		d.recordDispatch("solve", false, time.Since(start))
		return nil, err
	}
	matrices, bounds := built.Matrices, built.Bounds

	var compatTables CompatibilityTables
	_ = telemetry.Stage(ctx, "vrp.compat_build", telemetry.CompatibilityAttributes(0, 0), func(ctx context.Context) error {
		compatTables = BuildCompatibility(inst)
		return nil
	})
	if d.Metrics != nil {
		d.Metrics.RecordCompatibility("built", countTrue(compatTables.VJ))
	}
	loadingTime := time.Since(loadStart)

	req := SolveRequest{
		Jobs:                 inst.Jobs(),
		Vehicles:             inst.Vehicles(),
		HasTW:                inst.HasTW(),
		HasJobs:              inst.HasJobs(),
		HasShipments:         inst.HasShipments(),
		HasSkills:            inst.HasSkills(),
		HomogeneousLocations: inst.HomogeneousLocations(),
		HomogeneousProfiles:  inst.HomogeneousProfiles(),
		Matrices:             matrices,
		CostUpperBounds:      bounds,
		Compat:               compatTables,
		ExplorationLevel:     explorationLevel,
		NbThread:             d.NbThread,
		HeuristicParams:      heuristicParams,
	}

	solveStart := time.Now()
	sol, err := telemetry.StageValue(ctx, "vrp.solve", telemetry.DispatchAttributes("solver", variantName(inst.HasTW())),
		func(ctx context.Context) (Solution, error) {
			return d.Solver.Solve(ctx, req)
		})
	solvingTime := time.Since(solveStart)
	if err != nil {
		log.Error("solver failed", "error", err)
		d.recordDispatch("solve", false, time.Since(start))
		return nil, err
	}

	routingStart := time.Now()
	if d.Geometry {
		if err := d.enrichGeometry(ctx, inst, &sol); err != nil {
			log.Error("geometry enrichment failed", "error", err)
			d.recordDispatch("solve", false, time.Since(start))
			return nil, err
		}
	}
	sol.LoadingTime = loadingTime
	sol.SolvingTime = solvingTime
	sol.RoutingTime = time.Since(routingStart)

	d.recordDispatch("solve", true, time.Since(start))
	log.Info("solve completed", "routes", len(sol.Routes), "loading_ms", sol.LoadingTime.Milliseconds(),
		"solving_ms", sol.SolvingTime.Milliseconds(), "routing_ms", sol.RoutingTime.Milliseconds())
	return &sol, nil
}

// Check runs Solve's geometry precheck and matrix build, then resolves every
// vehicle's pre-planned step list and hands the prepared instance to the
// plan-validation collaborator instead of searching for a new plan. It does
// not build the compatibility tables.
func (d *Dispatcher) Check(ctx context.Context, inst *Instance) (*Solution, error) {
	requestID := uuid.NewString()
	log := logger.L().With("request_id", requestID, "op", "check")
	start := time.Now()

	if d.Validator == nil {
		return nil, apperror.New(apperror.CodeValidatorUnavailable,
			"this build was not configured with a plan-validation collaborator")
	}

	if d.Geometry && !inst.AllLocationsHaveCoords() {
		return nil, apperror.New(apperror.CodeMissingCoordinates,
			"geometry was requested but at least one location has no coordinates")
	}

	loadStart := time.Now()
	matrices, _, err := d.buildMatrices(ctx, inst)
	if err != nil {
		log.Error("matrix build failed", "error", err)
		d.recordDispatch("check", false, time.Since(start))
		return nil, err
	}
	loadingTime := time.Since(loadStart)

	resolved, err := ResolveSteps(inst)
	if err != nil {
		log.Error("step resolution failed", "error", err)
		d.recordDispatch("check", false, time.Since(start))
		return nil, err
	}

	req := ValidateRequest{
		Jobs:     inst.Jobs(),
		Vehicles: inst.Vehicles(),
		Matrices: matrices,
		Resolved: resolved,
	}

	solveStart := time.Now()
	sol, err := telemetry.StageValue(ctx, "vrp.check", telemetry.DispatchAttributes("validator", "check"),
		func(ctx context.Context) (Solution, error) {
			return d.Validator.Validate(ctx, req)
		})
	solvingTime := time.Since(solveStart)
	if err != nil {
		log.Error("validator failed", "error", err)
		d.recordDispatch("check", false, time.Since(start))
		return nil, err
	}

	routingStart := time.Now()
	if d.Geometry {
		if err := d.enrichGeometry(ctx, inst, &sol); err != nil {
			log.Error("geometry enrichment failed", "error", err)
			d.recordDispatch("check", false, time.Since(start))
			return nil, err
		}
	}
	sol.LoadingTime = loadingTime
	sol.SolvingTime = solvingTime
	sol.RoutingTime = time.Since(routingStart)

	d.recordDispatch("check", true, time.Since(start))
	return &sol, nil
}

// ResolveSteps maps every vehicle's pre-planned step ids onto their rank in
// the job sequence, refusing unknown ids and ids repeated within a single
// vehicle's step list.
func ResolveSteps(inst *Instance) (map[string][]ResolvedStep, error) {
	jobs := inst.Jobs()
	idToRank := make(map[string]int, len(jobs))
	for i, j := range jobs {
		idToRank[j.ID] = i
	}

	out := make(map[string][]ResolvedStep, len(inst.vehicles))
	for _, v := range inst.Vehicles() {
		seen := make(map[string]struct{}, len(v.Steps))
		resolved := make([]ResolvedStep, 0, len(v.Steps))
		for _, step := range v.Steps {
			if step.Kind == StepBreak {
				resolved = append(resolved, ResolvedStep{ID: step.ID, Kind: step.Kind, Rank: -1})
				continue
			}
			if _, dup := seen[step.ID]; dup {
				return nil, apperror.New(apperror.CodeDuplicateStepID, "duplicate step id in vehicle plan").
					WithDetails("vehicle", v.ID).WithDetails("step_id", step.ID)
			}
			seen[step.ID] = struct{}{}

			rank, ok := idToRank[step.ID]
			if !ok {
				return nil, apperror.New(apperror.CodeUnknownStepID, "step id does not match any ingested job").
					WithDetails("vehicle", v.ID).WithDetails("step_id", step.ID)
			}
			resolved = append(resolved, ResolvedStep{ID: step.ID, Kind: step.Kind, Rank: rank})
		}
		out[v.ID] = resolved
	}
	return out, nil
}

func (d *Dispatcher) buildMatrices(ctx context.Context, inst *Instance) (map[string]matrix.Matrix, map[string]uint64, error) {
	registry := inst.Registry()
	var points []matrix.Point
	var resolvedIndices []int
	if registry != nil {
		for _, loc := range registry.Locations() {
			points = append(points, matrix.Point{Lon: loc.Lon, Lat: loc.Lat})
		}
		resolvedIndices = registry.ResolvedIndices()
	}

	used, jobIndices, starts, ends := collectIndices(inst)

	req := matrix.BuildRequest{
		Profiles:        inst.Profiles(),
		NbThread:        d.NbThread,
		UserMatrices:    inst.UserMatrices(),
		Points:          points,
		ResolvedIndices: resolvedIndices,
		Explicit:        inst.HasCustomLocationIndex(),
		MaxIndex:        inst.MaxMatricesUsedIndex(),
		Used:            used,
		VehicleStarts:   starts,
		VehicleEnds:     ends,
		JobIndices:      jobIndices,
		NewAdapter: func(profile string) (matrix.Source, error) {
			return routing.New(d.Router, profile, d.Servers)
		},
		Cache:    d.Cache,
		CacheTTL: d.CacheTTL,
	}

	result, err := matrix.Build(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	if d.Metrics != nil {
		for profile, fd := range result.FetchDurations {
			d.Metrics.RecordMatrixFetch(profile, true, fd, result.Matrices[profile].Dimension)
			if result.CacheHits[profile] {
				d.Metrics.RecordMatrixCacheHit(profile)
			} else {
				d.Metrics.RecordMatrixCacheMiss(profile)
			}
		}
	}

	return result.Matrices, result.CostUpperBounds, nil
}

func collectIndices(inst *Instance) (used, jobIndices []int, starts, ends map[string][]int) {
	usedSet := make(map[int]struct{})
	starts = make(map[string][]int)
	ends = make(map[string][]int)

	for _, j := range inst.Jobs() {
		jobIndices = append(jobIndices, j.LocationIndex())
		usedSet[j.LocationIndex()] = struct{}{}
	}
	for _, v := range inst.Vehicles() {
		if idx := v.StartIndex(); idx != nil {
			starts[v.Profile] = append(starts[v.Profile], *idx)
			usedSet[*idx] = struct{}{}
		}
		if idx := v.EndIndex(); idx != nil {
			ends[v.Profile] = append(ends[v.Profile], *idx)
			usedSet[*idx] = struct{}{}
		}
	}
	for idx := range usedSet {
		used = append(used, idx)
	}
	return used, jobIndices, starts, ends
}

func (d *Dispatcher) enrichGeometry(ctx context.Context, inst *Instance, sol *Solution) error {
	byID := make(map[string]Job, len(inst.jobs))
	for _, j := range inst.Jobs() {
		byID[j.ID] = j
	}
	vehicleByID := make(map[string]Vehicle, len(inst.vehicles))
	for _, v := range inst.Vehicles() {
		vehicleByID[v.ID] = v
	}
	byIndex := indexToLocation(inst.Registry())

	for i := range sol.Routes {
		route := &sol.Routes[i]
		vehicle, ok := vehicleByID[route.VehicleID]
		if !ok {
			continue
		}
		points := routePoints(vehicle, route.Steps, byID, byIndex)
		if len(points) < 2 {
			continue
		}
		adapter, err := routing.New(d.Router, route.Profile, d.Servers)
		if err != nil {
			return err
		}
		out, err := adapter.AddRouteInfo(ctx, routing.RouteInput{Points: points})
		if err != nil {
			return err
		}
		route.Distance = out.Distance
		route.Geometry = out.Geometry
		sol.TotalDistance += out.Distance
	}
	return nil
}

func routePoints(vehicle Vehicle, steps []Step, byID map[string]Job, byIndex map[int]Location) []matrix.Point {
	var points []matrix.Point

	pointFor := func(idx int) matrix.Point {
		if loc, ok := byIndex[idx]; ok {
			return matrix.Point{Lon: loc.Lon, Lat: loc.Lat}
		}
		return matrix.Point{}
	}

	if vehicle.Start != nil && vehicle.startIndex != nil {
		points = append(points, pointFor(*vehicle.startIndex))
	}
	for _, step := range steps {
		job, ok := byID[step.ID]
		if !ok {
			continue
		}
		points = append(points, pointFor(job.LocationIndex()))
	}
	if vehicle.End != nil && vehicle.endIndex != nil {
		points = append(points, pointFor(*vehicle.endIndex))
	}
	return points
}

func indexToLocation(registry *Registry) map[int]Location {
	out := make(map[int]Location)
	if registry == nil {
		return out
	}
	locs := registry.Locations()
	indices := registry.ResolvedIndices()
	for i, loc := range locs {
		out[indices[i]] = loc
	}
	return out
}

func (d *Dispatcher) recordDispatch(target string, success bool, elapsed time.Duration) {
	if d.Metrics != nil {
		d.Metrics.RecordDispatch(target, success, elapsed)
	}
}

func variantName(hasTW bool) string {
	if hasTW {
		return "VRPTW"
	}
	return "CVRP"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func countTrue(table [][]bool) int {
	n := 0
	for _, row := range table {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}
