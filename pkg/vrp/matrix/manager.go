package matrix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/cache"
	"vrpcore/pkg/logger"
)

// Source fetches a cost matrix for an ordered set of points from a routing
// backend. Concrete adapters (OSRM, ORS, Valhalla, in-process OSRM) live in
// pkg/vrp/routing and satisfy this interface structurally.
type Source interface {
	GetMatrix(ctx context.Context, points []Point) (Matrix, error)
}

// BuildRequest is the full input the matrix manager needs to materialize
// one cost matrix per profile: which profiles are in play, any
// user-supplied matrices, the known location set in dense insertion order,
// the index regime, and an adapter factory for profiles that must be
// fetched from the routing backend.
type BuildRequest struct {
	Profiles        []string
	NbThread        int
	UserMatrices    map[string]Matrix
	Points          []Point
	ResolvedIndices []int
	Explicit        bool
	MaxIndex        int

	// Used is the global set of matrix indices referenced by any job or
	// vehicle, shared across every profile's overflow bound.
	Used []int
	// VehicleStarts and VehicleEnds are keyed by profile: each vehicle
	// contributes its start/end index only to the profile it runs on.
	VehicleStarts map[string][]int
	VehicleEnds   map[string][]int
	// JobIndices is global: any vehicle on any profile may visit any job.
	JobIndices []int

	NewAdapter func(profile string) (Source, error)

	Cache    *cache.MatrixCache
	CacheTTL time.Duration
}

// BuildResult holds the materialized matrices plus per-profile diagnostics.
type BuildResult struct {
	Matrices        map[string]Matrix
	CostUpperBounds map[string]uint64
	FetchDurations  map[string]time.Duration
	CacheHits       map[string]bool
}

// Build materializes one cost matrix per profile: profiles with a
// user-supplied matrix are validated and passed through; the rest are
// fetched concurrently, K = min(nb_thread, |profiles needing fetch|)
// workers each owning a round-robin bucket of profiles, with first-error
// semantics — the first failure seen across all workers is the one
// returned; a worker stops at its own failure or, before its next profile,
// once any failure has been captured, and all workers are joined before
// Build returns.
func Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if len(req.UserMatrices) > 0 && !req.Explicit {
		return nil, apperror.New(apperror.CodeCustomMatrixImplicit,
			"a user-supplied matrix was registered but the instance is using implicit location indices")
	}

	dimension := req.MaxIndex + 1

	result := &BuildResult{
		Matrices:        make(map[string]Matrix, len(req.Profiles)),
		CostUpperBounds: make(map[string]uint64, len(req.Profiles)),
		FetchDurations:  make(map[string]time.Duration, len(req.Profiles)),
		CacheHits:       make(map[string]bool, len(req.Profiles)),
	}

	var toFetch []string
	for _, p := range req.Profiles {
		if m, ok := req.UserMatrices[p]; ok {
			if m.Dimension <= req.MaxIndex {
				return nil, apperror.New(apperror.CodeMatrixTooSmall,
					fmt.Sprintf("user-supplied matrix for profile %q is too small", p)).
					WithDetails("profile", p).WithDetails("dimension", m.Dimension).WithDetails("required", dimension)
			}
			result.Matrices[p] = m
			continue
		}
		toFetch = append(toFetch, p)
	}

	if len(toFetch) == 0 {
		return finishBounds(req, result)
	}

	k := req.NbThread
	if k <= 0 || k > len(toFetch) {
		k = len(toFetch)
	}
	buckets := make([][]string, k)
	for i, p := range toFetch {
		buckets[i%k] = append(buckets[i%k], p)
	}

	// results is pre-populated with one placeholder per profile before any
	// worker starts; each worker only ever mutates the Matrix its own
	// profile's pointer refers to, never the map's key set, so no
	// structural mutation of the mapping races with reads on join.
	results := make(map[string]*Matrix, len(toFetch))
	for _, p := range toFetch {
		results[p] = &Matrix{}
	}

	var mu sync.Mutex
	var firstErr error
	capture := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	hasFailed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	var fmu sync.Mutex // guards FetchDurations/CacheHits during concurrent writes

	var g errgroup.Group // no shared context: a failed worker never cancels its siblings
	for _, bucket := range buckets {
		bucket := bucket
		g.Go(func() error {
			for _, profile := range bucket {
				if hasFailed() {
					break
				}

				start := time.Now()
				m, cacheHit, err := fetchOne(ctx, req, profile, dimension)
				elapsed := time.Since(start)

				fmu.Lock()
				result.FetchDurations[profile] = elapsed
				result.CacheHits[profile] = cacheHit
				fmu.Unlock()

				if err != nil {
					capture(err)
					logger.L().Warn("matrix fetch failed", "profile", profile, "error", err)
					break
				}
				*results[profile] = m
			}
			return nil
		})
	}
	_ = g.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	for p, ptr := range results {
		result.Matrices[p] = *ptr
	}

	return finishBounds(req, result)
}

func fetchOne(ctx context.Context, req BuildRequest, profile string, dimension int) (Matrix, bool, error) {
	var locHash string
	if req.Cache != nil {
		locHash = locationSetHash(req.Points, req.ResolvedIndices, req.Explicit)
		cached, found, err := req.Cache.Get(ctx, profile, locHash)
		if err == nil && found {
			m := Matrix{Dimension: cached.Dimension, Rows: cached.Rows}
			if m.Dimension > req.MaxIndex {
				return m, true, nil
			}
		}
	}

	adapter, err := req.NewAdapter(profile)
	if err != nil {
		return Matrix{}, false, err
	}

	dense, err := adapter.GetMatrix(ctx, req.Points)
	if err != nil {
		return Matrix{}, false, err
	}

	final := dense
	if req.Explicit {
		final = Remap(dense, req.ResolvedIndices, dimension)
	}

	if final.Dimension <= req.MaxIndex {
		return Matrix{}, false, apperror.New(apperror.CodeMatrixTooSmall,
			fmt.Sprintf("matrix for profile %q has dimension %d, need > %d", profile, final.Dimension, req.MaxIndex)).
			WithDetails("profile", profile)
	}

	if req.Cache != nil {
		_ = req.Cache.Set(ctx, profile, locHash, final.Rows, req.CacheTTL)
	}

	return final, false, nil
}

func locationSetHash(points []Point, resolvedIndices []int, explicit bool) string {
	keys := make([]cache.LocationKey, len(points))
	for i, p := range points {
		if explicit {
			keys[i] = cache.LocationKey{HasIndex: true, Index: resolvedIndices[i]}
		} else {
			keys[i] = cache.LocationKey{HasCoords: true, Lon: p.Lon, Lat: p.Lat}
		}
	}
	return cache.LocationSetHash(keys)
}

func finishBounds(req BuildRequest, result *BuildResult) (*BuildResult, error) {
	for p, m := range result.Matrices {
		bound, err := CostUpperBound(m, CostBoundInput{
			Used:          req.Used,
			VehicleStarts: req.VehicleStarts[p],
			JobIndices:    req.JobIndices,
			VehicleEnds:   req.VehicleEnds[p],
		})
		if err != nil {
			return nil, err
		}
		result.CostUpperBounds[p] = bound
	}
	return result, nil
}
