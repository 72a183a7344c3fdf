// Package vrp implements the input-assembly and problem-preparation core of
// a vehicle routing solver: location deduplication, cost-matrix materialization,
// instance construction, vehicle/job compatibility derivation, and dispatch to
// a solver or plan-validation collaborator.
package vrp

import "sync"

// Location is an opaque identity carrying an optional coordinate pair and an
// optional caller-supplied matrix index. Two locations are the same identity
// when either their explicit indices match or their coordinates match;
// equality is used for deduplication by the registry.
type Location struct {
	HasCoords bool
	Lon, Lat  float64
	HasIndex  bool
	Index     int
}

type coordKey struct {
	lon, lat float64
}

func (l Location) coordKey() coordKey {
	return coordKey{lon: l.Lon, lat: l.Lat}
}

// Registry interns locations and assigns or reconciles their matrix indices.
// Two regimes coexist, fixed for the registry's lifetime: implicit (indices
// are assigned densely in insertion order) and explicit (the caller's index
// is authoritative identity and is never overwritten).
type Registry struct {
	mu       sync.RWMutex
	explicit bool

	// locations and resolved are parallel: resolved[i] is the matrix index
	// of locations[i]. In implicit mode resolved[i] == i; in explicit mode
	// resolved[i] is whatever index the caller supplied.
	locations []Location
	resolved  []int

	byCoord map[coordKey]int // coordKey -> position in locations
	byIndex map[int]int      // explicit index -> position in locations

	maxIndex    int
	maxIndexSet bool
}

// NewRegistry creates a location registry fixed to one indexing regime.
func NewRegistry(explicit bool) *Registry {
	return &Registry{
		explicit: explicit,
		byCoord:  make(map[coordKey]int),
		byIndex:  make(map[int]int),
	}
}

// Intern records loc if it has not been seen before and returns its matrix
// index. In implicit mode the index is assigned by insertion order; a
// location with identical coordinates to one already seen reuses the
// existing index. In explicit mode loc.Index is authoritative and is never
// reassigned; the caller is responsible for having validated loc.HasIndex.
func (r *Registry) Intern(loc Location) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.explicit {
		if pos, ok := r.byIndex[loc.Index]; ok {
			return r.resolved[pos]
		}
		pos := len(r.locations)
		r.locations = append(r.locations, loc)
		r.resolved = append(r.resolved, loc.Index)
		r.byIndex[loc.Index] = pos
		r.recordMax(loc.Index)
		return loc.Index
	}

	key := loc.coordKey()
	if pos, ok := r.byCoord[key]; ok {
		return r.resolved[pos]
	}
	pos := len(r.locations)
	r.locations = append(r.locations, loc)
	r.resolved = append(r.resolved, pos)
	r.byCoord[key] = pos
	r.recordMax(pos)
	return pos
}

func (r *Registry) recordMax(index int) {
	if !r.maxIndexSet || index > r.maxIndex {
		r.maxIndex = index
		r.maxIndexSet = true
	}
}

// Locations returns the interned locations in insertion (dense position)
// order, the order C3 must query the routing backend in.
func (r *Registry) Locations() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// ResolvedIndices returns, parallel to Locations, each location's matrix
// index — the remap table C3 needs to translate the backend's
// dense-by-position matrix into one indexed by user-supplied indices.
func (r *Registry) ResolvedIndices() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int, len(r.resolved))
	copy(out, r.resolved)
	return out
}

// MaxIndex returns the highest matrix index assigned so far, or -1 if the
// registry is empty.
func (r *Registry) MaxIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.maxIndexSet {
		return -1
	}
	return r.maxIndex
}

// Len returns the number of distinct locations interned so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locations)
}

// Explicit reports whether the registry is operating in the explicit-index
// regime.
func (r *Registry) Explicit() bool {
	return r.explicit
}
