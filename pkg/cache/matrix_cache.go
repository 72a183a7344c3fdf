package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MatrixCache is a specialized cache for computed per-profile cost matrices,
// keyed by profile name plus a hash of the ordered location list that
// produced the matrix. It lets repeated instance builds against the same
// location set skip the routing backend entirely.
type MatrixCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedMatrix is the JSON-serializable form of a cost matrix stored in the cache.
type CachedMatrix struct {
	Profile    string    `json:"profile"`
	Dimension  int       `json:"dimension"`
	Rows       [][]uint64 `json:"rows"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewMatrixCache creates a cache for computed cost matrices.
func NewMatrixCache(cache Cache, defaultTTL time.Duration) *MatrixCache {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &MatrixCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a cached matrix for the given profile and location-set hash.
func (mc *MatrixCache) Get(ctx context.Context, profile, locationSetHash string) (*CachedMatrix, bool, error) {
	key := BuildMatrixKey(profile, locationSetHash)

	data, err := mc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		// corrupted entry, evict and treat as a miss
		_ = mc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a computed matrix in the cache.
func (mc *MatrixCache) Set(ctx context.Context, profile, locationSetHash string, rows [][]uint64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}

	key := BuildMatrixKey(profile, locationSetHash)
	entry := &CachedMatrix{
		Profile:    profile,
		Dimension:  len(rows),
		Rows:       rows,
		ComputedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return mc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes the cached matrix for one profile and location set.
func (mc *MatrixCache) Invalidate(ctx context.Context, profile, locationSetHash string) error {
	return mc.cache.Delete(ctx, BuildMatrixKey(profile, locationSetHash))
}

// InvalidateProfile removes every cached matrix for a given profile.
func (mc *MatrixCache) InvalidateProfile(ctx context.Context, profile string) (int64, error) {
	return mc.cache.DeleteByPattern(ctx, fmt.Sprintf("matrix:%s:*", profile))
}

// InvalidateAll removes every cached matrix.
func (mc *MatrixCache) InvalidateAll(ctx context.Context) (int64, error) {
	return mc.cache.DeleteByPattern(ctx, "matrix:*")
}
