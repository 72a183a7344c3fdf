package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LocationKey is the minimal location shape the matrix cache hashes over:
// a coordinate pair, or an explicit matrix index when coordinates are absent.
type LocationKey struct {
	HasCoords bool
	Lon, Lat  float64
	HasIndex  bool
	Index     int
}

// LocationSetHash computes a stable hash of an ordered location list for use
// as a matrix-cache key component. Order matters: the backend's matrix is
// indexed by position, so two permutations of the same set hash differently.
func LocationSetHash(locations []LocationKey) string {
	var buf []byte
	for i, loc := range locations {
		switch {
		case loc.HasCoords:
			buf = append(buf, []byte(fmt.Sprintf("%d:c:%.8f,%.8f;", i, loc.Lon, loc.Lat))...)
		case loc.HasIndex:
			buf = append(buf, []byte(fmt.Sprintf("%d:i:%d;", i, loc.Index))...)
		default:
			buf = append(buf, []byte(fmt.Sprintf("%d:?;", i))...)
		}
	}
	return ShortHash(buf)
}

// BuildMatrixKey builds a cache key for a profile's computed cost matrix.
func BuildMatrixKey(profile, locationSetHash string) string {
	return fmt.Sprintf("matrix:%s:%s", profile, locationSetHash)
}

// QuickHash is a full-length sha256 hash of arbitrary data.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is a truncated (16 hex chars) sha256 hash of arbitrary data,
// short enough to embed directly in a cache key.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
