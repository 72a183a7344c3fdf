package cache

import (
	"testing"
)

func TestLocationSetHash(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		hash := LocationSetHash(nil)
		if hash == "" {
			t.Error("LocationSetHash(nil) should still produce a stable hash")
		}
	})

	t.Run("same set produces same hash", func(t *testing.T) {
		locs := []LocationKey{
			{HasCoords: true, Lon: 1.5, Lat: 2.5},
			{HasCoords: true, Lon: 3.5, Lat: 4.5},
		}

		hash1 := LocationSetHash(locs)
		hash2 := LocationSetHash(locs)

		if hash1 != hash2 {
			t.Errorf("same set should produce same hash: %v != %v", hash1, hash2)
		}
	})

	t.Run("different coordinates produce different hashes", func(t *testing.T) {
		locs1 := []LocationKey{{HasCoords: true, Lon: 1.5, Lat: 2.5}}
		locs2 := []LocationKey{{HasCoords: true, Lon: 1.6, Lat: 2.5}}

		if LocationSetHash(locs1) == LocationSetHash(locs2) {
			t.Error("different coordinates should produce different hashes")
		}
	})

	t.Run("order matters", func(t *testing.T) {
		a := LocationKey{HasCoords: true, Lon: 1.0, Lat: 1.0}
		b := LocationKey{HasCoords: true, Lon: 2.0, Lat: 2.0}

		hash1 := LocationSetHash([]LocationKey{a, b})
		hash2 := LocationSetHash([]LocationKey{b, a})

		if hash1 == hash2 {
			t.Error("permuted location order should change the hash: matrix position is significant")
		}
	})

	t.Run("explicit index distinguished from coordinates", func(t *testing.T) {
		byCoords := []LocationKey{{HasCoords: true, Lon: 1.0, Lat: 1.0}}
		byIndex := []LocationKey{{HasIndex: true, Index: 0}}

		if LocationSetHash(byCoords) == LocationSetHash(byIndex) {
			t.Error("coordinate-keyed and index-keyed locations should hash differently")
		}
	})
}

func TestBuildMatrixKey(t *testing.T) {
	key := BuildMatrixKey("car", "abc123")
	expected := "matrix:car:abc123"
	if key != expected {
		t.Errorf("BuildMatrixKey() = %v, want %v", key, expected)
	}
}

func TestQuickHash(t *testing.T) {
	data := []byte("test data")
	hash := QuickHash(data)

	if len(hash) != 64 { // SHA256 hex = 64 chars
		t.Errorf("QuickHash length = %d, want 64", len(hash))
	}

	// Same data should produce same hash
	hash2 := QuickHash(data)
	if hash != hash2 {
		t.Error("same data should produce same hash")
	}
}

func TestShortHash(t *testing.T) {
	data := []byte("test data")
	hash := ShortHash(data)

	if len(hash) != 16 {
		t.Errorf("ShortHash length = %d, want 16", len(hash))
	}
}
