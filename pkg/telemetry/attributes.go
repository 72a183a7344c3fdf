package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys
const (
	// Matrix build
	AttrMatrixProfile    = "matrix.profile"
	AttrMatrixDimension  = "matrix.dimension"
	AttrMatrixCacheHit   = "matrix.cache_hit"
	AttrMatrixSourceMode = "matrix.source_mode"

	// Instance build
	AttrInstanceLocations = "instance.locations"
	AttrInstanceJobs      = "instance.jobs"
	AttrInstanceVehicles  = "instance.vehicles"
	AttrInstanceShipments = "instance.shipments"

	// Compatibility
	AttrCompatibilityPairs     = "compatibility.pairs"
	AttrCompatibilityForbidden = "compatibility.forbidden"

	// Dispatch
	AttrDispatchTarget = "dispatch.target"
	AttrDispatchMode   = "dispatch.mode"

	// Validation
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// MatrixAttributes returns the attributes describing a matrix build.
func MatrixAttributes(profile string, dimension int, cacheHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMatrixProfile, profile),
		attribute.Int(AttrMatrixDimension, dimension),
		attribute.Bool(AttrMatrixCacheHit, cacheHit),
	}
}

// InstanceAttributes returns the attributes describing a built problem instance.
func InstanceAttributes(locations, jobs, vehicles, shipments int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrInstanceLocations, locations),
		attribute.Int(AttrInstanceJobs, jobs),
		attribute.Int(AttrInstanceVehicles, vehicles),
		attribute.Int(AttrInstanceShipments, shipments),
	}
}

// CompatibilityAttributes returns the attributes describing a compatibility evaluation.
func CompatibilityAttributes(pairs, forbidden int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrCompatibilityPairs, pairs),
		attribute.Int(AttrCompatibilityForbidden, forbidden),
	}
}

// DispatchAttributes returns the attributes describing a dispatch call.
func DispatchAttributes(target, mode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrDispatchTarget, target),
		attribute.String(AttrDispatchMode, mode),
	}
}

// ValidationAttributes returns the attributes describing a validation pass.
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
