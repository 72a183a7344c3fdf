package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stage wraps a pipeline step in its own span, recording its outcome.
// It follows the same start-span/defer-end/record-error-or-ok shape the
// teacher used for its gRPC interceptors, applied here to an in-process
// pipeline stage (precheck, matrix build, compatibility, dispatch) instead
// of an RPC boundary.
func Stage(ctx context.Context, name string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	err := fn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// StageValue is Stage for a pipeline step that also produces a result value.
func StageValue[T any](ctx context.Context, name string, attrs []attribute.KeyValue, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	result, err := fn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}
