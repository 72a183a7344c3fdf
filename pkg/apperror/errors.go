// Package apperror gives every vrpcore package one error shape: a code,
// a message, an optional field, and a details bag. Callers that expose
// this core behind gRPC can round-trip through ToGRPC/FromGRPC without
// every package learning about codes.Code directly.
package apperror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorCode string

const (
	// Caller-supplied instance description is malformed.
	CodeLengthMismatch       ErrorCode = "LENGTH_MISMATCH"
	CodeMixedIndexMode       ErrorCode = "MIXED_INDEX_MODE"
	CodeMixedSkillMode       ErrorCode = "MIXED_SKILL_MODE"
	CodeDuplicateID          ErrorCode = "DUPLICATE_ID"
	CodeMalformedShipment    ErrorCode = "MALFORMED_SHIPMENT"
	CodeMissingCoordinates   ErrorCode = "MISSING_COORDINATES"
	CodeMatrixTooSmall       ErrorCode = "MATRIX_TOO_SMALL"
	CodeCustomMatrixImplicit ErrorCode = "CUSTOM_MATRIX_IMPLICIT_INDEX"
	CodeMissingServerConfig  ErrorCode = "MISSING_SERVER_CONFIG"
	CodeUnsupportedRouter    ErrorCode = "UNSUPPORTED_ROUTER"
	CodeUnknownStepID        ErrorCode = "UNKNOWN_STEP_ID"
	CodeDuplicateStepID      ErrorCode = "DUPLICATE_STEP_ID"
	CodeValidatorUnavailable ErrorCode = "VALIDATOR_UNAVAILABLE"
	CodeInvalidArgument      ErrorCode = "INVALID_ARGUMENT"
	CodeNilInput             ErrorCode = "NIL_INPUT"

	// The external routing backend misbehaved.
	CodeBackendRequestFailed ErrorCode = "BACKEND_REQUEST_FAILED"
	CodeMalformedMatrix      ErrorCode = "MALFORMED_MATRIX_RESPONSE"
	CodeUnavailableProfile   ErrorCode = "UNAVAILABLE_PROFILE"
	CodeBackendNotCompiled   ErrorCode = "BACKEND_NOT_COMPILED"

	// An invariant the core itself guarantees was broken.
	CodeCostOverflow ErrorCode = "COST_OVERFLOW"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeTimeout      ErrorCode = "TIMEOUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error carries a stable code plus enough context (field, details, an
// optional cause) for a caller to act on the failure programmatically
// instead of parsing a message string.
type Error struct {
	Code     ErrorCode
	Message  string
	Field    string
	Details  map[string]any
	Cause    error
	Severity Severity
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
}

func (e *Error) Unwrap() error { return e.Cause }

// GRPCStatus lets *Error satisfy the interface status.FromError looks
// for, so a caller can return an *Error straight from a gRPC handler.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Message)
}

func (e *Error) grpcCode() codes.Code {
	switch e.Code {
	case CodeLengthMismatch, CodeMixedIndexMode, CodeMixedSkillMode, CodeDuplicateID,
		CodeMalformedShipment, CodeMissingCoordinates, CodeMatrixTooSmall,
		CodeCustomMatrixImplicit, CodeMissingServerConfig, CodeUnsupportedRouter,
		CodeUnknownStepID, CodeDuplicateStepID, CodeValidatorUnavailable,
		CodeInvalidArgument, CodeNilInput:
		return codes.InvalidArgument
	case CodeBackendRequestFailed, CodeMalformedMatrix, CodeUnavailableProfile,
		CodeBackendNotCompiled:
		return codes.Unavailable
	case CodeNotFound:
		return codes.NotFound
	case CodeTimeout:
		return codes.DeadlineExceeded
	case CodeCostOverflow:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Details: map[string]any{}, Severity: SeverityError}
}

func NewWithField(code ErrorCode, message, field string) *Error {
	e := New(code, message)
	e.Field = field
	return e
}

func NewWarning(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityWarning
	return e
}

func NewCritical(code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Severity = SeverityCritical
	return e
}

// Wrap attaches code/message context to an underlying cause, keeping it
// reachable through errors.Unwrap.
func Wrap(cause error, code ErrorCode, message string) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is reports whether err unwraps to an *Error carrying code.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// Code extracts err's ErrorCode, or CodeInternal if err isn't an *Error.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsWarning(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Severity == SeverityWarning
}

func IsCritical(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Severity == SeverityCritical
}

// ToGRPC turns any error into a gRPC status error: an *Error maps through
// GRPCStatus, an existing gRPC status error passes through unchanged, and
// anything else becomes a bare Internal.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// FromGRPC is ToGRPC's inverse for a caller receiving errors over the
// wire: it maps the gRPC status code back onto the closest ErrorCode.
func FromGRPC(err error) *Error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return New(CodeInternal, err.Error())
	}

	var code ErrorCode
	switch st.Code() {
	case codes.InvalidArgument:
		code = CodeInvalidArgument
	case codes.NotFound:
		code = CodeNotFound
	case codes.DeadlineExceeded:
		code = CodeTimeout
	case codes.Unavailable:
		code = CodeBackendRequestFailed
	case codes.ResourceExhausted:
		code = CodeCostOverflow
	default:
		code = CodeInternal
	}
	return New(code, st.Message())
}

var (
	ErrNilInstance          = New(CodeNilInput, "instance is nil")
	ErrMissingLocationIndex = New(CodeMixedIndexMode, "Missing location index.")
	ErrMissingSkills        = New(CodeMixedSkillMode, "Missing skills.")
	ErrTimeout              = New(CodeTimeout, "operation timed out")
)

// ValidationErrors accumulates errors and warnings from a batch of
// independent checks instead of stopping at the first failure, for
// callers that want to report every problem with an instance at once
// rather than round-tripping one fix at a time.
type ValidationErrors struct {
	Errors   []*Error
	Warnings []*Error
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: []*Error{}, Warnings: []*Error{}}
}

func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
		return
	}
	v.Errors = append(v.Errors, err)
}

func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

func (v *ValidationErrors) HasErrors() bool   { return len(v.Errors) > 0 }
func (v *ValidationErrors) HasWarnings() bool { return len(v.Warnings) > 0 }
func (v *ValidationErrors) IsValid() bool     { return !v.HasErrors() }

func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

func (v *ValidationErrors) ErrorMessages() []string {
	out := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		out[i] = err.Error()
	}
	return out
}

func (v *ValidationErrors) WarningMessages() []string {
	out := make([]string, len(v.Warnings))
	for i, warn := range v.Warnings {
		out[i] = warn.Message
	}
	return out
}
