package errors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

/* ========================================================================
 * Error Taxonomy
 * ========================================================================
 * Scope:
 *   - Typed terminal errors shared by every siteplane service.
 *   - Each error carries a machine-readable code so transport layers can
 *     map it without parsing error text.
 *   - Tenant-scoping violations deliberately map to "not found" on the
 *     wire: a resource owned by another site must be indistinguishable
 *     from a resource that does not exist.
 * ======================================================================== */

// ErrorCode is the machine-readable classification of an error.
type ErrorCode int

const (
	CodeUnknown         ErrorCode = 1000
	CodeValidation      ErrorCode = 1001
	CodeNotFound        ErrorCode = 1002
	CodeDuplicate       ErrorCode = 1003
	CodeUnauthorized    ErrorCode = 1004
	CodeTenantMismatch  ErrorCode = 1005
	CodeInvalidState    ErrorCode = 1006
	CodeUnauthenticated ErrorCode = 1007
	CodeInternal        ErrorCode = 1008
)

// Coded is implemented by every error type in this package.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// ========================================================================
// Typed errors
// ========================================================================

// TenantMismatchError reports a record whose owning tenant differs from the
// tenant the caller is operating as.
type TenantMismatchError struct {
	Expected string
	Actual   string
}

func (e *TenantMismatchError) Error() string {
	return fmt.Sprintf("tenant mismatch: expected %q, got %q", e.Expected, e.Actual)
}

func (e *TenantMismatchError) ErrorCode() ErrorCode { return CodeTenantMismatch }

func (e *TenantMismatchError) Is(target error) bool {
	_, ok := target.(*TenantMismatchError)
	return ok
}

// ResourceNotFoundError reports an absent resource. ID may be nil when the
// lookup was not by identifier.
type ResourceNotFoundError struct {
	Resource string
	ID       any
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *ResourceNotFoundError) ErrorCode() ErrorCode { return CodeNotFound }

func (e *ResourceNotFoundError) Is(target error) bool {
	_, ok := target.(*ResourceNotFoundError)
	return ok
}

// UnauthorizedError reports an action/resource pair the caller may not
// perform. Role-level denial, not tenant scoping.
type UnauthorizedError struct {
	Action   string
	Resource string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s %s", e.Action, e.Resource)
}

func (e *UnauthorizedError) ErrorCode() ErrorCode { return CodeUnauthorized }

func (e *UnauthorizedError) Is(target error) bool {
	_, ok := target.(*UnauthorizedError)
	return ok
}

// ValidationError reports a value that failed a structural check before
// reaching the database. Fields carries optional per-field detail.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

func (e *ValidationError) ErrorCode() ErrorCode { return CodeValidation }

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// AddField appends a per-field validation message.
func (e *ValidationError) AddField(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasFields reports whether any per-field detail was recorded.
func (e *ValidationError) HasFields() bool { return len(e.Fields) > 0 }

// DuplicateError reports a uniqueness-constraint violation.
type DuplicateError struct {
	Resource string
	Field    string
	Value    any
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return e.Resource + " already exists"
	}
	return fmt.Sprintf("%s with %s=%v already exists", e.Resource, e.Field, e.Value)
}

func (e *DuplicateError) ErrorCode() ErrorCode { return CodeDuplicate }

func (e *DuplicateError) Is(target error) bool {
	_, ok := target.(*DuplicateError)
	return ok
}

// InvalidStateError reports an operation attempted against a resource in an
// incompatible lifecycle state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return "invalid state: " + e.Message
}

func (e *InvalidStateError) ErrorCode() ErrorCode { return CodeInvalidState }

func (e *InvalidStateError) Is(target error) bool {
	_, ok := target.(*InvalidStateError)
	return ok
}

// UnauthenticatedError reports a call made without an established identity
// or tenant context.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string {
	if e.Message == "" {
		return "unauthenticated"
	}
	return "unauthenticated: " + e.Message
}

func (e *UnauthenticatedError) ErrorCode() ErrorCode { return CodeUnauthenticated }

func (e *UnauthenticatedError) Is(target error) bool {
	_, ok := target.(*UnauthenticatedError)
	return ok
}

// InternalError wraps an unexpected failure while preserving the cause for
// errors.Is / errors.As.
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *InternalError) ErrorCode() ErrorCode { return CodeInternal }

func (e *InternalError) Unwrap() error { return e.Cause }

func (e *InternalError) Is(target error) bool {
	_, ok := target.(*InternalError)
	return ok
}

// ========================================================================
// Constructors
// ========================================================================

// NewTenantMismatch builds a TenantMismatchError.
func NewTenantMismatch(expected, actual string) *TenantMismatchError {
	return &TenantMismatchError{Expected: expected, Actual: actual}
}

// NewNotFound builds a ResourceNotFoundError. id is optional.
func NewNotFound(resource string, id ...any) *ResourceNotFoundError {
	e := &ResourceNotFoundError{Resource: resource}
	if len(id) > 0 {
		e.ID = id[0]
	}
	return e
}

// NewUnauthorized builds an UnauthorizedError.
func NewUnauthorized(action, resource string) *UnauthorizedError {
	return &UnauthorizedError{Action: action, Resource: resource}
}

// NewValidation builds a ValidationError.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewDuplicate builds a DuplicateError.
func NewDuplicate(resource, field string, value any) *DuplicateError {
	return &DuplicateError{Resource: resource, Field: field, Value: value}
}

// NewInvalidState builds an InvalidStateError.
func NewInvalidState(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// NewUnauthenticated builds an UnauthenticatedError.
func NewUnauthenticated(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}

// Wrap wraps an unexpected error as an InternalError. Returns nil when err
// is nil so it can sit on the tail of delegating calls.
func Wrap(message string, err error) error {
	if err == nil {
		return nil
	}
	return &InternalError{Message: message, Cause: err}
}

// ========================================================================
// Inspection helpers
// ========================================================================

// Code extracts the ErrorCode from err, walking the wrap chain.
func Code(err error) ErrorCode {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return CodeUnknown
}

// Is reports whether err matches target, following the wrap chain.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in the chain matching target.
func As(err error, target any) bool { return errors.As(err, target) }

// IsNotFound reports whether err classifies as not-found.
func IsNotFound(err error) bool { return Code(err) == CodeNotFound }

// IsTenantMismatch reports whether err classifies as a tenant mismatch.
func IsTenantMismatch(err error) bool { return Code(err) == CodeTenantMismatch }

// IsDuplicate reports whether err classifies as a duplicate.
func IsDuplicate(err error) bool { return Code(err) == CodeDuplicate }

// IsValidation reports whether err classifies as a validation failure.
func IsValidation(err error) bool { return Code(err) == CodeValidation }

// ========================================================================
// Transport mapping
// ========================================================================

// httpStatusByCode is the suggested HTTP status per error code. Tenant
// mismatches intentionally map to 404, not 403: answering "forbidden" would
// confirm that the resource exists under another tenant.
var httpStatusByCode = map[ErrorCode]int{
	CodeUnknown:         500,
	CodeValidation:      400,
	CodeNotFound:        404,
	CodeDuplicate:       409,
	CodeUnauthorized:    403,
	CodeTenantMismatch:  404,
	CodeInvalidState:    409,
	CodeUnauthenticated: 401,
	CodeInternal:        500,
}

var grpcCodeByCode = map[ErrorCode]codes.Code{
	CodeUnknown:         codes.Unknown,
	CodeValidation:      codes.InvalidArgument,
	CodeNotFound:        codes.NotFound,
	CodeDuplicate:       codes.AlreadyExists,
	CodeUnauthorized:    codes.PermissionDenied,
	CodeTenantMismatch:  codes.NotFound,
	CodeInvalidState:    codes.FailedPrecondition,
	CodeUnauthenticated: codes.Unauthenticated,
	CodeInternal:        codes.Internal,
}

// HTTPStatus returns the suggested HTTP status for err.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}
	if s, ok := httpStatusByCode[Code(err)]; ok {
		return s
	}
	return 500
}

// ToGRPCError converts err into a gRPC status error.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	code := Code(err)
	grpcCode, ok := grpcCodeByCode[code]
	if !ok {
		grpcCode = codes.Unknown
	}
	if code == CodeInternal || code == CodeUnknown {
		// Do not leak internal detail over the wire.
		return status.Error(grpcCode, "internal error")
	}
	return status.Error(grpcCode, err.Error())
}

// ToHTTPResponse converts err into an HTTP status plus a response body for
// the fiber boundary layer.
func ToHTTPResponse(err error) (int, fiber.Map) {
	if err == nil {
		return 200, fiber.Map{"code": 0, "msg": "success"}
	}

	code := Code(err)
	statusCode := HTTPStatus(err)

	msg := err.Error()
	switch code {
	case CodeInternal, CodeUnknown:
		msg = "internal server error"
	case CodeTenantMismatch:
		// Same body as a plain not-found.
		msg = "resource not found"
	}

	body := fiber.Map{
		"code": int(code),
		"msg":  msg,
	}
	var verr *ValidationError
	if errors.As(err, &verr) && verr.HasFields() {
		body["fields"] = verr.Fields
	}
	return statusCode, body
}
