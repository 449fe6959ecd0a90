package errs

import (
	"errors"
	"fmt"
	"sync"
)

// Code identifies one failure class. Codes below 0x100 mirror the
// native library's error codes verbatim; codes at 0x100 and above are
// produced locally by the bridge and never cross the native boundary.
type Code int32

const (
	// Native codes. Values are fixed by the native library's ABI.
	CodeEOF                      Code = -1
	CodeInternal                 Code = 0x02
	CodeCanceled                 Code = 0x03
	CodeInvalidHandle            Code = 0x04
	CodeTooManyRequests          Code = 0x05
	CodeBandwidthLimitExceeded   Code = 0x06
	CodeStorageLimitExceeded     Code = 0x07
	CodeSegmentsLimitExceeded    Code = 0x08
	CodePermissionDenied         Code = 0x09
	CodeBucketNameInvalid        Code = 0x10
	CodeBucketAlreadyExists      Code = 0x11
	CodeBucketNotEmpty           Code = 0x12
	CodeBucketNotFound           Code = 0x13
	CodeObjectKeyInvalid         Code = 0x20
	CodeObjectNotFound           Code = 0x21
	CodeUploadDone               Code = 0x22
	CodeEdgeAuthDialFailed       Code = 0x30
	CodeEdgeRegisterAccessFailed Code = 0x31

	// Local codes.
	CodeValidation       Code = 0x100
	CodeOutOfMemory      Code = 0x101
	CodeConcurrentAccess Code = 0x102
	CodeUnknown          Code = 0x1FF
)

// Error is the caller-visible error for every bridged operation.
// Rejected futures always carry a *Error, never a raw native code.
type Error struct {
	// Code is the stable failure class.
	Code Code

	// Name is the stable symbolic name for Code.
	Name string

	// Message is the fixed human-readable message for Code.
	Message string

	// Details carries call-specific context, typically the native
	// library's message.
	Details string

	// BytesTransferred is the partial progress of a failed read or
	// write, so the caller can resume instead of restarting. Only
	// meaningful on errors from byte-transfer operations.
	BytesTransferred int64
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// Is matches by code, enabling errors.Is against sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Is reports whether err is a *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// entry is one row of the translation table.
type entry struct {
	name    string
	message string
}

var (
	registryMu sync.RWMutex
	registry   = map[Code]entry{
		CodeEOF:                      {"EOF", "end of stream"},
		CodeInternal:                 {"Internal", "internal error"},
		CodeCanceled:                 {"Canceled", "operation canceled"},
		CodeInvalidHandle:            {"InvalidHandle", "invalid handle"},
		CodeTooManyRequests:          {"TooManyRequests", "too many requests"},
		CodeBandwidthLimitExceeded:   {"BandwidthLimitExceeded", "bandwidth limit exceeded"},
		CodeStorageLimitExceeded:     {"StorageLimitExceeded", "storage limit exceeded"},
		CodeSegmentsLimitExceeded:    {"SegmentsLimitExceeded", "segments limit exceeded"},
		CodePermissionDenied:         {"PermissionDenied", "permission denied"},
		CodeBucketNameInvalid:        {"BucketNameInvalid", "invalid bucket name"},
		CodeBucketAlreadyExists:      {"BucketAlreadyExists", "bucket already exists"},
		CodeBucketNotEmpty:           {"BucketNotEmpty", "bucket is not empty"},
		CodeBucketNotFound:           {"BucketNotFound", "bucket not found"},
		CodeObjectKeyInvalid:         {"ObjectKeyInvalid", "invalid object key"},
		CodeObjectNotFound:           {"ObjectNotFound", "object not found"},
		CodeUploadDone:               {"UploadDone", "upload already done"},
		CodeEdgeAuthDialFailed:       {"EdgeAuthDialFailed", "edge auth dial failed"},
		CodeEdgeRegisterAccessFailed: {"EdgeRegisterAccessFailed", "edge register access failed"},
		CodeValidation:               {"Validation", "invalid argument"},
		CodeOutOfMemory:              {"OutOfMemory", "out of memory"},
		CodeConcurrentAccess:         {"ConcurrentAccess", "concurrent operation on handle"},
		CodeUnknown:                  {"Unknown", "storage error"},
	}
)

// Register adds or replaces the translation row for a code, so new
// native codes never require touching call sites.
func Register(code Code, name, message string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = entry{name: name, message: message}
}

// Translate maps a raw native code and message into the typed
// hierarchy. Unmapped codes yield a CodeUnknown error that still
// carries the raw code in its details.
func Translate(code int32, message string) *Error {
	registryMu.RLock()
	row, ok := registry[Code(code)]
	unknown := registry[CodeUnknown]
	registryMu.RUnlock()

	if !ok {
		details := fmt.Sprintf("code %#x", code)
		if message != "" {
			details = fmt.Sprintf("code %#x: %s", code, message)
		}
		return &Error{
			Code:    CodeUnknown,
			Name:    unknown.name,
			Message: unknown.message,
			Details: details,
		}
	}
	return &Error{
		Code:    Code(code),
		Name:    row.name,
		Message: row.message,
		Details: message,
	}
}

// New builds a typed error for a known code with call-specific details.
func New(code Code, details string) *Error {
	registryMu.RLock()
	row, ok := registry[code]
	if !ok {
		row = registry[CodeUnknown]
		code = CodeUnknown
	}
	registryMu.RUnlock()
	return &Error{
		Code:    code,
		Name:    row.name,
		Message: row.message,
		Details: details,
	}
}

// Validation reports a malformed argument; it is returned synchronously
// at submit time, before any worker dispatch.
func Validation(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// InvalidHandle reports an unknown, stale or wrongly typed handle.
func InvalidHandle(detail string) *Error {
	return New(CodeInvalidHandle, detail)
}

// Canceled reports a bridged operation settled by teardown.
func Canceled(op string) *Error {
	return New(CodeCanceled, op)
}

// OutOfMemory reports allocation exhaustion at a marshaling step.
func OutOfMemory(detail string) *Error {
	return New(CodeOutOfMemory, detail)
}

// ConcurrentAccess reports a second operation submitted against a
// handle that already has one in flight.
func ConcurrentAccess(detail string) *Error {
	return New(CodeConcurrentAccess, detail)
}
