package ffi

import "fmt"

// Error is the raw failure shape every native call reports. It carries
// the native error code and message untranslated; the errs package maps
// it into the caller-visible error hierarchy.
type Error struct {
	Code    int32
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("native error %#x", e.Code)
	}
	return fmt.Sprintf("native error %#x: %s", e.Code, e.Message)
}

// Native error codes. These values are fixed by the native library's
// ABI and must not be renumbered.
const (
	ErrEOF                      int32 = -1
	ErrInternal                 int32 = 0x02
	ErrCanceled                 int32 = 0x03
	ErrInvalidHandle            int32 = 0x04
	ErrTooManyRequests          int32 = 0x05
	ErrBandwidthLimitExceeded   int32 = 0x06
	ErrStorageLimitExceeded     int32 = 0x07
	ErrSegmentsLimitExceeded    int32 = 0x08
	ErrPermissionDenied         int32 = 0x09
	ErrBucketNameInvalid        int32 = 0x10
	ErrBucketAlreadyExists      int32 = 0x11
	ErrBucketNotEmpty           int32 = 0x12
	ErrBucketNotFound           int32 = 0x13
	ErrObjectKeyInvalid         int32 = 0x20
	ErrObjectNotFound           int32 = 0x21
	ErrUploadDone               int32 = 0x22
	ErrEdgeAuthDialFailed       int32 = 0x30
	ErrEdgeRegisterAccessFailed int32 = 0x31
)
