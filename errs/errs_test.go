package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTranslate_KnownCodes(t *testing.T) {
	tests := []struct {
		code    int32
		name    string
		message string
	}{
		{0x02, "Internal", "internal error"},
		{0x03, "Canceled", "operation canceled"},
		{0x04, "InvalidHandle", "invalid handle"},
		{0x13, "BucketNotFound", "bucket not found"},
		{0x21, "ObjectNotFound", "object not found"},
		{0x22, "UploadDone", "upload already done"},
		{0x31, "EdgeRegisterAccessFailed", "edge register access failed"},
		{-1, "EOF", "end of stream"},
	}

	for _, tt := range tests {
		err := Translate(tt.code, "details here")
		if err.Code != Code(tt.code) {
			t.Errorf("Translate(%#x): code = %#x", tt.code, err.Code)
		}
		if err.Name != tt.name {
			t.Errorf("Translate(%#x): name = %q, want %q", tt.code, err.Name, tt.name)
		}
		if err.Message != tt.message {
			t.Errorf("Translate(%#x): message = %q, want %q", tt.code, err.Message, tt.message)
		}
		if err.Details != "details here" {
			t.Errorf("Translate(%#x): details = %q", tt.code, err.Details)
		}
	}
}

func TestTranslate_UnknownCode(t *testing.T) {
	err := Translate(0x77, "mystery failure")
	if err.Code != CodeUnknown {
		t.Fatalf("code = %#x, want CodeUnknown", err.Code)
	}
	if !strings.Contains(err.Details, "0x77") {
		t.Fatalf("details %q should carry raw code", err.Details)
	}
	if !strings.Contains(err.Details, "mystery failure") {
		t.Fatalf("details %q should carry native message", err.Details)
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(CodeBucketNotFound, "bucket x"))
	if !Is(err, CodeBucketNotFound) {
		t.Fatal("Is should match through wrapping")
	}
	if Is(err, CodeObjectNotFound) {
		t.Fatal("Is should not match a different code")
	}
	if !errors.Is(err, &Error{Code: CodeBucketNotFound}) {
		t.Fatal("errors.Is with sentinel should match")
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeBucketNotFound, "no bucket named photos")
	want := "bucket not found: no bucket named photos"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	bare := New(CodePermissionDenied, "")
	if bare.Error() != "permission denied" {
		t.Fatalf("Error() = %q", bare.Error())
	}
}

func TestRegister_NewCode(t *testing.T) {
	Register(Code(0x40), "Throttled", "request throttled")
	err := Translate(0x40, "slow down")
	if err.Name != "Throttled" {
		t.Fatalf("name = %q after Register", err.Name)
	}
	if err.Code != Code(0x40) {
		t.Fatalf("code = %#x after Register", err.Code)
	}
}

func TestValidationConstructor(t *testing.T) {
	err := Validation("length %d exceeds buffer size %d", 10, 5)
	if err.Code != CodeValidation {
		t.Fatalf("code = %#x", err.Code)
	}
	if !strings.Contains(err.Details, "length 10 exceeds buffer size 5") {
		t.Fatalf("details = %q", err.Details)
	}
}
