package ffitest

import (
	"testing"

	"github.com/skystor/uplink-bridge/ffi"
)

func newProject(t *testing.T, m *Mock) ffi.Project {
	t.Helper()
	acc, ferr := m.ParseAccess("grant")
	if ferr != nil {
		t.Fatalf("ParseAccess failed: %v", ferr)
	}
	proj, ferr := m.OpenProject(acc)
	if ferr != nil {
		t.Fatalf("OpenProject failed: %v", ferr)
	}
	return proj
}

func TestProjectRejectsUseAfterClose(t *testing.T) {
	m := New()
	proj := newProject(t, m)

	if _, ferr := proj.EnsureBucket("docs"); ferr != nil {
		t.Fatalf("EnsureBucket failed: %v", ferr)
	}
	if ferr := proj.Close(); ferr != nil {
		t.Fatalf("Close failed: %v", ferr)
	}

	if _, ferr := proj.StatBucket("docs"); ferr == nil || ferr.Code != ffi.ErrInternal {
		t.Fatalf("StatBucket after Close: ferr = %v, want internal", ferr)
	}
	if _, ferr := proj.CreateBucket("more"); ferr == nil || ferr.Code != ffi.ErrInternal {
		t.Fatalf("CreateBucket after Close: ferr = %v, want internal", ferr)
	}
	if _, ferr := proj.UploadObject("docs", "k", nil); ferr == nil || ferr.Code != ffi.ErrInternal {
		t.Fatalf("UploadObject after Close: ferr = %v, want internal", ferr)
	}
}
