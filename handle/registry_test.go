package handle

import (
	"testing"

	"github.com/skystor/uplink-bridge/errs"
)

func TestRegistry_AllocateResolve(t *testing.T) {
	reg := NewRegistry()

	h, err := reg.Allocate(KindProject, "proj")
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if h.IsZero() {
		t.Fatal("expected non-zero handle")
	}
	if h.Kind() != KindProject {
		t.Fatalf("kind = %v", h.Kind())
	}

	v, err := reg.Resolve(h, KindProject)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if v != "proj" {
		t.Fatalf("value = %v", v)
	}
}

func TestRegistry_WrongKind(t *testing.T) {
	reg := NewRegistry()

	h, _ := reg.Allocate(KindProject, "proj")

	if _, err := reg.Resolve(h, KindUpload); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("Resolve with wrong kind: err = %v, want InvalidHandle", err)
	}

	// The original pointer is still reachable with the right kind.
	v, err := reg.Resolve(h, KindProject)
	if err != nil || v != "proj" {
		t.Fatalf("Resolve with right kind: v=%v err=%v", v, err)
	}
}

func TestRegistry_ReleaseInvalidatesHandle(t *testing.T) {
	reg := NewRegistry()

	h, _ := reg.Allocate(KindAccess, "grant")
	v, err := reg.Release(h)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if v != "grant" {
		t.Fatalf("Release returned %v", v)
	}

	if _, err := reg.Resolve(h, KindAccess); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("Resolve after Release: err = %v, want InvalidHandle", err)
	}
}

func TestRegistry_DoubleReleaseFails(t *testing.T) {
	reg := NewRegistry()

	h, _ := reg.Allocate(KindDownload, "dl")
	if _, err := reg.Release(h); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if _, err := reg.Release(h); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("second Release: err = %v, want InvalidHandle", err)
	}
}

func TestRegistry_GenerationPreventsAliasing(t *testing.T) {
	reg := NewRegistry()

	old, _ := reg.Allocate(KindUpload, "first")
	if _, err := reg.Release(old); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// The freed slot is reused for a new resource of the same kind.
	fresh, _ := reg.Allocate(KindUpload, "second")
	if fresh == old {
		t.Fatal("reused slot must carry a new generation")
	}

	// The stale handle still fails even though the numeric id matches.
	if _, err := reg.Resolve(old, KindUpload); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("stale handle resolved: err = %v", err)
	}

	v, err := reg.Resolve(fresh, KindUpload)
	if err != nil || v != "second" {
		t.Fatalf("fresh handle: v=%v err=%v", v, err)
	}
}

func TestRegistry_ZeroHandle(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Resolve(Handle{}, KindAccess); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("zero handle: err = %v", err)
	}
	if _, err := reg.Release(Handle{}); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("release zero handle: err = %v", err)
	}
}

func TestRegistry_LenAndEach(t *testing.T) {
	reg := NewRegistry()

	reg.Allocate(KindAccess, "a")
	h, _ := reg.Allocate(KindProject, "b")
	reg.Allocate(KindProject, "c")

	if reg.Len() != 3 {
		t.Fatalf("Len = %d", reg.Len())
	}

	byKind := reg.LenByKind()
	if byKind[KindProject] != 2 || byKind[KindAccess] != 1 {
		t.Fatalf("LenByKind = %v", byKind)
	}

	reg.Release(h)

	seen := 0
	reg.Each(func(_ Handle, _ any) bool {
		seen++
		return true
	})
	if seen != 2 {
		t.Fatalf("Each visited %d entries", seen)
	}
}

func TestRegistry_Close(t *testing.T) {
	reg := NewRegistry()

	h, _ := reg.Allocate(KindAccess, "a")
	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := reg.Resolve(h, KindAccess); !errs.Is(err, errs.CodeInvalidHandle) {
		t.Fatalf("Resolve after Close: err = %v", err)
	}
	if _, err := reg.Allocate(KindAccess, "b"); !errs.Is(err, errs.CodeCanceled) {
		t.Fatalf("Allocate after Close: err = %v", err)
	}
	// Idempotent.
	if err := reg.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
