// Package handle maps opaque caller-held handles to native resources.
//
// A Handle stands in for a raw native pointer so callers never touch
// foreign memory directly. The registry keys handles by slot index plus
// a generation counter: once released, an (id, generation) pair never
// resolves again, even when the slot is reused for a new resource.
//
//	reg := handle.NewRegistry()
//
//	h, _ := reg.Allocate(handle.KindProject, proj)
//
//	// type-checked resolution
//	v, err := reg.Resolve(h, handle.KindProject)   // ok
//	_, err = reg.Resolve(h, handle.KindUpload)     // InvalidHandle
//
//	reg.Release(h) // ok
//	reg.Release(h) // InvalidHandle
package handle
