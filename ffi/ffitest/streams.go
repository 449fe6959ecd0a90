package ffitest

import (
	"fmt"

	"github.com/skystor/uplink-bridge/ffi"
)

// mockUpload buffers written bytes and materializes the object in its
// bucket on Commit.
type mockUpload struct {
	m       *Mock
	bucket  string
	key     string
	expires int64
	data    []byte
	custom  ffi.CustomMetadata
	done    bool
	aborted bool
	freed   bool
}

func (u *mockUpload) Free() { u.m.untrack(&u.freed) }

func (u *mockUpload) Write(p []byte) (int64, *ffi.Error) {
	if err := u.m.step("upload.write"); err != nil {
		// Partial progress: accept half the payload before failing, so
		// callers can observe a non-zero transferred count on error.
		n := len(p) / 2
		u.m.mu.Lock()
		if !u.done && !u.aborted {
			u.data = append(u.data, p[:n]...)
		}
		u.m.mu.Unlock()
		return int64(n), err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return 0, &ffi.Error{Code: ffi.ErrUploadDone, Message: "upload already finished"}
	}
	u.data = append(u.data, p...)
	return int64(len(p)), nil
}

func (u *mockUpload) Commit() *ffi.Error {
	if err := u.m.step("upload.commit"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "upload already finished"}
	}
	b, ok := u.m.buckets[u.bucket]
	if !ok {
		return &ffi.Error{Code: ffi.ErrBucketNotFound, Message: fmt.Sprintf("bucket %q not found", u.bucket)}
	}
	b.objects[u.key] = &object{
		key:     u.key,
		data:    u.data,
		created: now(),
		expires: u.expires,
		custom:  u.custom.Clone(),
	}
	u.done = true
	return nil
}

func (u *mockUpload) Abort() *ffi.Error {
	if err := u.m.step("upload.abort"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "upload already committed"}
	}
	u.aborted = true
	u.data = nil
	return nil
}

func (u *mockUpload) SetCustomMetadata(custom ffi.CustomMetadata) *ffi.Error {
	if err := u.m.step("upload.setCustomMetadata"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "upload already finished"}
	}
	u.custom = custom.Clone()
	return nil
}

func (u *mockUpload) Info() (*ffi.ObjectInfo, *ffi.Error) {
	if err := u.m.step("upload.info"); err != nil {
		return nil, err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return &ffi.ObjectInfo{
		Key: u.key,
		System: ffi.SystemMetadata{
			Expires:       u.expires,
			ContentLength: int64(len(u.data)),
		},
		Custom: u.custom.Clone(),
	}, nil
}

// mockDownload streams a snapshot taken when the download was opened.
type mockDownload struct {
	m      *Mock
	info   *ffi.ObjectInfo
	data   []byte
	pos    int
	closed bool
	freed  bool
}

func (d *mockDownload) Free() { d.m.untrack(&d.freed) }

func (d *mockDownload) Read(p []byte) (int64, *ffi.Error) {
	if err := d.m.step("download.read"); err != nil {
		return 0, err
	}
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if d.closed {
		return 0, &ffi.Error{Code: ffi.ErrInternal, Message: "read on closed download"}
	}
	if d.pos >= len(d.data) {
		return 0, &ffi.Error{Code: ffi.ErrEOF, Message: "end of stream"}
	}
	n := copy(p, d.data[d.pos:])
	d.pos += n
	if d.pos >= len(d.data) {
		return int64(n), &ffi.Error{Code: ffi.ErrEOF, Message: "end of stream"}
	}
	return int64(n), nil
}

func (d *mockDownload) Info() (*ffi.ObjectInfo, *ffi.Error) {
	if err := d.m.step("download.info"); err != nil {
		return nil, err
	}
	return d.info.Clone(), nil
}

func (d *mockDownload) Close() *ffi.Error {
	if err := d.m.step("download.close"); err != nil {
		return err
	}
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	d.closed = true
	return nil
}

// mockPartUpload buffers one part and installs it in its pending
// multipart upload on Commit.
type mockPartUpload struct {
	m       *Mock
	pending *pendingUpload
	number  uint32
	data    []byte
	etag    string
	done    bool
	aborted bool
	freed   bool
}

func (u *mockPartUpload) Free() { u.m.untrack(&u.freed) }

func (u *mockPartUpload) Write(p []byte) (int64, *ffi.Error) {
	if err := u.m.step("partUpload.write"); err != nil {
		n := len(p) / 2
		u.m.mu.Lock()
		if !u.done && !u.aborted {
			u.data = append(u.data, p[:n]...)
		}
		u.m.mu.Unlock()
		return int64(n), err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return 0, &ffi.Error{Code: ffi.ErrUploadDone, Message: "part already finished"}
	}
	u.data = append(u.data, p...)
	return int64(len(p)), nil
}

func (u *mockPartUpload) Commit() *ffi.Error {
	if err := u.m.step("partUpload.commit"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "part already finished"}
	}
	u.pending.parts[u.number] = &partData{
		number:   u.number,
		data:     u.data,
		etag:     u.etag,
		modified: now(),
	}
	u.done = true
	return nil
}

func (u *mockPartUpload) Abort() *ffi.Error {
	if err := u.m.step("partUpload.abort"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "part already committed"}
	}
	u.aborted = true
	u.data = nil
	return nil
}

func (u *mockPartUpload) SetETag(etag string) *ffi.Error {
	if err := u.m.step("partUpload.setETag"); err != nil {
		return err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.done || u.aborted {
		return &ffi.Error{Code: ffi.ErrUploadDone, Message: "part already finished"}
	}
	u.etag = etag
	return nil
}

func (u *mockPartUpload) Info() (*ffi.PartInfo, *ffi.Error) {
	if err := u.m.step("partUpload.info"); err != nil {
		return nil, err
	}
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return &ffi.PartInfo{
		PartNumber: u.number,
		Size:       int64(len(u.data)),
		ETag:       u.etag,
	}, nil
}
