package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// UploadObject starts a single-part upload and registers it.
func (c *Client) UploadObject(projectHandle handle.Handle, bucket, key string, opts *ffi.UploadOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	var owned *ffi.UploadOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return registerOp(c, "upload.open", handle.KindUpload,
		func() error { return validateObjectRef(bucket, key) },
		func() (ffi.Resource, *ffi.Error) {
			return proj.UploadObject(bucket, key, owned)
		})
}

// UploadWrite appends p to an in-progress upload. The buffer stays
// pinned and must not be mutated until the future settles; on failure
// the typed error carries the bytes the native library accepted.
func (c *Client) UploadWrite(h handle.Handle, p []byte) (*bridge.Future[int64], error) {
	up, err := c.resolveUpload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[int64]{
		Name: "upload.write",
		Validate: func() error {
			if len(p) == 0 {
				return errs.Validation("write buffer is empty")
			}
			return nil
		},
		Exclusive: []handle.Handle{h},
		Buffer:    p,
		Execute: func() (int64, *ffi.Error) {
			return up.Write(p)
		},
		Translate: func(ferr *ffi.Error, n int64) *errs.Error {
			e := errs.Translate(ferr.Code, ferr.Message)
			e.BytesTransferred = n
			return e
		},
	})
}

// UploadCommit finalizes the upload, frees it and forgets its handle.
// On native failure the handle stays live so the caller can abort.
func (c *Client) UploadCommit(h handle.Handle) (*bridge.Future[struct{}], error) {
	up, err := c.resolveUpload(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "upload.commit", h, up, up.Commit)
}

// UploadAbort discards the upload, frees it and forgets its handle.
func (c *Client) UploadAbort(h handle.Handle) (*bridge.Future[struct{}], error) {
	up, err := c.resolveUpload(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "upload.abort", h, up, up.Abort)
}

// UploadSetCustomMetadata attaches metadata to be stored with the
// object at commit. The map is deep-copied at submit time.
func (c *Client) UploadSetCustomMetadata(h handle.Handle, custom ffi.CustomMetadata) (*bridge.Future[struct{}], error) {
	up, err := c.resolveUpload(h)
	if err != nil {
		return nil, err
	}
	owned := custom.Clone()
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name:      "upload.setCustomMetadata",
		Exclusive: []handle.Handle{h},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, up.SetCustomMetadata(owned)
		},
	})
}

// UploadInfo reports the upload's object metadata so far.
func (c *Client) UploadInfo(h handle.Handle) (*bridge.Future[*ffi.ObjectInfo], error) {
	up, err := c.resolveUpload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.ObjectInfo]{
		Name:      "upload.info",
		Exclusive: []handle.Handle{h},
		Execute:   up.Info,
		Complete: func(info *ffi.ObjectInfo) (*ffi.ObjectInfo, error) {
			return info.Clone(), nil
		},
	})
}
