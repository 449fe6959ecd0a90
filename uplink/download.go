package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// DownloadObject starts a download and registers it. opts selects a
// byte range; nil downloads the whole object.
func (c *Client) DownloadObject(projectHandle handle.Handle, bucket, key string, opts *ffi.DownloadOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	var owned *ffi.DownloadOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return registerOp(c, "download.open", handle.KindDownload,
		func() error {
			if err := validateObjectRef(bucket, key); err != nil {
				return err
			}
			if owned != nil && owned.Offset < 0 {
				return errs.Validation("download offset %d is negative", owned.Offset)
			}
			return nil
		},
		func() (ffi.Resource, *ffi.Error) {
			return proj.DownloadObject(bucket, key, owned)
		})
}

// DownloadRead fills p from the stream. The buffer stays pinned and
// must not be read until the future settles. End of stream rejects
// with an EOF-coded error whose BytesTransferred reports the final
// bytes placed in p.
func (c *Client) DownloadRead(h handle.Handle, p []byte) (*bridge.Future[int64], error) {
	dl, err := c.resolveDownload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[int64]{
		Name: "download.read",
		Validate: func() error {
			if len(p) == 0 {
				return errs.Validation("read buffer is empty")
			}
			return nil
		},
		Exclusive: []handle.Handle{h},
		Buffer:    p,
		Execute: func() (int64, *ffi.Error) {
			return dl.Read(p)
		},
		Translate: func(ferr *ffi.Error, n int64) *errs.Error {
			e := errs.Translate(ferr.Code, ferr.Message)
			e.BytesTransferred = n
			return e
		},
	})
}

// DownloadInfo reports the downloaded object's metadata.
func (c *Client) DownloadInfo(h handle.Handle) (*bridge.Future[*ffi.ObjectInfo], error) {
	dl, err := c.resolveDownload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.ObjectInfo]{
		Name:      "download.info",
		Exclusive: []handle.Handle{h},
		Execute:   dl.Info,
		Complete: func(info *ffi.ObjectInfo) (*ffi.ObjectInfo, error) {
			return info.Clone(), nil
		},
	})
}

// CloseDownload closes the stream, frees it and forgets its handle.
func (c *Client) CloseDownload(h handle.Handle) (*bridge.Future[struct{}], error) {
	dl, err := c.resolveDownload(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "download.close", h, dl, dl.Close)
}
