package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/cursor"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// BeginUpload starts a multipart upload and resolves with its
// identifying info. No handle is created; parts reference the upload
// by id.
func (c *Client) BeginUpload(projectHandle handle.Handle, bucket, key string, opts *ffi.UploadOptions) (*bridge.Future[*ffi.UploadInfo], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	var owned *ffi.UploadOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.UploadInfo]{
		Name:     "multipart.begin",
		Validate: func() error { return validateObjectRef(bucket, key) },
		Execute: func() (*ffi.UploadInfo, *ffi.Error) {
			return proj.BeginUpload(bucket, key, owned)
		},
		Complete: func(info *ffi.UploadInfo) (*ffi.UploadInfo, error) {
			return info.Clone(), nil
		},
	})
}

// CommitUpload assembles the committed parts into the final object.
func (c *Client) CommitUpload(projectHandle handle.Handle, bucket, key, uploadID string, opts *ffi.CommitUploadOptions) (*bridge.Future[*ffi.ObjectInfo], error) {
	var owned *ffi.CommitUploadOptions
	if opts != nil {
		owned = &ffi.CommitUploadOptions{CustomMetadata: opts.CustomMetadata.Clone()}
	}
	return c.objectOp("multipart.commit", projectHandle,
		func() error {
			if err := validateObjectRef(bucket, key); err != nil {
				return err
			}
			if uploadID == "" {
				return errs.Validation("upload id is empty")
			}
			return nil
		},
		func(p ffi.Project) (*ffi.ObjectInfo, *ffi.Error) {
			return p.CommitUpload(bucket, key, uploadID, owned)
		})
}

// AbortUpload discards a pending multipart upload and its parts.
func (c *Client) AbortUpload(projectHandle handle.Handle, bucket, key, uploadID string) (*bridge.Future[struct{}], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name: "multipart.abort",
		Validate: func() error {
			if err := validateObjectRef(bucket, key); err != nil {
				return err
			}
			if uploadID == "" {
				return errs.Validation("upload id is empty")
			}
			return nil
		},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, proj.AbortUpload(bucket, key, uploadID)
		},
	})
}

// UploadPart starts one part of a multipart upload and registers it.
func (c *Client) UploadPart(projectHandle handle.Handle, bucket, key, uploadID string, partNumber uint32) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	return registerOp(c, "part.open", handle.KindPartUpload,
		func() error {
			if err := validateObjectRef(bucket, key); err != nil {
				return err
			}
			if uploadID == "" {
				return errs.Validation("upload id is empty")
			}
			return nil
		},
		func() (ffi.Resource, *ffi.Error) {
			return proj.UploadPart(bucket, key, uploadID, partNumber)
		})
}

// PartUploadWrite appends p to an in-progress part. Same pinning and
// partial-progress contract as UploadWrite.
func (c *Client) PartUploadWrite(h handle.Handle, p []byte) (*bridge.Future[int64], error) {
	up, err := c.resolvePartUpload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[int64]{
		Name: "part.write",
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

// PartUploadCommit finalizes the part, frees it and forgets its
// handle.
func (c *Client) PartUploadCommit(h handle.Handle) (*bridge.Future[struct{}], error) {
	up, err := c.resolvePartUpload(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "part.commit", h, up, up.Commit)
}

// PartUploadAbort discards the part, frees it and forgets its handle.
func (c *Client) PartUploadAbort(h handle.Handle) (*bridge.Future[struct{}], error) {
	up, err := c.resolvePartUpload(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "part.abort", h, up, up.Abort)
}

// PartUploadSetETag attaches an etag reported by part listings.
func (c *Client) PartUploadSetETag(h handle.Handle, etag string) (*bridge.Future[struct{}], error) {
	up, err := c.resolvePartUpload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name:      "part.setETag",
		Exclusive: []handle.Handle{h},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, up.SetETag(etag)
		},
	})
}

// PartUploadInfo reports the part's metadata so far.
func (c *Client) PartUploadInfo(h handle.Handle) (*bridge.Future[*ffi.PartInfo], error) {
	up, err := c.resolvePartUpload(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.PartInfo]{
		Name:      "part.info",
		Exclusive: []handle.Handle{h},
		Execute:   up.Info,
		Complete: func(info *ffi.PartInfo) (*ffi.PartInfo, error) {
			return info.Clone(), nil
		},
	})
}

// ListUploadParts opens a cursor over the committed parts of one
// multipart upload and registers it.
func (c *Client) ListUploadParts(projectHandle handle.Handle, bucket, key, uploadID string, opts *ffi.ListUploadPartsOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	if err := validateObjectRef(bucket, key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, errs.Validation("upload id is empty")
	}
	var owned *ffi.ListUploadPartsOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return cursor.Create(c.br, c.reg, handle.KindPartIterator, "partIterator.create",
		func() (ffi.Cursor, *ffi.Error) {
			return proj.ListUploadParts(bucket, key, uploadID, owned), nil
		})
}

// PartItem copies the part cursor's current element.
func (c *Client) PartItem(h handle.Handle) (*bridge.Future[*ffi.PartInfo], error) {
	return cursor.Item(c.br, c.reg, h, (*ffi.PartInfo).Clone)
}

// ListUploads opens a cursor over pending multipart uploads in a
// bucket and registers it.
func (c *Client) ListUploads(projectHandle handle.Handle, bucket string, opts *ffi.ListUploadsOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, errs.Validation("bucket name is empty")
	}
	var owned *ffi.ListUploadsOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return cursor.Create(c.br, c.reg, handle.KindUploadIterator, "uploadIterator.create",
		func() (ffi.Cursor, *ffi.Error) {
			return proj.ListUploads(bucket, owned), nil
		})
}

// UploadItem copies the pending-upload cursor's current element.
func (c *Client) UploadItem(h handle.Handle) (*bridge.Future[*ffi.UploadInfo], error) {
	return cursor.Item(c.br, c.reg, h, (*ffi.UploadInfo).Clone)
}
