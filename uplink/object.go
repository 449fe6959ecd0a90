package uplink

import (
	"context"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/cursor"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

func validateObjectRef(bucket, key string) error {
	if bucket == "" {
		return errs.Validation("bucket name is empty")
	}
	if key == "" {
		return errs.Validation("object key is empty")
	}
	return nil
}

// objectOp submits one object-level native call yielding object info,
// deep-copied before it reaches the caller.
func (c *Client) objectOp(name string, projectHandle handle.Handle, validate func() error, call func(ffi.Project) (*ffi.ObjectInfo, *ffi.Error)) (*bridge.Future[*ffi.ObjectInfo], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.ObjectInfo]{
		Name:     name,
		Validate: validate,
		Execute: func() (*ffi.ObjectInfo, *ffi.Error) {
			return call(proj)
		},
		Complete: func(info *ffi.ObjectInfo) (*ffi.ObjectInfo, error) {
			return info.Clone(), nil
		},
	})
}

// StatObject reports one object's metadata.
func (c *Client) StatObject(projectHandle handle.Handle, bucket, key string) (*bridge.Future[*ffi.ObjectInfo], error) {
	return c.objectOp("object.stat", projectHandle,
		func() error { return validateObjectRef(bucket, key) },
		func(p ffi.Project) (*ffi.ObjectInfo, *ffi.Error) {
			return p.StatObject(bucket, key)
		})
}

// DeleteObject removes an object and reports what was removed.
func (c *Client) DeleteObject(projectHandle handle.Handle, bucket, key string) (*bridge.Future[*ffi.ObjectInfo], error) {
	return c.objectOp("object.delete", projectHandle,
		func() error { return validateObjectRef(bucket, key) },
		func(p ffi.Project) (*ffi.ObjectInfo, *ffi.Error) {
			return p.DeleteObject(bucket, key)
		})
}

// CopyObject copies an object to a new bucket/key.
func (c *Client) CopyObject(projectHandle handle.Handle, srcBucket, srcKey, dstBucket, dstKey string) (*bridge.Future[*ffi.ObjectInfo], error) {
	return c.objectOp("object.copy", projectHandle,
		func() error {
			if err := validateObjectRef(srcBucket, srcKey); err != nil {
				return err
			}
			return validateObjectRef(dstBucket, dstKey)
		},
		func(p ffi.Project) (*ffi.ObjectInfo, *ffi.Error) {
			return p.CopyObject(srcBucket, srcKey, dstBucket, dstKey)
		})
}

// MoveObject renames an object, possibly across buckets.
func (c *Client) MoveObject(projectHandle handle.Handle, srcBucket, srcKey, dstBucket, dstKey string) (*bridge.Future[struct{}], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name: "object.move",
		Validate: func() error {
			if err := validateObjectRef(srcBucket, srcKey); err != nil {
				return err
			}
			return validateObjectRef(dstBucket, dstKey)
		},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, proj.MoveObject(srcBucket, srcKey, dstBucket, dstKey)
		},
	})
}

// UpdateObjectMetadata replaces an object's custom metadata. The map
// is deep-copied at submit time.
func (c *Client) UpdateObjectMetadata(projectHandle handle.Handle, bucket, key string, custom ffi.CustomMetadata) (*bridge.Future[struct{}], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	owned := custom.Clone()
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name: "object.updateMetadata",
		Validate: func() error {
			return validateObjectRef(bucket, key)
		},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, proj.UpdateObjectMetadata(bucket, key, owned)
		},
	})
}

// ListObjects opens an object cursor under a bucket and registers it.
func (c *Client) ListObjects(projectHandle handle.Handle, bucket string, opts *ffi.ListObjectsOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, errs.Validation("bucket name is empty")
	}
	var owned *ffi.ListObjectsOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return cursor.Create(c.br, c.reg, handle.KindObjectIterator, "objectIterator.create",
		func() (ffi.Cursor, *ffi.Error) {
			return proj.ListObjects(bucket, owned), nil
		})
}

// ObjectItem copies the object cursor's current element.
func (c *Client) ObjectItem(h handle.Handle) (*bridge.Future[*ffi.ObjectInfo], error) {
	return cursor.Item(c.br, c.reg, h, (*ffi.ObjectInfo).Clone)
}

// CollectObjects runs the whole driving loop over one bucket listing.
func (c *Client) CollectObjects(ctx context.Context, projectHandle handle.Handle, bucket string, opts *ffi.ListObjectsOptions) ([]*ffi.ObjectInfo, error) {
	fut, err := c.ListObjects(projectHandle, bucket, opts)
	if err != nil {
		return nil, err
	}
	h, err := fut.Await(ctx)
	if err != nil {
		return nil, err
	}
	return collect(ctx, c, h, c.ObjectItem)
}
