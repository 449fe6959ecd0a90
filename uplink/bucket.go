package uplink

import (
	"context"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/cursor"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// bucketOp submits one bucket-level native call that yields bucket
// info, deep-copied before it reaches the caller.
func (c *Client) bucketOp(name, bucketName string, projectHandle handle.Handle, call func(ffi.Project) (*ffi.BucketInfo, *ffi.Error)) (*bridge.Future[*ffi.BucketInfo], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.BucketInfo]{
		Name: name,
		Validate: func() error {
			if bucketName == "" {
				return errs.Validation("bucket name is empty")
			}
			return nil
		},
		Execute: func() (*ffi.BucketInfo, *ffi.Error) {
			return call(proj)
		},
		Complete: func(info *ffi.BucketInfo) (*ffi.BucketInfo, error) {
			return info.Clone(), nil
		},
	})
}

// CreateBucket creates a bucket; it fails with BucketAlreadyExists if
// one by that name exists.
func (c *Client) CreateBucket(projectHandle handle.Handle, name string) (*bridge.Future[*ffi.BucketInfo], error) {
	return c.bucketOp("bucket.create", name, projectHandle, func(p ffi.Project) (*ffi.BucketInfo, *ffi.Error) {
		return p.CreateBucket(name)
	})
}

// EnsureBucket creates a bucket if missing and reports it either way.
func (c *Client) EnsureBucket(projectHandle handle.Handle, name string) (*bridge.Future[*ffi.BucketInfo], error) {
	return c.bucketOp("bucket.ensure", name, projectHandle, func(p ffi.Project) (*ffi.BucketInfo, *ffi.Error) {
		return p.EnsureBucket(name)
	})
}

// StatBucket reports one bucket.
func (c *Client) StatBucket(projectHandle handle.Handle, name string) (*bridge.Future[*ffi.BucketInfo], error) {
	return c.bucketOp("bucket.stat", name, projectHandle, func(p ffi.Project) (*ffi.BucketInfo, *ffi.Error) {
		return p.StatBucket(name)
	})
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(projectHandle handle.Handle, name string) (*bridge.Future[*ffi.BucketInfo], error) {
	return c.bucketOp("bucket.delete", name, projectHandle, func(p ffi.Project) (*ffi.BucketInfo, *ffi.Error) {
		return p.DeleteBucket(name)
	})
}

// DeleteBucketWithObjects deletes a bucket and everything in it.
func (c *Client) DeleteBucketWithObjects(projectHandle handle.Handle, name string) (*bridge.Future[*ffi.BucketInfo], error) {
	return c.bucketOp("bucket.deleteWithObjects", name, projectHandle, func(p ffi.Project) (*ffi.BucketInfo, *ffi.Error) {
		return p.DeleteBucketWithObjects(name)
	})
}

// ListBuckets opens a bucket cursor and registers it. Drive it with
// CursorNext/BucketItem/CursorErr and finish with CursorFree, or use
// CollectBuckets.
func (c *Client) ListBuckets(projectHandle handle.Handle, opts *ffi.ListBucketsOptions) (*bridge.Future[handle.Handle], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	var owned *ffi.ListBucketsOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return cursor.Create(c.br, c.reg, handle.KindBucketIterator, "bucketIterator.create",
		func() (ffi.Cursor, *ffi.Error) {
			return proj.ListBuckets(owned), nil
		})
}

// CursorNext advances any iterator handle, resolving true while an
// item is available. At most one bridged call per iterator handle may
// be in flight.
func (c *Client) CursorNext(h handle.Handle) (*bridge.Future[bool], error) {
	return cursor.Next(c.br, c.reg, h)
}

// CursorErr reports the translated error that ended iteration, or nil
// after plain exhaustion. The future always resolves.
func (c *Client) CursorErr(h handle.Handle) (*bridge.Future[*errs.Error], error) {
	return cursor.Err(c.br, c.reg, h)
}

// CursorFree releases an iterator and forgets its handle. Terminal and
// safe mid-walk.
func (c *Client) CursorFree(h handle.Handle) (*bridge.Future[struct{}], error) {
	return cursor.Free(c.br, c.reg, h)
}

// BucketItem copies the bucket cursor's current element.
func (c *Client) BucketItem(h handle.Handle) (*bridge.Future[*ffi.BucketInfo], error) {
	return cursor.Item(c.br, c.reg, h, (*ffi.BucketInfo).Clone)
}

// CollectBuckets runs the whole driving loop: create, walk, surface
// the terminating error and free the cursor.
func (c *Client) CollectBuckets(ctx context.Context, projectHandle handle.Handle, opts *ffi.ListBucketsOptions) ([]*ffi.BucketInfo, error) {
	fut, err := c.ListBuckets(projectHandle, opts)
	if err != nil {
		return nil, err
	}
	h, err := fut.Await(ctx)
	if err != nil {
		return nil, err
	}
	return collect(ctx, c, h, c.BucketItem)
}

// collect drives one iterator handle to completion and always frees
// it, even when the walk fails partway.
func collect[T any](ctx context.Context, c *Client, h handle.Handle, item func(handle.Handle) (*bridge.Future[T], error)) ([]T, error) {
	var out []T
	walk := func() error {
		for {
			nextFut, err := c.CursorNext(h)
			if err != nil {
				return err
			}
			more, err := nextFut.Await(ctx)
			if err != nil {
				return err
			}
			if !more {
				break
			}
			itemFut, err := item(h)
			if err != nil {
				return err
			}
			v, err := itemFut.Await(ctx)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		errFut, err := c.CursorErr(h)
		if err != nil {
			return err
		}
		iterErr, err := errFut.Await(ctx)
		if err != nil {
			return err
		}
		if iterErr != nil {
			return iterErr
		}
		return nil
	}

	walkErr := walk()
	if freeFut, err := c.CursorFree(h); err == nil {
		if _, err := freeFut.Await(ctx); err != nil && walkErr == nil {
			walkErr = err
		}
	} else if walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}
