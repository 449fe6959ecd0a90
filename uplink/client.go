// Package uplink exposes the blocking native storage client to
// concurrent callers. Every operation resolves its handles up front,
// runs exactly one native call on a bridge worker and settles a future,
// so no caller goroutine ever blocks inside the native library and no
// native resource is reachable except through the handle registry.
package uplink

import (
	"go.uber.org/zap"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// Options configures a Client. Zero values select the bridge defaults.
type Options struct {
	// Workers is the number of goroutines performing native calls.
	Workers int

	// QueueDepth bounds calls admitted but not yet executing.
	QueueDepth int

	// Logger receives structured submit/cancel events. Nil is silent.
	Logger *zap.Logger
}

// Client owns one native library session: a work bridge, a handle
// registry and the library itself. All methods are safe for concurrent
// use; per-handle exclusivity is enforced by the bridge.
type Client struct {
	lib ffi.Library
	br  *bridge.Bridge
	reg *handle.Registry
	log *zap.Logger
}

// NewClient wraps lib. The caller must Close the client to release
// native resources held by unreleased handles.
func NewClient(lib ffi.Library, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		lib: lib,
		br: bridge.New(bridge.Config{
			Workers:    opts.Workers,
			QueueDepth: opts.QueueDepth,
			Logger:     log.Named("bridge"),
		}),
		reg: handle.NewRegistry(),
		log: log,
	}
}

// Close tears the client down: in-flight work is cancelled, every
// still-registered native resource is freed, and the registry is
// dropped. Handles held by callers stop resolving.
func (c *Client) Close() error {
	err := c.br.Close()

	freed := 0
	c.reg.Each(func(h handle.Handle, value any) bool {
		if res, ok := value.(ffi.Resource); ok {
			res.Free()
			freed++
		}
		return true
	})
	if regErr := c.reg.Close(); err == nil {
		err = regErr
	}

	c.log.Info("client closed",
		zap.Int("handles_freed", freed),
		zap.Int64("pins", c.br.Guard().Pins()),
		zap.Int64("unpins", c.br.Guard().Unpins()))
	return err
}

// Stats reports bridge counters for monitoring.
func (c *Client) Stats() bridge.Stats { return c.br.Stats() }

// Handles reports the number of live handles.
func (c *Client) Handles() int { return c.reg.Len() }

// HandlesByKind reports live handle counts per resource kind.
func (c *Client) HandlesByKind() map[handle.Kind]int { return c.reg.LenByKind() }

// UniverseIsEmpty reports whether every allocated handle has been
// released. Useful as a leak probe at the end of a session.
func (c *Client) UniverseIsEmpty() bool { return c.reg.Len() == 0 }

// PinBalance reports outstanding pinned buffers; zero when every
// transfer has completed or been cancelled.
func (c *Client) PinBalance() int64 { return c.br.Guard().Outstanding() }

// registerOp submits an operation whose native call opens a resource.
// The resource is registered under kind on the worker's completion
// step; if registration fails, or teardown cancels the item after the
// native call, the resource is freed so nothing leaks.
func registerOp(c *Client, name string, kind handle.Kind, validate func() error, open func() (ffi.Resource, *ffi.Error)) (*bridge.Future[handle.Handle], error) {
	var res ffi.Resource
	return bridge.Submit(c.br, bridge.Operation[handle.Handle]{
		Name:     name,
		Validate: validate,
		Execute: func() (handle.Handle, *ffi.Error) {
			r, ferr := open()
			if ferr != nil {
				return handle.Handle{}, ferr
			}
			res = r
			return handle.Handle{}, nil
		},
		Complete: func(handle.Handle) (handle.Handle, error) {
			h, err := c.reg.Allocate(kind, res)
			if err != nil {
				res.Free()
				return handle.Handle{}, err
			}
			return h, nil
		},
		Discard: func(handle.Handle) {
			if res != nil {
				res.Free()
			}
		},
	})
}

// finishOp submits a terminal operation on a registered resource: the
// native call finishes or releases it, then the handle mapping is
// dropped. On native failure the handle stays live so the caller can
// still abort or retry.
func finishOp(c *Client, name string, h handle.Handle, res ffi.Resource, call func() *ffi.Error) (*bridge.Future[struct{}], error) {
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name:      name,
		Exclusive: []handle.Handle{h},
		Execute: func() (struct{}, *ffi.Error) {
			if ferr := call(); ferr != nil {
				return struct{}{}, ferr
			}
			res.Free()
			return struct{}{}, nil
		},
		Complete: func(struct{}) (struct{}, error) {
			if _, err := c.reg.Release(h); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, nil
		},
		Discard: func(struct{}) {
			// The native call finished and freed the resource; the
			// mapping must go too or teardown would free it again.
			_, _ = c.reg.Release(h)
		},
	})
}

func (c *Client) resolveAccess(h handle.Handle) (ffi.Access, error) {
	raw, err := c.reg.Resolve(h, handle.KindAccess)
	if err != nil {
		return nil, err
	}
	a, ok := raw.(ffi.Access)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold an access grant: " + h.String())
	}
	return a, nil
}

func (c *Client) resolveProject(h handle.Handle) (ffi.Project, error) {
	raw, err := c.reg.Resolve(h, handle.KindProject)
	if err != nil {
		return nil, err
	}
	p, ok := raw.(ffi.Project)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold a project: " + h.String())
	}
	return p, nil
}

func (c *Client) resolveUpload(h handle.Handle) (ffi.Upload, error) {
	raw, err := c.reg.Resolve(h, handle.KindUpload)
	if err != nil {
		return nil, err
	}
	u, ok := raw.(ffi.Upload)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold an upload: " + h.String())
	}
	return u, nil
}

func (c *Client) resolveDownload(h handle.Handle) (ffi.Download, error) {
	raw, err := c.reg.Resolve(h, handle.KindDownload)
	if err != nil {
		return nil, err
	}
	d, ok := raw.(ffi.Download)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold a download: " + h.String())
	}
	return d, nil
}

func (c *Client) resolvePartUpload(h handle.Handle) (ffi.PartUpload, error) {
	raw, err := c.reg.Resolve(h, handle.KindPartUpload)
	if err != nil {
		return nil, err
	}
	u, ok := raw.(ffi.PartUpload)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold a part upload: " + h.String())
	}
	return u, nil
}

func (c *Client) resolveEncryptionKey(h handle.Handle) (ffi.EncryptionKey, error) {
	raw, err := c.reg.Resolve(h, handle.KindEncryptionKey)
	if err != nil {
		return nil, err
	}
	k, ok := raw.(ffi.EncryptionKey)
	if !ok {
		return nil, errs.InvalidHandle("handle does not hold an encryption key: " + h.String())
	}
	return k, nil
}
