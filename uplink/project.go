package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// OpenProject opens a project session from an access grant handle.
func (c *Client) OpenProject(accessHandle handle.Handle) (*bridge.Future[handle.Handle], error) {
	acc, err := c.resolveAccess(accessHandle)
	if err != nil {
		return nil, err
	}
	return registerOp(c, "project.open", handle.KindProject, nil,
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.OpenProject(acc)
		})
}

// OpenProjectWithConfig is OpenProject with explicit dial
// configuration.
func (c *Client) OpenProjectWithConfig(cfg ffi.Config, accessHandle handle.Handle) (*bridge.Future[handle.Handle], error) {
	acc, err := c.resolveAccess(accessHandle)
	if err != nil {
		return nil, err
	}
	return registerOp(c, "project.openWithConfig", handle.KindProject, nil,
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.OpenProjectWithConfig(cfg, acc)
		})
}

// CloseProject shuts the session down, frees it and forgets its
// handle. Uploads and downloads opened from it must be finished first.
func (c *Client) CloseProject(h handle.Handle) (*bridge.Future[struct{}], error) {
	proj, err := c.resolveProject(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "project.close", h, proj, proj.Close)
}

// RevokeAccess revokes a derived grant satellite-side. The grant's
// handle stays live; revocation is a satellite state change, not a
// release.
func (c *Client) RevokeAccess(projectHandle, accessHandle handle.Handle) (*bridge.Future[struct{}], error) {
	proj, err := c.resolveProject(projectHandle)
	if err != nil {
		return nil, err
	}
	acc, err := c.resolveAccess(accessHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name: "project.revokeAccess",
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, proj.RevokeAccess(acc)
		},
	})
}
