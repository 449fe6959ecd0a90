package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// EdgeRegisterAccess registers an access grant with an edge auth
// service and resolves with gateway credentials. Credentials are plain
// values; nothing is registered.
func (c *Client) EdgeRegisterAccess(cfg ffi.EdgeConfig, accessHandle handle.Handle, opts *ffi.EdgeRegisterOptions) (*bridge.Future[*ffi.EdgeCredentials], error) {
	acc, err := c.resolveAccess(accessHandle)
	if err != nil {
		return nil, err
	}
	ownedCfg := cfg
	ownedCfg.CertificatePEM = append([]byte(nil), cfg.CertificatePEM...)
	var owned *ffi.EdgeRegisterOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return bridge.Submit(c.br, bridge.Operation[*ffi.EdgeCredentials]{
		Name: "edge.registerAccess",
		Validate: func() error {
			if ownedCfg.AuthServiceAddress == "" {
				return errs.Validation("auth service address is empty")
			}
			return nil
		},
		Execute: func() (*ffi.EdgeCredentials, *ffi.Error) {
			return c.lib.RegisterEdgeAccess(ownedCfg, acc, owned)
		},
		Complete: func(creds *ffi.EdgeCredentials) (*ffi.EdgeCredentials, error) {
			out := *creds
			return &out, nil
		},
	})
}

// EdgeJoinShareURL builds a shareable URL from registered credentials.
func (c *Client) EdgeJoinShareURL(baseURL, accessKeyID, bucket, key string, opts *ffi.EdgeShareURLOptions) (*bridge.Future[string], error) {
	var owned *ffi.EdgeShareURLOptions
	if opts != nil {
		o := *opts
		owned = &o
	}
	return bridge.Submit(c.br, bridge.Operation[string]{
		Name: "edge.joinShareURL",
		Validate: func() error {
			if baseURL == "" {
				return errs.Validation("base url is empty")
			}
			if accessKeyID == "" {
				return errs.Validation("access key id is empty")
			}
			return nil
		},
		Execute: func() (string, *ffi.Error) {
			return c.lib.JoinShareURL(baseURL, accessKeyID, bucket, key, owned)
		},
	})
}
