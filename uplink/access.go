package uplink

import (
	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/ffi"
	"github.com/skystor/uplink-bridge/handle"
)

// ParseAccess deserializes an access grant and registers it.
func (c *Client) ParseAccess(serialized string) (*bridge.Future[handle.Handle], error) {
	return registerOp(c, "access.parse", handle.KindAccess,
		func() error {
			if serialized == "" {
				return errs.Validation("serialized access grant is empty")
			}
			return nil
		},
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.ParseAccess(serialized)
		})
}

// RequestAccessWithPassphrase dials the satellite and derives a fresh
// access grant.
func (c *Client) RequestAccessWithPassphrase(satellite, apiKey, passphrase string) (*bridge.Future[handle.Handle], error) {
	return registerOp(c, "access.request", handle.KindAccess,
		func() error { return validateAccessRequest(satellite, apiKey, passphrase) },
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.RequestAccessWithPassphrase(satellite, apiKey, passphrase)
		})
}

// RequestAccessWithPassphraseAndConfig is RequestAccessWithPassphrase
// with explicit dial configuration.
func (c *Client) RequestAccessWithPassphraseAndConfig(cfg ffi.Config, satellite, apiKey, passphrase string) (*bridge.Future[handle.Handle], error) {
	return registerOp(c, "access.requestWithConfig", handle.KindAccess,
		func() error { return validateAccessRequest(satellite, apiKey, passphrase) },
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.RequestAccessWithPassphraseAndConfig(cfg, satellite, apiKey, passphrase)
		})
}

func validateAccessRequest(satellite, apiKey, passphrase string) error {
	if satellite == "" {
		return errs.Validation("satellite address is empty")
	}
	if apiKey == "" {
		return errs.Validation("api key is empty")
	}
	if passphrase == "" {
		return errs.Validation("passphrase is empty")
	}
	return nil
}

// AccessSatelliteAddress reports the satellite node URL of a grant.
func (c *Client) AccessSatelliteAddress(h handle.Handle) (*bridge.Future[string], error) {
	acc, err := c.resolveAccess(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[string]{
		Name:    "access.satelliteAddress",
		Execute: acc.SatelliteAddress,
	})
}

// AccessSerialize encodes a grant for storage or transport.
func (c *Client) AccessSerialize(h handle.Handle) (*bridge.Future[string], error) {
	acc, err := c.resolveAccess(h)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[string]{
		Name:    "access.serialize",
		Execute: acc.Serialize,
	})
}

// AccessShare derives a restricted grant and registers it as a new
// access handle. Deep copies of perm and prefixes are taken at submit
// time, so the caller may reuse its slices.
func (c *Client) AccessShare(h handle.Handle, perm ffi.Permission, prefixes []ffi.SharePrefix) (*bridge.Future[handle.Handle], error) {
	acc, err := c.resolveAccess(h)
	if err != nil {
		return nil, err
	}
	owned := append([]ffi.SharePrefix(nil), prefixes...)
	return registerOp(c, "access.share", handle.KindAccess, nil,
		func() (ffi.Resource, *ffi.Error) {
			return acc.Share(perm, owned)
		})
}

// AccessOverrideEncryptionKey overrides the content key under one
// bucket/prefix of a grant, enabling path-scoped sharing.
func (c *Client) AccessOverrideEncryptionKey(h handle.Handle, bucket, prefix string, keyHandle handle.Handle) (*bridge.Future[struct{}], error) {
	acc, err := c.resolveAccess(h)
	if err != nil {
		return nil, err
	}
	key, err := c.resolveEncryptionKey(keyHandle)
	if err != nil {
		return nil, err
	}
	return bridge.Submit(c.br, bridge.Operation[struct{}]{
		Name: "access.overrideEncryptionKey",
		Validate: func() error {
			if bucket == "" {
				return errs.Validation("bucket name is empty")
			}
			return nil
		},
		Execute: func() (struct{}, *ffi.Error) {
			return struct{}{}, acc.OverrideEncryptionKey(bucket, prefix, key)
		},
	})
}

// FreeAccess releases a grant and forgets its handle.
func (c *Client) FreeAccess(h handle.Handle) (*bridge.Future[struct{}], error) {
	acc, err := c.resolveAccess(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "access.free", h, acc, func() *ffi.Error { return nil })
}

// DeriveEncryptionKey derives a salted key for use with
// AccessOverrideEncryptionKey and registers it.
func (c *Client) DeriveEncryptionKey(passphrase string, salt []byte) (*bridge.Future[handle.Handle], error) {
	owned := append([]byte(nil), salt...)
	return registerOp(c, "encryption.deriveKey", handle.KindEncryptionKey,
		func() error {
			if passphrase == "" {
				return errs.Validation("passphrase is empty")
			}
			if len(owned) == 0 {
				return errs.Validation("salt is empty")
			}
			return nil
		},
		func() (ffi.Resource, *ffi.Error) {
			return c.lib.DeriveEncryptionKey(passphrase, owned)
		})
}

// FreeEncryptionKey releases a derived key and forgets its handle.
func (c *Client) FreeEncryptionKey(h handle.Handle) (*bridge.Future[struct{}], error) {
	key, err := c.resolveEncryptionKey(h)
	if err != nil {
		return nil, err
	}
	return finishOp(c, "encryption.freeKey", h, key, func() *ffi.Error { return nil })
}
