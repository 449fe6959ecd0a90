package ffi

// Library is the entry surface of the native storage client. Every
// method blocks until the native call returns and reports failure as a
// *Error, never by panicking.
type Library interface {
	// ParseAccess deserializes an access grant.
	ParseAccess(serialized string) (Access, *Error)

	// RequestAccessWithPassphrase dials the satellite and derives a new
	// access grant.
	RequestAccessWithPassphrase(satellite, apiKey, passphrase string) (Access, *Error)

	// RequestAccessWithPassphraseAndConfig is RequestAccessWithPassphrase
	// with explicit dial configuration.
	RequestAccessWithPassphraseAndConfig(cfg Config, satellite, apiKey, passphrase string) (Access, *Error)

	// OpenProject opens a project using an access grant.
	OpenProject(access Access) (Project, *Error)

	// OpenProjectWithConfig is OpenProject with explicit dial
	// configuration.
	OpenProjectWithConfig(cfg Config, access Access) (Project, *Error)

	// DeriveEncryptionKey derives a salted key for path encryption
	// overrides.
	DeriveEncryptionKey(passphrase string, salt []byte) (EncryptionKey, *Error)

	// RegisterEdgeAccess registers an access grant with an edge auth
	// service and returns gateway credentials.
	RegisterEdgeAccess(cfg EdgeConfig, access Access, opts *EdgeRegisterOptions) (*EdgeCredentials, *Error)

	// JoinShareURL builds a shareable URL from registered credentials.
	JoinShareURL(baseURL, accessKeyID, bucket, key string, opts *EdgeShareURLOptions) (string, *Error)
}

// Access is a parsed access grant.
type Access interface {
	Resource

	// SatelliteAddress reports the grant's satellite node URL.
	SatelliteAddress() (string, *Error)

	// Serialize encodes the grant for storage or transport.
	Serialize() (string, *Error)

	// Share derives a restricted grant.
	Share(perm Permission, prefixes []SharePrefix) (Access, *Error)

	// OverrideEncryptionKey overrides the key used under one
	// bucket/prefix, enabling path-scoped sharing.
	OverrideEncryptionKey(bucket, prefix string, key EncryptionKey) *Error
}

// EncryptionKey is an opaque derived key.
type EncryptionKey interface {
	Resource
}

// Project is an open project session; all bucket, object, upload and
// download operations hang off it.
type Project interface {
	Resource

	// Close flushes and shuts down the session. Free must still be
	// called afterwards.
	Close() *Error

	CreateBucket(name string) (*BucketInfo, *Error)
	EnsureBucket(name string) (*BucketInfo, *Error)
	StatBucket(name string) (*BucketInfo, *Error)
	DeleteBucket(name string) (*BucketInfo, *Error)
	DeleteBucketWithObjects(name string) (*BucketInfo, *Error)

	// ListBuckets opens a bucket cursor. The cursor itself never
	// fails to open; dial errors surface through Err.
	ListBuckets(opts *ListBucketsOptions) Iterator[*BucketInfo]

	StatObject(bucket, key string) (*ObjectInfo, *Error)
	DeleteObject(bucket, key string) (*ObjectInfo, *Error)
	CopyObject(srcBucket, srcKey, dstBucket, dstKey string) (*ObjectInfo, *Error)
	MoveObject(srcBucket, srcKey, dstBucket, dstKey string) *Error
	UpdateObjectMetadata(bucket, key string, custom CustomMetadata) *Error

	// ListObjects opens an object cursor under a bucket.
	ListObjects(bucket string, opts *ListObjectsOptions) Iterator[*ObjectInfo]

	UploadObject(bucket, key string, opts *UploadOptions) (Upload, *Error)
	DownloadObject(bucket, key string, opts *DownloadOptions) (Download, *Error)

	BeginUpload(bucket, key string, opts *UploadOptions) (*UploadInfo, *Error)
	CommitUpload(bucket, key, uploadID string, opts *CommitUploadOptions) (*ObjectInfo, *Error)
	AbortUpload(bucket, key, uploadID string) *Error
	UploadPart(bucket, key, uploadID string, partNumber uint32) (PartUpload, *Error)

	// ListUploadParts opens a cursor over committed parts of one
	// multipart upload.
	ListUploadParts(bucket, key, uploadID string, opts *ListUploadPartsOptions) Iterator[*PartInfo]

	// ListUploads opens a cursor over pending multipart uploads.
	ListUploads(bucket string, opts *ListUploadsOptions) Iterator[*UploadInfo]

	// RevokeAccess revokes a derived grant satellite-side.
	RevokeAccess(access Access) *Error
}

// Upload is an in-progress single-part upload.
type Upload interface {
	Resource

	// Write appends len(p) bytes from p. On failure the returned count
	// is the bytes accepted before the error.
	Write(p []byte) (int64, *Error)

	Commit() *Error
	Abort() *Error
	SetCustomMetadata(custom CustomMetadata) *Error
	Info() (*ObjectInfo, *Error)
}

// Download is an in-progress download.
type Download interface {
	Resource

	// Read fills p and reports the bytes read. At end of stream it
	// returns an *Error with code ErrEOF alongside any final bytes.
	Read(p []byte) (int64, *Error)

	Info() (*ObjectInfo, *Error)
	Close() *Error
}

// PartUpload is an in-progress part of a multipart upload.
type PartUpload interface {
	Resource

	// Write appends len(p) bytes from p. On failure the returned count
	// is the bytes accepted before the error.
	Write(p []byte) (int64, *Error)

	Commit() *Error
	Abort() *Error
	SetETag(etag string) *Error
	Info() (*PartInfo, *Error)
}
