package ffi

// Resource is any native object that must be released exactly once.
// Free is idempotent in the real binding but callers must still treat
// a second Free as a bug; the test double counts calls to catch it.
type Resource interface {
	Free()
}

// Cursor is the untyped face of a native streaming iterator. Next
// advances and reports whether an item is available; it never fails on
// ordinary exhaustion. Err reports the error that ended iteration, or
// nil when the stream was simply exhausted. Free releases the cursor
// and is safe after exhaustion, after an error, or mid-walk.
type Cursor interface {
	Resource
	Next() bool
	Err() *Error
}

// Iterator is a Cursor yielding items of type T. Item is only
// meaningful immediately after a Next that returned true, and the
// returned value is borrowed: the native library invalidates its
// backing memory on the following Next call.
type Iterator[T any] interface {
	Cursor
	Item() T
}

// SystemMetadata is the library-maintained portion of object metadata.
// Timestamps are Unix seconds; Expires is zero when unset.
type SystemMetadata struct {
	Created       int64
	Expires       int64
	ContentLength int64
}

// CustomMetadata is caller-defined string metadata attached to objects.
type CustomMetadata map[string]string

// Clone returns an independently owned copy.
func (m CustomMetadata) Clone() CustomMetadata {
	if m == nil {
		return nil
	}
	out := make(CustomMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// BucketInfo describes one bucket.
type BucketInfo struct {
	Name    string
	Created int64
}

// Clone returns an independently owned copy.
func (b *BucketInfo) Clone() *BucketInfo {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

// ObjectInfo describes one object or prefix.
type ObjectInfo struct {
	Key      string
	IsPrefix bool
	System   SystemMetadata
	Custom   CustomMetadata
}

// Clone returns an independently owned copy, including custom metadata.
func (o *ObjectInfo) Clone() *ObjectInfo {
	if o == nil {
		return nil
	}
	out := *o
	out.Custom = o.Custom.Clone()
	return &out
}

// UploadInfo describes one pending multipart upload.
type UploadInfo struct {
	UploadID string
	Key      string
	IsPrefix bool
	System   SystemMetadata
	Custom   CustomMetadata
}

// Clone returns an independently owned copy.
func (u *UploadInfo) Clone() *UploadInfo {
	if u == nil {
		return nil
	}
	out := *u
	out.Custom = u.Custom.Clone()
	return &out
}

// PartInfo describes one committed part of a multipart upload.
type PartInfo struct {
	PartNumber uint32
	Size       int64
	Modified   int64
	ETag       string
}

// Clone returns an independently owned copy.
func (p *PartInfo) Clone() *PartInfo {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

// Permission restricts what a shared access grant may do.
type Permission struct {
	AllowDownload bool
	AllowUpload   bool
	AllowList     bool
	AllowDelete   bool

	// NotBefore/NotAfter bound the grant's validity, Unix seconds,
	// zero meaning unbounded.
	NotBefore int64
	NotAfter  int64
}

// SharePrefix limits a shared grant to one bucket and key prefix.
type SharePrefix struct {
	Bucket string
	Prefix string
}

// Config carries dial options for access requests and project opens.
type Config struct {
	UserAgent            string
	DialTimeoutMillis    int32
	TempDirectory        string
	ChunkSize            int32
	MaximumConcurrency   int32
	DisableQUIC          bool
	DisableTCPFastOpen   bool
	SatelliteConnPoolCap int32
}

// EdgeConfig addresses an edge auth service.
type EdgeConfig struct {
	AuthServiceAddress string
	CertificatePEM     []byte
	InsecureSkipVerify bool
}

// EdgeRegisterOptions controls credential registration.
type EdgeRegisterOptions struct {
	IsPublic bool
}

// EdgeCredentials are gateway credentials minted for an access grant.
type EdgeCredentials struct {
	AccessKeyID string
	SecretKey   string
	Endpoint    string
}

// EdgeShareURLOptions controls share URL construction.
type EdgeShareURLOptions struct {
	Raw bool
}

// ListBucketsOptions positions a bucket listing.
type ListBucketsOptions struct {
	Cursor string
}

// ListObjectsOptions filters and positions an object listing.
type ListObjectsOptions struct {
	Prefix    string
	Cursor    string
	Recursive bool
	System    bool
	Custom    bool
}

// ListUploadsOptions filters and positions a pending-upload listing.
type ListUploadsOptions struct {
	Prefix    string
	Cursor    string
	Recursive bool
	System    bool
	Custom    bool
}

// ListUploadPartsOptions positions a part listing.
type ListUploadPartsOptions struct {
	Cursor uint32
}

// UploadOptions controls a new upload. Expires is Unix seconds, zero
// meaning the object never expires.
type UploadOptions struct {
	Expires int64
}

// DownloadOptions selects a byte range. Length < 0 reads to the end.
type DownloadOptions struct {
	Offset int64
	Length int64
}

// CommitUploadOptions attaches metadata when committing a multipart
// upload.
type CommitUploadOptions struct {
	CustomMetadata CustomMetadata
}
