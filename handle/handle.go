package handle

// Kind tags a handle with the native resource type it stands for. A
// handle only resolves when presented with its own kind, so a wrongly
// routed handle surfaces as InvalidHandle instead of memory corruption.
type Kind uint8

const (
	KindAccess Kind = iota + 1
	KindProject
	KindUpload
	KindDownload
	KindPartUpload
	KindEncryptionKey
	KindBucketIterator
	KindObjectIterator
	KindPartIterator
	KindUploadIterator
)

var kindNames = [...]string{
	KindAccess:         "Access",
	KindProject:        "Project",
	KindUpload:         "Upload",
	KindDownload:       "Download",
	KindPartUpload:     "PartUpload",
	KindEncryptionKey:  "EncryptionKey",
	KindBucketIterator: "BucketIterator",
	KindObjectIterator: "ObjectIterator",
	KindPartIterator:   "PartIterator",
	KindUploadIterator: "UploadIterator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// Handle is the opaque value callers hold in place of a native
// resource. The zero Handle is reserved and never resolves. Handles are
// comparable and must be passed back unmodified.
//
// The id is a slot index; gen distinguishes reuses of the same slot so
// a stale handle kept past Release can never alias a newer resource.
type Handle struct {
	id   uint32
	gen  uint32
	kind Kind
}

// Kind reports the resource type this handle was allocated for.
func (h Handle) Kind() Kind { return h.kind }

// IsZero reports whether h is the reserved invalid handle.
func (h Handle) IsZero() bool { return h == Handle{} }

func (h Handle) String() string {
	if h.IsZero() {
		return "Handle(zero)"
	}
	return h.kind.String() + "#" + itoa(h.id) + "." + itoa(h.gen)
}

// itoa avoids pulling fmt into the hot path String.
func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
