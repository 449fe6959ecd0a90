package ffitest

import (
	"fmt"
	"sync"
	"time"

	"github.com/skystor/uplink-bridge/ffi"
)

var _ ffi.Library = (*Mock)(nil)

// Mock is an in-memory native storage client.
type Mock struct {
	mu sync.Mutex

	satellite string
	buckets   map[string]*bucket
	nextID    int

	allocs     int
	frees      int
	doubleFree int

	failNext map[string]*ffi.Error
	gates    map[string]chan struct{}
}

type bucket struct {
	name    string
	created int64
	objects map[string]*object
	pending map[string]*pendingUpload
}

type object struct {
	key     string
	data    []byte
	created int64
	expires int64
	custom  ffi.CustomMetadata
}

type pendingUpload struct {
	uploadID string
	key      string
	expires  int64
	custom   ffi.CustomMetadata
	parts    map[uint32]*partData
}

type partData struct {
	number   uint32
	data     []byte
	etag     string
	modified int64
}

// New creates an empty mock universe.
func New() *Mock {
	return &Mock{
		satellite: "sat.mock.test:7777",
		buckets:   make(map[string]*bucket),
		failNext:  make(map[string]*ffi.Error),
		gates:     make(map[string]chan struct{}),
	}
}

// FailNext arranges for the next call of op to return err.
func (m *Mock) FailNext(op string, err *ffi.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = err
}

// GateOp blocks every call of op until the returned release func runs.
func (m *Mock) GateOp(op string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[op] = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.gates, op)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Allocs reports the number of native resources created.
func (m *Mock) Allocs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocs
}

// Frees reports the number of native resources released.
func (m *Mock) Frees() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frees
}

// DoubleFrees reports how many times Free ran on an already-freed
// resource.
func (m *Mock) DoubleFrees() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doubleFree
}

// UniverseIsEmpty reports whether every allocated resource was freed.
func (m *Mock) UniverseIsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocs == m.frees
}

// step applies the blocking gate and one-shot error injection for op.
// It must be called before m.mu is held, since a gated call parks here.
func (m *Mock) step(op string) *ffi.Error {
	m.mu.Lock()
	gate := m.gates[op]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failNext[op]; ok {
		delete(m.failNext, op)
		return err
	}
	return nil
}

// track registers a resource birth. Callers hold m.mu or tolerate the
// lock here.
func (m *Mock) track() {
	m.mu.Lock()
	m.allocs++
	m.mu.Unlock()
}

// untrack registers a resource death; freed reports a prior Free.
func (m *Mock) untrack(freed *bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *freed {
		m.doubleFree++
		return
	}
	*freed = true
	m.frees++
}

func now() int64 { return time.Now().Unix() }

// --- ffi.Library ---

func (m *Mock) ParseAccess(serialized string) (ffi.Access, *ffi.Error) {
	if err := m.step("library.parseAccess"); err != nil {
		return nil, err
	}
	if serialized == "" {
		return nil, &ffi.Error{Code: ffi.ErrInternal, Message: "malformed access grant"}
	}
	m.track()
	return &mockAccess{m: m, serialized: serialized, satellite: m.satellite}, nil
}

func (m *Mock) RequestAccessWithPassphrase(satellite, apiKey, passphrase string) (ffi.Access, *ffi.Error) {
	if err := m.step("library.requestAccess"); err != nil {
		return nil, err
	}
	m.track()
	return &mockAccess{
		m:          m,
		serialized: fmt.Sprintf("grant(%s/%s)", satellite, apiKey),
		satellite:  satellite,
	}, nil
}

func (m *Mock) RequestAccessWithPassphraseAndConfig(cfg ffi.Config, satellite, apiKey, passphrase string) (ffi.Access, *ffi.Error) {
	return m.RequestAccessWithPassphrase(satellite, apiKey, passphrase)
}

func (m *Mock) OpenProject(access ffi.Access) (ffi.Project, *ffi.Error) {
	if err := m.step("library.openProject"); err != nil {
		return nil, err
	}
	if _, ok := access.(*mockAccess); !ok || access == nil {
		return nil, &ffi.Error{Code: ffi.ErrInternal, Message: "foreign access grant"}
	}
	m.track()
	return &mockProject{m: m}, nil
}

func (m *Mock) OpenProjectWithConfig(cfg ffi.Config, access ffi.Access) (ffi.Project, *ffi.Error) {
	return m.OpenProject(access)
}

func (m *Mock) DeriveEncryptionKey(passphrase string, salt []byte) (ffi.EncryptionKey, *ffi.Error) {
	if err := m.step("library.deriveEncryptionKey"); err != nil {
		return nil, err
	}
	m.track()
	return &mockEncryptionKey{m: m}, nil
}

func (m *Mock) RegisterEdgeAccess(cfg ffi.EdgeConfig, access ffi.Access, opts *ffi.EdgeRegisterOptions) (*ffi.EdgeCredentials, *ffi.Error) {
	if err := m.step("library.registerEdgeAccess"); err != nil {
		return nil, err
	}
	if cfg.AuthServiceAddress == "" {
		return nil, &ffi.Error{Code: ffi.ErrEdgeAuthDialFailed, Message: "no auth service address"}
	}
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()
	return &ffi.EdgeCredentials{
		AccessKeyID: fmt.Sprintf("ak-%06d", id),
		SecretKey:   fmt.Sprintf("sk-%06d", id),
		Endpoint:    "https://gateway.mock.test",
	}, nil
}

func (m *Mock) JoinShareURL(baseURL, accessKeyID, bucket, key string, opts *ffi.EdgeShareURLOptions) (string, *ffi.Error) {
	if err := m.step("library.joinShareURL"); err != nil {
		return "", err
	}
	if baseURL == "" || accessKeyID == "" {
		return "", &ffi.Error{Code: ffi.ErrInternal, Message: "missing base url or access key"}
	}
	url := baseURL + "/s/" + accessKeyID
	if bucket != "" {
		url += "/" + bucket
		if key != "" {
			url += "/" + key
		}
	}
	return url, nil
}
