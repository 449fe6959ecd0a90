package ffitest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skystor/uplink-bridge/ffi"
)

var (
	_ ffi.Access        = (*mockAccess)(nil)
	_ ffi.EncryptionKey = (*mockEncryptionKey)(nil)
	_ ffi.Project       = (*mockProject)(nil)
	_ ffi.Upload        = (*mockUpload)(nil)
	_ ffi.Download      = (*mockDownload)(nil)
	_ ffi.PartUpload    = (*mockPartUpload)(nil)
)

// --- access ---

type mockAccess struct {
	m          *Mock
	serialized string
	satellite  string
	restricted bool
	freed      bool
}

func (a *mockAccess) Free() { a.m.untrack(&a.freed) }

func (a *mockAccess) SatelliteAddress() (string, *ffi.Error) {
	if err := a.m.step("access.satelliteAddress"); err != nil {
		return "", err
	}
	return a.satellite, nil
}

func (a *mockAccess) Serialize() (string, *ffi.Error) {
	if err := a.m.step("access.serialize"); err != nil {
		return "", err
	}
	return a.serialized, nil
}

func (a *mockAccess) Share(perm ffi.Permission, prefixes []ffi.SharePrefix) (ffi.Access, *ffi.Error) {
	if err := a.m.step("access.share"); err != nil {
		return nil, err
	}
	if !perm.AllowDownload && !perm.AllowUpload && !perm.AllowList && !perm.AllowDelete {
		return nil, &ffi.Error{Code: ffi.ErrPermissionDenied, Message: "permission is empty"}
	}
	a.m.track()
	return &mockAccess{
		m:          a.m,
		serialized: a.serialized + "/restricted",
		satellite:  a.satellite,
		restricted: true,
	}, nil
}

func (a *mockAccess) OverrideEncryptionKey(bucket, prefix string, key ffi.EncryptionKey) *ffi.Error {
	if err := a.m.step("access.overrideEncryptionKey"); err != nil {
		return err
	}
	if _, ok := key.(*mockEncryptionKey); !ok || key == nil {
		return &ffi.Error{Code: ffi.ErrInternal, Message: "foreign encryption key"}
	}
	return nil
}

// --- encryption key ---

type mockEncryptionKey struct {
	m     *Mock
	freed bool
}

func (k *mockEncryptionKey) Free() { k.m.untrack(&k.freed) }

// --- project ---

type mockProject struct {
	m      *Mock
	closed bool
	freed  bool
}

func (p *mockProject) Free() { p.m.untrack(&p.freed) }

func (p *mockProject) Close() *ffi.Error {
	if err := p.step("project.close"); err != nil {
		return err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.closed = true
	return nil
}

// step runs the shared fault hooks and rejects use of a closed
// project, matching the native library.
func (p *mockProject) step(name string) *ffi.Error {
	if err := p.m.step(name); err != nil {
		return err
	}
	p.m.mu.Lock()
	closed := p.closed
	p.m.mu.Unlock()
	if closed {
		return &ffi.Error{Code: ffi.ErrInternal, Message: "project closed"}
	}
	return nil
}

func (p *mockProject) bucketLocked(name string) (*bucket, *ffi.Error) {
	b, ok := p.m.buckets[name]
	if !ok {
		return nil, &ffi.Error{Code: ffi.ErrBucketNotFound, Message: fmt.Sprintf("bucket %q not found", name)}
	}
	return b, nil
}

func validBucketName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " /")
}

func (p *mockProject) CreateBucket(name string) (*ffi.BucketInfo, *ffi.Error) {
	if err := p.step("project.createBucket"); err != nil {
		return nil, err
	}
	if !validBucketName(name) {
		return nil, &ffi.Error{Code: ffi.ErrBucketNameInvalid, Message: fmt.Sprintf("bucket name %q", name)}
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, exists := p.m.buckets[name]; exists {
		return nil, &ffi.Error{Code: ffi.ErrBucketAlreadyExists, Message: fmt.Sprintf("bucket %q already exists", name)}
	}
	b := &bucket{
		name:    name,
		created: now(),
		objects: make(map[string]*object),
		pending: make(map[string]*pendingUpload),
	}
	p.m.buckets[name] = b
	return &ffi.BucketInfo{Name: b.name, Created: b.created}, nil
}

func (p *mockProject) EnsureBucket(name string) (*ffi.BucketInfo, *ffi.Error) {
	if err := p.step("project.ensureBucket"); err != nil {
		return nil, err
	}
	if !validBucketName(name) {
		return nil, &ffi.Error{Code: ffi.ErrBucketNameInvalid, Message: fmt.Sprintf("bucket name %q", name)}
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, exists := p.m.buckets[name]
	if !exists {
		b = &bucket{
			name:    name,
			created: now(),
			objects: make(map[string]*object),
			pending: make(map[string]*pendingUpload),
		}
		p.m.buckets[name] = b
	}
	return &ffi.BucketInfo{Name: b.name, Created: b.created}, nil
}

func (p *mockProject) StatBucket(name string) (*ffi.BucketInfo, *ffi.Error) {
	if err := p.step("project.statBucket"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(name)
	if ferr != nil {
		return nil, ferr
	}
	return &ffi.BucketInfo{Name: b.name, Created: b.created}, nil
}

func (p *mockProject) DeleteBucket(name string) (*ffi.BucketInfo, *ffi.Error) {
	if err := p.step("project.deleteBucket"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(name)
	if ferr != nil {
		return nil, ferr
	}
	if len(b.objects) > 0 {
		return nil, &ffi.Error{Code: ffi.ErrBucketNotEmpty, Message: fmt.Sprintf("bucket %q is not empty", name)}
	}
	delete(p.m.buckets, name)
	return &ffi.BucketInfo{Name: b.name, Created: b.created}, nil
}

func (p *mockProject) DeleteBucketWithObjects(name string) (*ffi.BucketInfo, *ffi.Error) {
	if err := p.step("project.deleteBucketWithObjects"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(name)
	if ferr != nil {
		return nil, ferr
	}
	delete(p.m.buckets, name)
	return &ffi.BucketInfo{Name: b.name, Created: b.created}, nil
}

func (p *mockProject) ListBuckets(opts *ffi.ListBucketsOptions) ffi.Iterator[*ffi.BucketInfo] {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	names := make([]string, 0, len(p.m.buckets))
	for name := range p.m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]ffi.BucketInfo, 0, len(names))
	for _, name := range names {
		if opts != nil && opts.Cursor != "" && name <= opts.Cursor {
			continue
		}
		b := p.m.buckets[name]
		infos = append(infos, ffi.BucketInfo{Name: b.name, Created: b.created})
	}
	p.m.allocs++
	return &bucketIterator{m: p.m, op: "bucketIterator", infos: infos}
}

func (p *mockProject) StatObject(bucketName, key string) (*ffi.ObjectInfo, *ffi.Error) {
	if err := p.step("project.statObject"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	o, ok := b.objects[key]
	if !ok {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", key)}
	}
	return o.info(), nil
}

func (p *mockProject) DeleteObject(bucketName, key string) (*ffi.ObjectInfo, *ffi.Error) {
	if err := p.step("project.deleteObject"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	o, ok := b.objects[key]
	if !ok {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", key)}
	}
	delete(b.objects, key)
	return o.info(), nil
}

func (p *mockProject) CopyObject(srcBucket, srcKey, dstBucket, dstKey string) (*ffi.ObjectInfo, *ffi.Error) {
	if err := p.step("project.copyObject"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	sb, ferr := p.bucketLocked(srcBucket)
	if ferr != nil {
		return nil, ferr
	}
	src, ok := sb.objects[srcKey]
	if !ok {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", srcKey)}
	}
	db, ferr := p.bucketLocked(dstBucket)
	if ferr != nil {
		return nil, ferr
	}
	dst := &object{
		key:     dstKey,
		data:    append([]byte(nil), src.data...),
		created: now(),
		expires: src.expires,
		custom:  src.custom.Clone(),
	}
	db.objects[dstKey] = dst
	return dst.info(), nil
}

func (p *mockProject) MoveObject(srcBucket, srcKey, dstBucket, dstKey string) *ffi.Error {
	if err := p.step("project.moveObject"); err != nil {
		return err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	sb, ferr := p.bucketLocked(srcBucket)
	if ferr != nil {
		return ferr
	}
	src, ok := sb.objects[srcKey]
	if !ok {
		return &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", srcKey)}
	}
	db, ferr := p.bucketLocked(dstBucket)
	if ferr != nil {
		return ferr
	}
	delete(sb.objects, srcKey)
	src.key = dstKey
	db.objects[dstKey] = src
	return nil
}

func (p *mockProject) UpdateObjectMetadata(bucketName, key string, custom ffi.CustomMetadata) *ffi.Error {
	if err := p.step("project.updateObjectMetadata"); err != nil {
		return err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return ferr
	}
	o, ok := b.objects[key]
	if !ok {
		return &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", key)}
	}
	o.custom = custom.Clone()
	return nil
}

func (p *mockProject) ListObjects(bucketName string, opts *ffi.ListObjectsOptions) ffi.Iterator[*ffi.ObjectInfo] {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	var infos []ffi.ObjectInfo
	var openErr *ffi.Error
	b, ok := p.m.buckets[bucketName]
	if !ok {
		openErr = &ffi.Error{Code: ffi.ErrBucketNotFound, Message: fmt.Sprintf("bucket %q not found", bucketName)}
	} else {
		keys := make([]string, 0, len(b.objects))
		for key := range b.objects {
			if opts != nil && opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
				continue
			}
			if opts != nil && opts.Cursor != "" && key <= opts.Cursor {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			infos = append(infos, *b.objects[key].info())
		}
	}
	p.m.allocs++
	return &objectIterator{m: p.m, op: "objectIterator", infos: infos, err: openErr}
}

func (p *mockProject) UploadObject(bucketName, key string, opts *ffi.UploadOptions) (ffi.Upload, *ffi.Error) {
	if err := p.step("project.uploadObject"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ferr := p.bucketLocked(bucketName); ferr != nil {
		return nil, ferr
	}
	up := &mockUpload{m: p.m, bucket: bucketName, key: key}
	if opts != nil {
		up.expires = opts.Expires
	}
	p.m.allocs++
	return up, nil
}

func (p *mockProject) DownloadObject(bucketName, key string, opts *ffi.DownloadOptions) (ffi.Download, *ffi.Error) {
	if err := p.step("project.downloadObject"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	o, ok := b.objects[key]
	if !ok {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("object %q not found", key)}
	}

	data := o.data
	if opts != nil {
		off := opts.Offset
		if off < 0 {
			off = 0
		}
		if off > int64(len(data)) {
			off = int64(len(data))
		}
		data = data[off:]
		if opts.Length >= 0 && opts.Length < int64(len(data)) {
			data = data[:opts.Length]
		}
	}
	p.m.allocs++
	return &mockDownload{m: p.m, info: o.info(), data: append([]byte(nil), data...)}, nil
}

func (p *mockProject) BeginUpload(bucketName, key string, opts *ffi.UploadOptions) (*ffi.UploadInfo, *ffi.Error) {
	if err := p.step("project.beginUpload"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	p.m.nextID++
	pu := &pendingUpload{
		uploadID: fmt.Sprintf("mpu-%06d", p.m.nextID),
		key:      key,
		parts:    make(map[uint32]*partData),
	}
	if opts != nil {
		pu.expires = opts.Expires
	}
	b.pending[pu.uploadID] = pu
	return &ffi.UploadInfo{UploadID: pu.uploadID, Key: key, System: ffi.SystemMetadata{Created: now(), Expires: pu.expires}}, nil
}

func (p *mockProject) CommitUpload(bucketName, key, uploadID string, opts *ffi.CommitUploadOptions) (*ffi.ObjectInfo, *ffi.Error) {
	if err := p.step("project.commitUpload"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	pu, ok := b.pending[uploadID]
	if !ok || pu.key != key {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("upload %q not found", uploadID)}
	}

	numbers := make([]uint32, 0, len(pu.parts))
	for n := range pu.parts {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	var data []byte
	for _, n := range numbers {
		data = append(data, pu.parts[n].data...)
	}

	o := &object{key: key, data: data, created: now(), expires: pu.expires}
	if opts != nil {
		o.custom = opts.CustomMetadata.Clone()
	}
	b.objects[key] = o
	delete(b.pending, uploadID)
	return o.info(), nil
}

func (p *mockProject) AbortUpload(bucketName, key, uploadID string) *ffi.Error {
	if err := p.step("project.abortUpload"); err != nil {
		return err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return ferr
	}
	if _, ok := b.pending[uploadID]; !ok {
		return &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("upload %q not found", uploadID)}
	}
	delete(b.pending, uploadID)
	return nil
}

func (p *mockProject) UploadPart(bucketName, key, uploadID string, partNumber uint32) (ffi.PartUpload, *ffi.Error) {
	if err := p.step("project.uploadPart"); err != nil {
		return nil, err
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	b, ferr := p.bucketLocked(bucketName)
	if ferr != nil {
		return nil, ferr
	}
	pu, ok := b.pending[uploadID]
	if !ok || pu.key != key {
		return nil, &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("upload %q not found", uploadID)}
	}
	p.m.allocs++
	return &mockPartUpload{m: p.m, pending: pu, number: partNumber}, nil
}

func (p *mockProject) ListUploadParts(bucketName, key, uploadID string, opts *ffi.ListUploadPartsOptions) ffi.Iterator[*ffi.PartInfo] {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	var infos []ffi.PartInfo
	var openErr *ffi.Error
	b, ok := p.m.buckets[bucketName]
	if !ok {
		openErr = &ffi.Error{Code: ffi.ErrBucketNotFound, Message: fmt.Sprintf("bucket %q not found", bucketName)}
	} else if pu, ok := b.pending[uploadID]; !ok {
		openErr = &ffi.Error{Code: ffi.ErrObjectNotFound, Message: fmt.Sprintf("upload %q not found", uploadID)}
	} else {
		numbers := make([]uint32, 0, len(pu.parts))
		for n := range pu.parts {
			if opts != nil && n <= opts.Cursor && opts.Cursor > 0 {
				continue
			}
			numbers = append(numbers, n)
		}
		sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
		for _, n := range numbers {
			pd := pu.parts[n]
			infos = append(infos, ffi.PartInfo{
				PartNumber: pd.number,
				Size:       int64(len(pd.data)),
				Modified:   pd.modified,
				ETag:       pd.etag,
			})
		}
	}
	p.m.allocs++
	return &partIterator{m: p.m, op: "partIterator", infos: infos, err: openErr}
}

func (p *mockProject) ListUploads(bucketName string, opts *ffi.ListUploadsOptions) ffi.Iterator[*ffi.UploadInfo] {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	var infos []ffi.UploadInfo
	var openErr *ffi.Error
	b, ok := p.m.buckets[bucketName]
	if !ok {
		openErr = &ffi.Error{Code: ffi.ErrBucketNotFound, Message: fmt.Sprintf("bucket %q not found", bucketName)}
	} else {
		ids := make([]string, 0, len(b.pending))
		for id := range b.pending {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			pu := b.pending[id]
			if opts != nil && opts.Prefix != "" && !strings.HasPrefix(pu.key, opts.Prefix) {
				continue
			}
			infos = append(infos, ffi.UploadInfo{UploadID: pu.uploadID, Key: pu.key})
		}
	}
	p.m.allocs++
	return &uploadIterator{m: p.m, op: "uploadIterator", infos: infos, err: openErr}
}

func (p *mockProject) RevokeAccess(access ffi.Access) *ffi.Error {
	if err := p.step("project.revokeAccess"); err != nil {
		return err
	}
	a, ok := access.(*mockAccess)
	if !ok || a == nil {
		return &ffi.Error{Code: ffi.ErrInternal, Message: "foreign access grant"}
	}
	if !a.restricted {
		return &ffi.Error{Code: ffi.ErrPermissionDenied, Message: "cannot revoke a root grant"}
	}
	return nil
}

func (o *object) info() *ffi.ObjectInfo {
	return &ffi.ObjectInfo{
		Key: o.key,
		System: ffi.SystemMetadata{
			Created:       o.created,
			Expires:       o.expires,
			ContentLength: int64(len(o.data)),
		},
		Custom: o.custom.Clone(),
	}
}
