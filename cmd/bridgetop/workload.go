package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/skystor/uplink-bridge/bridge"
	"github.com/skystor/uplink-bridge/errs"
	"github.com/skystor/uplink-bridge/handle"
	"github.com/skystor/uplink-bridge/uplink"
)

// workload keeps a configurable number of writer goroutines uploading,
// downloading, listing and deleting objects so every bridge path stays
// exercised while the monitor watches.
type workload struct {
	client  *uplink.Client
	cfg     config
	project handle.Handle

	wg       sync.WaitGroup
	opCount  atomic.Uint64
	errCount atomic.Uint64
}

func newWorkload(client *uplink.Client, cfg config) *workload {
	return &workload{client: client, cfg: cfg}
}

func (w *workload) ops() uint64    { return w.opCount.Load() }
func (w *workload) errors() uint64 { return w.errCount.Load() }

// prepare opens a session and creates the working buckets.
func (w *workload) prepare(ctx context.Context) error {
	fut, err := w.client.RequestAccessWithPassphrase("sat.local:7777", "apikey", "passphrase")
	if err != nil {
		return err
	}
	acc, err := fut.Await(ctx)
	if err != nil {
		return err
	}
	pfut, err := w.client.OpenProject(acc)
	if err != nil {
		return err
	}
	w.project, err = pfut.Await(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < w.cfg.Buckets; i++ {
		bfut, err := w.client.EnsureBucket(w.project, bucketName(i))
		if err != nil {
			return err
		}
		if _, err := bfut.Await(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *workload) start(ctx context.Context) {
	for i := 0; i < w.cfg.Writers; i++ {
		w.wg.Add(1)
		go func(seed int64) {
			defer w.wg.Done()
			w.writer(ctx, rand.New(rand.NewSource(seed)))
		}(int64(i) + 1)
	}
}

func (w *workload) wait() { w.wg.Wait() }

func (w *workload) writer(ctx context.Context, rng *rand.Rand) {
	payload := make([]byte, w.cfg.PayloadBytes)
	rng.Read(payload)

	for n := 0; ctx.Err() == nil; n++ {
		bucket := bucketName(rng.Intn(w.cfg.Buckets))
		key := fmt.Sprintf("obj-%06d", rng.Intn(512))

		var err error
		switch n % 4 {
		case 0, 1:
			err = w.roundTrip(ctx, bucket, key, payload)
		case 2:
			_, err = w.client.CollectObjects(ctx, w.project, bucket, nil)
		case 3:
			err = w.drop(ctx, bucket, key)
		}

		w.opCount.Add(1)
		if err != nil && ctx.Err() == nil && !benign(err) {
			w.errCount.Add(1)
		}
	}
}

// roundTrip uploads one object and reads it back to end of stream.
func (w *workload) roundTrip(ctx context.Context, bucket, key string, payload []byte) error {
	upFut, err := w.client.UploadObject(w.project, bucket, key, nil)
	if err != nil {
		return err
	}
	up, err := upFut.Await(ctx)
	if err != nil {
		return err
	}
	writeFut, writeErr := w.client.UploadWrite(up, payload)
	if err := awaitOp(ctx, writeFut, writeErr); err != nil {
		abortFut, abortErr := w.client.UploadAbort(up)
		_ = awaitOp(ctx, abortFut, abortErr)
		return err
	}
	commitFut, commitErr := w.client.UploadCommit(up)
	if err := awaitOp(ctx, commitFut, commitErr); err != nil {
		return err
	}

	dlFut, err := w.client.DownloadObject(w.project, bucket, key, nil)
	if err != nil {
		return err
	}
	dl, err := dlFut.Await(ctx)
	if err != nil {
		return err
	}
	buf := make([]byte, 4096)
	for {
		readFut, readErr := w.client.DownloadRead(dl, buf)
		err := awaitOp(ctx, readFut, readErr)
		if err == nil {
			continue
		}
		if !errs.Is(err, errs.CodeEOF) {
			closeFut, closeErr := w.client.CloseDownload(dl)
			_ = awaitOp(ctx, closeFut, closeErr)
			return err
		}
		break
	}
	closeFut, closeErr := w.client.CloseDownload(dl)
	return awaitOp(ctx, closeFut, closeErr)
}

func (w *workload) drop(ctx context.Context, bucket, key string) error {
	fut, err := w.client.DeleteObject(w.project, bucket, key)
	if err != nil {
		return err
	}
	_, err = fut.Await(ctx)
	return err
}

// awaitOp flattens the submit-then-await pair for ops whose value the
// workload does not care about.
func awaitOp[T any](ctx context.Context, fut *bridge.Future[T], err error) error {
	if err != nil {
		return err
	}
	_, err = fut.Await(ctx)
	return err
}

// benign errors are expected churn, not bridge failures.
func benign(err error) bool {
	return errs.Is(err, errs.CodeObjectNotFound) ||
		errs.Is(err, errs.CodeCanceled) ||
		errs.Is(err, errs.CodeConcurrentAccess)
}

func bucketName(i int) string { return fmt.Sprintf("load-%02d", i) }
