package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"docvault/internal/scanner/camera"
)

type blockingCamera struct {
	release chan struct{}
	frame   camera.Frame
	err     error

	mu    sync.Mutex
	calls int
}

func (c *blockingCamera) Capture(ctx context.Context, quality float64) (camera.Frame, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.release != nil {
		<-c.release
	}
	return c.frame, c.err
}

func (c *blockingCamera) captureCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeStore struct {
	uploadErr    error
	referenceErr error
	reference    string

	mu         sync.Mutex
	uploads    int
	references int
	lastBucket string
	lastKey    string
	lastType   string
	lastBytes  []byte
}

func (s *fakeStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.lastBucket = bucket
	s.lastKey = key
	s.lastType = contentType
	s.lastBytes = data
	return s.uploadErr
}

func (s *fakeStore) PublicReference(ctx context.Context, bucket, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.references++
	if s.referenceErr != nil {
		return "", s.referenceErr
	}
	if s.reference != "" {
		return s.reference, nil
	}
	return "http://store.local/" + bucket + "/" + key, nil
}

type fakeRecorder struct {
	err error

	mu      sync.Mutex
	inserts int
	last    NewRecord
}

func (r *fakeRecorder) InsertDocument(ctx context.Context, rec NewRecord) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	r.last = rec
	if r.err != nil {
		return Record{}, r.err
	}
	return Record{
		ID:        "rec-1",
		Title:     rec.DocType + " Scan",
		DocType:   rec.DocType,
		ImageURL:  rec.ImageURL,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func newTestPipeline(cam camera.Camera, store *fakeStore, recorder *fakeRecorder) *Pipeline {
	return New(cam, store, recorder)
}

func TestScanHappyPath(t *testing.T) {
	cam := &blockingCamera{frame: camera.Frame{Bytes: []byte("jpeg")}}
	store := &fakeStore{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(cam, store, recorder)

	rec, err := p.Scan(context.Background(), "PAN")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if rec.ID == "" || rec.ImageURL == "" {
		t.Fatalf("incomplete record %+v", rec)
	}
	if store.lastBucket != DefaultBucket {
		t.Fatalf("bucket = %q", store.lastBucket)
	}
	if store.lastType != "image/jpeg" {
		t.Fatalf("content type = %q", store.lastType)
	}
	if !strings.HasSuffix(store.lastKey, ".jpg") {
		t.Fatalf("object key %q missing .jpg suffix", store.lastKey)
	}
	if recorder.last.DocType != "PAN" {
		t.Fatalf("recorded doc type = %q", recorder.last.DocType)
	}
	if p.Busy() {
		t.Fatalf("busy flag still set after success")
	}
}

func TestScanRequiresDocType(t *testing.T) {
	cam := &blockingCamera{frame: camera.Frame{Bytes: []byte("jpeg")}}
	p := newTestPipeline(cam, &fakeStore{}, &fakeRecorder{})

	if _, err := p.Scan(context.Background(), "  "); !errors.Is(err, ErrDocTypeRequired) {
		t.Fatalf("expected ErrDocTypeRequired, got %v", err)
	}
	if cam.captureCalls() != 0 {
		t.Fatalf("capture attempted without a document type")
	}
}

func TestScanRejectsConcurrentInvocation(t *testing.T) {
	cam := &blockingCamera{
		release: make(chan struct{}),
		frame:   camera.Frame{Bytes: []byte("jpeg")},
	}
	store := &fakeStore{}
	recorder := &fakeRecorder{}
	p := newTestPipeline(cam, store, recorder)

	done := make(chan error, 1)
	go func() {
		_, err := p.Scan(context.Background(), "PAN")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cam.captureCalls() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first scan never reached capture")
		}
		time.Sleep(time.Millisecond)
	}

	// Second invocation while the first is mid-capture.
	if _, err := p.Scan(context.Background(), "PAN"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if cam.captureCalls() != 1 {
		t.Fatalf("rejected scan still invoked the camera")
	}
	if store.uploads != 0 {
		t.Fatalf("rejected scan reached the object store")
	}

	close(cam.release)
	if err := <-done; err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if p.Busy() {
		t.Fatalf("busy flag still set after completion")
	}
}

func TestScanUploadFailureStopsPipeline(t *testing.T) {
	cam := &blockingCamera{frame: camera.Frame{Bytes: []byte("jpeg")}}
	store := &fakeStore{uploadErr: errors.New("connection reset")}
	recorder := &fakeRecorder{}
	p := newTestPipeline(cam, store, recorder)

	_, err := p.Scan(context.Background(), "PAN")
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepUpload {
		t.Fatalf("expected upload StepError, got %v", err)
	}
	if store.references != 0 {
		t.Fatalf("reference resolution ran after upload failure")
	}
	if recorder.inserts != 0 {
		t.Fatalf("metadata insert ran after upload failure")
	}
	if p.Busy() {
		t.Fatalf("busy flag not cleared after failure")
	}
}

func TestScanCaptureFailure(t *testing.T) {
	cam := &blockingCamera{err: camera.ErrNoFrame}
	store := &fakeStore{}
	p := newTestPipeline(cam, store, &fakeRecorder{})

	_, err := p.Scan(context.Background(), "PAN")
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepCapture {
		t.Fatalf("expected capture StepError, got %v", err)
	}
	if store.uploads != 0 {
		t.Fatalf("upload ran after capture failure")
	}
	if p.Busy() {
		t.Fatalf("busy flag not cleared after capture failure")
	}
}

func TestScanReferenceFailureSkipsInsert(t *testing.T) {
	cam := &blockingCamera{frame: camera.Frame{Bytes: []byte("jpeg")}}
	store := &fakeStore{referenceErr: errors.New("no url")}
	recorder := &fakeRecorder{}
	p := newTestPipeline(cam, store, recorder)

	_, err := p.Scan(context.Background(), "PAN")
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepReference {
		t.Fatalf("expected reference StepError, got %v", err)
	}
	if recorder.inserts != 0 {
		t.Fatalf("insert ran after reference failure")
	}
	// Uploaded bytes are intentionally left in place.
	if store.uploads != 1 {
		t.Fatalf("expected exactly one upload, got %d", store.uploads)
	}
}

func TestScanPersistFailure(t *testing.T) {
	cam := &blockingCamera{frame: camera.Frame{Bytes: []byte("jpeg")}}
	recorder := &fakeRecorder{err: errors.New("schema violation")}
	p := newTestPipeline(cam, &fakeStore{}, recorder)

	_, err := p.Scan(context.Background(), "PAN")
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepPersist {
		t.Fatalf("expected persist StepError, got %v", err)
	}
	if stepErr.Message() == "" {
		t.Fatalf("expected user-facing message")
	}
	if p.Busy() {
		t.Fatalf("busy flag not cleared after persist failure")
	}
}

func TestStepErrorMessages(t *testing.T) {
	for _, step := range []Step{StepCapture, StepUpload, StepReference, StepPersist} {
		e := &StepError{Step: step, Err: errors.New("boom")}
		if e.Message() == "" || e.Message() == "Scan failed." {
			t.Fatalf("step %q has no dedicated message", step)
		}
		if !strings.Contains(e.Error(), string(step)) {
			t.Fatalf("Error() should name the step, got %q", e.Error())
		}
	}
}
