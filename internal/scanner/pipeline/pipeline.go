package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"docvault/internal/scanner/camera"
	"docvault/internal/shared/metrics"
)

const (
	// DefaultBucket is where captured scans land.
	DefaultBucket = "doc_images"
	// DefaultQuality is the reduced capture quality hint.
	DefaultQuality = 0.5

	contentType = "image/jpeg"
)

// ErrBusy is returned when a scan is requested while one is in flight.
var ErrBusy = errors.New("a scan is already in progress")

// ErrDocTypeRequired is returned when no document type was supplied.
var ErrDocTypeRequired = errors.New("document type is required")

// Step identifies the pipeline stage that failed.
type Step string

const (
	StepCapture   Step = "capture"
	StepUpload    Step = "upload"
	StepReference Step = "reference"
	StepPersist   Step = "persist"
)

// StepError wraps a collaborator failure with the stage it occurred in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Message is the single user-facing description of the failure.
func (e *StepError) Message() string {
	switch e.Step {
	case StepCapture:
		return "Could not capture an image. Check camera access and try again."
	case StepUpload:
		return "Upload failed. The scan was not saved."
	case StepReference:
		return "The scan was uploaded but could not be linked. Try again."
	case StepPersist:
		return "The scan could not be recorded in your vault."
	default:
		return "Scan failed."
	}
}

// Record is the persisted document returned on success.
type Record struct {
	ID        string
	Title     string
	DocType   string
	ImageURL  string
	CreatedAt time.Time
}

// NewRecord carries the fields for the metadata insert.
type NewRecord struct {
	Title    string
	DocType  string
	ImageURL string
}

// ObjectStore is the object-storage collaborator contract.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicReference(ctx context.Context, bucket, key string) (string, error)
}

// Recorder is the row-store collaborator contract.
type Recorder interface {
	InsertDocument(ctx context.Context, rec NewRecord) (Record, error)
}

// Pipeline runs capture, upload, reference resolution and metadata insert
// strictly in order. At most one run is in flight; concurrent invocations
// are rejected, not queued. No step is retried and an uploaded object is
// not deleted when a later step fails.
type Pipeline struct {
	Camera  camera.Camera
	Store   ObjectStore
	Records Recorder
	Bucket  string
	Quality float64

	busy atomic.Bool
	now  func() time.Time
}

// New constructs a Pipeline with default bucket and quality.
func New(cam camera.Camera, store ObjectStore, records Recorder) *Pipeline {
	return &Pipeline{
		Camera:  cam,
		Store:   store,
		Records: records,
		Bucket:  DefaultBucket,
		Quality: DefaultQuality,
	}
}

// Scan executes one capture-upload sequence for the given document type and
// returns the created record. The title defaults server-side from the type.
func (p *Pipeline) Scan(ctx context.Context, docType string) (Record, error) {
	if strings.TrimSpace(docType) == "" {
		return Record{}, ErrDocTypeRequired
	}

	if !p.busy.CompareAndSwap(false, true) {
		metrics.IncScanRejected()
		return Record{}, ErrBusy
	}
	defer p.busy.Store(false)

	metrics.IncScanStarted()
	started := time.Now()

	frame, err := p.Camera.Capture(ctx, p.quality())
	if err != nil {
		metrics.IncScanFailed()
		return Record{}, &StepError{Step: StepCapture, Err: err}
	}

	key := p.objectKey()
	if err := p.Store.Upload(ctx, p.bucket(), key, frame.Bytes, contentType); err != nil {
		metrics.IncScanFailed()
		return Record{}, &StepError{Step: StepUpload, Err: err}
	}

	imageURL, err := p.Store.PublicReference(ctx, p.bucket(), key)
	if err != nil {
		metrics.IncScanFailed()
		return Record{}, &StepError{Step: StepReference, Err: err}
	}

	rec, err := p.Records.InsertDocument(ctx, NewRecord{
		DocType:  docType,
		ImageURL: imageURL,
	})
	if err != nil {
		metrics.IncScanFailed()
		return Record{}, &StepError{Step: StepPersist, Err: err}
	}

	metrics.IncScanCompleted()
	metrics.ObserveScanDurationMs(float64(time.Since(started).Milliseconds()))
	return rec, nil
}

// Busy reports whether a scan is currently in flight.
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

// objectKey derives a collision-resistant key from the current time.
func (p *Pipeline) objectKey() string {
	clock := p.now
	if clock == nil {
		clock = time.Now
	}
	return fmt.Sprintf("%d.jpg", clock().UnixMilli())
}

func (p *Pipeline) bucket() string {
	if p.Bucket == "" {
		return DefaultBucket
	}
	return p.Bucket
}

func (p *Pipeline) quality() float64 {
	if p.Quality <= 0 || p.Quality > 1 {
		return DefaultQuality
	}
	return p.Quality
}
