package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCameraReadsFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	frame, err := FileCamera{Path: path}.Capture(context.Background(), 0.5)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(frame.Bytes) != "jpeg bytes" {
		t.Fatalf("unexpected frame bytes %q", frame.Bytes)
	}
	if frame.Handle != path {
		t.Fatalf("handle = %q, want %q", frame.Handle, path)
	}
}

func TestFileCameraMissingFile(t *testing.T) {
	_, err := FileCamera{Path: filepath.Join(t.TempDir(), "absent.jpg")}.Capture(context.Background(), 0.5)
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
}

func TestFileCameraEmptyFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := (FileCamera{Path: path}).Capture(context.Background(), 0.5); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame for empty file, got %v", err)
	}
}

func TestExecCameraUnconfigured(t *testing.T) {
	if _, err := (ExecCamera{}).Capture(context.Background(), 0.5); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
}
