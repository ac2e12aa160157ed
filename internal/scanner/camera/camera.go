package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoFrame indicates the device produced no usable frame.
var ErrNoFrame = errors.New("no frame produced")

// Frame is one captured still image.
type Frame struct {
	Bytes  []byte
	Handle string // local origin of the frame (path), informational
}

// Camera is the capture capability. Quality is a hint in [0,1]; devices
// that cannot honor it capture at their default.
type Camera interface {
	Capture(ctx context.Context, quality float64) (Frame, error)
}

// FileCamera serves a prepared image from disk. It stands in for a device
// camera on hosts without one.
type FileCamera struct {
	Path string
}

// Capture reads the configured image file.
func (c FileCamera) Capture(ctx context.Context, quality float64) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if strings.TrimSpace(c.Path) == "" {
		return Frame{}, fmt.Errorf("%w: no image path configured", ErrNoFrame)
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if len(data) == 0 {
		return Frame{}, ErrNoFrame
	}
	return Frame{Bytes: data, Handle: c.Path}, nil
}

// ExecCamera shells out to an external capture command (fswebcam,
// imagesnap and the like). The command must accept the output path as its
// final argument and write a JPEG there.
type ExecCamera struct {
	Command string
	Args    []string
	TempDir string
}

// Capture runs the capture command and reads the frame it wrote.
func (c ExecCamera) Capture(ctx context.Context, quality float64) (Frame, error) {
	if strings.TrimSpace(c.Command) == "" {
		return Frame{}, fmt.Errorf("%w: no capture command configured", ErrNoFrame)
	}

	dir := c.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	outPath := filepath.Join(dir, fmt.Sprintf("capture-%d.jpg", os.Getpid()))
	defer os.Remove(outPath)

	args := append(append([]string{}, c.Args...), outPath)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Frame{}, fmt.Errorf("%w: %s: %v", ErrNoFrame, strings.TrimSpace(stderr.String()), err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil || len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: capture command wrote no frame", ErrNoFrame)
	}
	return Frame{Bytes: data, Handle: outPath}, nil
}
