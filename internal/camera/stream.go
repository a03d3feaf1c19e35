package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrPermissionDenied means the capture device exists but cannot be opened.
	ErrPermissionDenied = errors.New("camera device permission denied")
	// ErrDeviceUnavailable means the capture device is missing or busy.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrNoFrame means no complete frame has arrived since the stream started.
	ErrNoFrame = errors.New("no camera frame available")
)

// Config selects the capture source and JPEG encode quality.
type Config struct {
	Device      string
	InputFormat string
	Quality     float64
}

// Adapter starts ffmpeg MJPEG capture streams.
type Adapter struct {
	command string
}

// NewAdapter builds an Adapter; command overrides the ffmpeg binary for tests.
func NewAdapter(command string) *Adapter {
	if command == "" {
		command = "ffmpeg"
	}
	return &Adapter{command: command}
}

// Acquire starts a long-lived ffmpeg process streaming MJPEG frames from the
// configured device. Startup failures are classified so callers can report
// permission problems separately from missing or busy devices.
func (a *Adapter) Acquire(ctx context.Context, cfg Config) (*Stream, error) {
	if cfg.Device == "" {
		cfg.Device = "/dev/video0"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "v4l2"
	}
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		cfg.Quality = 0.8
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.Device,
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(qualityToQV(cfg.Quality)),
		"-f", "mjpeg",
		"-",
	}

	cmd := exec.CommandContext(ctx, a.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		return nil, classifyStartErr(cfg.Device, err, stderr.String())
	case <-time.After(300 * time.Millisecond):
	}

	stream := &Stream{
		device:  cfg.Device,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}

	go stream.readFrames(stdout)
	return stream, nil
}

// Stream is one live ffmpeg capture session holding the most recent frame.
type Stream struct {
	device string
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	mu     sync.Mutex
	latest []byte

	stopOnce sync.Once
	stopErr  error
}

// Device returns capture metadata for logging and diagnostics.
func (s *Stream) Device() string {
	return s.device
}

// Sample returns a copy of the most recent complete JPEG frame.
func (s *Stream) Sample() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latest) == 0 {
		return nil, ErrNoFrame
	}
	out := make([]byte, len(s.latest))
	copy(out, s.latest)
	return out, nil
}

// Release stops ffmpeg exactly once. An interrupt is tried first so ffmpeg
// can exit cleanly; a kill follows if it lingers.
func (s *Stream) Release() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

// readFrames consumes ffmpeg stdout, keeping only the newest complete frame.
func (s *Stream) readFrames(stdout io.Reader) {
	var carry []byte
	buf := make([]byte, 64*1024)

	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			frames, rest := splitFrames(carry)
			carry = append(carry[:0], rest...)
			if len(frames) > 0 {
				newest := frames[len(frames)-1]
				s.mu.Lock()
				s.latest = newest
				s.mu.Unlock()
			}
		}
		if err != nil {
			return
		}
	}
}

// qualityToQV maps quality in (0, 1] to the ffmpeg mjpeg -q:v scale where 2
// is best and 31 is worst.
func qualityToQV(quality float64) int {
	qv := int(math.Round(2 + (1-quality)*29))
	if qv < 2 {
		return 2
	}
	if qv > 31 {
		return 31
	}
	return qv
}

func classifyStartErr(device string, err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	lower := strings.ToLower(detail)

	var base error
	switch {
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "not permitted"):
		base = ErrPermissionDenied
	default:
		base = ErrDeviceUnavailable
	}

	if detail != "" {
		return fmt.Errorf("%w: %s: %s", base, device, detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", base, device, err)
	}
	return fmt.Errorf("%w: %s", base, device)
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
