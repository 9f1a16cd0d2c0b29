package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"hotmic/internal/ports"
)

// FFMPEGCapture records the microphone through an ffmpeg subprocess writing
// raw PCM to stdout.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig, path string) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	sink, err := CreateWAV(path, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sink.Discard()
		return nil, captureError(DeviceConfigFailed, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		sink.Discard()
		return nil, captureError(DeviceConfigFailed, fmt.Errorf("failed to start ffmpeg: %w", err))
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		sink.Discard()
		if err == nil {
			err = errors.New("ffmpeg exited before capture started")
		} else {
			err = fmt.Errorf("ffmpeg exited before capture started: %w", err)
		}
		return nil, DeviceError(err, stringsTrimSpaceSafe(stderr.String()))
	case <-time.After(250 * time.Millisecond):
	}

	session := &ffmpegSession{
		sink:     sink,
		stdout:   stdout,
		stderr:   stderr,
		process:  cmd.Process,
		waitErr:  waitErr,
		pumpDone: make(chan struct{}),
	}
	go session.pump()
	return session, nil
}

// Reset is a no-op: every session spawns a fresh ffmpeg process.
func (c *FFMPEGCapture) Reset(string) error { return nil }

type ffmpegSession struct {
	sink   *WAVSink
	stdout io.ReadCloser
	stderr *lockedBuffer

	process *os.Process
	waitErr <-chan error

	pumpDone chan struct{}
	pumpErr  error

	ended atomic.Bool
}

func (s *ffmpegSession) pump() {
	defer close(s.pumpDone)

	buf := make([]byte, 4096)
	var carry []byte
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			even := len(chunk) &^ 1
			if writeErr := s.sink.Write(PCM16(chunk[:even])); writeErr != nil {
				s.pumpErr = writeErr
				return
			}
			carry = append(carry[:0], chunk[even:]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.pumpErr = fmt.Errorf("audio capture error: %w", err)
			}
			return
		}
	}
}

func (s *ffmpegSession) Level() float64 {
	return s.sink.Level()
}

func (s *ffmpegSession) Stop() (string, error) {
	if s.ended.Swap(true) {
		return "", ErrNotRecording
	}

	stopErr := s.terminate(os.Interrupt)
	<-s.pumpDone
	if stopErr == nil {
		stopErr = s.pumpErr
	}
	if err := s.sink.Close(); err != nil && stopErr == nil {
		stopErr = err
	}
	if stopErr != nil {
		if detail := stringsTrimSpaceSafe(s.stderr.String()); detail != "" {
			stopErr = fmt.Errorf("%w: %s", stopErr, detail)
		}
		return "", stopErr
	}
	return s.sink.Path(), nil
}

func (s *ffmpegSession) Cancel() {
	if s.ended.Swap(true) {
		return
	}
	_ = s.terminate(os.Kill)
	<-s.pumpDone
	s.sink.Discard()
}

func (s *ffmpegSession) terminate(sig os.Signal) error {
	var stopErr error
	if s.process != nil {
		_ = s.process.Signal(sig)
	}

	select {
	case err, ok := <-s.waitErr:
		if ok {
			stopErr = normalizeStopErr(err)
		}
	case <-time.After(1200 * time.Millisecond):
		if s.process != nil {
			_ = s.process.Kill()
		}
		err, ok := <-s.waitErr
		if ok {
			stopErr = normalizeStopErr(err)
		}
	}

	if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && stopErr == nil {
		stopErr = closeErr
	}
	return stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
