// Package mic records from a PortAudio input device, resampling to the
// recording rate.
package mic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/zeozeozeo/gomplerate"

	"hotmic/internal/audio"
	"hotmic/internal/ports"
)

const framesPerBuffer = 1024

// Capture opens PortAudio streams on demand. PortAudio is initialized lazily
// and re-initialized by Reset.
type Capture struct {
	logger *log.Logger

	mu          sync.Mutex
	initialized bool
	device      string
}

func New(logger *log.Logger) *Capture {
	if logger == nil {
		logger = log.Default()
	}
	return &Capture{logger: logger.WithPrefix("mic")}
}

func (c *Capture) Start(_ context.Context, cfg ports.AudioConfig, path string) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.SampleRate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInitialized(); err != nil {
		return nil, audio.DeviceError(err, "")
	}

	name := cfg.InputDevice
	if name == "" {
		name = c.device
	}
	device, err := c.findInputDevice(name)
	if err != nil {
		return nil, audio.DeviceError(err, "")
	}
	deviceRate := int(device.DefaultSampleRate)
	if deviceRate <= 0 {
		return nil, &audio.CaptureError{Kind: audio.FormatInvalid, Err: fmt.Errorf("device %q reports sample rate %v", device.Name, device.DefaultSampleRate)}
	}

	resampler, err := gomplerate.NewResampler(1, deviceRate, cfg.SampleRate)
	if err != nil {
		return nil, &audio.CaptureError{Kind: audio.ConverterFailed, Err: err}
	}

	sink, err := audio.CreateWAV(path, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	session := &session{
		sink:      sink,
		resampler: resampler,
		frames:    make(chan []int16, 64),
		done:      make(chan struct{}),
		logger:    c.logger,
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(deviceRate),
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, session.onFrames)
	if err != nil {
		sink.Discard()
		return nil, audio.DeviceError(fmt.Errorf("failed to open input stream on %q: %w", device.Name, err), "")
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		sink.Discard()
		return nil, audio.DeviceError(fmt.Errorf("failed to start input stream: %w", err), "")
	}
	session.stream = stream

	go session.write()
	c.logger.Debug("capture started", "device", device.Name, "deviceRate", deviceRate, "rate", cfg.SampleRate)
	return session, nil
}

// Reset terminates PortAudio so the next Start enumerates devices afresh,
// then records device as the preferred input.
func (c *Capture) Reset(device string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.device = device
	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			c.logger.Warn("portaudio terminate failed", "err", err)
		}
		c.initialized = false
	}
	return c.ensureInitialized()
}

// Close releases PortAudio.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil
	}
	c.initialized = false
	return portaudio.Terminate()
}

// Devices lists the names of available input devices.
func (c *Capture) Devices() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureInitialized(); err != nil {
		return nil, err
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

func (c *Capture) ensureInitialized() error {
	if c.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Capture) findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" && name != "default" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			if d.Name == name && d.MaxInputChannels > 0 {
				return d, nil
			}
		}
		c.logger.Warn("input device not found, using default", "device", name)
	}
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("no default input device: %w", err)
	}
	return device, nil
}

type session struct {
	stream    *portaudio.Stream
	sink      *audio.WAVSink
	resampler *gomplerate.Resampler
	frames    chan []int16
	done      chan struct{}
	logger    *log.Logger

	writeErr error
	dropped  atomic.Int64
	ended    atomic.Bool
}

func (s *session) onFrames(in []int16) {
	frame := make([]int16, len(in))
	copy(frame, in)
	select {
	case s.frames <- frame:
	default:
		s.dropped.Add(1)
	}
}

func (s *session) write() {
	defer close(s.done)
	for frame := range s.frames {
		if s.writeErr != nil {
			continue
		}
		if err := s.sink.Write(s.resampler.ResampleInt16(frame)); err != nil {
			s.writeErr = err
		}
	}
}

func (s *session) Level() float64 {
	return s.sink.Level()
}

func (s *session) Stop() (string, error) {
	if s.ended.Swap(true) {
		return "", audio.ErrNotRecording
	}
	stopErr := s.halt()
	if err := s.sink.Close(); err != nil && stopErr == nil {
		stopErr = err
	}
	if n := s.dropped.Load(); n > 0 {
		s.logger.Warn("dropped audio frames", "count", n)
	}
	if stopErr != nil {
		return "", stopErr
	}
	return s.sink.Path(), nil
}

func (s *session) Cancel() {
	if s.ended.Swap(true) {
		return
	}
	_ = s.halt()
	s.sink.Discard()
}

// halt stops the stream, after which no callback runs, and drains pending
// frames into the sink.
func (s *session) halt() error {
	var errs []error
	if err := s.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop input stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close input stream: %w", err))
	}
	close(s.frames)
	<-s.done
	if s.writeErr != nil {
		errs = append(errs, s.writeErr)
	}
	return errors.Join(errs...)
}
