package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// SampleRate is the rate of every recording written to disk.
	SampleRate = 16000
	bitDepth   = 16
	channels   = 1
	pcmFormat  = 1

	// floorDB maps to level 0; 0 dBFS maps to level 1.
	floorDB = -50.0
)

// WAVSink writes mono 16-bit PCM to a WAV file and tracks the input level.
type WAVSink struct {
	path string

	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	format  *goaudio.Format
	scratch []int
	samples int
	closed  bool

	level atomic.Uint64
}

// CreateWAV opens path for a new recording at sampleRate.
func CreateWAV(path string, sampleRate int) (*WAVSink, error) {
	if sampleRate <= 0 {
		return nil, captureError(FormatInvalid, fmt.Errorf("sample rate %d", sampleRate))
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return nil, captureError(FileCreateFailed, err)
	}
	return &WAVSink{
		path:   path,
		file:   file,
		enc:    wav.NewEncoder(file, sampleRate, bitDepth, channels, pcmFormat),
		format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
	}, nil
}

func (s *WAVSink) Path() string { return s.path }

// Level is the normalized level of the most recent write.
func (s *WAVSink) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// Samples is the number of samples written so far.
func (s *WAVSink) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *WAVSink) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	s.level.Store(math.Float64bits(Level(samples)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotRecording
	}
	if cap(s.scratch) < len(samples) {
		s.scratch = make([]int, len(samples))
	}
	data := s.scratch[:len(samples)]
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{Format: s.format, Data: data, SourceBitDepth: bitDepth}
	if err := s.enc.Write(buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	s.samples += len(samples)
	return nil
}

// Close writes the WAV header and closes the file.
func (s *WAVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	encErr := s.enc.Close()
	fileErr := s.file.Close()
	if encErr != nil {
		return fmt.Errorf("wav close failed: %w", encErr)
	}
	return fileErr
}

// Discard closes the file and removes it.
func (s *WAVSink) Discard() {
	_ = s.Close()
	_ = os.Remove(s.path)
}

// Level maps the RMS of samples to [0,1] on a dBFS scale.
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		f := float64(v) / 32768.0
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	level := (db - floorDB) / -floorDB
	return math.Max(0, math.Min(1, level))
}

// PCM16 decodes little-endian signed 16-bit samples. A trailing odd byte is
// ignored.
func PCM16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}
