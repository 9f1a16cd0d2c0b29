package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"hotmic/internal/domain"
)

// ReadWAV loads a mono 16-bit recording and returns its samples and rate.
// A missing or empty file yields domain.ErrNoAudioData.
func ReadWAV(path string) ([]int16, int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, domain.ErrNoAudioData
		}
		return nil, 0, fmt.Errorf("open recording: %w", err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode recording: %w", err)
	}
	if dec.BitDepth != bitDepth || dec.NumChans != channels {
		return nil, 0, fmt.Errorf("unsupported recording format: %d-bit, %d channels", dec.BitDepth, dec.NumChans)
	}
	if len(buf.Data) == 0 {
		return nil, 0, domain.ErrNoAudioData
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, int(dec.SampleRate), nil
}

// ReadFloat32 loads a recording as samples normalized to [-1, 1].
func ReadFloat32(path string) ([]float32, int, error) {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out, rate, nil
}

// ReadPCM16 loads a recording as raw little-endian PCM bytes.
func ReadPCM16(path string) ([]byte, int, error) {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out, rate, nil
}
