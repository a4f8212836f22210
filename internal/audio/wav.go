package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WavInfo is the header information of a self-describing WAV upload.
type WavInfo struct {
	SampleRate  uint32
	BitDepth    uint16
	Channels    uint16
	AudioFormat uint16
	Duration    time.Duration
}

// Format returns the PCM framing declared by the header.
func (w *WavInfo) Format() StreamFormat {
	return StreamFormat{SampleRate: w.SampleRate, BitsPerSample: w.BitDepth, Channels: w.Channels}
}

// ParseWav reads and validates a RIFF/WAVE header carrying PCM audio.
func ParseWav(buf []byte) (*WavInfo, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyBuffer
	}

	d := wav.NewDecoder(bytes.NewReader(buf))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("invalid wav file: %w", err)
		}
		return nil, errors.New("invalid wav file")
	}

	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported wav encoding %d", d.WavAudioFormat)
	}
	if _, err := WaveFormatPCM(d.SampleRate, d.BitDepth, d.NumChans); err != nil {
		return nil, fmt.Errorf("invalid wav header: %w", err)
	}

	info := &WavInfo{
		SampleRate:  d.SampleRate,
		BitDepth:    d.BitDepth,
		Channels:    d.NumChans,
		AudioFormat: d.WavAudioFormat,
	}
	if dur, err := d.Duration(); err == nil {
		info.Duration = dur
	}
	return info, nil
}
