// Package audio turns an uploaded buffer into an input the assessment engine can consume.
package audio

import (
	"errors"
	"fmt"
	"strings"
)

// StreamFormat describes PCM framing for a push stream.
type StreamFormat struct {
	SampleRate    uint32
	BitsPerSample uint16
	Channels      uint16
}

// DefaultPCM is the framing the engine expects from browser captures: 16 kHz, 16-bit, mono.
var DefaultPCM = StreamFormat{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

// WaveFormatPCM validates and returns a PCM stream format.
func WaveFormatPCM(sampleRate uint32, bitsPerSample, channels uint16) (StreamFormat, error) {
	switch {
	case sampleRate < 8000 || sampleRate > 48000:
		return StreamFormat{}, fmt.Errorf("unsupported sample rate %d", sampleRate)
	case bitsPerSample != 8 && bitsPerSample != 16 && bitsPerSample != 24 && bitsPerSample != 32:
		return StreamFormat{}, fmt.Errorf("unsupported bits per sample %d", bitsPerSample)
	case channels == 0 || channels > 8:
		return StreamFormat{}, fmt.Errorf("unsupported channel count %d", channels)
	}
	return StreamFormat{SampleRate: sampleRate, BitsPerSample: bitsPerSample, Channels: channels}, nil
}

// ContentType renders the format as the engine's audio content type.
func (f StreamFormat) ContentType() string {
	return fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", f.SampleRate)
}

// ErrStreamClosed is returned when writing to a push stream that was closed for writing.
var ErrStreamClosed = errors.New("push stream is closed for writing")

// ErrEmptyBuffer is returned when there is no audio to write.
var ErrEmptyBuffer = errors.New("audio buffer is empty")

// containerMarkers are MIME fragments of compressed streaming containers
// that the engine must demux itself.
var containerMarkers = []string{"webm", "ogg"}

// IsStreamingContainer reports whether the declared MIME type is a compressed
// streaming container rather than a self-describing WAV file.
func IsStreamingContainer(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	for _, marker := range containerMarkers {
		if strings.Contains(mt, marker) {
			return true
		}
	}
	return false
}

// IsAudioMIME reports whether the declared type belongs to the audio class.
func IsAudioMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/")
}

// Extension returns a file extension for archiving an upload of the given type.
func Extension(mimeType string) string {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mt, "webm"):
		return ".webm"
	case strings.Contains(mt, "ogg"):
		return ".ogg"
	case strings.Contains(mt, "wav"):
		return ".wav"
	case strings.Contains(mt, "mpeg"), strings.Contains(mt, "mp3"):
		return ".mp3"
	case strings.Contains(mt, "mp4"), strings.Contains(mt, "m4a"):
		return ".m4a"
	default:
		return ".bin"
	}
}
