package audio

import (
	"fmt"

	"github.com/rs/zerolog"

	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

// Kind is how the engine should read the audio.
type Kind int

const (
	// KindWavFile is a complete, self-describing WAV file.
	KindWavFile Kind = iota
	// KindPushStream is raw bytes written into a push stream.
	KindPushStream
)

func (k Kind) String() string {
	switch k {
	case KindWavFile:
		return "wav_file"
	case KindPushStream:
		return "push_stream"
	default:
		return "unknown"
	}
}

// Input is the resolved audio handed to the assessment engine. It is owned by
// a single request.
type Input struct {
	Kind     Kind
	MimeType string
	// Stream is set for KindPushStream.
	Stream *PushStream
	// Wav is set for KindWavFile.
	Wav *WavInfo
	// Fallback is true when the primary path failed and the hint-less push stream was used.
	Fallback bool

	data []byte
}

// Data returns the audio bytes the engine should read.
func (in *Input) Data() []byte {
	if in.Stream != nil {
		return in.Stream.Bytes()
	}
	return in.data
}

// Format returns the PCM framing hint for the engine, or nil when there is none.
func (in *Input) Format() *StreamFormat {
	switch {
	case in.Stream != nil:
		return in.Stream.Format()
	case in.Wav != nil:
		f := in.Wav.Format()
		return &f
	default:
		return nil
	}
}

// ContentType is the audio content type to declare to the engine. Without a
// format hint the declared upload type is passed through.
func (in *Input) ContentType() string {
	if f := in.Format(); f != nil {
		return f.ContentType()
	}
	return in.MimeType
}

// Resolver picks an encoding path for an upload based on its declared type.
//
// Streaming containers (webm, ogg) are written into a push stream hinted as
// 16 kHz/16-bit/mono PCM without transcoding: the engine is expected to find
// the embedded codec itself, so the hint is advisory only.
type Resolver struct {
	log        zerolog.Logger
	pushFormat StreamFormat
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPushFormat overrides the PCM hint used for streaming containers.
func WithPushFormat(f StreamFormat) ResolverOption {
	return func(r *Resolver) {
		r.pushFormat = f
	}
}

// NewResolver creates a Resolver.
func NewResolver(log zerolog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		log:        log,
		pushFormat: DefaultPCM,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds an engine input from the uploaded buffer. It tries the
// primary path for the declared type, then falls back once to a push stream
// with no format hint.
func (r *Resolver) Resolve(buf []byte, mimeType string) (*Input, error) {
	r.log.Info().
		Int("size", len(buf)).
		Str("mime_type", mimeType).
		Msg("Processing audio")

	input, err := r.primary(buf, mimeType)
	if err == nil {
		return input, nil
	}

	r.log.Warn().
		Err(err).
		Str("mime_type", mimeType).
		Msg("Audio input creation failed, trying push stream without format hint")

	input, fallbackErr := r.fallback(buf, mimeType)
	if fallbackErr != nil {
		r.log.Error().Err(fallbackErr).Msg("Fallback audio input also failed")
		return nil, apperrors.AudioFormat(fmt.Sprintf("Unable to create audio config: %s", err.Error()), fallbackErr)
	}
	return input, nil
}

func (r *Resolver) primary(buf []byte, mimeType string) (*Input, error) {
	if IsStreamingContainer(mimeType) {
		r.log.Debug().Msg("Using push stream with PCM format hint for streaming container")

		format, err := WaveFormatPCM(r.pushFormat.SampleRate, r.pushFormat.BitsPerSample, r.pushFormat.Channels)
		if err != nil {
			return nil, err
		}
		stream, err := fillPushStream(&format, buf)
		if err != nil {
			return nil, err
		}
		return &Input{Kind: KindPushStream, MimeType: mimeType, Stream: stream}, nil
	}

	r.log.Debug().Msg("Using WAV file input")

	info, err := ParseWav(buf)
	if err != nil {
		return nil, err
	}
	return &Input{Kind: KindWavFile, MimeType: mimeType, Wav: info, data: buf}, nil
}

func (r *Resolver) fallback(buf []byte, mimeType string) (*Input, error) {
	stream, err := fillPushStream(nil, buf)
	if err != nil {
		return nil, err
	}
	return &Input{Kind: KindPushStream, MimeType: mimeType, Stream: stream, Fallback: true}, nil
}

func fillPushStream(format *StreamFormat, buf []byte) (*PushStream, error) {
	stream := NewPushStream(format)
	if err := stream.Write(buf); err != nil {
		return nil, err
	}
	stream.Close()
	return stream, nil
}
