package audio_test

import (
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/windfall/kidspeech_service/internal/audio"
	"github.com/windfall/kidspeech_service/internal/audio/audiotest"
	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

func TestResolve(t *testing.T) {
	r := audio.NewResolver(zerolog.Nop())

	Convey("Given a webm upload", t, func() {
		buf := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01, 0x02}

		Convey("When resolved", func() {
			in, err := r.Resolve(buf, "audio/webm;codecs=opus")

			Convey("Then it is a closed push stream hinted as 16k/16/mono PCM", func() {
				So(err, ShouldBeNil)
				So(in.Kind, ShouldEqual, audio.KindPushStream)
				So(in.Fallback, ShouldBeFalse)
				So(in.Stream.Closed(), ShouldBeTrue)
				So(*in.Format(), ShouldResemble, audio.DefaultPCM)
				So(in.Data(), ShouldResemble, buf)
				So(in.ContentType(), ShouldEqual, "audio/wav; codecs=audio/pcm; samplerate=16000")
			})
		})
	})

	Convey("Given an ogg upload with an uppercase type", t, func() {
		in, err := r.Resolve([]byte("OggS...."), "AUDIO/OGG")

		Convey("Then the push stream path is taken", func() {
			So(err, ShouldBeNil)
			So(in.Kind, ShouldEqual, audio.KindPushStream)
		})
	})

	Convey("Given a valid 8 kHz WAV upload", t, func() {
		buf := audiotest.PCMWav(8000, 16, 1, make([]byte, 1600))

		Convey("When resolved", func() {
			in, err := r.Resolve(buf, "audio/wav")

			Convey("Then it is a WAV file input described by its header", func() {
				So(err, ShouldBeNil)
				So(in.Kind, ShouldEqual, audio.KindWavFile)
				So(in.Wav.SampleRate, ShouldEqual, 8000)
				So(in.Wav.Channels, ShouldEqual, 1)
				So(in.Data(), ShouldResemble, buf)
				So(in.ContentType(), ShouldEqual, "audio/wav; codecs=audio/pcm; samplerate=8000")
			})
		})
	})

	Convey("Given bytes that are not a WAV under a non-streaming type", t, func() {
		buf := []byte("ID3 definitely not a riff header")

		Convey("When resolved", func() {
			in, err := r.Resolve(buf, "audio/mpeg")

			Convey("Then it falls back to a push stream without a format hint", func() {
				So(err, ShouldBeNil)
				So(in.Kind, ShouldEqual, audio.KindPushStream)
				So(in.Fallback, ShouldBeTrue)
				So(in.Format(), ShouldBeNil)
				So(in.ContentType(), ShouldEqual, "audio/mpeg")
				So(in.Data(), ShouldResemble, buf)
			})
		})
	})

	Convey("Given an empty buffer", t, func() {
		Convey("When resolved as WAV", func() {
			_, err := r.Resolve(nil, "audio/wav")

			Convey("Then both paths fail with an audio format error", func() {
				So(err, ShouldNotBeNil)
				So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrAudioFormat)
				So(err.Error(), ShouldContainSubstring, "Unable to create audio config: ")
			})
		})

		Convey("When resolved as webm", func() {
			_, err := r.Resolve([]byte{}, "audio/webm")

			Convey("Then it also fails with an audio format error", func() {
				So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrAudioFormat)
			})
		})
	})
}

func TestPushStream(t *testing.T) {
	Convey("Given a closed push stream", t, func() {
		s := audio.NewPushStream(nil)
		So(s.Write([]byte{1, 2}), ShouldBeNil)
		s.Close()

		Convey("Then further writes fail", func() {
			So(s.Write([]byte{3}), ShouldEqual, audio.ErrStreamClosed)
			So(s.Len(), ShouldEqual, 2)
		})
	})
}

func TestFormatHelpers(t *testing.T) {
	Convey("Given declared MIME types", t, func() {
		So(audio.IsAudioMIME("audio/wav"), ShouldBeTrue)
		So(audio.IsAudioMIME(" Audio/WebM "), ShouldBeTrue)
		So(audio.IsAudioMIME("text/plain"), ShouldBeFalse)
		So(audio.IsAudioMIME(""), ShouldBeFalse)
		So(audio.Extension("audio/webm;codecs=opus"), ShouldEqual, ".webm")
		So(audio.Extension("application/octet-stream"), ShouldEqual, ".bin")
	})

	Convey("Given PCM formats", t, func() {
		_, err := audio.WaveFormatPCM(16000, 16, 1)
		So(err, ShouldBeNil)
		_, err = audio.WaveFormatPCM(4000, 16, 1)
		So(err, ShouldNotBeNil)
		_, err = audio.WaveFormatPCM(16000, 12, 1)
		So(err, ShouldNotBeNil)
	})
}
