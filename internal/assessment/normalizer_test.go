package assessment

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	apperrors "github.com/windfall/kidspeech_service/internal/errors"
)

func TestNormalize(t *testing.T) {
	const reference = "I love eating sweet ice cream, on sunny days!"

	Convey("Given a payload without word detail", t, func() {
		n := NewNormalizer(NewJitterFallbackWithRand(func() float64 { return 0 }), zerolog.Nop())

		words, source, err := n.Normalize(`{"RecognitionStatus":"Success","NBest":[{"AccuracyScore":30}]}`, reference, 30)

		Convey("Then one synthesized word is produced per reference token", func() {
			So(err, ShouldBeNil)
			So(source, ShouldEqual, WordSourceFallback)
			So(len(words), ShouldEqual, len(strings.Fields(reference)))
		})

		Convey("Then punctuation is stripped and scores never drop below 50", func() {
			So(words[5].Word, ShouldEqual, "cream")
			So(words[8].Word, ShouldEqual, "days")
			for _, w := range words {
				So(w.Word, ShouldNotContainSubstring, ",")
				So(w.AccuracyScore, ShouldBeGreaterThanOrEqualTo, 50)
				So(w.ErrorType, ShouldBeNil)
			}
		})
	})

	Convey("Given a high overall accuracy and maximum jitter", t, func() {
		n := NewNormalizer(NewJitterFallbackWithRand(func() float64 { return 0.999 }), zerolog.Nop())

		words, _, err := n.Normalize("", "Rainbow butterflies dance.", 80)

		Convey("Then scores are unrounded values around the overall score", func() {
			So(err, ShouldBeNil)
			So(len(words), ShouldEqual, 3)
			So(words[0].AccuracyScore, ShouldBeBetween, 89.9, 90)
			So(words[2].Word, ShouldEqual, "dance")
		})
	})

	Convey("Given a malformed payload", t, func() {
		n := NewNormalizer(nil, zerolog.Nop())

		res, err := n.Result(Recognized("cat", `{"NBest": [`), "The cat.")

		Convey("Then it degrades to the fallback instead of failing", func() {
			So(err, ShouldBeNil)
			So(res.RecognizedText, ShouldEqual, "cat")
			So(res.AccuracyScore, ShouldEqual, 0)
			So(res.ProsodyScore, ShouldEqual, DefaultProsodyScore)
			So(res.WordSource, ShouldEqual, WordSourceFallback)
			So(len(res.Words), ShouldEqual, 2)
		})
	})

	Convey("Given a payload using the nested score layout", t, func() {
		n := NewNormalizer(nil, zerolog.Nop())
		payload := `{"DisplayText":"Puppy.","NBest":[{"PronunciationAssessment":{"AccuracyScore":55.5,"FluencyScore":44.4,"CompletenessScore":33.3,"ProsodyScore":0},
			"Words":[{"Word":"puppy","PronunciationAssessment":{"AccuracyScore":55.5,"ErrorType":"Omission"}}]}]}`

		res, err := n.Result(Recognized("", payload), "Puppy.")

		Convey("Then nested scores are read and a present zero prosody is kept", func() {
			So(err, ShouldBeNil)
			So(res.RecognizedText, ShouldEqual, "Puppy.")
			So(res.AccuracyScore, ShouldEqual, 56)
			So(res.FluencyScore, ShouldEqual, 44)
			So(res.CompletenessScore, ShouldEqual, 33)
			So(res.ProsodyScore, ShouldEqual, 0)
			So(res.Words[0].AccuracyScore, ShouldEqual, 56)
			So(*res.Words[0].ErrorType, ShouldEqual, "Omission")
		})
	})

	Convey("Given engine scores outside the grading scale", t, func() {
		n := NewNormalizer(nil, zerolog.Nop())

		res, err := n.Result(Recognized("x", `{"NBest":[{"AccuracyScore":100.7,"FluencyScore":-3,"Words":[{"Word":"x","ErrorType":""}]}]}`), "x")

		Convey("Then scores are clamped to [0,100] and missing word accuracy reads as 0", func() {
			So(err, ShouldBeNil)
			So(res.AccuracyScore, ShouldEqual, 100)
			So(res.FluencyScore, ShouldEqual, 0)
			So(res.Words[0].AccuracyScore, ShouldEqual, 0)
			So(res.Words[0].ErrorType, ShouldBeNil)
		})
	})

	Convey("Given the strict fallback", t, func() {
		n := NewNormalizer(StrictFallback{}, zerolog.Nop())

		_, err := n.Result(Recognized("x", `{"NBest":[{"AccuracyScore":90}]}`), "x y")

		Convey("Then missing word detail fails the request", func() {
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.ErrRecognition)
		})
	})
}

func TestConfigJSON(t *testing.T) {
	Convey("Given a request configuration", t, func() {
		raw, err := NewConfig("The friendly puppy wags its fluffy tail.", "en-GB").JSON()

		Convey("Then it renders the engine parameter names", func() {
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"ReferenceText":"The friendly puppy wags its fluffy tail.","GradingSystem":"HundredMark","Granularity":"Word","EnableMiscue":true,"Dimension":"Comprehensive"}`)
		})
	})
}
