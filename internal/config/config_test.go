package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given an environment with only Azure credentials", t, func() {
		t.Setenv("AZURE_SUBSCRIPTION_KEY", " key ")
		t.Setenv("AZURE_SERVICE_REGION", "westeurope")

		cfg, err := Load()

		Convey("Then the defaults are applied", func() {
			So(err, ShouldBeNil)
			So(cfg.HTTPPort, ShouldEqual, 3001)
			So(cfg.MaxUploadBytes, ShouldEqual, 10<<20)
			So(cfg.MaxUploadMiB(), ShouldEqual, 10)
			So(cfg.DefaultReferenceText, ShouldEqual, "The quick brown fox jumps over the lazy dog.")
			So(cfg.SpeechLanguage, ShouldEqual, "en-US")
			So(cfg.SpeechEngine, ShouldEqual, EngineREST)
			So(cfg.WordFallbackMode, ShouldEqual, FallbackSynthesize)
			So(cfg.RecognitionTimeout, ShouldEqual, time.Duration(0))
			So(cfg.CORSAllowedOrigins, ShouldResemble, []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"})
			So(cfg.IsDevelopment(), ShouldBeFalse)
		})

		Convey("Then credentials are trimmed", func() {
			So(cfg.AzureSubscriptionKey, ShouldEqual, "key")
		})
	})
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			HTTPPort:             3001,
			MaxUploadBytes:       10 << 20,
			DefaultReferenceText: "hello",
			SpeechEngine:         EngineREST,
			WordFallbackMode:     FallbackSynthesize,
			HistoryBackend:       BackendNone,
			AudioArchiveBackend:  BackendNone,
		}
	}

	Convey("Given a valid base config", t, func() {
		cfg := base()
		So(cfg.Validate(), ShouldBeNil)

		Convey("When the engine is unknown", func() {
			cfg.SpeechEngine = "grpc"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the fallback mode is unknown", func() {
			cfg.WordFallbackMode = "random"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the recognition timeout is negative", func() {
			cfg.RecognitionTimeout = -time.Second
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When history uses postgres without DATABASE_URL", func() {
			cfg.HistoryBackend = BackendPostgres
			So(cfg.Validate(), ShouldNotBeNil)

			cfg.DatabaseURL = "postgres://localhost/kids"
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("When history uses redis without REDIS_URL", func() {
			cfg.HistoryBackend = BackendRedis
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When the archive uses r2 with partial credentials", func() {
			cfg.AudioArchiveBackend = BackendR2
			cfg.CloudflareAccessKeyID = "id"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When events are enabled without a project", func() {
			cfg.EventsTopic = "evaluations"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("When events take the project from a service account", func() {
			cfg.EventsTopic = "evaluations"
			cfg.GCPSABase64 = "eyJ0eXBlIjoic2VydmljZV9hY2NvdW50In0="
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}
