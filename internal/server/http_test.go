package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
	"github.com/windfall/kidspeech_service/internal/config"
	httphandler "github.com/windfall/kidspeech_service/internal/handler/http"
	"github.com/windfall/kidspeech_service/internal/observability"
	"github.com/windfall/kidspeech_service/internal/service"
)

type nopRecognizer struct{}

func (nopRecognizer) Invoke(_ context.Context, _ *audio.Input, _ assessment.Config, _ assessment.Credentials) (*assessment.EvaluationResult, error) {
	return &assessment.EvaluationResult{}, nil
}

func testRouter(metrics *observability.Metrics) http.Handler {
	cfg := &config.Config{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
	}
	log := zerolog.Nop()
	evaluations := service.NewEvaluationService(audio.NewResolver(log), nopRecognizer{}, assessment.Credentials{}, "en-US", log)

	return NewRouter(cfg, log, Handlers{
		Health:    httphandler.NewHealthHandler(log, evaluations),
		Evaluate:  httphandler.NewEvaluateHandler(log, evaluations, httphandler.EvaluateOptions{MaxUploadBytes: 10 << 20, DefaultReferenceText: "Hello"}),
		Sentences: httphandler.NewSentenceHandler(service.NewSentenceService(nil)),
		Attempts:  httphandler.NewAttemptHandler(log, evaluations, 50),
	}, metrics)
}

func TestRouter(t *testing.T) {
	Convey("Given the router", t, func() {
		metrics := observability.NewMetrics()
		router := testRouter(metrics)

		Convey("When an unknown endpoint is requested", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

			Convey("Then the not found body is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				var body map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["error"], ShouldEqual, "Not Found")
				So(body["message"], ShouldEqual, "The requested endpoint does not exist")
			})
		})

		Convey("When the evaluate endpoint is called with GET", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluate", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the health endpoint is called", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a preflight comes from an allowed origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/evaluate", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
		})

		Convey("When metrics are scraped after a request", func() {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/live", nil))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), `kidspeech_http_requests_total{method="GET",route="/api/live",status="200"}`), ShouldBeTrue)
		})
	})

	Convey("Given metrics are disabled", t, func() {
		rec := httptest.NewRecorder()
		testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		So(rec.Code, ShouldEqual, http.StatusNotFound)
	})
}
