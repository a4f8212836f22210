package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
)

const (
	azureSpeechPath = "/speech/recognition/conversation/cognitiveservices/v1"
	// maxResponseBytes bounds how much of an engine response is read.
	maxResponseBytes = 1 << 20
)

// AzureSpeechClient is an assessment engine backed by the Azure AI Speech
// short-audio REST API.
// Docs: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/rest-speech-to-text-short
type AzureSpeechClient struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// AzureSpeechOption configures an AzureSpeechClient.
type AzureSpeechOption func(*AzureSpeechClient)

// WithEndpoint overrides the regional endpoint, e.g. for a private endpoint.
func WithEndpoint(endpoint string) AzureSpeechOption {
	return func(c *AzureSpeechClient) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) AzureSpeechOption {
	return func(c *AzureSpeechClient) {
		c.client = hc
	}
}

// NewAzureSpeechClient creates a new Azure Speech client. The HTTP client has
// no timeout of its own: the recognition deadline comes from the request
// context.
func NewAzureSpeechClient(log zerolog.Logger, opts ...AzureSpeechOption) *AzureSpeechClient {
	c := &AzureSpeechClient{
		client: &http.Client{},
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AzureSpeechClient) baseURL(region string) string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s.stt.speech.microsoft.com", region)
}

// NewSession prepares the recognition request for one upload.
func (c *AzureSpeechClient) NewSession(ctx context.Context, input *audio.Input, cfg assessment.Config, creds assessment.Credentials) (assessment.Session, error) {
	u, err := url.Parse(c.baseURL(creds.Region) + azureSpeechPath)
	if err != nil {
		return nil, fmt.Errorf("invalid speech endpoint: %w", err)
	}

	q := u.Query()
	q.Set("language", cfg.Language)
	q.Set("format", "detailed")
	u.RawQuery = q.Encode()

	params, err := cfg.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(input.Data()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Pronunciation-Assessment", base64.StdEncoding.EncodeToString(params))
	req.Header.Set("Ocp-Apim-Subscription-Key", creds.SubscriptionKey)
	req.Header.Set("Content-Type", restContentType(input))
	req.Header.Set("Accept", "application/json;text/xml")

	return &restSession{client: c.client, req: req, log: c.log}, nil
}

// restSession is a single prepared recognition request. Close releases the
// response body.
type restSession struct {
	client *http.Client
	req    *http.Request
	resp   *http.Response
	used   bool
	closed bool
	log    zerolog.Logger
}

var errSessionUsed = errors.New("recognition session already used")

func (s *restSession) RecognizeOnce(ctx context.Context) (*assessment.Outcome, error) {
	if s.closed || s.used {
		return nil, errSessionUsed
	}
	s.used = true

	resp, err := s.client.Do(s.req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	s.resp = resp

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Azure speech api error")
		return assessment.Canceled(fmt.Sprintf("azure speech api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))), nil
	}

	detail, err := assessment.ParseDetailedResult(string(body))
	if err != nil {
		return assessment.Canceled(fmt.Sprintf("failed to decode response: %v", err)), nil
	}

	switch detail.RecognitionStatus {
	case "Success":
		return assessment.Recognized(detail.DisplayText, string(body)), nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return assessment.NoMatch(), nil
	default:
		return assessment.Canceled(fmt.Sprintf("recognition status %q", detail.RecognitionStatus)), nil
	}
}

func (s *restSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.resp == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, s.resp.Body)
	return s.resp.Body.Close()
}

// restContentType declares compressed uploads by their own type. The PCM hint
// only describes push streams for the SDK.
func restContentType(input *audio.Input) string {
	if input.Kind == audio.KindPushStream && input.MimeType != "" {
		return input.MimeType
	}
	return input.ContentType()
}
