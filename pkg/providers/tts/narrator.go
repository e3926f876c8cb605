package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// ProviderName identifies this collaborator in errors, logs and metrics.
const ProviderName = "tts"

const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"

	contentTypeWAV = "audio/wav"

	// headerDuration lets the service report the playback length directly.
	headerDuration = "X-Audio-Duration"

	defaultTemperature = 0.75
	defaultLanguage    = "en"

	maxAudioBytes = 512 << 20
)

// Config configures the narrator.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	SpeakerRefPath string
	Language       string
	Temperature    float64
}

type speechRequest struct {
	Text           string  `json:"text"`
	SpeakerRefPath string  `json:"speaker_ref_path,omitempty"`
	Language       string  `json:"language"`
	Temperature    float64 `json:"temperature"`
}

// Narrator converts text to speech over HTTP.
type Narrator struct {
	config Config
	client *providers.HTTPClient
	logger *slog.Logger
}

// NewNarrator creates a narrator for the service at cfg.BaseURL.
func NewNarrator(cfg Config) (*Narrator, error) {
	if cfg.BaseURL == "" {
		return nil, &providers.ConfigError{Provider: ProviderName, Field: "base_url", Message: "base URL is required"}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	return &Narrator{
		config: cfg,
		client: providers.NewHTTPClient(providers.Config{
			Name:         ProviderName,
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}),
		logger: slog.Default().With("component", "providers.tts"),
	}, nil
}

// Narrate renders text as WAV audio.
func (n *Narrator) Narrate(ctx context.Context, text string) (narration *providers.Narration, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, &providers.ProviderError{Provider: ProviderName, Message: "text cannot be empty"}
	}

	ctx, span := tracing.Start(ctx, "tts.generate_speech")
	defer func() { tracing.End(span, err) }()

	body, err := json.Marshal(speechRequest{
		Text:           text,
		SpeakerRefPath: n.config.SpeakerRefPath,
		Language:       n.config.Language,
		Temperature:    n.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	start := time.Now()
	resp, err := n.client.DoRequest(ctx, http.MethodPost, n.config.BaseURL+apiGenerateSpeech, body, n.headers(contentTypeWAV))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := strings.Cut(contentType, ";"); strings.TrimSpace(mediaType) != contentTypeWAV {
		return nil, &providers.ParseError{
			Provider:    ProviderName,
			RawResponse: contentType,
			Cause:       fmt.Errorf("unexpected content type %q", contentType),
		}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, &providers.ParseError{Provider: ProviderName, Cause: fmt.Errorf("failed to read audio: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &providers.ParseError{Provider: ProviderName, Cause: errors.New("received empty audio")}
	}

	duration, err := audioDuration(resp.Header.Get(headerDuration), audio)
	if err != nil {
		return nil, &providers.ParseError{Provider: ProviderName, Cause: err}
	}
	span.SetAttributes(tracing.Bytes(len(audio)))

	n.logger.InfoContext(ctx, "narration generated",
		"bytes", len(audio),
		"duration_seconds", duration,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &providers.Narration{
		Audio:           audio,
		ContentType:     contentTypeWAV,
		DurationSeconds: duration,
	}, nil
}

// Health checks the service health endpoint.
func (n *Narrator) Health(ctx context.Context) error {
	resp, err := n.client.DoRequest(ctx, http.MethodGet, n.config.BaseURL+apiHealth, nil, n.headers(""))
	if err != nil {
		return fmt.Errorf("tts health check failed: %w", err)
	}
	resp.Body.Close()
	return nil
}

// IsHealthy reports the client's view of recent request outcomes.
func (n *Narrator) IsHealthy() bool {
	return n.client.IsHealthy()
}

// Close releases idle connections.
func (n *Narrator) Close() error {
	return n.client.Close()
}

func (n *Narrator) headers(accept string) map[string]string {
	headers := map[string]string{}
	if accept != "" {
		headers["Accept"] = accept
	}
	if n.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + n.config.APIKey
	}
	return headers
}

// audioDuration prefers the duration header and falls back to the WAV
// header. The result is rounded to whole seconds.
func audioDuration(header string, audio []byte) (int, error) {
	if header != "" {
		seconds, err := strconv.ParseFloat(header, 64)
		if err == nil && seconds >= 0 {
			return int(math.Round(seconds)), nil
		}
	}
	seconds, err := WAVDuration(audio)
	if err != nil {
		return 0, err
	}
	return int(math.Round(seconds)), nil
}
