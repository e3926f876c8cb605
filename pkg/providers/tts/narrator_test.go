package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/courier/pkg/providers"
)

func newTestNarrator(t *testing.T, handler http.HandlerFunc) *Narrator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	n, err := NewNarrator(Config{
		BaseURL:        server.URL + "/",
		APIKey:         "tts-key",
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		RetryBackoff:   time.Millisecond,
		SpeakerRefPath: "/voices/anchor.wav",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestNewNarrator_RequiresBaseURL(t *testing.T) {
	_, err := NewNarrator(Config{})
	var cfgErr *providers.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "base_url", cfgErr.Field)
}

func TestNarrate_Success(t *testing.T) {
	var got speechRequest
	n := newTestNarrator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, apiGenerateSpeech, r.URL.Path)
		assert.Equal(t, contentTypeWAV, r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tts-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", contentTypeWAV)
		_, _ = w.Write(SilentWAV(4.4, 16000))
	})

	narration, err := n.Narrate(context.Background(), "Good morning.")
	require.NoError(t, err)

	assert.Equal(t, "Good morning.", got.Text)
	assert.Equal(t, "/voices/anchor.wav", got.SpeakerRefPath)
	assert.Equal(t, defaultLanguage, got.Language)
	assert.Equal(t, defaultTemperature, got.Temperature)

	assert.Equal(t, 4, narration.DurationSeconds)
	assert.Equal(t, contentTypeWAV, narration.ContentType)
	assert.NotEmpty(t, narration.Audio)
}

func TestNarrate_DurationHeader(t *testing.T) {
	n := newTestNarrator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav; codecs=1")
		w.Header().Set(headerDuration, "61.6")
		_, _ = w.Write(SilentWAV(1, 8000))
	})

	narration, err := n.Narrate(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 62, narration.DurationSeconds)
}

func TestNarrate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
			},
			check: func(t *testing.T, err error) {
				var pe *providers.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
		{
			name: "empty audio",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", contentTypeWAV)
			},
			check: func(t *testing.T, err error) {
				var pe *providers.ParseError
				assert.ErrorAs(t, err, &pe)
			},
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"text too long"}`, http.StatusBadRequest)
			},
			check: func(t *testing.T, err error) {
				var pe *providers.ProviderError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
				assert.Contains(t, pe.Message, "text too long")
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				var ae *providers.AuthError
				assert.ErrorAs(t, err, &ae)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNarrator(t, tt.handler)
			_, err := n.Narrate(context.Background(), "text")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNarrate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	n := newTestNarrator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", contentTypeWAV)
		_, _ = w.Write(SilentWAV(1, 8000))
	})

	_, err := n.Narrate(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNarrate_EmptyText(t *testing.T) {
	n := newTestNarrator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("service must not be called for empty text")
	})
	_, err := n.Narrate(context.Background(), "   ")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	n := newTestNarrator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiHealth, r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.Health(context.Background()))

	healthy.Store(false)
	assert.Error(t, n.Health(context.Background()))
}
