package fakes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"mercator-hq/courier/pkg/providers/tts"
)

// SpeechRequest is a request body received by SpeechServer.
type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// SpeechServer simulates the speech synthesis service. By default it
// answers every generate request with a second of silent audio.
type SpeechServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []SpeechRequest
	status   int
	seconds  float64
	delay    time.Duration
}

// NewSpeechServer starts a speech server. Close it when done.
func NewSpeechServer() *SpeechServer {
	s := &SpeechServer{status: http.StatusOK, seconds: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/generate/speech", s.generate)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the server's base URL.
func (s *SpeechServer) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *SpeechServer) Close() {
	s.server.Close()
}

// FailWith makes subsequent generate requests answer with status.
func (s *SpeechServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetDuration sets the length of the audio returned.
func (s *SpeechServer) SetDuration(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seconds = seconds
}

// SetDelay holds each generate response for d.
func (s *SpeechServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Requests returns a copy of the generate requests received so far.
func (s *SpeechServer) Requests() []SpeechRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpeechRequest(nil), s.requests...)
}

func (s *SpeechServer) generate(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, seconds, delay := s.status, s.seconds, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status != http.StatusOK {
		http.Error(w, `{"detail":"synthesis failed"}`, status)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Audio-Duration", strconv.FormatFloat(seconds, 'f', -1, 64))
	_, _ = w.Write(tts.SilentWAV(seconds, 8000))
}
