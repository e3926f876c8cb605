package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/courier/internal/fakes"
	"mercator-hq/courier/pkg/artifact"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/generation"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/newsletter/storage"
	"mercator-hq/courier/pkg/providers/tts"
	"mercator-hq/courier/pkg/retention"
	"mercator-hq/courier/pkg/security/auth"
)

// TestGenerateThenCleanup drives a full run over HTTP: generation against a
// fake speech service, the audio served back, then audio retention.
func TestGenerateThenCleanup(t *testing.T) {
	speech := fakes.NewSpeechServer()
	defer speech.Close()
	speech.SetDuration(3)

	store := storage.NewMemoryStorage()
	dir := t.TempDir()
	artifacts, err := artifact.NewStore(artifact.Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := artifacts.EnsureStorageRoot(); err != nil {
		t.Fatal(err)
	}

	narrator, err := tts.NewNarrator(tts.Config{BaseURL: speech.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer narrator.Close()

	content := &fakes.ContentGenerator{}
	orchestrator, err := generation.New(generation.Deps{
		Store:     store,
		Artifacts: artifacts,
		Content:   content,
		Narrator:  narrator,
	}, generation.Config{})
	if err != nil {
		t.Fatal(err)
	}

	// Fifteen days from now the fresh audio is past the 14 day window.
	later := func() time.Time { return time.Now().Add(15 * 24 * time.Hour) }
	engine := retention.NewEngine(store, artifacts, retention.Config{Policy: retention.DefaultPolicy()}, retention.WithClock(later))

	srv, err := NewServer(config.Default(), Deps{
		Store:     store,
		Generator: orchestrator,
		Cleanup:   engine,
		Secrets:   auth.NewSecretValidator(testSecret),
		AudioDir:  dir,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Today's date keeps the record inside the text window when the clock
	// jumps ahead for cleanup.
	date := newsletter.FormatDate(time.Now())
	resp := send(t, http.MethodPost, ts.URL+"/newsletter/generate", `{"date":"`+date+`"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("generate status = %d, want 202", resp.StatusCode)
	}
	resp.Body.Close()

	var record newsletter.Record
	fakes.WaitFor(t, 5*time.Second, func() bool {
		resp := send(t, http.MethodGet, ts.URL+"/newsletter/"+date, "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		record = newsletter.Record{}
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		return record.Status == newsletter.StatusComplete
	}, "newsletter never completed")

	if err := orchestrator.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if record.Title != "Daily Brief "+date {
		t.Errorf("title = %q", record.Title)
	}
	if record.AudioDurationSeconds == nil || *record.AudioDurationSeconds != 3 {
		t.Errorf("audio duration = %v, want 3", record.AudioDurationSeconds)
	}
	if record.AudioURL == nil || *record.AudioURL != "/audio/newsletter-"+date+".wav" {
		t.Fatalf("audio url = %v", record.AudioURL)
	}

	requests := speech.Requests()
	if len(requests) != 1 {
		t.Fatalf("speech requests = %d, want 1", len(requests))
	}
	if !strings.HasPrefix(requests[0].Text, "Daily Brief "+date+"\n\n") {
		t.Errorf("narration text = %q", requests[0].Text)
	}

	audio := send(t, http.MethodGet, ts.URL+*record.AudioURL, "")
	audio.Body.Close()
	if audio.StatusCode != http.StatusOK {
		t.Fatalf("audio status = %d, want 200", audio.StatusCode)
	}

	cleanup := send(t, http.MethodPost, ts.URL+"/cleanup/run", "")
	defer cleanup.Body.Close()
	if cleanup.StatusCode != http.StatusOK {
		t.Fatalf("cleanup status = %d, want 200", cleanup.StatusCode)
	}
	var summary retention.Summary
	if err := json.NewDecoder(cleanup.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.AudioFilesDeleted != 1 || summary.NewslettersDeleted != 0 {
		t.Errorf("summary = %+v", summary)
	}

	gone := send(t, http.MethodGet, ts.URL+*record.AudioURL, "")
	gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("audio after cleanup status = %d, want 404", gone.StatusCode)
	}

	kept := send(t, http.MethodGet, ts.URL+"/newsletter/latest", "")
	kept.Body.Close()
	if kept.StatusCode != http.StatusOK {
		t.Errorf("latest after cleanup status = %d, want 200", kept.StatusCode)
	}
}

func send(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(auth.DefaultHeader, testSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}
