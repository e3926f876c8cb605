package generation

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/courier/pkg/artifact"
	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/newsletter/storage"
	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/providers/tts"
)

type fakeContent struct {
	calls atomic.Int32
	fn    func(ctx context.Context, date string) (*newsletter.Content, error)
}

func (f *fakeContent) GenerateContent(ctx context.Context, date string) (*newsletter.Content, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, date)
	}
	return sampleContent(date), nil
}

type fakeNarrator struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNarrator) Narrate(ctx context.Context, text string) (*providers.Narration, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &providers.Narration{Audio: tts.SilentWAV(1, 8000), ContentType: "audio/wav", DurationSeconds: 95}, nil
}

type fakeMirror struct {
	mu   sync.Mutex
	puts []string
	err  error
}

func (m *fakeMirror) Name() string { return "fake" }

func (m *fakeMirror) Put(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, name)
	return m.err
}

func (m *fakeMirror) Delete(ctx context.Context, name string) error { return nil }
func (m *fakeMirror) Close() error                                  { return nil }

func sampleContent(date string) *newsletter.Content {
	return &newsletter.Content{
		Title:      "Digest " + date,
		Hook:       "Here is what happened.",
		Sections:   []newsletter.Section{{Heading: "World", Body: "Things happened."}},
		Conclusion: "See you tomorrow.",
		Sources:    []newsletter.Source{{URL: "https://example.com/a", Title: "A"}},
	}
}

type fixture struct {
	orch      *Orchestrator
	store     *storage.MemoryStorage
	artifacts *artifact.Store
	content   *fakeContent
	narrator  *fakeNarrator
	mirror    *fakeMirror
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	artifacts, err := artifact.NewStore(artifact.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	f := &fixture{
		store:     storage.NewMemoryStorage(),
		artifacts: artifacts,
		content:   &fakeContent{},
		narrator:  &fakeNarrator{},
		mirror:    &fakeMirror{},
	}
	f.orch, err = New(Deps{
		Store:     f.store,
		Artifacts: f.artifacts,
		Content:   f.content,
		Narrator:  f.narrator,
		Mirror:    f.mirror,
	}, cfg)
	require.NoError(t, err)
	return f
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	record, err := f.orch.Generate(ctx, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, newsletter.StatusComplete, record.Status)
	assert.Nil(t, record.ErrorMessage)
	require.NotNil(t, record.AudioURL)
	assert.Equal(t, "/audio/newsletter-2025-06-01.wav", *record.AudioURL)
	require.NotNil(t, record.AudioDurationSeconds)
	assert.Equal(t, 95, *record.AudioDurationSeconds)
	assert.True(t, f.artifacts.Exists("2025-06-01"))

	require.Len(t, f.narrator.texts, 1)
	assert.Equal(t, sampleContent("2025-06-01").NarrationText(), f.narrator.texts[0])
	assert.Equal(t, []string{"newsletter-2025-06-01.wav"}, f.mirror.puts)

	latest, err := f.store.GetLatestComplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, record.ID, latest.ID)
	assert.False(t, f.orch.Running("2025-06-01"))
}

func TestGenerate_TwiceKeepsOneRecord(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	first, err := f.orch.Generate(ctx, "2025-06-01")
	require.NoError(t, err)
	second, err := f.orch.Generate(ctx, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	all, err := f.store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	entries, err := os.ReadDir(f.artifacts.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerate_ContentFailureMarksFailed(t *testing.T) {
	f := newFixture(t, Config{})
	f.content.fn = func(context.Context, string) (*newsletter.Content, error) {
		return nil, &providers.ProviderError{Provider: "anthropic", Message: "overloaded"}
	}
	ctx := context.Background()

	_, err := f.orch.Generate(ctx, "2025-06-01")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageContent, genErr.Stage)
	assert.Equal(t, "2025-06-01", genErr.Date)

	record, err := f.store.GetByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusFailed, record.Status)
	require.NotNil(t, record.ErrorMessage)
	assert.Contains(t, *record.ErrorMessage, "overloaded")
	assert.Nil(t, record.AudioURL)
	assert.False(t, f.artifacts.Exists("2025-06-01"))
	assert.Empty(t, f.narrator.texts)

	_, err = f.store.GetLatestComplete(ctx)
	assert.ErrorIs(t, err, newsletter.ErrNotFound)
}

func TestGenerate_InvalidContent(t *testing.T) {
	f := newFixture(t, Config{})
	f.content.fn = func(_ context.Context, date string) (*newsletter.Content, error) {
		c := sampleContent(date)
		c.Sections = nil
		return c, nil
	}

	_, err := f.orch.Generate(context.Background(), "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidContent)

	record, err := f.store.GetByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusFailed, record.Status)
}

func TestGenerate_NarrationFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.narrator.err = errors.New("tts engine crashed")

	_, err := f.orch.Generate(context.Background(), "2025-06-01")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageNarration, genErr.Stage)

	record, err := f.store.GetByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusFailed, record.Status)
	assert.Contains(t, *record.ErrorMessage, "narration failed")
	assert.False(t, f.artifacts.Exists("2025-06-01"))
}

func TestGenerate_FailedDateCanBeRetried(t *testing.T) {
	f := newFixture(t, Config{})
	f.narrator.err = errors.New("down")
	ctx := context.Background()

	_, err := f.orch.Generate(ctx, "2025-06-01")
	require.Error(t, err)

	f.narrator.err = nil
	record, err := f.orch.Generate(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusComplete, record.Status)
	assert.Nil(t, record.ErrorMessage)
}

func TestGenerate_MirrorFailureIsIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	f.mirror.err = errors.New("bucket unavailable")

	record, err := f.orch.Generate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusComplete, record.Status)
}

func TestGenerate_InvalidDate(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.orch.Generate(context.Background(), "06/01/2025")
	assert.True(t, newsletter.IsValidationError(err))
	assert.Zero(t, f.content.calls.Load())
}

func TestGenerate_Timeout(t *testing.T) {
	f := newFixture(t, Config{Timeout: 20 * time.Millisecond})
	f.content.fn = func(ctx context.Context, _ string) (*newsletter.Content, error) {
		<-ctx.Done()
		return nil, &providers.TimeoutError{Provider: "anthropic", Cause: ctx.Err()}
	}

	_, err := f.orch.Generate(context.Background(), "2025-06-01")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	record, err := f.store.GetByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusFailed, record.Status)
}

func TestStart_ReturnsBeforeGeneration(t *testing.T) {
	f := newFixture(t, Config{})
	release := make(chan struct{})
	f.content.fn = func(_ context.Context, date string) (*newsletter.Content, error) {
		<-release
		return sampleContent(date), nil
	}

	// The request context is cancelled as soon as Start returns.
	reqCtx, cancel := context.WithCancel(context.Background())
	task, err := f.orch.Start(reqCtx, "2025-06-01")
	cancel()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", task.Date)
	assert.NotEmpty(t, task.ID)

	record, err := f.store.GetByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusGenerating, record.Status)
	assert.True(t, f.orch.Running("2025-06-01"))
	require.Len(t, f.orch.Active(), 1)

	close(release)
	require.NoError(t, f.orch.Wait(context.Background()))

	record, err = f.store.GetByDate(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusComplete, record.Status)
	assert.False(t, f.orch.Running("2025-06-01"))
	assert.Empty(t, f.orch.Active())
}

func TestStart_ConcurrentRuns(t *testing.T) {
	tests := []struct {
		name    string
		reject  bool
		wantErr error
		calls   int32
	}{
		{name: "last write wins by default", reject: false, calls: 2},
		{name: "rejected when configured", reject: true, wantErr: ErrAlreadyRunning, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{RejectConcurrent: tt.reject})
			release := make(chan struct{})
			f.content.fn = func(_ context.Context, date string) (*newsletter.Content, error) {
				<-release
				return sampleContent(date), nil
			}
			ctx := context.Background()

			_, err := f.orch.Start(ctx, "2025-06-01")
			require.NoError(t, err)

			_, err = f.orch.Start(ctx, "2025-06-01")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			// Other dates are never blocked.
			_, err = f.orch.Start(ctx, "2025-06-02")
			require.NoError(t, err)

			close(release)
			require.NoError(t, f.orch.Wait(ctx))

			assert.Equal(t, tt.calls+1, f.content.calls.Load())
			all, err := f.store.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
			for _, r := range all {
				assert.Equal(t, newsletter.StatusComplete, r.Status)
			}
		})
	}
}

func TestWait_HonorsContext(t *testing.T) {
	f := newFixture(t, Config{})
	release := make(chan struct{})
	f.content.fn = func(_ context.Context, date string) (*newsletter.Content, error) {
		<-release
		return sampleContent(date), nil
	}

	_, err := f.orch.Start(context.Background(), "2025-06-01")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.orch.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, f.orch.Wait(context.Background()))
}
