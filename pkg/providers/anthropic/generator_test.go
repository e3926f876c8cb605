package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aktagon/llmkit/anthropic/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/providers"
)

const validReply = `{
  "title": "Sunday Digest",
  "hook": "A quiet day with one big surprise.",
  "sections": [
    {"heading": "Science", "body": "A comet was spotted."},
    {"heading": "Sport", "body": "The home team won."}
  ],
  "conclusion": "That's all for today.",
  "sources": [{"url": "https://example.com/comet", "title": "Comet"}]
}`

type capturedPrompt struct {
	system, user, schema, apiKey string
	settings                     types.RequestSettings
}

func stubPrompt(reply string, err error, captured *capturedPrompt) promptFunc {
	return func(system, user, schema, apiKey string, settings types.RequestSettings) (string, error) {
		if captured != nil {
			*captured = capturedPrompt{system, user, schema, apiKey, settings}
		}
		return reply, err
	}
}

func testConfig() Config {
	return Config{APIKey: "sk-test", Model: "claude-test", MaxTokens: 2048, Temperature: 0.5}
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(Config{Model: "m"})
	var cfgErr *providers.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_key", cfgErr.Field)

	_, err = NewGenerator(Config{APIKey: "k"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "model", cfgErr.Field)

	gen, err := NewGenerator(testConfig())
	require.NoError(t, err)
	assert.Equal(t, defaultSystemPrompt, gen.config.SystemPrompt)
}

func TestGenerateContent_Success(t *testing.T) {
	var captured capturedPrompt
	gen := newGenerator(testConfig(), stubPrompt(validReply, nil, &captured))

	content, err := gen.GenerateContent(context.Background(), "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, "Sunday Digest", content.Title)
	require.Len(t, content.Sections, 2)
	assert.Equal(t, "Sport", content.Sections[1].Heading)
	require.Len(t, content.Sources, 1)
	assert.Equal(t, "https://example.com/comet", content.Sources[0].URL)

	assert.Contains(t, captured.user, "2025-06-01")
	assert.Contains(t, captured.user, "Sunday")
	assert.Equal(t, "sk-test", captured.apiKey)
	assert.Equal(t, "claude-test", captured.settings.Model)
	assert.Equal(t, 2048, captured.settings.MaxTokens)
	assert.True(t, json.Valid([]byte(captured.schema)), "embedded schema must be valid JSON")
}

func TestGenerateContent_StripsCodeFence(t *testing.T) {
	gen := newGenerator(testConfig(), stubPrompt("```json\n"+validReply+"\n```", nil, nil))

	content, err := gen.GenerateContent(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "Sunday Digest", content.Title)
}

func TestGenerateContent_Errors(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		reply string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "bad date",
			date: "2025-02-30",
			check: func(t *testing.T, err error) {
				assert.True(t, newsletter.IsValidationError(err))
			},
		},
		{
			name: "prompt failure",
			date: "2025-06-01",
			err:  errors.New("overloaded"),
			check: func(t *testing.T, err error) {
				var pe *providers.ProviderError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, ProviderName, pe.Provider)
				assert.Contains(t, err.Error(), "prompt failed")
			},
		},
		{
			name:  "not json",
			date:  "2025-06-01",
			reply: "Sorry, I cannot help with that.",
			check: func(t *testing.T, err error) {
				var pe *providers.ParseError
				require.ErrorAs(t, err, &pe)
				assert.True(t, strings.HasPrefix(pe.RawResponse, "Sorry"))
			},
		},
		{
			name:  "missing sections",
			date:  "2025-06-01",
			reply: `{"title":"t","hook":"h","sections":[],"conclusion":"c","sources":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, newsletter.ErrInvalidContent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGenerator(testConfig(), stubPrompt(tt.reply, tt.err, nil))
			_, err := gen.GenerateContent(context.Background(), tt.date)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerateContent_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := func(string, string, string, string, types.RequestSettings) (string, error) {
		<-release
		return validReply, nil
	}
	gen := newGenerator(testConfig(), slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gen.GenerateContent(ctx, "2025-06-01")
	var te *providers.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
