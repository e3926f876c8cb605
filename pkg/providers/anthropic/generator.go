package anthropic

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"mercator-hq/courier/pkg/newsletter"
	"mercator-hq/courier/pkg/providers"
	"mercator-hq/courier/pkg/telemetry/tracing"
)

// ProviderName identifies this collaborator in errors, logs and metrics.
const ProviderName = "anthropic"

//go:embed schema.json
var contentSchema string

const defaultSystemPrompt = `You are the editor of a daily audio newsletter.
Write for the ear: short sentences, no markdown, no bullet lists, no URLs in the prose.
Every section needs a heading and a body of two to four paragraphs.
List the sources you relied on with their URL and title.
Reply only with JSON matching the provided schema.`

const userPromptTemplate = `Write the newsletter for %s (%s).
Cover the most important developments a general audience would want to hear about that day.`

// Config configures the generator.
type Config struct {
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	TopK         int
	TopP         float64
	SystemPrompt string
}

// promptFunc sends one structured prompt and returns the text of the first
// content block.
type promptFunc func(system, user, schema, apiKey string, settings types.RequestSettings) (string, error)

// Generator is the LLM-backed content generator.
type Generator struct {
	config Config
	prompt promptFunc
	logger *slog.Logger
}

// NewGenerator creates a generator that calls the Anthropic API.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{Provider: ProviderName, Field: "api_key", Message: "API key is required"}
	}
	if cfg.Model == "" {
		return nil, &providers.ConfigError{Provider: ProviderName, Field: "model", Message: "model is required"}
	}
	return newGenerator(cfg, llmkitPrompt), nil
}

func newGenerator(cfg Config, prompt promptFunc) *Generator {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Generator{
		config: cfg,
		prompt: prompt,
		logger: slog.Default().With("component", "providers.anthropic", "model", cfg.Model),
	}
}

func llmkitPrompt(system, user, schema, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(system, user, schema, apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

// GenerateContent produces the newsletter content for date.
func (g *Generator) GenerateContent(ctx context.Context, date string) (*newsletter.Content, error) {
	day, err := time.Parse(newsletter.DateLayout, date)
	if err != nil {
		return nil, &newsletter.ValidationError{Field: "date", Value: date, Message: "not a calendar date"}
	}

	ctx, span := tracing.Start(ctx, "anthropic.prompt")
	span.SetAttributes(tracing.PublishDate(date))
	defer span.End()

	settings := types.RequestSettings{
		Model:       g.config.Model,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		TopK:        g.config.TopK,
		TopP:        g.config.TopP,
	}
	user := fmt.Sprintf(userPromptTemplate, date, day.Weekday())

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		text, err := g.prompt(g.config.SystemPrompt, user, contentSchema, g.config.APIKey, settings)
		done <- result{text, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, &providers.TimeoutError{Provider: ProviderName, Timeout: time.Since(start), Cause: ctx.Err()}
	case res = <-done:
	}

	if res.err != nil {
		g.logger.WarnContext(ctx, "content prompt failed", "date", date, "error", res.err)
		return nil, &providers.ProviderError{Provider: ProviderName, Message: "prompt failed", Cause: res.err}
	}

	content, err := decodeContent(res.text)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "content generated",
		"date", date,
		"sections", len(content.Sections),
		"sources", len(content.Sources),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// decodeContent parses the model reply. Models occasionally wrap JSON in a
// code fence even with structured output, so one surrounding fence is
// stripped.
func decodeContent(text string) (*newsletter.Content, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var content newsletter.Content
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, &providers.ParseError{
			Provider:    ProviderName,
			RawResponse: providers.Truncate(text, 512),
			Cause:       fmt.Errorf("failed to parse structured response: %w", err),
		}
	}
	return &content, nil
}
