// Package anthropic generates newsletter content with Claude through llmkit's
// structured output support.
//
// The generator sends an editor system prompt and a per-date user prompt
// together with a JSON schema describing newsletter.Content, then decodes and
// validates the reply:
//
//	gen, err := anthropic.NewGenerator(anthropic.Config{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:  "claude-sonnet-4-20250514",
//	})
//	content, err := gen.GenerateContent(ctx, "2025-06-01")
//
// llmkit calls are blocking and not context-aware; GenerateContent returns
// as soon as ctx is done and lets the in-flight call finish in the
// background.
package anthropic
