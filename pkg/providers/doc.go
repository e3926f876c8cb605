// Package providers holds the shared plumbing for the external services the
// generation pipeline calls: an HTTP client with retry and backoff, the
// provider error taxonomy, and the value types exchanged with collaborators.
//
// Concrete collaborators live in subpackages:
//
//   - anthropic: structured newsletter content via the Anthropic Messages API
//   - tts: narration via a text-to-speech HTTP service
//
// # Retry Policy
//
// HTTPClient.DoRequest retries network errors and 5xx responses with
// exponential backoff (base, 2×base, 4×base, ...). 400, 401, 403 and 429 are
// returned immediately as typed errors. Context cancellation always wins over
// a pending retry.
package providers
