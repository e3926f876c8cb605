// Package generation drives one newsletter from request to finished record.
//
// A run for a publish date moves its record through
//
//	pending -> generating -> complete | failed
//
// The orchestrator marks the record generating, asks the content generator
// for the document, asks the narrator for audio, writes the audio to the
// artifact store and finally upserts the complete record pointing at the
// file. Any failure after the first step marks the record failed with a
// human-readable message. Nothing is retried automatically; a failed date is
// regenerated by calling Generate or Start again.
//
// Start runs the pipeline detached from the caller's context and tracks it in
// a Registry keyed by date, so the HTTP layer can answer 202 immediately and
// shutdown can wait for in-flight work.
package generation
