// Package tts implements the narration collaborator: a client for a
// standalone text-to-speech HTTP service that turns newsletter text into a
// WAV file.
//
// The service contract is:
//
//	POST /v1/generate/speech   {"text","speaker_ref_path","language","temperature"} -> audio/wav
//	GET  /health               200 when the engine is ready
//
// Requests go through the shared providers.HTTPClient, so retries, health
// tracking and trace propagation behave the same as for every other
// external service.
package tts
