// Package artifact manages the flat directory of narrated audio files.
//
// Each publish date maps to exactly one file name:
//
//	<prefix>-<YYYY-MM-DD>.<ext>     e.g. newsletter-2025-06-01.wav
//
// and to one public URL, <public base>/<file name>. Both are derived from the
// date alone, so the HTTP layer can serve files without consulting the
// record store.
//
// The store keeps no cache. List re-reads the directory on every call and
// DeleteIfOlderThan re-checks the file's age immediately before removing it,
// so a file overwritten by a concurrent generation is kept.
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so a file name is never observed partially written.
package artifact
