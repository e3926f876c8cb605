// Package retention purges old newsletter artifacts.
//
// Audio and text age out on independent windows: audio files are removed
// once their last modification is older than the audio window (14 days by
// default), newsletter records once their publish date is older than the
// text window (365 days). Both are measured from the engine's clock at
// invocation time, in UTC.
//
// # Engine
//
// ComputeStats is a read-only preview of what a cleanup would remove.
// RunCleanup deletes audio file by file, counting per-file failures without
// stopping, then removes old records in one bulk delete. A failure in one
// half never prevents the other half from running or being reported.
//
// # Scheduler
//
// Scheduler runs the engine daily at 02:00 UTC using robfig/cron. It is
// owned by whoever starts it; there is no package-level instance.
package retention
