// Package logging builds the process-wide slog logger.
//
// New creates a JSON or text handler at the configured level, wraps it so
// request IDs, publish dates and trace IDs carried by a context are added to
// every *Context call, and optionally masks secret-looking values. Install
// makes it the slog default so components can derive their loggers with
//
//	logger := slog.Default().With("component", "generation")
//
// The level is held in a slog.LevelVar and can be changed at runtime with
// SetLevel, which the config watcher does on reload.
package logging
