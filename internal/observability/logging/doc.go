// Package logging builds the process logger on log/slog and carries loggers
// through context.
//
// LOG_LEVEL selects the level (debug, info, warn, error; default info).
// LOG_FORMAT=text switches from JSON to the human-readable handler.
package logging
