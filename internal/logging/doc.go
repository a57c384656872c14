// Package logging constructs slog loggers for the CLI and engine.
//
// Two formats are supported: "console" (text handler, human-oriented) and
// "json" (machine-oriented). Level parsing is tolerant of unknown values
// and falls back to info.
package logging
