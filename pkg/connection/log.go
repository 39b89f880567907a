package connection

import "github.com/rs/zerolog"

// package logger. Defaults to a no-op logger so the library stays silent
// unless the embedding application opts in via SetLogger.
var logger zerolog.Logger = zerolog.Nop()

// SetLogger sets the logger used by the connection package.
func SetLogger(l zerolog.Logger) { logger = l }
