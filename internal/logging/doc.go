// Package logging wraps log/slog with the handlers and attribute helpers
// used across soundscape.
//
// New builds a logger from Options with either a console (pretty) or JSON
// handler. NewComponentLogger tags a logger with the component attribute the
// console handler renders as a prefix. NewNop returns a logger that discards
// everything; components accept nil loggers and fall back to it.
package logging
