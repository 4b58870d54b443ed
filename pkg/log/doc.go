// Package log provides structured logging for warden, built on zerolog.
//
// Init configures the package-level Logger once, at process start, from
// flags (level, JSON vs console output). Every other package derives a
// child logger via WithComponent, WithResource, or WithRun rather than
// logging through the global Logger directly, so every line carries enough
// context to trace an action back to the resource and run that produced it.
package log
