// Package logging owns the single slog.Backend the whole disburser writes
// through, following the subsystem-logger convention used throughout the
// codebase this was adapted from: one short subsystem tag per package,
// each independently level-settable via --debuglevel=TAG=trace.
package logging

import (
	"io"

	"github.com/decred/slog"
)

var backend = slog.NewBackend(io.Discard)

// SetOutput repoints the shared backend at w (typically the rotating log
// file opened by main, combined with stdout via io.MultiWriter). Only
// loggers returned by Subsystem after this call write to w; earlier ones
// keep writing to the previous backend.
func SetOutput(w io.Writer) {
	backend = slog.NewBackend(w)
}

// Subsystem returns a logger for the given subsystem tag, defaulting to
// InfoLvl. Callers keep the returned logger in a package-level `log`
// variable, matching every other package in this tree.
func Subsystem(tag string) slog.Logger {
	l := backend.Logger(tag)
	l.SetLevel(slog.LevelInfo)
	return l
}

// SetLevel adjusts the level of a previously created subsystem logger.
func SetLevel(l slog.Logger, levelStr string) bool {
	level, ok := slog.LevelFromString(levelStr)
	if !ok {
		return false
	}
	l.SetLevel(level)
	return true
}
