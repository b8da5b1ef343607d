package config

import "fmt"

// Error is a configuration error carrying a locator so a CLI can report
// exactly which file and field failed (SPEC_FULL.md §7), rather than an
// unadorned error string. It is returned, never panicked — only a state
// violation inside the running simulation panics (pkg/sim.Simulate).
type Error struct {
	File  string // source file the scenario was decoded from, if any
	Path  string // e.g. "hosts[2].subnet" or "links[0]"
	Err   error
}

func (e *Error) Error() string {
	loc := e.Path
	if e.File != "" {
		loc = fmt.Sprintf("%s: %s", e.File, e.Path)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errAt(file, path string, err error) *Error {
	return &Error{File: file, Path: path, Err: err}
}

func errf(file, path, format string, args ...any) *Error {
	return errAt(file, path, fmt.Errorf(format, args...))
}
