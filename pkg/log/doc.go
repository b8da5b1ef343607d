// Package log provides structured logging for vsim using zerolog.
//
// A single global Logger is configured once via Init and then scoped
// with WithComponent/WithEntity/WithTick child loggers as it passes
// through the clock, scheduler, and monitor packages.
package log
