package monitor

import "github.com/cuemby/vsim/pkg/log"

// LoggingSink formats each Sample as a structured zerolog line: this is
// the entire "Logging monitor" family from spec.md §4.10, a thin
// wrapper around ambient logging rather than new kernel logic.
func LoggingSink() Sink {
	return func(s Sample) {
		evt := log.Logger.Info().
			Str("component", "monitor").
			Float64("at", s.At).
			Str("kind", s.Kind).
			Str("label", s.Label)
		for k, v := range s.Fields {
			evt = evt.Float64(k, v)
		}
		evt.Msg("sample")
	}
}
