package chatstream

// Logger is the minimal sink for diagnostics the pipeline tolerates rather
// than surfaces: malformed fragments that were dropped, protocol noise,
// superseded sessions. The standard library *log.Logger satisfies it.
// Components treat a nil Logger as silent.
type Logger interface {
	Printf(format string, v ...any)
}
