package code

// Logger is an optional interface for observability during execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}
