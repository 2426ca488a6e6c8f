package eventlog

// Tailer suspends the caller until the log file has likely grown. The
// Linux build backs this with inotify; every other platform uses a
// bounded exponential-backoff poll.
type Tailer interface {
	// Init prepares the tailer to watch its target path. It must be
	// called exactly once before WaitForModification.
	Init() error
	// WaitForModification blocks until the file is modified or timeoutMs
	// elapses (0 means wait indefinitely). It returns true if a
	// modification was observed, false on timeout.
	WaitForModification(timeoutMs int) (bool, error)
	// Close releases any OS resources the tailer holds.
	Close() error
}
