//go:build !linux

package eventlog

import (
	"os"
	"time"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

const (
	minPollInterval = 10 * time.Millisecond
	maxPollInterval = 100 * time.Millisecond
)

// pollTailer is the non-Linux fallback: record the file's current size,
// then loop stat-ing it with an exponentially backed-off sleep (reset to
// the minimum on every observed growth), capped at maxPollInterval.
type pollTailer struct {
	path         string
	lastSize     int64
	pollInterval time.Duration
}

// NewTailer constructs the platform-appropriate Tailer for path.
func NewTailer(path string) Tailer {
	return &pollTailer{path: path, pollInterval: minPollInterval}
}

func (t *pollTailer) Init() error {
	size, err := t.statSize()
	if err != nil {
		return err
	}
	t.lastSize = size
	t.pollInterval = minPollInterval
	return nil
}

func (t *pollTailer) WaitForModification(timeoutMs int) (bool, error) {
	deadline := time.Time{}
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	for {
		size, err := t.statSize()
		if err != nil {
			return false, err
		}
		if size > t.lastSize {
			t.lastSize = size
			t.pollInterval = minPollInterval
			return true, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return false, nil
		}

		time.Sleep(t.pollInterval)
		t.pollInterval *= 2
		if t.pollInterval > maxPollInterval {
			t.pollInterval = maxPollInterval
		}
	}
}

func (t *pollTailer) Close() error {
	return nil
}

func (t *pollTailer) statSize() (int64, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return 0, goerrors.Wrap(err, "eventlog: stat "+t.path)
	}
	return info.Size(), nil
}
