//go:build linux

package eventlog

import (
	"golang.org/x/sys/unix"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// inotifyTailer blocks on an inotify file descriptor, grounded directly on
// original_source/cpp/src/EventLogTailer.cpp's Linux branch: inotify_init1
// in non-blocking mode, a watch for IN_MODIFY|IN_CLOSE_WRITE, and a
// bounded wait (unix.Poll here, select(2) there) before draining pending
// events.
type inotifyTailer struct {
	path    string
	fd      int
	watchFd int
}

// NewTailer constructs the platform-appropriate Tailer for path.
func NewTailer(path string) Tailer {
	return &inotifyTailer{path: path, fd: -1, watchFd: -1}
}

func (t *inotifyTailer) Init() error {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		return goerrors.Wrap(err, "eventlog: inotify_init1")
	}
	watchFd, err := unix.InotifyAddWatch(fd, t.path, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
	if err != nil {
		_ = unix.Close(fd)
		return goerrors.Wrap(err, "eventlog: inotify_add_watch "+t.path)
	}
	t.fd = fd
	t.watchFd = watchFd
	return nil
}

func (t *inotifyTailer) WaitForModification(timeoutMs int) (bool, error) {
	timeout := -1
	if timeoutMs > 0 {
		timeout = timeoutMs
	}
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeout)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, goerrors.Wrap(err, "eventlog: poll inotify fd")
	}
	if n == 0 {
		return false, nil
	}

	// Drain pending events; their contents don't matter, only that the
	// file was touched.
	buf := make([]byte, 4096)
	for {
		_, err := unix.Read(t.fd, buf)
		if err != nil {
			break
		}
	}
	return true, nil
}

func (t *inotifyTailer) Close() error {
	if t.watchFd >= 0 {
		_, _ = unix.InotifyRmWatch(t.fd, uint32(t.watchFd))
		t.watchFd = -1
	}
	if t.fd >= 0 {
		err := unix.Close(t.fd)
		t.fd = -1
		return err
	}
	return nil
}
