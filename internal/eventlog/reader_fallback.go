//go:build !unix

package eventlog

import (
	"os"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// readerAtSource is the fallback for hosts without file mapping: bounded
// pread-equivalent reads via io.ReaderAt instead of a shared mapping. The
// external contract (size/remap/viewAt) is identical to the unix mmap
// backend; callers cannot tell which one they're using.
type readerAtSource struct {
	f        *os.File
	observed int64
}

func newSource(f *os.File, size int64) (source, error) {
	return &readerAtSource{f: f, observed: size}, nil
}

func (s *readerAtSource) size() int64 {
	return s.observed
}

func (s *readerAtSource) viewAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > s.observed {
		return nil, ErrInsufficientData
	}
	buf := make([]byte, length)
	if _, err := s.f.ReadAt(buf, offset); err != nil {
		return nil, goerrors.Wrap(err, "eventlog: read log file")
	}
	return buf, nil
}

func (s *readerAtSource) remap() (bool, error) {
	info, err := s.f.Stat()
	if err != nil {
		return false, goerrors.Wrap(err, "eventlog: stat for remap")
	}
	newSize := info.Size()
	if newSize <= s.observed {
		return false, nil
	}
	s.observed = newSize
	return true, nil
}

func (s *readerAtSource) close() error {
	return nil
}
