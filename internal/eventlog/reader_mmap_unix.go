//go:build unix

package eventlog

import (
	"os"

	"golang.org/x/sys/unix"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// unixSource memory-maps the whole file shared/read-only and advises the
// kernel of sequential access, matching EventLogReader's mmap+madvise use
// in original_source/cpp/src/EventLogReader.cpp.
type unixSource struct {
	f    *os.File
	data []byte
}

func newSource(f *os.File, size int64) (source, error) {
	s := &unixSource{f: f}
	if err := s.mapSize(size); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *unixSource) mapSize(size int64) error {
	data, err := unix.Mmap(int(s.f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return goerrors.Wrap(err, "eventlog: mmap log file")
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	s.data = data
	return nil
}

func (s *unixSource) size() int64 {
	return int64(len(s.data))
}

func (s *unixSource) viewAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(s.data)) {
		return nil, ErrInsufficientData
	}
	return s.data[offset : offset+length], nil
}

func (s *unixSource) remap() (bool, error) {
	info, err := s.f.Stat()
	if err != nil {
		return false, goerrors.Wrap(err, "eventlog: stat for remap")
	}
	newSize := info.Size()
	if newSize <= int64(len(s.data)) {
		return false, nil
	}
	old := s.data
	if err := s.mapSize(newSize); err != nil {
		return false, err
	}
	if old != nil {
		_ = unix.Munmap(old)
	}
	return true, nil
}

func (s *unixSource) close() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	if err != nil {
		return goerrors.Wrap(err, "eventlog: munmap log file")
	}
	return nil
}
