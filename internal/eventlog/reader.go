package eventlog

import (
	"os"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// ErrTooSmall is returned by Open when the file is smaller than the file
// header, so it cannot possibly be a valid log.
var ErrTooSmall = goerrors.New("eventlog: file too small to contain a header")

// source abstracts the memory-mapped-or-not view of the log file so
// Reader's sequential parsing logic is identical on every platform. The
// unix build maps the whole file and returns zero-copy subslices; the
// fallback build issues bounded pread(2)-equivalent reads for hosts
// without file mapping.
type source interface {
	size() int64
	remap() (bool, error)
	viewAt(offset, length int64) ([]byte, error)
	close() error
}

// Reader opens a log file read-only and yields frames sequentially in
// file order.
type Reader struct {
	f      *os.File
	src    source
	Header FileHeader
	offset int64
}

// Open opens path read-only, validates its file header, and positions the
// read cursor at the first frame.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerrors.Wrap(err, "eventlog: open log file")
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, goerrors.Wrap(err, "eventlog: stat log file")
	}
	if info.Size() < FileHeaderSize {
		_ = f.Close()
		return nil, ErrTooSmall
	}

	src, err := newSource(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	headerBytes, err := src.viewAt(0, FileHeaderSize)
	if err != nil {
		_ = src.close()
		_ = f.Close()
		return nil, err
	}
	header, err := ParseFileHeader(headerBytes)
	if err != nil {
		_ = src.close()
		_ = f.Close()
		return nil, err
	}

	return &Reader{f: f, src: src, Header: header, offset: FileHeaderSize}, nil
}

// ReadNext decodes the next frame. It returns (event, true, nil) on
// success, (zero, false, nil) at EOF or on a torn tail — a short tail is
// never an error, since a writer may be mid-append — and (zero, false,
// err) for a genuine parse failure such as ErrCorruptedFrame.
func (r *Reader) ReadNext() (Event, bool, error) {
	size := r.src.size()
	if r.offset >= size {
		return Event{}, false, nil
	}
	if r.offset+frameHeaderSize > size {
		return Event{}, false, nil
	}

	fixed, err := r.src.viewAt(r.offset, frameHeaderSize)
	if err != nil {
		return Event{}, false, err
	}
	payloadLen := readPayloadLength(fixed)
	total := frameTotalSize(payloadLen)
	if r.offset+total > size {
		return Event{}, false, nil
	}

	full, err := r.src.viewAt(r.offset, total)
	if err != nil {
		return Event{}, false, err
	}
	ev, err := Parse(full)
	if err != nil {
		return Event{}, false, err
	}

	r.offset += total
	return ev, true, nil
}

// RemapIfGrown re-stats the file and, if it has grown since the last map,
// remaps (or, on the fallback backend, simply re-reads the new size). The
// read cursor is preserved across a successful remap.
func (r *Reader) RemapIfGrown() (bool, error) {
	return r.src.remap()
}

// Offset returns the reader's current byte cursor into the log file.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close releases the reader's mapping and file handle.
func (r *Reader) Close() error {
	srcErr := r.src.close()
	fErr := r.f.Close()
	if srcErr != nil {
		return srcErr
	}
	return fErr
}
