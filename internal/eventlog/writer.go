package eventlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// ErrTornTail is returned by NewWriter when an existing log's last frame is
// incomplete. Sequence recovery on reopen works by scanning the tail; a
// torn tail makes that scan ambiguous (appending after it would corrupt
// the still-incomplete frame), so this implementation refuses to reopen
// until the file is truncated to the last complete frame boundary.
var ErrTornTail = goerrors.New("eventlog: log tail is torn, truncate before reopening")

// WriterOption configures a Writer at construction time.
type WriterOption func(*writerConfig)

type writerConfig struct {
	clock func() int64
	fsync bool
}

// WithClock overrides the nanosecond clock used to timestamp frames. The
// default is time.Now().UnixNano(), a wall-clock reading, so timestamps are
// not monotonic across system clock adjustments. Tests use this to get
// deterministic timestamps; production code should leave it unset.
func WithClock(clock func() int64) WriterOption {
	return func(c *writerConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithFsync enables an fsync after every successful append, for callers
// that want append durability stronger than the default.
func WithFsync(enabled bool) WriterOption {
	return func(c *writerConfig) { c.fsync = enabled }
}

// Writer owns the append side of an event log: it assigns sequence
// numbers, serializes frames, and appends them atomically with respect to
// concurrent callers within this process.
type Writer struct {
	mu    sync.Mutex
	f     *os.File
	seq   uint64
	clock func() int64
	fsync bool
}

// NewWriter opens (creating if necessary) the log file at path. If the file
// is new, it writes the 16-byte file header first. If the file already
// has frames, the in-memory sequence counter resumes from the last
// complete frame's sequence number plus one.
func NewWriter(path string, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{clock: func() int64 { return time.Now().UnixNano() }}
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerrors.Wrap(err, "eventlog: create log directory")
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, goerrors.Wrap(err, "eventlog: open log file")
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, goerrors.Wrap(err, "eventlog: stat log file")
	}

	var lastSeq uint64
	if info.Size() == 0 {
		if _, err := f.Write(SerializeFileHeader()); err != nil {
			_ = f.Close()
			return nil, goerrors.Wrap(err, "eventlog: write file header")
		}
	} else {
		lastSeq, err = recoverLastSequence(f, info.Size())
		if err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return &Writer{f: f, seq: lastSeq, clock: cfg.clock, fsync: cfg.fsync}, nil
}

// recoverLastSequence scans an existing, non-empty log file sequentially
// and returns the sequence number of its last complete frame. It fails
// with ErrBadHeader if the header is invalid and ErrTornTail if the file's
// tail holds an incomplete frame.
func recoverLastSequence(f *os.File, size int64) (uint64, error) {
	headerBuf := make([]byte, FileHeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil && err != io.EOF {
		return 0, goerrors.Wrap(err, "eventlog: read file header")
	}
	if _, err := ParseFileHeader(headerBuf); err != nil {
		return 0, err
	}

	var (
		offset  int64 = FileHeaderSize
		lastSeq uint64
	)
	fixedBuf := make([]byte, frameHeaderSize)
	for offset < size {
		if offset+frameHeaderSize > size {
			return 0, ErrTornTail
		}
		if _, err := f.ReadAt(fixedBuf, offset); err != nil {
			return 0, goerrors.Wrap(err, "eventlog: scan log tail")
		}
		payloadLen := readPayloadLength(fixedBuf)
		total := frameTotalSize(payloadLen)
		if offset+total > size {
			return 0, ErrTornTail
		}

		frameBuf := make([]byte, total)
		if _, err := f.ReadAt(frameBuf, offset); err != nil {
			return 0, goerrors.Wrap(err, "eventlog: scan log tail")
		}
		ev, err := Parse(frameBuf)
		if err != nil {
			return 0, err
		}
		lastSeq = ev.SequenceNum
		offset += total
	}
	return lastSeq, nil
}

func readPayloadLength(fixedHeader []byte) uint32 {
	return uint32(fixedHeader[20]) | uint32(fixedHeader[21])<<8 | uint32(fixedHeader[22])<<16 | uint32(fixedHeader[23])<<24
}

// Append serializes and appends a single event frame. It assigns the next
// sequence number before writing; if the write fails, the counter is not
// rolled back, so the returned sequence number marks a permanent gap in
// the log's sequence space rather than being retried.
func (w *Writer) Append(eventType EventType, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	seq := w.seq + 1
	w.seq = seq
	ts := w.clock()

	if err := writeFrame(w.f, seq, ts, eventType, payload); err != nil {
		return seq, err
	}
	if w.fsync {
		if err := w.f.Sync(); err != nil {
			return seq, goerrors.Wrap(err, "eventlog: fsync after append")
		}
	}
	return seq, nil
}

// writeFrame serializes and appends a single frame to f. Shared by Writer
// and BufferedWriter so both emit byte-identical frames.
func writeFrame(f *os.File, seq uint64, ts int64, eventType EventType, payload []byte) error {
	frame := Serialize(Event{
		SequenceNum: seq,
		TimestampNs: ts,
		EventType:   eventType,
		Payload:     payload,
	})
	if _, err := f.Write(frame); err != nil {
		return goerrors.Wrap(err, "eventlog: append frame")
	}
	return nil
}

// AppendTradeCreated is a convenience wrapper that canonically encodes a
// TradeCreated payload and appends it as a TRADE_CREATED frame.
func (w *Writer) AppendTradeCreated(trade TradeCreated) (uint64, error) {
	return w.Append(EventTypeTradeCreated, EncodeTradeCreated(trade))
}

// Sequence returns the most recently assigned sequence number.
func (w *Writer) Sequence() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Close syncs and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return goerrors.Wrap(err, "eventlog: sync on close")
	}
	return w.f.Close()
}
