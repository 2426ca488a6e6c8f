package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// ErrQueueFull is returned by BufferedWriter.TryAppend when its internal
// queue has no free slot.
var ErrQueueFull = goerrors.New("eventlog: buffered writer queue full")

// ErrWriterClosed is returned by BufferedWriter.TryAppend after Close.
var ErrWriterClosed = goerrors.New("eventlog: buffered writer closed")

// AppendResult reports the outcome of a single queued append.
type AppendResult struct {
	Sequence uint64
	Err      error
}

// BufferedWriterConfig controls BufferedWriter behavior.
type BufferedWriterConfig struct {
	Path          string
	QueueSize     int
	FlushInterval time.Duration
	SyncInterval  time.Duration
	OnWritten     func(AppendResult)
}

func (c BufferedWriterConfig) withDefaults() BufferedWriterConfig {
	if c.QueueSize == 0 {
		c.QueueSize = 4096
	}
	return c
}

// BufferedWriter re-architects synchronized append across submitters:
// instead of holding a mutex across serialize+write, callers push
// fully-formed requests onto a channel and a single dedicated goroutine
// owns the file and assigns sequence numbers. It satisfies the same
// external contract as Writer ("one file offset per frame; frame bytes
// contiguous") without holding a lock on the hot path.
type BufferedWriter struct {
	cfg BufferedWriterConfig
	ch  chan bufferedRequest
	wg  sync.WaitGroup
	err atomic.Value

	started uint32
	closed  uint32

	seq atomic.Uint64
}

type bufferedRequest struct {
	eventType EventType
	payload   []byte
}

// NewBufferedWriter validates cfg and creates the log file's parent
// directory. It does not open the file; Start does that, recovering the
// sequence counter exactly as NewWriter does.
func NewBufferedWriter(cfg BufferedWriterConfig) (*BufferedWriter, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, goerrors.New("eventlog: buffered writer path is empty")
	}
	if cfg.QueueSize <= 0 {
		return nil, goerrors.New("eventlog: buffered writer queue size must be > 0")
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerrors.Wrap(err, "eventlog: create log directory")
		}
	}

	bw := &BufferedWriter{
		cfg: cfg,
		ch:  make(chan bufferedRequest, cfg.QueueSize),
	}
	return bw, nil
}

// Start opens the file (creating the header or recovering the sequence
// counter as needed) and runs the writer loop in a new goroutine.
func (w *BufferedWriter) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return goerrors.New("eventlog: buffered writer already started")
	}

	f, err := os.OpenFile(w.cfg.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return goerrors.Wrap(err, "eventlog: open log file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return goerrors.Wrap(err, "eventlog: stat log file")
	}

	var lastSeq uint64
	if info.Size() == 0 {
		if _, err := f.Write(SerializeFileHeader()); err != nil {
			_ = f.Close()
			return goerrors.Wrap(err, "eventlog: write file header")
		}
	} else {
		lastSeq, err = recoverLastSequence(f, info.Size())
		if err != nil {
			_ = f.Close()
			return err
		}
	}
	w.seq.Store(lastSeq)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx, f)
	}()
	return nil
}

// Close stops the writer loop, drains any queued requests, and closes the
// file.
func (w *BufferedWriter) Close() error {
	if atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		close(w.ch)
	}
	w.wg.Wait()
	return w.Err()
}

// Err returns the first fatal error observed by the writer loop, if any.
func (w *BufferedWriter) Err() error {
	if v := w.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// TryAppend enqueues an event without blocking. The assigned sequence
// number (and any write error) is reported asynchronously via
// cfg.OnWritten, not returned here, since the write itself happens on the
// writer goroutine.
func (w *BufferedWriter) TryAppend(eventType EventType, payload []byte) error {
	if atomic.LoadUint32(&w.closed) != 0 {
		return ErrWriterClosed
	}
	if atomic.LoadUint32(&w.started) == 0 {
		return goerrors.New("eventlog: buffered writer not started")
	}
	if err := w.Err(); err != nil {
		return err
	}
	select {
	case w.ch <- bufferedRequest{eventType: eventType, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *BufferedWriter) run(ctx context.Context, f *os.File) {
	var (
		flushC <-chan time.Time
		syncC  <-chan time.Time
	)
	if w.cfg.FlushInterval > 0 {
		t := time.NewTicker(w.cfg.FlushInterval)
		defer t.Stop()
		flushC = t.C
	}
	if w.cfg.SyncInterval > 0 {
		t := time.NewTicker(w.cfg.SyncInterval)
		defer t.Stop()
		syncC = t.C
	}
	defer func() {
		if err := f.Sync(); err != nil && w.Err() == nil {
			w.setErr(err)
		}
		_ = f.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			w.drainNonBlocking(f)
			return
		case req, ok := <-w.ch:
			if !ok {
				return
			}
			w.writeOne(f, req)
		case <-flushC:
			// Regular *os.File has no userspace buffer to flush; this
			// ticker is a no-op today and only matters if the file is
			// ever wrapped in a bufio.Writer.
		case <-syncC:
			if err := f.Sync(); err != nil {
				w.setErr(err)
				return
			}
		}
	}
}

func (w *BufferedWriter) drainNonBlocking(f *os.File) {
	for {
		select {
		case req, ok := <-w.ch:
			if !ok {
				return
			}
			w.writeOne(f, req)
		default:
			return
		}
	}
}

func (w *BufferedWriter) writeOne(f *os.File, req bufferedRequest) {
	seq := w.seq.Add(1)
	ts := time.Now().UnixNano()
	err := writeFrame(f, seq, ts, req.eventType, req.payload)
	if err != nil {
		w.setErr(err)
	}
	if w.cfg.OnWritten != nil {
		w.cfg.OnWritten(AppendResult{Sequence: seq, Err: err})
	}
}

func (w *BufferedWriter) setErr(err error) {
	if err == nil || w.err.Load() != nil {
		return
	}
	w.err.Store(err)
}
