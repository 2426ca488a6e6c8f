package consumer

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
	"github.com/JulianZhan/trading-ledger/internal/histogram"
	"github.com/JulianZhan/trading-ledger/internal/obs"
	"github.com/JulianZhan/trading-ledger/internal/ring"
	"github.com/JulianZhan/trading-ledger/internal/validator"
)

const (
	// ringCapacity must be a power of two; it bounds how far the consumer
	// goroutine may fall behind the producer goroutine before the
	// producer starts spinning.
	ringCapacity = 1 << 16

	// summaryEvery is how often the consumer goroutine logs a latency
	// summary.
	summaryEvery = 10_000

	// monitorInterval is how often the monitor goroutine logs totals.
	monitorInterval = 5 * time.Second

	// tailerTimeoutMs bounds how long the producer goroutine blocks in
	// WaitForModification before re-checking the shutdown signals.
	tailerTimeoutMs = 250
)

// Consumer owns the reader/tailer/ring/validator/histogram pipeline for
// one event log. It is not safe to call Run concurrently with itself, nor
// to reuse after Run returns.
type Consumer struct {
	path   string
	reader *eventlog.Reader
	tailer eventlog.Tailer
	queue  *ring.Ring[eventlog.Event]
	vld    *validator.Validator
	hist   *histogram.Histogram
	mtr    *obs.Metrics

	checkpoints    *histogram.CheckpointWriter
	checkpointPath string

	stopped atomic.Bool

	eventsRead     uint64
	eventsConsumed uint64
	ringFullSpins  uint64
}

// Option configures optional Consumer behavior at construction time.
type Option func(*Consumer)

// WithCheckpointPath has the monitor goroutine append a histogram
// Checkpoint to path every monitorInterval, so an operator can inspect
// latency trends after the process exits without re-tailing the event log.
func WithCheckpointPath(path string) Option {
	return func(c *Consumer) { c.checkpointPath = path }
}

// New opens path for reading and constructs the pipeline. It does not
// start any goroutines; call Run for that.
func New(path string, opts ...Option) (*Consumer, error) {
	reader, err := eventlog.Open(path)
	if err != nil {
		return nil, err
	}

	tailer := eventlog.NewTailer(path)
	if err := tailer.Init(); err != nil {
		_ = reader.Close()
		return nil, err
	}

	queue, err := ring.New[eventlog.Event](ringCapacity)
	if err != nil {
		_ = tailer.Close()
		_ = reader.Close()
		return nil, err
	}

	c := &Consumer{
		path:   path,
		reader: reader,
		tailer: tailer,
		queue:  queue,
		vld:    validator.New(),
		hist:   histogram.New(),
		mtr:    obs.NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.checkpointPath != "" {
		cw, err := histogram.NewCheckpointWriter(c.checkpointPath)
		if err != nil {
			_ = tailer.Close()
			_ = reader.Close()
			return nil, err
		}
		c.checkpoints = cw
	}

	return c, nil
}

// Validator exposes the running validation counters, e.g. for a final
// report after shutdown.
func (c *Consumer) Validator() *validator.Validator { return c.vld }

// Histogram exposes the running latency histogram.
func (c *Consumer) Histogram() *histogram.Histogram { return c.hist }

// Metrics exposes the per-event-type counters and end-to-end event
// latency (write time to consumer-pop time).
func (c *Consumer) Metrics() *obs.Metrics { return c.mtr }

// Stop requests a cooperative shutdown via the Consumer's atomic stop flag,
// checked by all three goroutines alongside ctx.Done() and sys.Shutdown();
// Run still returns once the goroutines notice.
func (c *Consumer) Stop() {
	c.stopped.Store(true)
}

func (c *Consumer) shuttingDown(ctx context.Context) bool {
	if c.stopped.Load() {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	case <-sys.Shutdown():
		return true
	default:
		return false
	}
}

// Run starts the producer, consumer, and monitor goroutines and blocks
// until ctx is canceled, Stop is called, the process-wide shutdown signal
// fires, or the producer hits a fatal error (a read or tail failure). It
// closes the reader and tailer before returning.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	defer c.tailer.Close()
	if c.checkpoints != nil {
		defer c.checkpoints.Close()
	}

	var wg sync.WaitGroup
	var producerErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		producerErr = c.runProducer(ctx)
		c.stopped.Store(true)
	}()
	go func() {
		defer wg.Done()
		c.runConsumer(ctx)
	}()
	go func() {
		defer wg.Done()
		c.runMonitor(ctx)
	}()

	wg.Wait()
	return producerErr
}

// runProducer reads frames and tails the log for growth, feeding the ring
// buffer. On a full ring it busy-spins with runtime.Gosched until the
// consumer goroutine has drained room for the event; if shutdown is
// requested while it spins, it returns and that event is not pushed.
func (c *Consumer) runProducer(ctx context.Context) error {
	for {
		if c.shuttingDown(ctx) {
			return nil
		}

		ev, ok, err := c.reader.ReadNext()
		if err != nil {
			logs.Errorf("consumer: read frame from %s, err: %+v", c.path, err)
			return err
		}
		if !ok {
			grown, err := c.tailer.WaitForModification(tailerTimeoutMs)
			if err != nil {
				logs.Errorf("consumer: wait for modification on %s, err: %+v", c.path, err)
				return err
			}
			if grown {
				if _, err := c.reader.RemapIfGrown(); err != nil {
					logs.Errorf("consumer: remap %s, err: %+v", c.path, err)
					return err
				}
			}
			continue
		}

		for !c.queue.TryPush(ev) {
			if c.shuttingDown(ctx) {
				return nil
			}
			atomic.AddUint64(&c.ringFullSpins, 1)
			runtime.Gosched()
		}
		atomic.AddUint64(&c.eventsRead, 1)
	}
}

// runConsumer drains the ring buffer, validates each event, and records
// how long validation took. On shutdown it keeps draining until the ring
// is empty rather than exiting immediately, so events the producer
// already pushed are never silently lost.
func (c *Consumer) runConsumer(ctx context.Context) {
	for {
		ev, ok := c.queue.TryPop()
		if !ok {
			if c.shuttingDown(ctx) {
				return
			}
			runtime.Gosched()
			continue
		}

		c.mtr.ObserveEvent(ev.EventType, ev.TimestampNs)

		start := time.Now()
		if err := c.vld.Validate(ev); err != nil {
			logs.Errorf("consumer: validate seq=%d, err: %+v", ev.SequenceNum, err)
		}
		c.hist.Record(time.Since(start).Nanoseconds())

		n := atomic.AddUint64(&c.eventsConsumed, 1)
		if n%summaryEvery == 0 {
			logs.Infof("%s", c.hist.Snapshot())
			c.hist.Clear()
		}
	}
}

// runMonitor logs pipeline totals every monitorInterval.
func (c *Consumer) runMonitor(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	// stopCheck wakes the loop so it notices Stop (or the producer's exit),
	// which set an atomic flag rather than signalling a channel.
	stopCheck := time.NewTicker(tailerTimeoutMs * time.Millisecond)
	defer stopCheck.Stop()

	for {
		if c.shuttingDown(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-sys.Shutdown():
			return
		case <-stopCheck.C:
			continue
		case <-ticker.C:
			counts := c.vld.Snapshot()
			eventLatency := c.mtr.Snapshot().EventLatency
			logs.Infof(
				"consumer: read=%d consumed=%d queue_len=%d ring_full_spins=%d processed=%d validated=%d errors=%d event_latency_avg=%s",
				atomic.LoadUint64(&c.eventsRead),
				atomic.LoadUint64(&c.eventsConsumed),
				c.queue.Size(),
				atomic.LoadUint64(&c.ringFullSpins),
				counts.EventsProcessed,
				counts.TradesValidated,
				counts.ValidationErrors,
				eventLatency.Avg,
			)

			if c.checkpoints != nil {
				if err := c.checkpoints.Write(c.hist.Snapshot().Checkpoint()); err != nil {
					logs.Errorf("consumer: write checkpoint to %s, err: %+v", c.checkpointPath, err)
				}
			}
		}
	}
}
