package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder accepts change events and writes them to a Sink asynchronously.
// It implements the policy manager's Auditor interface.
//
// Events are queued on a buffered channel drained by a single writer
// goroutine. When the buffer is full the event is dropped and counted
// rather than blocking the mutation path.
type Recorder struct {
	sink         Sink
	ch           chan *Record
	wg           sync.WaitGroup
	closeOnce    sync.Once
	dropped      atomic.Int64
	writeTimeout time.Duration
	logger       *slog.Logger
}

// RecorderConfig contains configuration for the Recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the event channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for persisting one record.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// NewRecorder creates a Recorder writing to sink and starts its writer
// goroutine. Call Close to flush and stop it.
func NewRecorder(cfg RecorderConfig, sink Sink, logger *slog.Logger) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		sink:         sink,
		ch:           make(chan *Record, cfg.AsyncBuffer),
		writeTimeout: cfg.WriteTimeout,
		logger:       logger.With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.writeLoop()

	return r
}

// RecordChange queues an audit record for a successful mutation. It never
// blocks: if the buffer is full the event is dropped and counted.
func (r *Recorder) RecordChange(op, policyName, detail string) {
	rec := NewRecord(op, policyName, detail)
	select {
	case r.ch <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit buffer full, dropping record",
			"op", op,
			"policy", policyName,
			"dropped_total", r.dropped.Load(),
		)
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events, flushes the queue, and waits for the
// writer goroutine to finish. The sink is not closed.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.ch)
	})
	r.wg.Wait()
	return nil
}

// writeLoop drains the event channel until it is closed.
func (r *Recorder) writeLoop() {
	defer r.wg.Done()

	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.sink.Write(ctx, rec); err != nil {
			r.logger.Error("failed to write audit record",
				"id", rec.ID,
				"op", rec.Op,
				"policy", rec.PolicyName,
				"error", err,
			)
		}
		cancel()
	}
}
