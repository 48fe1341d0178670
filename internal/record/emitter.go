package record

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// LogEmitter writes records to a structured logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter constructs an emitter backed by logger.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Emit writes one log line per record.
func (e *LogEmitter) Emit(ctx context.Context, records ...Record) error {
	if e == nil || e.logger == nil {
		return nil
	}
	for _, r := range records {
		attrs := make([]any, 0, 8)
		for k, v := range r.Fields() {
			if k == "name" {
				continue
			}
			attrs = append(attrs, slog.Any(k, v))
		}
		e.logger.InfoContext(ctx, "ledger record", append([]any{slog.String("record", string(r.Name))}, attrs...)...)
	}
	return nil
}

// StreamEmitter appends records to a Redis stream so downstream consumers
// can follow the ledger with XREAD or consumer groups.
type StreamEmitter struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamEmitter builds an emitter writing to stream. A positive maxLen
// caps the stream length approximately.
func NewStreamEmitter(client *redis.Client, stream string, maxLen int64) *StreamEmitter {
	return &StreamEmitter{client: client, stream: stream, maxLen: maxLen}
}

// Emit appends all records in a single pipeline.
func (e *StreamEmitter) Emit(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := e.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, r := range records {
			args := &redis.XAddArgs{Stream: e.stream, Values: r.Fields()}
			if e.maxLen > 0 {
				args.MaxLen = e.maxLen
				args.Approx = true
			}
			p.XAdd(ctx, args)
		}
		return nil
	})
	return err
}

// Recorder keeps every emitted record in memory, in emission order.
type Recorder struct {
	mu      sync.RWMutex
	records []Record
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends records.
func (r *Recorder) Emit(_ context.Context, records ...Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

// Records returns a copy of everything emitted so far.
func (r *Recorder) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Last returns the most recent record, if any.
func (r *Recorder) Last() (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return Record{}, false
	}
	return r.records[len(r.records)-1], true
}

// Fanout emits to every wrapped emitter and joins their errors.
type Fanout []Emitter

// Emit forwards records to each emitter even if an earlier one fails.
func (f Fanout) Emit(ctx context.Context, records ...Record) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, records...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
