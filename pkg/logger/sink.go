package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is one log line handed to a Sink.
type Entry struct {
	Time      time.Time
	Level     string
	Category  string
	Message   string
	Exception string
}

// Sink stores log entries outside the process, e.g. in a database table.
type Sink interface {
	WriteEntry(ctx context.Context, e Entry) error
}

const (
	maxCategoryLen  = 200
	maxMessageLen   = 2000
	maxExceptionLen = 4000

	sinkQueueSize    = 1024
	sinkWriteTimeout = 5 * time.Second
)

// SinkCore is a zapcore.Core copying entries at or above its level to a Sink.
// Entries are written by one background goroutine; when the queue is full
// they are dropped. Sink failures go to stderr and never back into the
// logger, so a failing sink cannot feed itself.
type SinkCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	q      *sinkQueue
}

type sinkQueue struct {
	sink   Sink
	stderr io.Writer

	mu      sync.Mutex
	closed  bool
	entries chan Entry
	done    chan struct{}
}

// NewSinkCore starts the writer goroutine of a SinkCore. Close stops it.
func NewSinkCore(level zapcore.LevelEnabler, sink Sink) *SinkCore {
	return newSinkCore(level, sink, os.Stderr, sinkQueueSize)
}

func newSinkCore(level zapcore.LevelEnabler, sink Sink, stderr io.Writer, size int) *SinkCore {
	q := &sinkQueue{
		sink:    sink,
		stderr:  stderr,
		entries: make(chan Entry, size),
		done:    make(chan struct{}),
	}
	go q.run()
	return &SinkCore{LevelEnabler: level, q: q}
}

// With implements zapcore.Core.
func (c *SinkCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &SinkCore{LevelEnabler: c.LevelEnabler, fields: merged, q: c.q}
}

// Check implements zapcore.Core.
func (c *SinkCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write implements zapcore.Core. It never blocks on the sink.
func (c *SinkCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	c.q.push(c.entry(ent, fields))
	return nil
}

// Sync implements zapcore.Core. Queued entries are flushed by Close.
func (c *SinkCore) Sync() error {
	return nil
}

// Close stops accepting entries and waits until the queued ones are written
// or ctx is done.
func (c *SinkCore) Close(ctx context.Context) error {
	c.q.mu.Lock()
	if !c.q.closed {
		c.q.closed = true
		close(c.q.entries)
	}
	c.q.mu.Unlock()

	select {
	case <-c.q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// entry flattens a zap entry. The "component" field becomes the category,
// "error" the exception; other fields are appended to the message as JSON.
func (c *SinkCore) entry(ent zapcore.Entry, fields []zapcore.Field) Entry {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	category := ent.LoggerName
	if component, ok := enc.Fields["component"]; ok {
		category = fmt.Sprint(component)
		delete(enc.Fields, "component")
	}

	var exception string
	if err, ok := enc.Fields["error"]; ok {
		exception = fmt.Sprint(err)
		delete(enc.Fields, "error")
		delete(enc.Fields, "errorVerbose")
	}
	if ent.Stack != "" {
		exception = strings.TrimSpace(exception + "\n" + ent.Stack)
	}

	message := ent.Message
	if len(enc.Fields) > 0 {
		if b, err := json.Marshal(enc.Fields); err == nil {
			message += " " + string(b)
		}
	}

	return Entry{
		Time:      ent.Time.UTC(),
		Level:     ent.Level.CapitalString(),
		Category:  truncate(category, maxCategoryLen),
		Message:   truncate(message, maxMessageLen),
		Exception: truncate(exception, maxExceptionLen),
	}
}

func (q *sinkQueue) push(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.entries <- e:
	default:
		fmt.Fprintf(q.stderr, "log sink: queue full, dropped %s entry\n", e.Level)
	}
}

func (q *sinkQueue) run() {
	defer close(q.done)
	for e := range q.entries {
		q.write(e)
	}
}

func (q *sinkQueue) write(e Entry) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(q.stderr, "log sink: panic: %v\n", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()
	if err := q.sink.WriteEntry(ctx, e); err != nil {
		fmt.Fprintf(q.stderr, "log sink: %v\n", err)
	}
}

// truncate cuts s to at most n bytes without leaving a partial rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
