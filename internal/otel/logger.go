package otel

// The drain goroutine is the only reader of ch and the only writer to w.
// Senders hold sendMu for reading; Close takes it for writing before closing
// ch, so a send never meets a closed channel.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the events waiting for the writer.
const queueSize = 2048

// EventsFile is the JSONL file name inside the data directory.
const EventsFile = "trendscope.events.jsonl"

type queued struct {
	line []byte
	ev   Event // kept so the ring sees Dur without a JSON round-trip
}

// Logger writes events as JSONL from a background goroutine.
// All methods are safe for concurrent use.
type Logger struct {
	sessionID string
	w         io.Writer
	closer    io.Closer
	ring      atomic.Pointer[RingBuffer]
	dropped   atomic.Uint64

	sendMu sync.RWMutex
	closed bool // guarded by sendMu
	ch     chan queued
	done   chan struct{}
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		sessionID: hex.EncodeToString(sid[:]),
		ch:        make(chan queued, queueSize),
		w:         w,
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// OpenFile appends events to dir/EventsFile, creating dir if needed.
// Close also closes the file.
func OpenFile(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("otel: create %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("otel: open events file: %w", err)
	}
	l := NewLogger(f)
	l.closer = f
	return l, nil
}

// NewNullLogger returns a Logger that discards everything it is given.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for q := range l.ch {
		if _, err := l.w.Write(q.line); err != nil {
			l.dropped.Add(1)
		}

		if ring := l.ring.Load(); ring != nil {
			ring.Push(q.ev)
		}
	}
}

// Emit queues e for writing. Time defaults to now and SessionID is always
// overwritten. Emit never blocks: when the queue is full or the logger is
// closed the event is counted as dropped.
func (l *Logger) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	if !l.send(queued{line: append(line, '\n'), ev: e}) {
		l.dropped.Add(1)
	}
}

// send queues q without blocking. It reports false when the queue is full
// or the logger is closed.
func (l *Logger) send(q queued) bool {
	l.sendMu.RLock()
	defer l.sendMu.RUnlock()
	if l.closed {
		return false
	}
	select {
	case l.ch <- q:
		return true
	default:
		return false
	}
}

// Info emits an info event with a message.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn event with a message.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event. A nil err is recorded with an empty Err.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors subsequent events into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.ring.Store(ring)
}

// SessionID returns the id stamped on every event from this Logger.
func (l *Logger) SessionID() string { return l.sessionID }

// Dropped returns how many events were lost.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains the queue, stops the writer and closes the file opened by
// OpenFile. Events emitted after Close are counted as dropped. Calling Close
// again waits for the first call to finish and does nothing else.
func (l *Logger) Close() {
	l.sendMu.Lock()
	first := !l.closed
	if first {
		l.closed = true
		close(l.ch)
	}
	l.sendMu.Unlock()

	<-l.done
	if !first {
		return
	}
	if l.closer != nil {
		_ = l.closer.Close()
	}
	if d := l.dropped.Load(); d > 0 {
		fmt.Fprintf(os.Stderr, "trendscope: session %s dropped %d events\n", l.sessionID, d)
	}
}
