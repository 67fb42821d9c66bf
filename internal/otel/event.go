// Package otel records what the client did during a session.
//
// Events are flat structs written one per line as JSONL. The Logger hands
// them to a background writer so the UI goroutine never blocks on disk, and
// an optional RingBuffer keeps the most recent ones for the debug overlay.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is the severity of an event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names an event as "<pipeline>.<action>".
type EventKind string

const (
	// Analysis pipeline
	KindAnalyzeStart    EventKind = "analyze.start"
	KindAnalyzeComplete EventKind = "analyze.complete"
	KindAnalyzeError    EventKind = "analyze.error"
	KindAnalyzeStale    EventKind = "analyze.stale"

	// Drilldown pipeline
	KindDrilldownStart    EventKind = "drilldown.start"
	KindDrilldownComplete EventKind = "drilldown.complete"
	KindDrilldownError    EventKind = "drilldown.error"
	KindDrilldownStale    EventKind = "drilldown.stale"

	KindImageProbeFail EventKind = "image.probe_fail"
	KindHistoryError   EventKind = "history.error"

	KindKeyPress EventKind = "ui.key"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Pipeline returns the part of the kind before the dot.
func (k EventKind) Pipeline() string {
	p, _, _ := strings.Cut(string(k), ".")
	return p
}

// Event is one observability record. Only Kind is required; Time is filled
// in by the Logger when zero.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "ui", "main", "fixture"
	SessionID string         `json:"session_id,omitempty"`
	Ticket    uint64         `json:"ticket,omitempty"` // analysis gen or drilldown seq
	Tag       string         `json:"tag,omitempty"`
	PromptLen int            `json:"prompt_len,omitempty"` // prompts themselves are not logged
	Status    int            `json:"status,omitempty"`     // HTTP status for server errors
	Count     int            `json:"count,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as fractional milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
