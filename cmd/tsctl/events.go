package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// eventRecord is the decoded form of one event line. It is declared here
// rather than reusing otel.Event so old logs with extra fields still load.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	Ticket    uint64         `json:"ticket"`
	Tag       string         `json:"tag"`
	PromptLen int            `json:"prompt_len"`
	Status    int            `json:"status"`
	Count     int            `json:"count"`
	DurMs     float64        `json:"dur_ms"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

type eventFilter struct {
	kind    string
	level   string
	comp    string
	tag     string
	session string
}

func (f eventFilter) match(ev eventRecord) bool {
	switch {
	case f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind):
		return false
	case f.level != "" && levelRank(ev.Level) < levelRank(f.level):
		return false
	case f.comp != "" && ev.Comp != f.comp:
		return false
	case f.tag != "" && !strings.EqualFold(strings.TrimPrefix(ev.Tag, "#"), strings.TrimPrefix(f.tag, "#")):
		return false
	case f.session != "" && !strings.HasPrefix(ev.SessionID, f.session):
		return false
	}
	return true
}

func formatEvent(ev eventRecord) string {
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-4s] %-20s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.Ticket != 0 {
		parts = append(parts, fmt.Sprintf("#%d", ev.Ticket))
	}
	if ev.Tag != "" {
		parts = append(parts, ev.Tag)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+truncate(ev.Msg, 80))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.PromptLen > 0 {
		parts = append(parts, fmt.Sprintf("prompt=%dB", ev.PromptLen))
	}
	if ev.Status != 0 {
		parts = append(parts, fmt.Sprintf("http=%d", ev.Status))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func runEvents(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	dir := dirFlag(fs)
	tail := fs.Int("tail", 50, "Number of recent lines to show")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	var filt eventFilter
	fs.StringVar(&filt.kind, "kind", "", "Filter by kind prefix (e.g. 'drilldown')")
	fs.StringVar(&filt.level, "level", "", "Minimum level: debug, info, warn, error")
	fs.StringVar(&filt.comp, "comp", "", "Filter by component")
	fs.StringVar(&filt.tag, "tag", "", "Filter by hashtag")
	fs.StringVar(&filt.session, "session", "", "Filter by session ID prefix")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := eventLogPath(*dir)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w (run trendscope first to create %s)", err, path)
	}
	defer f.Close()

	show := func(l parsedLine) {
		if *rawJSON {
			fmt.Fprintln(w, string(l.raw))
			return
		}
		fmt.Fprintln(w, formatEvent(l.ev))
	}

	for _, l := range readTailLines(f, *tail, filt.match) {
		show(l)
	}
	if !*follow {
		return nil
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		var ev eventRecord
		if len(line) == 0 || json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filt.match(ev) {
			show(parsedLine{ev: ev, raw: line})
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines returns the last n lines of r that decode and match.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	window := make([]parsedLine, 0, min(n, 1024))
	for scanner.Scan() {
		raw := scanner.Bytes()
		var ev eventRecord
		if len(raw) == 0 || json.Unmarshal(raw, &ev) != nil || !match(ev) {
			continue
		}
		line := parsedLine{ev: ev, raw: append([]byte(nil), raw...)}
		if len(window) == n {
			copy(window, window[1:])
			window[n-1] = line
		} else {
			window = append(window, line)
		}
	}
	return window
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	switch {
	case ms >= 100:
		return 0
	case ms >= 1:
		return 1
	default:
		return 2
	}
}
