package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

// pipelineStats aggregates one pipeline's events.
type pipelineStats struct {
	started, completed, failed, stale int
	durs                              []float64
	statuses                          map[int]int
}

func (p *pipelineStats) add(ev eventRecord) {
	_, action, _ := strings.Cut(ev.Kind, ".")
	switch action {
	case "start":
		p.started++
	case "complete":
		p.completed++
		if ev.DurMs > 0 {
			p.durs = append(p.durs, ev.DurMs)
		}
	case "error":
		p.failed++
		if ev.Status != 0 {
			if p.statuses == nil {
				p.statuses = map[int]int{}
			}
			p.statuses[ev.Status]++
		}
	case "stale":
		p.stale++
	}
}

// percentile returns the q-th percentile (0..1) of the completed durations.
func (p *pipelineStats) percentile(q float64) float64 {
	if len(p.durs) == 0 {
		return 0
	}
	sorted := slices.Clone(p.durs)
	slices.Sort(sorted)
	return sorted[int(q*float64(len(sorted)-1))]
}

func collectStats(r io.Reader, since time.Time) map[string]*pipelineStats {
	stats := map[string]*pipelineStats{}
	for _, l := range readTailLines(r, 1<<20, func(ev eventRecord) bool { return !ev.Time.Before(since) }) {
		pipeline, _, _ := strings.Cut(l.ev.Kind, ".")
		if pipeline != "analyze" && pipeline != "drilldown" && pipeline != "image" {
			continue
		}
		if stats[pipeline] == nil {
			stats[pipeline] = &pipelineStats{}
		}
		stats[pipeline].add(l.ev)
	}
	return stats
}

func runStats(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	dir := dirFlag(fs)
	window := fs.Duration("since", 24*time.Hour, "Only count events newer than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(eventLogPath(*dir))
	if err != nil {
		return err
	}
	defer f.Close()

	stats := collectStats(f, time.Now().Add(-*window))
	if len(stats) == 0 {
		fmt.Fprintf(w, "No pipeline events in the last %s.\n", *window)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PIPELINE\tSTARTED\tOK\tFAILED\tSTALE\tP50 MS\tP95 MS\tHTTP")
	for _, name := range []string{"analyze", "drilldown", "image"} {
		s := stats[name]
		if s == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.0f\t%.0f\t%s\n",
			name, s.started, s.completed, s.failed, s.stale,
			s.percentile(0.5), s.percentile(0.95), formatStatuses(s.statuses))
	}
	return tw.Flush()
}

func formatStatuses(m map[int]int) string {
	if len(m) == 0 {
		return "-"
	}
	codes := make([]int, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d×%d", c, m[c])
	}
	return strings.Join(parts, " ")
}
