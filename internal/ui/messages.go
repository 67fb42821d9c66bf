// Package ui is the Bubble Tea front end: a prompt box, the ranked trend
// list with suggestions, and a drilldown screen of top posts per hashtag.
package ui

import (
	"time"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/session"
	"github.com/abelbrown/trendscope/internal/store"
	"github.com/abelbrown/trendscope/internal/trend"
)

// AnalysisDone carries the outcome of one analysis request.
type AnalysisDone struct {
	Ticket session.AnalysisTicket
	Result trend.Analysis
	Err    error
	Dur    time.Duration
}

// PostsLoaded carries the outcome of one drilldown request.
type PostsLoaded struct {
	Ticket session.PostsTicket
	Posts  []drilldown.Post
	Err    error
	Dur    time.Duration
}

// ImageProbed reports whether a post's proxied image loaded.
type ImageProbed struct {
	Ticket session.PostsTicket // the fetch the post came from (for stale-check)
	PostID string
	Err    error
}

// HistoryLoaded carries previously submitted prompts, newest first.
type HistoryLoaded struct {
	Entries []store.Entry
	Err     error
}

// HistoryRecorded is sent after a prompt was written to the history.
type HistoryRecorded struct {
	Err error
}
