// Package session holds the view state machine: which screen is showing,
// the last good results of each pipeline, and the rules for moving between
// screens.
//
// The Machine never performs I/O. Transitions that need a request hand back a
// ticket; the caller runs the request and reports the outcome with the ticket.
// Outcomes whose ticket no longer matches the current state are discarded, so
// a slow response can never overwrite newer state or revive a closed view.
package session

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/trend"
)

// MaxPromptRunes is the longest prompt accepted for submission.
const MaxPromptRunes = 1000

var (
	// ErrValidation is wrapped by every prompt validation failure.
	ErrValidation = errors.New("invalid prompt")
	// ErrEmptyPrompt: the prompt is empty after trimming.
	ErrEmptyPrompt = fmt.Errorf("%w: prompt is empty", ErrValidation)
	// ErrPromptTooLong: the prompt exceeds MaxPromptRunes.
	ErrPromptTooLong = fmt.Errorf("%w: prompt exceeds %d characters", ErrValidation, MaxPromptRunes)
	// ErrBusy: the pipeline already has a request in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrInvalidTransition: the action is not valid in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
)

// View is the current screen. It is either Main or Drilldown.
type View interface {
	Name() string
	isView()
}

// Main is the analysis screen.
type Main struct{}

func (Main) Name() string { return "main" }
func (Main) isView()      {}

// Drilldown is the posts screen for one selected hashtag. A Drilldown always
// has a selection; it is dropped together with the view on Back.
type Drilldown struct {
	Index    int                 // position of Selected in the trend list
	Selected trend.HashtagRecord // the hashtag being drilled into
	Posts    []drilldown.Post
	Loading  bool
	Err      error

	seq uint64 // identifies the fetch this view is waiting for
}

func (Drilldown) Name() string { return "drilldown" }
func (Drilldown) isView()      {}

// Ticket identifies the fetch this view is showing or waiting for.
func (d Drilldown) Ticket() PostsTicket {
	return PostsTicket{Seq: d.seq, Tag: d.Selected.Tag, Index: d.Index}
}

// Status reports what the drilldown screen should show.
func (d Drilldown) Status() Status {
	switch {
	case d.Loading:
		return StatusLoading
	case d.Err != nil:
		return StatusError
	case len(d.Posts) == 0:
		return StatusEmpty
	default:
		return StatusReady
	}
}

// Status is the display state of a pipeline.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusEmpty
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	default:
		return "idle"
	}
}

// AnalysisTicket identifies one dispatched analysis request.
type AnalysisTicket struct {
	Gen    uint64
	Prompt string
}

// PostsTicket identifies one dispatched drilldown request.
type PostsTicket struct {
	Seq   uint64
	Tag   string
	Index int
}

// primary is the analysis pipeline's state.
type primary struct {
	loading   bool
	err       error
	submitted bool
	result    trend.Analysis
	gen       uint64
}

// Machine is the view state machine. The zero value is not ready; use New.
type Machine struct {
	primary primary
	view    View
	seq     uint64
}

// New returns a Machine on the Main view with empty results.
func New() Machine {
	return Machine{
		primary: primary{result: trend.Empty()},
		view:    Main{},
	}
}

// ValidatePrompt checks a prompt before dispatch.
func ValidatePrompt(prompt string) error {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return ErrEmptyPrompt
	}
	if utf8.RuneCountInString(p) > MaxPromptRunes {
		return ErrPromptTooLong
	}
	return nil
}

// Submit starts a new analysis. Valid only on Main with no analysis in
// flight. Previous results and error are cleared immediately.
func (m *Machine) Submit(prompt string) (AnalysisTicket, error) {
	if _, ok := m.view.(Main); !ok {
		return AnalysisTicket{}, fmt.Errorf("submit from %s: %w", m.view.Name(), ErrInvalidTransition)
	}
	if m.primary.loading {
		return AnalysisTicket{}, fmt.Errorf("submit: %w", ErrBusy)
	}
	if err := ValidatePrompt(prompt); err != nil {
		return AnalysisTicket{}, err
	}

	m.primary.gen++
	m.primary.loading = true
	m.primary.submitted = true
	m.primary.err = nil
	m.primary.result = trend.Empty()

	return AnalysisTicket{Gen: m.primary.gen, Prompt: strings.TrimSpace(prompt)}, nil
}

// CompleteAnalysis records the outcome of the request identified by t.
// It returns false, changing nothing, if t is not the request in flight.
// On error the containers stay empty and the error is kept for display.
func (m *Machine) CompleteAnalysis(t AnalysisTicket, res trend.Analysis, err error) bool {
	if !m.primary.loading || t.Gen != m.primary.gen {
		return false
	}
	m.primary.loading = false
	if err != nil {
		m.primary.err = err
		m.primary.result = trend.Empty()
		return true
	}
	m.primary.err = nil
	m.primary.result = filled(res)
	return true
}

// SelectHashtag opens the drilldown for the trend at index. Valid only on
// Main when that trend exists.
func (m *Machine) SelectHashtag(index int) (PostsTicket, error) {
	if _, ok := m.view.(Main); !ok {
		return PostsTicket{}, fmt.Errorf("select from %s: %w", m.view.Name(), ErrInvalidTransition)
	}
	trends := m.primary.result.Trends
	if index < 0 || index >= len(trends) {
		return PostsTicket{}, fmt.Errorf("select index %d of %d trends: %w", index, len(trends), ErrInvalidTransition)
	}

	d := Drilldown{Index: index, Selected: trends[index]}
	t := m.startFetch(&d)
	m.view = d
	return t, nil
}

// RetryDrilldown re-issues the fetch for the current selection after a
// failure. The view does not change.
func (m *Machine) RetryDrilldown() (PostsTicket, error) {
	d, ok := m.view.(Drilldown)
	if !ok {
		return PostsTicket{}, fmt.Errorf("retry from %s: %w", m.view.Name(), ErrInvalidTransition)
	}
	if d.Loading {
		return PostsTicket{}, fmt.Errorf("retry: %w", ErrBusy)
	}
	if d.Err == nil {
		return PostsTicket{}, fmt.Errorf("retry without a failure: %w", ErrInvalidTransition)
	}

	t := m.startFetch(&d)
	m.view = d
	return t, nil
}

func (m *Machine) startFetch(d *Drilldown) PostsTicket {
	m.seq++
	d.seq = m.seq
	d.Loading = true
	d.Err = nil
	d.Posts = nil
	return d.Ticket()
}

// CompletePosts records the outcome of the drilldown request identified by t.
// Results for a selection that is no longer on screen are discarded and
// false is returned.
func (m *Machine) CompletePosts(t PostsTicket, posts []drilldown.Post, err error) bool {
	d, ok := m.view.(Drilldown)
	if !ok || !d.Loading || d.seq != t.Seq || d.Selected.Tag != t.Tag {
		return false
	}
	d.Loading = false
	if err != nil {
		d.Err = err
		d.Posts = []drilldown.Post{}
	} else {
		if posts == nil {
			posts = []drilldown.Post{}
		}
		d.Posts = posts
	}
	m.view = d
	return true
}

// Back leaves the drilldown. The selection, posts and drilldown error are
// dropped; analysis results are untouched.
func (m *Machine) Back() error {
	if _, ok := m.view.(Drilldown); !ok {
		return fmt.Errorf("back from %s: %w", m.view.Name(), ErrInvalidTransition)
	}
	m.view = Main{}
	return nil
}

// View returns the current screen.
func (m Machine) View() View {
	return m.view
}

// Drilldown returns the drilldown state when that view is active.
func (m Machine) Drilldown() (Drilldown, bool) {
	d, ok := m.view.(Drilldown)
	return d, ok
}

// Loading reports whether an analysis request is in flight.
func (m Machine) Loading() bool {
	return m.primary.loading
}

// Err returns the analysis pipeline's error, if the last request failed.
func (m Machine) Err() error {
	return m.primary.err
}

// Keywords returns the current keyword list.
func (m Machine) Keywords() []string {
	return m.primary.result.Keywords
}

// Trends returns the current ranked trend list.
func (m Machine) Trends() []trend.HashtagRecord {
	return m.primary.result.Trends
}

// Suggestions returns the current strategy suggestions.
func (m Machine) Suggestions() []string {
	return m.primary.result.Suggestions
}

// Status reports what the main screen's result area should show.
func (m Machine) Status() Status {
	switch {
	case m.primary.loading:
		return StatusLoading
	case m.primary.err != nil:
		return StatusError
	case !m.primary.submitted:
		return StatusIdle
	case len(m.primary.result.Trends) == 0:
		return StatusEmpty
	default:
		return StatusReady
	}
}

// filled replaces nil containers with empty ones.
func filled(a trend.Analysis) trend.Analysis {
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	if a.Trends == nil {
		a.Trends = []trend.HashtagRecord{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []string{}
	}
	return a
}
