package ui

import (
	"context"
	"errors"
	"slices"

	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/format"
	"github.com/abelbrown/trendscope/internal/otel"
	"github.com/abelbrown/trendscope/internal/session"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// AppConfig wires the App to the outside world. The App never performs I/O
// itself: each func returns a tea.Cmd whose message reports the outcome.
// Nil funcs disable the feature.
//
// Drilldown requests receive a context that is cancelled when the user
// leaves that drilldown, so abandoned fetches and probes stop early.
type AppConfig struct {
	Context      context.Context // parent of drilldown contexts; nil means Background
	Analyze      func(t session.AnalysisTicket) tea.Cmd
	FetchPosts   func(ctx context.Context, t session.PostsTicket) tea.Cmd
	ProbeImage   func(ctx context.Context, t session.PostsTicket, p drilldown.Post) tea.Cmd
	LoadHistory  func() tea.Cmd
	RecordPrompt func(prompt string, trendCount int, status string) tea.Cmd

	Media  drilldown.Media
	Logger *otel.Logger
	Ring   *otel.RingBuffer // feeds the debug overlay
}

type focus int

const (
	focusPrompt focus = iota
	focusResults
)

// App is the root Bubble Tea model.
type App struct {
	cfg     AppConfig
	keys    keyMap
	machine session.Machine

	input   textarea.Model
	spinner spinner.Model
	bars    map[format.Tier]progress.Model

	focus      focus
	cursor     int // selected trend on Main
	postCursor int
	notice     string // inline validation message

	imageFailed map[string]bool // post ID -> proxied image failed

	drillCtx    context.Context // live while the current drilldown is open
	drillCancel context.CancelFunc

	history []string // newest first
	histPos int      // -1 when not browsing
	draft   string   // prompt text before browsing started

	showDebug bool
	width     int
	height    int
	ready     bool
}

// NewAppWithConfig creates the App.
func NewAppWithConfig(cfg AppConfig) App {
	ta := textarea.New()
	ta.Placeholder = "Describe your content or campaign, e.g. \"home workouts for busy parents\""
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StatusBarKey))

	return App{
		cfg:         cfg,
		keys:        defaultKeyMap(),
		machine:     session.New(),
		input:       ta,
		spinner:     sp,
		bars:        newBars(40),
		imageFailed: map[string]bool{},
		histPos:     -1,
	}
}

func newBars(width int) map[format.Tier]progress.Model {
	bars := make(map[format.Tier]progress.Model, 4)
	for _, t := range []format.Tier{format.TierCool, format.TierSteady, format.TierRising, format.TierHot} {
		from, to := t.Gradient()
		bars[t] = progress.New(progress.WithGradient(from, to), progress.WithoutPercentage(), progress.WithWidth(width))
	}
	return bars
}

// Init starts the cursor blink and loads the prompt history.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if a.cfg.LoadHistory != nil {
		cmds = append(cmds, a.cfg.LoadHistory())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.SetWidth(max(msg.Width-6, 10))
		a.bars = newBars(min(max(msg.Width/3, 10), 40))
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case AnalysisDone:
		return a.handleAnalysisDone(msg)

	case PostsLoaded:
		return a.handlePostsLoaded(msg)

	case ImageProbed:
		d, ok := a.machine.Drilldown()
		if !ok || d.Ticket() != msg.Ticket {
			return a, nil
		}
		if msg.Err != nil {
			a.imageFailed[msg.PostID] = true
			a.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindImageProbeFail, Tag: msg.Ticket.Tag, Msg: msg.PostID, Err: msg.Err.Error()})
		}
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			a.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindHistoryError, Err: msg.Err.Error()})
			return a, nil
		}
		for _, e := range msg.Entries {
			if !slices.Contains(a.history, e.Prompt) {
				a.history = append(a.history, e.Prompt)
			}
		}
		return a, nil

	case HistoryRecorded:
		if msg.Err != nil {
			a.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindHistoryError, Err: msg.Err.Error()})
		}
		return a, nil
	}

	if a.focus == focusPrompt {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a, tea.Quit
	}
	if _, ok := a.machine.View().(session.Drilldown); ok {
		return a.handleDrilldownKey(msg)
	}
	if a.focus == focusPrompt {
		return a.handlePromptKey(msg)
	}
	return a.handleResultsKey(msg)
}

func (a App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		return a.submit()

	case key.Matches(msg, a.keys.Focus):
		if len(a.machine.Trends()) > 0 {
			a.focus = focusResults
			a.input.Blur()
		}
		return a, nil

	case key.Matches(msg, a.keys.HistPrev):
		a.browseHistory(1)
		return a, nil

	case key.Matches(msg, a.keys.HistNext):
		a.browseHistory(-1)
		return a, nil
	}

	a.notice = ""
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.logKey(msg)
	trends := a.machine.Trends()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Focus), key.Matches(msg, a.keys.Back):
		a.focus = focusPrompt
		return a, a.input.Focus()

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(trends)-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, a.keys.Open):
		return a.openDrilldown()
	}
	return a, nil
}

func (a App) handleDrilldownKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.logKey(msg)
	d, _ := a.machine.Drilldown()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, a.keys.Back):
		if err := a.machine.Back(); err == nil {
			a.closeDrilldown()
			a.imageFailed = map[string]bool{}
			a.postCursor = 0
		}
		return a, nil

	case key.Matches(msg, a.keys.Retry):
		t, err := a.machine.RetryDrilldown()
		if err != nil {
			return a, nil
		}
		return a.dispatchPosts(t)

	case key.Matches(msg, a.keys.Up):
		if a.postCursor > 0 {
			a.postCursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.postCursor < len(d.Posts)-1 {
			a.postCursor++
		}
		return a, nil
	}
	return a, nil
}

// submit validates the prompt and dispatches one analysis request.
func (a App) submit() (tea.Model, tea.Cmd) {
	t, err := a.machine.Submit(a.input.Value())
	switch {
	case errors.Is(err, session.ErrValidation):
		a.notice = session.Describe(err)
		return a, nil
	case err != nil:
		// Busy: the request in flight will finish on its own.
		return a, nil
	}

	a.notice = ""
	a.cursor = 0
	a.histPos = -1
	a.rememberPrompt(t.Prompt)
	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAnalyzeStart, Ticket: t.Gen, PromptLen: len(t.Prompt)})

	var cmd tea.Cmd
	if a.cfg.Analyze != nil {
		cmd = a.cfg.Analyze(t)
	}
	return a, tea.Batch(cmd, a.spinner.Tick)
}

func (a App) handleAnalysisDone(msg AnalysisDone) (tea.Model, tea.Cmd) {
	if !a.machine.CompleteAnalysis(msg.Ticket, msg.Result, msg.Err) {
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindAnalyzeStale, Ticket: msg.Ticket.Gen})
		return a, nil
	}

	if msg.Err != nil {
		e := otel.Event{Level: otel.LevelError, Kind: otel.KindAnalyzeError, Ticket: msg.Ticket.Gen, Dur: msg.Dur, Err: msg.Err.Error()}
		if status, ok := remoteStatus(msg.Err); ok {
			e.Status = status
		}
		a.emit(e)
	} else {
		a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAnalyzeComplete, Ticket: msg.Ticket.Gen, Dur: msg.Dur, Count: len(msg.Result.Trends)})
	}

	var cmd tea.Cmd
	if a.cfg.RecordPrompt != nil {
		cmd = a.cfg.RecordPrompt(msg.Ticket.Prompt, len(a.machine.Trends()), a.machine.Status().String())
	}
	return a, cmd
}

func (a App) openDrilldown() (tea.Model, tea.Cmd) {
	t, err := a.machine.SelectHashtag(a.cursor)
	if err != nil {
		return a, nil
	}
	a.postCursor = 0
	a.imageFailed = map[string]bool{}
	a.closeDrilldown()
	parent := a.cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	a.drillCtx, a.drillCancel = context.WithCancel(parent)
	return a.dispatchPosts(t)
}

// closeDrilldown cancels requests still running for the drilldown being left.
func (a *App) closeDrilldown() {
	if a.drillCancel != nil {
		a.drillCancel()
	}
	a.drillCtx, a.drillCancel = nil, nil
}

// drilldownContext returns the context of the open drilldown.
func (a App) drilldownContext() context.Context {
	if a.drillCtx == nil {
		return context.Background()
	}
	return a.drillCtx
}

func (a App) dispatchPosts(t session.PostsTicket) (tea.Model, tea.Cmd) {
	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDrilldownStart, Ticket: t.Seq, Tag: t.Tag})
	var cmd tea.Cmd
	if a.cfg.FetchPosts != nil {
		cmd = a.cfg.FetchPosts(a.drilldownContext(), t)
	}
	return a, tea.Batch(cmd, a.spinner.Tick)
}

func (a App) handlePostsLoaded(msg PostsLoaded) (tea.Model, tea.Cmd) {
	if !a.machine.CompletePosts(msg.Ticket, msg.Posts, msg.Err) {
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDrilldownStale, Ticket: msg.Ticket.Seq, Tag: msg.Ticket.Tag})
		return a, nil
	}

	if msg.Err != nil {
		e := otel.Event{Level: otel.LevelError, Kind: otel.KindDrilldownError, Ticket: msg.Ticket.Seq, Tag: msg.Ticket.Tag, Dur: msg.Dur, Err: msg.Err.Error()}
		if status, ok := remoteStatus(msg.Err); ok {
			e.Status = status
		}
		a.emit(e)
		return a, nil
	}
	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDrilldownComplete, Ticket: msg.Ticket.Seq, Tag: msg.Ticket.Tag, Dur: msg.Dur, Count: len(msg.Posts)})

	if a.cfg.ProbeImage == nil {
		return a, nil
	}
	ctx := a.drilldownContext()
	cmds := make([]tea.Cmd, 0, len(msg.Posts))
	for _, p := range msg.Posts {
		cmds = append(cmds, a.cfg.ProbeImage(ctx, msg.Ticket, p))
	}
	return a, tea.Batch(cmds...)
}

// rememberPrompt moves prompt to the front of the in-memory history.
func (a *App) rememberPrompt(prompt string) {
	if i := slices.Index(a.history, prompt); i >= 0 {
		a.history = slices.Delete(a.history, i, i+1)
	}
	a.history = slices.Insert(a.history, 0, prompt)
}

// browseHistory steps through previous prompts: +1 is older, -1 newer.
// Stepping past the newest restores the text typed before browsing.
func (a *App) browseHistory(step int) {
	next := a.histPos + step
	switch {
	case next >= len(a.history):
		return
	case next < 0:
		if a.histPos >= 0 {
			a.histPos = -1
			a.input.SetValue(a.draft)
		}
		return
	}
	if a.histPos == -1 {
		a.draft = a.input.Value()
	}
	a.histPos = next
	a.input.SetValue(a.history[next])
	a.notice = ""
}

func (a App) busy() bool {
	if a.machine.Loading() {
		return true
	}
	d, ok := a.machine.Drilldown()
	return ok && d.Loading
}

func (a App) emit(e otel.Event) {
	if a.cfg.Logger == nil {
		return
	}
	e.Comp = "ui"
	a.cfg.Logger.Emit(e)
}

// logKey records command keys. Prompt keystrokes are never logged.
func (a App) logKey(msg tea.KeyMsg) {
	a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Msg: msg.String()})
}

// Machine returns the view state (for testing).
func (a App) Machine() session.Machine {
	return a.machine
}

// ImageFailed reports whether the post's image fell back to the placeholder.
func (a App) ImageFailed(postID string) bool {
	return a.imageFailed[postID]
}
