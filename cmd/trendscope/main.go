// Command trendscope is a terminal client for the hashtag trend analyzer.
//
// Usage:
//
//	trendscope                 connect to the backend in ~/.trendscope/config.yaml
//	trendscope -api URL        connect to URL instead
//	trendscope -demo           run against the built-in demo backend
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/trendscope/internal/config"
	"github.com/abelbrown/trendscope/internal/drilldown"
	"github.com/abelbrown/trendscope/internal/fixture"
	"github.com/abelbrown/trendscope/internal/logging"
	"github.com/abelbrown/trendscope/internal/otel"
	"github.com/abelbrown/trendscope/internal/session"
	"github.com/abelbrown/trendscope/internal/store"
	"github.com/abelbrown/trendscope/internal/trend"
	"github.com/abelbrown/trendscope/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

const version = "0.3.0"

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", config.DefaultPath(), "Path to config.yaml")
	apiURL := flag.String("api", "", "Backend base URL (overrides config)")
	demo := flag.Bool("demo", false, "Serve the built-in demo backend and connect to it")
	demoAddr := flag.String("demo-addr", "127.0.0.1:0", "Listen address for -demo")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("trendscope", version)
		return 0
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trendscope: %v\n", err)
		return 1
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "trendscope: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "trendscope: create data directory: %v\n", err)
		return 1
	}
	if err := logging.Init(cfg.DataDir, cfg.Log.Level, version); err != nil {
		fmt.Fprintf(os.Stderr, "trendscope: %v\n", err)
		return 1
	}
	defer logging.Close()

	events, err := otel.OpenFile(cfg.DataDir)
	if err != nil {
		logging.Warn("event log disabled", "error", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if *demo {
		addr, err := startDemo(gctx, g, *demoAddr)
		if err != nil {
			logging.Error("demo backend", "error", err)
			fmt.Fprintf(os.Stderr, "trendscope: %v\n", err)
			return 1
		}
		cfg.API.BaseURL = "http://" + addr
		cfg.Media.ProxyBase = ""
	}

	events.Info(otel.KindStartup, "main", fmt.Sprintf("version=%s api=%s demo=%t", version, cfg.API.BaseURL, *demo))
	logging.Info("backend", "url", cfg.API.BaseURL, "timeout", cfg.API.Timeout, "rps", cfg.API.RPS)

	analyzer, posts := newClients(cfg)

	var history *store.Store
	if cfg.History.Enabled {
		history, err = store.Open(filepath.Join(cfg.DataDir, "history.db"))
		if err != nil {
			logging.Warn("prompt history disabled", "error", err)
			events.Error(otel.KindHistoryError, "main", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	appCfg := ui.AppConfig{
		Context: gctx,
		Analyze: func(t session.AnalysisTicket) tea.Cmd {
			return func() tea.Msg {
				start := time.Now()
				res, err := analyzer.Analyze(gctx, t.Prompt)
				if err != nil {
					logging.Warn("analyze failed", "gen", t.Gen, "error", err)
				}
				return ui.AnalysisDone{Ticket: t, Result: res, Err: err, Dur: time.Since(start)}
			}
		},
		FetchPosts: func(ctx context.Context, t session.PostsTicket) tea.Cmd {
			return func() tea.Msg {
				start := time.Now()
				list, err := posts.FetchPosts(ctx, t.Tag)
				if err != nil {
					logging.Warn("drilldown failed", "tag", t.Tag, "error", err)
				}
				return ui.PostsLoaded{Ticket: t, Posts: list, Err: err, Dur: time.Since(start)}
			}
		},
		ProbeImage: func(ctx context.Context, t session.PostsTicket, p drilldown.Post) tea.Cmd {
			return func() tea.Msg {
				return ui.ImageProbed{Ticket: t, PostID: p.ID, Err: posts.ProbeImage(ctx, p.ImageURL)}
			}
		},
		Media:  posts.Media(),
		Logger: events,
		Ring:   ring,
	}
	if history != nil {
		size := cfg.History.Size
		appCfg.LoadHistory = func() tea.Cmd {
			return func() tea.Msg {
				entries, err := history.RecentPrompts(size)
				return ui.HistoryLoaded{Entries: entries, Err: err}
			}
		}
		appCfg.RecordPrompt = func(prompt string, trendCount int, status string) tea.Cmd {
			return func() tea.Msg {
				if err := history.RecordPrompt(prompt, trendCount, status); err != nil {
					return ui.HistoryRecorded{Err: err}
				}
				_, err := history.Prune(size)
				return ui.HistoryRecorded{Err: err}
			}
		}
	}

	program := tea.NewProgram(ui.NewAppWithConfig(appCfg), tea.WithAltScreen(), tea.WithContext(gctx))
	g.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	events.Info(otel.KindShutdown, "main", "")
	if err != nil {
		logging.Error("exited with error", "error", err)
		events.Error(otel.KindError, "main", err)
		fmt.Fprintf(os.Stderr, "trendscope: %v\n", err)
		return 1
	}
	return 0
}

// newClients builds one client per pipeline. Each owns its rate limiter, so
// image probes left over from a drilldown never delay the next analysis.
func newClients(cfg *config.Config) (*trend.Client, *drilldown.Client) {
	analyzer := trend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.RPS)
	posts := drilldown.NewClient(cfg.API.BaseURL, drilldown.Media{
		ProxyBase:        cfg.Media.ProxyBase,
		AvatarTemplate:   cfg.Media.AvatarTemplate,
		FallbackImage:    cfg.Media.FallbackImage,
		UnavailableImage: cfg.Media.UnavailableImage,
	}, cfg.API.Timeout, cfg.API.RPS)
	return analyzer, posts
}

// startDemo serves the demo backend on addr until ctx is done and returns
// the address it listens on.
func startDemo(ctx context.Context, g *errgroup.Group, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           fixture.Router(logging.WithPrefix("fixture")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("demo backend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logging.Info("demo backend listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}
