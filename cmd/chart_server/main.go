package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/lwc_agent/internal/api"
	"github.com/dgnsrekt/lwc_agent/internal/browser"
	"github.com/dgnsrekt/lwc_agent/internal/chartctl"
	"github.com/dgnsrekt/lwc_agent/internal/config"
	"github.com/dgnsrekt/lwc_agent/internal/controller"
	"github.com/dgnsrekt/lwc_agent/internal/idgen"
	"github.com/dgnsrekt/lwc_agent/internal/journal"
	"github.com/dgnsrekt/lwc_agent/internal/netutil"
	"github.com/dgnsrekt/lwc_agent/internal/snapshot"
	"github.com/dgnsrekt/lwc_agent/internal/webview"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("config loaded",
		"bind_addr", cfg.BindAddr,
		"cdp_url", cfg.CDPURL(),
		"page_url", cfg.PageURL,
		"tab_url_filter", cfg.TabURLFilter,
		"eval_timeout_ms", cfg.EvalTimeoutMS,
		"journal_enabled", cfg.JournalEnabled,
		"launch_browser", cfg.LaunchBrowser,
	)

	bindAddr, err := netutil.PickBindAddr(cfg.BindAddr, cfg.BindCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to pick bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			PageURL:    cfg.PageURL,
			ProfileDir: cfg.ProfileDir,
			WindowSize: cfg.WindowSize,
			AppWindow:  cfg.AppWindow,
			Headless:   cfg.Headless,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	if err := probeCDP(ctx, cfg.CDPURL(), cfg.TabURLFilter); err != nil {
		slog.Error("CDP endpoint probe failed", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}

	evalTimeout := time.Duration(cfg.EvalTimeoutMS) * time.Millisecond
	host := webview.NewHost(cfg.CDPURL(), cfg.TabURLFilter, evalTimeout)
	if err := host.Connect(ctx); err != nil {
		slog.Error("failed to attach to web view", "error", err)
		os.Exit(1)
	}
	defer func() { _ = host.Close() }()

	ch := chartctl.NewChannel(host.Execute, evalTimeout)

	if cfg.JournalEnabled {
		jw := journal.NewWriter(cfg.JournalDir, uuid.New().String(), cfg.JournalBufferSize, cfg.JournalMaxSizeMB)
		ch.SetRecorder(jw)
		defer func() { _ = jw.Close() }()
	}

	host.OnReady(func() {
		if err := ch.OnReady(); err != nil {
			slog.Error("page ready flush failed", "error", err)
		}
	})
	host.OnCallback(ch.HandleCallback)

	if err := host.Navigate(ctx, cfg.PageURL); err != nil {
		slog.Error("failed to navigate to chart page", "page_url", cfg.PageURL, "error", err)
		os.Exit(1)
	}

	snaps, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		slog.Error("failed to open snapshot store", "dir", cfg.SnapshotDir, "error", err)
		os.Exit(1)
	}

	win := chartctl.NewWindow(ch, idgen.New("obj"))
	svc := controller.NewService(win, snaps)

	if err := applyStartupLayout(svc, cfg.LayoutPath); err != nil {
		slog.Error("failed to apply startup layout", "path", cfg.LayoutPath, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(svc)}

	go func() {
		slog.Info("chart server listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("chart server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("chart server shutdown failed", "error", err)
	}
}

// probeCDP checks that the CDP endpoint answers and the chart page tab
// exists before the raw transport attaches to it.
func probeCDP(ctx context.Context, cdpURL, tabFilter string) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(probeCtx, cdpURL)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx); err != nil {
		return err
	}
	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return err
	}
	filter := strings.ToLower(strings.TrimSpace(tabFilter))
	for _, t := range targets {
		if t.Type == "page" && strings.Contains(strings.ToLower(t.URL), filter) {
			return nil
		}
	}
	return errors.New("no page target matching filter " + tabFilter)
}

// applyStartupLayout creates the charts declared in the layout file. A
// missing file is not an error.
func applyStartupLayout(svc *controller.Service, path string) error {
	layout, err := config.LoadLayout(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range layout.Charts {
		opts := chartctl.DefaultChartOptions()
		opts.Width = entry.Width
		opts.Height = entry.Height
		if entry.Position != "" {
			opts.Position = entry.Position
		}
		opts.Autosize = entry.Autosize
		info, err := svc.CreateChart(opts)
		if err != nil {
			return err
		}
		slog.Info("startup chart created", "id", info.ID, "position", info.Position)
	}
	return nil
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
