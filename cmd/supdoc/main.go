// # cmd/supdoc/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"supdoc/internal/config"
	"supdoc/internal/shared/observability"
)

var (
	configPath  = flag.String("config", "./supdoc.toml", "Path to config file")
	jsonOut     = flag.Bool("json", false, "Print the objdoc as JSON instead of rendering")
	showSource  = flag.Bool("source", false, "Include source text in rendered output")
	showPrivate = flag.Bool("private", false, "Include private (underscore-prefixed) members")
	showImports = flag.Bool("imported", false, "Include members defined in other modules")
	noCache     = flag.Bool("no-cache", false, "Skip the on-disk objdoc cache")
	serveMode   = flag.Bool("serve", false, "Serve documentation over HTTP")
	watchMode   = flag.Bool("watch", false, "Re-inspect when watched sources change")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode")
	showHistory = flag.Bool("history", false, "Print recent inspection runs and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("supdoc v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, avoid terminal logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config; the default path is optional, anything explicit is not.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./supdoc.toml" && os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	cfg.Render.ShowPrivate = cfg.Render.ShowPrivate || *showPrivate
	cfg.Render.ShowImported = cfg.Render.ShowImported || *showImports
	cfg.Render.ShowSource = cfg.Render.ShowSource || *showSource
	if *noCache {
		cfg.Cache.Enabled = false
	}

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer shutdownTracing(ctx)

	app := NewApp(cfg)
	defer app.Close()

	name := flag.Arg(0)
	if name == "" && !*serveMode && !*showHistory {
		fmt.Fprintln(os.Stderr, "usage: supdoc [flags] MODULE[:QUALNAME]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	switch {
	case *showHistory:
		if err := app.PrintHistory(name); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case *serveMode:
		if err := app.Serve(ctx, *watchMode); err != nil {
			slog.Error("serve failed", "error", err)
			os.Exit(1)
		}
	case *ui:
		if err := app.RunUI(ctx, name, *watchMode); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	default:
		if err := app.Run(ctx, name, *jsonOut, *watchMode); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "supdoc", "supdoc.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "supdoc", "supdoc.log")
	}

	return "supdoc.log"
}
