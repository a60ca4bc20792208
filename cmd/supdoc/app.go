// # cmd/supdoc/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"supdoc/internal/cache"
	"supdoc/internal/config"
	"supdoc/internal/data/history"
	"supdoc/internal/importer"
	"supdoc/internal/inspect"
	"supdoc/internal/objdoc"
	"supdoc/internal/pypath"
	"supdoc/internal/render/terminal"
	"supdoc/internal/serve"
	"supdoc/internal/watcher"
)

type App struct {
	Config     *config.Config
	store      *cache.Store
	hist       *history.Store
	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) *App {
	a := &App{Config: cfg}
	if cfg.Cache.Enabled {
		a.store = cache.NewStore(cfg.Cache.Dir, inspect.SchemaVersion)
	}
	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("history store unavailable", "path", cfg.History.Path, "error", err)
	} else {
		a.hist = hist
	}
	return a
}

func (a *App) Close() {
	if a.hist != nil {
		_ = a.hist.Close()
	}
}

// runResult is one completed inspection, ready for rendering and for the
// history record.
type runResult struct {
	Name     string
	Path     pypath.Path
	Doc      *objdoc.Node
	Objects  int
	Refs     int
	CacheHit bool
	Duration time.Duration
}

// inspectName resolves a CLI name and inspects it. Every call builds a
// fresh importer and inspector; the traversal cache is never shared.
func (a *App) inspectName(ctx context.Context, name string) (*runResult, error) {
	start := time.Now()
	imp := importer.New(a.Config.SearchPath)
	ins := inspect.New(imp)

	res := &runResult{Name: name}

	module, qualname, explicit := pypath.Split(name)

	// Whole-module requests can be answered from the disk cache without
	// parsing anything.
	if !explicit && a.store != nil {
		if src, err := imp.ModuleFile(name); err == nil {
			if doc, ok := a.store.Load(name, src); ok {
				res.Path = pypath.Path{Module: name}
				res.Doc = doc
				res.CacheHit = true
				res.Duration = time.Since(start)
				a.record(res)
				return res, nil
			}
		}
	}

	var p pypath.Path
	var err error
	if explicit {
		p, err = pypath.New(module, qualname)
		if err != nil {
			return nil, err
		}
	} else {
		p, _, err = imp.Locate(name)
		if err != nil {
			return nil, err
		}
	}
	res.Path = p

	if p.Qualname == "" {
		if _, err := imp.Import(p.Module); err != nil {
			return nil, err
		}
		res.Doc = ins.InspectModule(ctx, p.Module)
		if a.store != nil {
			if src, err := imp.ModuleFile(p.Module); err == nil {
				a.store.Save(p.Module, src, res.Doc)
			}
		}
	} else {
		res.Doc, err = ins.InspectPath(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	res.Objects = ins.Expansions
	res.Refs = ins.Refs
	res.Duration = time.Since(start)
	a.record(res)
	return res, nil
}

func (a *App) record(res *runResult) {
	if a.hist == nil {
		return
	}
	err := a.hist.SaveRun(history.Run{
		Module:      res.Path.Module,
		Duration:    res.Duration,
		ObjectCount: res.Objects,
		RefCount:    res.Refs,
		CacheHit:    res.CacheHit,
	})
	if err != nil {
		slog.Warn("failed to record run", "module", res.Path.Module, "error", err)
	}
}

// Run inspects a name and prints it, optionally re-running on source
// changes.
func (a *App) Run(ctx context.Context, name string, jsonOut, watch bool) error {
	render := func() error {
		res, err := a.inspectName(ctx, name)
		if err != nil {
			return err
		}
		if jsonOut {
			data, err := objdoc.Encode(res.Doc)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		r := terminal.New(os.Stdout, terminal.Options{
			ShowPrivate:  a.Config.Render.ShowPrivate,
			ShowImported: a.Config.Render.ShowImported,
			ShowSource:   a.Config.Render.ShowSource,
		})
		return r.Render(res.Path.String(), res.Doc)
	}

	if err := render(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	if err := a.startWatcher(func(paths []string) {
		a.invalidate(paths)
		if err := render(); err != nil {
			slog.Error("re-render failed", "name", name, "error", err)
		}
	}); err != nil {
		return err
	}
	return a.waitForInterrupt(ctx)
}

// Serve runs the HTTP server until interrupted.
func (a *App) Serve(ctx context.Context, watch bool) error {
	srv := serve.New(a.Config)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	if watch {
		if err := a.startWatcher(a.invalidate); err != nil {
			return err
		}
	}
	if err := a.waitForInterrupt(ctx); err != nil {
		return err
	}
	return srv.Stop(context.Background())
}

func (a *App) startWatcher(onChange func([]string)) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		onChange,
	)
	if err != nil {
		return err
	}
	// Runs for the life of the process; no Close.
	return w.Watch(a.Config.SearchPath)
}

// invalidate drops disk cache entries for the modules behind changed
// files. The next inspection reparses them.
func (a *App) invalidate(paths []string) {
	imp := importer.New(a.Config.SearchPath)
	for _, path := range paths {
		mod, ok := imp.ModuleNameForFile(path)
		if !ok {
			continue
		}
		slog.Debug("source changed", "file", path, "module", mod)
		if a.store != nil {
			a.store.Invalidate(mod)
		}
	}
}

// PrintHistory lists recent runs, newest first, optionally filtered to
// one module name.
func (a *App) PrintHistory(name string) error {
	if a.hist == nil {
		return fmt.Errorf("history store unavailable")
	}
	module := ""
	if name != "" {
		module, _, _ = pypath.Split(name)
	}
	runs, err := a.hist.LoadRecent(module, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, run := range runs {
		hit := " "
		if run.CacheHit {
			hit = "*"
		}
		fmt.Printf("%s %s %-30s %6dms %5d objects %5d refs\n",
			hit, run.Timestamp.Format(time.RFC3339), run.Module,
			run.Duration.Milliseconds(), run.ObjectCount, run.RefCount)
	}
	return nil
}

func (a *App) waitForInterrupt(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	return nil
}
