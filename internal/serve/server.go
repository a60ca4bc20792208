// Package serve exposes inspected documentation over HTTP: JSON objdocs,
// rendered HTML pages, prometheus metrics, and the API description.
package serve

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supdoc/internal/cache"
	"supdoc/internal/config"
	"supdoc/internal/core/errors"
	"supdoc/internal/importer"
	"supdoc/internal/inspect"
	"supdoc/internal/objdoc"
	"supdoc/internal/pypath"
	"supdoc/internal/render/html"
	"supdoc/internal/shared/observability"
	"supdoc/internal/shared/util"
)

type Server struct {
	cfg     *config.Config
	store   *cache.Store
	limiter *util.Limiter
	server  *http.Server
}

func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		limiter: util.NewLimiter(cfg.Serve.RateLimit, cfg.Serve.Burst),
	}
	if cfg.Cache.Enabled {
		s.store = cache.NewStore(cfg.Cache.Dir, inspect.SchemaVersion)
	}
	return s
}

// Handler builds the routing table. Split from Start so tests can drive
// the handlers without a listening socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /modules/{name}", s.instrument("modules", s.handleModule))
	mux.Handle("GET /docs/{name}", s.instrument("docs", s.handleDocs))
	mux.Handle("GET /openapi.json", s.instrument("openapi", s.handleOpenAPI))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "up"})
	})
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.cfg.Serve.Addr,
		Handler: s.Handler(),
	}

	slog.Info("documentation server starting", "addr", s.cfg.Serve.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("documentation server failed", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument applies rate limiting and per-handler request counting.
func (s *Server) instrument(name string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(1) {
			observability.HTTPRequests.WithLabelValues(name, "429").Inc()
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		observability.HTTPRequests.WithLabelValues(name, strconv.Itoa(rec.code)).Inc()
	})
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, err := s.document(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	data, err := objdoc.Encode(doc)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Write(data)
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	doc, err := s.document(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := html.Options{
		ShowPrivate:  s.cfg.Render.ShowPrivate,
		ShowImported: s.cfg.Render.ShowImported,
		ShowSource:   s.cfg.Render.ShowSource,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := html.Render(w, name, doc, opts); err != nil {
		slog.Error("html render failed", "name", name, "error", err)
	}
}

// document resolves a request name to its objdoc. Each request gets a
// fresh importer and inspector; the traversal cache must not be shared
// across concurrent inspections.
func (s *Server) document(ctx context.Context, name string) (*objdoc.Node, error) {
	imp := importer.New(s.cfg.SearchPath)
	ins := inspect.New(imp)

	module, qualname, explicit := pypath.Split(name)
	if explicit && qualname != "" {
		p, err := pypath.New(module, qualname)
		if err != nil {
			return nil, err
		}
		return ins.InspectPath(ctx, p)
	}

	if s.store != nil {
		if src, err := imp.ModuleFile(name); err == nil {
			if doc, ok := s.store.Load(name, src); ok {
				return doc, nil
			}
		}
	}

	// Import explicitly so a bad module name maps to a 404 instead of
	// the empty document InspectModule reports for batch runs.
	if _, err := imp.Import(name); err != nil {
		return nil, err
	}
	doc := ins.InspectModule(ctx, name)

	if s.store != nil {
		if src, err := imp.ModuleFile(name); err == nil {
			s.store.Save(name, src, doc)
		}
	}
	return doc, nil
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.IsCode(err, errors.CodeImportError),
		errors.IsCode(err, errors.CodeNotFound),
		errors.IsCode(err, errors.CodeQualnameNotFound),
		errors.IsCode(err, errors.CodeFullNameNotFound):
		code = http.StatusNotFound
	case errors.IsCode(err, errors.CodeValidationError),
		errors.IsCode(err, errors.CodeMalformedRef):
		code = http.StatusBadRequest
	}
	http.Error(w, err.Error(), code)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
