// Package server exposes the identification and tuning workflow over HTTP.
//
// Requests are form encoded (multipart for uploads) and responses are JSON.
// Rendered charts are written to the store's plots directory and served
// under /plots/.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/storage"
)

type Server struct {
	store   *storage.Store
	cfg     pipeline.Config
	cache   *simCache
	metrics *Metrics
	log     *logrus.Entry
	router  chi.Router
}

func New(store *storage.Store, cfg pipeline.Config, cacheEntries int64) (*Server, error) {
	if err := store.Init(); err != nil {
		return nil, err
	}
	cache, err := newSimCache(cacheEntries)
	if err != nil {
		return nil, errors.Wrap(err, "create simulation cache")
	}

	s := &Server{
		store:   store,
		cfg:     cfg,
		cache:   cache,
		metrics: NewMetrics(),
		log:     logrus.WithField("component", "server"),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.Logger)
	root.Use(middleware.Recoverer)
	root.Use(middleware.StripSlashes)
	root.Use(s.metrics.Instrument)

	root.Get("/", s.handleRoot)
	root.Post("/upload", s.handleUpload)
	root.Post("/identify", s.handleIdentify)
	root.Post("/tune", s.handleTune)
	root.Post("/plot", s.handlePlot)
	root.Post("/analyze-filter", s.handleAnalyzeFilter)
	root.Get("/datasets", s.handleListDatasets)
	root.Get("/datasets/{id}", s.handleGetDataset)
	root.Handle("/plots/*", http.StripPrefix("/plots/", http.FileServer(http.Dir(s.store.PlotsDir()))))
	root.Handle("/metrics", s.metrics.Handler())
	return root
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) Close() {
	s.cache.close()
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	respond(w, status, map[string]string{"detail": err.Error()})
}
