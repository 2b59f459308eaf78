package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pennadev/penna/config"
	"github.com/pennadev/penna/site"
)

// RebuildFunc regenerates the site; the serve command wires it to a template
// reload plus a full static build.
type RebuildFunc func(context.Context) error

// Server ties HTTP handlers to the generated site.
type Server struct {
	cfg          *config.Config
	svc          *site.Service
	logger       *slog.Logger
	mux          *http.ServeMux
	serverHeader string
	rebuild      RebuildFunc
	watch        bool
}

// New constructs a server instance.
func New(cfg *config.Config, svc *site.Service, logger *slog.Logger, serverHeader string, rebuild RebuildFunc, watch bool) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	srv := &Server{
		cfg:          cfg,
		svc:          svc,
		logger:       logger,
		mux:          http.NewServeMux(),
		serverHeader: strings.TrimSpace(serverHeader),
		rebuild:      rebuild,
		watch:        watch,
	}
	srv.routes()
	return srv
}

// Start builds the site, launches the HTTP server, and attaches graceful
// shutdown behaviour. It blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.doRebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	if s.watch {
		watcher, err := newWatcher(s.cfg, s.logger, func() {
			if err := s.doRebuild(ctx); err != nil {
				s.logger.Error("rebuild", "error", err)
				return
			}
			s.logger.Info("site rebuilt")
		})
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		go watcher.Run(ctx)
	}

	listener, err := s.listen(s.cfg.Listen)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:      s.withServerHeader(s.logRequests(s.mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
		close(shutdownDone)
	}()

	s.logger.Info("listening", "address", s.cfg.Listen, "tls", s.cfg.EnableTLS)

	var serveErr error
	if s.cfg.EnableTLS {
		serveErr = server.ServeTLS(listener, s.cfg.TLSCert, s.cfg.TLSKey)
	} else {
		serveErr = server.Serve(listener)
	}

	if errors.Is(serveErr, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return serveErr
}

func (s *Server) doRebuild(ctx context.Context) error {
	if s.rebuild != nil {
		return s.rebuild(ctx)
	}
	return s.svc.BuildStatic(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/webhook/rebuild", s.handleWebhookRebuild)
	s.mux.HandleFunc("/search-index.json", s.handleSearchIndex)
	s.mux.HandleFunc("/", s.handlePage)
}

func (s *Server) listen(address string) (net.Listener, error) {
	if listener, ok, err := s.systemdListener(); err != nil {
		return nil, err
	} else if ok {
		return listener, nil
	}
	if after, ok := strings.CutPrefix(address, "unix:"); ok {
		path := after
		_ = os.Remove(path)
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", address)
}

func (s *Server) systemdListener() (net.Listener, bool, error) {
	pidEnv := strings.TrimSpace(os.Getenv("LISTEN_PID"))
	if pidEnv == "" {
		return nil, false, nil
	}
	pid, err := strconv.Atoi(pidEnv)
	if err != nil || pid != os.Getpid() {
		return nil, false, nil
	}
	fdsEnv := strings.TrimSpace(os.Getenv("LISTEN_FDS"))
	if fdsEnv == "" {
		return nil, false, nil
	}
	fds, err := strconv.Atoi(fdsEnv)
	if err != nil {
		return nil, false, fmt.Errorf("systemd listener: invalid LISTEN_FDS: %w", err)
	}
	if fds <= 0 {
		return nil, false, nil
	}
	const sdListenFdsStart = 3
	file := os.NewFile(uintptr(sdListenFdsStart), fmt.Sprintf("systemd-fd-%d", sdListenFdsStart))
	if file == nil {
		return nil, false, fmt.Errorf("systemd listener: failed to access fd")
	}
	listener, err := net.FileListener(file)
	_ = file.Close()
	if err != nil {
		return nil, false, fmt.Errorf("systemd listener: %w", err)
	}
	_ = os.Unsetenv("LISTEN_PID")
	_ = os.Unsetenv("LISTEN_FDS")
	_ = os.Unsetenv("LISTEN_FDNAMES")
	return listener, true, nil
}

func (s *Server) withServerHeader(next http.Handler) http.Handler {
	if s.serverHeader == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverHeader)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Info("http", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
