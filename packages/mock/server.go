package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/env"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server serves a set of routes.
type Server struct {
	routes   []*Route
	addr     string
	delay    time.Duration
	logger   logrus.FieldLogger
	resolver *env.Resolver

	router *mux.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// Option is a functional option for Server
type Option func(*Server)

// WithAddr sets the listen address. The default ":0" picks a free port.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithDelay adds a delay to every response, on top of per-route delays.
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver sets the resolver used for body templates, e.g. to make
// variables available to every response.
func WithResolver(resolver *env.Resolver) Option {
	return func(s *Server) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

func NewServer(routes []*Route, opts ...Option) *Server {
	s := &Server{
		routes:   routes,
		addr:     ":0",
		logger:   logrus.StandardLogger(),
		resolver: env.NewResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver.SetLogger(s.logger)

	s.router = mux.NewRouter()
	for _, route := range routes {
		s.router.HandleFunc(route.Path, s.handle(route)).Methods(route.Method).Name(route.Name)
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Info("no route")
		http.NotFound(w, r)
	})
	return s
}

// Handler returns the routing handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Routes() []*Route {
	return s.routes
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	httpServer := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"url": s.URL(), "routes": len(s.routes)}).Info("mock server started")
	for _, route := range s.routes {
		s.logger.WithFields(logrus.Fields{"method": route.Method, "path": route.Path, "status": route.Status}).Debug("route")
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("mock server stopped")
		}
	}()
	return nil
}

// URL is the base URL of a started server.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	port := s.listener.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://localhost:%d", port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) handle(route *Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if delay := s.delay + route.Delay; delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		resolver := s.resolver.Clone()
		for name, value := range mux.Vars(r) {
			resolver.SetVariable("path."+name, value)
		}
		for name, values := range r.URL.Query() {
			if len(values) > 0 {
				resolver.SetVariable("query."+name, values[0])
			}
		}

		for _, h := range route.Headers {
			w.Header().Add(h.Name, resolver.Resolve(h.Value))
		}
		w.WriteHeader(route.Status)
		_, _ = w.Write([]byte(resolver.Resolve(string(route.Body))))

		s.logger.WithFields(logrus.Fields{
			"route":    route.Name,
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   route.Status,
			"duration": time.Since(start),
		}).Debug("served")
	}
}
