package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/curaious/folio/internal/config"
	"github.com/curaious/folio/internal/services"
)

// Server is the fasthttp server exposing the catalog and the admin API.
type Server struct {
	srv      *fasthttp.Server
	addr     string
	origins  []string
	services *services.Services
}

// New creates a new server serving svc on conf.SERVER_ADDR
func New(conf *config.Config, svc *services.Services) *Server {
	s := &Server{
		srv: &fasthttp.Server{
			Name:               "folio",
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       30 * time.Second,
			MaxRequestBodySize: 8 << 20,
		},
		addr:     conf.SERVER_ADDR,
		origins:  conf.ALLOWED_ORIGINS,
		services: svc,
	}

	s.srv.Handler = s.initRoutes()

	return s
}

// Handler exposes the routed handler, wrapped in middlewares.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.srv.Handler
}

// Start the rest server and block until SIGINT or SIGTERM.
func (s *Server) Start() error {
	slog.Info("Starting REST server...", slog.String("addr", s.addr))

	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe(s.addr)
	}()

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case err := <-errc:
		slog.Error("Server shutdown", slog.Any("error", err))
		return err
	case <-c:
		slog.Info("Received interrupt...")
	}

	// Create a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
	return nil
}

// Shutdown shuts down the rest server
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}
	slog.Info("REST server shutdown!")
}
