package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server wraps net/http.Server the way cmd/revad/httpserver.Server does —
// network/address config, a graceful Stop with a bounded shutdown
// deadline — simplified to one fixed router instead of a
// plugin-registered service/middleware list, since this server has no
// equivalent to reva's per-deployment enabled_services config.
type Server struct {
	httpServer *http.Server
	network    string
	address    string
	log        zerolog.Logger
}

// New returns a new Server bound to handler.
func New(network, address string, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{Handler: handler},
		network:    network,
		address:    address,
		log:        log,
	}
}

func (s *Server) Network() string { return s.network }
func (s *Server) Address() string { return s.address }

// Start listens and serves until the listener closes or GracefulStop is called.
func (s *Server) Start(ln net.Listener) error {
	s.log.Info().Msgf("http server listening at %s:%s", s.network, s.address)
	err := s.httpServer.Serve(ln)
	if err == nil || err == http.ErrServerClosed {
		return nil
	}
	return err
}

// GracefulStop shuts the server down, giving in-flight requests up to 30
// seconds to finish, matching the reconciler's hard ceiling on a single
// background iteration (spec §5 "cancellation & timeouts").
func (s *Server) GracefulStop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
