package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/ecogroup/ecgsite/svc"
)

const DefaultShutdownTimeout = 10 * time.Second

// Service runs the HTTP server under the root context
type Service struct {
	Ctx             context.Context    // Service Context
	cancel          context.CancelFunc // Service Context CancelFunc
	state           int                // internal service state
	done            chan error         // Shutdown Error Channel
	Server          *http.Server
	ShutdownTimeout time.Duration
	listener        net.Listener
}

// Ensure web.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Start binds the address before returning so that a busy port is a bootstrapping error
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.listener = ln
	s.state = svc.StateRUNNING

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("[INFO][WEB] listening on %s ...", ln.Addr())
		if err := s.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		} else {
			serverErrChan <- nil
		}
	}()

	go func() {
		select {
		case err := <-serverErrChan: // died on its own
			s.cancel()
			s.done <- err
		case <-s.Ctx.Done():
			// Stop accepting new requests; requests already in flight get the timeout to finish
			ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
			defer cancel()
			if err := s.Server.Shutdown(ctx); err != nil {
				log.Printf("[ERROR][WEB] server shutdown failed: %v", err)
			}
			s.done <- <-serverErrChan
			log.Println("[INFO][WEB] shutdown complete")
		}
	}()
	return nil
}

// Addr is the bound address, useful when listening on ":0"
func (s *Service) Addr() string {
	if s.listener == nil {
		return s.Server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][WEB] service stopping")
}

func (s *Service) Done() <-chan error {
	return s.done
}
