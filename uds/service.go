package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"

	"github.com/ecogroup/ecgsite/svc"
)

// Service is the local admin control socket
type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	Commands   *CommandStore
	listener   net.Listener
}

// Ensure uds.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, cmdStore *CommandStore) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	if cmdStore == nil {
		cmdStore = NewCommandStore()
	}
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		Commands:   cmdStore,
	}
}

// Start the unix socket service in the background.
// Bootstrapping errors are returned immediately.
// Runtime errors are pushed into Done().
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	// clean up old socket if any
	_ = os.Remove(s.SocketPath)
	listener, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %v", s.SocketPath, err)
	}
	s.listener = listener
	// tighten permissions immediately after binding
	if err = os.Chmod(s.SocketPath, 0600); err != nil {
		_ = s.listener.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod(%q) failed: %w", s.SocketPath, err)
	}
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	log.Println("[INFO][UDS] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// run - internal run loop
func (s *Service) run() {
	go func() {
		<-s.Ctx.Done()
		log.Printf("[INFO][UDS] stopping")
		if err := s.listener.Close(); err != nil {
			log.Printf("[ERROR][UDS] cannot close listener: %v", err)
		}
		// To avoid TOCTOU race, just try removing before checking if it exists.
		if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[ERROR][UDS] cannot remove socket file: %v", err)
		}
	}()

	log.Printf("[INFO][UDS] listening on %q ...\n", s.SocketPath)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Printf("[INFO][UDS] socket closed")
				s.done <- nil // also a clean shutdown
				return
			}
			// For transient errors, don’t kill the loop
			log.Println("[ERROR][UDS] accept failed:", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Service) handleConn(c net.Conn) {
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-s.Ctx.Done():
			_ = c.Close()
		case <-connDone:
		}
	}()

	defer func() {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("[ERROR][UDS] closing connection: %v\n", err)
		}
	}()

	reader := bufio.NewReader(io.LimitReader(c, 1<<20)) // 1 MB max per connection

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("[ERROR][UDS] read error: %v\n", err)
			}
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		cmdStr := args[0]
		switch cmdStr {
		case "quit":
			return
		case "help":
			s.Commands.writeHelp(c)
			continue
		}
		cmdHnd, ok := s.Commands.Get(cmdStr)
		if !ok {
			_, _ = fmt.Fprintf(c, "unknown command: %s\n", cmdStr)
			continue // give another chance
		}
		log.Printf("[INFO][UDS] requested command `%s`\n", line)
		if err = cmdHnd.Fn(s.Ctx, args[1:], c); err != nil {
			log.Printf("[ERROR][UDS] command `%s` failed: %v\n", line, err)
			_, _ = fmt.Fprintf(c, "error: %v\n", err)
			if cmdHnd.Usage != "" {
				_, _ = fmt.Fprintf(c, "usage: %s %s\n", cmdStr, cmdHnd.Usage)
			}
			return
		}
		log.Printf("[INFO][UDS] command `%s` done\n", line)
		return
	}
}
